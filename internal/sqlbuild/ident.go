package sqlbuild

import "strings"

// Quoter quotes an identifier for a particular dialect. Dotted names are
// quoted part by part.
type Quoter func(name string) string

// Bare leaves identifiers untouched. The interactive builders use it.
func Bare(name string) string { return name }

// Backtick quotes MySQL-style: `table`.`column`.
func Backtick(name string) string {
	return quoteParts(name, "`")
}

// DoubleQuote quotes ANSI-style: "table"."column".
func DoubleQuote(name string) string {
	return quoteParts(name, `"`)
}

func quoteParts(name, q string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

func (q Quoter) ident(name string) string {
	if q == nil {
		return name
	}
	return q(name)
}

// unquote strips identifier quotes so metadata lookups work on quoted
// column references.
func unquote(name string) string {
	return strings.Trim(name, "`\"")
}
