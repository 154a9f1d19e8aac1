// Package suggest checks identifiers against introspected metadata and
// ranks "did you mean" alternatives for the ones that do not exist.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

// MaxSuggestions caps how many alternatives an error message lists.
const MaxSuggestions = 3

// labels adapts a string slice to fuzzy.Source with case folded.
type labels []string

func (l labels) String(i int) string { return strings.ToLower(l[i]) }
func (l labels) Len() int            { return len(l) }

// Closest returns up to n candidates ranked by fuzzy score against name.
// Matching is case-insensitive; the original spelling is returned.
func Closest(name string, candidates []string, n int) []string {
	if len(candidates) == 0 || name == "" {
		return nil
	}
	matches := fuzzy.FindFrom(strings.ToLower(name), labels(candidates))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidates[m.Index])
	}
	if len(out) == 0 {
		out = byPrefix(name, candidates)
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// byPrefix is the fallback when the name is not a subsequence of any
// candidate, e.g. a typo with swapped letters.
func byPrefix(name string, candidates []string) []string {
	lower := strings.ToLower(name)
	var out []string
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc != "" && lower != "" && lc[0] == lower[0] {
			out = append(out, c)
		}
	}
	return out
}

// Resolve returns the canonical spelling of name from candidates: an exact
// match, else a unique case-insensitive match. Anything else is a
// *sqlbuild.ValidationError naming the closest candidates.
func Resolve(kind, name string, candidates []string) (string, error) {
	var folded []string
	for _, c := range candidates {
		if c == name {
			return c, nil
		}
		if strings.EqualFold(c, name) {
			folded = append(folded, c)
		}
	}
	if len(folded) == 1 {
		return folded[0], nil
	}
	return "", Unknown(kind, name, candidates)
}

// Unknown builds the validation error for a name that does not exist.
func Unknown(kind, name string, candidates []string) error {
	msg := fmt.Sprintf("unknown %s %q", kind, name)
	if alts := Closest(name, candidates, MaxSuggestions); len(alts) > 0 {
		msg += " (did you mean " + strings.Join(alts, ", ") + "?)"
	}
	return &sqlbuild.ValidationError{Field: kind, Message: msg}
}

// Column resolves a column of t. Qualified and quoted references such as
// `users`.`name` are accepted.
func Column(t schema.Table, ref string) (string, error) {
	name := ref
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(name, "`\"")
	return Resolve("column", name, t.ColumnNames())
}

// Columns resolves every reference and reports the first unknown one.
func Columns(t schema.Table, refs ...string) error {
	for _, r := range refs {
		if strings.TrimSpace(r) == "" {
			continue
		}
		if _, err := Column(t, r); err != nil {
			return err
		}
	}
	return nil
}

// Table resolves a table name against the list a connection reported.
func Table(tables []string, name string) (string, error) {
	return Resolve("table", name, tables)
}

// DataType resolves a column type for the CREATE TABLE and ALTER forms.
func DataType(typ string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(typ))
	for _, t := range MySQLTypes {
		if t == upper {
			return t, nil
		}
	}
	return "", Unknown("type", typ, MySQLTypes)
}
