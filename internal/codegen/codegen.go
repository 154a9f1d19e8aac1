// Package codegen writes a PHP data-access class for one table. Every value
// reaches the database through a PDO named placeholder.
package codegen

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

// Options selects the table and the names of the generated class.
type Options struct {
	Table      string
	ClassName  string // defaults to the table name in StudlyCase
	Namespace  string
	Columns    []schema.Column
	PrimaryKey []string
}

var (
	phpName      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	phpNamespace = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\\[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// ClassName turns a table name into a PHP class name: order_items becomes
// OrderItems.
func ClassName(table string) string {
	var b strings.Builder
	upper := true
	for _, r := range table {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "Table" + name
	}
	return name
}

// PHP renders the class source.
func PHP(opts Options) (string, error) {
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		return "", &sqlbuild.ValidationError{Field: "table", Message: "table name is required"}
	}
	if len(opts.Columns) == 0 {
		return "", &sqlbuild.ValidationError{Field: "columns", Message: fmt.Sprintf("table %s has no columns", table)}
	}
	class := strings.TrimSpace(opts.ClassName)
	if class == "" {
		class = ClassName(table)
	}
	if !phpName.MatchString(class) {
		return "", &sqlbuild.ValidationError{Field: "class", Message: fmt.Sprintf("invalid PHP class name %q", class)}
	}
	ns := strings.Trim(strings.TrimSpace(opts.Namespace), `\`)
	if ns != "" && !phpNamespace.MatchString(ns) {
		return "", &sqlbuild.ValidationError{Field: "namespace", Message: fmt.Sprintf("invalid PHP namespace %q", ns)}
	}

	known := make(map[string]bool, len(opts.Columns))
	cols := make([]string, len(opts.Columns))
	for i, c := range opts.Columns {
		cols[i] = c.Name
		known[c.Name] = true
	}
	for _, k := range opts.PrimaryKey {
		if !known[k] {
			return "", &sqlbuild.ValidationError{Field: "primary_key", Message: fmt.Sprintf("unknown key column %q", k)}
		}
	}

	data := classData{
		Namespace:  ns,
		Class:      class,
		Table:      table,
		QTable:     phpEscaper.Replace(sqlbuild.Backtick(table)),
		Columns:    cols,
		PrimaryKey: opts.PrimaryKey,
	}
	if len(opts.PrimaryKey) > 0 {
		data.KeyWhere = phpEscaper.Replace(keyWhere(opts.PrimaryKey, cols))
	}

	var buf bytes.Buffer
	if err := classTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	return buf.String(), nil
}

type classData struct {
	Namespace  string
	Class      string
	Table      string
	QTable     string
	Columns    []string
	PrimaryKey []string
	KeyWhere   string
}

// Composite reports whether rows are addressed by more than one column.
func (d classData) Composite() bool { return len(d.PrimaryKey) > 1 }

func keyWhere(pk, cols []string) string {
	parts := make([]string, len(pk))
	for i, k := range pk {
		parts[i] = fmt.Sprintf("%s = :pk%s", sqlbuild.Backtick(k), placeholder(k, cols))
	}
	return strings.Join(parts, " AND ")
}

var plainParam = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// placeholder is the parameter suffix the generated param() method uses:
// "_" plus the name for columns PDO accepts as is, otherwise the column's
// position in cols. The two forms cannot collide.
func placeholder(col string, cols []string) string {
	if plainParam.MatchString(col) {
		return "_" + col
	}
	for i, c := range cols {
		if c == col {
			return strconv.Itoa(i)
		}
	}
	return ""
}

var phpEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// phpString is a single-quoted PHP literal.
func phpString(s string) string {
	return "'" + phpEscaper.Replace(s) + "'"
}

var classTemplate = template.Must(template.New("class").Funcs(template.FuncMap{
	"php": phpString,
}).Parse(classSource))
