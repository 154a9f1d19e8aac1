package sqlbuild

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// Table option defaults for CREATE TABLE.
const (
	DefaultEngine    = "InnoDB"
	DefaultCharset   = "utf8mb4"
	DefaultCollation = "utf8mb4_unicode_ci"
)

// ColumnDefinition is one column row of the CREATE TABLE form. Length and
// EnumValues are mutually exclusive: ENUM and SET take values, every other
// type takes an optional length such as "255" or "10,2".
type ColumnDefinition struct {
	Name          string   `json:"name" yaml:"name"`
	Type          string   `json:"type" yaml:"type"`
	Length        string   `json:"length,omitempty" yaml:"length,omitempty"`
	EnumValues    []string `json:"enum_values,omitempty" yaml:"enum_values,omitempty"`
	Nullable      bool     `json:"nullable" yaml:"nullable"`
	Unsigned      bool     `json:"unsigned,omitempty" yaml:"unsigned,omitempty"`
	AutoIncrement bool     `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	PrimaryKey    bool     `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique        bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default       *string  `json:"default,omitempty" yaml:"default,omitempty"`
	Extra         string   `json:"extra,omitempty" yaml:"extra,omitempty"`
	Comment       string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// IndexKind is the key type of an explicit index.
type IndexKind string

const (
	IndexPlain    IndexKind = "INDEX"
	IndexUnique   IndexKind = "UNIQUE"
	IndexFulltext IndexKind = "FULLTEXT"
)

// IndexSpec is an explicit index clause. Name is optional.
type IndexSpec struct {
	Name    string    `json:"name,omitempty" yaml:"name,omitempty"`
	Type    IndexKind `json:"type,omitempty" yaml:"type,omitempty"`
	Columns []string  `json:"columns" yaml:"columns"`
}

// ForeignKeySpec is a single-column foreign key clause. Name is optional.
type ForeignKeySpec struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"ref_table" yaml:"ref_table"`
	RefColumn string `json:"ref_column" yaml:"ref_column"`
	OnDelete  string `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate  string `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// CreateTable is the state of the CREATE TABLE builder.
type CreateTable struct {
	Name        string             `json:"name" yaml:"name"`
	Engine      string             `json:"engine,omitempty" yaml:"engine,omitempty"`
	Charset     string             `json:"charset,omitempty" yaml:"charset,omitempty"`
	Collation   string             `json:"collation,omitempty" yaml:"collation,omitempty"`
	Comment     string             `json:"comment,omitempty" yaml:"comment,omitempty"`
	Columns     []ColumnDefinition `json:"columns" yaml:"columns"`
	Indexes     []IndexSpec        `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKeySpec   `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

// Build renders the statement. It returns a sentinel while the table has no
// name or no columns, and a *ValidationError for inconsistent input.
func (t CreateTable) Build() (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return SentinelCreateNoName, nil
	}
	if len(t.Columns) == 0 {
		return SentinelCreateNoColumns, nil
	}

	engine, charset, collation, err := t.options()
	if err != nil {
		return "", err
	}

	var lines []string
	seenCols := make(map[string]bool, len(t.Columns))
	var pk, unique []string
	for i, c := range t.Columns {
		line, err := c.render(i)
		if err != nil {
			return "", err
		}
		key := strings.ToLower(c.Name)
		if seenCols[key] {
			return "", invalid("columns", "duplicate column %q", c.Name)
		}
		seenCols[key] = true
		lines = append(lines, line)
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		} else if c.Unique {
			unique = append(unique, c.Name)
		}
	}

	if len(pk) > 0 {
		lines = append(lines, "PRIMARY KEY ("+quoteList(pk)+")")
	}

	names := make(map[string]bool)
	claim := func(field, n string) error {
		if n == "" {
			return nil
		}
		k := strings.ToLower(n)
		if names[k] || k == strings.ToLower(schema.PrimaryIndexName) {
			return invalid(field, "duplicate key name %q", n)
		}
		names[k] = true
		return nil
	}

	for _, col := range unique {
		if err := claim("columns", col); err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("UNIQUE KEY %s (%s)", Backtick(col), Backtick(col)))
	}

	for i, idx := range t.Indexes {
		line, err := idx.render(i, seenCols)
		if err != nil {
			return "", err
		}
		if err := claim(fmt.Sprintf("indexes[%d].name", i), strings.TrimSpace(idx.Name)); err != nil {
			return "", err
		}
		lines = append(lines, line)
	}

	for i, fk := range t.ForeignKeys {
		line, err := fk.render(i, seenCols)
		if err != nil {
			return "", err
		}
		if err := claim(fmt.Sprintf("foreign_keys[%d].name", i), strings.TrimSpace(fk.Name)); err != nil {
			return "", err
		}
		lines = append(lines, line)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE " + Backtick(name) + " (\n  ")
	b.WriteString(strings.Join(lines, ",\n  "))
	fmt.Fprintf(&b, "\n) ENGINE=%s DEFAULT CHARSET=%s COLLATE=%s", engine, charset, collation)
	if t.Comment != "" {
		b.WriteString(" COMMENT=" + Quote(t.Comment))
	}
	b.WriteString(";")
	return b.String(), nil
}

func (t CreateTable) options() (engine, charset, collation string, err error) {
	pick := func(field, v, def string) (string, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return def, nil
		}
		if !optionName.MatchString(v) {
			return "", invalid(field, "invalid value %q", v)
		}
		return v, nil
	}
	if engine, err = pick("engine", t.Engine, DefaultEngine); err != nil {
		return
	}
	if charset, err = pick("charset", t.Charset, DefaultCharset); err != nil {
		return
	}
	collation, err = pick("collation", t.Collation, DefaultCollation)
	return
}

// TypeClause returns TYPE[(length|values)][ UNSIGNED].
func (c ColumnDefinition) TypeClause() (string, error) {
	typ := strings.ToUpper(strings.TrimSpace(c.Type))
	if typ == "" {
		return "", invalid(c.field("type"), "column type is required")
	}
	if !optionName.MatchString(typ) {
		return "", invalid(c.field("type"), "invalid type %q", c.Type)
	}

	switch typ {
	case "ENUM", "SET":
		if len(c.EnumValues) == 0 {
			return "", invalid(c.field("enum_values"), "%s needs at least one value", typ)
		}
		vals := make([]string, len(c.EnumValues))
		for i, v := range c.EnumValues {
			vals[i] = Quote(v)
		}
		typ += "(" + strings.Join(vals, ",") + ")"
	default:
		if len(c.EnumValues) > 0 {
			return "", invalid(c.field("enum_values"), "values are only allowed for ENUM and SET")
		}
		if l := strings.ReplaceAll(c.Length, " ", ""); l != "" {
			if !validLength(l) {
				return "", invalid(c.field("length"), "invalid length %q", c.Length)
			}
			typ += "(" + l + ")"
		}
	}
	if c.Unsigned {
		typ += " UNSIGNED"
	}
	return typ, nil
}

func (c ColumnDefinition) render(i int) (string, error) {
	if strings.TrimSpace(c.Name) == "" {
		return "", invalid(fmt.Sprintf("columns[%d].name", i), "column name is required")
	}
	typ, err := c.TypeClause()
	if err != nil {
		return "", err
	}
	return columnDDL{
		name:          strings.TrimSpace(c.Name),
		typ:           typ,
		nullable:      c.Nullable,
		autoIncrement: c.AutoIncrement,
		def:           c.Default,
		extra:         c.Extra,
		comment:       c.Comment,
	}.String(), nil
}

func (c ColumnDefinition) field(f string) string {
	return c.Name + "." + f
}

func validLength(l string) bool {
	for _, part := range strings.Split(l, ",") {
		if n, err := strconv.Atoi(part); err != nil || n < 0 {
			return false
		}
	}
	return true
}

func (idx IndexSpec) render(i int, cols map[string]bool) (string, error) {
	field := fmt.Sprintf("indexes[%d]", i)
	columns := trimmed(idx.Columns)
	if len(columns) == 0 {
		return "", invalid(field, "index needs at least one column")
	}
	for _, c := range columns {
		if !cols[strings.ToLower(c)] {
			return "", invalid(field, "unknown column %q", c)
		}
	}
	var kw string
	switch IndexKind(strings.ToUpper(strings.TrimSpace(string(idx.Type)))) {
	case "", IndexPlain, "KEY":
		kw = "KEY"
	case IndexUnique:
		kw = "UNIQUE KEY"
	case IndexFulltext:
		kw = "FULLTEXT KEY"
	default:
		return "", invalid(field, "unsupported index type %q", idx.Type)
	}
	if n := strings.TrimSpace(idx.Name); n != "" {
		kw += " " + Backtick(n)
	}
	return kw + " (" + quoteList(columns) + ")", nil
}

func (fk ForeignKeySpec) render(i int, cols map[string]bool) (string, error) {
	field := fmt.Sprintf("foreign_keys[%d]", i)
	col := strings.TrimSpace(fk.Column)
	switch {
	case col == "":
		return "", invalid(field, "foreign key column is required")
	case strings.TrimSpace(fk.RefTable) == "":
		return "", invalid(field, "referenced table is required")
	case strings.TrimSpace(fk.RefColumn) == "":
		return "", invalid(field, "referenced column is required")
	case !cols[strings.ToLower(col)]:
		return "", invalid(field, "unknown column %q", col)
	}
	return foreignKeyClause(field, fk.Name, []string{col}, fk.RefTable, []string{fk.RefColumn}, fk.OnDelete, fk.OnUpdate)
}

func foreignKeyClause(field, name string, cols []string, refTable string, refCols []string, onDelete, onUpdate string) (string, error) {
	del, err := parseReferentialAction(field, onDelete)
	if err != nil {
		return "", err
	}
	upd, err := parseReferentialAction(field, onUpdate)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if n := strings.TrimSpace(name); n != "" {
		b.WriteString("CONSTRAINT " + Backtick(n) + " ")
	}
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteList(cols), Backtick(strings.TrimSpace(refTable)), quoteList(refCols))
	if del != "" {
		b.WriteString(" ON DELETE " + del)
	}
	if upd != "" {
		b.WriteString(" ON UPDATE " + upd)
	}
	return b.String(), nil
}
