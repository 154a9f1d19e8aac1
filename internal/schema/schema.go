// Package schema holds the table metadata the SQL builders read: columns,
// indexes and foreign keys as reported by a database's introspection API.
package schema

import "strings"

// KeyType is the index participation reported for a column.
type KeyType string

const (
	KeyNone    KeyType = ""
	KeyPrimary KeyType = "PRI"
	KeyUnique  KeyType = "UNI"
	KeyIndex   KeyType = "MUL"
)

// Table represents a database table.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column is the metadata of a single table column.
type Column struct {
	Name string `json:"name"`
	// DataType is the bare type name, e.g. "varchar".
	DataType string `json:"data_type"`
	// ColumnType is the full declaration, e.g. "varchar(255)" or
	// "int(10) unsigned".
	ColumnType string  `json:"column_type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default,omitempty"`
	KeyType    KeyType `json:"key_type,omitempty"`
	Extra      string  `json:"extra,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

// Index represents a table index.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
	Type    string   `json:"type,omitempty"` // BTREE, FULLTEXT, HASH...
}

// ForeignKey represents a foreign key constraint.
type ForeignKey struct {
	Name       string   `json:"name"`
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns"`
	OnDelete   string   `json:"on_delete,omitempty"`
	OnUpdate   string   `json:"on_update,omitempty"`
}

// PrimaryIndexName is the name MySQL gives the primary key index.
const PrimaryIndexName = "PRIMARY"

// Type returns the most specific type description available.
func (c Column) Type() string {
	if c.ColumnType != "" {
		return c.ColumnType
	}
	return c.DataType
}

// BaseType returns the lower-cased type name without length, values or
// modifiers: "int(10) unsigned" -> "int".
func (c Column) BaseType() string {
	t := strings.ToLower(strings.TrimSpace(c.DataType))
	if t == "" {
		t = strings.ToLower(strings.TrimSpace(c.ColumnType))
	}
	if i := strings.IndexAny(t, "( "); i >= 0 {
		t = t[:i]
	}
	return t
}

// IsNumeric reports whether values of this column are written as bare
// numeric literals. The check is a substring match on the integer, decimal
// and floating-point type names of MySQL, Postgres and SQLite; spatial
// point types are excluded.
func (c Column) IsNumeric() bool {
	return IsNumericType(c.Type())
}

// IsNumericType is IsNumeric for a raw type string.
func IsNumericType(typ string) bool {
	t := strings.ToLower(typ)
	if strings.Contains(t, "point") {
		return false
	}
	for _, s := range []string{"int", "decimal", "numeric", "float", "double", "real", "serial"} {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// IsText reports whether the column holds character data that LIKE can
// match without a cast.
func (c Column) IsText() bool {
	return IsTextType(c.Type())
}

// IsTextType is IsText for a raw type string.
func IsTextType(typ string) bool {
	t := strings.ToLower(typ)
	for _, s := range []string{"char", "text", "clob", "string"} {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// Unsigned reports whether the full column type carries UNSIGNED.
func (c Column) Unsigned() bool {
	return strings.Contains(strings.ToLower(c.ColumnType), "unsigned")
}

// AutoIncrement reports whether Extra contains auto_increment.
func (c Column) AutoIncrement() bool {
	return strings.Contains(strings.ToLower(c.Extra), "auto_increment")
}

// ExtraWithoutAutoIncrement returns Extra with the auto_increment flag
// removed, keeping things like "on update CURRENT_TIMESTAMP".
func (c Column) ExtraWithoutAutoIncrement() string {
	fields := strings.Fields(c.Extra)
	kept := fields[:0]
	for _, f := range fields {
		if strings.EqualFold(f, "auto_increment") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// IsPrimary reports whether the column is part of the primary key.
func (c Column) IsPrimary() bool {
	return c.KeyType == KeyPrimary
}

// EnumValues returns the permitted values of an ENUM or SET column, parsed
// from ColumnType. It returns nil for any other type.
func (c Column) EnumValues() []string {
	t := c.ColumnType
	lower := strings.ToLower(t)
	if !strings.HasPrefix(lower, "enum(") && !strings.HasPrefix(lower, "set(") {
		return nil
	}
	open := strings.IndexByte(t, '(')
	closing := strings.LastIndexByte(t, ')')
	if open < 0 || closing <= open {
		return nil
	}
	body := t[open+1 : closing]

	var (
		values []string
		cur    strings.Builder
		inStr  bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\'' && inStr && i+1 < len(body) && body[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case ch == '\'':
			if inStr {
				values = append(values, cur.String())
				cur.Reset()
			}
			inStr = !inStr
		case inStr:
			cur.WriteByte(ch)
		}
	}
	return values
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the primary key columns. The PRIMARY index order wins
// when indexes are loaded; otherwise columns flagged PRI are returned in
// declaration order.
func (t Table) PrimaryKey() []string {
	for _, idx := range t.Indexes {
		if idx.Name == PrimaryIndexName {
			return append([]string(nil), idx.Columns...)
		}
	}
	var pk []string
	for _, c := range t.Columns {
		if c.IsPrimary() {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// HasPrimaryKey reports whether the table currently has a primary key.
func (t Table) HasPrimaryKey() bool {
	return len(t.PrimaryKey()) > 0
}
