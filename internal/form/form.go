// Package form maps column metadata to row-editor input fields.
package form

import (
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// Kind is the input widget used for a column.
type Kind string

const (
	KindNumber   Kind = "number"
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
	KindTime     Kind = "time"
	KindSelect   Kind = "select"
	KindMulti    Kind = "multiselect"
	KindCheckbox Kind = "checkbox"
)

// Field describes how the row editor renders and prefills one column.
type Field struct {
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Options  []string `json:"options,omitempty"`
	Default  *string  `json:"default,omitempty"`
	Step     string   `json:"step,omitempty"`
	MaxLen   int      `json:"max_length,omitempty"`
	Required bool     `json:"required"`
	Nullable bool     `json:"nullable"`
	ReadOnly bool     `json:"read_only"`
	Comment  string   `json:"comment,omitempty"`
}

// FieldFor picks the widget and defaults for c.
func FieldFor(c schema.Column) Field {
	f := Field{
		Name:     c.Name,
		Kind:     kindFor(c),
		Nullable: c.Nullable,
		Comment:  c.Comment,
	}
	switch f.Kind {
	case KindSelect, KindMulti:
		f.Options = c.EnumValues()
	case KindNumber:
		f.Step = stepFor(c)
	case KindText:
		f.MaxLen = lengthOf(c.ColumnType)
	}

	// Generated values are filled in by the server.
	if c.AutoIncrement() || isGenerated(c.Extra) {
		f.ReadOnly = true
		return f
	}
	f.Default = defaultFor(c)
	f.Required = !c.Nullable && c.Default == nil
	return f
}

// Fields returns one Field per column in declaration order.
func Fields(cols []schema.Column) []Field {
	out := make([]Field, len(cols))
	for i, c := range cols {
		out[i] = FieldFor(c)
	}
	return out
}

func kindFor(c schema.Column) Kind {
	base := c.BaseType()
	full := strings.ToLower(c.ColumnType)
	switch {
	case base == "tinyint" && strings.HasPrefix(full, "tinyint(1)"), base == "bool", base == "boolean", base == "bit" && lengthOf(full) <= 1:
		return KindCheckbox
	case base == "enum":
		return KindSelect
	case base == "set":
		return KindMulti
	case base == "date":
		return KindDate
	case base == "datetime", base == "timestamp":
		return KindDateTime
	case base == "time":
		return KindTime
	case base == "year":
		return KindNumber
	case strings.HasSuffix(base, "text"), base == "json", strings.HasSuffix(base, "blob"):
		return KindTextarea
	case c.IsNumeric():
		return KindNumber
	}
	return KindText
}

func stepFor(c schema.Column) string {
	base := c.BaseType()
	switch base {
	case "float", "double", "real":
		return "any"
	case "decimal", "numeric":
		t := strings.ToLower(c.ColumnType)
		open, closing := strings.IndexByte(t, '('), strings.IndexByte(t, ')')
		if open < 0 || closing < open {
			return "1"
		}
		parts := strings.Split(t[open+1:closing], ",")
		if len(parts) < 2 {
			return "1"
		}
		scale := strings.TrimSpace(parts[1])
		n := 0
		for _, r := range scale {
			if r < '0' || r > '9' {
				return "any"
			}
			n = n*10 + int(r-'0')
		}
		if n == 0 {
			return "1"
		}
		return "0." + strings.Repeat("0", n-1) + "1"
	}
	return "1"
}

func lengthOf(columnType string) int {
	open := strings.IndexByte(columnType, '(')
	closing := strings.IndexByte(columnType, ')')
	if open < 0 || closing <= open {
		return 0
	}
	n := 0
	for _, r := range columnType[open+1 : closing] {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func isGenerated(extra string) bool {
	e := strings.ToUpper(extra)
	return strings.Contains(e, "VIRTUAL GENERATED") || strings.Contains(e, "STORED GENERATED")
}

// defaultFor prefills the input. Current-time defaults are left to the
// server; everything else is shown as-is.
func defaultFor(c schema.Column) *string {
	if c.Default == nil {
		return nil
	}
	d := *c.Default
	upper := strings.ToUpper(d)
	if strings.HasPrefix(upper, "CURRENT_TIMESTAMP") || strings.HasPrefix(upper, "NOW(") || upper == "NULL" {
		return nil
	}
	return &d
}
