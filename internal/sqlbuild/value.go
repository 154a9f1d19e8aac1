package sqlbuild

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// LiteralFunc renders value as a SQL literal for the named column.
type LiteralFunc func(column, value string) string

// SetValue is one SET-clause assignment. A nil Value or IsNull renders NULL.
type SetValue struct {
	Value  *string `json:"value" yaml:"value"`
	IsNull bool    `json:"is_null,omitempty" yaml:"is_null,omitempty"`
}

// Val is a convenience constructor for a non-NULL SetValue.
func Val(s string) SetValue {
	return SetValue{Value: &s}
}

// Null is the NULL SetValue.
func Null() SetValue {
	return SetValue{IsNull: true}
}

// Quote returns s as a single-quoted string literal with embedded single
// quotes doubled. No other characters are escaped.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsNumericLiteral reports whether s can be emitted unquoted as a number.
// The check does not depend on locale: only digits, sign, a decimal point
// and an exponent are accepted.
func IsNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune("0123456789+-.eE", rune(s[i])) {
			return false
		}
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// FormatValue renders v as a literal for col. nil is NULL; numeric columns
// get a bare literal when the value is a number; everything else is quoted.
func FormatValue(v any, col schema.Column) string {
	if p, ok := v.(*string); v == nil || (ok && p == nil) {
		return "NULL"
	}
	s := stringify(v)
	if col.IsNumeric() && IsNumericLiteral(s) {
		return s
	}
	return Quote(s)
}

// FormatSetValue renders a SET-clause value for col.
func FormatSetValue(sv SetValue, col schema.Column) string {
	if sv.IsNull || sv.Value == nil {
		return "NULL"
	}
	return FormatValue(*sv.Value, col)
}

// SetValues converts decoded row data (JSON or YAML) into SET values; nil
// becomes NULL.
func SetValues(data map[string]any) map[string]SetValue {
	out := make(map[string]SetValue, len(data))
	for k, v := range data {
		if v == nil {
			out[k] = Null()
			continue
		}
		out[k] = Val(stringify(v))
	}
	return out
}

// LiteralByValue decides quoting from the value alone: numbers are bare,
// everything else is quoted. The SELECT assembler uses it because it has no
// column metadata.
func LiteralByValue(_ string, value string) string {
	if IsNumericLiteral(value) {
		return value
	}
	return Quote(value)
}

// LiteralByColumn decides quoting from column metadata. Columns may be
// referenced bare or qualified as table.column; unknown columns fall back to
// LiteralByValue.
func LiteralByColumn(cols []schema.Column) LiteralFunc {
	byName := make(map[string]schema.Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	return func(column, value string) string {
		if c, ok := byName[unqualified(column)]; ok {
			return FormatValue(value, c)
		}
		return LiteralByValue(column, value)
	}
}

func unqualified(column string) string {
	if i := strings.LastIndexByte(column, '.'); i >= 0 {
		column = column[i+1:]
	}
	return unquote(column)
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
