package sqlbuild

import (
	"testing"

	"github.com/sadopc/sqlcraft/internal/schema"
)

func col(name, typ string) schema.Column {
	return schema.Column{Name: name, DataType: typ, ColumnType: typ}
}

func strPtr(s string) *string { return &s }

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		col   schema.Column
		want  string
	}{
		{"quoted string", "O'Brien", col("name", "varchar(255)"), "'O''Brien'"},
		{"int passthrough", 42, col("qty", "int"), "42"},
		{"decimal string passthrough", "3.14", col("price", "decimal(10,2)"), "3.14"},
		{"float64", 2.5, col("ratio", "double"), "2.5"},
		{"nil", nil, col("qty", "int"), "NULL"},
		{"nil string pointer", (*string)(nil), col("name", "varchar(20)"), "NULL"},
		{"string pointer", strPtr("x"), col("name", "varchar(20)"), "'x'"},
		{"non-numeric into int column is quoted", "1; DROP TABLE t", col("id", "int"), "'1; DROP TABLE t'"},
		{"number on text column is quoted", "42", col("code", "char(3)"), "'42'"},
		{"point type is not numeric", "1", col("loc", "point"), "'1'"},
		{"backslash left alone", `a\b`, col("path", "text"), `'a\b'`},
		{"bool", true, col("flag", "tinyint(1)"), "1"},
		{"empty string", "", col("name", "varchar(20)"), "''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value, tt.col); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatSetValue(t *testing.T) {
	c := col("age", "int")
	if got := FormatSetValue(Null(), c); got != "NULL" {
		t.Errorf("FormatSetValue(Null()) = %q, want NULL", got)
	}
	if got := FormatSetValue(SetValue{}, c); got != "NULL" {
		t.Errorf("FormatSetValue(zero) = %q, want NULL", got)
	}
	if got := FormatSetValue(SetValue{Value: strPtr("7"), IsNull: true}, c); got != "NULL" {
		t.Errorf("IsNull must win over Value, got %q", got)
	}
	if got := FormatSetValue(Val("7"), c); got != "7" {
		t.Errorf("FormatSetValue(Val(7)) = %q, want 7", got)
	}
}

func TestIsNumericLiteral(t *testing.T) {
	tests := map[string]bool{
		"0":      true,
		"-3.5":   true,
		"+12":    true,
		"1e5":    true,
		".5":     true,
		"":       false,
		"1,5":    false,
		"0x1F":   false,
		"NaN":    false,
		"Inf":    false,
		"1 OR 1": false,
		"--1":    false,
	}
	for in, want := range tests {
		if got := IsNumericLiteral(in); got != want {
			t.Errorf("IsNumericLiteral(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLiteralByColumn(t *testing.T) {
	lit := LiteralByColumn([]schema.Column{col("age", "int"), col("zip", "varchar(10)")})

	tests := []struct {
		column, value, want string
	}{
		{"age", "30", "30"},
		{"users.age", "30", "30"},
		{"`users`.`age`", "30", "30"},
		{"zip", "12345", "'12345'"},
		{"unknown", "12345", "12345"},
		{"unknown", "abc", "'abc'"},
	}
	for _, tt := range tests {
		if got := lit(tt.column, tt.value); got != tt.want {
			t.Errorf("lit(%q, %q) = %q, want %q", tt.column, tt.value, got, tt.want)
		}
	}
}

func TestSetValues(t *testing.T) {
	got := SetValues(map[string]any{"name": "bo", "qty": float64(3), "price": 1.25, "note": nil, "ok": true})

	want := map[string]string{"name": "bo", "qty": "3", "price": "1.25", "ok": "1"}
	for k, v := range want {
		sv := got[k]
		if sv.IsNull || sv.Value == nil || *sv.Value != v {
			t.Errorf("SetValues()[%q] = %+v, want %q", k, sv, v)
		}
	}
	if !got["note"].IsNull {
		t.Errorf("SetValues()[note] = %+v, want NULL", got["note"])
	}
}
