package sqlbuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// UpdateQuery is the state of the UPDATE builder. Set is keyed by column
// name; a column absent from Set is not part of the SET clause.
type UpdateQuery struct {
	Table      string              `json:"table" yaml:"table"`
	Set        map[string]SetValue `json:"set" yaml:"set"`
	Columns    []schema.Column     `json:"columns,omitempty" yaml:"-"`
	Conditions []Condition         `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Quote      Quoter              `json:"-" yaml:"-"`
}

// Build renders the UPDATE statement, or a sentinel comment while the table
// or the SET clause is still empty. A statement without WHERE is returned
// as-is; callers check HasUnscopedWhere to warn.
func (q UpdateQuery) Build() (string, error) {
	if strings.TrimSpace(q.Table) == "" {
		return SentinelUpdateNoTable, nil
	}
	if len(q.Set) == 0 {
		return SentinelUpdateNoColumns, nil
	}

	assignments := make([]string, 0, len(q.Set))
	byName := columnsByName(q.Columns)
	for _, name := range orderedKeys(q.Set, q.Columns) {
		assignments = append(assignments,
			fmt.Sprintf("%s = %s", q.Quote.ident(name), FormatSetValue(q.Set[name], byName[name])))
	}

	var b strings.Builder
	b.WriteString("UPDATE " + q.Quote.ident(q.Table) + "\n")
	b.WriteString("SET " + strings.Join(assignments, ",\n    "))

	where, err := renderConditions(q.Conditions, LiteralByColumn(q.Columns), q.Quote)
	if err != nil {
		return "", err
	}
	if where != "" {
		b.WriteString("\nWHERE " + where)
	}
	b.WriteString(";")
	return b.String(), nil
}

// HasUnscopedWhere reports whether the statement would touch every row.
func (q UpdateQuery) HasUnscopedWhere() bool {
	return len(ValidConditions(q.Conditions)) == 0
}

// UpdateWhere builds a bulk UPDATE and refuses to do so without at least one
// valid condition.
func UpdateWhere(table string, set map[string]SetValue, cols []schema.Column, conds []Condition, quote Quoter) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", invalid("table", "table name is required")
	}
	if len(set) == 0 {
		return "", invalid("set", "at least one column must be assigned")
	}
	if len(ValidConditions(conds)) == 0 {
		return "", ErrConditionsRequired
	}
	return UpdateQuery{Table: table, Set: set, Columns: cols, Conditions: conds, Quote: quote}.Build()
}

// DeleteQuery is a DELETE statement. Building one without a valid condition
// is always an error.
type DeleteQuery struct {
	Table      string
	Columns    []schema.Column
	Conditions []Condition
	Quote      Quoter
}

// Build renders the DELETE statement.
func (q DeleteQuery) Build() (string, error) {
	if strings.TrimSpace(q.Table) == "" {
		return "", invalid("table", "table name is required")
	}
	if len(ValidConditions(q.Conditions)) == 0 {
		return "", ErrConditionsRequired
	}
	where, err := renderConditions(q.Conditions, LiteralByColumn(q.Columns), q.Quote)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE FROM %s\nWHERE %s;", q.Quote.ident(q.Table), where), nil
}

// DeleteWhere builds a bulk DELETE; see DeleteQuery.
func DeleteWhere(table string, cols []schema.Column, conds []Condition, quote Quoter) (string, error) {
	return DeleteQuery{Table: table, Columns: cols, Conditions: conds, Quote: quote}.Build()
}

// InsertQuery is the row editor's INSERT.
type InsertQuery struct {
	Table   string
	Values  map[string]SetValue
	Columns []schema.Column
	Quote   Quoter
}

// Build renders the INSERT statement.
func (q InsertQuery) Build() (string, error) {
	if strings.TrimSpace(q.Table) == "" {
		return "", invalid("table", "table name is required")
	}
	if len(q.Values) == 0 {
		return "", invalid("data", "at least one column value is required")
	}
	byName := columnsByName(q.Columns)
	keys := orderedKeys(q.Values, q.Columns)
	names := make([]string, len(keys))
	values := make([]string, len(keys))
	for i, k := range keys {
		names[i] = q.Quote.ident(k)
		values[i] = FormatSetValue(q.Values[k], byName[k])
	}
	return fmt.Sprintf("INSERT INTO %s (%s)\nVALUES (%s);",
		q.Quote.ident(q.Table), strings.Join(names, ", "), strings.Join(values, ", ")), nil
}

// KeyConditions turns a primary key and a row key into equality conditions.
// key may be a scalar for single-column keys or a map for composite keys.
func KeyConditions(pk []string, key any) ([]Condition, error) {
	if len(pk) == 0 {
		return nil, invalid("primary_key", "table has no primary key; rows cannot be addressed")
	}
	if key == nil {
		return nil, invalid("id", "row id is required")
	}

	var parts map[string]string
	switch k := key.(type) {
	case map[string]any:
		parts = make(map[string]string, len(k))
		for name, v := range k {
			if v != nil {
				parts[name] = stringify(v)
			}
		}
	case map[string]string:
		parts = k
	default:
		if len(pk) > 1 {
			return nil, invalid("id", "composite key (%s) needs a value per column", strings.Join(pk, ", "))
		}
		parts = map[string]string{pk[0]: stringify(key)}
	}

	conds := make([]Condition, 0, len(pk))
	for _, col := range pk {
		v, ok := parts[col]
		if !ok || v == "" {
			return nil, invalid("id", "missing value for key column %q", col)
		}
		conds = append(conds, Condition{Column: col, Operator: OpEq, Value: v, Connector: And})
	}
	return conds, nil
}

func columnsByName(cols []schema.Column) map[string]schema.Column {
	m := make(map[string]schema.Column, len(cols))
	for _, c := range cols {
		m[c.Name] = c
	}
	return m
}

// orderedKeys returns the keys of m in column declaration order, followed
// by any unknown keys sorted by name.
func orderedKeys(m map[string]SetValue, cols []schema.Column) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, c := range cols {
		if _, ok := m[c.Name]; ok && !seen[c.Name] {
			keys = append(keys, c.Name)
			seen[c.Name] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
