package sqlbuild

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Operator is a WHERE-clause comparison operator.
type Operator string

const (
	OpEq        Operator = "="
	OpNe        Operator = "!="
	OpGt        Operator = ">"
	OpLt        Operator = "<"
	OpGe        Operator = ">="
	OpLe        Operator = "<="
	OpLike      Operator = "LIKE"
	OpNotLike   Operator = "NOT LIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
	OpBetween   Operator = "BETWEEN"
)

// Operators lists every supported operator in the order a picker shows them.
var Operators = []Operator{
	OpEq, OpNe, OpGt, OpLt, OpGe, OpLe,
	OpLike, OpNotLike, OpIn, OpNotIn,
	OpIsNull, OpIsNotNull, OpBetween,
}

// ParseOperator normalizes case and spacing; "<>" is accepted for "!=".
func ParseOperator(s string) (Operator, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if norm == "" {
		return OpEq, nil
	}
	if norm == "<>" {
		return OpNe, nil
	}
	for _, op := range Operators {
		if string(op) == norm {
			return op, nil
		}
	}
	return "", fmt.Errorf("unsupported operator %q", s)
}

// Connector joins a condition to the one before it.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

func parseConnector(c Connector) (Connector, error) {
	switch Connector(strings.ToUpper(strings.TrimSpace(string(c)))) {
	case "", And:
		return And, nil
	case Or:
		return Or, nil
	}
	return "", fmt.Errorf("unsupported connector %q", c)
}

// Condition is one WHERE predicate. Value carries the scalar operand, or the
// raw comma-separated list for IN. Values carries [min, max] for BETWEEN or
// an IN list whose elements are quoted individually. Connector is ignored
// on the first rendered condition.
type Condition struct {
	Column    string    `json:"column" yaml:"column"`
	Operator  Operator  `json:"operator" yaml:"operator"`
	Value     string    `json:"value,omitempty" yaml:"value,omitempty"`
	Values    []string  `json:"values,omitempty" yaml:"values,omitempty"`
	Connector Connector `json:"connector,omitempty" yaml:"connector,omitempty"`
}

// UnmarshalJSON accepts "value" as a string, a number or an array; arrays
// land in Values.
func (c *Condition) UnmarshalJSON(data []byte) error {
	type plain Condition
	var aux struct {
		plain
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Condition(aux.plain)

	raw := strings.TrimSpace(string(aux.Value))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, "["):
		var list []any
		dec := json.NewDecoder(bytes.NewReader(aux.Value))
		dec.UseNumber()
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("condition value: %w", err)
		}
		c.Values = c.Values[:0]
		for _, v := range list {
			c.Values = append(c.Values, stringify(v))
		}
	case strings.HasPrefix(raw, `"`):
		if err := json.Unmarshal(aux.Value, &c.Value); err != nil {
			return fmt.Errorf("condition value: %w", err)
		}
	default:
		c.Value = raw
	}
	return nil
}

func (c Condition) operator() Operator {
	if op, err := ParseOperator(string(c.Operator)); err == nil {
		return op
	}
	return c.Operator
}

// usable reports whether the condition has everything its operator needs.
func (c Condition) usable() bool {
	if strings.TrimSpace(c.Column) == "" {
		return false
	}
	switch c.operator() {
	case OpIn, OpNotIn:
		return strings.TrimSpace(c.Value) != "" || len(nonEmpty(c.Values)) > 0
	case OpBetween:
		return len(c.Values) >= 2 && c.Values[0] != "" && c.Values[1] != ""
	}
	return true
}

// ValidConditions returns the conditions that will be emitted: those with a
// column, and for IN/BETWEEN a non-empty operand.
func ValidConditions(conds []Condition) []Condition {
	var out []Condition
	for _, c := range conds {
		if c.usable() {
			out = append(out, c)
		}
	}
	return out
}

// RenderConditions renders the valid conditions as a flat, left-to-right
// AND/OR chain without the WHERE keyword. It returns "" when nothing
// survives the filter.
func RenderConditions(conds []Condition, lit LiteralFunc) (string, error) {
	return renderConditions(conds, lit, nil)
}

func renderConditions(conds []Condition, lit LiteralFunc, quote Quoter) (string, error) {
	if lit == nil {
		lit = LiteralByValue
	}
	var b strings.Builder
	for i, c := range ValidConditions(conds) {
		if i > 0 {
			conn, err := parseConnector(c.Connector)
			if err != nil {
				return "", invalid(c.Column, "%v", err)
			}
			b.WriteString(" ")
			b.WriteString(string(conn))
			b.WriteString(" ")
		}
		frag, err := renderCondition(c, lit, quote)
		if err != nil {
			return "", err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

func renderCondition(c Condition, lit LiteralFunc, quote Quoter) (string, error) {
	op, err := ParseOperator(string(c.Operator))
	if err != nil {
		return "", invalid(c.Column, "%v", err)
	}
	name := strings.TrimSpace(c.Column)
	col := quote.ident(name)

	switch op {
	case OpIsNull, OpIsNotNull:
		return col + " " + string(op), nil
	case OpIn, OpNotIn:
		if v := strings.TrimSpace(c.Value); v != "" {
			return fmt.Sprintf("%s %s (%s)", col, op, v), nil
		}
		items := nonEmpty(c.Values)
		lits := make([]string, len(items))
		for i, v := range items {
			lits[i] = lit(col, v)
		}
		return fmt.Sprintf("%s %s (%s)", col, op, strings.Join(lits, ", ")), nil
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, lit(name, c.Values[0]), lit(name, c.Values[1])), nil
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe, OpLike, OpNotLike:
		return fmt.Sprintf("%s %s %s", col, op, lit(name, c.Value)), nil
	}
	return "", invalid(c.Column, "unsupported operator %q", c.Operator)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
