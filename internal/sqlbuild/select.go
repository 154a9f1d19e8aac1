package sqlbuild

import (
	"fmt"
	"strconv"
	"strings"
)

// JoinType is the kind of JOIN emitted for a Join.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
)

// Join links LeftTable.LeftColumn to RightTable.RightColumn. It is only
// emitted when both columns are set.
type Join struct {
	Type        JoinType `json:"type" yaml:"type"`
	LeftTable   string   `json:"left_table" yaml:"left_table"`
	LeftColumn  string   `json:"left_column" yaml:"left_column"`
	RightTable  string   `json:"right_table" yaml:"right_table"`
	RightColumn string   `json:"right_column" yaml:"right_column"`
}

// Order is one ORDER BY entry.
type Order struct {
	Column    string `json:"column" yaml:"column"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// SelectQuery is the state of the visual query builder.
type SelectQuery struct {
	// Tables in selection order; the first is the FROM target.
	Tables []string `json:"tables" yaml:"tables"`
	// Columns selected per table. A table with no entry selects table.*.
	Columns    map[string][]string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Joins      []Join              `json:"joins,omitempty" yaml:"joins,omitempty"`
	Conditions []Condition         `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	GroupBy    []string            `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	OrderBy    []Order             `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	// Limit of 0 means no LIMIT. Offset is only emitted with a limit.
	Limit  int `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset int `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Build assembles the SELECT statement. Each clause goes on its own line and
// the statement ends with a semicolon.
func (q SelectQuery) Build() (string, error) {
	lines := []string{"SELECT " + q.columnList()}

	if len(q.Tables) > 0 {
		lines = append(lines, "FROM "+q.Tables[0])
	}

	for _, j := range q.Joins {
		line, err := j.render()
		if err != nil {
			return "", err
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	where, err := RenderConditions(q.Conditions, LiteralByValue)
	if err != nil {
		return "", err
	}
	if where != "" {
		lines = append(lines, "WHERE "+where)
	}

	if groups := trimmed(q.GroupBy); len(groups) > 0 {
		lines = append(lines, "GROUP BY "+strings.Join(groups, ", "))
	}

	if order, err := renderOrder(q.OrderBy); err != nil {
		return "", err
	} else if order != "" {
		lines = append(lines, "ORDER BY "+order)
	}

	if q.Limit < 0 || q.Offset < 0 {
		return "", invalid("limit", "limit and offset must not be negative")
	}
	if q.Limit > 0 {
		lines = append(lines, "LIMIT "+strconv.Itoa(q.Limit))
		if q.Offset > 0 {
			lines = append(lines, "OFFSET "+strconv.Itoa(q.Offset))
		}
	}

	return strings.Join(lines, "\n") + ";", nil
}

func (q SelectQuery) columnList() string {
	if len(q.Tables) == 0 {
		return "*"
	}
	var cols []string
	for _, table := range q.Tables {
		selected := trimmed(q.Columns[table])
		if len(selected) == 0 {
			cols = append(cols, table+".*")
			continue
		}
		for _, col := range selected {
			if strings.Contains(col, ".") {
				cols = append(cols, col)
			} else {
				cols = append(cols, table+"."+col)
			}
		}
	}
	return strings.Join(cols, ", ")
}

func (j Join) render() (string, error) {
	if strings.TrimSpace(j.LeftColumn) == "" || strings.TrimSpace(j.RightColumn) == "" {
		return "", nil
	}
	typ := JoinType(strings.ToUpper(strings.TrimSpace(string(j.Type))))
	switch typ {
	case "":
		typ = InnerJoin
	case InnerJoin, LeftJoin, RightJoin:
	default:
		return "", invalid("join", "unsupported join type %q", j.Type)
	}
	if j.RightTable == "" || j.LeftTable == "" {
		return "", invalid("join", "join on %s.%s needs both tables", j.LeftTable, j.LeftColumn)
	}
	return fmt.Sprintf("%s JOIN %s ON %s.%s = %s.%s",
		typ, j.RightTable, j.LeftTable, j.LeftColumn, j.RightTable, j.RightColumn), nil
}

func renderOrder(orders []Order) (string, error) {
	var parts []string
	for _, o := range orders {
		col := strings.TrimSpace(o.Column)
		if col == "" {
			continue
		}
		dir, err := parseDirection(o.Direction)
		if err != nil {
			return "", err
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

func parseDirection(d string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(d)) {
	case "", "ASC":
		return "ASC", nil
	case "DESC":
		return "DESC", nil
	}
	return "", invalid("order", "unsupported sort direction %q", d)
}

func trimmed(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
