package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
	"github.com/sadopc/sqlcraft/internal/suggest"
)

var (
	// typeTail is what may follow the base name of a full column type:
	// a length or a quoted value list, then sign and precision modifiers.
	typeTail = regexp.MustCompile(`(?i)^\s*(\((?:'(?:[^']|'')*'|[^'()])*\))?(\s+(unsigned|signed|zerofill|precision))*\s*$`)

	columnExtra = regexp.MustCompile(`(?i)^(\s*(auto_increment|invisible|on\s+update\s+current_timestamp(\(\d*\))?))*\s*$`)
)

// checkColumnType resolves the base name of a type such as
// "int(10) unsigned" against suggest.MySQLTypes.
func checkColumnType(field, full string) error {
	full = strings.TrimSpace(full)
	base, tail := full, ""
	if i := strings.IndexAny(full, "( "); i >= 0 {
		base, tail = full[:i], full[i:]
	}
	if _, err := suggest.DataType(base); err != nil {
		return err
	}
	if !typeTail.MatchString(tail) {
		return &sqlbuild.ValidationError{Field: field, Message: fmt.Sprintf("invalid column type %q", full)}
	}
	return nil
}

func checkColumnExtra(field, extra string) error {
	if !columnExtra.MatchString(extra) {
		return &sqlbuild.ValidationError{Field: field, Message: fmt.Sprintf("unsupported column extra %q", extra)}
	}
	return nil
}

// checkOperations checks the type and extra of every column definition in
// ops.
func checkOperations(ops []sqlbuild.AlterOperation) error {
	for i, op := range ops {
		if op.Column == nil {
			continue
		}
		field := fmt.Sprintf("operations[%d].column", i)
		if err := checkColumnType(field+".type", op.Column.Type); err != nil {
			return err
		}
		if err := checkColumnExtra(field+".extra", op.Column.Extra); err != nil {
			return err
		}
	}
	return nil
}

// AlterPlan is the batch the schema editor would apply.
type AlterPlan struct {
	Table       string                    `json:"table"`
	Operations  []sqlbuild.AlterOperation `json:"operations"`
	SQL         string                    `json:"sql"`
	Destructive bool                      `json:"destructive"`
}

// PlanAlter turns schema-editor actions into operations against the current
// table definition. Nothing is executed.
func (s *Service) PlanAlter(ctx context.Context, table string, actions []sqlbuild.Action) (*AlterPlan, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	ops, err := sqlbuild.PlanAll(actions, *t)
	if err != nil {
		return nil, err
	}
	if err := checkOperations(ops); err != nil {
		return nil, err
	}
	sql, err := sqlbuild.RenderAlterTable(t.Name, ops)
	if err != nil {
		return nil, err
	}
	plan := &AlterPlan{Table: t.Name, Operations: ops, SQL: sql}
	for _, op := range ops {
		if op.Destructive() {
			plan.Destructive = true
			break
		}
	}
	return plan, nil
}

// Alter validates every operation, then applies the whole batch in one
// call. Connections that cannot alter tables return adapter.ErrUnsupported
// and nothing is recorded.
func (s *Service) Alter(ctx context.Context, table string, ops []sqlbuild.AlterOperation) error {
	t, err := s.describe(ctx, table)
	if err != nil {
		return err
	}
	sql, err := sqlbuild.RenderAlterTable(t.Name, ops)
	if err != nil {
		return err
	}
	if err := checkOperations(ops); err != nil {
		return err
	}

	start := time.Now()
	err = adapter.AlterTable(ctx, s.conn, t.Name, ops)
	if errors.Is(err, adapter.ErrUnsupported) {
		return err
	}
	s.record(ctx, ActionAlter, t.Name, sql, time.Since(start), 0, err)
	if err != nil {
		return &DatabaseError{Query: sql, Err: err}
	}
	return nil
}

// CreateTable renders and executes ct. An incomplete definition fails
// validation instead of sending the placeholder text.
func (s *Service) CreateTable(ctx context.Context, ct sqlbuild.CreateTable) (string, error) {
	sql, err := ct.Build()
	if err != nil {
		return "", err
	}
	for i, c := range ct.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		if err := checkColumnType(field+".type", c.Type); err != nil {
			return "", err
		}
		if err := checkColumnExtra(field+".extra", c.Extra); err != nil {
			return "", err
		}
	}
	if sqlbuild.IsSentinel(sql) {
		return "", &sqlbuild.ValidationError{Field: "table", Message: strings.TrimPrefix(sql, "-- ")}
	}
	if _, err := s.run(ctx, ActionCreate, strings.TrimSpace(ct.Name), sql); err != nil {
		return sql, err
	}
	return sql, nil
}
