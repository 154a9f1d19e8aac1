package service

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
	"github.com/sadopc/sqlcraft/internal/suggest"
)

// Row loads the row whose primary key equals id. id is a scalar for
// single-column keys or a map of key column to value.
func (s *Service) Row(ctx context.Context, table string, id any) (map[string]any, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	conds, err := sqlbuild.KeyConditions(t.PrimaryKey(), id)
	if err != nil {
		return nil, err
	}
	query, _, err := sqlbuild.BrowseQuery{
		Table:   t.Name,
		Columns: t.Columns,
		Limit:   1,
		Filters: conds,
		Quote:   s.Quote(),
	}.Build()
	if err != nil {
		return nil, err
	}
	res, err := s.run(ctx, ActionQuery, t.Name, query)
	if err != nil {
		return nil, err
	}
	rows := res.Maps()
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %v: %w", t.Name, id, ErrRowNotFound)
	}
	return rows[0], nil
}

// InsertRow inserts one row. nil values are NULL.
func (s *Service) InsertRow(ctx context.Context, table string, data map[string]any) (*adapter.QueryResult, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(t, data); err != nil {
		return nil, err
	}
	query, err := sqlbuild.InsertQuery{
		Table:   t.Name,
		Values:  sqlbuild.SetValues(data),
		Columns: t.Columns,
		Quote:   s.Quote(),
	}.Build()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ActionInsert, t.Name, query)
}

// UpdateRow assigns data to the row addressed by id.
func (s *Service) UpdateRow(ctx context.Context, table string, id any, data map[string]any) (*adapter.QueryResult, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &sqlbuild.ValidationError{Field: "data", Message: "at least one column value is required"}
	}
	if err := checkColumns(t, data); err != nil {
		return nil, err
	}
	conds, err := sqlbuild.KeyConditions(t.PrimaryKey(), id)
	if err != nil {
		return nil, err
	}
	query, err := sqlbuild.UpdateWhere(t.Name, sqlbuild.SetValues(data), t.Columns, conds, s.Quote())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ActionUpdate, t.Name, query)
}

// DeleteRow deletes the row addressed by id.
func (s *Service) DeleteRow(ctx context.Context, table string, id any) (*adapter.QueryResult, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.deleteRow(ctx, t, id)
}

func (s *Service) deleteRow(ctx context.Context, t *schema.Table, id any) (*adapter.QueryResult, error) {
	conds, err := sqlbuild.KeyConditions(t.PrimaryKey(), id)
	if err != nil {
		return nil, err
	}
	query, err := sqlbuild.DeleteWhere(t.Name, t.Columns, conds, s.Quote())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ActionDelete, t.Name, query)
}

// BulkResult summarizes a multi-row delete.
type BulkResult struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// DeleteRows deletes each id in order, one statement at a time. A failure
// is counted and the loop moves on; nothing is retried. Only a context
// cancellation stops the loop early, counting the remaining ids as failed.
func (s *Service) DeleteRows(ctx context.Context, table string, ids []any) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, &sqlbuild.ValidationError{Field: "ids", Message: "no rows selected"}
	}
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if !t.HasPrimaryKey() {
		return nil, &sqlbuild.ValidationError{Field: "primary_key", Message: "table has no primary key; rows cannot be addressed"}
	}

	out := &BulkResult{}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			out.Failed += len(ids) - i
			out.Errors = append(out.Errors, err.Error())
			break
		}
		if _, err := s.deleteRow(ctx, t, id); err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("%v: %s", id, CleanError(err)))
			continue
		}
		out.Deleted++
	}
	return out, nil
}

// UpdateWhere assigns data to every row matching conds. An empty condition
// set is refused.
func (s *Service) UpdateWhere(ctx context.Context, table string, data map[string]any, conds []sqlbuild.Condition) (*adapter.QueryResult, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(t, data); err != nil {
		return nil, err
	}
	if err := checkConditions(t, conds); err != nil {
		return nil, err
	}
	query, err := sqlbuild.UpdateWhere(t.Name, sqlbuild.SetValues(data), t.Columns, conds, s.Quote())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ActionUpdate, t.Name, query)
}

// DeleteWhere deletes every row matching conds. An empty condition set is
// refused.
func (s *Service) DeleteWhere(ctx context.Context, table string, conds []sqlbuild.Condition) (*adapter.QueryResult, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := checkConditions(t, conds); err != nil {
		return nil, err
	}
	query, err := sqlbuild.DeleteWhere(t.Name, t.Columns, conds, s.Quote())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ActionDelete, t.Name, query)
}

func checkColumns(t *schema.Table, data map[string]any) error {
	return suggest.Columns(*t, slices.Sorted(maps.Keys(data))...)
}

func checkConditions(t *schema.Table, conds []sqlbuild.Condition) error {
	refs := make([]string, len(conds))
	for i, c := range conds {
		refs[i] = c.Column
	}
	return suggest.Columns(*t, refs...)
}
