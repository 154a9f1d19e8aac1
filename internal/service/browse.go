package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/form"
	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

// BrowseRequest is one page of the data browser. Page is 1-based; a zero
// Limit uses the configured page size.
type BrowseRequest struct {
	Table   string               `json:"table" form:"table"`
	Page    int                  `json:"page" form:"page"`
	Limit   int                  `json:"limit" form:"limit"`
	Sort    string               `json:"sort" form:"sort"`
	Order   string               `json:"order" form:"order"`
	Search  string               `json:"search" form:"search"`
	Filters []sqlbuild.Condition `json:"filters,omitempty" form:"-"`
}

// BrowseResult is a page of rows with the paging totals.
type BrowseResult struct {
	Rows       []map[string]any `json:"rows"`
	Columns    []string         `json:"columns"`
	PrimaryKey []string         `json:"primary_key"`
	TotalRows  int64            `json:"total_rows"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	Query      string           `json:"query"`
}

// Browse runs the page query and its COUNT(*) companion.
func (s *Service) Browse(ctx context.Context, req BrowseRequest) (*BrowseResult, error) {
	t, err := s.describe(ctx, req.Table)
	if err != nil {
		return nil, err
	}

	if err := checkConditions(t, req.Filters); err != nil {
		return nil, err
	}

	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.Limit <= 0:
		req.Limit = s.pageSize
	case req.Limit > s.maxPageSize:
		req.Limit = s.maxPageSize
	}

	data, count, err := sqlbuild.BrowseQuery{
		Table:    t.Name,
		Columns:  t.Columns,
		Page:     req.Page,
		Limit:    req.Limit,
		Sort:     req.Sort,
		Order:    req.Order,
		Search:   req.Search,
		Filters:  req.Filters,
		Quote:    s.Quote(),
		CastText: s.conn.AdapterName() != "mysql",
	}.Build()
	if err != nil {
		return nil, err
	}

	counted, err := s.conn.Execute(ctx, count)
	if err != nil {
		return nil, &DatabaseError{Query: count, Err: err}
	}
	total, err := firstInt(counted)
	if err != nil {
		return nil, &DatabaseError{Query: count, Err: err}
	}

	res, err := s.run(ctx, ActionBrowse, t.Name, data)
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = c.Name
	}
	pk := t.PrimaryKey()
	if pk == nil {
		pk = []string{}
	}
	return &BrowseResult{
		Rows:       res.Maps(),
		Columns:    cols,
		PrimaryKey: pk,
		TotalRows:  total,
		TotalPages: sqlbuild.TotalPages(total, req.Limit),
		Page:       req.Page,
		Query:      data,
	}, nil
}

func firstInt(res *adapter.QueryResult) (int64, error) {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 || res.Rows[0][0] == nil {
		return 0, fmt.Errorf("count returned no rows")
	}
	return strconv.ParseInt(fmt.Sprint(res.Rows[0][0]), 10, 64)
}

// TableSchema is the metadata the schema editor and row editor need.
type TableSchema struct {
	Table       string              `json:"table"`
	Columns     []schema.Column     `json:"columns"`
	PrimaryKey  []string            `json:"primary_key"`
	Indexes     []schema.Index      `json:"indexes"`
	ForeignKeys []schema.ForeignKey `json:"foreign_keys"`
	Fields      []form.Field        `json:"fields"`
}

// Schema describes one table, including the row-editor field hints.
func (s *Service) Schema(ctx context.Context, table string) (*TableSchema, error) {
	t, err := s.describe(ctx, table)
	if err != nil {
		return nil, err
	}
	out := &TableSchema{
		Table:       t.Name,
		Columns:     t.Columns,
		PrimaryKey:  t.PrimaryKey(),
		Indexes:     t.Indexes,
		ForeignKeys: t.ForeignKeys,
		Fields:      form.Fields(t.Columns),
	}
	if out.PrimaryKey == nil {
		out.PrimaryKey = []string{}
	}
	if out.Indexes == nil {
		out.Indexes = []schema.Index{}
	}
	if out.ForeignKeys == nil {
		out.ForeignKeys = []schema.ForeignKey{}
	}
	return out, nil
}
