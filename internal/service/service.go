// Package service runs builder output against a database connection and
// records every executed statement in the history store and the audit log.
package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/audit"
	"github.com/sadopc/sqlcraft/internal/history"
	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
	"github.com/sadopc/sqlcraft/internal/suggest"
)

// Actions recorded in history and audit entries.
const (
	ActionQuery  = "query"
	ActionBrowse = "browse"
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAlter  = "alter"
	ActionCreate = "create"
)

// ErrRowNotFound is returned when a primary key matches no row.
var ErrRowNotFound = errors.New("row not found")

// DatabaseError is a statement the backend rejected.
type DatabaseError struct {
	Query string
	Err   error
}

func (e *DatabaseError) Error() string { return "Database error: " + e.Err.Error() }

func (e *DatabaseError) Unwrap() error { return e.Err }

// Options configures a Service. Zero values disable history and audit and
// use the default page sizes.
type Options struct {
	History     *history.History
	Audit       *audit.Logger
	PageSize    int
	MaxPageSize int
}

// Default page sizes for Browse.
const (
	DefaultPageSize    = 25
	DefaultMaxPageSize = 500
)

// Service is safe for concurrent use when its connection is.
type Service struct {
	conn        adapter.Connection
	history     *history.History
	audit       *audit.Logger
	pageSize    int
	maxPageSize int
}

// New wraps conn.
func New(conn adapter.Connection, opts Options) *Service {
	s := &Service{
		conn:        conn,
		history:     opts.History,
		audit:       opts.Audit,
		pageSize:    opts.PageSize,
		maxPageSize: opts.MaxPageSize,
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.maxPageSize < s.pageSize {
		s.maxPageSize = max(DefaultMaxPageSize, s.pageSize)
	}
	return s
}

// Conn returns the underlying connection.
func (s *Service) Conn() adapter.Connection { return s.conn }

// Quote quotes identifiers in the connection's dialect.
func (s *Service) Quote() sqlbuild.Quoter { return s.conn.QuoteIdent }

type requestIDKey struct{}

// WithRequestID tags ctx so audit entries can be correlated with the HTTP
// request that caused them.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Status describes the live connection.
type Status struct {
	Adapter  string `json:"adapter"`
	Database string `json:"database"`
}

// Ping checks the connection.
func (s *Service) Ping(ctx context.Context) (*Status, error) {
	if err := s.conn.Ping(ctx); err != nil {
		return nil, &DatabaseError{Err: err}
	}
	return &Status{Adapter: s.conn.AdapterName(), Database: s.conn.DatabaseName()}, nil
}

// Query executes sql verbatim.
func (s *Service) Query(ctx context.Context, sql string) (*adapter.QueryResult, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, &sqlbuild.ValidationError{Field: "sql", Message: "query is required"}
	}
	return s.run(ctx, ActionQuery, "", sql)
}

// Tables lists the table names of the connected database.
func (s *Service) Tables(ctx context.Context) ([]string, error) {
	tables, err := s.conn.Tables(ctx, "")
	if err != nil {
		return nil, &DatabaseError{Err: err}
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names, nil
}

// describe resolves name against the table list and loads its metadata.
// Unknown names fail validation with the closest matches.
func (s *Service) describe(ctx context.Context, name string) (*schema.Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &sqlbuild.ValidationError{Field: "table", Message: "table name is required"}
	}
	names, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	resolved, err := suggest.Table(names, name)
	if err != nil {
		return nil, err
	}
	t, err := adapter.Describe(ctx, s.conn, "", resolved)
	if err != nil {
		return nil, &DatabaseError{Err: err}
	}
	return t, nil
}

// run executes one statement and records it.
func (s *Service) run(ctx context.Context, action, table, query string) (*adapter.QueryResult, error) {
	start := time.Now()
	res, err := s.conn.Execute(ctx, query)
	var rows int64
	if res != nil {
		rows = res.RowCount
	}
	s.record(ctx, action, table, query, time.Since(start), rows, err)
	if err != nil {
		return nil, &DatabaseError{Query: query, Err: err}
	}
	return res, nil
}

func (s *Service) record(ctx context.Context, action, table, query string, elapsed time.Duration, rows int64, err error) {
	var msg string
	if err != nil {
		msg = CleanError(err)
	}
	e := history.Entry{
		Action:       action,
		Table:        table,
		Query:        query,
		Adapter:      s.conn.AdapterName(),
		DatabaseName: s.conn.DatabaseName(),
		ExecutedAt:   time.Now().UTC(),
		DurationMS:   elapsed.Milliseconds(),
		RowCount:     rows,
		Error:        msg,
	}
	// A cancelled request still gets its statement recorded.
	if herr := s.history.Add(context.WithoutCancel(ctx), e); herr != nil {
		log.Printf("service: %v", herr)
	}
	s.audit.Log(audit.Entry{
		Timestamp:    e.ExecutedAt,
		RequestID:    RequestID(ctx),
		Action:       action,
		Table:        table,
		Query:        query,
		Adapter:      e.Adapter,
		DatabaseName: e.DatabaseName,
		DurationMS:   e.DurationMS,
		RowCount:     rows,
		Error:        msg,
	})
}

// History lists recorded statements.
func (s *Service) History(ctx context.Context, f history.Filter) ([]history.Entry, error) {
	entries, err := s.history.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return entries, nil
}

var (
	reMySQLCode   = regexp.MustCompile(`^Error \d+ \([0-9A-Z]{5}\): `)
	rePGSQLState  = regexp.MustCompile(`\s*\(SQLSTATE [0-9A-Z]{5}\)$`)
	reSQLiteCode  = regexp.MustCompile(`\s*\(\d+\)$`)
	errorPrefixes = []string{"Database error:", "ERROR:"}
)

// CleanError returns the user-facing message for err. Backend failures are
// reduced to the driver's own message without the generic prefix, error
// codes or SQLSTATE.
func CleanError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		msg = innermost(dbErr.Err).Error()
	}
	msg = strings.TrimSpace(msg)
	for _, p := range errorPrefixes {
		msg = strings.TrimSpace(strings.TrimPrefix(msg, p))
	}
	msg = reMySQLCode.ReplaceAllString(msg, "")
	msg = rePGSQLState.ReplaceAllString(msg, "")
	msg = reSQLiteCode.ReplaceAllString(msg, "")
	return msg
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
