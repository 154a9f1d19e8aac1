package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

var (
	ErrNotConnected = errors.New("not connected to database")
	ErrUnsupported  = errors.New("operation not supported by this adapter")
	ErrUnknown      = errors.New("unknown adapter")
)

// DefaultMaxRows caps how many rows Execute buffers for a single result set.
const DefaultMaxRows = 10000

// Adapter creates database connections.
type Adapter interface {
	Connect(ctx context.Context, dsn string) (Connection, error)
	Name() string
	DefaultPort() int
}

// Connection represents an active database connection. An empty db argument
// means the database (or schema) the connection was opened on.
type Connection interface {
	// Introspection
	Tables(ctx context.Context, db string) ([]schema.Table, error)
	Columns(ctx context.Context, db, table string) ([]schema.Column, error)
	Indexes(ctx context.Context, db, table string) ([]schema.Index, error)
	ForeignKeys(ctx context.Context, db, table string) ([]schema.ForeignKey, error)

	// Query execution
	Execute(ctx context.Context, query string) (*QueryResult, error)

	// QuoteIdent quotes an identifier for this dialect.
	QuoteIdent(name string) string

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Info
	DatabaseName() string
	AdapterName() string
}

// SchemaEditor is implemented by connections that can apply a batch of
// ALTER operations to a table.
type SchemaEditor interface {
	AlterTable(ctx context.Context, table string, ops []sqlbuild.AlterOperation) error
}

// QueryResult holds the result of a query execution. Row values are either
// nil for SQL NULL or a string.
type QueryResult struct {
	Columns   []ColumnMeta  `json:"columns,omitempty"`
	Rows      [][]any       `json:"rows,omitempty"`
	RowCount  int64         `json:"row_count"` // -1 if unknown
	Duration  time.Duration `json:"duration"`
	IsSelect  bool          `json:"is_select"`
	Truncated bool          `json:"truncated,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// ColumnMeta holds metadata about a result column.
type ColumnMeta struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Maps returns the rows keyed by column name.
func (r *QueryResult) Maps() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			if j < len(row) {
				m[c.Name] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// Describe loads the full metadata of one table.
func Describe(ctx context.Context, conn Connection, db, table string) (*schema.Table, error) {
	cols, err := conn.Columns(ctx, db, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: columns: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("describe %s: table not found", table)
	}
	idx, err := conn.Indexes(ctx, db, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: indexes: %w", table, err)
	}
	fks, err := conn.ForeignKeys(ctx, db, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: foreign keys: %w", table, err)
	}
	return &schema.Table{Name: table, Columns: cols, Indexes: idx, ForeignKeys: fks}, nil
}

// AlterTable applies ops through conn when it is a SchemaEditor.
func AlterTable(ctx context.Context, conn Connection, table string, ops []sqlbuild.AlterOperation) error {
	ed, ok := conn.(SchemaEditor)
	if !ok {
		return fmt.Errorf("%s: alter table: %w", conn.AdapterName(), ErrUnsupported)
	}
	return ed.AlterTable(ctx, table, ops)
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}

// Get looks up a registered adapter.
func Get(name string) (Adapter, error) {
	a, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknown, name, Names())
	}
	return a, nil
}

// Names lists the registered adapters, sorted.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for n := range Registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open connects through the named adapter.
func Open(ctx context.Context, name, dsn string) (Connection, error) {
	a, err := Get(name)
	if err != nil {
		return nil, err
	}
	return a.Connect(ctx, dsn)
}
