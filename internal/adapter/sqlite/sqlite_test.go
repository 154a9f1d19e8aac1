package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

func TestSQLiteAdapter_Registration(t *testing.T) {
	a, ok := adapter.Registry["sqlite"]
	if !ok {
		t.Fatal("sqlite adapter not found in registry")
	}
	if a.Name() != "sqlite" {
		t.Errorf("registered adapter Name() = %q, want %q", a.Name(), "sqlite")
	}
	if a.DefaultPort() != 0 {
		t.Errorf("registered adapter DefaultPort() = %d, want %d", a.DefaultPort(), 0)
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"sqlite:// prefix stripped", "sqlite:///path/to/file.db", "/path/to/file.db"},
		{"file: prefix stripped", "file:test.db", "test.db"},
		{"memory unchanged", ":memory:", ":memory:"},
		{"relative path unchanged", "relative/path.db", "relative/path.db"},
		{"sqlite:// relative path", "sqlite://data.db", "data.db"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDSN(tt.dsn); got != tt.want {
				t.Errorf("normalizeDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestUnquoteDefault(t *testing.T) {
	tests := []struct{ in, want string }{
		{"'new'", "new"},
		{"'it''s'", "it's"},
		{"0", "0"},
		{"CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"'", "'"},
	}
	for _, tt := range tests {
		if got := unquoteDefault(tt.in); got != tt.want {
			t.Errorf("unquoteDefault(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// In-memory integration tests (no external database required)
// ---------------------------------------------------------------------------

func TestConnect_InMemory(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	if err := conn.Ping(ctx); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
	if got := conn.AdapterName(); got != "sqlite" {
		t.Errorf("AdapterName() = %q, want %q", got, "sqlite")
	}
	if got := conn.DatabaseName(); got != ":memory:" {
		t.Errorf("DatabaseName() = %q, want %q", got, ":memory:")
	}
	if got := conn.QuoteIdent("items.name"); got != `"items"."name"` {
		t.Errorf("QuoteIdent() = %q", got)
	}
}

func TestExecute_InMemory(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	mustExec(t, conn, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT)")

	res, err := conn.Execute(ctx, "INSERT INTO users (name, email) VALUES ('alice', NULL), ('bob', 'b@x')")
	if err != nil {
		t.Fatalf("INSERT error: %v", err)
	}
	if res.IsSelect || res.RowCount != 2 || res.Message != "2 row(s) affected" {
		t.Errorf("INSERT result = %+v", res)
	}

	res, err = conn.Execute(ctx, "SELECT id, name, email FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("SELECT error: %v", err)
	}
	if !res.IsSelect || res.RowCount != 2 || len(res.Columns) != 3 {
		t.Fatalf("SELECT result = %+v", res)
	}
	if res.Rows[0][1] != "alice" || res.Rows[0][2] != nil {
		t.Errorf("first row = %v, want alice with NULL email", res.Rows[0])
	}

	if _, err := conn.Execute(ctx, "SELECT * FROM nope"); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestExecute_Truncated(t *testing.T) {
	conn := openMemory(t)
	conn.(*sqliteConn).maxRows = 2

	res, err := conn.Execute(context.Background(), "WITH RECURSIVE n(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM n WHERE x < 5) SELECT x FROM n")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.Truncated || res.RowCount != 2 {
		t.Errorf("Truncated = %v, RowCount = %d, want true 2", res.Truncated, res.RowCount)
	}
}

func TestDescribe_InMemory(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	mustExec(t, conn, `CREATE TABLE customers (id INTEGER PRIMARY KEY, email VARCHAR(80) NOT NULL UNIQUE)`)
	mustExec(t, conn, `CREATE TABLE items (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		price DECIMAL(10,2),
		status TEXT DEFAULT 'new',
		customer_id INTEGER REFERENCES customers(id) ON DELETE CASCADE
	)`)
	mustExec(t, conn, "CREATE INDEX idx_items_customer ON items (customer_id, name)")

	tables, err := conn.Tables(ctx, "")
	if err != nil {
		t.Fatalf("Tables() error: %v", err)
	}
	if len(tables) != 2 || tables[0].Name != "customers" || tables[1].Name != "items" {
		t.Errorf("Tables() = %+v", tables)
	}

	tbl, err := adapter.Describe(ctx, conn, "", "items")
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}

	expected := []struct {
		name, dataType, columnType string
		nullable                   bool
		key                        schema.KeyType
	}{
		{"id", "integer", "integer", false, schema.KeyPrimary},
		{"name", "text", "text", false, schema.KeyNone},
		{"price", "decimal", "decimal(10,2)", true, schema.KeyNone},
		{"status", "text", "text", true, schema.KeyNone},
		{"customer_id", "integer", "integer", true, schema.KeyIndex},
	}
	if len(tbl.Columns) != len(expected) {
		t.Fatalf("got %d columns, want %d", len(tbl.Columns), len(expected))
	}
	for i, exp := range expected {
		col := tbl.Columns[i]
		if col.Name != exp.name || col.DataType != exp.dataType || col.ColumnType != exp.columnType {
			t.Errorf("Column[%d] = %+v, want %s %s", i, col, exp.name, exp.columnType)
		}
		if col.Nullable != exp.nullable {
			t.Errorf("Column[%d].Nullable = %v, want %v", i, col.Nullable, exp.nullable)
		}
		if col.KeyType != exp.key {
			t.Errorf("Column[%d].KeyType = %q, want %q", i, col.KeyType, exp.key)
		}
	}
	if !tbl.Columns[0].AutoIncrement() {
		t.Error("INTEGER PRIMARY KEY should report auto_increment")
	}
	if d := tbl.Columns[3].Default; d == nil || *d != "new" {
		t.Errorf("status default = %v, want new", d)
	}
	if !tbl.Columns[2].IsNumeric() {
		t.Error("decimal column should be numeric")
	}

	if len(tbl.Indexes) != 2 || tbl.Indexes[0].Name != schema.PrimaryIndexName {
		t.Fatalf("Indexes = %+v, want PRIMARY then idx_items_customer", tbl.Indexes)
	}
	if got := tbl.Indexes[1].Columns; len(got) != 2 || got[0] != "customer_id" || got[1] != "name" {
		t.Errorf("composite index columns = %v", got)
	}

	if len(tbl.ForeignKeys) != 1 {
		t.Fatalf("ForeignKeys = %+v", tbl.ForeignKeys)
	}
	fk := tbl.ForeignKeys[0]
	if fk.RefTable != "customers" || fk.Columns[0] != "customer_id" || fk.RefColumns[0] != "id" || fk.OnDelete != "CASCADE" {
		t.Errorf("ForeignKey = %+v", fk)
	}

	cust, err := conn.Columns(ctx, "", "customers")
	if err != nil {
		t.Fatalf("Columns(customers) error: %v", err)
	}
	if cust[1].KeyType != schema.KeyUnique {
		t.Errorf("email KeyType = %q, want UNI", cust[1].KeyType)
	}
}

func TestExecute_GeneratedStatements(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()
	mustExec(t, conn, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT, qty INTEGER)")

	cols, err := conn.Columns(ctx, "", "notes")
	if err != nil {
		t.Fatal(err)
	}
	insert, err := sqlbuild.InsertQuery{
		Table:   "notes",
		Values:  map[string]sqlbuild.SetValue{"body": sqlbuild.Val("it's"), "qty": sqlbuild.Val("3")},
		Columns: cols,
		Quote:   conn.QuoteIdent,
	}.Build()
	if err != nil {
		t.Fatal(err)
	}
	mustExec(t, conn, insert)

	res, err := conn.Execute(ctx, "SELECT body, qty FROM notes")
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows[0][0] != "it's" || res.Rows[0][1] != "3" {
		t.Errorf("rows = %v", res.Rows)
	}

	ops := []sqlbuild.AlterOperation{{Kind: sqlbuild.KindDropColumn, Name: "qty"}}
	if err := adapter.AlterTable(ctx, conn, "notes", ops); !errors.Is(err, adapter.ErrUnsupported) {
		t.Errorf("AlterTable() error = %v, want ErrUnsupported", err)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// openMemory creates an in-memory SQLite connection for testing.
func openMemory(t *testing.T) adapter.Connection {
	t.Helper()
	a := &sqliteAdapter{}
	conn, err := a.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Connect(:memory:) error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustExec(t *testing.T, conn adapter.Connection, query string) {
	t.Helper()
	if _, err := conn.Execute(context.Background(), query); err != nil {
		t.Fatalf("Execute(%q) error: %v", query, err)
	}
}
