package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"

	_ "modernc.org/sqlite"
)

func init() {
	adapter.Register(&sqliteAdapter{})
}

// sqliteAdapter implements adapter.Adapter for SQLite databases.
type sqliteAdapter struct{}

func (a *sqliteAdapter) Name() string     { return "sqlite" }
func (a *sqliteAdapter) DefaultPort() int { return 0 }

func (a *sqliteAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	dsn = normalizeDSN(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite enable foreign keys: %w", err)
	}

	dbName := dsn
	if !isMemory(dsn) {
		dbName = filepath.Base(dsn)
	}

	return &sqliteConn{db: db, dbName: dbName, maxRows: adapter.DefaultMaxRows}, nil
}

// normalizeDSN strips common SQLite URI prefixes.
func normalizeDSN(dsn string) string {
	if rest, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(dsn, "file:"); ok {
		return rest
	}
	return dsn
}

func isMemory(dsn string) bool {
	return dsn == "" || strings.HasPrefix(dsn, ":memory:")
}

// sqliteConn implements adapter.Connection. SQLite has a single schema, so
// the db argument of the introspection methods is ignored.
type sqliteConn struct {
	db      *sql.DB
	dbName  string
	maxRows int
}

func (c *sqliteConn) AdapterName() string  { return "sqlite" }
func (c *sqliteConn) DatabaseName() string { return c.dbName }

func (c *sqliteConn) QuoteIdent(name string) string { return sqlbuild.DoubleQuote(name) }

func (c *sqliteConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqliteConn) Close() error {
	return c.db.Close()
}

// Tables returns all user tables in the database.
func (c *sqliteConn) Tables(ctx context.Context, _ string) ([]schema.Table, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sqlite tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite tables scan: %w", err)
		}
		tables = append(tables, schema.Table{Name: name})
	}
	return tables, rows.Err()
}

type columnInfo struct {
	name, typ string
	notNull   bool
	dflt      sql.NullString
	pk        int
}

func (c *sqliteConn) tableInfo(ctx context.Context, table string) ([]columnInfo, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("sqlite table_info: %w", err)
	}
	defer rows.Close()

	var out []columnInfo
	for rows.Next() {
		var (
			cid     int
			info    columnInfo
			notNull int
		)
		if err := rows.Scan(&cid, &info.name, &info.typ, &notNull, &info.dflt, &info.pk); err != nil {
			return nil, fmt.Errorf("sqlite table_info scan: %w", err)
		}
		info.notNull = notNull != 0
		out = append(out, info)
	}
	return out, rows.Err()
}

// Columns maps PRAGMA table_info onto the MySQL-shaped column model. An
// INTEGER PRIMARY KEY is the rowid alias and reported as auto_increment.
func (c *sqliteConn) Columns(ctx context.Context, _ string, table string) ([]schema.Column, error) {
	infos, err := c.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	idx, err := c.Indexes(ctx, "", table)
	if err != nil {
		return nil, err
	}

	pkCount := 0
	for _, info := range infos {
		if info.pk > 0 {
			pkCount++
		}
	}

	columns := make([]schema.Column, 0, len(infos))
	for _, info := range infos {
		typ := strings.ToLower(info.typ)
		col := schema.Column{
			Name:       info.name,
			DataType:   baseType(typ),
			ColumnType: typ,
			Nullable:   !info.notNull && info.pk == 0,
			KeyType:    keyType(info.name, info.pk > 0, idx),
		}
		if info.pk > 0 && pkCount == 1 && col.DataType == "integer" {
			col.Extra = "auto_increment"
		}
		if info.dflt.Valid {
			d := unquoteDefault(info.dflt.String)
			col.Default = &d
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func baseType(typ string) string {
	if i := strings.IndexAny(typ, "( "); i >= 0 {
		return typ[:i]
	}
	return typ
}

func keyType(col string, primary bool, idx []schema.Index) schema.KeyType {
	if primary {
		return schema.KeyPrimary
	}
	kt := schema.KeyNone
	for _, ix := range idx {
		if len(ix.Columns) == 0 || ix.Columns[0] != col {
			continue
		}
		if ix.Unique && len(ix.Columns) == 1 {
			return schema.KeyUnique
		}
		kt = schema.KeyIndex
	}
	return kt
}

// unquoteDefault turns the SQL literal PRAGMA reports ('it''s') into the
// raw value.
func unquoteDefault(d string) string {
	if len(d) >= 2 && d[0] == '\'' && d[len(d)-1] == '\'' {
		return strings.ReplaceAll(d[1:len(d)-1], "''", "'")
	}
	return d
}

// Indexes returns index information for the given table. The primary key is
// reported first under the name PRIMARY, even when it is the rowid alias and
// has no index of its own.
func (c *sqliteConn) Indexes(ctx context.Context, _ string, table string) ([]schema.Index, error) {
	listRows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("sqlite index_list: %w", err)
	}
	defer listRows.Close()

	type indexEntry struct {
		name   string
		unique bool
		origin string
	}
	var entries []indexEntry
	for listRows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := listRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("sqlite index_list scan: %w", err)
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1, origin: origin})
	}
	if err := listRows.Err(); err != nil {
		return nil, err
	}
	listRows.Close()

	var (
		primary *schema.Index
		indexes []schema.Index
	)
	for _, entry := range entries {
		cols, err := c.indexColumns(ctx, entry.name)
		if err != nil {
			return nil, err
		}
		idx := schema.Index{Name: entry.name, Columns: cols, Unique: entry.unique, Type: "BTREE"}
		if entry.origin == "pk" {
			idx.Name = schema.PrimaryIndexName
			primary = &idx
			continue
		}
		indexes = append(indexes, idx)
	}

	if primary == nil {
		infos, err := c.tableInfo(ctx, table)
		if err != nil {
			return nil, err
		}
		pk := pkColumns(infos)
		if len(pk) > 0 {
			primary = &schema.Index{Name: schema.PrimaryIndexName, Columns: pk, Unique: true, Type: "BTREE"}
		}
	}
	if primary != nil {
		indexes = append([]schema.Index{*primary}, indexes...)
	}
	return indexes, nil
}

func (c *sqliteConn) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", index))
	if err != nil {
		return nil, fmt.Errorf("sqlite index_info: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("sqlite index_info scan: %w", err)
		}
		cols = append(cols, name.String)
	}
	return cols, rows.Err()
}

// pkColumns orders primary key columns by their position in the key.
func pkColumns(infos []columnInfo) []string {
	max := 0
	for _, info := range infos {
		if info.pk > max {
			max = info.pk
		}
	}
	cols := make([]string, max)
	for _, info := range infos {
		if info.pk > 0 {
			cols[info.pk-1] = info.name
		}
	}
	return cols
}

// ForeignKeys returns foreign key constraints for the given table. SQLite
// does not name them, so names are synthesized from the table and id.
func (c *sqliteConn) ForeignKeys(ctx context.Context, _ string, table string) ([]schema.ForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("sqlite foreign_key_list: %w", err)
	}
	defer rows.Close()

	// Group by id since a single FK can span multiple columns.
	fkMap := make(map[int]*schema.ForeignKey)
	var fkOrder []int

	for rows.Next() {
		var (
			id, seq            int
			refTable, from     string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("sqlite foreign_key_list scan: %w", err)
		}
		fk, ok := fkMap[id]
		if !ok {
			fk = &schema.ForeignKey{
				Name:     fmt.Sprintf("fk_%s_%d", table, id),
				RefTable: refTable,
				OnUpdate: onUpdate,
				OnDelete: onDelete,
			}
			fkMap[id] = fk
			fkOrder = append(fkOrder, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.RefColumns = append(fk.RefColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fks := make([]schema.ForeignKey, 0, len(fkOrder))
	for _, id := range fkOrder {
		fks = append(fks, *fkMap[id])
	}
	return fks, nil
}

// Execute runs a query and returns the result.
func (c *sqliteConn) Execute(ctx context.Context, query string) (*adapter.QueryResult, error) {
	start := time.Now()

	if adapter.IsSelectQuery(query) {
		rows, err := c.db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("sqlite query: %w", err)
		}
		defer rows.Close()

		res, err := adapter.ScanRows(rows, c.maxRows)
		if err != nil {
			return nil, fmt.Errorf("sqlite rows: %w", err)
		}
		res.Duration = time.Since(start)
		return res, nil
	}

	result, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite exec: %w", err)
	}
	affected, _ := result.RowsAffected()

	return &adapter.QueryResult{
		RowCount: affected,
		Duration: time.Since(start),
		Message:  fmt.Sprintf("%d row(s) affected", affected),
	}, nil
}
