package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/schema"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

func init() {
	adapter.Register(&postgresAdapter{})
}

// postgresAdapter implements adapter.Adapter for PostgreSQL. The db argument
// of the introspection methods names a schema; it defaults to "public".
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string     { return "postgres" }
func (a *postgresAdapter) DefaultPort() int { return 5432 }

func (a *postgresAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &pgConn{
		pool:    pool,
		dbName:  extractDBName(dsn),
		types:   pgtype.NewMap(),
		maxRows: adapter.DefaultMaxRows,
	}, nil
}

// extractDBName parses the database name from the DSN.
func extractDBName(dsn string) string {
	if dsn == "" {
		return ""
	}
	// Try URL format first (postgres://... or postgresql://...)
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	// Fallback: keyword=value format (e.g. "host=localhost dbname=myapp")
	for _, part := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(part, "dbname="); ok {
			return name
		}
	}
	return ""
}

// pgConn implements adapter.Connection for PostgreSQL.
type pgConn struct {
	pool    *pgxpool.Pool
	dbName  string
	types   *pgtype.Map
	maxRows int
}

func (c *pgConn) DatabaseName() string { return c.dbName }
func (c *pgConn) AdapterName() string  { return "postgres" }

func (c *pgConn) QuoteIdent(name string) string { return sqlbuild.DoubleQuote(name) }

func (c *pgConn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *pgConn) Close() error {
	c.pool.Close()
	return nil
}

func schemaOrPublic(s string) string {
	if s == "" {
		return "public"
	}
	return s
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

func (c *pgConn) Tables(ctx context.Context, db string) ([]schema.Table, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT table_name
		 FROM information_schema.tables
		 WHERE table_catalog = current_database()
		   AND table_schema  = $1
		   AND table_type    = 'BASE TABLE'
		 ORDER BY table_name`, schemaOrPublic(db))
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("tables scan: %w", err)
		}
		tables = append(tables, schema.Table{Name: name})
	}
	return tables, rows.Err()
}

func (c *pgConn) Columns(ctx context.Context, db, table string) ([]schema.Column, error) {
	schemaName := schemaOrPublic(db)

	keys, err := c.keyColumns(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx,
		`SELECT c.column_name,
		        c.data_type,
		        c.character_maximum_length,
		        c.numeric_precision,
		        c.numeric_scale,
		        c.is_nullable,
		        c.column_default,
		        c.is_identity,
		        COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position), '')
		 FROM information_schema.columns c
		 WHERE c.table_schema = $1
		   AND c.table_name   = $2
		 ORDER BY c.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col                  schema.Column
			charLen, prec, scale *int32
			nullable, identity   string
			dflt                 *string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &charLen, &prec, &scale, &nullable, &dflt, &identity, &col.Comment); err != nil {
			return nil, fmt.Errorf("columns scan: %w", err)
		}
		col.ColumnType = columnType(col.DataType, charLen, prec, scale)
		col.Nullable = nullable == "YES"
		col.KeyType = keys[col.Name]
		if identity == "YES" || dflt != nil && strings.HasPrefix(*dflt, "nextval(") {
			col.Extra = "auto_increment"
		} else {
			col.Default = dflt
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// columnType rebuilds a declaration such as "character varying(40)" or
// "numeric(10,2)" from information_schema parts.
func columnType(dataType string, charLen, prec, scale *int32) string {
	switch {
	case charLen != nil:
		return fmt.Sprintf("%s(%d)", dataType, *charLen)
	case dataType == "numeric" && prec != nil && scale != nil:
		return fmt.Sprintf("%s(%d,%d)", dataType, *prec, *scale)
	}
	return dataType
}

// keyColumns reports the strongest key each column takes part in, using
// the MySQL COLUMN_KEY vocabulary.
func (c *pgConn) keyColumns(ctx context.Context, schemaName, table string) (map[string]schema.KeyType, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT a.attname, i.indisprimary, i.indisunique AND i.indnatts = 1
		 FROM pg_index i
		 JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		 WHERE i.indrelid = format('%I.%I', $1::text, $2::text)::regclass`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("key columns: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]schema.KeyType)
	for rows.Next() {
		var (
			name            string
			primary, unique bool
		)
		if err := rows.Scan(&name, &primary, &unique); err != nil {
			return nil, fmt.Errorf("key columns scan: %w", err)
		}
		switch {
		case primary:
			keys[name] = schema.KeyPrimary
		case unique && keys[name] != schema.KeyPrimary:
			keys[name] = schema.KeyUnique
		case keys[name] == schema.KeyNone:
			keys[name] = schema.KeyIndex
		}
	}
	return keys, rows.Err()
}

func (c *pgConn) Indexes(ctx context.Context, db, table string) ([]schema.Index, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT CASE WHEN ix.indisprimary THEN 'PRIMARY' ELSE i.relname END AS index_name,
		        array_agg(a.attname ORDER BY k.n) AS columns,
		        ix.indisunique                     AS is_unique,
		        upper(am.amname)                   AS index_type
		 FROM pg_index ix
		 JOIN pg_class  t ON t.oid  = ix.indrelid
		 JOIN pg_class  i ON i.oid  = ix.indexrelid
		 JOIN pg_am    am ON am.oid = i.relam
		 JOIN pg_namespace n ON n.oid = t.relnamespace
		 JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, n) ON true
		 JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		 WHERE n.nspname = $1
		   AND t.relname = $2
		 GROUP BY ix.indisprimary, i.relname, ix.indisunique, am.amname
		 ORDER BY ix.indisprimary DESC, i.relname`, schemaOrPublic(db), table)
	if err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.Columns, &idx.Unique, &idx.Type); err != nil {
			return nil, fmt.Errorf("indexes scan: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func (c *pgConn) ForeignKeys(ctx context.Context, db, table string) ([]schema.ForeignKey, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT tc.constraint_name,
		        kcu.column_name,
		        ccu.table_name  AS ref_table,
		        ccu.column_name AS ref_column,
		        rc.update_rule,
		        rc.delete_rule
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		      ON kcu.constraint_name = tc.constraint_name
		     AND kcu.table_schema    = tc.table_schema
		 JOIN information_schema.constraint_column_usage ccu
		      ON ccu.constraint_name = tc.constraint_name
		     AND ccu.table_schema    = tc.table_schema
		 JOIN information_schema.referential_constraints rc
		      ON rc.constraint_name   = tc.constraint_name
		     AND rc.constraint_schema = tc.table_schema
		 WHERE tc.constraint_type = 'FOREIGN KEY'
		   AND tc.table_schema    = $1
		   AND tc.table_name      = $2
		 ORDER BY tc.constraint_name, kcu.ordinal_position`, schemaOrPublic(db), table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	defer rows.Close()

	// Group by constraint name.
	fkMap := make(map[string]*schema.ForeignKey)
	var fkOrder []string
	for rows.Next() {
		var cname, col, refTable, refCol, onUpdate, onDelete string
		if err := rows.Scan(&cname, &col, &refTable, &refCol, &onUpdate, &onDelete); err != nil {
			return nil, fmt.Errorf("foreign keys scan: %w", err)
		}
		fk, ok := fkMap[cname]
		if !ok {
			fk = &schema.ForeignKey{Name: cname, RefTable: refTable, OnUpdate: onUpdate, OnDelete: onDelete}
			fkMap[cname] = fk
			fkOrder = append(fkOrder, cname)
		}
		fk.Columns = append(fk.Columns, col)
		fk.RefColumns = append(fk.RefColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fks := make([]schema.ForeignKey, 0, len(fkOrder))
	for _, name := range fkOrder {
		fks = append(fks, *fkMap[name])
	}
	return fks, nil
}

// ---------------------------------------------------------------------------
// Query Execution
// ---------------------------------------------------------------------------

func (c *pgConn) Execute(ctx context.Context, query string) (*adapter.QueryResult, error) {
	start := time.Now()
	if adapter.IsSelectQuery(query) {
		return c.executeSelect(ctx, query, start)
	}
	return c.executeNonSelect(ctx, query, start)
}

func (c *pgConn) executeSelect(ctx context.Context, query string, start time.Time) (*adapter.QueryResult, error) {
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	res := &adapter.QueryResult{
		Columns:  c.fieldDescToMeta(rows.FieldDescriptions()),
		IsSelect: true,
	}
	for rows.Next() {
		if len(res.Rows) >= c.maxRows {
			res.Truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("execute values: %w", err)
		}
		row := make([]any, len(vals))
		for i, v := range vals {
			if v != nil {
				row[i] = valueToString(v)
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("execute rows: %w", err)
	}
	res.RowCount = int64(len(res.Rows))
	res.Duration = time.Since(start)
	return res, nil
}

func (c *pgConn) executeNonSelect(ctx context.Context, query string, start time.Time) (*adapter.QueryResult, error) {
	tag, err := c.pool.Exec(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	return &adapter.QueryResult{
		RowCount: tag.RowsAffected(),
		Duration: time.Since(start),
		Message:  tag.String(),
	}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (c *pgConn) fieldDescToMeta(fds []pgconn.FieldDescription) []adapter.ColumnMeta {
	cols := make([]adapter.ColumnMeta, len(fds))
	for i, fd := range fds {
		cols[i] = adapter.ColumnMeta{
			Name: fd.Name,
			Type: typeName(c.types, fd.DataTypeOID),
		}
	}
	return cols
}

// typeName maps a type OID to its registered name.
func typeName(m *pgtype.Map, oid uint32) string {
	if t, ok := m.TypeForOID(oid); ok {
		return t.Name
	}
	return "oid:" + strconv.FormatUint(uint64(oid), 10)
}

// valueToString converts a single database value to a string representation.
func valueToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case bool:
		return strconv.FormatBool(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case [16]byte:
		// UUID
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = valueToString(e)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []string:
		return "{" + strings.Join(val, ",") + "}"
	case pgtype.Numeric:
		dv, err := val.Value()
		if err != nil || dv == nil {
			return ""
		}
		return fmt.Sprint(dv)
	default:
		return fmt.Sprint(v)
	}
}
