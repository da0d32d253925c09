// Package h2 reads an H2 database through its PostgreSQL-compatible server
// mode (`-tcp -pg`). H2 answers catalog queries with its own SHOW commands,
// so only the wire protocol is shared with PostgreSQL.
package h2

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
)

// conn is the part of *pgx.Conn the driver uses.
type conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Driver is the H2 implementation of database.Source. It holds a single
// connection and is not safe for concurrent use.
type Driver struct {
	conn   conn
	schema string
}

var _ database.Source = (*Driver)(nil)

// New connects to H2 using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid H2 DSN", err)
	}

	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}
	// H2's pg server does not implement the extended protocol's describe
	// step reliably; the simple protocol interpolates arguments client-side.
	connCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	c, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, mapError(err, "failed to connect to H2")
	}

	d := newDriver(c, cfg.Schema)
	if err := d.Ping(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return d, nil
}

func newDriver(c conn, schema string) *Driver {
	if schema == "" {
		schema = "PUBLIC"
	}
	return &Driver{conn: c, schema: schema}
}

// --- database.Source implementation ---

// Ping verifies the database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.conn.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close closes the connection.
func (d *Driver) Close() {
	_ = d.conn.Close(context.Background())
}

// ListTables returns the table names of the configured schema.
// SHOW TABLES yields (TABLE_NAME, TABLE_SCHEMA); only the name is kept.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	q := "SHOW TABLES FROM " + database.QuoteIdent(database.DialectH2, d.schema)

	rows, err := d.conn.Query(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, mapError(err, "failed to read table name")
		}
		if len(vals) == 0 {
			continue
		}
		tables = append(tables, asString(vals[0]))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating tables")
	}
	return tables, nil
}

// ListColumns returns table's columns in catalog order.
// SHOW COLUMNS yields (FIELD, TYPE, NULL, KEY, DEFAULT).
func (d *Driver) ListColumns(ctx context.Context, table string) ([]database.ColumnMeta, error) {
	q := fmt.Sprintf("SHOW COLUMNS FROM %s FROM %s",
		database.QuoteIdent(database.DialectH2, table),
		database.QuoteIdent(database.DialectH2, d.schema),
	)

	rows, err := d.conn.Query(ctx, q)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to fetch columns of %s", table))
	}
	defer rows.Close()

	cols := make([]database.ColumnMeta, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, mapError(err, "failed to read column info")
		}
		if len(vals) < 2 {
			return nil, errs.Errorf(errs.ErrKindIntrospection,
				"unexpected SHOW COLUMNS shape: %d fields", len(vals)).ForTable(table)
		}
		cols = append(cols, columnFromValues(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}
	return cols, nil
}

// CountRows returns the number of rows in table.
func (d *Driver) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := d.conn.QueryRow(ctx, database.CountQuery(database.DialectH2, table)).Scan(&n)
	if err != nil {
		return 0, mapError(err, fmt.Sprintf("failed to count rows of %s", table))
	}
	return n, nil
}

// FetchPage returns one window of rows with raw driver values.
func (d *Driver) FetchPage(ctx context.Context, req database.PageRequest) ([][]any, error) {
	q, args, err := database.Select(req.Table, database.DialectH2).
		OrderBy(req.OrderBy...).
		Offset(req.Offset).
		Limit(req.Limit).
		Build()
	if err != nil {
		return nil, err
	}

	rows, err := d.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to fetch page of %s", req.Table))
	}

	return database.CollectValues(rows)
}

// --- helpers ---

func columnFromValues(vals []any) database.ColumnMeta {
	col := database.ColumnMeta{
		Name: asString(vals[0]),
		Type: asString(vals[1]),
	}
	if len(vals) > 2 {
		col.Nullable = database.ParseNullability(asString(vals[2]))
	}
	if len(vals) > 3 {
		col.IsKey = strings.EqualFold(strings.TrimSpace(asString(vals[3])), "PRI")
	}
	if len(vals) > 4 && vals[4] != nil {
		def := asString(vals[4])
		col.Default = &def
	}
	return col
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
