// Package mysql is the MySQL implementation of database.Target.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
)

// validDBName bounds database names to what can be safely backtick-quoted
// without escaping.
var validDBName = regexp.MustCompile(`^[A-Za-z0-9_$]+$`)

// Driver is a MySQL implementation of database.Target backed by database/sql.
type Driver struct {
	db   *sql.DB
	base *gomysql.Config
	cfg  *database.Config
	open Opener
}

var _ database.Target = (*Driver)(nil)

// New opens a MySQL connection using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	return NewWithOpener(ctx, cfg, DefaultOpener)
}

// NewWithOpener is New with a custom pool opener.
func NewWithOpener(ctx context.Context, cfg *database.Config, open Opener) (*Driver, error) {
	base, err := parseDSN(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid MySQL DSN", err)
	}

	d := &Driver{base: base, cfg: cfg, open: open}
	db, err := d.connect(ctx, base)
	if err != nil {
		return nil, err
	}
	d.db = db
	return d, nil
}

func (d *Driver) connect(ctx context.Context, mc *gomysql.Config) (*sql.DB, error) {
	db, err := d.open(mc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open MySQL connection", err)
	}
	applyPool(db, d.cfg)

	pingCtx := ctx
	if d.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, d.cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapError(err, "ping failed")
	}
	return db, nil
}

// --- database.Target implementation ---

// Ping verifies the server is reachable, redialing a dropped connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close closes the pool.
func (d *Driver) Close() {
	_ = d.db.Close()
}

// ListDatabases returns the output of SHOW DATABASES.
func (d *Driver) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, mapError(err, "failed to list databases")
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "failed to scan database name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating databases")
	}
	return names, nil
}

// CreateDatabase creates name, refusing to reuse an existing database.
func (d *Driver) CreateDatabase(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	existing, err := d.ListDatabases(ctx)
	if err != nil {
		return err
	}
	for _, db := range existing {
		if db == name {
			return errs.Errorf(errs.ErrKindSchema, "database %s already exists", name)
		}
	}

	stmt := "CREATE DATABASE " + database.QuoteIdent(database.DialectMySQL, name)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return mapError(err, fmt.Sprintf("failed to create database %s", name))
	}
	return nil
}

// DropDatabase drops name if it exists.
func (d *Driver) DropDatabase(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	stmt := "DROP DATABASE IF EXISTS " + database.QuoteIdent(database.DialectMySQL, name)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return mapError(err, fmt.Sprintf("failed to drop database %s", name))
	}
	return nil
}

// UseDatabase reopens the pool with name as its default database, so
// every connection the pool redials selects it too.
func (d *Driver) UseDatabase(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	mc := d.base.Clone()
	mc.DBName = name
	db, err := d.connect(ctx, mc)
	if err != nil {
		return err
	}

	old := d.db
	d.db = db
	d.base = mc
	_ = old.Close()
	return nil
}

// Exec runs a single statement outside any explicit transaction.
func (d *Driver) Exec(ctx context.Context, stmt string) error {
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return mapError(err, "statement failed")
	}
	return nil
}

// ExecBatch pings, then runs stmts in one transaction and commits. Any
// failure rolls the whole batch back.
func (d *Driver) ExecBatch(ctx context.Context, stmts []database.Statement) error {
	if err := d.Ping(ctx); err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}

	for i, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.SQL, st.Args...); err != nil {
			_ = tx.Rollback()
			return mapError(err, fmt.Sprintf("statement %d of %d failed", i+1, len(stmts)))
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "failed to commit transaction")
	}
	return nil
}

func validateName(name string) error {
	if !validDBName.MatchString(name) {
		return errs.Errorf(errs.ErrKindInvalidInput,
			"invalid database name %q: only letters, digits, _ and $ are allowed", name)
	}
	return nil
}
