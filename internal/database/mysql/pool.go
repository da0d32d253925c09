package mysql

import (
	"database/sql"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbferry/internal/database"
)

// Opener turns a driver config into a *sql.DB. Tests swap it for sqlmock.
type Opener func(cfg *gomysql.Config) (*sql.DB, error)

// DefaultOpener opens a real MySQL pool through the driver's connector.
func DefaultOpener(cfg *gomysql.Config) (*sql.DB, error) {
	conn, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(conn), nil
}

// applyPool limits the pool to one connection. A migration writes
// sequentially, and database/sql transparently redials when that
// connection drops.
func applyPool(db *sql.DB, cfg *database.Config) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
}

// parseDSN reads the DSN into a driver config, applying the connect timeout.
func parseDSN(cfg *database.Config) (*gomysql.Config, error) {
	mc, err := gomysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout > 0 && mc.Timeout == 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	return mc, nil
}
