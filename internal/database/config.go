package database

import "time"

// Driver identifies the database engine.
type Driver string

const (
	DriverH2    Driver = "h2"
	DriverMySQL Driver = "mysql"
)

// Config holds all settings needed to open one migration connection.
type Config struct {
	// Driver is the database engine (e.g. DriverH2).
	Driver Driver

	// DSN is the full data source name / connection string.
	// H2 example:    "postgres://sa:sa@localhost:5435/~/test?sslmode=disable"
	// MySQL example: "root:pass@tcp(localhost:3306)/"
	DSN string

	// Schema is the source schema whose tables are migrated (H2 only).
	Schema string

	// Connection lifetime. The run holds a single connection per side for
	// its whole duration; these bound how long an idle one is trusted.
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing the connection
}

// DefaultConfig returns connection settings for a long-running batch copy.
func DefaultConfig(driver Driver, dsn string) *Config {
	cfg := &Config{
		Driver:          driver,
		DSN:             dsn,
		MaxConnLifetime: 0, // a migration may legitimately run for hours
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
	if driver == DriverH2 {
		cfg.Schema = "PUBLIC"
	}
	return cfg
}
