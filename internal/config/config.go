// Package config loads the dbferry YAML configuration file.
//
// Precedence, lowest first: Default(), the YAML file, DBFERRY_* environment
// variables, then CLI flags (applied by the caller).
package config

import (
	"os"
	"time"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/filestore"
	"github.com/koustreak/dbferry/internal/logger"
	"github.com/koustreak/dbferry/internal/transfer"
	"go.yaml.in/yaml/v3"
)

// Environment overrides.
const (
	EnvSourceDSN      = "DBFERRY_SOURCE_DSN"
	EnvTargetDSN      = "DBFERRY_TARGET_DSN"
	EnvTargetDatabase = "DBFERRY_TARGET_DATABASE"
)

type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Target    TargetConfig    `yaml:"target"`
	Migration MigrationConfig `yaml:"migration"`
	Log       LogConfig       `yaml:"log"`
	Status    StatusConfig    `yaml:"status"`
	Report    ReportConfig    `yaml:"report"`
}

type SourceConfig struct {
	DSN            string        `yaml:"dsn"`
	Schema         string        `yaml:"schema"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type TargetConfig struct {
	DSN             string        `yaml:"dsn"`
	Database        string        `yaml:"database"`
	Reset           bool          `yaml:"reset"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type MigrationConfig struct {
	BatchSize    int64         `yaml:"batch_size"`
	InsertMode   string        `yaml:"insert_mode"`
	OrderByKey   bool          `yaml:"order_by_key"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	Tables       []string      `yaml:"tables"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StatusConfig enables the HTTP progress endpoint when Addr is set.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// ReportConfig enables report upload when Endpoint is set.
type ReportConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	src := database.DefaultConfig(database.DriverH2, "")
	dst := database.DefaultConfig(database.DriverMySQL, "")
	store := filestore.DefaultConfig("", "", "")
	log := logger.DefaultConfig()

	return &Config{
		Source: SourceConfig{
			Schema:         src.Schema,
			ConnectTimeout: src.ConnectTimeout,
		},
		Target: TargetConfig{
			ConnectTimeout:  dst.ConnectTimeout,
			ConnMaxIdleTime: dst.MaxConnIdleTime,
		},
		Migration: MigrationConfig{
			BatchSize:  transfer.DefaultBatchSize,
			InsertMode: string(transfer.InsertLiteral),
		},
		Log: LogConfig{
			Level:  log.Level,
			Format: log.Format,
		},
		Report: ReportConfig{
			Bucket: store.Bucket,
			Prefix: store.Prefix,
		},
	}
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads path over Default() and applies environment overrides. An
// empty path skips the file.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
			}
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSourceDSN); v != "" {
		c.Source.DSN = v
	}
	if v := os.Getenv(EnvTargetDSN); v != "" {
		c.Target.DSN = v
	}
	if v := os.Getenv(EnvTargetDatabase); v != "" {
		c.Target.Database = v
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Source.DSN == "" {
		return errs.New(errs.ErrKindInvalidInput, "source.dsn is required")
	}
	if c.Target.DSN == "" {
		return errs.New(errs.ErrKindInvalidInput, "target.dsn is required")
	}
	if c.Target.Database == "" {
		return errs.New(errs.ErrKindInvalidInput, "target.database is required")
	}
	if c.Migration.BatchSize <= 0 {
		return errs.Errorf(errs.ErrKindInvalidInput, "migration.batch_size must be positive, got %d", c.Migration.BatchSize)
	}
	if _, err := transfer.ParseInsertMode(c.Migration.InsertMode); err != nil {
		return err
	}
	if c.Migration.BatchTimeout < 0 {
		return errs.New(errs.ErrKindInvalidInput, "migration.batch_timeout must not be negative")
	}
	for _, t := range c.Migration.Tables {
		if t == "" {
			return errs.New(errs.ErrKindInvalidInput, "migration.tables must not contain empty names")
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.Errorf(errs.ErrKindInvalidInput, "log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Report.Endpoint != "" && c.Report.Bucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "report.bucket is required when report.endpoint is set")
	}
	return nil
}

// SourceDB returns the connection settings for the H2 source.
func (c *Config) SourceDB() *database.Config {
	db := database.DefaultConfig(database.DriverH2, c.Source.DSN)
	if c.Source.Schema != "" {
		db.Schema = c.Source.Schema
	}
	db.ConnectTimeout = c.Source.ConnectTimeout
	return db
}

// TargetDB returns the connection settings for the MySQL target.
func (c *Config) TargetDB() *database.Config {
	db := database.DefaultConfig(database.DriverMySQL, c.Target.DSN)
	db.ConnectTimeout = c.Target.ConnectTimeout
	db.MaxConnIdleTime = c.Target.ConnMaxIdleTime
	return db
}

// TransferOptions returns the batch engine settings. Validate must have
// accepted c.
func (c *Config) TransferOptions() transfer.Options {
	mode, _ := transfer.ParseInsertMode(c.Migration.InsertMode)
	return transfer.Options{
		BatchSize:    c.Migration.BatchSize,
		Mode:         mode,
		OrderByKey:   c.Migration.OrderByKey,
		BatchTimeout: c.Migration.BatchTimeout,
	}
}

// Logger returns logger settings writing to stdout.
func (c *Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}

// FileStore returns the object store settings for report upload.
func (c *Config) FileStore() *filestore.Config {
	fc := filestore.DefaultConfig(c.Report.Endpoint, c.Report.AccessKey, c.Report.SecretKey)
	fc.UseSSL = c.Report.UseSSL
	fc.Region = c.Report.Region
	fc.Bucket = c.Report.Bucket
	fc.Prefix = c.Report.Prefix
	return fc
}
