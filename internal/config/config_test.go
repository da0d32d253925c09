package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `
source:
  dsn: postgres://sa:sa@localhost:5435/test
  schema: APP
  connect_timeout: 3s
target:
  dsn: root:pw@tcp(localhost:3306)/
  database: shop
  reset: true
  conn_max_idle_time: 1m
migration:
  batch_size: 500
  insert_mode: params
  order_by_key: true
  batch_timeout: 30s
  tables: [USERS, ORDERS]
log:
  level: debug
  format: console
status:
  addr: ":8089"
report:
  endpoint: localhost:9000
  access_key: minio
  secret_key: minio123
  bucket: runs
  prefix: nightly/
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbferry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvSourceDSN, "")
	t.Setenv(EnvTargetDSN, "")
	t.Setenv(EnvTargetDatabase, "")
}

func TestLoad_Full(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, fullYAML))
	require.NoError(t, err)

	assert.Equal(t, "APP", cfg.Source.Schema)
	assert.Equal(t, 3*time.Second, cfg.Source.ConnectTimeout)
	assert.Equal(t, "shop", cfg.Target.Database)
	assert.True(t, cfg.Target.Reset)
	assert.Equal(t, []string{"USERS", "ORDERS"}, cfg.Migration.Tables)
	assert.Equal(t, ":8089", cfg.Status.Addr)

	opts := cfg.TransferOptions()
	assert.Equal(t, transfer.Options{
		BatchSize:    500,
		Mode:         transfer.InsertParams,
		OrderByKey:   true,
		BatchTimeout: 30 * time.Second,
	}, opts)

	src := cfg.SourceDB()
	assert.Equal(t, database.DriverH2, src.Driver)
	assert.Equal(t, "APP", src.Schema)

	dst := cfg.TargetDB()
	assert.Equal(t, database.DriverMySQL, dst.Driver)
	assert.Equal(t, time.Minute, dst.MaxConnIdleTime)
	assert.Equal(t, 10*time.Second, dst.ConnectTimeout, "default survives when the file omits it")

	fs := cfg.FileStore()
	assert.True(t, fs.Enabled())
	assert.Equal(t, "runs", fs.Bucket)
	assert.Equal(t, "nightly/", fs.Prefix)

	assert.Equal(t, "console", cfg.Logger().Format)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, `
source: {dsn: "postgres://h2"}
target: {dsn: "root@tcp(db)/", database: shop}
`))
	require.NoError(t, err)

	assert.Equal(t, "PUBLIC", cfg.Source.Schema)
	assert.Equal(t, int64(transfer.DefaultBatchSize), cfg.Migration.BatchSize)
	assert.Equal(t, string(transfer.InsertLiteral), cfg.Migration.InsertMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.FileStore().Enabled())
	assert.Empty(t, cfg.Status.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvSourceDSN, "postgres://env-h2")
	t.Setenv(EnvTargetDSN, "env@tcp(db)/")
	t.Setenv(EnvTargetDatabase, "envdb")

	cfg, err := Load(writeConfig(t, fullYAML))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-h2", cfg.Source.DSN)
	assert.Equal(t, "env@tcp(db)/", cfg.Target.DSN)
	assert.Equal(t, "envdb", cfg.Target.Database)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv(EnvSourceDSN, "postgres://env-h2")
	t.Setenv(EnvTargetDSN, "env@tcp(db)/")
	t.Setenv(EnvTargetDatabase, "envdb")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "envdb", cfg.Target.Database)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "source: [unterminated"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Source.DSN = "postgres://h2"
		c.Target.DSN = "root@tcp(db)/"
		c.Target.Database = "shop"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no source dsn", func(c *Config) { c.Source.DSN = "" }, "source.dsn"},
		{"no target dsn", func(c *Config) { c.Target.DSN = "" }, "target.dsn"},
		{"no database", func(c *Config) { c.Target.Database = "" }, "target.database"},
		{"zero batch", func(c *Config) { c.Migration.BatchSize = 0 }, "batch_size"},
		{"bad mode", func(c *Config) { c.Migration.InsertMode = "copy" }, "insert mode"},
		{"negative timeout", func(c *Config) { c.Migration.BatchTimeout = -time.Second }, "batch_timeout"},
		{"empty table name", func(c *Config) { c.Migration.Tables = []string{"A", ""} }, "migration.tables"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"report without bucket", func(c *Config) {
			c.Report.Endpoint = "localhost:9000"
			c.Report.Bucket = ""
		}, "report.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("../../examples/dbferry.yaml")
	require.NoError(t, err)
	assert.Equal(t, "migrated", cfg.Target.Database)
	assert.Equal(t, int64(1000), cfg.Migration.BatchSize)
	assert.False(t, cfg.FileStore().Enabled())
}
