package main

import (
	"context"
	"io"
	"os"

	"github.com/koustreak/dbferry/internal/config"
	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/database/h2"
	"github.com/koustreak/dbferry/internal/database/mysql"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/filestore"
	"github.com/koustreak/dbferry/internal/filestore/minio"
	"github.com/koustreak/dbferry/internal/logger"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the connection factories so tests can swap in fakes.
type app struct {
	out    io.Writer
	logOut io.Writer

	openSource func(ctx context.Context, cfg *database.Config) (database.Source, error)
	openTarget func(ctx context.Context, cfg *database.Config) (database.Target, error)
	openStore  func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error)

	configPath string
	logLevel   string
}

func newApp() *app {
	return &app{
		out:    os.Stdout,
		logOut: os.Stderr,
		openSource: func(ctx context.Context, cfg *database.Config) (database.Source, error) {
			d, err := h2.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		openTarget: func(ctx context.Context, cfg *database.Config) (database.Target, error) {
			d, err := mysql.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		openStore: func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
			d, err := minio.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dbferry",
		Short: "H2 to MySQL schema and data migration",
		Long: `dbferry copies every table of an H2 schema into a freshly created MySQL
database: it creates the database, recreates each table with mapped column
types, then copies the rows in committed batches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.migrateCmd(),
		a.inspectCmd(),
		a.resetCmd(),
		a.reportCmd(),
		a.versionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies the persistent flags. The
// caller validates after applying its own flags.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Read(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	return cfg, nil
}

func (a *app) newLogger(cfg *config.Config) *logger.Logger {
	lc := cfg.Logger()
	lc.Output = a.logOut
	log := logger.New(lc)
	logger.SetGlobal(log)
	return log
}

func (a *app) openStoreFor(ctx context.Context, cfg *config.Config) (filestore.Store, *filestore.Config, error) {
	fc := cfg.FileStore()
	if !fc.Enabled() {
		return nil, nil, errs.New(errs.ErrKindInvalidInput, "report.endpoint is not configured")
	}
	store, err := a.openStore(ctx, fc)
	if err != nil {
		return nil, nil, err
	}
	return store, fc, nil
}
