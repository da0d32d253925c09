package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/koustreak/dbferry/internal/config"
	"github.com/koustreak/dbferry/internal/logger"
	"github.com/koustreak/dbferry/internal/migrate"
	"github.com/koustreak/dbferry/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func (a *app) migrateCmd() *cobra.Command {
	var (
		batchSize int64
		dbName    string
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the target database and copy every table into it",
		Long: `Create the target database, recreate every source table in it and copy
the rows in batches. The run fails if the database already exists, unless
--reset drops it first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Migration.BatchSize = batchSize
			}
			if cmd.Flags().Changed("database") {
				cfg.Target.Database = dbName
			}
			if cmd.Flags().Changed("reset") {
				cfg.Target.Reset = reset
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.runMigrate(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Int64Var(&batchSize, "batch-size", 0, "rows per batch (overrides migration.batch_size)")
	cmd.Flags().StringVar(&dbName, "database", "", "target database name (overrides target.database)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the target database before migrating")
	return cmd
}

func (a *app) runMigrate(ctx context.Context, cfg *config.Config) error {
	log := a.newLogger(cfg)

	src, err := a.openSource(ctx, cfg.SourceDB())
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := a.openTarget(ctx, cfg.TargetDB())
	if err != nil {
		return err
	}
	defer dst.Close()

	m := migrate.New(src, dst, log)

	if cfg.Status.Addr != "" {
		srv := server.New(cfg.Status.Addr, m.Progress(), log)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	report, runErr := m.Run(ctx, migrate.Options{
		Database: cfg.Target.Database,
		Reset:    cfg.Target.Reset,
		Tables:   cfg.Migration.Tables,
		Transfer: cfg.TransferOptions(),
	})
	printReport(a.out, report)

	if cfg.FileStore().Enabled() {
		a.publish(ctx, cfg, report, log)
	}
	return runErr
}

// publish uploads the report. A failed upload is logged and does not change
// the outcome of the run.
func (a *app) publish(ctx context.Context, cfg *config.Config, report *migrate.Report, log *logger.Logger) {
	store, fc, err := a.openStoreFor(ctx, cfg)
	if err != nil {
		log.ErrorWith("failed to open report store", err, nil)
		return
	}
	defer store.Close()

	key, err := migrate.PublishReport(ctx, store, fc.Bucket, fc.Prefix, report)
	if err != nil {
		log.ErrorWith("failed to publish report", err, map[string]interface{}{"bucket": fc.Bucket})
		return
	}
	log.InfoWith("report published", map[string]interface{}{"bucket": fc.Bucket, "key": key})
	fmt.Fprintf(a.out, "report: %s/%s\n", fc.Bucket, key)
}

func printReport(w io.Writer, r *migrate.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tSTATUS\tROWS\tBATCHES\tERROR")
	for _, t := range r.Tables {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%s\n", t.Name, t.Status, t.MigratedRows, t.TotalRows, t.Batches, t.Error)
	}
	_ = tw.Flush()

	switch failed := len(r.Failed()); {
	case r.Succeeded:
		fmt.Fprintf(w, "migrated %d table(s) into %s in %dms\n", len(r.Tables), r.Database, r.DurationMS)
	case failed > 0:
		fmt.Fprintf(w, "migration into %s finished with %d failed table(s)\n", r.Database, failed)
	default:
		fmt.Fprintf(w, "migration into %s aborted\n", r.Database)
	}
}
