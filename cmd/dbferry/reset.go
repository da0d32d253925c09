package main

import (
	"fmt"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/spf13/cobra"
)

func (a *app) resetCmd() *cobra.Command {
	var dbName string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the target database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("database") {
				cfg.Target.Database = dbName
			}
			if cfg.Target.DSN == "" {
				return errs.New(errs.ErrKindInvalidInput, "target.dsn is required")
			}
			if cfg.Target.Database == "" {
				return errs.New(errs.ErrKindInvalidInput, "target.database is required")
			}
			log := a.newLogger(cfg)

			ctx := cmd.Context()
			dst, err := a.openTarget(ctx, cfg.TargetDB())
			if err != nil {
				return err
			}
			defer dst.Close()

			if err := dst.DropDatabase(ctx, cfg.Target.Database); err != nil {
				return err
			}
			log.InfoWith("database dropped", map[string]interface{}{"database": cfg.Target.Database})
			fmt.Fprintf(a.out, "dropped database %s\n", cfg.Target.Database)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbName, "database", "", "database to drop (overrides target.database)")
	return cmd
}
