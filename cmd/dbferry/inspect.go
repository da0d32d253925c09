package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/schema"
	"github.com/spf13/cobra"
)

func (a *app) inspectCmd() *cobra.Command {
	var tables []string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the source catalog with the MySQL column types it maps to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source.DSN == "" {
				return errs.New(errs.ErrKindInvalidInput, "source.dsn is required")
			}
			log := a.newLogger(cfg)

			ctx := cmd.Context()
			src, err := a.openSource(ctx, cfg.SourceDB())
			if err != nil {
				return err
			}
			defer src.Close()

			catalog, err := schema.Introspect(ctx, src, log)
			if err != nil {
				return err
			}
			if len(tables) > 0 {
				if catalog, err = catalog.Filter(tables); err != nil {
					return err
				}
			}
			printCatalog(a.out, catalog)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tables, "tables", nil, "only these tables")
	return cmd
}

func printCatalog(w io.Writer, c *schema.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCOLUMN\tSOURCE TYPE\tTARGET TYPE\tNULL\tKEY")
	for _, t := range c.Tables() {
		for _, col := range t.Columns {
			key := ""
			if col.IsKey {
				key = "PRI"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.Name, col.Name, col.SourceType, col.TargetType, col.Nullable, key)
		}
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d table(s)\n", c.Len())
}
