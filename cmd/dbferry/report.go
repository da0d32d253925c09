package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/filestore"
	"github.com/spf13/cobra"
)

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Browse run reports in the object store",
	}
	cmd.AddCommand(a.reportListCmd(), a.reportShowCmd())
	return cmd
}

func (a *app) reportListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published run reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, fc, err := a.openStoreFor(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			objects, err := store.ListObjects(ctx, fc.Bucket, filestore.ListOptions{
				Prefix:    fc.Prefix,
				Recursive: true,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, o := range objects {
				if o.IsDir {
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of reports to list (0 = all)")
	return cmd
}

func (a *app) reportShowCmd() *cobra.Command {
	var presign time.Duration

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print a run report, or a download URL for it with --presign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, fc, err := a.openStoreFor(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			key := args[0]
			if presign > 0 {
				url, err := store.PresignGetURL(ctx, fc.Bucket, key, presign)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, url)
				return nil
			}

			obj, err := store.GetObject(ctx, fc.Bucket, key)
			if err != nil {
				return err
			}
			defer obj.Close()

			if _, err := io.Copy(a.out, obj); err != nil {
				return errs.Wrap(errs.ErrKindQueryFailed, "failed to read report "+key, err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&presign, "presign", 0, "print a presigned download URL valid for this long instead of the report")
	return cmd
}
