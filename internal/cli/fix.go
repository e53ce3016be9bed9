package cli

import (
	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/ingest"
)

// fixCommand groups repairs of existing topogram exports.
func (c *CLI) fixCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair topogram exports",
	}
	cmd.AddCommand(c.swapEdgesCommand())
	return cmd
}

func (c *CLI) swapEdgesCommand() *cobra.Command {
	var opts ingest.SwapOptions

	cmd := &cobra.Command{
		Use:   "swap-edges",
		Short: "Exchange source and target of edge rows",
		Long: `Some exports wrote edge targets in the source column and sources in the
target column. swap-edges exchanges the two for every edge row (empty id
with a source or target) of each *.topogram.csv below --dir.

Without --commit it only reports counts. With --commit the folder is first
archived as topograms-backup-<timestamp>.tar.gz in --backup-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			im := ingest.NewImporter(nil, loggerFromContext(ctx))
			res, err := im.SwapEdges(ctx, opts)
			if err != nil {
				return err
			}

			for _, f := range res.Changed {
				printDetail("%s  %d rows", f.Path, f.Swapped)
			}
			printSuccess("Swapped %d edge rows in %d of %d files", res.Total, len(res.Changed), res.Files)
			if res.Backup != "" {
				printInfo("Backup written")
				printFile(res.Backup)
			}
			if !opts.Commit {
				printDryRun()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "folder with topogram CSV files (required)")
	cmd.Flags().BoolVar(&opts.Commit, "commit", false, "rewrite files (default is a dry run)")
	cmd.Flags().StringVar(&opts.BackupDir, "backup-dir", "", "where to write the backup archive (default the temp dir)")
	cmd.MarkFlagRequired("dir")

	return cmd
}
