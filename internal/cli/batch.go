package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/batch"
	"github.com/topogram/topokit/pkg/graph"
)

type batchOpts struct {
	input        string
	top          int
	outdir       string
	depth        int
	noRecommends bool
	jobs         int
	suite        string
	component    string
	arch         string
	refresh      bool
	noCache      bool
}

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{top: 10, outdir: "/tmp/topograms", depth: graph.DefaultMaxDepth}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Build topograms for a list of source packages",
		Long: `Batch reads source package names from the first column of a CSV (such as
the output of "topokit rank"), picks the first binary package of each
source as the root and writes <outdir>/<source>.topogram.csv.

Sources without binaries are skipped; a failing source does not stop the
others.`,
		Example: `  topokit rank --suite trixie -o ranking.csv
  topokit batch --suite trixie --input ranking.csv --top 50 --outdir ./topograms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(opts.input)
			if err != nil {
				return fmt.Errorf("open selection: %w", err)
			}
			sources, err := batch.ReadSelection(f, opts.top)
			f.Close()
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			d := dist(cfg, opts.suite, opts.component, opts.arch)
			sp := newSpinner(ctx, fmt.Sprintf("Fetching %s...", d.WithDefaults())).Start()
			prog := newProgress(logger)
			recs, err := runner.Records(ctx, d, opts.refresh)
			sp.Stop()
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Parsed %d records", len(recs)))

			b := &batch.Builder{
				Options: graph.Options{
					MaxDepth:   opts.depth,
					Recommends: !opts.noRecommends,
				},
				Jobs:   opts.jobs,
				Logger: logger,
			}
			report, err := b.Run(ctx, recs, sources, opts.outdir)
			if err != nil {
				return err
			}

			printSuccess("Built %d of %d sources", report.Count(batch.StatusBuilt), len(sources))
			if n := report.Count(batch.StatusSkipped); n > 0 {
				printWarning("%d sources have no binary packages", n)
			}
			for _, res := range report.Results {
				if res.Status == batch.StatusFailed {
					printError("%s: %v", res.Source, res.Err)
				}
			}
			printDetail("Directory: %s", opts.outdir)
			if n := report.Count(batch.StatusFailed); n > 0 {
				return fmt.Errorf("%d sources failed", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "CSV of source packages, one per row (required)")
	cmd.Flags().IntVar(&opts.top, "top", opts.top, "build only the first N sources (0 for all)")
	cmd.Flags().StringVar(&opts.outdir, "outdir", opts.outdir, "output directory")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", opts.depth, "breadth-first depth")
	cmd.Flags().BoolVar(&opts.noRecommends, "no-recommends", false, "do not follow Recommends")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "parallel builds (default GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.suite, "suite", "", "Debian suite")
	cmd.Flags().StringVar(&opts.component, "component", "", "archive component")
	cmd.Flags().StringVar(&opts.arch, "arch", "", "architecture")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch the index")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.MarkFlagRequired("input")

	return cmd
}
