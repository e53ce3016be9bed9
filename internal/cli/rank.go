package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/pipeline"
)

// rankCommand creates the rank command.
func (c *CLI) rankCommand() *cobra.Command {
	var (
		top                    = 5000
		output                 string
		suite, component, arch string
		refresh, noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank source packages by how many packages depend on them",
		Long: `Rank counts, for every source package, the distinct binary packages whose
Depends or Recommends name one of its binaries, and writes
source_package,count rows ordered by count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			d := dist(cfg, suite, component, arch)
			sp := newSpinner(ctx, fmt.Sprintf("Ranking %s...", d.WithDefaults())).Start()
			ranked, err := runner.Rank(ctx, d, top, refresh)
			sp.Stop()
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := pipeline.WriteRanking(w, ranked); err != nil {
				return err
			}
			if w != os.Stdout {
				printSuccess("Ranked %d source packages", len(ranked))
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", top, "keep the first N sources (0 for all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV (default stdout)")
	cmd.Flags().StringVar(&suite, "suite", "", "Debian suite")
	cmd.Flags().StringVar(&component, "component", "", "archive component")
	cmd.Flags().StringVar(&arch, "arch", "", "architecture")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch the index")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
