package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/graph"
	"github.com/topogram/topokit/pkg/pipeline"
	"github.com/topogram/topokit/pkg/topogram"
)

// Output formats of the build command.
const (
	formatCSV  = "csv"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

var formatExt = map[string]string{
	formatCSV:  ".topogram.csv",
	formatJSON: ".json",
	formatDOT:  ".dot",
	formatSVG:  ".svg",
}

// buildOpts holds the flags of the build command.
type buildOpts struct {
	depth      int
	output     string
	suite      string
	component  string
	arch       string
	recommends bool
	suggests   bool
	format     string
	refresh    bool
	noCache    bool
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build <package>",
		Short: "Build the dependency topogram of a Debian package",
		Long: `Build fetches the Packages index of a suite, walks the dependencies of a
binary package breadth-first and writes the resulting topogram.

Output defaults to <package>.topogram.csv; use -o - for stdout.`,
		Example: `  topokit build curl
  topokit build curl -d 3 --include-recommends --suite trixie
  topokit build libc6 --format svg -o libc6.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("depth") {
				opts.depth = cfg.Depth
			}
			if !cmd.Flags().Changed("include-recommends") {
				opts.recommends = cfg.Recommends
			}
			if !cmd.Flags().Changed("include-suggests") {
				opts.suggests = cfg.Suggests
			}
			runner, err := c.newRunner(cmd.Context(), cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			return runBuild(cmd.Context(), runner, pipeline.Options{
				Package:    args[0],
				Dist:       dist(cfg, opts.suite, opts.component, opts.arch),
				MaxDepth:   opts.depth,
				Recommends: opts.recommends,
				Suggests:   opts.suggests,
				Refresh:    opts.refresh,
			}, opts.format, opts.output)
		},
	}

	cmd.Flags().IntVarP(&opts.depth, "depth", "d", graph.DefaultMaxDepth, "breadth-first depth")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (- for stdout)")
	cmd.Flags().StringVar(&opts.suite, "suite", "", "Debian suite (stable, testing, trixie, ...)")
	cmd.Flags().StringVar(&opts.component, "component", "", "archive component (main, contrib, non-free)")
	cmd.Flags().StringVar(&opts.arch, "arch", "", "architecture")
	cmd.Flags().BoolVar(&opts.recommends, "include-recommends", false, "follow Recommends")
	cmd.Flags().BoolVar(&opts.suggests, "include-suggests", false, "follow Suggests")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatCSV, "output format: csv, json, dot, svg")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch the index and rebuild")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func runBuild(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, format, output string) error {
	ext, ok := formatExt[format]
	if !ok {
		return fmt.Errorf("unknown format %q (want csv, json, dot or svg)", format)
	}

	sp := newSpinner(ctx, fmt.Sprintf("Building %s from %s...", opts.Package, opts.Dist.WithDefaults())).Start()
	res, err := runner.Build(ctx, opts)
	sp.Stop()
	if err != nil {
		return err
	}

	data, err := encodeGraph(ctx, res.Graph, format)
	if err != nil {
		return err
	}

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = opts.Package + ext
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Built %s", opts.Package)
	printStats(res.Stats.Nodes, res.Stats.Edges, res.Stats.Unknown, res.CacheHit)
	printFile(output)
	return nil
}

func encodeGraph(ctx context.Context, g *graph.Graph, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case formatCSV:
		err = topogram.WriteCSV(&buf, g)
	case formatJSON:
		err = graph.WriteGraph(g, &buf)
	case formatDOT:
		_, err = io.WriteString(&buf, graph.ToDOT(g, graph.DOTOptions{Detailed: true}))
	case formatSVG:
		return graph.RenderSVG(ctx, graph.ToDOT(g, graph.DOTOptions{Detailed: true}))
	}
	return buf.Bytes(), err
}
