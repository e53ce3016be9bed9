// Package batch builds one topogram per source package.
//
// A selection (usually the head of a ranking CSV) names source packages.
// For each one the builder picks a representative binary, builds its graph
// from shared read-only records and writes {outDir}/{source}.topogram.csv.
// Sources are independent, so builds run in parallel; a failing source is
// reported and does not stop the others.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/topogram/topokit/pkg/debian"
	errs "github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/graph"
	"github.com/topogram/topokit/pkg/topogram"
)

// FileSuffix is appended to the source name to form the output file name.
const FileSuffix = ".topogram.csv"

// ReadSelection reads source package names from the first column of a CSV
// file. The header row and rows with an empty first cell are skipped; order
// is preserved. top > 0 keeps only the first top names.
func ReadSelection(r io.Reader, top int) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var names []string
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "read selection")
		}
		if header {
			header = false
			continue
		}
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		names = append(names, name)
		if top > 0 && len(names) == top {
			break
		}
	}
	return names, nil
}

// Status is the outcome of one source.
type Status string

const (
	StatusBuilt   Status = "built"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes one source of a batch.
type Result struct {
	Source string `json:"source"`
	Root   string `json:"root,omitempty"`
	Path   string `json:"path,omitempty"`
	Status Status `json:"status"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Err    error  `json:"-"`
}

// Report lists results in selection order.
type Report struct {
	Results []Result `json:"results"`
}

// Count returns the number of results with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Builder builds topograms for many sources.
type Builder struct {
	Options graph.Options
	// Jobs bounds parallel builds. Zero means GOMAXPROCS.
	Jobs   int
	Logger *log.Logger
}

// Run builds every source in sources into outDir. The returned error is
// non-nil only when ctx is cancelled; per-source failures are in the
// report.
func (b *Builder) Run(ctx context.Context, recs debian.Records, sources []string, outDir string) (Report, error) {
	logger := b.Logger
	if logger == nil {
		logger = log.Default()
	}
	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	bins := debian.BinariesBySource(recs)
	results := make([]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.buildOne(src, bins[src], recs, outDir)
			switch res := results[i]; res.Status {
			case StatusSkipped:
				logger.Warn("no binary packages for source; skipping", "source", src)
			case StatusFailed:
				logger.Error("build failed", "source", src, "error", res.Err)
			default:
				logger.Info("built topogram",
					"source", src,
					"root", res.Root,
					"nodes", res.Nodes,
					"edges", res.Edges)
			}
			return nil
		})
	}
	err := g.Wait()
	return Report{Results: results}, err
}

func (b *Builder) buildOne(src string, bins []string, recs debian.Records, outDir string) Result {
	res := Result{Source: src}
	if err := errs.ValidatePackageName(src); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if len(bins) == 0 {
		res.Status = StatusSkipped
		return res
	}

	res.Root = bins[0]
	gr := graph.Build(res.Root, recs, b.Options)
	res.Path = filepath.Join(outDir, src+FileSuffix)
	if err := topogram.ExportCSV(res.Path, gr); err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("write %s: %w", res.Path, err)
		return res
	}
	res.Status = StatusBuilt
	res.Nodes = gr.NodeCount()
	res.Edges = gr.EdgeCount()
	return res
}
