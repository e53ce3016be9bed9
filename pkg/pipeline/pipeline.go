// Package pipeline turns a package name into a topogram.
//
// The pipeline has three stages:
//
//  1. Fetch: download the Packages index for a suite/component/arch
//  2. Parse: split the index into records, memoized per index
//  3. Build: traverse the records breadth-first from the root package
//
// Built graphs are cached under a key covering every option that changes
// them, so the CLI, the batch builder and the server share results.
//
//	runner := pipeline.NewRunner(client, c, nil, logger)
//	res, err := runner.Build(ctx, pipeline.Options{Package: "curl", MaxDepth: 2})
//	if err != nil {
//	    return err
//	}
//	topogram.WriteCSV(os.Stdout, res.Graph)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/topogram/topokit/pkg/cache"
	"github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/graph"
	"github.com/topogram/topokit/pkg/integrations/debian"
)

// Options configures a single build.
type Options struct {
	Package    string      `json:"package"`
	Dist       debian.Dist `json:"dist"`
	MaxDepth   int         `json:"max_depth"`
	Recommends bool        `json:"recommends,omitempty"`
	Suggests   bool        `json:"suggests,omitempty"`

	// Refresh bypasses every cache, including the memoized records.
	Refresh bool `json:"-"`
}

// Validate checks the package name and index coordinates, filling in
// default coordinates.
func (o *Options) Validate() error {
	if err := errors.ValidateDebianPackageName(o.Package); err != nil {
		return err
	}
	if o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "depth must not be negative")
	}
	o.Dist = o.Dist.WithDefaults()
	return o.Dist.Validate()
}

// GraphOptions returns the traversal options.
func (o Options) GraphOptions() graph.Options {
	return graph.Options{
		MaxDepth:   o.MaxDepth,
		Recommends: o.Recommends,
		Suggests:   o.Suggests,
	}
}

// keyOpts returns the cache key options for a build against mirror.
func (o Options) keyOpts(mirror string) cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Mirror:     mirror,
		Suite:      o.Dist.Suite,
		Component:  o.Dist.Component,
		Arch:       o.Dist.Arch,
		MaxDepth:   o.MaxDepth,
		Recommends: o.Recommends,
		Suggests:   o.Suggests,
	}
}

// Result holds a built graph and how it was obtained.
type Result struct {
	Graph    *graph.Graph
	Stats    Stats
	CacheHit bool
}

// Stats records sizes and stage timings of a build.
type Stats struct {
	graph.Stats
	Records   int           `json:"records"`
	FetchTime time.Duration `json:"fetch_time"`
	BuildTime time.Duration `json:"build_time"`
}

// logOrDefault returns l, or the charm default logger when l is nil.
func logOrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
