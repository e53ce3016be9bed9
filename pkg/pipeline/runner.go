package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/topogram/topokit/pkg/cache"
	"github.com/topogram/topokit/pkg/debian"
	"github.com/topogram/topokit/pkg/graph"
	"github.com/topogram/topokit/pkg/observability"
	archive "github.com/topogram/topokit/pkg/integrations/debian"
)

// Fetcher supplies the text of a Packages index.
type Fetcher interface {
	FetchPackages(ctx context.Context, d archive.Dist, refresh bool) (string, error)
	Mirror() string
}

// Runner executes builds with caching.
//
// Parsed records are memoized per index for the lifetime of the Runner, and
// concurrent requests for the same index share one fetch. A Runner is safe
// for concurrent use.
type Runner struct {
	Fetcher Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	mu      sync.Mutex
	records map[archive.Dist]debian.Records
	group   singleflight.Group
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means DefaultKeyer, and a nil logger means the charm default logger.
func NewRunner(f Fetcher, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Runner{
		Fetcher: f,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logOrDefault(logger),
		records: make(map[archive.Dist]debian.Records),
	}
}

// Records returns the parsed records of the index d.
func (r *Runner) Records(ctx context.Context, d archive.Dist, refresh bool) (debian.Records, error) {
	d = d.WithDefaults()
	if !refresh {
		r.mu.Lock()
		recs, ok := r.records[d]
		r.mu.Unlock()
		if ok {
			return recs, nil
		}
	}

	key := d.String()
	if refresh {
		key += "#refresh"
	}
	// The shared fetch must outlive any one caller's cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (any, error) {
		hooks := observability.Pipeline()
		hooks.OnFetchStart(fetchCtx, d.String())
		start := time.Now()
		text, err := r.Fetcher.FetchPackages(fetchCtx, d, refresh)
		if err != nil {
			hooks.OnFetchComplete(fetchCtx, d.String(), 0, time.Since(start), err)
			return nil, err
		}
		recs := debian.ParseRecords(text)
		hooks.OnFetchComplete(fetchCtx, d.String(), len(recs), time.Since(start), nil)
		r.Logger.Info("parsed packages index",
			"dist", d.String(),
			"records", len(recs),
			"duration", time.Since(start))

		r.mu.Lock()
		r.records[d] = recs
		r.mu.Unlock()
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	recs, ok := v.(debian.Records)
	if !ok {
		return nil, fmt.Errorf("unexpected records type %T", v)
	}
	return recs, nil
}

// Build produces the topogram rooted at opts.Package.
//
// A root with no record is not an error: the graph then holds a single stub
// node. Fetch failures are returned unchanged so callers can inspect their
// error code.
func (r *Runner) Build(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	key := r.Keyer.GraphKey(opts.Package, opts.keyOpts(r.Fetcher.Mirror()))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if g, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				r.Logger.Debug("graph cache hit", "package", opts.Package)
				observability.Cache().OnCacheHit(ctx, "graph")
				return &Result{Graph: g, Stats: Stats{Stats: g.Stats()}, CacheHit: true}, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	fetchStart := time.Now()
	recs, err := r.Records(ctx, opts.Dist, opts.Refresh)
	if err != nil {
		return nil, err
	}
	fetchTime := time.Since(fetchStart)

	if _, ok := recs[opts.Package]; !ok {
		r.Logger.Warn("package not in index; graph will hold a stub", "package", opts.Package, "dist", opts.Dist.String())
	}

	buildStart := time.Now()
	g := graph.Build(opts.Package, recs, opts.GraphOptions())
	res := &Result{
		Graph: g,
		Stats: Stats{
			Stats:     g.Stats(),
			Records:   len(recs),
			FetchTime: fetchTime,
			BuildTime: time.Since(buildStart),
		},
	}
	r.Logger.Info("built graph",
		"package", opts.Package,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"unknown", res.Stats.Unknown,
		"duration", res.Stats.BuildTime)
	observability.Pipeline().OnBuildComplete(ctx, opts.Package, res.Stats.Nodes, res.Stats.Edges, res.Stats.BuildTime)

	if data, err := graph.MarshalGraph(g); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLGraph); err != nil {
			r.Logger.Debug("graph cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}
	return res, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
