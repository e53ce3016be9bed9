package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters implements every hook interface with atomic counters. The serve
// command registers one and exposes its [Counters.Snapshot].
type Counters struct {
	fetches       atomic.Int64
	fetchErrors   atomic.Int64
	records       atomic.Int64
	builds        atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	cacheBytes    atomic.Int64
	requests      atomic.Int64
	requestErrors atomic.Int64
	filesImported atomic.Int64
	filesFailed   atomic.Int64
	imports       atomic.Int64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters { return &Counters{} }

// Snapshot is a point-in-time copy of [Counters].
type Snapshot struct {
	Fetches       int64 `json:"fetches"`
	FetchErrors   int64 `json:"fetch_errors"`
	Records       int64 `json:"records"`
	Builds        int64 `json:"builds"`
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	CacheBytes    int64 `json:"cache_bytes"`
	Requests      int64 `json:"mirror_requests"`
	RequestErrors int64 `json:"mirror_errors"`
	FilesImported int64 `json:"files_imported"`
	FilesFailed   int64 `json:"files_failed"`
	Imports       int64 `json:"imports"`
}

// Snapshot returns the current values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Fetches:       c.fetches.Load(),
		FetchErrors:   c.fetchErrors.Load(),
		Records:       c.records.Load(),
		Builds:        c.builds.Load(),
		CacheHits:     c.cacheHits.Load(),
		CacheMisses:   c.cacheMisses.Load(),
		CacheBytes:    c.cacheBytes.Load(),
		Requests:      c.requests.Load(),
		RequestErrors: c.requestErrors.Load(),
		FilesImported: c.filesImported.Load(),
		FilesFailed:   c.filesFailed.Load(),
		Imports:       c.imports.Load(),
	}
}

func (c *Counters) OnFetchStart(context.Context, string) {}

func (c *Counters) OnFetchComplete(_ context.Context, _ string, records int, _ time.Duration, err error) {
	c.fetches.Add(1)
	if err != nil {
		c.fetchErrors.Add(1)
		return
	}
	c.records.Add(int64(records))
}

func (c *Counters) OnBuildComplete(context.Context, string, int, int, time.Duration) {
	c.builds.Add(1)
}

func (c *Counters) OnCacheHit(context.Context, string)  { c.cacheHits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string) { c.cacheMisses.Add(1) }

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.cacheBytes.Add(int64(size))
}

func (c *Counters) OnRequest(context.Context, string, string, string) { c.requests.Add(1) }

func (c *Counters) OnResponse(context.Context, string, string, string, int, time.Duration) {}

func (c *Counters) OnError(context.Context, string, string, string, error) {
	c.requestErrors.Add(1)
}

func (c *Counters) OnFileImported(_ context.Context, _ string, status string, _, _ int) {
	if status == "failed" {
		c.filesFailed.Add(1)
		return
	}
	c.filesImported.Add(1)
}

func (c *Counters) OnImportComplete(context.Context, string, int, int, time.Duration) {
	c.imports.Add(1)
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
	_ HTTPHooks     = (*Counters)(nil)
	_ ImportHooks   = (*Counters)(nil)
)
