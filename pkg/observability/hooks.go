// Package observability lets an application watch index fetches, graph
// builds, cache traffic and folder imports.
//
// Each concern has a hook interface whose default does nothing. The
// application registers a value once at startup; [Register] installs it for
// every hook interface it implements:
//
//	counters := observability.NewCounters()
//	observability.Register(counters)
//
// Code that does the work reports through the current hooks:
//
//	observability.Pipeline().OnFetchStart(ctx, dist)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from the build pipeline.
type PipelineHooks interface {
	OnFetchStart(ctx context.Context, dist string)
	OnFetchComplete(ctx context.Context, dist string, records int, duration time.Duration, err error)
	OnBuildComplete(ctx context.Context, pkg string, nodes, edges int, duration time.Duration)
}

// CacheHooks receives events from cache lookups. keyType is "graph" or
// "ranking".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from mirror requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure (no response).
	OnError(ctx context.Context, method, host, path string, err error)
}

// ImportHooks receives events from folder imports.
type ImportHooks interface {
	OnFileImported(ctx context.Context, path, status string, nodes, edges int)
	OnImportComplete(ctx context.Context, folder string, files, failed int, duration time.Duration)
}

// Noop hook sets, installed until something is registered.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnFetchStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnFetchComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, string, int, int, time.Duration)   {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

type NoopImportHooks struct{}

func (NoopImportHooks) OnFileImported(context.Context, string, string, int, int)          {}
func (NoopImportHooks) OnImportComplete(context.Context, string, int, int, time.Duration) {}

type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
	imports  ImportHooks
}

var (
	current    atomic.Pointer[hookSet]
	registerMu sync.Mutex
)

func init() { Reset() }

// Register installs h for each hook interface it implements and leaves the
// others as they are. Register(nil) is a no-op.
func Register(h any) {
	if h == nil {
		return
	}
	registerMu.Lock()
	defer registerMu.Unlock()
	next := *current.Load()
	if p, ok := h.(PipelineHooks); ok {
		next.pipeline = p
	}
	if c, ok := h.(CacheHooks); ok {
		next.cache = c
	}
	if x, ok := h.(HTTPHooks); ok {
		next.http = x
	}
	if i, ok := h.(ImportHooks); ok {
		next.imports = i
	}
	current.Store(&next)
}

// Reset restores the no-op hooks.
func Reset() {
	registerMu.Lock()
	defer registerMu.Unlock()
	current.Store(&hookSet{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
		imports:  NoopImportHooks{},
	})
}

func Pipeline() PipelineHooks { return current.Load().pipeline }
func Cache() CacheHooks       { return current.Load().cache }
func HTTP() HTTPHooks         { return current.Load().http }
func Import() ImportHooks     { return current.Load().imports }
