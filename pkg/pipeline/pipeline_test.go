package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topogram/topokit/pkg/cache"
	"github.com/topogram/topokit/pkg/errors"
	archive "github.com/topogram/topokit/pkg/integrations/debian"
)

const index = `Package: app
Version: 1.0
Section: utils
Description: an application
 with a long description
Depends: libx (>= 1), liby | libz
Recommends: helper

Package: libx
Source: x (1.2-1)
Depends: libc6

Package: liby
Source: y

Package: helper
Depends: libx

Package: libc6
`

type fakeFetcher struct {
	text  string
	err   error
	calls int32
	dists []archive.Dist
	mu    sync.Mutex
}

func (f *fakeFetcher) FetchPackages(_ context.Context, d archive.Dist, _ bool) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.dists = append(f.dists, d)
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeFetcher) Mirror() string { return "http://mirror.test/debian" }

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{})
}

func TestRunnerBuild(t *testing.T) {
	f := &fakeFetcher{text: index}
	r := NewRunner(f, nil, nil, quietLogger())

	res, err := r.Build(context.Background(), Options{Package: "app", MaxDepth: 2, Recommends: true})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if res.CacheHit {
		t.Error("first build should not hit the cache")
	}
	// app, libx, liby, helper, libc6
	if res.Stats.Nodes != 5 {
		t.Errorf("Nodes = %d, want 5", res.Stats.Nodes)
	}
	// app->libx, app->liby, app->helper, libx->libc6, helper->libx
	if res.Stats.Edges != 5 {
		t.Errorf("Edges = %d, want 5", res.Stats.Edges)
	}
	if res.Stats.Records != 5 {
		t.Errorf("Records = %d, want 5", res.Stats.Records)
	}
	if got := f.dists[0]; got != (archive.Dist{}).WithDefaults() {
		t.Errorf("fetched %+v, want default dist", got)
	}
}

func TestRunnerBuildUnknownRoot(t *testing.T) {
	r := NewRunner(&fakeFetcher{text: index}, nil, nil, quietLogger())
	res, err := r.Build(context.Background(), Options{Package: "ghost", MaxDepth: 2})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if res.Stats.Nodes != 1 || res.Stats.Unknown != 1 {
		t.Errorf("Stats = %+v, want one stub node", res.Stats)
	}
}

func TestRunnerBuildInvalidOptions(t *testing.T) {
	r := NewRunner(&fakeFetcher{text: index}, nil, nil, quietLogger())
	tests := []struct {
		name string
		opts Options
	}{
		{"empty package", Options{}},
		{"bad package", Options{Package: "Bad Name"}},
		{"negative depth", Options{Package: "app", MaxDepth: -1}},
		{"bad suite", Options{Package: "app", Dist: archive.Dist{Suite: "../x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Build(context.Background(), tt.opts)
			if errors.GetCode(err) != errors.ErrCodeInvalidInput && errors.GetCode(err) != errors.ErrCodeInvalidPackage {
				t.Errorf("Build() error = %v, want a validation error", err)
			}
		})
	}
}

func TestRunnerBuildFetchError(t *testing.T) {
	fetchErr := errors.New(errors.ErrCodeNetwork, "mirror down")
	r := NewRunner(&fakeFetcher{err: fetchErr}, nil, nil, quietLogger())
	_, err := r.Build(context.Background(), Options{Package: "app"})
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("Build() error = %v, want NETWORK_ERROR", err)
	}
}

func TestRunnerRecordsMemoized(t *testing.T) {
	f := &fakeFetcher{text: index}
	r := NewRunner(f, nil, nil, quietLogger())
	ctx := context.Background()

	for _, pkg := range []string{"app", "libx", "helper"} {
		if _, err := r.Build(ctx, Options{Package: pkg, MaxDepth: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&f.calls); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}

	if _, err := r.Records(ctx, archive.Dist{Suite: "sid"}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Records(ctx, archive.Dist{}, true); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&f.calls); n != 3 {
		t.Errorf("fetch calls = %d, want 3 (new dist and refresh)", n)
	}
}

func TestRunnerRecordsConcurrent(t *testing.T) {
	f := &fakeFetcher{text: index}
	r := NewRunner(f, nil, nil, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := r.Records(context.Background(), archive.Dist{}, false)
			if err != nil || len(recs) != 5 {
				t.Errorf("Records() = %d records, %v", len(recs), err)
			}
		}()
	}
	wg.Wait()
	if n := atomic.LoadInt32(&f.calls); n < 1 || n > 8 {
		t.Errorf("fetch calls = %d", n)
	}
}

// gatedFetcher blocks each fetch until released and fails if the fetch
// context was cancelled meanwhile.
type gatedFetcher struct {
	started chan bool
	release chan struct{}
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan bool, 4), release: make(chan struct{})}
}

func (f *gatedFetcher) FetchPackages(ctx context.Context, _ archive.Dist, refresh bool) (string, error) {
	f.started <- refresh
	<-f.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return index, nil
}

func (*gatedFetcher) Mirror() string { return "http://mirror.test/debian" }

func waitStarted(t *testing.T, f *gatedFetcher) bool {
	t.Helper()
	select {
	case refresh := <-f.started:
		return refresh
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not start")
		return false
	}
}

func TestRunnerRecordsSurvivesCallerCancel(t *testing.T) {
	f := newGatedFetcher()
	r := NewRunner(f, nil, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Records(ctx, archive.Dist{}, false)
		done <- err
	}()
	waitStarted(t, f)
	cancel()
	close(f.release)

	if err := <-done; err != nil {
		t.Fatalf("Records() error after caller cancel: %v", err)
	}
	recs, err := r.Records(context.Background(), archive.Dist{}, false)
	if err != nil || len(recs) != 5 {
		t.Errorf("memoized Records() = %d records, %v", len(recs), err)
	}
}

func TestRunnerRecordsRefreshStartsOwnFetch(t *testing.T) {
	f := newGatedFetcher()
	r := NewRunner(f, nil, nil, quietLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, refresh := range []bool{false, true} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Records(ctx, archive.Dist{}, refresh); err != nil {
				t.Errorf("Records(refresh=%v) error: %v", refresh, err)
			}
		}()
		if got := waitStarted(t, f); got != refresh {
			t.Errorf("fetch started with refresh=%v, want %v", got, refresh)
		}
	}
	close(f.release)
	wg.Wait()
}

func TestRunnerBuildCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	opts := Options{Package: "app", MaxDepth: 2}

	first, err := NewRunner(&fakeFetcher{text: index}, c, nil, quietLogger()).Build(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	// A fresh runner has no memoized records; a hit must not fetch.
	f := &fakeFetcher{text: index}
	second, err := NewRunner(f, c, nil, quietLogger()).Build(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second build should hit the cache")
	}
	if f.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", f.calls)
	}
	if second.Stats.Stats != first.Stats.Stats {
		t.Errorf("cached stats = %+v, want %+v", second.Stats.Stats, first.Stats.Stats)
	}

	opts.MaxDepth = 1
	third, err := NewRunner(f, c, nil, quietLogger()).Build(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("a different depth must not share the cache entry")
	}
}

func TestRunnerRank(t *testing.T) {
	f := &fakeFetcher{text: index}
	r := NewRunner(f, nil, nil, quietLogger())

	ranked, err := r.Rank(context.Background(), archive.Dist{}, 0, false)
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	// x is referenced by app and helper; the rest by one package each.
	if len(ranked) == 0 || ranked[0].Source != "x" || ranked[0].Count != 2 {
		t.Fatalf("Rank() = %+v, want x first with 2", ranked)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Count == ranked[i].Count && ranked[i-1].Source > ranked[i].Source {
			t.Errorf("ties not ordered by name: %+v", ranked)
		}
	}

	top, err := r.Rank(context.Background(), archive.Dist{}, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Errorf("Rank(top=2) returned %d entries", len(top))
	}
}

func TestWriteRanking(t *testing.T) {
	ranked, err := NewRunner(&fakeFetcher{text: index}, nil, nil, quietLogger()).
		Rank(context.Background(), archive.Dist{}, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteRanking(&buf, ranked); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "source_package,count\nx,2\n"; got != want {
		t.Errorf("WriteRanking() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(RankingHeader, ",")) {
		t.Error("missing header")
	}
}
