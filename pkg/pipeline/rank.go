package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/topogram/topokit/pkg/cache"
	"github.com/topogram/topokit/pkg/debian"
	archive "github.com/topogram/topokit/pkg/integrations/debian"
	"github.com/topogram/topokit/pkg/observability"
)

// RankingHeader is the header of a ranking CSV. Batch selections read the
// first column of such a file.
var RankingHeader = []string{"source_package", "count"}

// Rank returns the source packages of index d ordered by how many binary
// packages depend on or recommend one of their binaries. top <= 0 returns
// the full ranking.
func (r *Runner) Rank(ctx context.Context, d archive.Dist, top int, refresh bool) ([]debian.SourceCount, error) {
	d = d.WithDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	key := r.Keyer.RankingKey(r.Fetcher.Mirror(), d.Suite, d.Component, d.Arch)

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var ranked []debian.SourceCount
			if err := json.Unmarshal(data, &ranked); err == nil {
				observability.Cache().OnCacheHit(ctx, "ranking")
				return debian.Top(ranked, top), nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "ranking")
	}

	recs, err := r.Records(ctx, d, refresh)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ranked := debian.RankSources(recs)
	r.Logger.Info("ranked sources",
		"dist", d.String(),
		"sources", len(ranked),
		"duration", time.Since(start))

	if data, err := json.Marshal(ranked); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLRanking); err == nil {
			observability.Cache().OnCacheSet(ctx, "ranking", len(data))
		}
	}
	return debian.Top(ranked, top), nil
}

// WriteRanking writes ranked as CSV with [RankingHeader].
func WriteRanking(w io.Writer, ranked []debian.SourceCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RankingHeader); err != nil {
		return err
	}
	for _, sc := range ranked {
		if err := cw.Write([]string{sc.Source, strconv.Itoa(sc.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
