package debian

import (
	"cmp"
	"slices"
	"strings"
)

// SourceName returns the source package that builds r: the first
// whitespace-separated token of its Source field (which may carry a version
// in parentheses), or the binary name when Source is absent.
func SourceName(r Record) string {
	if f := strings.Fields(r[FieldSource]); len(f) > 0 {
		return f[0]
	}
	return r[FieldPackage]
}

// SourceIndex maps every binary package in recs to its source package.
func SourceIndex(recs Records) map[string]string {
	idx := make(map[string]string, len(recs))
	for name, r := range recs {
		idx[name] = SourceName(r)
	}
	return idx
}

// BinariesBySource groups binary packages by source package. Each list is
// sorted so the representative binary of a source is stable across runs.
func BinariesBySource(recs Records) map[string][]string {
	out := make(map[string][]string)
	for name, r := range recs {
		src := SourceName(r)
		out[src] = append(out[src], name)
	}
	for _, bins := range out {
		slices.Sort(bins)
	}
	return out
}

// SourceCount is one entry of a reverse-dependency ranking.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// DefaultRankRelations are the relations counted by [RankSources] when none
// are given.
var DefaultRankRelations = []Relation{Depends, Recommends}

// RankSources credits each dependency token's distinct referrers to the
// token's source package, summed over tokens. A binary that depends on two
// binaries of one source therefore counts twice toward that source.
// Dependency names with no record are attributed to themselves. The result is
// ordered by count descending, then by source name ascending.
func RankSources(recs Records, relations ...Relation) []SourceCount {
	if len(relations) == 0 {
		relations = DefaultRankRelations
	}
	referrers := make(map[string]map[string]struct{})
	for bin, r := range recs {
		for _, rel := range relations {
			for _, dep := range ExpandDepends(r[string(rel)]) {
				set := referrers[dep]
				if set == nil {
					set = make(map[string]struct{})
					referrers[dep] = set
				}
				set[bin] = struct{}{}
			}
		}
	}

	idx := SourceIndex(recs)
	counts := make(map[string]int)
	for dep, set := range referrers {
		src, ok := idx[dep]
		if !ok {
			src = dep
		}
		counts[src] += len(set)
	}

	ranked := make([]SourceCount, 0, len(counts))
	for src, n := range counts {
		ranked = append(ranked, SourceCount{Source: src, Count: n})
	}
	SortRanking(ranked)
	return ranked
}

// SortRanking orders counts by Count descending, then Source ascending.
func SortRanking(ranked []SourceCount) {
	slices.SortFunc(ranked, func(a, b SourceCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Source, b.Source)
	})
}

// Top returns at most n leading entries. n <= 0 returns all of them.
func Top(ranked []SourceCount, n int) []SourceCount {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
