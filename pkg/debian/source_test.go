package debian

import (
	"reflect"
	"testing"
)

func TestSourceName(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{FieldPackage: "libcurl4", FieldSource: "curl"}, "curl"},
		{Record{FieldPackage: "libc6", FieldSource: "glibc (2.36-9)"}, "glibc"},
		{Record{FieldPackage: "curl"}, "curl"},
		{Record{FieldPackage: "x", FieldSource: "   "}, "x"},
	}
	for _, tt := range tests {
		if got := SourceName(tt.rec); got != tt.want {
			t.Errorf("SourceName(%v) = %q, want %q", tt.rec, got, tt.want)
		}
	}
}

func TestBinariesBySource(t *testing.T) {
	recs := ParseRecords(samplePackages)
	got := BinariesBySource(recs)
	want := map[string][]string{
		"curl":  {"curl", "libcurl4"},
		"glibc": {"libc6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BinariesBySource = %v, want %v", got, want)
	}
}

func TestRankSources_TieBreakByName(t *testing.T) {
	recs := Records{}
	add := func(name, depends string) {
		recs[name] = Record{FieldPackage: name, FieldDepends: depends}
	}
	// pkgC: 5 referrers, pkgA and pkgB: 3 each.
	add("u1", "pkgC, pkgA, pkgB")
	add("u2", "pkgC, pkgA, pkgB")
	add("u3", "pkgC, pkgA, pkgB")
	add("u4", "pkgC")
	add("u5", "pkgC")

	got := RankSources(recs, Depends)
	want := []SourceCount{{"pkgC", 5}, {"pkgA", 3}, {"pkgB", 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankSources = %v, want %v", got, want)
	}
}

func TestRankSources_CountsDistinctReferrers(t *testing.T) {
	recs := Records{
		"app":      {FieldPackage: "app", FieldDepends: "libcurl4, libcurl4 (>= 7)", FieldRecommends: "curl"},
		"curl":     {FieldPackage: "curl", FieldDepends: "libcurl4"},
		"libcurl4": {FieldPackage: "libcurl4", FieldSource: "curl (7.88)"},
	}

	// app references libcurl4 twice but counts once for it, and once more
	// for curl itself.
	got := RankSources(recs)
	want := []SourceCount{{"curl", 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankSources = %v, want %v", got, want)
	}
}

func TestRankSources_SumsBinariesOfOneSource(t *testing.T) {
	recs := ParseRecords("Package: app\nDepends: libfoo1, libfoo-dev\n\n" +
		"Package: libfoo1\nSource: foo\n\n" +
		"Package: libfoo-dev\nSource: foo\n")

	got := RankSources(recs)
	want := []SourceCount{{"foo", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankSources = %v, want %v", got, want)
	}
}

func TestRankSources_UnknownDependencyAttributedToItself(t *testing.T) {
	recs := Records{"a": {FieldPackage: "a", FieldDepends: "ghost"}}
	got := RankSources(recs)
	if len(got) != 1 || got[0] != (SourceCount{"ghost", 1}) {
		t.Errorf("RankSources = %v", got)
	}
}

func TestRankSources_RelationFilter(t *testing.T) {
	recs := Records{"a": {FieldPackage: "a", FieldSuggests: "b"}}
	if got := RankSources(recs); len(got) != 0 {
		t.Errorf("Suggests counted by default: %v", got)
	}
	if got := RankSources(recs, Suggests); len(got) != 1 {
		t.Errorf("Suggests not counted when requested: %v", got)
	}
}

func TestTop(t *testing.T) {
	r := []SourceCount{{"a", 3}, {"b", 2}, {"c", 1}}
	if got := Top(r, 2); len(got) != 2 {
		t.Errorf("Top(2) len = %d", len(got))
	}
	if got := Top(r, 0); len(got) != 3 {
		t.Errorf("Top(0) len = %d", len(got))
	}
	if got := Top(r, 10); len(got) != 3 {
		t.Errorf("Top(10) len = %d", len(got))
	}
}
