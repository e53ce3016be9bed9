package graph

import (
	"fmt"
	"strings"
	"testing"

	"github.com/topogram/topokit/pkg/debian"
)

func chain(n int) debian.Records {
	recs := debian.Records{}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("p%d", i)
		r := debian.Record{debian.FieldPackage: name, debian.FieldVersion: "1.0", debian.FieldSection: "libs"}
		if i+1 < n {
			r[debian.FieldDepends] = fmt.Sprintf("p%d (>= 1)", i+1)
		}
		recs[name] = r
	}
	return recs
}

func TestBuild_DepthBound(t *testing.T) {
	recs := chain(6)
	for depth := 0; depth <= 6; depth++ {
		t.Run(fmt.Sprintf("depth=%d", depth), func(t *testing.T) {
			g := Build("p0", recs, Options{MaxDepth: depth})
			wantNodes := min(depth+1, 6)
			if g.NodeCount() != wantNodes {
				t.Errorf("NodeCount = %d, want %d", g.NodeCount(), wantNodes)
			}
			for _, n := range g.Nodes() {
				if n.Depth > depth {
					t.Errorf("node %s at depth %d beyond max %d", n.ID, n.Depth, depth)
				}
			}
			for _, e := range g.Edges() {
				src, _ := g.Node(e.Source)
				if src.Depth >= depth {
					t.Errorf("node %s at depth %d was expanded (max %d)", src.ID, src.Depth, depth)
				}
			}
		})
	}
}

func TestBuild_NegativeDepthIsZero(t *testing.T) {
	g := Build("p0", chain(3), Options{MaxDepth: -4})
	if g.NodeCount() != 1 || g.EdgeCount() != 0 {
		t.Errorf("got %d nodes, %d edges; want 1, 0", g.NodeCount(), g.EdgeCount())
	}
}

func TestBuild_StubNodes(t *testing.T) {
	recs := debian.Records{
		"app": {debian.FieldPackage: "app", debian.FieldDepends: "ghost, libc6"},
	}
	g := Build("app", recs, Options{MaxDepth: 3})

	ghost, ok := g.Node("ghost")
	if !ok {
		t.Fatal("missing stub node")
	}
	if !ghost.Unknown || ghost.Notes != UnknownNotes || ghost.Description != UnknownDescription {
		t.Errorf("stub node = %+v", ghost)
	}
	if ghost.Label != "ghost" || ghost.Name != "ghost" {
		t.Errorf("stub label/name = %q/%q", ghost.Label, ghost.Name)
	}
	if s := g.Stats(); s.Unknown != 2 || s.Nodes != 3 || s.Edges != 2 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestBuild_UnknownRoot(t *testing.T) {
	g := Build("nope", debian.Records{}, Options{MaxDepth: 2})
	if g.NodeCount() != 1 || g.EdgeCount() != 0 {
		t.Fatalf("got %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	if n, _ := g.Node("nope"); !n.Unknown {
		t.Error("root should be a stub")
	}
}

func TestBuild_NodeFields(t *testing.T) {
	recs := debian.Records{
		"curl": {
			debian.FieldPackage:     "curl",
			debian.FieldVersion:     "7.88",
			debian.FieldSection:     "web",
			debian.FieldDescription: "command line tool\n more text\n .",
		},
	}
	n, _ := Build("curl", recs, Options{}).Node("curl")
	if n.Description != "command line tool" {
		t.Errorf("Description = %q", n.Description)
	}
	if n.Notes != "Section=web; Version=7.88" {
		t.Errorf("Notes = %q", n.Notes)
	}
	if n.Unknown {
		t.Error("known package flagged unknown")
	}
}

func TestBuild_VisitsOnceAndKeepsDuplicateEdges(t *testing.T) {
	// a -> b, c; b -> c; c -> a (cycle); a lists b twice.
	recs := debian.Records{
		"a": {debian.FieldPackage: "a", debian.FieldDepends: "b, c, b"},
		"b": {debian.FieldPackage: "b", debian.FieldDepends: "c"},
		"c": {debian.FieldPackage: "c", debian.FieldDepends: "a"},
	}
	g := Build("a", recs, Options{MaxDepth: 10})

	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("visit order = %v", ids)
	}
	// a: 3 edges (b twice), b: 1, c: 1.
	if g.EdgeCount() != 5 {
		t.Errorf("EdgeCount = %d, want 5", g.EdgeCount())
	}
	for _, e := range g.Edges() {
		if _, ok := g.Node(e.Source); !ok {
			t.Errorf("edge source %s not in node map", e.Source)
		}
	}
}

func TestBuild_OptionalRelations(t *testing.T) {
	recs := debian.Records{
		"a": {
			debian.FieldPackage:    "a",
			debian.FieldDepends:    "d",
			debian.FieldRecommends: "r",
			debian.FieldSuggests:   "s",
		},
	}

	tests := []struct {
		opts Options
		want []string
	}{
		{Options{MaxDepth: 1}, []string{"d/Depends"}},
		{Options{MaxDepth: 1, Recommends: true}, []string{"d/Depends", "r/Recommends"}},
		{Options{MaxDepth: 1, Recommends: true, Suggests: true}, []string{"d/Depends", "r/Recommends", "s/Suggests"}},
		{Options{MaxDepth: 1, Suggests: true}, []string{"d/Depends", "s/Suggests"}},
	}
	for _, tt := range tests {
		g := Build("a", recs, tt.opts)
		var got []string
		for _, e := range g.Edges() {
			got = append(got, e.Target+"/"+string(e.Relationship))
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("opts %+v: edges = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestBuild_NodeCountMatchesVisited(t *testing.T) {
	recs := debian.Records{}
	// A small diamond-rich lattice.
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("n%d", i)
		recs[name] = debian.Record{
			debian.FieldPackage: name,
			debian.FieldDepends: fmt.Sprintf("n%d, n%d | x, n%d", (i+1)%20, (i+3)%20, (i*7)%20),
		}
	}
	g := Build("n0", recs, Options{MaxDepth: 4})
	seen := map[string]bool{}
	for _, n := range g.Nodes() {
		if seen[n.ID] {
			t.Fatalf("node %s listed twice", n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range g.Edges() {
		if !seen[e.Target] {
			t.Errorf("edge target %s never visited", e.Target)
		}
	}
}

func TestToDOT(t *testing.T) {
	recs := debian.Records{"a": {debian.FieldPackage: "a", debian.FieldDepends: "b", debian.FieldRecommends: "c"}}
	g := Build("a", recs, Options{MaxDepth: 1, Recommends: true})
	dot := ToDOT(g, DOTOptions{})

	for _, want := range []string{
		`"a" [label="a"];`,
		`"b" [label="b", style="rounded,dashed"`,
		`"a" -> "b" [color="#333333"];`,
		`"a" -> "c" [color="#1f77b4", style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestBuild_KeepsFirstAlternative(t *testing.T) {
	recs := debian.Records{"a": {debian.FieldPackage: "a", debian.FieldDepends: "mta | exim4 (>= 4) | postfix, b"}}
	g := Build("a", recs, Options{MaxDepth: 1})

	edges := g.Edges()
	if len(edges) != 2 {
		t.Fatalf("edges = %+v, want 2", edges)
	}
	if edges[0].Target != "mta" || strings.Join(edges[0].Alternatives, ",") != "exim4,postfix" {
		t.Errorf("edge = %+v, want mta with exim4,postfix as alternatives", edges[0])
	}
	if edges[1].Alternatives != nil {
		t.Errorf("single-choice clause has alternatives %q", edges[1].Alternatives)
	}
	if _, ok := g.Node("exim4"); ok {
		t.Error("alternative was followed")
	}

	dot := ToDOT(g, DOTOptions{})
	if want := `"a" -> "mta" [color="#333333", tooltip="mta | exim4 | postfix"];`; !strings.Contains(dot, want) {
		t.Errorf("DOT missing %q\n%s", want, dot)
	}
	if want := `"a" -> "b" [color="#333333"];`; !strings.Contains(dot, want) {
		t.Errorf("DOT missing %q\n%s", want, dot)
	}
}
