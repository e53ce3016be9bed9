package graph_test

import (
	"fmt"

	"github.com/topogram/topokit/pkg/debian"
	"github.com/topogram/topokit/pkg/graph"
)

func ExampleBuild() {
	recs := debian.ParseRecords(`Package: curl
Depends: libcurl4 (= 7.88.1-10), libc6 (>= 2.34)

Package: libcurl4
Depends: libc6 (>= 2.34), libssl3

Package: libc6
`)
	g := graph.Build("curl", recs, graph.Options{MaxDepth: 1})
	for _, n := range g.Nodes() {
		fmt.Println(n.Depth, n.ID, n.Unknown)
	}
	fmt.Println(g.EdgeCount(), "edges")
	// Output:
	// 0 curl false
	// 1 libcurl4 false
	// 1 libc6 false
	// 2 edges
}
