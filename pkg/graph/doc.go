// Package graph builds bounded package dependency graphs.
//
// # Model
//
// A [Graph] holds [Node] values keyed by identifier, in the order they were
// first visited, and an ordered list of [Edge] values. Each edge carries the
// [debian.Relation] it was derived from (Depends, Recommends or Suggests).
//
// # Building
//
// [Build] performs a breadth-first traversal from a root package over a set of
// [debian.Records]:
//
//	recs := debian.ParseRecords(packagesText)
//	g := graph.Build("curl", recs, graph.Options{MaxDepth: 2})
//	fmt.Println(g.NodeCount(), g.EdgeCount())
//
// Every identifier is visited at most once. A node first reached at depth
// MaxDepth is part of the graph but its dependencies are not followed.
// Identifiers with no record become stub nodes flagged [Node.Unknown].
//
// Edges are not deduplicated: an edge is recorded each time an expanded node
// lists a dependency, including dependencies on nodes that were already seen.
//
// # Rendering
//
// [ToDOT] converts a graph to Graphviz DOT and [RenderSVG] renders DOT to SVG
// with the embedded Graphviz from go-graphviz.
package graph
