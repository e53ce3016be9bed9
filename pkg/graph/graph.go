package graph

import (
	"slices"

	"github.com/topogram/topokit/pkg/debian"
)

// Notes recorded on stub nodes.
const (
	UnknownDescription = "unknown"
	UnknownNotes       = "missing in Packages file"
)

// Node is a package in the graph.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"` // first line only
	Notes       string `json:"notes,omitempty"`
	Unknown     bool   `json:"unknown,omitempty"` // referenced but absent from the records
	Depth       int    `json:"depth"`             // BFS layer at which the node was visited
}

// Edge is a dependency of Source on Target.
type Edge struct {
	Source       string          `json:"source"`
	Target       string          `json:"target"`
	Relationship debian.Relation `json:"relationship"`
	// Alternatives lists the other "|" choices of the clause. Only Target
	// is followed.
	Alternatives []string `json:"alternatives,omitempty"`
}

// Graph is a set of nodes keyed by ID plus an ordered edge list.
//
// The zero value is not usable; use [New].
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode adds n unless a node with the same ID exists. It reports whether
// the node was added; an existing node is never overwritten.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return true
}

// AddEdge appends e. Duplicate edges are kept.
func (g *Graph) AddEdge(e Edge) { g.edges = append(g.edges, e) }

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns nodes in visit order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns a copy of the edge list in emission order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Stats summarizes a graph.
type Stats struct {
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Unknown  int `json:"unknown"`
	MaxDepth int `json:"max_depth"`
}

// Stats counts nodes, edges and stub nodes.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.order), Edges: len(g.edges)}
	for _, n := range g.nodes {
		if n.Unknown {
			s.Unknown++
		}
		s.MaxDepth = max(s.MaxDepth, n.Depth)
	}
	return s
}
