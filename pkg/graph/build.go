package graph

import (
	"fmt"
	"strings"

	"github.com/topogram/topokit/pkg/debian"
)

// DefaultMaxDepth is the traversal depth used when none is configured.
const DefaultMaxDepth = 2

// Options configures [Build].
type Options struct {
	// MaxDepth is the number of relation hops followed from the root.
	// Zero yields only the root node; negative values are treated as zero.
	MaxDepth int
	// Recommends and Suggests enable the optional relations. Depends is
	// always followed.
	Recommends bool
	Suggests   bool
}

// Relations returns the relations followed, in expansion order.
func (o Options) Relations() []debian.Relation {
	rels := []debian.Relation{debian.Depends}
	if o.Recommends {
		rels = append(rels, debian.Recommends)
	}
	if o.Suggests {
		rels = append(rels, debian.Suggests)
	}
	return rels
}

type item struct {
	id    string
	depth int
}

// Build traverses recs breadth-first from root and returns the visited graph.
// It has no failure modes: identifiers without a record become stub nodes.
func Build(root string, recs debian.Records, opts Options) *Graph {
	maxDepth := max(opts.MaxDepth, 0)
	rels := opts.Relations()

	g := New()
	visited := make(map[string]bool)
	queue := []item{{id: root}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		rec, ok := recs[cur.id]
		if !ok {
			g.AddNode(stubNode(cur.id, cur.depth))
			continue
		}
		g.AddNode(packageNode(cur.id, rec, cur.depth))
		if cur.depth >= maxDepth {
			continue
		}
		for _, rel := range rels {
			for _, alts := range debian.ExpandAlternatives(rec[string(rel)]) {
				e := Edge{Source: cur.id, Target: alts[0], Relationship: rel}
				if len(alts) > 1 {
					e.Alternatives = alts[1:]
				}
				g.AddEdge(e)
				queue = append(queue, item{id: alts[0], depth: cur.depth + 1})
			}
		}
	}
	return g
}

func stubNode(id string, depth int) Node {
	return Node{
		ID:          id,
		Name:        id,
		Label:       id,
		Description: UnknownDescription,
		Notes:       UnknownNotes,
		Unknown:     true,
		Depth:       depth,
	}
}

func packageNode(id string, rec debian.Record, depth int) Node {
	name := rec[debian.FieldPackage]
	if name == "" {
		name = id
	}
	desc, _, _ := strings.Cut(rec[debian.FieldDescription], "\n")
	return Node{
		ID:          id,
		Name:        name,
		Label:       name,
		Description: desc,
		Notes:       fmt.Sprintf("Section=%s; Version=%s", rec[debian.FieldSection], rec[debian.FieldVersion]),
		Depth:       depth,
	}
}
