package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// document is the JSON shape of a Graph: nodes in visit order, edges in
// emission order.
type document struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// MarshalGraph converts g to JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes g as indented JSON.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	doc := document{Nodes: g.Nodes(), Edges: g.Edges()}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes a graph written by [WriteGraph]. Nodes repeating an
// earlier ID are ignored, as with [Graph.AddNode].
func ReadGraph(r io.Reader) (*Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := New()
	for _, n := range doc.Nodes {
		if n == nil || n.ID == "" {
			return nil, fmt.Errorf("decode: node without id")
		}
		g.AddNode(*n)
	}
	for _, e := range doc.Edges {
		if _, ok := g.Node(e.Source); !ok {
			return nil, fmt.Errorf("decode: edge source %q is not a node", e.Source)
		}
		g.AddEdge(e)
	}
	return g, nil
}
