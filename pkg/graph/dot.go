package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/topogram/topokit/pkg/debian"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Detailed adds the description and notes to node labels.
	Detailed bool
}

var relationStyle = map[debian.Relation]string{
	debian.Depends:    `color="#333333"`,
	debian.Recommends: `color="#1f77b4", style=dashed`,
	debian.Suggests:   `color="#999999", style=dotted`,
}

const dotHeader = `digraph topogram {
  rankdir=LR;
  concentrate=true;
  node [shape=box, style="rounded,filled", fillcolor="#f7f7f7", fontname="Helvetica", fontsize=12];
  edge [arrowsize=0.7];

`

// ToDOT converts g to Graphviz DOT. Stub nodes are drawn dashed and grey;
// edge style encodes the relationship.
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString(dotHeader)

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// edgeAttrs styles e by relationship. A clause with alternatives gets a
// tooltip listing all of them.
func edgeAttrs(e Edge) []string {
	var attrs []string
	if style := relationStyle[e.Relationship]; style != "" {
		attrs = append(attrs, style)
	}
	if len(e.Alternatives) > 0 {
		alts := append([]string{e.Target}, e.Alternatives...)
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", strings.Join(alts, " | ")))
	}
	return attrs
}

func nodeAttrs(n *Node, detailed bool) []string {
	label := n.Label
	if detailed {
		parts := []string{label}
		if n.Description != "" {
			parts = append(parts, n.Description)
		}
		if n.Notes != "" {
			parts = append(parts, n.Notes)
		}
		label = strings.Join(parts, "\n")
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Unknown {
		attrs = append(attrs, `style="rounded,dashed"`, `fontcolor="#777777"`)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse topogram DOT: %w", err)
	}
	defer g.Close()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("start graphviz: %w", err)
	}
	defer gv.Close()

	var svg bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &svg); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return svg.Bytes(), nil
}
