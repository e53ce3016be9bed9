package topogram

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/topogram/topokit/pkg/graph"
)

// Columns is the fixed topogram CSV layout.
var Columns = []string{
	"id", "name", "label", "description", "color", "fillColor", "weight",
	"rawWeight", "lat", "lng", "emoji", "notes", "source", "target",
	"edgeLabel", "edgeColor", "edgeWeight", "relationship", "extra",
}

// Column positions within Columns.
const (
	colID = iota
	colName
	colLabel
	colDescription
	colColor
	colFillColor
	colWeight
	colRawWeight
	colLat
	colLng
	colEmoji
	colNotes
	colSource
	colTarget
	colEdgeLabel
	colEdgeColor
	colEdgeWeight
	colRelationship
	colExtra
	numColumns
)

// DefaultEdgeColor is written into the edgeColor column of every edge row.
const DefaultEdgeColor = "#333"

// WriteCSV writes g as a topogram CSV: the header row, one row per node
// and one row per edge.
func WriteCSV(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, Columns); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		if err := writeRow(bw, nodeRow(n)); err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if err := writeRow(bw, edgeRow(e)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportCSV writes g to path, creating parent directories as needed.
func ExportCSV(path string, g *graph.Graph) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nodeRow(n *graph.Node) []string {
	row := make([]string, numColumns)
	row[colID] = n.ID
	row[colName] = n.Name
	row[colLabel] = n.Label
	row[colDescription] = n.Description
	row[colWeight] = "1"
	row[colRawWeight] = "1"
	row[colNotes] = n.Notes
	return row
}

func edgeRow(e graph.Edge) []string {
	rel := string(e.Relationship)
	row := make([]string, numColumns)
	row[colSource] = e.Source
	row[colTarget] = e.Target
	row[colEdgeLabel] = rel
	row[colEdgeColor] = DefaultEdgeColor
	row[colEdgeWeight] = "1"
	row[colRelationship] = rel
	return row
}

// writeRow quotes every field. encoding/csv only quotes when needed, and
// consumers of the topogram layout expect uniform quoting.
func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	_, err := w.WriteString("\n")
	return err
}
