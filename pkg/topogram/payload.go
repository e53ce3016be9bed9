package topogram

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// SourceImportedFolder marks topograms created by folder ingestion.
const SourceImportedFolder = "imported-folder"

// Document is the parent record one imported file becomes.
type Document struct {
	ID         string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Title      string    `json:"title" bson:"title"`
	Source     string    `json:"source" bson:"source"`
	Folder     string    `json:"folder" bson:"folder"`
	SourceFile string    `json:"sourceFile,omitempty" bson:"sourceFile,omitempty"`
	SourceHash string    `json:"sourceHash,omitempty" bson:"sourceHash,omitempty"`
	ImportRun  string    `json:"importRun,omitempty" bson:"importRun,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// NodeDocument is a node as stored: all fields live under "data".
type NodeDocument struct {
	Data map[string]any `json:"data" bson:"data"`
}

// EdgeDocument is an edge as stored: all fields live under "data".
type EdgeDocument struct {
	Data map[string]any `json:"data" bson:"data"`
}

// Payload converts n into its stored shape. Optional fields are omitted
// when empty.
func (n NodeRecord) Payload() NodeDocument {
	n.Normalize()
	data := map[string]any{
		"id":    n.ID,
		"title": n.Title,
		"label": n.Label,
	}
	putOptional(data, "emoji", n.Emoji)
	putOptional(data, "color", n.Color)
	putOptional(data, "weight", n.Weight)
	if n.Raw != nil {
		data["raw"] = n.Raw
	}
	return NodeDocument{Data: data}
}

// Payload converts e into its stored shape with edge defaults applied.
func (e EdgeRecord) Payload() EdgeDocument {
	e.Normalize()
	data := map[string]any{
		"source":       e.Source,
		"target":       e.Target,
		"enlightement": e.Enlightement,
	}
	putOptional(data, "name", e.Name)
	putOptional(data, "label", e.Label)
	putOptional(data, "color", e.Color)
	putOptional(data, "weight", e.Weight)
	putOptional(data, "relationship", e.Relationship)
	putOptional(data, "relationshipEmoji", e.RelationshipEmoji)
	if e.Raw != nil {
		data["raw"] = e.Raw
	}
	return EdgeDocument{Data: data}
}

// Payloads converts every record in f.
func (f *File) Payloads() ([]NodeDocument, []EdgeDocument) {
	nodes := make([]NodeDocument, len(f.Nodes))
	for i, n := range f.Nodes {
		nodes[i] = n.Payload()
	}
	edges := make([]EdgeDocument, len(f.Edges))
	for i, e := range f.Edges {
		edges[i] = e.Payload()
	}
	return nodes, edges
}

func putOptional(data map[string]any, key, value string) {
	if value != "" {
		data[key] = value
	}
}

// TitleFromPath returns the document title for a source file: its base
// name, extensions included.
func TitleFromPath(path string) string {
	return filepath.Base(path)
}

// DeriveFolderLabel turns a directory path into a folder label:
// "debian_topograms-2024" becomes "Debian Topograms 2024". An empty result
// falls back to "Imported".
func DeriveFolderLabel(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	if len(words) == 0 {
		return "Imported"
	}
	return strings.Join(words, " ")
}
