package topogram

// DefaultEnlightement is the arrow style given to edges that do not carry one.
const DefaultEnlightement = "arrow"

// NodeRecord is one node row read from a topogram file.
type NodeRecord struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Label  string   `json:"label"`
	Emoji  string   `json:"emoji,omitempty"`
	Color  string   `json:"color,omitempty"`
	Weight string   `json:"weight,omitempty"`
	Raw    []string `json:"raw,omitempty"`
}

// Normalize fills Title from ID and Label from Title when they are empty.
// A record with a title but no ID uses the title as its ID.
func (n *NodeRecord) Normalize() {
	if n.ID == "" {
		n.ID = n.Title
	}
	if n.Title == "" {
		n.Title = n.ID
	}
	if n.Label == "" {
		n.Label = n.Title
	}
}

// EdgeRecord is one edge row read from a topogram file.
//
// Enlightement keeps its historical spelling; it is the stored key.
type EdgeRecord struct {
	Source            string   `json:"source"`
	Target            string   `json:"target"`
	Name              string   `json:"name,omitempty"`
	Label             string   `json:"label,omitempty"`
	Color             string   `json:"color,omitempty"`
	Weight            string   `json:"weight,omitempty"`
	Relationship      string   `json:"relationship,omitempty"`
	RelationshipEmoji string   `json:"relationshipEmoji,omitempty"`
	Enlightement      string   `json:"enlightement"`
	Raw               []string `json:"raw,omitempty"`
}

// Normalize applies edge defaults: Label falls back to Name, then to
// Relationship, and Enlightement falls back to DefaultEnlightement.
func (e *EdgeRecord) Normalize() {
	if e.Label == "" {
		if e.Name != "" {
			e.Label = e.Name
		} else {
			e.Label = e.Relationship
		}
	}
	if e.Enlightement == "" {
		e.Enlightement = DefaultEnlightement
	}
}

// File is the result of reading one topogram source.
type File struct {
	Format Format       `json:"format"`
	Nodes  []NodeRecord `json:"nodes"`
	Edges  []EdgeRecord `json:"edges"`

	// Skipped counts non-blank rows that could not be turned into a record
	// (no identifier, or an edge with neither endpoint).
	Skipped int `json:"skipped,omitempty"`
}

// Empty reports whether the file produced no records.
func (f *File) Empty() bool {
	return len(f.Nodes) == 0 && len(f.Edges) == 0
}

func (f *File) addNode(n NodeRecord) {
	n.Normalize()
	if n.ID == "" {
		f.Skipped++
		return
	}
	f.Nodes = append(f.Nodes, n)
}

func (f *File) addEdge(e EdgeRecord) {
	if e.Source == "" && e.Target == "" {
		f.Skipped++
		return
	}
	e.Normalize()
	f.Edges = append(f.Edges, e)
}
