package topogram

// Default per-import caps used by the web importer.
const (
	DefaultMaxNodes = 100
	DefaultMaxEdges = 200
)

// Limits caps how many records one import keeps. Zero means no cap.
type Limits struct {
	MaxNodes int `toml:"max_nodes" yaml:"max_nodes" json:"maxNodes"`
	MaxEdges int `toml:"max_edges" yaml:"max_edges" json:"maxEdges"`
}

// DefaultLimits returns the web importer caps.
func DefaultLimits() Limits {
	return Limits{MaxNodes: DefaultMaxNodes, MaxEdges: DefaultMaxEdges}
}

// Truncate drops records beyond l, keeping file order, and returns how
// many nodes and edges were dropped.
func (f *File) Truncate(l Limits) (droppedNodes, droppedEdges int) {
	if l.MaxNodes > 0 && len(f.Nodes) > l.MaxNodes {
		droppedNodes = len(f.Nodes) - l.MaxNodes
		f.Nodes = f.Nodes[:l.MaxNodes]
	}
	if l.MaxEdges > 0 && len(f.Edges) > l.MaxEdges {
		droppedEdges = len(f.Edges) - l.MaxEdges
		f.Edges = f.Edges[:l.MaxEdges]
	}
	return droppedNodes, droppedEdges
}
