package store

import (
	"context"
	"sync"
	"time"

	"github.com/topogram/topokit/pkg/topogram"
)

// StoredChild is a node or edge as kept by Memory.
type StoredChild struct {
	ID         string
	TopogramID string
	CreatedAt  time.Time
	Data       map[string]any
}

// Memory keeps topograms in process memory.
type Memory struct {
	mu        sync.RWMutex
	topograms map[string]topogram.Document
	nodes     []StoredChild
	edges     []StoredChild
	now       func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		topograms: make(map[string]topogram.Document),
		now:       time.Now,
	}
}

func (m *Memory) InsertTopogram(_ context.Context, doc *topogram.Document, nodes []topogram.NodeDocument, edges []topogram.EdgeDocument) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	prepare(doc, now)
	m.topograms[doc.ID] = *doc
	for _, n := range nodes {
		m.nodes = append(m.nodes, StoredChild{ID: NewID(), TopogramID: doc.ID, CreatedAt: now, Data: stamp(n.Data, doc.ID)})
	}
	for _, e := range edges {
		m.edges = append(m.edges, StoredChild{ID: NewID(), TopogramID: doc.ID, CreatedAt: now, Data: stamp(e.Data, doc.ID)})
	}
	return InsertResult{TopogramID: doc.ID, Nodes: len(nodes), Edges: len(edges)}, nil
}

func (m *Memory) CleanFolder(_ context.Context, folder string) (CleanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := CleanResult{Folder: folder}
	ids := make(map[string]bool)
	for id, doc := range m.topograms {
		if doc.Folder == folder {
			ids[id] = true
			delete(m.topograms, id)
			res.Topograms++
		}
	}
	var n int64
	m.nodes, n = removeChildren(m.nodes, ids)
	res.Nodes = n
	m.edges, n = removeChildren(m.edges, ids)
	res.Edges = n
	return res, nil
}

func removeChildren(children []StoredChild, parents map[string]bool) ([]StoredChild, int64) {
	kept := children[:0]
	var removed int64
	for _, c := range children {
		if parents[c.TopogramID] {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

// Topograms returns the stored parent documents of folder. An empty folder
// returns all of them.
func (m *Memory) Topograms(folder string) []topogram.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []topogram.Document
	for _, doc := range m.topograms {
		if folder == "" || doc.Folder == folder {
			out = append(out, doc)
		}
	}
	return out
}

// Nodes returns the nodes of one topogram.
func (m *Memory) Nodes(topogramID string) []StoredChild {
	return m.children(m.nodes, topogramID)
}

// Edges returns the edges of one topogram.
func (m *Memory) Edges(topogramID string) []StoredChild {
	return m.children(m.edges, topogramID)
}

func (m *Memory) children(all []StoredChild, topogramID string) []StoredChild {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StoredChild
	for _, c := range all {
		if c.TopogramID == topogramID {
			out = append(out, c)
		}
	}
	return out
}

func (m *Memory) Close(context.Context) error { return nil }

var _ Store = (*Memory)(nil)
