// Package store persists imported topograms.
//
// A topogram is one parent document plus child node and edge documents.
// Every backend generates 24-hex-character ObjectIDs for all three and
// stamps the parent ID onto each child, both at the top level and inside
// its data payload, which is the shape the visualization app reads.
//
// Backends: [Mongo] (the app's own database), [SQLite] (a local file),
// [Neo4j] (a property graph) and [Memory] (tests and dry runs).
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/topogram/topokit/pkg/config"
	"github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/topogram"
)

// Store writes and removes topograms.
type Store interface {
	// InsertTopogram stores doc and its children. doc.ID is assigned when
	// empty.
	InsertTopogram(ctx context.Context, doc *topogram.Document, nodes []topogram.NodeDocument, edges []topogram.EdgeDocument) (InsertResult, error)

	// CleanFolder removes every topogram in folder together with its
	// nodes and edges.
	CleanFolder(ctx context.Context, folder string) (CleanResult, error)

	Close(ctx context.Context) error
}

// InsertResult reports one insert.
type InsertResult struct {
	TopogramID string `json:"topogramId"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
}

// CleanResult reports a folder cleanup.
type CleanResult struct {
	Folder    string `json:"folder"`
	Topograms int64  `json:"deletedTopograms"`
	Nodes     int64  `json:"deletedNodes"`
	Edges     int64  `json:"deletedEdges"`
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Driver {
	case "mongo":
		return OpenMongo(ctx, cfg.URL, cfg.Database, cfg.Username, cfg.Password)
	case "sqlite":
		return OpenSQLite(ctx, cfg.URL)
	case "neo4j":
		return OpenNeo4j(ctx, cfg.URL, cfg.Username, cfg.Password, cfg.Database)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store driver %q", cfg.Driver)
	}
}

// NewID returns a fresh ObjectID in hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// prepare assigns the parent ID and creation time when missing.
func prepare(doc *topogram.Document, now time.Time) {
	if doc.ID == "" {
		doc.ID = NewID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
}

// stamp copies data and adds the parent reference.
func stamp(data map[string]any, topogramID string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["topogramId"] = topogramID
	return out
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}
