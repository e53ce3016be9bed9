package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/topogram/topokit/pkg/topogram"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS topograms (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source TEXT NOT NULL,
	folder TEXT NOT NULL,
	source_file TEXT,
	source_hash TEXT,
	import_run TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_topograms_folder ON topograms(folder);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	topogram_id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_topogram ON nodes(topogram_id);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	topogram_id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_topogram ON edges(topogram_id);
`

// SQLite stores topograms in a local database file. Node and edge data
// payloads are kept as JSON text.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr(err, "create %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, storeErr(err, "apply schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) InsertTopogram(ctx context.Context, doc *topogram.Document, nodes []topogram.NodeDocument, edges []topogram.EdgeDocument) (InsertResult, error) {
	now := time.Now()
	prepare(doc, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertResult{}, storeErr(err, "begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO topograms (id, title, source, folder, source_file, source_hash, import_run, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Source, doc.Folder, doc.SourceFile, doc.SourceHash, doc.ImportRun, doc.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return InsertResult{}, storeErr(err, "insert topogram %q", doc.Title)
	}

	for _, n := range nodes {
		if err := insertChild(ctx, tx, "nodes", doc.ID, n.Data, now); err != nil {
			return InsertResult{}, err
		}
	}
	for _, e := range edges {
		if err := insertChild(ctx, tx, "edges", doc.ID, e.Data, now); err != nil {
			return InsertResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, storeErr(err, "commit")
	}
	return InsertResult{TopogramID: doc.ID, Nodes: len(nodes), Edges: len(edges)}, nil
}

func insertChild(ctx context.Context, tx *sql.Tx, table, topogramID string, data map[string]any, now time.Time) error {
	payload, err := json.Marshal(stamp(data, topogramID))
	if err != nil {
		return storeErr(err, "encode %s payload", table)
	}
	// table is one of two constants.
	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+table+" (id, topogram_id, data, created_at) VALUES (?, ?, ?, ?)",
		NewID(), topogramID, string(payload), now.UnixMilli(),
	)
	if err != nil {
		return storeErr(err, "insert into %s", table)
	}
	return nil
}

func (s *SQLite) CleanFolder(ctx context.Context, folder string) (CleanResult, error) {
	res := CleanResult{Folder: folder}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, storeErr(err, "begin")
	}
	defer tx.Rollback()

	const inFolder = "topogram_id IN (SELECT id FROM topograms WHERE folder = ?)"
	steps := []struct {
		query string
		n     *int64
	}{
		{"DELETE FROM nodes WHERE " + inFolder, &res.Nodes},
		{"DELETE FROM edges WHERE " + inFolder, &res.Edges},
		{"DELETE FROM topograms WHERE folder = ?", &res.Topograms},
	}
	for _, step := range steps {
		r, err := tx.ExecContext(ctx, step.query, folder)
		if err != nil {
			return CleanResult{Folder: folder}, storeErr(err, "clean folder %q", folder)
		}
		if *step.n, err = r.RowsAffected(); err != nil {
			return CleanResult{Folder: folder}, storeErr(err, "clean folder %q", folder)
		}
	}
	if err := tx.Commit(); err != nil {
		return CleanResult{Folder: folder}, storeErr(err, "commit")
	}
	return res, nil
}

// Count returns the number of topograms, nodes and edges stored in folder.
func (s *SQLite) Count(ctx context.Context, folder string) (topograms, nodes, edges int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM topograms WHERE folder = ?1),
			(SELECT COUNT(*) FROM nodes WHERE topogram_id IN (SELECT id FROM topograms WHERE folder = ?1)),
			(SELECT COUNT(*) FROM edges WHERE topogram_id IN (SELECT id FROM topograms WHERE folder = ?1))`,
		folder,
	).Scan(&topograms, &nodes, &edges)
	if err != nil {
		err = storeErr(err, "count folder %q", folder)
	}
	return topograms, nodes, edges, err
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
