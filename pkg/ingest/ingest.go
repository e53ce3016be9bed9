// Package ingest imports a folder of topogram files into a store.
//
// Files matching **/*.topogram.{csv,xlsx,ods,json} are discovered in sorted
// order and parsed one at a time. Each file becomes one topogram document
// grouped under a folder label. A file that cannot be parsed is reported
// and skipped; only an unreadable directory or a failed folder cleanup
// stops the run. Without Commit nothing is written.
package ingest

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/observability"
	"github.com/topogram/topokit/pkg/store"
	"github.com/topogram/topokit/pkg/topogram"
)

// Pattern matches importable files below the import directory.
const Pattern = "**/*.topogram.{csv,xlsx,ods,json}"

// Options configures one import run.
type Options struct {
	Dir string
	// Folder labels the imported topograms. Empty derives it from Dir.
	Folder string
	Commit bool
	// Limit keeps only the first Limit files. Zero or less keeps all.
	Limit int
	// CleanFolder removes the folder's existing topograms first. It only
	// takes effect with Commit.
	CleanFolder bool
	Repair      bool
	Limits      topogram.Limits
}

// Status is the outcome of one file.
type Status string

const (
	StatusParsed   Status = "parsed"   // dry run
	StatusImported Status = "imported" // written to the store
	StatusSkipped  Status = "skipped"  // unsupported format
	StatusFailed   Status = "failed"
)

// FileResult describes one file of a run.
type FileResult struct {
	Path         string          `json:"path"`
	Title        string          `json:"title"`
	Format       topogram.Format `json:"format,omitempty"`
	Hash         string          `json:"hash,omitempty"`
	Nodes        int             `json:"nodes"`
	Edges        int             `json:"edges"`
	SkippedRows  int             `json:"skippedRows,omitempty"`
	DroppedNodes int             `json:"droppedNodes,omitempty"`
	DroppedEdges int             `json:"droppedEdges,omitempty"`
	TopogramID   string          `json:"topogramId,omitempty"`
	Status       Status          `json:"status"`
	Err          error           `json:"-"`
}

// Summary totals a run.
type Summary struct {
	Folder    string             `json:"folder"`
	ImportRun string             `json:"importRun"`
	Commit    bool               `json:"commit"`
	Found     int                `json:"found"`
	Files     int                `json:"files"`
	Nodes     int                `json:"nodes"`
	Edges     int                `json:"edges"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Cleaned   *store.CleanResult `json:"cleaned,omitempty"`
	Results   []FileResult       `json:"results"`
}

// Importer runs imports against a store.
type Importer struct {
	// Store receives committed topograms. It may be nil for dry runs.
	Store  store.Store
	Logger *log.Logger

	now func() time.Time
}

// NewImporter creates an importer. A nil logger means the charm default.
func NewImporter(s store.Store, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Default()
	}
	return &Importer{Store: s, Logger: logger, now: time.Now}
}

func (im *Importer) logger() *log.Logger {
	if im.Logger == nil {
		return log.Default()
	}
	return im.Logger
}

func (im *Importer) clock() time.Time {
	if im.now == nil {
		return time.Now()
	}
	return im.now()
}

// Discover returns the importable files under dir, sorted.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "folder not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", dir)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan %s", dir)
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	sort.Strings(files)
	return files, nil
}

// Run imports opts.Dir.
func (im *Importer) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Commit && im.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "commit requires a store")
	}
	folder := opts.Folder
	if folder == "" {
		folder = topogram.DeriveFolderLabel(opts.Dir)
	}
	if err := errors.ValidateFolderLabel(folder); err != nil {
		return nil, err
	}

	files, err := Discover(opts.Dir)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	hooks := observability.Import()
	sum := &Summary{
		Folder:    folder,
		ImportRun: uuid.New().String(),
		Commit:    opts.Commit,
		Found:     len(files),
	}
	if opts.Limit > 0 && len(files) > opts.Limit {
		im.logger().Info("limiting import", "files", opts.Limit, "found", len(files))
		files = files[:opts.Limit]
	}
	im.logger().Info("importing folder",
		"dir", opts.Dir,
		"folder", folder,
		"files", len(files),
		"commit", opts.Commit)

	if opts.CleanFolder {
		if !opts.Commit {
			im.logger().Warn("skipping folder cleanup in dry run", "folder", folder)
		} else {
			res, err := im.Store.CleanFolder(ctx, folder)
			if err != nil {
				return nil, err
			}
			sum.Cleaned = &res
			im.logger().Info("cleaned folder",
				"folder", folder,
				"topograms", res.Topograms,
				"nodes", res.Nodes,
				"edges", res.Edges)
		}
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := im.importFile(ctx, path, folder, sum.ImportRun, opts)
		sum.Results = append(sum.Results, res)
		hooks.OnFileImported(ctx, path, string(res.Status), res.Nodes, res.Edges)
		switch res.Status {
		case StatusSkipped:
			sum.Skipped++
		case StatusFailed:
			sum.Failed++
		default:
			sum.Files++
			sum.Nodes += res.Nodes
			sum.Edges += res.Edges
		}
	}

	hooks.OnImportComplete(ctx, folder, sum.Files, sum.Failed, time.Since(start))
	im.logger().Info("import finished",
		"files", sum.Files,
		"nodes", sum.Nodes,
		"edges", sum.Edges,
		"skipped", sum.Skipped,
		"failed", sum.Failed)
	return sum, nil
}

func (im *Importer) importFile(ctx context.Context, path, folder, run string, opts Options) FileResult {
	res := FileResult{Path: path, Title: topogram.TitleFromPath(path)}
	logger := im.logger().With("file", path)

	f, err := topogram.ReadFile(path, topogram.ReadOptions{Repair: opts.Repair})
	if stderrors.Is(err, topogram.ErrUnsupportedFormat) {
		logger.Warn("unsupported spreadsheet format; skipping")
		res.Status, res.Err = StatusSkipped, err
		return res
	}
	if err != nil {
		logger.Error("parse failed", "error", err)
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Format = f.Format
	res.SkippedRows = f.Skipped
	res.DroppedNodes, res.DroppedEdges = f.Truncate(opts.Limits)
	res.Nodes, res.Edges = len(f.Nodes), len(f.Edges)
	if f.Empty() {
		logger.Warn("no nodes or edges recognized", "format", f.Format)
	}
	if res.DroppedNodes > 0 || res.DroppedEdges > 0 {
		logger.Warn("records over limit dropped", "nodes", res.DroppedNodes, "edges", res.DroppedEdges)
	}
	logger.Info("parsed", "format", f.Format, "nodes", res.Nodes, "edges", res.Edges)

	if res.Hash, err = hashFile(path); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if !opts.Commit {
		res.Status = StatusParsed
		return res
	}

	rel, err := filepath.Rel(opts.Dir, path)
	if err != nil {
		rel = path
	}
	doc := &topogram.Document{
		Title:      res.Title,
		Source:     topogram.SourceImportedFolder,
		Folder:     folder,
		SourceFile: filepath.ToSlash(rel),
		SourceHash: res.Hash,
		ImportRun:  run,
		CreatedAt:  im.clock(),
	}
	nodes, edges := f.Payloads()
	ins, err := im.Store.InsertTopogram(ctx, doc, nodes, edges)
	if err != nil {
		logger.Error("insert failed", "error", err)
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.TopogramID = ins.TopogramID
	res.Status = StatusImported
	logger.Debug("inserted", "topogram", ins.TopogramID)
	return res
}

// hashFile returns the hex BLAKE3-256 digest of the file at path.
func hashFile(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, fh); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
