package ingest

import (
	"archive/tar"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/gzip"

	"github.com/topogram/topokit/pkg/errors"
)

// Fixed positions of the edge endpoint columns in the canonical layout.
const (
	sourceCol = 12
	targetCol = 13
)

// SwapOptions configures [Importer.SwapEdges].
type SwapOptions struct {
	Dir    string
	Commit bool
	// BackupDir receives the archive written before any change. Empty
	// means the OS temp directory.
	BackupDir string
}

// SwapFile reports one rewritten file.
type SwapFile struct {
	Path    string `json:"path"`
	Swapped int    `json:"swapped"`
}

// SwapResult reports a swap run.
type SwapResult struct {
	Backup  string     `json:"backup,omitempty"`
	Files   int        `json:"files"`
	Total   int        `json:"total"`
	Changed []SwapFile `json:"changed"`
}

// SwapEdges repairs exports that wrote edge targets before sources. In
// every *.topogram.csv under opts.Dir, rows with an empty id and a source
// or target get their source and target columns exchanged. With Commit the
// directory is archived first and changed files are rewritten; otherwise
// only counts are reported.
func (im *Importer) SwapEdges(ctx context.Context, opts SwapOptions) (*SwapResult, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeFileNotFound, "directory not found: %s", opts.Dir)
	}
	matches, err := doublestar.Glob(os.DirFS(opts.Dir), "**/*.topogram.csv", doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan %s", opts.Dir)
	}

	res := &SwapResult{Files: len(matches)}
	if opts.Commit {
		backupDir := opts.BackupDir
		if backupDir == "" {
			backupDir = os.TempDir()
		}
		if res.Backup, err = backup(opts.Dir, backupDir, im.clock()); err != nil {
			return nil, err
		}
		im.logger().Info("backed up directory", "dir", opts.Dir, "archive", res.Backup)
	}

	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(opts.Dir, filepath.FromSlash(m))
		n, err := swapFile(path, opts.Commit)
		if err != nil {
			im.logger().Warn("skipping file", "file", path, "error", err)
			continue
		}
		if n > 0 {
			im.logger().Info("swapped edge rows", "progress", fmt.Sprintf("%d/%d", i+1, len(matches)), "file", path, "rows", n)
			res.Changed = append(res.Changed, SwapFile{Path: path, Swapped: n})
			res.Total += n
		}
	}
	im.logger().Info("swap finished", "files", res.Files, "rows", res.Total, "commit", opts.Commit)
	return res, nil
}

// swapFile swaps the endpoint columns of edge rows in path and returns how
// many rows changed. The file is rewritten only when write is set and a row
// changed.
func swapFile(path string, write bool) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	cr := csv.NewReader(fh)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	fh.Close()
	if err != nil {
		return 0, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	header := rows[0]
	if len(header) <= targetCol {
		return 0, fmt.Errorf("unexpected header with %d columns", len(header))
	}

	changed := 0
	for i, row := range rows[1:] {
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows[i+1] = row
		if strings.TrimSpace(row[0]) != "" {
			continue
		}
		if strings.TrimSpace(row[sourceCol]) == "" && strings.TrimSpace(row[targetCol]) == "" {
			continue
		}
		row[sourceCol], row[targetCol] = row[targetCol], row[sourceCol]
		changed++
	}
	if changed == 0 || !write {
		return changed, nil
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(out)
	if err := cw.WriteAll(rows); err != nil {
		out.Close()
		return 0, err
	}
	return changed, out.Close()
}

// backup writes dir as a gzipped tarball into destDir and returns its path.
// Entries are rooted at dir's base name.
func backup(dir, destDir string, now time.Time) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create backup dir")
	}
	dest := filepath.Join(destDir, fmt.Sprintf("topograms-backup-%s.tar.gz", now.Format("20060102-150405")))
	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dest)
	}
	if err := writeTarGz(out, dir); err != nil {
		out.Close()
		os.Remove(dest)
		return "", errors.Wrap(errors.ErrCodeInternal, err, "archive %s", dir)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

func writeTarGz(w io.Writer, dir string) error {
	zw := gzip.NewWriter(w)
	tw := tar.NewWriter(zw)
	root := filepath.Base(filepath.Clean(dir))

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(root, rel))
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fh.Close()
		_, err = io.Copy(tw, fh)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}
