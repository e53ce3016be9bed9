package cache

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// entryExt names cache entry files on disk.
const entryExt = ".entry"

// FileCache keeps entries as files under a directory. It is the CLI's
// default cache.
//
// An entry file is one header line holding the expiry in Unix nanoseconds
// (0 for none) followed by the raw value. Entries are written to a
// temporary file and renamed into place, so concurrent readers never see
// a partial value.
type FileCache struct {
	dir string
}

// NewFileCache opens dir as a cache, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	header, value, ok := bytes.Cut(raw, []byte{'\n'})
	expires, err := strconv.ParseInt(string(header), 10, 64)
	if !ok || err != nil || (expires > 0 && time.Now().UnixNano() > expires) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return value, true, nil
}

func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	buf := strconv.AppendInt(nil, expires, 10)
	buf = append(buf, '\n')
	if _, err := tmp.Write(append(buf, data...)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *FileCache) Close() error { return nil }

// Clear removes every entry and returns how many were removed.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(c.dir), "*/*"+entryExt, doublestar.WithFilesOnly())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range matches {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if os.Remove(filepath.Join(c.dir, filepath.FromSlash(m))) == nil {
			n++
		}
	}
	subdirs, _ := os.ReadDir(c.dir)
	for _, d := range subdirs {
		if d.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, d.Name()))
		}
	}
	return n, nil
}

// path maps key to <dir>/<2 digest chars>/<rest>.entry.
func (c *FileCache) path(key string) string {
	d := Digest([]byte(key))
	return filepath.Join(c.dir, d[:2], d[2:]+entryExt)
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
)
