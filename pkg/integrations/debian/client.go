// Package debian fetches Packages indexes from a Debian mirror.
//
// Indexes are downloaded as Packages.gz, decompressed, and cached as
// zstd-compressed text so a warm cache costs a fraction of the raw index.
//
//	client := debian.NewClient(c, debian.DefaultMirror, cache.TTLIndex)
//	text, err := client.FetchPackages(ctx, debian.Dist{Suite: "bookworm", Component: "main", Arch: "amd64"}, false)
package debian

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/topogram/topokit/pkg/buildinfo"
	"github.com/topogram/topokit/pkg/cache"
	errs "github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/integrations"
)

// DefaultMirror is the mirror used when none is configured.
const DefaultMirror = "http://ftp.debian.org/debian"

// Default archive coordinates.
const (
	DefaultSuite     = "stable"
	DefaultComponent = "main"
	DefaultArch      = "amd64"
)

// Dist identifies one Packages index on a mirror.
type Dist struct {
	Suite     string `json:"suite"`
	Component string `json:"component"`
	Arch      string `json:"arch"`
}

// WithDefaults fills empty fields with the default coordinates.
func (d Dist) WithDefaults() Dist {
	if d.Suite == "" {
		d.Suite = DefaultSuite
	}
	if d.Component == "" {
		d.Component = DefaultComponent
	}
	if d.Arch == "" {
		d.Arch = DefaultArch
	}
	return d
}

// Validate checks each coordinate is a safe URL path element.
func (d Dist) Validate() error {
	if err := errs.ValidateArchiveToken("suite", d.Suite); err != nil {
		return err
	}
	if err := errs.ValidateArchiveToken("component", d.Component); err != nil {
		return err
	}
	return errs.ValidateArchiveToken("architecture", d.Arch)
}

func (d Dist) String() string {
	return d.Suite + "/" + d.Component + "/" + d.Arch
}

// Client downloads Packages indexes.
type Client struct {
	*integrations.Client
	mirror string
}

// NewClient creates a client for mirror. An empty mirror means
// DefaultMirror.
func NewClient(c cache.Cache, mirror string, ttl time.Duration) *Client {
	if mirror == "" {
		mirror = DefaultMirror
	}
	return &Client{
		Client: integrations.NewClient(c, "debian:", ttl, map[string]string{
			"User-Agent": buildinfo.UserAgent(),
		}),
		mirror: strings.TrimSuffix(mirror, "/"),
	}
}

// Mirror returns the mirror base URL.
func (c *Client) Mirror() string { return c.mirror }

// IndexURL returns the Packages.gz URL for d.
func (c *Client) IndexURL(d Dist) string {
	return fmt.Sprintf("%s/dists/%s/%s/binary-%s/Packages.gz", c.mirror, d.Suite, d.Component, d.Arch)
}

// FetchPackages returns the decompressed Packages text for d. With refresh
// set the cache is bypassed.
//
// A 404 yields a NOT_FOUND error, other HTTP failures NETWORK_ERROR, and a
// corrupt gzip stream DECOMPRESS_ERROR.
func (c *Client) FetchPackages(ctx context.Context, d Dist, refresh bool) (string, error) {
	d = d.WithDefaults()
	if err := d.Validate(); err != nil {
		return "", err
	}
	url := c.IndexURL(d)

	var decompressErr error
	packed, _, err := c.Cached(ctx, url, refresh, func() ([]byte, error) {
		body, err := c.GetBytes(ctx, url)
		if err != nil {
			return nil, err
		}
		text, err := gunzip(body)
		if err != nil {
			decompressErr = err
			return nil, err
		}
		return compress(text)
	})
	switch {
	case decompressErr != nil:
		return "", errs.Wrap(errs.ErrCodeDecompress, decompressErr, "decompress %s", url)
	case errors.Is(err, integrations.ErrNotFound):
		return "", errs.Wrap(errs.ErrCodeNotFound, err, "no Packages index for %s at %s", d, c.mirror)
	case errors.Is(err, context.DeadlineExceeded):
		return "", errs.Wrap(errs.ErrCodeTimeout, err, "fetch %s", url)
	case err != nil:
		return "", errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", url)
	}

	text, err := decompress(packed)
	if err != nil {
		// A corrupt cache entry is refetched once.
		if !refresh {
			return c.FetchPackages(ctx, d, true)
		}
		return "", errs.Wrap(errs.ErrCodeDecompress, err, "decode cached index")
	}
	return string(text), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
