// Package cache provides the byte-oriented cache used for Packages indexes
// and rendered topograms.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for shared deployments of the server, and [NullCache] when caching is
// disabled. Keys are built by a [Keyer] so every caller agrees on their
// shape.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss
	// (hit == false, err == nil).
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	// Clear removes all entries and reports how many there were.
	Clear(ctx context.Context) (int, error)
}

// Default lifetimes for cached values.
const (
	// TTLIndex covers downloaded Packages indexes. Mirrors publish a few
	// times a day.
	TTLIndex = 6 * time.Hour

	// TTLGraph covers built topograms, stored as graph JSON.
	TTLGraph = 6 * time.Hour

	// TTLRanking covers source rankings.
	TTLRanking = 24 * time.Hour
)
