// Package integrations provides HTTP clients for package metadata sources.
//
// The [Client] type carries the shared plumbing: a [cache.Cache] with a key
// prefix and TTL, retry with backoff for transient failures, and status
// mapping to [ErrNotFound] and [ErrNetwork]. Source-specific clients live in
// subpackages:
//
//   - [debian]: Packages indexes from a Debian mirror
//
// [debian]: github.com/topogram/topokit/pkg/integrations/debian
// [cache.Cache]: github.com/topogram/topokit/pkg/cache.Cache
package integrations
