package cache

import "fmt"

// GraphKeyOpts holds the build options that change a topogram.
type GraphKeyOpts struct {
	Mirror     string `json:"mirror"`
	Suite      string `json:"suite"`
	Component  string `json:"component"`
	Arch       string `json:"arch"`
	MaxDepth   int    `json:"max_depth"`
	Recommends bool   `json:"recommends"`
	Suggests   bool   `json:"suggests"`
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a fetched HTTP body.
	HTTPKey(namespace, key string) string

	// GraphKey returns the key for the topogram rooted at pkg.
	GraphKey(pkg string, opts GraphKeyOpts) string

	// RankingKey returns the key for a source ranking of one index.
	RankingKey(mirror, suite, component, arch string) string
}

// DefaultKeyer is the Keyer used unless a deployment needs a namespace.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// GraphKey hashes pkg together with every option.
func (DefaultKeyer) GraphKey(pkg string, opts GraphKeyOpts) string {
	return hashKey("graph", pkg, opts)
}

// RankingKey hashes the index coordinates.
func (DefaultKeyer) RankingKey(mirror, suite, component, arch string) string {
	return hashKey("ranking", mirror, suite, component, arch)
}

var _ Keyer = DefaultKeyer{}

// ScopedKeyer prefixes every key of an inner Keyer, so deployments sharing
// one Redis instance stay apart.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) GraphKey(pkg string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(pkg, opts)
}

func (k *ScopedKeyer) RankingKey(mirror, suite, component, arch string) string {
	return k.prefix + k.inner.RankingKey(mirror, suite, component, arch)
}
