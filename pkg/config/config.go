// Package config holds topokit's explicit configuration.
//
// A [Config] is loaded from a TOML or YAML file (chosen by extension),
// overlaid with TOPOKIT_* environment variables, and completed with
// defaults. Collaborators receive the values they need from it; nothing
// reads configuration from globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/topogram"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TOPOKIT_"

// Defaults.
const (
	DefaultMirror     = "http://ftp.debian.org/debian"
	DefaultSuite      = "stable"
	DefaultComponent  = "main"
	DefaultArch       = "amd64"
	DefaultDepth      = 2
	DefaultCacheTTL   = 6 * time.Hour
	DefaultStore      = "mongo"
	DefaultMongoPort  = 3001
	DefaultDatabase   = "meteor"
	DefaultSQLitePath = "topograms.db"
	DefaultServerAddr = ":8080"
)

// Config is the full configuration.
type Config struct {
	Mirror     string `toml:"mirror" yaml:"mirror"`
	Suite      string `toml:"suite" yaml:"suite"`
	Component  string `toml:"component" yaml:"component"`
	Arch       string `toml:"arch" yaml:"arch"`
	Depth      int    `toml:"depth" yaml:"depth"`
	Recommends bool   `toml:"recommends" yaml:"recommends"`
	Suggests   bool   `toml:"suggests" yaml:"suggests"`

	Cache  Cache  `toml:"cache" yaml:"cache"`
	Store  Store  `toml:"store" yaml:"store"`
	Import Import `toml:"import" yaml:"import"`
	Server Server `toml:"server" yaml:"server"`
}

// Cache configures the response cache.
type Cache struct {
	Disabled bool          `toml:"disabled" yaml:"disabled"`
	Dir      string        `toml:"dir" yaml:"dir"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
	// RedisURL selects the Redis backend instead of the file cache.
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	// Namespace prefixes every key, for shared Redis instances.
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// Store configures the document store imports are written to.
type Store struct {
	// Driver is one of mongo, sqlite, neo4j or memory.
	Driver   string `toml:"driver" yaml:"driver"`
	URL      string `toml:"url" yaml:"url"`
	Database string `toml:"database" yaml:"database"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
}

// Import configures folder ingestion.
type Import struct {
	Folder string          `toml:"folder" yaml:"folder"`
	Repair bool            `toml:"repair" yaml:"repair"`
	Limits topogram.Limits `toml:"limits" yaml:"limits"`
}

// Server configures the HTTP API.
type Server struct {
	Addr    string        `toml:"addr" yaml:"addr"`
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{Import: Import{Repair: true}}
	c.WithDefaults()
	return c
}

// WithDefaults fills zero values with defaults and returns c.
func (c *Config) WithDefaults() *Config {
	setDefault(&c.Mirror, DefaultMirror)
	setDefault(&c.Suite, DefaultSuite)
	setDefault(&c.Component, DefaultComponent)
	setDefault(&c.Arch, DefaultArch)
	if c.Depth == 0 {
		c.Depth = DefaultDepth
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	setDefault(&c.Store.Driver, DefaultStore)
	switch c.Store.Driver {
	case "mongo":
		setDefault(&c.Store.URL, MeteorMongoURL("."))
		setDefault(&c.Store.Database, DefaultDatabase)
	case "sqlite":
		setDefault(&c.Store.URL, DefaultSQLitePath)
	}
	setDefault(&c.Server.Addr, DefaultServerAddr)
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 2 * time.Minute
	}
	return c
}

func setDefault(p *string, v string) {
	if *p == "" {
		*p = v
	}
}

// meteorPortFile is where a running Meteor app records its MongoDB port,
// relative to the app root.
var meteorPortFile = filepath.Join(".meteor", "local", "db", "METEOR-PORT")

// MeteorMongoURL returns the URL of the MongoDB instance of a Meteor app
// rooted at dir. The port comes from the app's METEOR-PORT file when it
// exists and parses, else DefaultMongoPort.
func MeteorMongoURL(dir string) string {
	port := DefaultMongoPort
	if data, err := os.ReadFile(filepath.Join(dir, meteorPortFile)); err == nil {
		if p, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && p > 0 {
			port = p
		}
	}
	return fmt.Sprintf("mongodb://127.0.0.1:%d/%s", port, DefaultDatabase)
}

// Load reads path (TOML for .toml, YAML for .yaml/.yml), applies
// environment overrides and defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := &Config{Import: Import{Repair: true}}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
		if err := decode(path, data, c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(path string, data []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// ApplyEnv overlays TOPOKIT_* variables found by lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MIRROR":          &c.Mirror,
		"SUITE":           &c.Suite,
		"COMPONENT":       &c.Component,
		"ARCH":            &c.Arch,
		"CACHE_DIR":       &c.Cache.Dir,
		"REDIS_URL":       &c.Cache.RedisURL,
		"CACHE_NAMESPACE": &c.Cache.Namespace,
		"STORE":           &c.Store.Driver,
		"STORE_URL":       &c.Store.URL,
		"STORE_DATABASE":  &c.Store.Database,
		"STORE_USERNAME":  &c.Store.Username,
		"STORE_PASSWORD":  &c.Store.Password,
		"FOLDER":          &c.Import.Folder,
		"ADDR":            &c.Server.Addr,
	}
	for name, p := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*p = v
		}
	}

	ints := map[string]*int{
		"DEPTH":     &c.Depth,
		"MAX_NODES": &c.Import.Limits.MaxNodes,
		"MAX_EDGES": &c.Import.Limits.MaxEdges,
	}
	for name, p := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidConfig, "%s%s: %q is not an integer", EnvPrefix, name, v)
			}
			*p = n
		}
	}

	bools := map[string]*bool{
		"RECOMMENDS":     &c.Recommends,
		"SUGGESTS":       &c.Suggests,
		"CACHE_DISABLED": &c.Cache.Disabled,
		"REPAIR":         &c.Import.Repair,
	}
	for name, p := range bools {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidConfig, "%s%s: %q is not a boolean", EnvPrefix, name, v)
			}
			*p = b
		}
	}

	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "%sCACHE_TTL: %q is not a duration", EnvPrefix, v)
		}
		c.Cache.TTL = d
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Depth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "depth must not be negative")
	}
	if err := errors.ValidateURL(c.Mirror); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "mirror")
	}
	switch c.Store.Driver {
	case "mongo", "sqlite", "neo4j", "memory":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store driver %q", c.Store.Driver)
	}
	if c.Import.Limits.MaxNodes < 0 || c.Import.Limits.MaxEdges < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "import limits must not be negative")
	}
	return nil
}
