package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/topogram/topokit/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Mirror != DefaultMirror || c.Suite != DefaultSuite || c.Component != DefaultComponent || c.Arch != DefaultArch {
		t.Errorf("archive defaults not applied: %+v", c)
	}
	if c.Depth != DefaultDepth {
		t.Errorf("Depth = %d, want %d", c.Depth, DefaultDepth)
	}
	if c.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v", c.Cache.TTL)
	}
	if c.Store.Driver != "mongo" || c.Store.URL == "" {
		t.Errorf("store defaults not applied: %+v", c.Store)
	}
	if !c.Import.Repair {
		t.Error("Import.Repair should default to true")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "topokit.toml", `
mirror = "https://deb.debian.org/debian"
suite = "trixie"
depth = 3
recommends = true

[cache]
ttl = "30m"
namespace = "ci:"

[store]
driver = "sqlite"
url = "topograms.db"

[import]
folder = "Debian"
repair = false

[import.limits]
max_nodes = 10
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Mirror != "https://deb.debian.org/debian" || c.Suite != "trixie" || c.Depth != 3 || !c.Recommends {
		t.Errorf("top-level values not loaded: %+v", c)
	}
	if c.Component != DefaultComponent {
		t.Errorf("Component = %q, want default", c.Component)
	}
	if c.Cache.TTL != 30*time.Minute || c.Cache.Namespace != "ci:" {
		t.Errorf("cache = %+v", c.Cache)
	}
	if c.Store.Driver != "sqlite" || c.Store.URL != "topograms.db" {
		t.Errorf("store = %+v", c.Store)
	}
	if c.Import.Folder != "Debian" || c.Import.Repair || c.Import.Limits.MaxNodes != 10 {
		t.Errorf("import = %+v", c.Import)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "topokit.yaml", `
suite: sid
arch: arm64
store:
  driver: neo4j
  url: neo4j://localhost:7687
  username: neo4j
server:
  addr: ":9090"
  timeout: 10s
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Suite != "sid" || c.Arch != "arm64" {
		t.Errorf("archive = %s/%s", c.Suite, c.Arch)
	}
	if c.Store.Driver != "neo4j" || c.Store.Username != "neo4j" {
		t.Errorf("store = %+v", c.Store)
	}
	if c.Server.Addr != ":9090" || c.Server.Timeout != 10*time.Second {
		t.Errorf("server = %+v", c.Server)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"unknown extension", "topokit.ini", "suite=sid"},
		{"bad toml", "topokit.toml", "suite = "},
		{"bad driver", "topokit.toml", "[store]\ndriver = \"oracle\""},
		{"negative depth", "topokit.yaml", "depth: -1"},
		{"bad mirror", "topokit.yaml", "mirror: ftp://example.org"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	c := &Config{}
	err := c.ApplyEnv(envFrom(map[string]string{
		"TOPOKIT_SUITE":     "testing",
		"TOPOKIT_DEPTH":     "4",
		"TOPOKIT_SUGGESTS":  "true",
		"TOPOKIT_CACHE_TTL": "1h",
		"TOPOKIT_STORE":     "memory",
		"TOPOKIT_MAX_EDGES": "50",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}
	if c.Suite != "testing" || c.Depth != 4 || !c.Suggests {
		t.Errorf("env not applied: %+v", c)
	}
	if c.Cache.TTL != time.Hour || c.Store.Driver != "memory" || c.Import.Limits.MaxEdges != 50 {
		t.Errorf("env not applied: %+v", c)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	for _, env := range []map[string]string{
		{"TOPOKIT_DEPTH": "deep"},
		{"TOPOKIT_RECOMMENDS": "maybe"},
		{"TOPOKIT_CACHE_TTL": "forever"},
	} {
		c := &Config{}
		if err := c.ApplyEnv(envFrom(env)); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ApplyEnv(%v) = %v, want INVALID_CONFIG", env, err)
		}
	}
}

func TestMeteorMongoURL(t *testing.T) {
	dir := t.TempDir()
	if got := MeteorMongoURL(dir); got != "mongodb://127.0.0.1:3001/meteor" {
		t.Errorf("MeteorMongoURL() without port file = %q", got)
	}

	portDir := filepath.Join(dir, ".meteor", "local", "db")
	if err := os.MkdirAll(portDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(portDir, "METEOR-PORT"), []byte("4123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := MeteorMongoURL(dir); got != "mongodb://127.0.0.1:4123/meteor" {
		t.Errorf("MeteorMongoURL() = %q", got)
	}
}
