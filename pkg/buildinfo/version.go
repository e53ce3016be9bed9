// Package buildinfo carries version data stamped in at link time:
//
//	go build -ldflags "-X github.com/topogram/topokit/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/topogram/topokit/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/topogram/topokit/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

// Stamped by the linker. Unstamped builds report "dev".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies topokit to Debian mirrors.
func UserAgent() string {
	return fmt.Sprintf("topokit/%s (+https://github.com/topogram/topokit)", Version)
}

// String is the multi-line form printed by "topokit version".
func String() string {
	return fmt.Sprintf("topokit %s\ncommit: %s\nbuilt:  %s", Version, Commit, Date)
}

// Template is the cobra version template behind --version.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt:  %s\n", Version, Commit, Date)
}
