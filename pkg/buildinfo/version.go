// Package buildinfo holds the version stamped into houndview at build time.
//
//	go build -ldflags "-X github.com/matzehuels/houndview/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/houndview/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the version, commit and build date on one line.
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent is the User-Agent sent to the API by app.
func UserAgent(app string) string {
	return app + "/" + Version
}
