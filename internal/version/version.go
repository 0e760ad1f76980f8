package version

import "fmt"

// Set at build time with -ldflags "-X github.com/banshee-data/jetreco/internal/version.Version=...".
var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// Banner is the multi-line text printed by `jetreco --version`.
func Banner() string {
	return fmt.Sprintf("jetreco %s\ncommit: %s\nbuilt: %s\n", Version, GitSHA, BuildTime)
}
