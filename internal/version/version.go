package version

import (
	"fmt"
	"runtime"
)

// Build metadata, injected through -ldflags by the release pipeline.
// Local builds report "dev".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
	BuiltBy = "unknown"
)

// Info renders the full multi-line version report.
func Info() string {
	return fmt.Sprintf(
		"dupscan %s\nCommit: %s\nBuilt: %s\nGo: %s\nOS/Arch: %s/%s",
		Version,
		Commit,
		Date,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// Short returns the bare version string for --version output.
func Short() string {
	return Version
}
