package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set with -ldflags "-X github.com/MrSnakeDoc/daylog/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// Info is the build information of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: GoVersion}
}

func (i Info) String() string {
	return fmt.Sprintf("daylog %s (commit=%s, built=%s, go=%s)", i.Version, i.Commit, i.BuildDate, i.GoVersion)
}
