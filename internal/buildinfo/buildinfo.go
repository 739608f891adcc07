package buildinfo

import (
	"fmt"
	"runtime"
)

// Info holds build information for `stepbar version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// GetInfo returns the stamped build information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
}

// String renders e.g. "stepbar v1.2.0 (commit: a1b2c3d, built: 2026-02-17T10:00:00Z)".
func (i Info) String() string {
	return fmt.Sprintf("stepbar v%s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}
