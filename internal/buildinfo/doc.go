// Package buildinfo exposes the version, commit and build date stamped into
// the stepbar binary via -ldflags -X.
package buildinfo

// Overridden at build time, e.g.
//
//	-ldflags "-X github.com/AbdelazizMoustafa10m/StepBar/internal/buildinfo.Version=1.2.0"
var (
	// Version is the semantic version or git describe output.
	Version = "dev"

	// Commit is the short git commit SHA.
	Commit = "unknown"

	// Date is the UTC build timestamp in RFC3339 format.
	Date = "unknown"
)
