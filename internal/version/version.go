// Package version carries build identification, stamped in via ldflags.
package version

var (
	// Version is the release version of the cveureka tooling
	Version = "dev"
	// GitSHA is the git commit the binary was built from
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
