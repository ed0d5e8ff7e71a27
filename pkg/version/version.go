// Package version reports the build of the location service.
package version

// Set with -ldflags "-X github.com/carverauto/serviceradar-location/pkg/version.version=..."
//
//nolint:gochecknoglobals // injected at link time
var (
	version = "dev"
	buildID = "dev"
)

// GetVersion returns the release version.
func GetVersion() string {
	return version
}

// GetBuildID returns the build identifier.
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns the version with its build identifier.
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}
