package version

import "fmt"

// Version is the semver of the current build.
var Version = "0.3.0"

// DevVersion is the version suffixed for non-prod builds.
var DevVersion = fmt.Sprintf("%s-dev", Version)

// GetCurrentVersion returns the version string for the given run mode.
func GetCurrentVersion(mode string) string {
	if mode == "prod" {
		return Version
	}
	return DevVersion
}
