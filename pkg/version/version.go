package version

import "fmt"

// Values for these are injected by the build.
var (
	version   = "edge"
	component = "bigmler"
)

// Version returns the BigMLer version. This is either a semantic version
// number or else, in the case of unreleased code, the string "edge".
func Version() string {
	if version == "edge" {
		return version
	}

	return fmt.Sprintf("v%s", version)
}

// Component is the name reported in the User-Agent of API calls.
func Component() string {
	return component
}
