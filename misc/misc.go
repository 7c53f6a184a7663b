// Package misc holds build time information.
package misc

const appName = "svgalign"

// Set with -ldflags "-X svgalign/misc.version=... -X svgalign/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
