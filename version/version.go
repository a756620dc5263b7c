package version //nolint:revive // package name intentionally matches build-info convention

import "strings"

//nolint:gochecknoglobals //version information is set at build time
var (
	Repository string
	Version    string
	Commit     string
	Date       string
)

// String formats the build information for the CLI, "dev" when none was injected.
func String() string {
	v := Version
	if v == "" {
		v = "dev"
	}

	var extra []string
	if Commit != "" {
		extra = append(extra, Commit)
	}
	if Date != "" {
		extra = append(extra, Date)
	}
	if len(extra) == 0 {
		return v
	}
	return v + " (" + strings.Join(extra, ", ") + ")"
}
