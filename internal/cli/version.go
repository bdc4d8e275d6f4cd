package cli

import "fmt"

// Version information set via ldflags at build time
var (
	version = "0.1.2"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information (called from main). Empty
// values keep the defaults.
func SetVersionInfo(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		date = d
	}
}

// GetVersion returns the current version string.
func GetVersion() string {
	return version
}

// versionLine is what `ts --version` prints.
func versionLine(name string) string {
	line := fmt.Sprintf("%s version %s", name, GetVersion())
	if commit != "none" {
		line += fmt.Sprintf(" (commit %s, built %s)", commit, date)
	}
	return line
}
