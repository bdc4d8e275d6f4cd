// Command trsync is rsync with tailnet device names.
package main

import (
	"os"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/cli"
)

var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.Main("trsync", os.Args[1:]))
}
