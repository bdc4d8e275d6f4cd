// Command tmussh runs one command on many tailnet devices through mussh.
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
	os.Exit(cli.Main("tmussh", os.Args[1:]))
}
