// Command tscp is scp with tailnet device names.
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
	os.Exit(cli.Main("tscp", os.Args[1:]))
}
