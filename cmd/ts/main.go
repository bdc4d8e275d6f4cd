// Command ts connects to tailnet devices by name. Installed under (or
// linked as) tssh, tscp, tsftp, trsync, tssh_copy_id or tmussh it behaves
// as that helper.
package main

import (
	"os"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/cli"
)

// Version info set via ldflags at build time:
//
//	go build -ldflags "-X main.version=0.1.2 -X main.commit=abc123 -X main.date=2025-01-01"
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.Main(os.Args[0], os.Args[1:]))
}
