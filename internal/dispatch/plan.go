package dispatch

import (
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/alessio/shellescape"
)

// Rewrite records one argument that was pointed at a tailnet device.
type Rewrite struct {
	Index       int // position in Plan.RewrittenArgs
	Original    string
	Replacement string
	Device      tailnet.Device
}

// Plan is a fully resolved command line, ready to execute.
type Plan struct {
	Family Family
	Binary string
	// ResolvedAddress is the address of the first rewritten host, or ""
	// when every token passed through unchanged.
	ResolvedAddress string
	RewrittenArgs   []string
	Rewrites        []Rewrite
}

// Argv returns the binary followed by its arguments.
func (p *Plan) Argv() []string {
	return append([]string{p.Binary}, p.RewrittenArgs...)
}

// String renders the command so it can be pasted into a shell.
func (p *Plan) String() string {
	return shellescape.QuoteCommand(p.Argv())
}

func (p *Plan) rewrite(i int, replacement string, dev tailnet.Device, address string) {
	p.Rewrites = append(p.Rewrites, Rewrite{
		Index:       i,
		Original:    p.RewrittenArgs[i],
		Replacement: replacement,
		Device:      dev,
	})
	p.RewrittenArgs[i] = replacement
	if p.ResolvedAddress == "" {
		p.ResolvedAddress = address
	}
}

// prepend inserts args before the existing arguments, keeping recorded
// rewrite indexes pointing at the same arguments.
func (p *Plan) prepend(args ...string) {
	if len(args) == 0 {
		return
	}
	p.RewrittenArgs = append(append([]string(nil), args...), p.RewrittenArgs...)
	for i := range p.Rewrites {
		p.Rewrites[i].Index += len(args)
	}
}
