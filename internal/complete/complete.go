// Package complete produces shell completion candidates for the helper
// commands. It never talks to tailscale: callers pass whatever device list
// is already cached, so completion stays instant even when the daemon is slow.
package complete

import (
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/resolve"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/samber/lo"
)

// Context is where on the command line the word being completed sits.
type Context struct {
	Family dispatch.Family
	// Args are the words already typed before the partial one.
	Args []string
}

// Complete returns the candidates for partial in source order. The same
// inputs always produce the same output.
func Complete(partial string, ctx Context, devices []tailnet.Device) []string {
	if n := len(ctx.Args); n > 0 && ctx.Family.TakesValue(ctx.Args[n-1]) {
		// Value of an option like -i or -p: not ours to complete.
		return nil
	}

	if strings.HasPrefix(partial, "-") {
		return flags(partial, ctx.Family)
	}

	if !ctx.Family.MultiHost() && ctx.Family != dispatch.Mussh &&
		ctx.Family.FirstOperand(ctx.Args) >= 0 {
		// Past the destination: this is the remote command.
		return nil
	}

	if ctx.Family.MultiHost() && strings.Contains(partial, ":") {
		// Remote path; the shell completes it.
		return nil
	}

	if ctx.Family == dispatch.Mussh && strings.HasPrefix(strings.ToLower(partial), "tag:") {
		return tags(partial, devices)
	}

	return hosts(partial, ctx.Family, devices)
}

func flags(partial string, f dispatch.Family) []string {
	return lo.Filter(f.Flags(), func(flag string, _ int) bool {
		return strings.HasPrefix(flag, partial)
	})
}

// hosts completes device names, keeping a typed user@ prefix. scp and rsync
// candidates end in ':' so the path can follow directly.
func hosts(partial string, f dispatch.Family, devices []tailnet.Device) []string {
	var userPrefix string
	if strings.Contains(partial, "@") {
		user, _ := resolve.SplitUserHost(partial)
		userPrefix = user + "@"
	}
	_, query := resolve.SplitUserHost(partial)
	query = strings.ToLower(query)

	suffix := ""
	if f.MultiHost() {
		suffix = ":"
	}

	matches := lo.Filter(devices, func(d tailnet.Device, _ int) bool {
		return strings.HasPrefix(strings.ToLower(d.Name), query)
	})
	return lo.Uniq(lo.Map(matches, func(d tailnet.Device, _ int) string {
		return userPrefix + d.Name + suffix
	}))
}

// tags completes tag:<name> from the tags present on the tailnet.
func tags(partial string, devices []tailnet.Device) []string {
	all := lo.FlatMap(devices, func(d tailnet.Device, _ int) []string {
		return d.Tags
	})
	return lo.Filter(lo.Uniq(all), func(tag string, _ int) bool {
		return strings.HasPrefix(strings.ToLower(tag), strings.ToLower(partial))
	})
}
