package fanout

import (
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/samber/lo"
)

// Request is a tmussh command line split into host queries and the
// arguments mussh gets unchanged.
type Request struct {
	Queries []string
	Args    []string
}

// ParseArgs collects the hosts following each -h (up to the next option)
// and keeps everything else in order. Hosts are required, from -h or a -H
// file, and so is a command (-c or -C).
func ParseArgs(args []string) (Request, error) {
	var req Request
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "-h" {
			start := len(req.Queries)
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				req.Queries = append(req.Queries, args[i])
			}
			if len(req.Queries) == start {
				return Request{}, errors.New(errors.ErrUsage,
					"-h needs at least one host",
					"Usage: tmussh -h host1 host2 ... -c \"command\"")
			}
			continue
		}
		req.Args = append(req.Args, arg)
		if dispatch.Mussh.TakesValue(arg) && i+1 < len(args) {
			i++
			req.Args = append(req.Args, args[i])
		}
	}

	if len(req.Queries) == 0 && !lo.Contains(req.Args, "-H") {
		return Request{}, errors.New(errors.ErrUsage,
			"No hosts given",
			"Usage: tmussh -h host1 host2 ... -c \"command\"")
	}
	if !lo.Contains(req.Args, "-c") && !lo.Contains(req.Args, "-C") {
		return Request{}, errors.New(errors.ErrUsage,
			"No command given",
			"Usage: tmussh -h host1 host2 ... -c \"command\"")
	}
	return req, nil
}
