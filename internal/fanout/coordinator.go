// Package fanout runs one command on many tailnet devices through mussh.
//
// Every host query is resolved on its own; a query that is ambiguous or
// matches nothing is skipped and reported, never allowed to sink the rest.
// Only unique matches reach mussh's host list.
package fanout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/logger"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/resolve"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/alessio/shellescape"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Chooser picks any number of devices among the matches of an ambiguous
// query. Returning none skips the query.
type Chooser func(query string, candidates []tailnet.Device) ([]tailnet.Device, error)

// Coordinator resolves host lists and hands them to mussh.
type Coordinator struct {
	lister  tailnet.Lister
	cfg     *config.Config
	log     logger.Logger
	exec    dispatch.Executor
	users   dispatch.UserLookup
	chooser Chooser
	dryRun  bool
	out     io.Writer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for skipped and offline hosts.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithExecutor replaces the process executor.
func WithExecutor(e dispatch.Executor) Option {
	return func(c *Coordinator) { c.exec = e }
}

// WithUserLookup re-attaches ssh_config users to resolved hosts.
func WithUserLookup(u dispatch.UserLookup) Option {
	return func(c *Coordinator) { c.users = u }
}

// WithChooser lets the user settle ambiguous queries instead of skipping them.
func WithChooser(ch Chooser) Option {
	return func(c *Coordinator) { c.chooser = ch }
}

// WithDryRun prints the mussh command to w instead of running it.
func WithDryRun(w io.Writer) Option {
	return func(c *Coordinator) {
		c.dryRun = true
		c.out = w
	}
}

// New creates a coordinator reading devices from lister.
func New(lister tailnet.Lister, cfg *config.Config, opts ...Option) *Coordinator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Coordinator{
		lister: lister,
		cfg:    cfg,
		log:    logger.Noop(),
		exec:   dispatch.NewProcessExecutor(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run parses a tmussh command line and dispatches it.
func (c *Coordinator) Run(ctx context.Context, args []string) (*Summary, error) {
	req, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}
	return c.DispatchMany(ctx, req.Queries, req.Args)
}

// DispatchMany resolves queries concurrently and runs mussh once on every
// unique match, passing command (the remaining mussh arguments) unchanged.
// If nothing resolves and no -H host file was given, mussh is not run.
func (c *Coordinator) DispatchMany(ctx context.Context, queries, command []string) (*Summary, error) {
	devices, literal, err := c.devices(ctx, queries)
	if err != nil {
		return nil, err
	}

	perQuery := make([][]HostResult, len(queries))
	g, _ := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			perQuery[i] = c.resolveOne(q, devices, literal)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hosts, err := c.settleAmbiguous(lo.Flatten(perQuery))
	if err != nil {
		return nil, err
	}
	summary := &Summary{Hosts: dedupe(hosts)}

	for _, h := range summary.Skipped() {
		c.log.Warn("skipping %s: %s", h.Query, h.Reason)
	}

	targets := summary.Targets()
	hostFile := lo.Contains(command, "-H")
	if len(targets) == 0 && !hostFile {
		return summary, errors.WrapWithCode(summary.Err(), errors.ErrExec,
			"None of the hosts could be resolved, so mussh wasn't run",
			"Check the names with: ts --list")
	}

	summary.Argv = []string{dispatch.Mussh.Binary(c.cfg.Tools)}
	if len(targets) > 0 {
		summary.Argv = append(append(summary.Argv, "-h"), targets...)
	}
	summary.Argv = append(summary.Argv, command...)

	if c.dryRun {
		fmt.Fprintln(c.out, shellescape.QuoteCommand(summary.Argv))
		return summary, nil
	}

	c.log.Debug("running %s", shellescape.QuoteCommand(summary.Argv))
	code, err := c.exec.Run(ctx, summary.Argv)
	summary.ExitCode = code
	summary.Ran = err == nil
	return summary, err
}

// devices fetches the device list when any query needs it. literal is set
// when status is unreadable and hostnames should pass through as typed.
func (c *Coordinator) devices(ctx context.Context, queries []string) (devices []tailnet.Device, literal bool, err error) {
	if len(queries) == 0 {
		return nil, false, nil
	}
	devices, err = c.lister.Devices(ctx)
	switch {
	case err == nil:
		return devices, false, nil
	case tailnet.IsSourceError(err):
		c.log.Warn("couldn't read tailscale status, using hosts as typed: %v", err)
		return nil, true, nil
	default:
		return nil, false, err
	}
}

// resolveOne turns one query into results. It must not block: it runs
// concurrently with the other queries.
func (c *Coordinator) resolveOne(query string, devices []tailnet.Device, literal bool) []HostResult {
	target, _ := resolve.ParseTarget([]string{query})

	if strings.HasPrefix(strings.ToLower(target.HostQuery), "tag:") {
		if literal {
			return []HostResult{skipped(query, "tags need tailscale status")}
		}
		return c.expandTag(query, target, devices)
	}

	if literal {
		if !resolve.IsHostnameLike(target.HostQuery) {
			return []HostResult{skipped(query, "not a valid hostname")}
		}
		return []HostResult{{Query: query, Status: Dispatched, Target: query, Reason: "passed as typed"}}
	}

	res := resolve.Resolve(target.HostQuery, devices)
	switch res.Kind {
	case resolve.UniqueMatch:
		return []HostResult{c.dispatched(query, target, res.Device())}
	case resolve.AmbiguousMatch:
		r := skipped(query, "matches several devices: "+strings.Join(res.Names(), ", "))
		r.candidates = res.Matches
		return []HostResult{r}
	default:
		if res.Literal {
			return []HostResult{skipped(query, "not a valid hostname")}
		}
		return []HostResult{skipped(query, "no tailnet device matches")}
	}
}

// expandTag yields every online device carrying the tag.
func (c *Coordinator) expandTag(query string, target resolve.Target, devices []tailnet.Device) []HostResult {
	tag := target.HostQuery
	tagged := lo.Filter(devices, func(d tailnet.Device, _ int) bool {
		return d.Online && d.HasTag(tag)
	})
	if len(tagged) == 0 {
		return []HostResult{skipped(query, "no online device is tagged "+tag)}
	}
	return lo.Map(tagged, func(d tailnet.Device, _ int) HostResult {
		return c.dispatched(query, target, d)
	})
}

func (c *Coordinator) dispatched(query string, target resolve.Target, dev tailnet.Device) HostResult {
	if !dev.Online {
		c.log.Warn("%s is offline, mussh may not reach it", dev.Name)
	}
	if target.User == "" && c.users != nil {
		target.User = c.users.User(dev.Name)
	}
	return HostResult{
		Query:  query,
		Status: Dispatched,
		Device: dev,
		Target: target.Token(dev.AddressFor(c.cfg.Address)),
	}
}

// settleAmbiguous asks the chooser about each ambiguous query, one at a
// time and in query order.
func (c *Coordinator) settleAmbiguous(hosts []HostResult) ([]HostResult, error) {
	if c.chooser == nil {
		return hosts, nil
	}
	var out []HostResult
	for _, h := range hosts {
		if len(h.candidates) == 0 {
			out = append(out, h)
			continue
		}
		picked, err := c.chooser(h.Query, h.candidates)
		if err != nil {
			return nil, err
		}
		if len(picked) == 0 {
			h.Reason = "nothing picked"
			out = append(out, h)
			continue
		}
		target, _ := resolve.ParseTarget([]string{h.Query})
		for _, d := range picked {
			out = append(out, c.dispatched(h.Query, target, d))
		}
	}
	return out, nil
}

// dedupe skips repeated targets, keeping the first occurrence.
func dedupe(hosts []HostResult) []HostResult {
	first := make(map[string]string)
	out := make([]HostResult, 0, len(hosts))
	for _, h := range hosts {
		if h.Status == Dispatched {
			if q, ok := first[h.Target]; ok {
				h = skipped(h.Query, "same host as "+q)
			} else {
				first[h.Target] = h.Query
			}
		}
		out = append(out, h)
	}
	return out
}

func skipped(query, reason string) HostResult {
	return HostResult{Query: query, Status: Skipped, Reason: reason}
}
