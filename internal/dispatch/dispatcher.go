// Package dispatch turns a helper command line into the underlying tool's
// command line and runs it.
//
// Only the host component of a target is ever touched: flags, remote
// commands and paths reach ssh, scp, sftp, rsync or ssh-copy-id exactly as
// typed. A host that matches no tailnet device is left alone, so the helpers
// are safe to use for any destination.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/logger"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/resolve"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/spf13/afero"
)

// Picker chooses one device among ambiguous candidates.
type Picker func(query string, candidates []tailnet.Device) (tailnet.Device, error)

// UserLookup returns the login configured for a host alias, or "".
// *sshutil.Config implements it.
type UserLookup interface {
	User(alias string) string
}

// Dispatcher resolves targets and forwards to the configured tools.
type Dispatcher struct {
	lister tailnet.Lister
	cfg    *config.Config
	log    logger.Logger
	exec   Executor
	users  UserLookup
	keys   *KeyFinder
	picker Picker
	dryRun bool
	out    io.Writer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for warnings about offline or unreadable state.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(d *Dispatcher) { d.exec = e }
}

// WithUserLookup enables re-attaching ssh_config users to rewritten hosts.
func WithUserLookup(u UserLookup) Option {
	return func(d *Dispatcher) { d.users = u }
}

// WithKeyFinder sets where ssh-copy-id keys are looked up.
func WithKeyFinder(k *KeyFinder) Option {
	return func(d *Dispatcher) { d.keys = k }
}

// WithPicker resolves ambiguous targets interactively instead of failing.
func WithPicker(p Picker) Option {
	return func(d *Dispatcher) { d.picker = p }
}

// WithDryRun prints plans to w instead of running them.
func WithDryRun(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.dryRun = true
		d.out = w
	}
}

// New creates a dispatcher reading devices from lister.
func New(lister tailnet.Lister, cfg *config.Config, opts ...Option) *Dispatcher {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Dispatcher{
		lister: lister,
		cfg:    cfg,
		log:    logger.Noop(),
		exec:   NewProcessExecutor(),
		keys:   NewKeyFinder(afero.NewOsFs(), ""),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch plans and runs one command, returning the tool's exit status.
// When err is non-nil nothing was run and code is the helper's own status.
func (d *Dispatcher) Dispatch(ctx context.Context, family Family, args []string) (int, error) {
	plan, err := d.Plan(ctx, family, args)
	if err != nil {
		return errors.ExitCode(err), err
	}

	if d.dryRun {
		fmt.Fprintln(d.out, plan.String())
		return 0, nil
	}

	d.log.Debug("running %s", plan)
	return d.exec.Run(ctx, plan.Argv())
}

// Plan resolves the host tokens in args and returns the rewritten command.
// Device status is only fetched when an argument could name a host.
func (d *Dispatcher) Plan(ctx context.Context, family Family, args []string) (*Plan, error) {
	switch family {
	case SSH, SFTP, CopyID:
		return d.planDestination(ctx, family, args)
	case SCP, Rsync:
		return d.planRemotePaths(ctx, family, args)
	case Mussh:
		return nil, errors.New(errors.ErrUsage,
			"mussh takes a host list, not a single target",
			"Use tmussh -h host... -c command.")
	default:
		return nil, errors.New(errors.ErrUsage, fmt.Sprintf("Unknown command family %d", int(family)), "")
	}
}

func (d *Dispatcher) newPlan(family Family, args []string) *Plan {
	return &Plan{
		Family:        family,
		Binary:        family.Binary(d.cfg.Tools),
		RewrittenArgs: append([]string(nil), args...),
	}
}

// planDestination rewrites the first operand of ssh, sftp and ssh-copy-id.
func (d *Dispatcher) planDestination(ctx context.Context, family Family, args []string) (*Plan, error) {
	plan := d.newPlan(family, args)
	sc := newScanner(family, plan.RewrittenArgs)
	idx := sc.operands(true)
	if len(idx) == 0 {
		// No destination; let the tool print its usage.
		return plan, nil
	}

	i := idx[0]
	op, ok := parseDestination(family, plan.RewrittenArgs[i])
	if !ok {
		return plan, nil
	}
	op.target.Remainder = plan.RewrittenArgs[i+1:]

	s := &session{d: d, ctx: ctx, family: family}
	dev, err := s.lookup(op.target.HostQuery)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return plan, nil
	}

	var identity []string
	if family == CopyID && !sc.hasOption('i') {
		if identity, err = d.identity(); err != nil {
			return nil, err
		}
	}

	loginGiven := (family == SSH && sc.hasOption('l')) || hasSSHOption(plan.RewrittenArgs[:i], "User")
	if op.target.User == "" && !loginGiven {
		op.target.User = d.configuredUser(dev.Name)
	}

	addr := dev.AddressFor(d.cfg.Address)
	plan.rewrite(i, op.token(addr), *dev, addr)
	if len(op.target.Remainder) > 0 {
		d.log.Debug("%s: %d argument(s) after %s left as typed", family, len(op.target.Remainder), dev.Name)
	}
	plan.prepend(identity...)
	return plan, nil
}

// planRemotePaths rewrites every host:path operand of scp and rsync.
func (d *Dispatcher) planRemotePaths(ctx context.Context, family Family, args []string) (*Plan, error) {
	plan := d.newPlan(family, args)
	sc := newScanner(family, plan.RewrittenArgs)
	userOption := hasSSHOption(plan.RewrittenArgs, "User")

	s := &session{d: d, ctx: ctx, family: family}
	for _, i := range sc.operands(false) {
		op, ok := parseRemotePath(plan.RewrittenArgs[i])
		if !ok {
			continue
		}
		dev, err := s.lookup(op.target.HostQuery)
		if err != nil {
			return nil, err
		}
		if dev == nil {
			continue
		}
		if op.target.User == "" && !userOption {
			op.target.User = d.configuredUser(dev.Name)
		}
		addr := dev.AddressFor(d.cfg.Address)
		plan.rewrite(i, op.token(addr), *dev, addr)
	}
	return plan, nil
}

func (d *Dispatcher) configuredUser(name string) string {
	if d.users == nil {
		return ""
	}
	return d.users.User(name)
}

// identity returns -i with the preferred local public key, or nothing when
// there is none. The key is parsed first so a corrupt file fails here rather
// than on the remote host. Only called once the host resolved to a device.
func (d *Dispatcher) identity() ([]string, error) {
	if d.keys == nil {
		return nil, nil
	}
	key := d.keys.Preferred()
	if key == nil {
		d.log.Debug("no local SSH key found, leaving key choice to ssh-copy-id")
		return nil, nil
	}
	if _, err := d.keys.ReadPublicKey(key.PublicPath); err != nil {
		return nil, err
	}
	return []string{"-i", key.PublicPath}, nil
}

// session resolves the hosts of one command line, fetching the device list
// at most once and only when needed.
type session struct {
	d       *Dispatcher
	ctx     context.Context
	family  Family
	loaded  bool
	devices []tailnet.Device
}

// lookup returns the device query names, or nil when the query should pass
// through unchanged.
func (s *session) lookup(query string) (*tailnet.Device, error) {
	if query == "" {
		return nil, nil
	}
	if !s.loaded {
		s.loaded = true
		devices, err := s.d.lister.Devices(s.ctx)
		switch {
		case err == nil:
			s.devices = devices
		case tailnet.IsSourceError(err):
			s.d.log.Warn("couldn't read tailscale status, using hosts as typed: %v", err)
		default:
			return nil, err
		}
	}

	res := resolve.Resolve(query, s.devices)
	var dev tailnet.Device
	switch res.Kind {
	case resolve.NoMatch:
		s.d.log.Debug("%q matches no tailnet device, passing it through", query)
		return nil, nil
	case resolve.UniqueMatch:
		dev = res.Device()
	case resolve.AmbiguousMatch:
		picked, err := s.pick(res)
		if err != nil {
			return nil, err
		}
		dev = picked
	}

	if !dev.Online {
		if s.family == CopyID {
			return nil, errors.New(errors.ErrUnreachable,
				fmt.Sprintf("%s is offline", dev.Name),
				"ssh-copy-id needs the device online. Check it with: tailscale status")
		}
		s.d.log.Warn("%s is offline, %s may not be able to connect", dev.Name, s.family)
	}
	s.d.log.Debug("%q resolved to %s (%s match)", query, dev.Name, res.Tier)
	return &dev, nil
}

func (s *session) pick(res resolve.Result) (tailnet.Device, error) {
	if s.d.picker != nil {
		return s.d.picker(res.Query, res.Matches)
	}
	return tailnet.Device{}, AmbiguousError(res)
}

// AmbiguousError reports the candidates of an ambiguous query.
func AmbiguousError(res resolve.Result) error {
	return errors.New(errors.ErrAmbiguous,
		fmt.Sprintf("%q matches %d devices: %s", res.Query, len(res.Matches), strings.Join(res.Names(), ", ")),
		"Type more of the name, or add --ts-pick to choose interactively.")
}
