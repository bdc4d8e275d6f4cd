package cli

import (
	"io"
	"os"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/fanout"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/logger"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/ui"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/pkg/sshutil"
	"github.com/spf13/afero"
)

// Env is everything a command touches besides its arguments.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Fs     afero.Fs
	Logger logger.Logger

	// LoadConfig returns the merged file and environment config.
	LoadConfig func() (*config.Config, error)

	// Source replaces `tailscale status --json` when set.
	Source tailnet.Source
	// Executor replaces real process execution when set.
	Executor dispatch.Executor

	// Interactive gates Picker and Chooser.
	Interactive func() bool
	Picker      dispatch.Picker
	Chooser     fanout.Chooser

	// KeyDir is searched for ssh-copy-id keys ("" = ~/.ssh).
	KeyDir string
}

// DefaultEnv wires the real terminal, filesystem and tailscale CLI.
func DefaultEnv(name string) *Env {
	return &Env{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Fs:          afero.NewOsFs(),
		Logger:      logger.NewEnvLogger("[" + name + "]"),
		LoadConfig:  config.LoadOrDefault,
		Interactive: ui.IsInteractive,
		Picker:      ui.PickDevice,
		Chooser:     ui.ChooseDevices,
	}
}

// statusCache puts the per-invocation memo and, if enabled, the shared disk
// cache in front of the status source.
func (e *Env) statusCache(cfg *config.Config, opts Options) *tailnet.Cache {
	source := e.Source
	if source == nil {
		source = tailnet.NewCLISource(cfg.Tailscale, cfg.StatusTimeout)
	}

	cacheOpts := []tailnet.CacheOption{tailnet.WithLogger(e.Logger)}
	if cfg.DiskCacheEnabled() {
		cacheOpts = append(cacheOpts, tailnet.WithDisk(tailnet.NewDiskCache(e.Fs, cfg.Cache.Dir, cfg.Cache.TTL)))
		if opts.NoCache {
			cacheOpts = append(cacheOpts, tailnet.WithoutDiskRead())
		}
	}
	return tailnet.NewCache(source, cacheOpts...)
}

// sshConfig loads ~/.ssh/config for user lookups. An unreadable file only
// costs the lookup, so it is logged and skipped.
func (e *Env) sshConfig(cfg *config.Config) *sshutil.Config {
	sc, err := sshutil.LoadConfig(e.Fs, cfg.SSHConfig)
	if err != nil {
		e.Logger.Warn("ignoring ssh config %s: %v", cfg.SSHConfig, err)
		return nil
	}
	return sc
}

// interactive reports whether ambiguity may be settled by asking.
func (e *Env) interactive(cfg *config.Config, opts Options) bool {
	if !opts.Pick && !cfg.Pick {
		return false
	}
	return e.Interactive != nil && e.Interactive()
}

func (e *Env) dispatchOptions(cfg *config.Config, opts Options) []dispatch.Option {
	dopts := []dispatch.Option{
		dispatch.WithLogger(e.Logger),
		dispatch.WithKeyFinder(dispatch.NewKeyFinder(e.Fs, e.KeyDir)),
	}
	if e.Executor != nil {
		dopts = append(dopts, dispatch.WithExecutor(e.Executor))
	}
	if sc := e.sshConfig(cfg); sc != nil {
		dopts = append(dopts, dispatch.WithUserLookup(sc))
	}
	if e.Picker != nil && e.interactive(cfg, opts) {
		dopts = append(dopts, dispatch.WithPicker(e.Picker))
	}
	if opts.DryRun {
		dopts = append(dopts, dispatch.WithDryRun(e.Stdout))
	}
	return dopts
}

func (e *Env) fanoutOptions(cfg *config.Config, opts Options) []fanout.Option {
	fopts := []fanout.Option{fanout.WithLogger(e.Logger)}
	if e.Executor != nil {
		fopts = append(fopts, fanout.WithExecutor(e.Executor))
	}
	if sc := e.sshConfig(cfg); sc != nil {
		fopts = append(fopts, fanout.WithUserLookup(sc))
	}
	if e.Chooser != nil && e.interactive(cfg, opts) {
		fopts = append(fopts, fanout.WithChooser(e.Chooser))
	}
	if opts.DryRun {
		fopts = append(fopts, fanout.WithDryRun(e.Stdout))
	}
	return fopts
}
