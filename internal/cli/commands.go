package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/complete"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/fanout"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/spf13/cobra"
)

// commandHelp is the usage text for each family.
var commandHelp = map[dispatch.Family]struct {
	use, short, example string
}{
	dispatch.SSH: {
		use:   "[ssh options] [user@]host [command]",
		short: "ssh to a tailnet device by name",
		example: `  tssh web-1
  tssh root@web -p 2222
  ts db uptime`,
	},
	dispatch.SCP: {
		use:   "[scp options] source... target",
		short: "scp to and from tailnet devices by name",
		example: `  tscp notes.txt web-1:/tmp/
  tscp -r root@db:/var/log/app ./logs`,
	},
	dispatch.SFTP: {
		use:   "[sftp options] [user@]host[:path]",
		short: "sftp to a tailnet device by name",
		example: `  tsftp web-1
  tsftp deploy@web-1:/srv`,
	},
	dispatch.Rsync: {
		use:   "[rsync options] source... target",
		short: "rsync to and from tailnet devices by name",
		example: `  trsync -av ./site/ web-1:/srv/site/
  trsync -az root@db:/backups/ ./backups/`,
	},
	dispatch.CopyID: {
		use:   "[ssh-copy-id options] [user@]host",
		short: "Install your public key on a tailnet device",
		example: `  tssh_copy_id web-1
  tssh_copy_id -i ~/.ssh/id_rsa.pub root@db`,
	},
	dispatch.Mussh: {
		use:   "-h host|tag:name... [mussh options] -c command",
		short: "Run a command on many tailnet devices with mussh",
		example: `  tmussh -h web-1 web-2 -c uptime
  tmussh -h tag:web -m -c "systemctl restart app"`,
	},
}

const helperFlagsHelp = `Helper flags (removed before the command is forwarded):
  --ts-dry-run           print the rewritten command instead of running it
  --ts-pick              choose interactively when a name matches several devices
  --ts-no-cache          ignore the cached device list
  --ts-completion SHELL  print a completion script (bash, zsh, fish, powershell)`

// NewCommand builds the root command for the helper called name. Flag
// parsing is disabled: every argument except the helper's own flags belongs
// to the underlying tool.
func NewCommand(name string, family dispatch.Family, env *Env) *cobra.Command {
	help := commandHelp[family]
	long := help.short + ".\n\n" +
		"Host names are matched against your tailnet (exact, then prefix, then\n" +
		"substring, ignoring case) and replaced with the device's address.\n" +
		"Anything that matches no device is passed through unchanged.\n\n" +
		helperFlagsHelp
	if name == "ts" {
		long += "\n\n  ts --list [table|json|yaml]  list tailnet devices\n  ts --version                 print the version"
	}

	cmd := &cobra.Command{
		Use:                name + " " + help.use,
		Short:              help.short,
		Long:               long,
		Example:            help.example,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, name, family, env, args)
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completeArgs(name, family, env, args, toComplete)
		},
	}
	// Declared so cobra doesn't add -h, which tmussh needs; hidden so
	// completion leaves it to complete.Complete.
	cmd.Flags().Bool("help", false, "show usage")
	_ = cmd.Flags().MarkHidden("help")

	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	return cmd
}

func run(cmd *cobra.Command, name string, family dispatch.Family, env *Env, args []string) error {
	opts, rest, err := ParseOptions(name, args)
	if err != nil {
		return err
	}

	switch {
	case opts.Help:
		return cmd.Help()
	case opts.Version:
		fmt.Fprintln(env.Stdout, versionLine(name))
		return nil
	case opts.Completion != "":
		return writeCompletion(cmd, opts.Completion, env.Stdout)
	case !opts.List && len(rest) == 0:
		fmt.Fprint(env.Stderr, cmd.UsageString())
		return errors.NewExitError(errors.ExitUsage)
	}

	cfg, err := env.LoadConfig()
	if err != nil {
		return err
	}
	cache := env.statusCache(cfg, opts)
	ctx := cmd.Context()

	if opts.List {
		return runList(ctx, env.Stdout, cache, opts.ListFormat)
	}
	if family == dispatch.Mussh {
		return runFanout(ctx, env, cfg, cache, opts, rest)
	}

	code, err := dispatch.New(cache, cfg, env.dispatchOptions(cfg, opts)...).Dispatch(ctx, family, rest)
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.NewExitError(code)
	}
	return nil
}

func runFanout(ctx context.Context, env *Env, cfg *config.Config, lister tailnet.Lister, opts Options, args []string) error {
	summary, err := fanout.New(lister, cfg, env.fanoutOptions(cfg, opts)...).Run(ctx, args)
	if opts.DryRun && summary != nil {
		fanout.RenderSummaryTo(env.Stderr, summary)
	}
	if err != nil {
		return err
	}
	if summary.ExitCode != 0 {
		return errors.NewExitError(summary.ExitCode)
	}
	return nil
}

func writeCompletion(cmd *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return cmd.GenBashCompletionV2(w, true)
	case "zsh":
		return cmd.GenZshCompletion(w)
	case "fish":
		return cmd.GenFishCompletion(w, true)
	case "powershell":
		return cmd.GenPowerShellCompletionWithDesc(w)
	default:
		return usageError(fmt.Sprintf("Can't generate completion for %q", shell),
			"Use one of: "+strings.Join(completionShells, ", "))
	}
}

// completeArgs serves cobra's __complete requests from whatever device list
// is already cached; completion never waits on tailscale.
func completeArgs(name string, family dispatch.Family, env *Env, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if n := len(args); n > 0 {
		switch {
		case args[n-1] == "--ts-completion":
			return completionShells, cobra.ShellCompDirectiveNoFileComp
		case name == "ts" && n == 1 && args[0] == "--list":
			return listFormats, cobra.ShellCompDirectiveNoFileComp
		}
	}

	_, rest, err := ParseOptions(name, args)
	if err != nil {
		rest = args
	}

	var devices []tailnet.Device
	if cfg, err := env.LoadConfig(); err == nil && cfg.DiskCacheEnabled() {
		devices, _ = env.statusCache(cfg, Options{}).Peek()
	}

	candidates := complete.Complete(toComplete, complete.Context{Family: family, Args: rest}, devices)
	switch {
	case len(candidates) == 0:
		return nil, cobra.ShellCompDirectiveDefault
	case family.MultiHost() && !strings.HasPrefix(toComplete, "-"):
		// host: is followed directly by a path.
		return candidates, cobra.ShellCompDirectiveNoSpace
	default:
		return candidates, cobra.ShellCompDirectiveNoFileComp
	}
}

// Main runs the helper called name (argv[0] is fine) and returns the
// process exit status.
func Main(name string, args []string) int {
	name = commandName(name)
	return Run(context.Background(), name, args, DefaultEnv(name))
}

// Run executes one helper invocation against env. Errors are printed to
// env.Stderr, except forwarded tool exit statuses, which the tool has
// already reported.
func Run(ctx context.Context, name string, args []string, env *Env) int {
	name = commandName(name)
	family, ok := dispatch.FamilyForCommand(name)
	if !ok {
		fmt.Fprint(env.Stderr, usageError(fmt.Sprintf("%s isn't one of the helper commands", name),
			"Run one of: ts, tssh, tscp, tsftp, trsync, tssh_copy_id, tmussh").Error())
		return errors.ExitUsage
	}

	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	cmd := NewCommand(name, family, env)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if _, forwarded := errors.GetExitCode(err); !forwarded {
		fmt.Fprint(env.Stderr, err.Error())
	}
	return errors.ExitCode(err)
}

// commandName strips the directory and a Windows .exe suffix from argv[0].
func commandName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), ".exe")
}
