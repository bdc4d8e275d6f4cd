package cli

import (
	"fmt"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/samber/lo"
)

// Options are the helper's own flags. They are removed from the command
// line before anything reaches the underlying tool.
type Options struct {
	DryRun     bool
	Pick       bool
	NoCache    bool
	Completion string

	Help    bool
	Version bool

	List       bool
	ListFormat string
}

var (
	completionShells = []string{"bash", "zsh", "fish", "powershell"}
	listFormats      = []string{"table", "json", "yaml"}
)

// ParseOptions strips helper flags from args and returns what is left, in
// order. --ts-* flags are recognized anywhere before a "--". --help, and for
// ts also --version and --list, only count as the first argument: anywhere
// else they belong to the tool or to the remote command.
func ParseOptions(name string, args []string) (Options, []string, error) {
	var opts Options
	isTS := name == "ts"

	if len(args) > 0 {
		first := args[0]
		switch {
		case first == "--help":
			opts.Help = true
			return opts, nil, nil
		case isTS && first == "--version":
			opts.Version = true
			return opts, nil, nil
		case isTS && (first == "--list" || strings.HasPrefix(first, "--list=")):
			return parseList(args)
		}
	}

	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return opts, append(rest, args[i:]...), nil
		case arg == "--ts-dry-run":
			opts.DryRun = true
		case arg == "--ts-pick":
			opts.Pick = true
		case arg == "--ts-no-cache":
			opts.NoCache = true
		case arg == "--ts-completion":
			if i+1 >= len(args) {
				return Options{}, nil, usageError("--ts-completion needs a shell",
					"Use one of: "+strings.Join(completionShells, ", "))
			}
			i++
			opts.Completion = args[i]
		case strings.HasPrefix(arg, "--ts-completion="):
			opts.Completion = strings.TrimPrefix(arg, "--ts-completion=")
		case strings.HasPrefix(arg, "--ts-"):
			return Options{}, nil, usageError(fmt.Sprintf("Unknown helper flag %s", arg),
				"Helper flags are --ts-dry-run, --ts-pick, --ts-no-cache and --ts-completion.")
		default:
			rest = append(rest, arg)
		}
	}

	if opts.Completion != "" && !lo.Contains(completionShells, opts.Completion) {
		return Options{}, nil, usageError(fmt.Sprintf("Can't generate completion for %q", opts.Completion),
			"Use one of: "+strings.Join(completionShells, ", "))
	}
	return opts, rest, nil
}

// parseList handles `ts --list [format]` and `ts --list=format`.
func parseList(args []string) (Options, []string, error) {
	opts := Options{List: true, ListFormat: "table"}
	rest := args[1:]

	if format, ok := strings.CutPrefix(args[0], "--list="); ok {
		opts.ListFormat = format
	} else if len(rest) > 0 {
		opts.ListFormat = rest[0]
		rest = rest[1:]
	}

	if !lo.Contains(listFormats, opts.ListFormat) {
		return Options{}, nil, usageError(fmt.Sprintf("Unknown list format %q", opts.ListFormat),
			"Use one of: "+strings.Join(listFormats, ", "))
	}
	if len(rest) > 0 {
		return Options{}, nil, usageError("--list takes no other arguments",
			"Usage: ts --list [table|json|yaml]")
	}
	return opts, nil, nil
}

func usageError(message, suggestion string) error {
	return errors.New(errors.ErrUsage, message, suggestion)
}
