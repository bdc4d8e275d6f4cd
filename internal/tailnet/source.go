package tailnet

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
)

// Source produces raw `tailscale status --json` output.
type Source interface {
	Status(ctx context.Context) ([]byte, error)
}

// CLISource runs the tailscale CLI.
type CLISource struct {
	Binary  string        // tailscale binary name or path
	Timeout time.Duration // bound on one status call (0 = none)
}

// NewCLISource creates a source that runs binary with the given timeout.
func NewCLISource(binary string, timeout time.Duration) *CLISource {
	return &CLISource{Binary: binary, Timeout: timeout}
}

// Status runs `tailscale status --json` and returns its stdout.
// A missing binary, a failing command or a timeout is ErrSourceUnavailable.
func (s *CLISource) Status(ctx context.Context) ([]byte, error) {
	bin, err := exec.LookPath(s.Binary)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSourceUnavailable,
			"Tailscale isn't installed",
			"Install it from https://tailscale.com/download, or set 'tailscale' in the config to its path")
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "status", "--json")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrSourceUnavailable,
				fmt.Sprintf("'tailscale status' didn't answer within %s", s.Timeout),
				"Check that tailscaled is healthy: tailscale status")
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, errors.WrapWithCode(fmt.Errorf("%s", detail), errors.ErrSourceUnavailable,
			"Couldn't get the device list from Tailscale",
			"Make sure tailscaled is running and you're logged in: tailscale up")
	}

	return stdout.Bytes(), nil
}
