package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
)

// Executor runs a forwarded command and reports its exit status.
type Executor interface {
	Run(ctx context.Context, argv []string) (exitCode int, err error)
}

// ProcessExecutor spawns the tool as a child process sharing the terminal.
type ProcessExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcessExecutor returns an executor wired to the process's own stdio.
func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts argv and waits for it. A non-zero exit is reported through
// exitCode, not err; err means the tool never ran. Interactive sessions get
// no deadline, so ctx is only checked before starting.
//
// SIGINT and SIGQUIT are caught, not ignored, while the child runs: the
// wrapper survives Ctrl-C and the child still starts with default handlers.
func (e *ProcessExecutor) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New(errors.ErrExec, "Nothing to run", "")
	}
	if err := ctx.Err(); err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrExec, "Cancelled before running "+argv[0], "")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return errors.ExitToolNotFound, errors.WrapWithCode(err, errors.ErrToolMissing,
			fmt.Sprintf("%s isn't installed", argv[0]),
			installHint(filepath.Base(argv[0])))
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT)
	runErr := cmd.Run()
	signal.Stop(sigChan)

	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, errors.WrapWithCode(runErr, errors.ErrExec,
		fmt.Sprintf("Couldn't run %s", argv[0]),
		"Make sure the command exists and is executable.")
}

func installHint(tool string) string {
	switch tool {
	case "rsync":
		return "Install rsync with your package manager (apt install rsync, brew install rsync)."
	case "mussh":
		return "Install mussh with your package manager (apt install mussh, brew install mussh)."
	case "ssh-copy-id":
		return "ssh-copy-id ships with the OpenSSH client; install openssh-client (or brew install ssh-copy-id)."
	default:
		return "Install the OpenSSH client (apt install openssh-client, brew install openssh)."
	}
}
