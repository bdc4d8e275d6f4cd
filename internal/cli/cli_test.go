package cli

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
	dtesting "github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch/testing"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/logger"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	tntesting "github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet/testing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

type testEnv struct {
	*Env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	exec   *dtesting.FakeExecutor
	source *tntesting.FakeSource
	cfg    *config.Config
}

func newTestEnv(devices ...tailnet.Device) *testEnv {
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = "/cache"
	cfg.SSHConfig = "/home/me/.ssh/config"

	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		exec:   dtesting.NewFakeExecutor(),
		source: tntesting.NewFakeSource(devices...),
		cfg:    cfg,
	}
	te.Env = &Env{
		Stdout:      te.stdout,
		Stderr:      te.stderr,
		Fs:          afero.NewMemMapFs(),
		Logger:      logger.NewBufferLogger(),
		LoadConfig:  func() (*config.Config, error) { return te.cfg, nil },
		Source:      te.source,
		Executor:    te.exec,
		Interactive: func() bool { return false },
		KeyDir:      "/home/me/.ssh",
	}
	return te
}

func (te *testEnv) run(name string, args ...string) int {
	return Run(context.Background(), name, args, te.Env)
}

func tailnetDevices() []tailnet.Device {
	return []tailnet.Device{
		tntesting.Online("web-1", 1, "tag:web"),
		tntesting.Online("web-2", 2, "tag:web"),
		tntesting.Online("db", 3),
	}
}

func TestRun_SSHRewritesHost(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	code := te.run("tssh", "-p", "2222", "root@DB", "uptime")

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"ssh", "-p", "2222", "root@100.64.0.3", "uptime"}, te.exec.Last())
}

func TestRun_TSIsSSH(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("ts", "web-1"))
	assert.Equal(t, []string{"ssh", "100.64.0.1"}, te.exec.Last())
}

func TestRun_UnknownHostPassesThrough(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("tssh", "unknown-host"))
	assert.Equal(t, []string{"ssh", "unknown-host"}, te.exec.Last())
}

func TestRun_SCPRewritesOnlyHosts(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("tscp", "my file.txt", "web-1:/tmp/a b"))
	assert.Equal(t, []string{"scp", "my file.txt", "100.64.0.1:/tmp/a b"}, te.exec.Last())
}

func TestRun_MirrorsToolExitCode(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	te.exec.ExitCode = 255

	assert.Equal(t, 255, te.run("tssh", "web-1"))
	assert.Empty(t, te.stderr.String(), "the tool reports its own failure")
}

func TestRun_AmbiguousFailsWithoutRunning(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	code := te.run("tssh", "web")

	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, te.stderr.String(), "web-1, web-2")
	assert.Equal(t, 0, te.exec.CallCount())
}

func TestRun_PickerUsedWhenInteractive(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	te.Interactive = func() bool { return true }
	te.Picker = func(query string, candidates []tailnet.Device) (tailnet.Device, error) {
		return candidates[1], nil
	}

	assert.Equal(t, 0, te.run("tssh", "--ts-pick", "web"))
	assert.Equal(t, []string{"ssh", "100.64.0.2"}, te.exec.Last())
}

func TestRun_PickerNotUsedWithoutTerminal(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	te.cfg.Pick = true
	te.Picker = func(string, []tailnet.Device) (tailnet.Device, error) {
		t.Fatal("picker must not run without a terminal")
		return tailnet.Device{}, nil
	}

	assert.Equal(t, errors.ExitFailure, te.run("tssh", "web"))
}

func TestRun_DryRunPrintsCommand(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("tssh", "--ts-dry-run", "web-1", "echo hi"))
	assert.Equal(t, "ssh 100.64.0.1 'echo hi'\n", te.stdout.String())
	assert.Equal(t, 0, te.exec.CallCount())
}

func TestRun_SourceUnavailableIsFatal(t *testing.T) {
	te := newTestEnv()
	te.Source = tntesting.NewFailingSource(errors.New(errors.ErrSourceUnavailable, "Tailscale isn't running", "Start it with: tailscale up"))

	code := te.run("tssh", "web-1")

	assert.Equal(t, errors.ExitFailure, code)
	assert.Contains(t, te.stderr.String(), "Tailscale isn't running")
	assert.Equal(t, 0, te.exec.CallCount())
}

func TestRun_ToolMissing(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	te.exec.Err = errors.New(errors.ErrToolMissing, "ssh isn't installed", "")

	assert.Equal(t, errors.ExitToolNotFound, te.run("tssh", "web-1"))
	assert.Contains(t, te.stderr.String(), "ssh isn't installed")
}

func TestRun_Help(t *testing.T) {
	te := newTestEnv()

	assert.Equal(t, 0, te.run("trsync", "--help"))
	assert.Contains(t, te.stdout.String(), "trsync [rsync options]")
	assert.Contains(t, te.stdout.String(), "--ts-dry-run")
	assert.Equal(t, 0, te.source.Calls, "help never asks tailscale")
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	te := newTestEnv()

	assert.Equal(t, errors.ExitUsage, te.run("tssh"))
	assert.Contains(t, te.stderr.String(), "Usage:")
	assert.Equal(t, 0, te.exec.CallCount())
}

func TestRun_Version(t *testing.T) {
	orig := version
	defer func() { version = orig }()
	version = "1.2.3"

	te := newTestEnv()
	assert.Equal(t, 0, te.run("ts", "--version"))
	assert.Equal(t, "ts version 1.2.3\n", te.stdout.String())
}

func TestRun_VersionOnlyForTS(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("tssh", "--version"))
	assert.Equal(t, []string{"ssh", "--version"}, te.exec.Last())
}

func TestRun_UnknownCommand(t *testing.T) {
	te := newTestEnv()

	assert.Equal(t, errors.ExitUsage, te.run("tsfoo", "x"))
	assert.Contains(t, te.stderr.String(), "tsfoo isn't one of the helper commands")
}

func TestRun_CommandNameFromPath(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("/usr/local/bin/tscp.exe", "web-1:a", "."))
	assert.Equal(t, []string{"scp", "100.64.0.1:a", "."}, te.exec.Last())
}

func TestRun_CopyIDUsesPreferredKey(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	require.NoError(t, afero.WriteFile(te.Fs, "/home/me/.ssh/id_ed25519", []byte("private"), 0o600))
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(te.Fs, "/home/me/.ssh/id_ed25519.pub", ssh.MarshalAuthorizedKey(sshPub), 0o644))

	assert.Equal(t, 0, te.run("tssh_copy_id", "web-1"))
	assert.Equal(t, []string{"ssh-copy-id", "-i", "/home/me/.ssh/id_ed25519.pub", "100.64.0.1"}, te.exec.Last())
}

func TestRun_SSHConfigUser(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	require.NoError(t, afero.WriteFile(te.Fs, "/home/me/.ssh/config",
		[]byte("Host web-1\n  User deploy\n"), 0o600))

	assert.Equal(t, 0, te.run("tssh", "web-1"))
	assert.Equal(t, []string{"ssh", "deploy@100.64.0.1"}, te.exec.Last())
}

func TestRun_Mussh(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	code := te.run("tmussh", "-h", "web-1", "nope", "db", "-c", "uptime")

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"mussh", "-h", "100.64.0.1", "100.64.0.3", "-c", "uptime"}, te.exec.Last())
}

func TestRun_MusshExitCodeAndUsage(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	te.exec.ExitCode = 3
	assert.Equal(t, 3, te.run("tmussh", "-h", "tag:web", "-c", "false"))

	te = newTestEnv(tailnetDevices()...)
	assert.Equal(t, errors.ExitUsage, te.run("tmussh", "-c", "uptime"))
	assert.Contains(t, te.stderr.String(), "No hosts given")
}

func TestRun_MusshDryRunShowsSummary(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)

	assert.Equal(t, 0, te.run("tmussh", "--ts-dry-run", "-h", "web-1", "nope", "-c", "uptime"))
	assert.Equal(t, "mussh -h 100.64.0.1 -c uptime\n", te.stdout.String())
	assert.Contains(t, te.stderr.String(), "1 dispatched")
	assert.Equal(t, 0, te.exec.CallCount())
}

func TestRun_DiskCacheSharedBetweenRuns(t *testing.T) {
	te := newTestEnv(tailnetDevices()...)
	te.cfg.Cache.TTL = time.Hour

	require.Equal(t, 0, te.run("tssh", "web-1"))
	require.Equal(t, 0, te.run("tssh", "web-2"))
	assert.Equal(t, 1, te.source.Calls, "second run reads the disk cache")

	require.Equal(t, 0, te.run("tssh", "--ts-no-cache", "db"))
	assert.Equal(t, 2, te.source.Calls)
}

func TestRun_ConfigError(t *testing.T) {
	te := newTestEnv()
	te.LoadConfig = func() (*config.Config, error) {
		return nil, errors.New(errors.ErrConfig, "'ipv5' isn't a valid address mode", "Use one of: ipv4, ipv6, dns")
	}

	assert.Equal(t, errors.ExitFailure, te.run("tssh", "web-1"))
	assert.Contains(t, te.stderr.String(), "ipv5")
}
