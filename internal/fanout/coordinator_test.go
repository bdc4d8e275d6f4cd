package fanout

import (
	"bytes"
	"context"
	"testing"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/config"
	dtesting "github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/dispatch/testing"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/logger"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	tntesting "github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userMap map[string]string

func (m userMap) User(alias string) string { return m[alias] }

func fleet() *tntesting.FakeLister {
	return tntesting.NewFakeLister(
		tntesting.Online("good1", 1, "tag:web"),
		tntesting.Online("good2", 2, "tag:web"),
		tntesting.Online("db-primary", 3, "tag:db"),
		tntesting.Online("db-replica", 4, "tag:db"),
		tntesting.Offline("web-old", 5, "tag:web"),
	)
}

type fixture struct {
	c    *Coordinator
	exec *dtesting.FakeExecutor
	log  *logger.BufferLogger
}

func newFixture(lister tailnet.Lister, opts ...Option) *fixture {
	f := &fixture{
		exec: dtesting.NewFakeExecutor(),
		log:  logger.NewBufferLogger(),
	}
	base := []Option{WithExecutor(f.exec), WithLogger(f.log)}
	f.c = New(lister, config.DefaultConfig(), append(base, opts...)...)
	return f
}

func (f *fixture) warnings() []string {
	var out []string
	for _, m := range f.log.Messages {
		if m.Level == "warn" {
			out = append(out, m.Message)
		}
	}
	return out
}

func TestDispatchMany_SkipsUnresolvedAndRunsTheRest(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"good1", "bad", "good2"}, []string{"-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, []string{"mussh", "-h", "100.64.0.1", "100.64.0.2", "-c", "uptime"}, f.exec.Last())
	assert.Equal(t, []string{"100.64.0.1", "100.64.0.2"}, s.Targets())
	require.Len(t, s.Skipped(), 1)
	assert.Equal(t, "bad", s.Skipped()[0].Query)
	assert.True(t, s.Ran)
	assert.Contains(t, f.warnings(), "skipping bad: no tailnet device matches")
}

func TestDispatchMany_AmbiguousIsSkippedWithoutChooser(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"db", "good1"}, []string{"-c", "df"})
	require.NoError(t, err)

	assert.Equal(t, []string{"100.64.0.1"}, s.Targets())
	require.Len(t, s.Skipped(), 1)
	assert.Equal(t, "matches several devices: db-primary, db-replica", s.Skipped()[0].Reason)
}

func TestDispatchMany_ChooserSettlesAmbiguous(t *testing.T) {
	var asked []string
	chooser := func(query string, candidates []tailnet.Device) ([]tailnet.Device, error) {
		asked = append(asked, query)
		return candidates[1:], nil
	}
	f := newFixture(fleet(), WithChooser(chooser))

	s, err := f.c.DispatchMany(context.Background(), []string{"db", "good1"}, []string{"-c", "df"})
	require.NoError(t, err)

	assert.Equal(t, []string{"db"}, asked)
	assert.Equal(t, []string{"100.64.0.4", "100.64.0.1"}, s.Targets())
	assert.Empty(t, s.Skipped())
}

func TestDispatchMany_ChooserPickingNothingSkips(t *testing.T) {
	chooser := func(string, []tailnet.Device) ([]tailnet.Device, error) { return nil, nil }
	f := newFixture(fleet(), WithChooser(chooser))

	s, err := f.c.DispatchMany(context.Background(), []string{"db", "good1"}, []string{"-c", "df"})
	require.NoError(t, err)

	require.Len(t, s.Skipped(), 1)
	assert.Equal(t, "nothing picked", s.Skipped()[0].Reason)
}

func TestDispatchMany_ChooserErrorAborts(t *testing.T) {
	chooser := func(string, []tailnet.Device) ([]tailnet.Device, error) {
		return nil, errors.New(errors.ErrAmbiguous, "cancelled", "")
	}
	f := newFixture(fleet(), WithChooser(chooser))

	_, err := f.c.DispatchMany(context.Background(), []string{"db"}, []string{"-c", "df"})

	assert.True(t, errors.IsCode(err, errors.ErrAmbiguous))
	assert.Equal(t, 0, f.exec.CallCount())
}

func TestDispatchMany_TagExpandsToOnlineDevices(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"tag:web"}, []string{"-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, []string{"100.64.0.1", "100.64.0.2"}, s.Targets(), "offline web-old is left out")
	for _, h := range s.Dispatched() {
		assert.Equal(t, "tag:web", h.Query)
	}
}

func TestDispatchMany_TagPrefixIgnoresCase(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"TAG:web", "root@Tag:DB"}, []string{"-c", "uptime"})
	require.NoError(t, err)

	assert.Empty(t, s.Skipped())
	assert.Equal(t, []string{"100.64.0.1", "100.64.0.2", "root@100.64.0.3", "root@100.64.0.4"}, s.Targets())
}

func TestDispatchMany_UnknownTagIsSkipped(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"tag:nope", "good1"}, []string{"-c", "uptime"})
	require.NoError(t, err)

	require.Len(t, s.Skipped(), 1)
	assert.Equal(t, "no online device is tagged tag:nope", s.Skipped()[0].Reason)
}

func TestDispatchMany_DeduplicatesTargets(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"good1", "tag:web", "GOOD1"}, []string{"-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, []string{"100.64.0.1", "100.64.0.2"}, s.Targets())
	require.Len(t, s.Skipped(), 2)
	assert.Equal(t, "same host as good1", s.Skipped()[0].Reason)
	assert.Equal(t, "GOOD1", s.Skipped()[1].Query)
}

func TestDispatchMany_UserPrefixAndSSHConfigUser(t *testing.T) {
	f := newFixture(fleet(), WithUserLookup(userMap{"good2": "deploy"}))

	s, err := f.c.DispatchMany(context.Background(), []string{"root@good1", "good2"}, []string{"-c", "id"})
	require.NoError(t, err)

	assert.Equal(t, []string{"root@100.64.0.1", "deploy@100.64.0.2"}, s.Targets())
}

func TestDispatchMany_OfflineDeviceWarns(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"web-old"}, []string{"-c", "id"})
	require.NoError(t, err)

	assert.Equal(t, []string{"100.64.0.5"}, s.Targets())
	assert.Contains(t, f.warnings(), "web-old is offline, mussh may not reach it")
}

func TestDispatchMany_NothingResolvableDoesNotRun(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"bad1", "bad2"}, []string{"-c", "uptime"})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "bad1: no tailnet device matches")
	assert.Contains(t, err.Error(), "bad2: no tailnet device matches")
	require.NotNil(t, s)
	assert.False(t, s.Ran)
	assert.Equal(t, 0, f.exec.CallCount())
}

func TestDispatchMany_HostFileAloneStillRuns(t *testing.T) {
	f := newFixture(fleet())

	s, err := f.c.DispatchMany(context.Background(), []string{"bad"}, []string{"-H", "hosts.txt", "-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, []string{"mussh", "-H", "hosts.txt", "-c", "uptime"}, f.exec.Last())
	assert.Empty(t, s.Targets())
}

func TestDispatchMany_SourceErrorPassesHostnamesThrough(t *testing.T) {
	lister := tntesting.NewFailingLister(errors.New(errors.ErrSource, "bad status", ""))
	f := newFixture(lister)

	s, err := f.c.DispatchMany(context.Background(),
		[]string{"web.example.com", "tag:web", "bad host!"}, []string{"-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, []string{"web.example.com"}, s.Targets())
	assert.Len(t, s.Skipped(), 2)
}

func TestDispatchMany_SourceUnavailableIsFatal(t *testing.T) {
	lister := tntesting.NewFailingLister(errors.New(errors.ErrSourceUnavailable, "tailscale is stopped", ""))
	f := newFixture(lister)

	_, err := f.c.DispatchMany(context.Background(), []string{"good1"}, []string{"-c", "uptime"})

	assert.True(t, errors.IsCode(err, errors.ErrSourceUnavailable))
	assert.Equal(t, 0, f.exec.CallCount())
}

func TestDispatchMany_NoQueriesSkipsStatus(t *testing.T) {
	lister := fleet()
	f := newFixture(lister)

	_, err := f.c.DispatchMany(context.Background(), nil, []string{"-H", "hosts.txt", "-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, 0, lister.Calls)
}

func TestDispatchMany_ForwardsExitCode(t *testing.T) {
	f := newFixture(fleet())
	f.exec.ExitCode = 4

	s, err := f.c.DispatchMany(context.Background(), []string{"good1"}, []string{"-c", "false"})
	require.NoError(t, err)

	assert.Equal(t, 4, s.ExitCode)
	assert.True(t, s.Ran)
}

func TestDispatchMany_DryRunPrintsCommand(t *testing.T) {
	var out bytes.Buffer
	f := newFixture(fleet(), WithDryRun(&out))

	s, err := f.c.DispatchMany(context.Background(), []string{"good1"}, []string{"-c", "echo hi"})
	require.NoError(t, err)

	assert.Equal(t, "mussh -h 100.64.0.1 -c 'echo hi'\n", out.String())
	assert.False(t, s.Ran)
	assert.Equal(t, 0, f.exec.CallCount())
}

func TestRun_ParsesCommandLine(t *testing.T) {
	f := newFixture(fleet())

	_, err := f.c.Run(context.Background(), []string{"-m", "2", "-h", "good1", "good2", "-c", "uptime"})
	require.NoError(t, err)

	assert.Equal(t, []string{"mussh", "-h", "100.64.0.1", "100.64.0.2", "-m", "2", "-c", "uptime"}, f.exec.Last())
}

func TestRun_UsageError(t *testing.T) {
	f := newFixture(fleet())

	_, err := f.c.Run(context.Background(), []string{"-c", "uptime"})

	assert.Equal(t, errors.ExitUsage, errors.ExitCode(err))
	assert.Equal(t, 0, f.exec.CallCount())
}
