package resolve

import (
	"strings"
	"testing"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	tntesting "github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleet() []tailnet.Device {
	return []tailnet.Device{
		tntesting.Online("web-1", 1, "tag:web"),
		tntesting.Online("web-2", 2, "tag:web"),
		tntesting.Online("db-primary", 3),
		tntesting.Offline("db-replica", 4),
		tntesting.Online("build", 5),
		tntesting.Online("prebuild-cache", 6),
		tntesting.Online("Laptop", 7),
	}
}

func TestResolve_ExactNameAnyCase(t *testing.T) {
	devices := fleet()
	for _, d := range devices {
		for _, q := range []string{d.Name, strings.ToUpper(d.Name), strings.ToLower(d.Name)} {
			res := Resolve(q, devices)
			require.Equal(t, UniqueMatch, res.Kind, "query %q", q)
			assert.Equal(t, d, res.Device(), "query %q", q)
			assert.Equal(t, TierExact, res.Tier)
		}
	}
}

func TestResolve_FullMagicDNSName(t *testing.T) {
	res := Resolve("web-1.tail1234.ts.net", fleet())
	require.Equal(t, UniqueMatch, res.Kind)
	assert.Equal(t, "web-1", res.Device().Name)
	assert.Equal(t, TierExact, res.Tier)
}

func TestResolve_PrefixBeatsSubstring(t *testing.T) {
	// "build" is a substring of "prebuild-cache" but the exact tier wins.
	res := Resolve("build", fleet())
	require.Equal(t, UniqueMatch, res.Kind)
	assert.Equal(t, "build", res.Device().Name)

	// "bui" is a prefix of build only, and a substring of prebuild-cache too.
	res = Resolve("bui", fleet())
	require.Equal(t, UniqueMatch, res.Kind)
	assert.Equal(t, "build", res.Device().Name)
	assert.Equal(t, TierPrefix, res.Tier)
}

func TestResolve_PrefixTierStrictlyPrecedesSubstring(t *testing.T) {
	devices := fleet()
	for _, d := range devices {
		for i := 1; i <= len(d.Name); i++ {
			q := d.Name[:i]
			prefixed := 0
			for _, other := range devices {
				if strings.HasPrefix(strings.ToLower(other.Name), strings.ToLower(q)) {
					prefixed++
				}
			}
			if prefixed != 1 {
				continue
			}
			res := Resolve(q, devices)
			require.Equal(t, UniqueMatch, res.Kind, "query %q", q)
			assert.Equal(t, d.Name, res.Device().Name, "query %q", q)
		}
	}
}

func TestResolve_SubstringTier(t *testing.T) {
	res := Resolve("cache", fleet())
	require.Equal(t, UniqueMatch, res.Kind)
	assert.Equal(t, "prebuild-cache", res.Device().Name)
	assert.Equal(t, TierSubstring, res.Tier)

	res = Resolve("REPLICA", fleet())
	require.Equal(t, UniqueMatch, res.Kind)
	assert.Equal(t, "db-replica", res.Device().Name)
}

func TestResolve_AmbiguousInSourceOrder(t *testing.T) {
	devices := []tailnet.Device{tntesting.Online("web-1", 1), tntesting.Online("web-2", 2)}

	res := Resolve("web", devices)
	require.Equal(t, AmbiguousMatch, res.Kind)
	assert.Equal(t, []string{"web-1", "web-2"}, res.Names())

	// Reversed source order is preserved, not sorted.
	reversed := []tailnet.Device{devices[1], devices[0]}
	res = Resolve("web", reversed)
	assert.Equal(t, []string{"web-2", "web-1"}, res.Names())
}

func TestResolve_AmbiguousSubstring(t *testing.T) {
	res := Resolve("primary", append(fleet(), tntesting.Online("cache-primary", 9)))
	require.Equal(t, AmbiguousMatch, res.Kind)
	assert.Equal(t, []string{"db-primary", "cache-primary"}, res.Names())
	assert.Equal(t, TierSubstring, res.Tier)
}

func TestResolve_NoFallthroughOnceTierMatches(t *testing.T) {
	devices := []tailnet.Device{
		tntesting.Online("api", 1),
		tntesting.Online("api-v2", 2),
		tntesting.Online("legacy-api", 3),
	}

	res := Resolve("api", devices)
	require.Equal(t, UniqueMatch, res.Kind, "exact tier wins, prefix and substring never consulted")
	assert.Equal(t, "api", res.Device().Name)

	res = Resolve("api-", devices)
	require.Equal(t, UniqueMatch, res.Kind)
	assert.Equal(t, "api-v2", res.Device().Name)
}

func TestResolve_OfflineDevicesStillMatch(t *testing.T) {
	res := Resolve("db-replica", fleet())
	require.Equal(t, UniqueMatch, res.Kind)
	assert.False(t, res.Device().Online)
}

func TestResolve_NoMatch(t *testing.T) {
	tests := []string{"", "unknown-host", "example.com", "10.0.0.1"}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			res := Resolve(q, fleet())
			assert.Equal(t, NoMatch, res.Kind)
			assert.Empty(t, res.Matches)
		})
	}
}

func TestResolve_NoDevices(t *testing.T) {
	assert.Equal(t, NoMatch, Resolve("web", nil).Kind)
}

func TestResolve_IllegalCharactersMatchLiterally(t *testing.T) {
	devices := []tailnet.Device{tntesting.Online("web-1", 1), tntesting.Online("we+b", 2)}

	res := Resolve("we+b", devices)
	require.Equal(t, UniqueMatch, res.Kind)
	assert.True(t, res.Literal)
	assert.Equal(t, "we+b", res.Device().Name)

	// A partial match would hit web-1 by prefix if partial matching were allowed.
	res = Resolve("we*", devices)
	assert.Equal(t, NoMatch, res.Kind)
	assert.True(t, res.Literal)
}

func TestResult_DevicePanicsUnlessUnique(t *testing.T) {
	assert.Panics(t, func() { Resolve("nope", fleet()).Device() })
	assert.Panics(t, func() { Resolve("web", fleet()).Device() })
}

func TestIsHostnameLike(t *testing.T) {
	tests := map[string]bool{
		"web-1":            true,
		"web_1":            true,
		"host.example.com": true,
		"100.64.0.1":       true,
		"":                 false,
		"fd7a:115c::1":     false,
		"web 1":            false,
		"web/1":            false,
		"[::1]":            false,
		"héllo":            false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsHostnameLike(in), "IsHostnameLike(%q)", in)
	}
}

func TestKindAndTierStrings(t *testing.T) {
	assert.Equal(t, "no match", NoMatch.String())
	assert.Equal(t, "unique", UniqueMatch.String())
	assert.Equal(t, "ambiguous", AmbiguousMatch.String())
	assert.Equal(t, "unknown", Kind(42).String())
	assert.Equal(t, "prefix", TierPrefix.String())
	assert.Equal(t, "none", TierNone.String())
}
