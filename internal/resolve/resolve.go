// Package resolve maps a typed host token onto tailnet devices.
//
// Matching runs in tiers and stops at the first tier with any match:
//
//  1. exact name (or full MagicDNS name), case-insensitive
//  2. name prefix, case-insensitive
//  3. name substring, case-insensitive
//
// Matches are reported in the order the status source listed the devices,
// so the same network state always produces the same answer.
package resolve

import (
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/samber/lo"
)

// Kind is the outcome of a resolution.
type Kind int

const (
	// NoMatch means no device matched; the token is passed through as-is.
	NoMatch Kind = iota
	// UniqueMatch means exactly one device matched in the winning tier.
	UniqueMatch
	// AmbiguousMatch means the winning tier matched several devices.
	AmbiguousMatch
)

// String returns a human-readable description of the kind.
func (k Kind) String() string {
	switch k {
	case NoMatch:
		return "no match"
	case UniqueMatch:
		return "unique"
	case AmbiguousMatch:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Tier identifies which matching rule produced a result.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierPrefix
	TierSubstring
)

// String returns a human-readable description of the tier.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPrefix:
		return "prefix"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// Result is the outcome of resolving one query.
type Result struct {
	Query   string
	Kind    Kind
	Tier    Tier
	Matches []tailnet.Device
	// Literal is set when the query held characters that can't appear in a
	// hostname, so only exact matching was attempted.
	Literal bool
}

// Device returns the single match. It panics unless Kind is UniqueMatch.
func (r Result) Device() tailnet.Device {
	if r.Kind != UniqueMatch {
		panic("resolve: Device called on " + r.Kind.String() + " result")
	}
	return r.Matches[0]
}

// Names returns the names of all matches in source order.
func (r Result) Names() []string {
	return lo.Map(r.Matches, func(d tailnet.Device, _ int) string {
		return d.Name
	})
}

// Resolve matches query against devices. An empty query never matches.
func Resolve(query string, devices []tailnet.Device) Result {
	res := Result{Query: query}
	if query == "" {
		return res
	}

	q := strings.ToLower(query)
	res.Literal = !IsHostnameLike(query)

	tiers := []struct {
		tier  Tier
		match func(d tailnet.Device) bool
	}{
		{TierExact, func(d tailnet.Device) bool {
			return strings.ToLower(d.Name) == q || (d.DNSName != "" && strings.ToLower(d.FQDN()) == q)
		}},
		{TierPrefix, func(d tailnet.Device) bool {
			return strings.HasPrefix(strings.ToLower(d.Name), q)
		}},
		{TierSubstring, func(d tailnet.Device) bool {
			return strings.Contains(strings.ToLower(d.Name), q)
		}},
	}

	for _, t := range tiers {
		if res.Literal && t.tier != TierExact {
			break
		}
		matches := lo.Filter(devices, func(d tailnet.Device, _ int) bool {
			return t.match(d)
		})
		if len(matches) == 0 {
			continue
		}
		res.Tier = t.tier
		res.Matches = matches
		if len(matches) == 1 {
			res.Kind = UniqueMatch
		} else {
			res.Kind = AmbiguousMatch
		}
		return res
	}

	return res
}

// IsHostnameLike reports whether s only holds characters that can appear in
// a hostname: letters, digits, '-', '.' and '_'.
func IsHostnameLike(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_':
		default:
			return false
		}
	}
	return true
}
