package fanout

import (
	"fmt"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/hashicorp/go-multierror"
)

// Status says what happened to one host query.
type Status int

const (
	// Dispatched hosts were passed to the parallel tool.
	Dispatched Status = iota
	// Skipped hosts were left out; Reason says why.
	Skipped
)

func (s Status) String() string {
	switch s {
	case Dispatched:
		return "dispatched"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// HostResult is the outcome for one query. A tag query produces one result
// per tagged device.
type HostResult struct {
	Query  string
	Status Status
	Reason string
	// Device and Target are set for dispatched hosts. Target is the
	// user@address handed to the tool; Device is empty for hosts passed
	// through as typed.
	Device tailnet.Device
	Target string

	candidates []tailnet.Device
}

// Summary is the outcome of one fan-out run.
type Summary struct {
	Hosts []HostResult
	// Argv is the command that was (or, in a dry run, would have been) run.
	Argv     []string
	ExitCode int
	Ran      bool
}

// Dispatched returns the hosts that were passed to the tool, in query order.
func (s *Summary) Dispatched() []HostResult {
	return s.filter(Dispatched)
}

// Skipped returns the hosts that were left out, in query order.
func (s *Summary) Skipped() []HostResult {
	return s.filter(Skipped)
}

// Targets returns the host arguments handed to the tool.
func (s *Summary) Targets() []string {
	var targets []string
	for _, h := range s.Dispatched() {
		targets = append(targets, h.Target)
	}
	return targets
}

// Err aggregates one error per skipped host, or nil when none were skipped.
func (s *Summary) Err() error {
	var result *multierror.Error
	for _, h := range s.Skipped() {
		result = multierror.Append(result, fmt.Errorf("%s: %s", h.Query, h.Reason))
	}
	return result.ErrorOrNil()
}

func (s *Summary) filter(status Status) []HostResult {
	var out []HostResult
	for _, h := range s.Hosts {
		if h.Status == status {
			out = append(out, h)
		}
	}
	return out
}
