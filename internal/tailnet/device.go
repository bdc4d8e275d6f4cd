// Package tailnet reads the device list of the local tailnet.
//
// The list comes from `tailscale status --json` (the Source), is parsed
// into Devices in the order the status output lists them, and is memoized by
// a Cache for the lifetime of one invocation. An optional DiskCache lets rapid
// back-to-back invocations (shell completion, scripts) share one fetch.
package tailnet

import (
	"context"
	"net/netip"
	"strings"
)

// Device is a node on the tailnet as reported by the status source.
type Device struct {
	Name      string   `json:"name" yaml:"name"`
	Address   string   `json:"address" yaml:"address"`
	Online    bool     `json:"online" yaml:"online"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	DNSName   string   `json:"dns_name,omitempty" yaml:"dns_name,omitempty"`
	HostName  string   `json:"host_name,omitempty" yaml:"host_name,omitempty"`
	OS        string   `json:"os,omitempty" yaml:"os,omitempty"`
	Addresses []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Self      bool     `json:"self,omitempty" yaml:"self,omitempty"`
}

// Lister supplies the current device list. Cache implements it; tests use
// tailnet/testing.FakeLister.
type Lister interface {
	Devices(ctx context.Context) ([]Device, error)
}

// HasTag reports whether the device carries tag, ignoring case. The "tag:"
// prefix is optional.
func (d Device) HasTag(tag string) bool {
	if !strings.HasPrefix(strings.ToLower(tag), "tag:") {
		tag = "tag:" + tag
	}
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// FQDN returns the MagicDNS name without the trailing dot.
func (d Device) FQDN() string {
	return strings.TrimSuffix(d.DNSName, ".")
}

// AddressFor returns the address to connect to for the given mode
// ("ipv4", "ipv6" or "dns"). It falls back to Address when the device has no
// identity of the requested kind.
func (d Device) AddressFor(mode string) string {
	switch mode {
	case "ipv6":
		for _, a := range d.Addresses {
			if ip, err := netip.ParseAddr(a); err == nil && ip.Is6() {
				return a
			}
		}
	case "dns":
		if fqdn := d.FQDN(); fqdn != "" {
			return fqdn
		}
	}
	return d.Address
}

// primaryAddress picks the first IPv4 address, else the first address.
func primaryAddress(addrs []string) string {
	for _, a := range addrs {
		if ip, err := netip.ParseAddr(a); err == nil && ip.Is4() {
			return a
		}
	}
	if len(addrs) > 0 {
		return addrs[0]
	}
	return ""
}
