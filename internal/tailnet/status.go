package tailnet

import (
	"fmt"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/tidwall/gjson"
)

// BackendRunning is the BackendState of a logged-in, connected tailscaled.
const BackendRunning = "Running"

// ParseStatus turns `tailscale status --json` output into Devices: the local
// node first, then peers in the order they appear in the document.
//
// Unknown fields are ignored. A missing Peer object, or a node without a
// name, addresses or (for peers) an Online flag is an ErrSource error. A
// backend that is not running is ErrSourceUnavailable.
func ParseStatus(data []byte) ([]Device, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.ErrSource,
			"Tailscale status output isn't valid JSON",
			"Check that 'tailscale status --json' works in your shell")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New(errors.ErrSource,
			"Tailscale status output isn't a JSON object",
			"Check that 'tailscale status --json' works in your shell")
	}

	if state := root.Get("BackendState"); state.Exists() && state.String() != BackendRunning {
		return nil, backendStateError(state.String())
	}

	var devices []Device

	if self := root.Get("Self"); self.IsObject() {
		d, err := parseNode(self, true)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	peers := root.Get("Peer")
	switch {
	case !peers.Exists():
		return nil, errors.New(errors.ErrSource,
			"Tailscale status output has no Peer list",
			"Your tailscale version may be too old or too new for these helpers")
	case peers.Type == gjson.Null:
		return devices, nil
	case !peers.IsObject():
		return nil, errors.New(errors.ErrSource,
			"Tailscale status Peer list has an unexpected shape",
			"Your tailscale version may be too old or too new for these helpers")
	}

	var perr error
	peers.ForEach(func(_, value gjson.Result) bool {
		d, err := parseNode(value, false)
		if err != nil {
			perr = err
			return false
		}
		devices = append(devices, d)
		return true
	})
	if perr != nil {
		return nil, perr
	}

	return devices, nil
}

func parseNode(v gjson.Result, self bool) (Device, error) {
	d := Device{
		DNSName:  v.Get("DNSName").String(),
		HostName: v.Get("HostName").String(),
		OS:       v.Get("OS").String(),
		Self:     self,
	}

	d.Name = firstLabel(d.DNSName)
	if d.Name == "" {
		d.Name = d.HostName
	}
	if d.Name == "" {
		return Device{}, errors.New(errors.ErrSource,
			"Tailscale status lists a node with no name",
			"")
	}

	for _, ip := range v.Get("TailscaleIPs").Array() {
		if s := ip.String(); s != "" {
			d.Addresses = append(d.Addresses, s)
		}
	}
	if len(d.Addresses) == 0 {
		return Device{}, errors.New(errors.ErrSource,
			fmt.Sprintf("Tailscale status lists %s without any address", d.Name),
			"")
	}
	d.Address = primaryAddress(d.Addresses)

	online := v.Get("Online")
	switch {
	case online.Exists():
		d.Online = online.Bool()
	case self:
		d.Online = true
	default:
		return Device{}, errors.New(errors.ErrSource,
			fmt.Sprintf("Tailscale status doesn't say whether %s is online", d.Name),
			"")
	}

	for _, tag := range v.Get("Tags").Array() {
		d.Tags = append(d.Tags, tag.String())
	}

	return d, nil
}

// firstLabel returns the host part of a MagicDNS name ("web-1.tail1234.ts.net." -> "web-1").
func firstLabel(dnsName string) string {
	dnsName = strings.TrimSuffix(dnsName, ".")
	if i := strings.IndexByte(dnsName, '.'); i >= 0 {
		return dnsName[:i]
	}
	return dnsName
}

func backendStateError(state string) error {
	switch state {
	case "NeedsLogin", "NeedsMachineAuth":
		return errors.New(errors.ErrSourceUnavailable,
			"You're not logged in to Tailscale",
			"Log in with: tailscale up")
	case "Stopped":
		return errors.New(errors.ErrSourceUnavailable,
			"Tailscale is stopped",
			"Start it with: tailscale up")
	case "Starting", "NoState":
		return errors.New(errors.ErrSourceUnavailable,
			"Tailscale is still starting",
			"Wait a moment and try again")
	default:
		return errors.New(errors.ErrSourceUnavailable,
			fmt.Sprintf("Tailscale isn't running (state: %s)", state),
			"Check 'tailscale status' and bring it up with: tailscale up")
	}
}
