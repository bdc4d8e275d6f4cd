package ui

import (
	"fmt"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/charmbracelet/huh"
)

// ChooseDevices asks which of several matching devices to include. Choosing
// none is not an error. It matches fanout.Chooser.
func ChooseDevices(query string, devices []tailnet.Device) ([]tailnet.Device, error) {
	if !IsInteractive() {
		return nil, nil
	}

	var picked []int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title(matchTitle(query, len(devices))).
				Description("Space to toggle, enter to confirm").
				Options(deviceOptions(devices)...).
				Value(&picked),
		),
	)

	if err := form.Run(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAmbiguous,
			"Couldn't get your selection",
			"Type more of the name instead.")
	}

	chosen := make([]tailnet.Device, 0, len(picked))
	for _, i := range picked {
		chosen = append(chosen, devices[i])
	}
	return chosen, nil
}

func deviceOptions(devices []tailnet.Device) []huh.Option[int] {
	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		options[i] = huh.NewOption(deviceLabel(d), i)
	}
	return options
}

// deviceLabel is "name (address)", flagged when the device is offline.
func deviceLabel(d tailnet.Device) string {
	label := fmt.Sprintf("%s (%s)", d.Name, d.Address)
	if !d.Online {
		label += " offline"
	}
	return label
}
