package cli

import (
	"context"
	"io"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/ui"
	"gopkg.in/yaml.v3"
)

// runList prints the tailnet's devices in status order.
func runList(ctx context.Context, w io.Writer, lister tailnet.Lister, format string) error {
	devices, err := lister.Devices(ctx)
	if err != nil {
		if format == "json" {
			_ = WriteJSONFromError(w, err)
		}
		return err
	}
	if devices == nil {
		devices = []tailnet.Device{}
	}

	switch format {
	case "json":
		return WriteJSONSuccess(w, devices)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(devices); err != nil {
			return err
		}
		return enc.Close()
	default:
		ui.RenderDeviceTable(w, devices)
		return nil
	}
}
