package ui

import (
	"io"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
)

// RenderDeviceTable writes one row per device, in the order given. Colors
// are dropped when w is not a color terminal.
func RenderDeviceTable(w io.Writer, devices []tailnet.Device) {
	color := termenv.NewOutput(w).ColorProfile() != termenv.Ascii

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Options = deviceTableOptions()
	t.AppendHeader(table.Row{"NAME", "ADDRESS", "OS", "STATUS", "TAGS"})

	for _, d := range devices {
		t.AppendRow(table.Row{
			d.Name,
			d.Address,
			orDash(d.OS),
			statusCell(d, color),
			JoinOrNone(d.Tags),
		})
	}

	t.Render()
}

func deviceTableOptions() table.Options {
	options := table.OptionsDefault
	options.DrawBorder = false
	options.SeparateColumns = false
	options.SeparateRows = false
	options.SeparateHeader = false
	return options
}

func statusCell(d tailnet.Device, color bool) string {
	text := "offline"
	if d.Online {
		text = "online"
	}
	if d.Self {
		text += " (this device)"
	}
	symbol := OnlineSymbol(d.Online)
	if color {
		symbol = OnlineStyle(d.Online).Render(symbol)
	}
	return symbol + " " + text
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
