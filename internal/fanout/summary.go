package fanout

import (
	"fmt"
	"io"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/ui"
	"github.com/charmbracelet/lipgloss"
)

// RenderSummaryTo prints which hosts were dispatched and which were skipped.
func RenderSummaryTo(w io.Writer, s *Summary) {
	if s == nil {
		return
	}

	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Foreground(ui.ColorSecondary).Bold(true)

	fmt.Fprintln(w, headerStyle.Render("tmussh hosts"))

	for _, h := range s.Hosts {
		switch h.Status {
		case Dispatched:
			name := h.Device.Name
			if name == "" {
				name = h.Query
			}
			fmt.Fprintf(w, "  %s %s %s\n",
				successStyle.Render(ui.SymbolSuccess),
				name,
				mutedStyle.Render(h.Target),
			)
		case Skipped:
			fmt.Fprintf(w, "  %s %s %s\n",
				warnStyle.Render(ui.SymbolSkipped),
				h.Query,
				mutedStyle.Render(h.Reason),
			)
		}
	}

	dispatched := len(s.Dispatched())
	skipped := len(s.Skipped())
	skippedStyle := mutedStyle
	if skipped > 0 {
		skippedStyle = warnStyle
	}
	line := fmt.Sprintf("  %s %d dispatched  %s %d skipped",
		successStyle.Render(ui.SymbolSuccess), dispatched,
		skippedStyle.Render(ui.SymbolSkipped), skipped,
	)
	if s.Ran && s.ExitCode != 0 {
		line += "  " + errorStyle.Render(fmt.Sprintf("%s mussh exited %d", ui.SymbolFail, s.ExitCode))
	}
	fmt.Fprintln(w, line)
}
