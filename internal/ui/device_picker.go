package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/tailnet"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// deviceItem implements list.Item for the Bubbles list component.
type deviceItem struct {
	device tailnet.Device
}

func (i deviceItem) Title() string {
	return OnlineStyle(i.device.Online).Render(OnlineSymbol(i.device.Online)) + " " + i.device.Name
}

func (i deviceItem) Description() string {
	parts := []string{i.device.Address}
	if i.device.OS != "" {
		parts = append(parts, i.device.OS)
	}
	if !i.device.Online {
		parts = append(parts, "offline")
	}
	if len(i.device.Tags) > 0 {
		parts = append(parts, "["+strings.Join(i.device.Tags, ", ")+"]")
	}
	return strings.Join(parts, " | ")
}

func (i deviceItem) FilterValue() string {
	values := []string{i.device.Name, i.device.Address}
	values = append(values, i.device.Tags...)
	return strings.Join(values, " ")
}

// DevicePickerModel is a Bubble Tea model for choosing one device.
type DevicePickerModel struct {
	list     list.Model
	devices  []tailnet.Device
	selected *tailnet.Device
	quitting bool
}

type devicePickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var devicePickerKeys = devicePickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewDevicePickerModel creates a picker over devices, titled with the query
// that matched them.
func NewDevicePickerModel(query string, devices []tailnet.Device) DevicePickerModel {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 4+3*len(items))
	l.Title = matchTitle(query, len(devices))
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	return DevicePickerModel{list: l, devices: devices}
}

// Init implements tea.Model.
func (m DevicePickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// While filtering, keys belong to the filter input.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, devicePickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(deviceItem); ok {
				m.selected = &item.device
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, devicePickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, min(msg.Height-2, 4+3*len(m.devices)))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m DevicePickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen device, or nil if the picker was cancelled.
func (m DevicePickerModel) Selected() *tailnet.Device {
	return m.selected
}

// IsInteractive reports whether stdin and stderr are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// PickDevice shows the picker on the terminal. It matches dispatch.Picker.
func PickDevice(query string, devices []tailnet.Device) (tailnet.Device, error) {
	if !IsInteractive() {
		return tailnet.Device{}, errors.New(errors.ErrAmbiguous,
			fmt.Sprintf("%q matches several devices and there's no terminal to pick one", query),
			"Type more of the name.")
	}
	return PickDeviceWithIO(query, devices, os.Stderr, os.Stdin)
}

// PickDeviceWithIO runs the picker on the given streams.
func PickDeviceWithIO(query string, devices []tailnet.Device, output io.Writer, input io.Reader) (tailnet.Device, error) {
	if len(devices) == 0 {
		return tailnet.Device{}, errors.New(errors.ErrAmbiguous, "No devices to pick from", "")
	}
	if len(devices) == 1 {
		return devices[0], nil
	}

	p := tea.NewProgram(
		NewDevicePickerModel(query, devices),
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	finalModel, err := p.Run()
	if err != nil {
		return tailnet.Device{}, errors.WrapWithCode(err, errors.ErrAmbiguous,
			"Device picker failed",
			"Type more of the name instead.")
	}

	if m, ok := finalModel.(DevicePickerModel); ok && m.Selected() != nil {
		return *m.Selected(), nil
	}
	return tailnet.Device{}, errors.New(errors.ErrAmbiguous,
		fmt.Sprintf("No device picked for %q", query),
		"")
}
