package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-modular/engine"
	"go-modular/midi"
	"go-modular/theme"
	"go-modular/widgets"
)

// paramWindow is how many parameters of the focused module are listed
const paramWindow = 12

// knobSteps is how many +/- presses sweep a continuous parameter
const knobSteps = 20

type Model struct {
	Engine    *engine.Engine
	DeviceMgr *midi.DeviceManager // nil when MIDI input is off
	Theme     *theme.Theme

	focus    int // focused module
	cursor   int // selected parameter of the focused module
	status   string
	inputs   []string
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(eng *engine.Engine, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	return Model{
		Engine:    eng,
		DeviceMgr: deviceMgr,
		Theme:     th,
	}
}

func ListenForUpdates(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-eng.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Engine)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.Engine.SetMIDIInput(event.Controller)
			m.inputs = append(m.inputs, event.ID)
			m.status = "connected " + event.ID
			if grid, ok := event.Controller.(engine.GridController); ok {
				err := m.Engine.AttachGrid(grid)
				m.setStatus(err, "connected %s, pads play %s", event.ID, m.Engine.GridModule())
			}
		case midi.DeviceDisconnected:
			m.inputs = remove(m.inputs, event.ID)
			m.status = "disconnected " + event.ID
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	snap := m.Engine.Snapshot()
	if len(snap.Modules) == 0 {
		if key == "q" || key == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
	mod := snap.Modules[m.focus]

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Engine.Stop()
		return m, tea.Quit

	case "tab", "right", "l":
		m.focus = (m.focus + 1) % len(snap.Modules)
		m.cursor = 0

	case "shift+tab", "left", "h":
		m.focus = (m.focus + len(snap.Modules) - 1) % len(snap.Modules)
		m.cursor = 0

	case "down", "j":
		if m.cursor < len(mod.Params)-1 {
			m.cursor++
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case " ", "space", "enter":
		if len(mod.Params) == 0 {
			break
		}
		p := mod.Params[m.cursor]
		var err error
		if p.Momentary {
			err = m.Engine.PressButton(mod.Name, p.Name, engine.ButtonHold)
		} else {
			err = m.Engine.ToggleParam(mod.Name, p.Name)
		}
		m.setStatus(err, "%s: %s", mod.Name, p.Name)

	case "+", "=", "-", "_":
		if len(mod.Params) == 0 {
			break
		}
		p := mod.Params[m.cursor]
		step := (p.Max - p.Min) / knobSteps
		if p.Snap {
			step = 1
		}
		if key == "-" || key == "_" {
			step = -step
		}
		err := m.Engine.SetParam(mod.Name, p.Name, p.Value+step)
		m.setStatus(err, "%s: %s", mod.Name, p.Name)
	}
	return m, nil
}

var keyHelp = []widgets.KeySection{{
	Keys: []widgets.KeyBinding{
		{Key: "tab ←→", Desc: "focus module"},
		{Key: "↑↓", Desc: "select parameter"},
		{Key: "space", Desc: "press button or flip switch"},
		{Key: "+ -", Desc: "adjust parameter"},
		{Key: "q", Desc: "quit"},
	},
}}

func (m *Model) setStatus(err error, format string, args ...any) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf(format, args...)
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Engine.Snapshot()
	th := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	focusStyle := lipgloss.NewStyle().Foreground(th.Success()).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(th.FG())

	seconds := float64(snap.Frame) / m.Engine.SampleRate()
	midiStatus := "no midi"
	if len(m.inputs) > 0 {
		midiStatus = strings.Join(m.inputs, ", ")
	}
	header := headerStyle.Render(fmt.Sprintf("go-modular  %.0fHz  %7.1fs  %d cables  %s", m.Engine.SampleRate(), seconds, len(m.Engine.Cables()), midiStatus))
	tap := "out " + widgets.RenderMeter(th, snap.Tap, 24)

	// One line per module, the focused one expanded below
	var rack []string
	for i, mod := range snap.Modules {
		style := nameStyle
		marker := "  "
		if i == m.focus {
			style = focusStyle
			marker = "> "
		}
		rack = append(rack, fmt.Sprintf("%s%s %s", marker, style.Render(fmt.Sprintf("%-8s", mod.Name)), widgets.RenderLightRow(th, mod.Lights)))
	}

	var panel string
	if len(snap.Modules) > 0 {
		panel = m.renderPanel(snap.Modules[m.focus])
	}

	help := dimStyle.Render(widgets.RenderKeyHelp(keyHelp))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(tap)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(rack, "\n"))
	out.WriteString("\n\n")
	out.WriteString(panel)
	out.WriteString("\n\n")
	out.WriteString(help)
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}
	return out.String()
}

// renderPanel lists the focused module's parameters and outputs side by side
func (m Model) renderPanel(mod engine.ModuleState) string {
	th := m.Theme
	cursorStyle := lipgloss.NewStyle().Foreground(th.Active())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	start := m.cursor - paramWindow/2
	if start > len(mod.Params)-paramWindow {
		start = len(mod.Params) - paramWindow
	}
	if start < 0 {
		start = 0
	}
	end := min(start+paramWindow, len(mod.Params))

	var params []string
	for i := start; i < end; i++ {
		p := mod.Params[i]
		value := fmt.Sprintf("%.3g", p.Value)
		if p.Label != "" {
			value = p.Label
		}
		line := fmt.Sprintf("%-28s %s", p.Name, value)
		if i == m.cursor {
			params = append(params, cursorStyle.Render("▸ "+line))
		} else {
			params = append(params, dimStyle.Render("  "+line))
		}
	}

	width := 0
	for _, o := range mod.Outputs {
		width = max(width, len(o.Name))
	}
	var outputs []string
	for _, o := range mod.Outputs {
		outputs = append(outputs, widgets.RenderPort(th, o.Name, o.Voltage, o.Connected, width))
	}

	left := lipgloss.NewStyle().Width(40).Render(strings.Join(params, "\n"))
	panel := lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Join(outputs, "\n"))
	if mod.Grid != nil {
		panel += "\n\n" + renderGrid(th, *mod.Grid)
	}
	return panel
}

// renderGrid mirrors the Launchpad view of a sequencer, lane 0 on top
func renderGrid(th *theme.Theme, g engine.GridState) string {
	legend := []string{
		widgets.RenderLegendItem(th, midi.ColorGreen, "gate", "fires on its step"),
		widgets.RenderLegendItem(th, midi.ColorDimGreen, "rest", "gate past the sequence length"),
		widgets.RenderLegendItem(th, midi.ColorBrightWhite, "playhead", "step playing now"),
	}
	grid := lipgloss.NewStyle().MarginRight(4).Render(widgets.RenderPadGrid(th, engine.GridLEDs(g)))
	return lipgloss.JoinHorizontal(lipgloss.Top, grid, strings.Join(legend, "\n"))
}
