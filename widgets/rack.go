package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-modular/theme"
)

// MaxVoltage is the full scale of a meter
const MaxVoltage = 10.0

// RenderLight renders a single module light
func RenderLight(th *theme.Theme, brightness float64) string {
	sym := th.Symbols.LightOff
	switch {
	case brightness >= 0.5:
		sym = th.Symbols.LightOn
	case brightness > 0.05:
		sym = th.Symbols.LightDim
	}
	style := lipgloss.NewStyle().Foreground(th.Light(brightness))
	return style.Render(string(sym))
}

// RenderLightRow renders lights with spacing
func RenderLightRow(th *theme.Theme, lights []float64) string {
	var out strings.Builder
	for i, b := range lights {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderLight(th, b))
	}
	return out.String()
}

// MeterCells returns how many of width cells a voltage fills, in half cells
func MeterCells(voltage float64, width int) (full int, half bool) {
	level := math.Min(math.Abs(voltage)/MaxVoltage, 1) * float64(width)
	full = int(level)
	half = level-float64(full) >= 0.5 && full < width
	return full, half
}

// RenderMeter renders |voltage| as a bar of width cells
func RenderMeter(th *theme.Theme, voltage float64, width int) string {
	full, half := MeterCells(voltage, width)

	var bar strings.Builder
	bar.WriteString(strings.Repeat(string(th.Symbols.MeterFull), full))
	used := full
	if half {
		bar.WriteRune(th.Symbols.MeterHalf)
		used++
	}

	color := th.Active()
	if voltage < 0 {
		color = th.Accent()
	}
	filled := lipgloss.NewStyle().Foreground(color).Render(bar.String())
	empty := lipgloss.NewStyle().Foreground(th.Muted()).Render(strings.Repeat(string(th.Symbols.MeterEmpty), width-used))
	return filled + empty
}

// RenderPort renders "◆ Name  +5.00V ████··" for an output
func RenderPort(th *theme.Theme, name string, voltage float64, connected bool, nameWidth int) string {
	jack := th.Symbols.Unpatched
	nameStyle := lipgloss.NewStyle().Foreground(th.Muted())
	if connected {
		jack = th.Symbols.Patched
		nameStyle = nameStyle.Foreground(th.FG())
	}
	label := nameStyle.Render(fmt.Sprintf("%c %-*s", jack, nameWidth, name))
	return fmt.Sprintf("%s %+6.2fV %s", label, voltage, RenderMeter(th, voltage, 8))
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
