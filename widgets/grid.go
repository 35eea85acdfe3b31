package widgets

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-modular/midi"
	"go-modular/theme"
)

// PadStyle maps a Launchpad palette color to a symbol and theme color
func PadStyle(th *theme.Theme, color uint8) (rune, lipgloss.Color) {
	switch color {
	case midi.ColorOff:
		return th.Symbols.LightOff, th.BG()
	case midi.ColorWhite, midi.ColorBrightWhite:
		return th.Symbols.LightOn, th.FG()
	case midi.ColorGreen:
		return th.Symbols.LightOn, th.Success()
	case midi.ColorDimBlue:
		return th.Symbols.LightDim, th.Accent()
	case midi.ColorRed:
		return th.Symbols.LightOn, th.Warning()
	}
	return th.Symbols.LightDim, th.Muted()
}

// RenderPad renders a single pad
func RenderPad(th *theme.Theme, color uint8) string {
	sym, c := PadStyle(th, color)
	return lipgloss.NewStyle().Foreground(c).Render(string(sym))
}

// RenderPadGrid draws the rows the updates touch, top row first, as the
// pads sit on the device. Pads without an update are off.
func RenderPadGrid(th *theme.Theme, leds []midi.LEDUpdate) string {
	var grid [midi.GridSize][midi.GridSize]uint8
	var rows []int
	for _, u := range leds {
		if u.Row < 0 || u.Row >= midi.GridSize || u.Col < 0 || u.Col >= midi.GridSize {
			continue
		}
		grid[u.Row][u.Col] = u.Color
		if !slices.Contains(rows, u.Row) {
			rows = append(rows, u.Row)
		}
	}
	slices.Sort(rows)
	slices.Reverse(rows)

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, midi.GridSize)
		for col := range cells {
			cells[col] = RenderPad(th, grid[row][col])
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(th *theme.Theme, color uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(th, color), name, desc)
}
