package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Module lights
	LightOn  rune // ● lit
	LightDim rune // ◐ partly lit
	LightOff rune // ○ dark

	// Voltage meters
	MeterFull  rune // █
	MeterHalf  rune // ▌
	MeterEmpty rune // ·

	// Ports
	Patched   rune // ◆ cable attached
	Unpatched rune // ◇ free jack
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			LightOn:  '●',
			LightDim: '◐',
			LightOff: '○',

			MeterFull:  '█',
			MeterHalf:  '▌',
			MeterEmpty: '·',

			Patched:   '◆',
			Unpatched: '◇',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Light maps a brightness in [0,1] onto the palette between the muted
// and success roles
func (t *Theme) Light(brightness float64) lipgloss.Color {
	if brightness <= 0 {
		return t.Muted()
	}
	if brightness > 1 {
		brightness = 1
	}
	return t.Color(RoleMuted + brightness*(RoleSuccess-RoleMuted))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(Hex(c))
}

// Hex formats a color as #rrggbb
func Hex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
