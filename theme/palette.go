package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type RGB [3]uint8

// Palette is an ordered color ramp, dark to bright
type Palette struct {
	Name   string
	Colors []RGB
}

// Plasma is the built-in palette, dark purple through magenta to yellow
func Plasma() *Palette {
	return &Palette{
		Name: "Plasma",
		Colors: []RGB{
			{13, 8, 135},
			{75, 3, 161},
			{125, 3, 168},
			{168, 34, 150},
			{203, 70, 121},
			{229, 107, 93},
			{248, 148, 65},
			{253, 195, 40},
			{240, 249, 33},
		},
	}
}

// Load reads a GPL palette, or returns Plasma when path is empty
func Load(path string) (*Palette, error) {
	if path == "" {
		return Plasma(), nil
	}
	return LoadGPL(path)
}

func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open palette: %w", err)
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads a GIMP palette. Rows that do not start with a number are
// skipped; a numeric row must hold three components in 0-255.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue // header, comment or label
		}
		c, err := parseRGB(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, errors.New("no colors found")
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, fmt.Errorf("want 3 components, got %d", len(fields))
	}
	for i := range c {
		v, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return c, fmt.Errorf("component %q: %w", fields[i], err)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	var out RGB
	for ch := range out {
		out[ch] = lerp(p.Colors[i][ch], p.Colors[i+1][ch], frac)
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}
