// Package colormap resolves colors from outside the engine's 4-bit
// palette (hex strings from user configuration, 256-color SGR indices
// from an embedded terminal's output stream) down to the nearest of the
// 16 grid.Color indices the compositor actually stores per cell.
//
// The base 16-color reference table is the standard xterm default
// palette; nearest-color distance uses go-colorful's Lab-space metric.
package colormap

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"celld/internal/grid"
)

// basePalette mirrors theme.GetANSIPalette's fallback table: the
// standard xterm 16-color defaults, in ANSI index order.
var basePalette = [16]string{
	"#000000", "#cd0000", "#00cd00", "#cdcd00",
	"#0000ee", "#cd00cd", "#00cdcd", "#e5e5e5",
	"#7f7f7f", "#ff0000", "#00ff00", "#ffff00",
	"#5c5cff", "#ff00ff", "#00ffff", "#ffffff",
}

var baseLab [16]colorful.Color

func init() {
	for i, hex := range basePalette {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic("colormap: invalid base palette entry " + hex)
		}
		baseLab[i] = c
	}
}

// ParseConfigColor resolves a user-supplied color spec: a bare ANSI
// index ("9", "208") or anything lipgloss.Color understands ("#ff0000",
// named colors). Anything unparseable falls back to grid.DefaultFg.
func ParseConfigColor(spec string) grid.Color {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return grid.DefaultFg
	}

	if idx, err := strconv.Atoi(spec); err == nil {
		return From256(idx)
	}

	c := lipgloss.Color(spec)
	if c == nil {
		return grid.DefaultFg
	}
	// RGBA returns 0-65535 components.
	r, g, b, _ := c.RGBA()
	return nearest(colorful.Color{
		R: float64(r) / 65535,
		G: float64(g) / 65535,
		B: float64(b) / 65535,
	})
}

// From256 maps an xterm 256-color SGR index down to the nearest 4-bit index.
// Indices 0-15 pass through unchanged; 16-231 are the 6x6x6 color cube;
// 232-255 are the grayscale ramp.
func From256(idx int) grid.Color {
	switch {
	case idx < 0:
		return grid.DefaultFg
	case idx < 16:
		return grid.Color(idx)
	case idx < 232:
		idx -= 16
		r := cubeLevel(idx / 36)
		g := cubeLevel((idx / 6) % 6)
		b := cubeLevel(idx % 6)
		return nearest(colorful.Color{R: r, G: g, B: b})
	case idx < 256:
		level := float64(idx-232)*10 + 8
		v := level / 255
		return nearest(colorful.Color{R: v, G: v, B: v})
	default:
		return grid.DefaultFg
	}
}

func cubeLevel(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(55+n*40) / 255
}

func nearest(c colorful.Color) grid.Color {
	best := grid.Color(0)
	bestDist := -1.0
	for i, ref := range baseLab {
		d := c.DistanceLab(ref)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = grid.Color(i)
		}
	}
	return best
}
