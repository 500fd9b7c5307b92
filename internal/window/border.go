package window

import "charm.land/lipgloss/v2"

// BorderStyle names one of the closed set of border glyph tuples.
// The zero value is StyleNone.
type BorderStyle int

// The closed enumeration of border styles.
const (
	StyleNone BorderStyle = iota
	StyleSingle
	StyleDouble
	StyleRounded
	StyleHeavy
	StyleASCII
)

// ParseBorderStyle maps a protocol-level border name to a BorderStyle,
// defaulting to StyleSingle for an unrecognized name, matching
// create_window's default.
func ParseBorderStyle(name string) BorderStyle {
	switch name {
	case "none":
		return StyleNone
	case "single":
		return StyleSingle
	case "double":
		return StyleDouble
	case "rounded":
		return StyleRounded
	case "heavy":
		return StyleHeavy
	case "ascii":
		return StyleASCII
	default:
		return StyleSingle
	}
}

// Glyphs is the 6-glyph tuple a border style draws with: top-left,
// top-right, bottom-left, bottom-right, horizontal, vertical.
type Glyphs struct {
	TopLeft, TopRight       rune
	BottomLeft, BottomRight rune
	Horizontal, Vertical    rune
}

// glyphsFromBorder flattens a lipgloss.Border to the single-rune tuple
// the compositor draws with. The compositor paints cell-by-cell, so
// only one rune per edge is used; lipgloss borders carry exactly one
// for every set this engine exposes.
func glyphsFromBorder(b lipgloss.Border) Glyphs {
	return Glyphs{
		TopLeft:     firstRune(b.TopLeft),
		TopRight:    firstRune(b.TopRight),
		BottomLeft:  firstRune(b.BottomLeft),
		BottomRight: firstRune(b.BottomRight),
		Horizontal:  firstRune(b.Top),
		Vertical:    firstRune(b.Left),
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ' '
}

var borderGlyphs = map[BorderStyle]Glyphs{
	StyleNone:    {},
	StyleSingle:  glyphsFromBorder(lipgloss.NormalBorder()),
	StyleDouble:  glyphsFromBorder(lipgloss.DoubleBorder()),
	StyleRounded: glyphsFromBorder(lipgloss.RoundedBorder()),
	StyleHeavy:   glyphsFromBorder(lipgloss.ThickBorder()),
	StyleASCII:   glyphsFromBorder(lipgloss.ASCIIBorder()),
}

// Glyphs returns the 6-glyph tuple for the style.
func (s BorderStyle) Glyphs() Glyphs { return borderGlyphs[s] }

// HasFrame reports whether the style draws a visible border at all
// (StyleNone reserves no border cells).
func (s BorderStyle) HasFrame() bool { return s != StyleNone }

// CloseGlyph and ResizeGlyph are the chrome affordances composited onto
// a window's border row/corner.
const (
	CloseGlyphLeft  = '['
	CloseGlyphRight = ']'
	ResizeGlyph     = '◢'
)
