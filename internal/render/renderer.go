// Package render turns a grid into the ANSI byte stream a client socket
// receives. Escape sequences are built byte-for-byte (CSI row;col H,
// CSI 0 m, SGR parameter lists) rather than through a general-purpose
// ANSI builder: the renderer's correctness hinges on an exact emission
// algorithm (cursor coalescing, a reset plus explicit SGR parameters on
// every emitted cell, the reset-sentinel discipline) that a
// higher-level styling library would abstract away.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"celld/internal/grid"
)

const (
	csi        = "\x1b["
	clearHome  = csi + "2J" + csi + "H"
	resetSGR   = csi + "0m"
	showCursor = csi + "?25h"
)

// style is the renderer's notion of "currently active SGR state",
// tracked with an explicit valid flag as the sentinel: when invalid,
// no real style can ever compare equal to it, forcing the next emitted
// cell to always carry explicit SGR parameters.
type style struct {
	fg, bg grid.Color
	attrs  grid.Attr
	valid  bool
}

func styleOf(c grid.Cell) style {
	return style{fg: c.Fg, bg: c.Bg, attrs: c.Attrs, valid: true}
}

func (s style) equals(o style) bool {
	return s.valid && o.valid && s.fg == o.fg && s.bg == o.bg && s.attrs == o.attrs
}

// Renderer holds one client's "last sent" shadow state: the shadow
// grid, the last emitted cursor position, and the last emitted SGR
// style. All three persist across Render calls for the life of a
// session.
type Renderer struct {
	shadow      *grid.Grid
	cursorX     int
	cursorY     int
	cursorValid bool
	current     style
}

// New builds a Renderer shadowing a cols x rows screen.
func New(cols, rows int) *Renderer {
	return &Renderer{shadow: grid.New(cols, rows)}
}

// Resize reallocates the shadow buffer and invalidates all tracked
// state, forcing the next render to behave like a fresh force-full pass
// would for cursor/style purposes.
func (r *Renderer) Resize(cols, rows int) {
	r.shadow.Resize(cols, rows)
	r.cursorValid = false
	r.current = style{}
}

type emitted struct {
	x, y int
	cell grid.Cell
}

// Render converts g into an ANSI byte stream.
//
// With forceFull=false, only cells that are both dirty and whose styled
// contents differ from the shadow are emitted; afterwards the emitted
// cells are copied into the shadow and the grid's dirty bits are
// cleared entirely.
//
// With forceFull=true, a clear-screen + home sequence is emitted first,
// then every cell in scan order, and the shadow is reset to exactly
// match g.
func (r *Renderer) Render(g *grid.Grid, forceFull bool) []byte {
	var out strings.Builder

	var cells []emitted
	if forceFull {
		out.WriteString(clearHome)
		// CSI H homes the cursor, so the shadow is known-good at (0,0).
		r.cursorX, r.cursorY, r.cursorValid = 0, 0, true
		r.current = style{}
		for y := 0; y < g.Rows(); y++ {
			for x := 0; x < g.Cols(); x++ {
				cells = append(cells, emitted{x, y, g.Get(x, y)})
			}
		}
	} else {
		for _, xy := range g.DirtyCells() {
			x, y := xy[0], xy[1]
			c := g.Get(x, y)
			if c != r.shadow.Get(x, y) {
				cells = append(cells, emitted{x, y, c})
			}
		}
	}

	for _, e := range cells {
		r.emitCell(&out, e.x, e.y, e.cell)
	}

	for _, e := range cells {
		r.shadow.Set(e.x, e.y, e.cell)
	}
	g.ClearDirty()

	return []byte(out.String())
}

func (r *Renderer) emitCell(out *strings.Builder, x, y int, c grid.Cell) {
	if !(r.cursorValid && r.cursorY == y && r.cursorX == x) {
		fmt.Fprintf(out, "%s%d;%dH", csi, y+1, x+1)
	}

	want := styleOf(c)
	if !want.equals(r.current) {
		out.WriteString(resetSGR)
		out.WriteString(sgrParams(c))
		// A reset returns the terminal to its *default* colors, which
		// are not identical to explicit white-on-black even when they
		// look alike. Tracking the just-emitted style here would let a
		// later cell that happens to match it skip its SGR emission
		// and inherit that subtly wrong baseline, so the tracked state
		// goes back to the sentinel instead: whatever is emitted after
		// a reset always restates its colors explicitly.
		r.current = style{}
	}

	out.WriteRune(grid.Sanitize(c.Glyph))
	r.cursorX, r.cursorY = x+1, y
	// A cell at the last column leaves the cursor position ambiguous
	// (some terminals wrap, some clamp); treat it as unknown so the
	// next emitted cell always repositions explicitly.
	r.cursorValid = r.cursorX < r.shadow.Cols()
}

// sgrParams builds the explicit SGR parameter sequence for a cell's
// full style: attribute codes, then foreground, then background.
func sgrParams(c grid.Cell) string {
	var params []string
	if c.Attrs.Has(grid.AttrBold) {
		params = append(params, "1")
	}
	if c.Attrs.Has(grid.AttrReverse) {
		params = append(params, "7")
	}
	if c.Attrs.Has(grid.AttrBlink) {
		params = append(params, "5")
	}
	if c.Attrs.Has(grid.AttrUnderline) {
		params = append(params, "4")
	}
	params = append(params, fgParam(c.Fg), bgParam(c.Bg))
	return csi + strings.Join(params, ";") + "m"
}

func fgParam(c grid.Color) string {
	if c < 8 {
		return strconv.Itoa(30 + int(c))
	}
	return strconv.Itoa(90 + int(c) - 8)
}

func bgParam(c grid.Color) string {
	if c < 8 {
		return strconv.Itoa(40 + int(c))
	}
	return strconv.Itoa(100 + int(c) - 8)
}

// ShutdownSequence is emitted on the "shutdown" command: clear+home,
// show cursor, plain reset, then the socket is closed.
func ShutdownSequence() []byte {
	return []byte(clearHome + showCursor + resetSGR)
}
