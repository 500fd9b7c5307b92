package window

import (
	"sort"

	"celld/internal/grid"
)

// Manager owns a z-ordered collection of windows plus the two
// screen-sized grids compositing reads from and writes to: background
// (direct-draw commands) and display (rebuilt on every composite).
type Manager struct {
	cols, rows int
	background *grid.Grid
	display    *grid.Grid

	chromeFg grid.Color
	chromeBg grid.Color

	windows []*Window // unordered storage; Ordered() sorts a view
	byID    map[string]*Window
	nextZ   int
}

// NewManager builds a Manager for a cols x rows screen.
func NewManager(cols, rows int) *Manager {
	return &Manager{
		cols:       cols,
		rows:       rows,
		background: grid.New(cols, rows),
		display:    grid.New(cols, rows),
		byID:       make(map[string]*Window),
		chromeFg:   grid.White,
		chromeBg:   grid.Black,
	}
}

// SetChromeColors overrides the colors borders, titles, and the
// close/resize glyphs are drawn with.
func (m *Manager) SetChromeColors(fg, bg grid.Color) {
	m.chromeFg, m.chromeBg = fg, bg
}

// Resize reallocates both screen-sized grids. Existing windows are left
// as-is; their on-screen positions are the caller's concern if they now
// fall outside the new bounds.
func (m *Manager) Resize(cols, rows int) {
	m.cols, m.rows = cols, rows
	m.background.Resize(cols, rows)
	m.display.Resize(cols, rows)
}

// Background returns the direct-draw layer.
func (m *Manager) Background() *grid.Grid { return m.background }

// Display returns the composited screen, valid after Composite().
func (m *Manager) Display() *grid.Grid { return m.display }

// Get returns the window with the given id, or nil.
func (m *Manager) Get(id string) *Window { return m.byID[id] }

// Create implements the idempotent create_window contract:
// if id exists, position is updated unconditionally, dimensions only if
// they actually differ (which may trigger a content-losing resize via
// Window.Resize), a changed border style wipes content via
// Window.SetBorder, and content is otherwise preserved untouched. A
// newly created window takes the next value of a z counter that stays
// above every window's z, so it lands in front of all existing windows.
func (m *Manager) Create(spec Spec) *Window {
	if w, ok := m.byID[spec.ID]; ok {
		w.Move(spec.X, spec.Y)
		if spec.Border != w.Border {
			w.SetBorder(spec.Border)
		}
		w.Resize(spec.W, spec.H)
		w.Title = spec.Title
		w.Flags = spec.Flags
		w.MinW, w.MinH = spec.MinW, spec.MinH
		return w
	}

	w := New(spec)
	m.windows = append(m.windows, w)
	m.byID[spec.ID] = w
	w.Z = m.nextZ
	m.nextZ++
	return w
}

// Remove deletes the window with the given id, if any.
func (m *Manager) Remove(id string) {
	w, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	for i, cand := range m.windows {
		if cand == w {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			break
		}
	}
}

// Ordered returns windows sorted front-to-back, descending z with
// ties broken by insertion order.
func (m *Manager) Ordered() []*Window {
	out := make([]*Window, len(m.windows))
	copy(out, m.windows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z > out[j].Z })
	return out
}

// ascendingByZ returns windows back-to-front (ascending z), the order
// Composite draws in so higher z-index ends up on top.
func (m *Manager) ascendingByZ() []*Window {
	out := make([]*Window, len(m.windows))
	copy(out, m.windows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// BringToFront re-ranks id above every other window, preserving the
// relative order of the rest.
func (m *Manager) BringToFront(id string) {
	w, ok := m.byID[id]
	if !ok {
		return
	}
	maxZ := w.Z
	for _, other := range m.windows {
		if other.Z > maxZ {
			maxZ = other.Z
		}
	}
	w.Z = maxZ + 1
	m.nextZ = w.Z + 1
}

// SendToBack re-ranks id below every other window, preserving the
// relative order of the rest.
func (m *Manager) SendToBack(id string) {
	w, ok := m.byID[id]
	if !ok {
		return
	}
	minZ := w.Z
	for _, other := range m.windows {
		if other.Z < minZ {
			minZ = other.Z
		}
	}
	w.Z = minZ - 1
}

// ClearAllWindows removes every window.
func (m *Manager) ClearAllWindows() {
	m.windows = nil
	m.byID = make(map[string]*Window)
}

// ClearBackground clears the background layer only.
func (m *Manager) ClearBackground() { m.background.Clear() }

// Reset is ClearAllWindows + ClearBackground.
func (m *Manager) Reset() {
	m.ClearAllWindows()
	m.ClearBackground()
}

// Composite copies background into display, then draws each visible
// window's chrome and content in ascending z-order. An invert window
// skips its own content/chrome draw and instead XOR-swaps fg/bg on
// every display cell it covers, showing
// whatever was composited underneath it by earlier (lower z) windows.
//
// Compositing never clears the display surface itself — only an
// explicit clear/reset touches background, and display is fully
// rewritten (not blended) from background on every call, so stale
// window content never leaks through from a prior composite.
func (m *Manager) Composite() {
	m.display.CopyFrom(m.background)

	for _, w := range m.ascendingByZ() {
		if !w.Flags.Visible {
			continue
		}
		if w.Flags.Invert {
			invertRegion(m.display, w.X, w.Y, w.W, w.H)
			continue
		}
		drawChrome(m.display, w, m.chromeFg, m.chromeBg)
		ox, oy := w.ContentOrigin()
		blit(m.display, w.content, ox, oy)
	}
}

func blit(dst *grid.Grid, src *grid.Grid, ox, oy int) {
	for y := 0; y < src.Rows(); y++ {
		for x := 0; x < src.Cols(); x++ {
			dst.Set(ox+x, oy+y, src.Get(x, y))
		}
	}
}

func invertRegion(dst *grid.Grid, x, y, w, h int) {
	for ry := y; ry < y+h; ry++ {
		for rx := x; rx < x+w; rx++ {
			c := dst.Get(rx, ry)
			c.Fg, c.Bg = c.Bg, c.Fg
			dst.Set(rx, ry, c)
		}
	}
}

// drawChrome paints a window's border, title, close glyph, and resize
// glyph onto dst.
func drawChrome(dst *grid.Grid, w *Window, fg, bg grid.Color) {
	if !w.Border.HasFrame() {
		return
	}
	g := w.Border.Glyphs()
	x0, y0 := w.X, w.Y
	x1, y1 := w.X+w.W-1, w.Y+w.H-1

	dst.Set(x0, y0, grid.NewCell(g.TopLeft, fg, bg, 0))
	dst.Set(x1, y0, grid.NewCell(g.TopRight, fg, bg, 0))
	dst.Set(x0, y1, grid.NewCell(g.BottomLeft, fg, bg, 0))
	dst.Set(x1, y1, grid.NewCell(g.BottomRight, fg, bg, 0))
	for x := x0 + 1; x < x1; x++ {
		dst.Set(x, y0, grid.NewCell(g.Horizontal, fg, bg, 0))
		dst.Set(x, y1, grid.NewCell(g.Horizontal, fg, bg, 0))
	}
	for y := y0 + 1; y < y1; y++ {
		dst.Set(x0, y, grid.NewCell(g.Vertical, fg, bg, 0))
		dst.Set(x1, y, grid.NewCell(g.Vertical, fg, bg, 0))
	}

	if w.Title != "" {
		titleX := x0 + 2
		if w.Flags.Closable {
			titleX = x0 + 4
		}
		dst.Print(titleX, y0, w.Title, fg, bg, 0)
	}

	if w.Flags.Closable {
		dst.Set(x0+1, y0, grid.NewCell(CloseGlyphLeft, fg, bg, 0))
		dst.Set(x0+2, y0, grid.NewCell('x', fg, bg, 0))
		dst.Set(x0+3, y0, grid.NewCell(CloseGlyphRight, fg, bg, 0))
	}

	if w.Flags.Resizable {
		dst.Set(x1, y1, grid.NewCell(ResizeGlyph, fg, bg, 0))
	}
}
