package window

import "celld/internal/grid"

// Flags bundles the boolean affordances a window exposes.
type Flags struct {
	Closable  bool
	Resizable bool
	Draggable bool
	Visible   bool
	Invert    bool
}

// Spec describes the parameters of a create/update operation.
type Spec struct {
	ID     string
	X, Y   int
	W, H   int
	Border BorderStyle
	Title  string
	MinW   int
	MinH   int
	Flags  Flags
}

// Window is an id'd rectangle with its own content grid, chrome, and
// z-index.
type Window struct {
	ID     string
	X, Y   int
	W, H   int
	Border BorderStyle
	Title  string
	Z      int
	Flags  Flags
	MinW   int
	MinH   int

	content *grid.Grid
}

// contentSize computes the content-grid dimensions implied by a
// window's outer size and border setting: (width-2, height-2) for
// bordered windows, (width, height) for borderless. Dimensions are
// clamped to at least 1x1 so a tiny window never yields a degenerate
// zero-size grid.
func contentSize(w, h int, border BorderStyle) (int, int) {
	cw, ch := w, h
	if border.HasFrame() {
		cw, ch = w-2, h-2
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return cw, ch
}

// New constructs a Window from a Spec, allocating its content grid at
// the size implied by (W, H, Border).
func New(spec Spec) *Window {
	cw, ch := contentSize(spec.W, spec.H, spec.Border)
	return &Window{
		ID:     spec.ID,
		X:      spec.X,
		Y:      spec.Y,
		W:      spec.W,
		H:      spec.H,
		Border: spec.Border,
		Title:  spec.Title,
		Flags:  spec.Flags,
		MinW:   spec.MinW,
		MinH:   spec.MinH,

		content: grid.New(cw, ch),
	}
}

// ContentGrid returns the window's owned content grid.
func (w *Window) ContentGrid() *grid.Grid { return w.content }

// dimensionsChanged reports whether (w2,h2,border2) implies a different
// content-grid size than the window currently has, or a different
// border style (which counts as a change even when the content size
// stays the same) — the idempotent create_window contract hinges on
// this: content is only wiped when it reports true.
func (win *Window) dimensionsChanged(w2, h2 int, border2 BorderStyle) bool {
	if win.W != w2 || win.H != h2 || win.Border != border2 {
		cw1, ch1 := contentSize(win.W, win.H, win.Border)
		cw2, ch2 := contentSize(w2, h2, border2)
		return cw1 != cw2 || ch1 != ch2 || win.Border != border2
	}
	return false
}

// SetBorder changes the border style. Any change of style reallocates
// and clears the content grid, even one that keeps the content size
// (single to double) — callers must be aware this loses prior content.
func (w *Window) SetBorder(style BorderStyle) {
	if w.dimensionsChanged(w.W, w.H, style) {
		w.Border = style
		cw, ch := contentSize(w.W, w.H, w.Border)
		w.content.Resize(cw, ch)
		return
	}
	w.Border = style
}

// SetTitle updates the window's title.
func (w *Window) SetTitle(title string) { w.Title = title }

// SetInvert toggles the XOR-composite overlay flag.
func (w *Window) SetInvert(invert bool) { w.Flags.Invert = invert }

// Resize sets the window's outer size, reallocating the content grid
// (and losing its contents) only if the resulting content-grid size
// actually differs — this is the same "only if changed" discipline as
// the idempotent create, just applied to an explicit resize_window /
// update_window command or the chrome resize-drag state machine.
func (w *Window) Resize(width, height int) {
	if w.dimensionsChanged(width, height, w.Border) {
		w.W, w.H = width, height
		cw, ch := contentSize(w.W, w.H, w.Border)
		w.content.Resize(cw, ch)
		return
	}
	w.W, w.H = width, height
}

// Move updates the window's position only (no content-grid effect).
func (w *Window) Move(x, y int) { w.X, w.Y = x, y }

// ContentOrigin returns the screen-relative offset of content-grid
// (0,0): one cell in from the border on each side for bordered windows,
// the window's own origin for borderless ones.
func (w *Window) ContentOrigin() (int, int) {
	if w.Border.HasFrame() {
		return w.X + 1, w.Y + 1
	}
	return w.X, w.Y
}
