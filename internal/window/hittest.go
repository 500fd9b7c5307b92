package window

// Region names a sub-region of a window's screen footprint, as
// answered by the hit-test map after compositing.
type Region int

// The closed set of hit-test sub-regions.
const (
	RegionNone Region = iota
	RegionTitleBar
	RegionCloseButton
	RegionResizeHandle
	RegionContent
	RegionBorderOther
)

// HitTestResult pairs a hit window with the sub-region struck, and the
// point translated to window-relative coordinates; content hits are
// forwarded to applications in window-relative form.
type HitTestResult struct {
	Window     *Window
	Region     Region
	RelX, RelY int
}

// HitTest answers "which window and which sub-region is at (x, y)?"
// using the manager's current z-order. The z values are read live, so
// BringToFront/SendToBack calls made earlier in the same tick are
// reflected even before the next Composite.
func (m *Manager) HitTest(x, y int) HitTestResult {
	for _, w := range m.Ordered() {
		if !w.Flags.Visible {
			continue
		}
		if x < w.X || x >= w.X+w.W || y < w.Y || y >= w.Y+w.H {
			continue
		}
		region, relX, relY := classify(w, x, y)
		return HitTestResult{Window: w, Region: region, RelX: relX, RelY: relY}
	}
	return HitTestResult{Region: RegionNone}
}

func classify(w *Window, x, y int) (Region, int, int) {
	localX, localY := x-w.X, y-w.Y

	if w.Flags.Resizable && localX == w.W-1 && localY == w.H-1 {
		return RegionResizeHandle, localX, localY
	}

	if w.Flags.Closable && localY == 0 && localX >= 1 && localX <= 3 {
		return RegionCloseButton, localX, localY
	}

	if localY == 0 && w.Flags.Draggable {
		// Title bar spans row 0 between the close glyph and the
		// resize region. The resize region only occupies
		// row 0 when the window is a single row tall and resizable,
		// handled by the resize-handle check above taking priority.
		left := 0
		if w.Flags.Closable {
			left = 4
		}
		right := w.W - 1
		if localX >= left && localX < right {
			return RegionTitleBar, localX, localY
		}
	}

	ox, oy := w.ContentOrigin()
	if x >= ox && y >= oy && x < ox+w.content.Cols() && y < oy+w.content.Rows() {
		return RegionContent, x - ox, y - oy
	}

	return RegionBorderOther, localX, localY
}
