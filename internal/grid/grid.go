package grid

// Rect is an axis-aligned region in grid coordinates, used by Fill.
type Rect struct {
	X, Y, W, H int
}

// Grid is a fixed-size (cols x rows) array of cells with dirty-bit
// accounting. Every mutator silently ignores
// out-of-bounds coordinates; nothing here ever fails.
type Grid struct {
	cols, rows int
	cells      []Cell
	dirty      []bool
}

// New allocates a cols x rows grid filled with the default cell. Every
// cell starts dirty, matching Clear's contract — a freshly created grid
// has never been rendered, so everything needs to be sent once.
func New(cols, rows int) *Grid {
	g := &Grid{cols: cols, rows: rows}
	g.cells = make([]Cell, cols*rows)
	g.dirty = make([]bool, cols*rows)
	g.Clear()
	return g
}

// Cols returns the grid's fixed column count.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the grid's fixed row count.
func (g *Grid) Rows() int { return g.rows }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.cols && y < g.rows
}

func (g *Grid) index(x, y int) int { return y*g.cols + x }

// Get returns the cell at (x, y), or the default cell if out of bounds.
func (g *Grid) Get(x, y int) Cell {
	if !g.inBounds(x, y) {
		return Default()
	}
	return g.cells[g.index(x, y)]
}

// Set writes a cell at (x, y). Out-of-range writes are no-ops.
func (g *Grid) Set(x, y int, c Cell) {
	if !g.inBounds(x, y) {
		return
	}
	i := g.index(x, y)
	g.cells[i] = c
	g.dirty[i] = true
}

// Fill writes c to every cell inside rect, clipped to the grid bounds.
func (g *Grid) Fill(rect Rect, c Cell) {
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			g.Set(x, y, c)
		}
	}
}

// Print writes text starting at (x, y), advancing one cell per Unicode
// scalar. It clips at the row end rather than wrapping: a
// string longer than the remaining columns is truncated. Each scalar
// occupies exactly one cell — wide glyphs are the caller's problem.
func (g *Grid) Print(x, y int, text string, fg, bg Color, attrs Attr) {
	col := x
	for _, r := range text {
		if col >= g.cols {
			return
		}
		g.Set(col, y, NewCell(r, fg, bg, attrs))
		col++
	}
}

// Clear resets every cell to the default and marks the whole grid dirty.
func (g *Grid) Clear() {
	def := Default()
	for i := range g.cells {
		g.cells[i] = def
		g.dirty[i] = true
	}
}

// Resize reallocates the cell array to cols x rows, resets content to
// the default cell, and marks everything dirty. Resize reallocates
// rather than stretches: any prior content is lost.
func (g *Grid) Resize(cols, rows int) {
	g.cols, g.rows = cols, rows
	g.cells = make([]Cell, cols*rows)
	g.dirty = make([]bool, cols*rows)
	g.Clear()
}

// CopyFrom copies the region both grids share from other into g at the
// same coordinates and marks every copied cell dirty; for grids of the
// same size that is every destination cell. Cells of g outside the
// overlap are left untouched and keep their dirty bits.
func (g *Grid) CopyFrom(other *Grid) {
	cols, rows := g.cols, g.rows
	if other.cols < cols {
		cols = other.cols
	}
	if other.rows < rows {
		rows = other.rows
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			i := g.index(x, y)
			g.cells[i] = other.cells[other.index(x, y)]
			g.dirty[i] = true
		}
	}
}

// DirtyCells returns the (x, y) coordinates of every cell whose dirty
// bit is set, in row-major scan order (so callers grouping by scanline
// for delta rendering get them pre-sorted).
func (g *Grid) DirtyCells() [][2]int {
	out := make([][2]int, 0)
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			if g.dirty[g.index(x, y)] {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// IsDirty reports whether (x, y) has its dirty bit set.
func (g *Grid) IsDirty(x, y int) bool {
	if !g.inBounds(x, y) {
		return false
	}
	return g.dirty[g.index(x, y)]
}

// ClearDirty flips every dirty bit off.
func (g *Grid) ClearDirty() {
	for i := range g.dirty {
		g.dirty[i] = false
	}
}
