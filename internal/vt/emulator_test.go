package vt

import (
	"net"
	"testing"
	"time"

	"celld/internal/grid"
)

func deadlineSoon() time.Time { return time.Now().Add(50 * time.Millisecond) }

// newTestEmulator builds an Emulator without the Dial/willNAWS handshake
// (which would block on an unread net.Pipe), for tests that only care
// about Feed's ANSI-parsing side effects on the grid.
func newTestEmulator(t *testing.T, cols, rows int) (*Emulator, net.Conn) {
	t.Helper()
	local, remote := pipePair(t)
	e := &Emulator{
		grid:         grid.New(cols, rows),
		conn:         local,
		scrollBottom: rows - 1,
		fg:           grid.DefaultFg,
		bg:           grid.DefaultBg,
		cur:          cursor{visible: true},
	}
	return e, remote
}

func TestFeedPlainTextAdvancesCursor(t *testing.T) {
	e, _ := newTestEmulator(t, 10, 3)
	e.Feed([]byte("hi"))
	if e.grid.Get(0, 0).Glyph != 'h' || e.grid.Get(1, 0).Glyph != 'i' {
		t.Fatalf("grid = %+v", e.grid.Get(0, 0))
	}
	if e.cur.x != 2 || e.cur.y != 0 {
		t.Fatalf("cursor = (%d,%d), want (2,0)", e.cur.x, e.cur.y)
	}
}

func TestFeedCursorPositioning(t *testing.T) {
	e, _ := newTestEmulator(t, 10, 5)
	e.Feed([]byte("\x1b[3;4H*"))
	if e.grid.Get(3, 2).Glyph != '*' {
		t.Fatalf("expected '*' at (3,2), got %+v", e.grid.Get(3, 2))
	}
}

func TestFeedEraseScreen(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 2)
	e.Feed([]byte("abcd\x1b[2J"))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if g := e.grid.Get(x, y).Glyph; g != ' ' {
				t.Fatalf("(%d,%d) = %q, want blank after ED 2", x, y, g)
			}
		}
	}
}

func TestFeedScrollUpOnNewlineAtBottom(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 2)
	e.Feed([]byte("AAAA\nBBBB\nCCCC"))
	if e.grid.Get(0, 0).Glyph != 'B' || e.grid.Get(0, 1).Glyph != 'C' {
		t.Fatalf("row0=%q row1=%q, want B/C after the second newline scrolls",
			e.grid.Get(0, 0).Glyph, e.grid.Get(0, 1).Glyph)
	}
}

func TestFeedSGRColorAndBold(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 1)
	e.Feed([]byte("\x1b[1;31mX"))
	c := e.grid.Get(0, 0)
	if c.Fg != grid.Red || !c.Attrs.Has(grid.AttrBold) {
		t.Fatalf("cell = %+v, want red+bold", c)
	}
}

func TestFeedSGRReset(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 1)
	e.Feed([]byte("\x1b[1;31m\x1b[0mX"))
	c := e.grid.Get(0, 0)
	if c.Fg != grid.DefaultFg || c.Attrs != 0 {
		t.Fatalf("cell = %+v, want default after SGR reset", c)
	}
}

func TestFeedSGR256ColorMapsToNearest16(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 1)
	// 256-color index 196 is a saturated red in the color cube.
	e.Feed([]byte("\x1b[38;5;196mX"))
	if e.grid.Get(0, 0).Fg != grid.Red && e.grid.Get(0, 0).Fg != grid.BrightRed {
		t.Fatalf("fg = %v, want a red-family 16-color index", e.grid.Get(0, 0).Fg)
	}
}

func TestFeedSplitEscapeAcrossCalls(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 1)
	e.Feed([]byte{0x1b, '['})
	e.Feed([]byte("1;31mX"))
	c := e.grid.Get(0, 0)
	if c.Fg != grid.Red {
		t.Fatalf("split CSI sequence not reassembled, cell = %+v", c)
	}
}

func TestFeedStripsTelnetBeforeANSI(t *testing.T) {
	e, _ := newTestEmulator(t, 4, 1)
	e.Feed([]byte{'a', iac, wont, 1, 'b'})
	if e.grid.Get(0, 0).Glyph != 'a' || e.grid.Get(1, 0).Glyph != 'b' {
		t.Fatalf("telnet bytes leaked into grid: %+v %+v", e.grid.Get(0, 0), e.grid.Get(1, 0))
	}
}

func TestResizeSendsNAWS(t *testing.T) {
	e, remote := newTestEmulator(t, 4, 1)
	go e.Resize(10, 5)
	got := readSome(t, remote)
	want := []byte{iac, sb, optNAWS, 0, 10, 0, 5, iac, se}
	if string(got) != string(want) {
		t.Fatalf("got % x, want % x", got, want)
	}
	if e.cols() != 10 || e.rows() != 5 {
		t.Fatalf("grid not resized: %dx%d", e.cols(), e.rows())
	}
}

func TestSendMouseGatedByModeOff(t *testing.T) {
	e, remote := newTestEmulator(t, 10, 10)
	e.SendMouse(MouseActionPress, MouseButtonLeft, 1, 1, false, false, false)
	_ = remote.SetReadDeadline(deadlineSoon())
	buf := make([]byte, 8)
	if _, err := remote.Read(buf); err == nil {
		t.Fatalf("expected no bytes written while mouse mode is off")
	}
}

func TestSendMouseEncodesSGRWhenNegotiated(t *testing.T) {
	e, remote := newTestEmulator(t, 10, 10)
	e.mouseMode = MouseModeNormal
	e.mouseSGR = true
	go e.SendMouse(MouseActionPress, MouseButtonLeft, 2, 3, false, false, false)
	got := readSome(t, remote)
	if len(got) == 0 || got[0] != 0x1b {
		t.Fatalf("expected an SGR mouse escape sequence, got % x", got)
	}
}

func TestSendMouseDropsMotionInNormalMode(t *testing.T) {
	e, remote := newTestEmulator(t, 10, 10)
	e.mouseMode = MouseModeNormal
	e.SendMouse(MouseActionMove, MouseButtonNone, 2, 3, false, false, false)
	_ = remote.SetReadDeadline(deadlineSoon())
	buf := make([]byte, 8)
	if _, err := remote.Read(buf); err == nil {
		t.Fatalf("normal mode must not forward motion, got bytes")
	}
}
