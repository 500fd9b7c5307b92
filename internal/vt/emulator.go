// Package vt implements the ANSI/VT100 terminal emulator embedded
// terminals run: a small state machine that turns bytes
// received from a remote TCP host into mutations of a private
// grid.Grid, plus the telnet option negotiation and outbound mouse
// encoding the hosting session needs to talk to that remote host.
package vt

import (
	"context"
	"net"
	"time"

	"celld/internal/colormap"
	"celld/internal/grid"
)

// LineEnding selects what pressing Enter transmits to the remote host.
type LineEnding int

const (
	LineEndingCR LineEnding = iota
	LineEndingCRLF
)

// MouseMode is the mouse-reporting mode the remote program has
// requested via DECSET, scoped to one embedded terminal's idea of what
// its remote peer wants.
type MouseMode int

const (
	MouseModeOff MouseMode = iota
	MouseModeX10
	MouseModeNormal
	MouseModeButtonEvent
	MouseModeAnyEvent
)

// Config holds the per-embedded-terminal settings.
type Config struct {
	LocalEcho  bool
	LineEnding LineEnding
}

// cursor is the emulator's cursor state; the DECSC/SCO save slot
// (Emulator.saved) is a second value of this type.
type cursor struct {
	x, y    int
	visible bool
}

// Emulator is one embedded terminal: an
// owned content grid, cursor state, scroll region, current character
// attributes, and the TCP connection to the remote host.
type Emulator struct {
	grid *grid.Grid

	cur      cursor
	saved    cursor
	hasSaved bool

	scrollTop, scrollBottom int

	fg, bg grid.Color
	attrs  grid.Attr

	conn net.Conn
	cfg  Config

	mouseMode MouseMode
	mouseSGR  bool // DECSET ?1006: SGR extended mouse coordinates
	telnet    telnetState
	pending   []byte // partial escape/telnet sequence across Feed calls
	closed    bool
}

// Dial opens the TCP connection to the remote host with a 10-second
// connect timeout and returns a ready Emulator sized cols x rows. On
// timeout or refusal the caller should report terminal_error and still
// keep the hosting window.
func Dial(ctx context.Context, host string, port string, cols, rows int) (*Emulator, error) {
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
	}
	return newEmulator(conn, cols, rows), nil
}

func newEmulator(conn net.Conn, cols, rows int) *Emulator {
	e := &Emulator{
		grid:         grid.New(cols, rows),
		conn:         conn,
		scrollBottom: rows - 1,
		fg:           grid.DefaultFg,
		bg:           grid.DefaultBg,
		cur:          cursor{visible: true},
	}
	e.telnet.willNAWS(conn)
	return e
}

// Conn returns the underlying remote connection, for the owning
// session's read-loop goroutine.
func (e *Emulator) Conn() net.Conn { return e.conn }

// Grid returns the emulator's content grid, copied into the hosting
// window on every flush.
func (e *Emulator) Grid() *grid.Grid { return e.grid }

// Configure applies local_echo / line_ending settings.
func (e *Emulator) Configure(cfg Config) { e.cfg = cfg }

// Close tears down the remote connection.
func (e *Emulator) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.conn.Close()
}

// Resize reallocates the content grid and reports the new size to the
// remote host over NAWS.
func (e *Emulator) Resize(cols, rows int) {
	e.grid.Resize(cols, rows)
	e.scrollTop, e.scrollBottom = 0, rows-1
	if e.cur.x >= cols {
		e.cur.x = cols - 1
	}
	if e.cur.y >= rows {
		e.cur.y = rows - 1
	}
	e.telnet.sendNAWS(e.conn, cols, rows)
}

// Send transmits bytes to the remote host,
// applying them locally first when local_echo is configured.
func (e *Emulator) Send(data []byte) error {
	if e.cfg.LocalEcho {
		e.Feed(data)
	}
	_, err := e.conn.Write(data)
	return err
}

// EnterBytes returns the bytes pressing Enter transmits, per the
// configured line ending.
func (e *Emulator) EnterBytes() []byte {
	if e.cfg.LineEnding == LineEndingCRLF {
		return []byte{'\r', '\n'}
	}
	return []byte{'\r'}
}

// Feed processes a batch of bytes received from the remote host: IAC
// telnet negotiation is stripped before the remaining bytes reach the
// ANSI state machine. It must only ever be called from
// the owning session's single task.
func (e *Emulator) Feed(data []byte) {
	buf := append(e.pending, data...)
	e.pending = nil

	ansiBytes, rest := e.telnet.strip(buf, e.conn)

	i := 0
	for i < len(ansiBytes) {
		n := e.step(ansiBytes[i:])
		if n == 0 {
			e.pending = append(e.pending, ansiBytes[i:]...)
			break
		}
		i += n
	}
	e.pending = append(e.pending, rest...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *Emulator) cols() int { return e.grid.Cols() }
func (e *Emulator) rows() int { return e.grid.Rows() }

func (e *Emulator) setCursor(x, y int) {
	e.cur.x = clamp(x, 0, e.cols()-1)
	e.cur.y = clamp(y, 0, e.rows()-1)
}

func (e *Emulator) currentCell(r rune) grid.Cell {
	return grid.NewCell(r, e.fg, e.bg, e.attrs)
}

// put writes one printable rune at the cursor and advances, wrapping
// to the next line at the right margin (the VT100 "autowrap" a
// character-cell terminal needs even though the hosted grid.Grid
// itself never wraps text on Print — that clipping rule is for the
// direct-draw protocol commands, not this emulator's own cursor
// discipline).
func (e *Emulator) put(r rune) {
	if e.cur.x >= e.cols() {
		e.newline()
	}
	e.grid.Set(e.cur.x, e.cur.y, e.currentCell(r))
	e.cur.x++
}

func (e *Emulator) newline() {
	e.cur.x = 0
	if e.cur.y == e.scrollBottom {
		e.scrollUp(1)
		return
	}
	if e.cur.y < e.rows()-1 {
		e.cur.y++
	}
}

// scrollUp shifts rows [scrollTop, scrollBottom] up by n, filling the
// vacated bottom rows with the current background.
func (e *Emulator) scrollUp(n int) {
	blank := grid.NewCell(' ', e.fg, e.bg, 0)
	for y := e.scrollTop; y <= e.scrollBottom; y++ {
		src := y + n
		for x := 0; x < e.cols(); x++ {
			if src <= e.scrollBottom {
				e.grid.Set(x, y, e.grid.Get(x, src))
			} else {
				e.grid.Set(x, y, blank)
			}
		}
	}
}

// scrollDown shifts rows [scrollTop, scrollBottom] down by n.
func (e *Emulator) scrollDown(n int) {
	blank := grid.NewCell(' ', e.fg, e.bg, 0)
	for y := e.scrollBottom; y >= e.scrollTop; y-- {
		src := y - n
		for x := 0; x < e.cols(); x++ {
			if src >= e.scrollTop {
				e.grid.Set(x, y, e.grid.Get(x, src))
			} else {
				e.grid.Set(x, y, blank)
			}
		}
	}
}

func (e *Emulator) eraseRow(y, mode int) {
	switch mode {
	case 0:
		e.eraseRange(e.cur.x, y, e.cols()-1, y)
	case 1:
		e.eraseRange(0, y, e.cur.x, y)
	case 2:
		e.eraseRange(0, y, e.cols()-1, y)
	}
}

func (e *Emulator) eraseRange(x0, y0, x1, y1 int) {
	blank := grid.NewCell(' ', e.fg, e.bg, 0)
	for x := x0; x <= x1; x++ {
		e.grid.Set(x, y0, blank)
	}
	_ = y1
}

func (e *Emulator) eraseScreen(mode int) {
	blank := grid.NewCell(' ', e.fg, e.bg, 0)
	switch mode {
	case 0:
		for y := e.cur.y; y < e.rows(); y++ {
			lo := 0
			if y == e.cur.y {
				lo = e.cur.x
			}
			for x := lo; x < e.cols(); x++ {
				e.grid.Set(x, y, blank)
			}
		}
	case 1:
		for y := 0; y <= e.cur.y; y++ {
			hi := e.cols() - 1
			if y == e.cur.y {
				hi = e.cur.x
			}
			for x := 0; x <= hi; x++ {
				e.grid.Set(x, y, blank)
			}
		}
	case 2:
		e.grid.Fill(grid.Rect{X: 0, Y: 0, W: e.cols(), H: e.rows()}, blank)
	}
}

// apply256 resolves an xterm 256-color index through colormap.
func apply256(idx int) grid.Color { return colormap.From256(idx) }
