package vt

import (
	"strconv"
	"strings"

	"celld/internal/grid"
)

// step consumes one unit (a control byte, an escape sequence, or a
// printable rune) from the front of buf and applies it to the
// emulator's state. It returns the number of bytes consumed, or 0 if
// buf does not yet contain a complete unit (the caller buffers the
// remainder and waits for more data).
func (e *Emulator) step(buf []byte) int {
	b := buf[0]
	switch {
	case b == 0x1b:
		return e.stepEscape(buf)
	case b == '\n':
		e.newline()
		return 1
	case b == '\r':
		e.cur.x = 0
		return 1
	case b == '\b':
		if e.cur.x > 0 {
			e.cur.x--
		}
		return 1
	case b == '\t':
		next := (e.cur.x/8 + 1) * 8
		e.cur.x = clamp(next, 0, e.cols()-1)
		return 1
	case b < 0x20 || b == 0x7f:
		return 1 // other control bytes: silently consumed
	case b < 0x80:
		e.put(rune(b))
		return 1
	default:
		r, n, ok := decodeUTF8(buf)
		if !ok {
			return 0
		}
		e.put(r)
		return n
	}
}

func (e *Emulator) stepEscape(buf []byte) int {
	if len(buf) < 2 {
		return 0
	}
	switch buf[1] {
	case '[':
		return e.stepCSI(buf)
	case '7': // DECSC
		e.saveCursor()
		return 2
	case '8': // DECRC
		e.restoreCursor()
		return 2
	case 'M': // RI (reverse index) as a bare escape form
		if e.cur.y == e.scrollTop {
			e.scrollDown(1)
		} else if e.cur.y > 0 {
			e.cur.y--
		}
		return 2
	case 'D': // IND
		e.newline()
		return 2
	default:
		return 2 // unrecognized escape, silently consumed
	}
}

func (e *Emulator) saveCursor() {
	e.saved = e.cur
	e.hasSaved = true
}

func (e *Emulator) restoreCursor() {
	if e.hasSaved {
		e.cur = e.saved
	}
}

// stepCSI handles "ESC [ ... <terminator>", including private-mode
// sequences ("ESC [ ? ... h/l") and SCO cursor save/restore ("ESC [ s"
// / "ESC [ u").
func (e *Emulator) stepCSI(buf []byte) int {
	if len(buf) < 3 {
		return 0
	}
	i := 2
	private := buf[i] == '?'
	if private {
		i++
	}
	start := i
	for i < len(buf) && !isCSIFinal(buf[i]) {
		i++
	}
	if i >= len(buf) {
		return 0
	}
	params := string(buf[start:i])
	term := buf[i]
	n := i + 1

	if private {
		e.applyPrivateMode(params, term)
		return n
	}

	switch term {
	case 'A':
		e.setCursor(e.cur.x, e.cur.y-paramOr(params, 0, 1))
	case 'B':
		e.setCursor(e.cur.x, e.cur.y+paramOr(params, 0, 1))
	case 'C':
		e.setCursor(e.cur.x+paramOr(params, 0, 1), e.cur.y)
	case 'D':
		e.setCursor(e.cur.x-paramOr(params, 0, 1), e.cur.y)
	case 'E': // CNL
		e.setCursor(0, e.cur.y+paramOr(params, 0, 1))
	case 'F': // CPL
		e.setCursor(0, e.cur.y-paramOr(params, 0, 1))
	case 'G': // CHA
		e.setCursor(paramOr(params, 0, 1)-1, e.cur.y)
	case 'H', 'f': // CUP / HVP
		row, col := paramOr(params, 0, 1), paramOr(params, 1, 1)
		e.setCursor(col-1, row-1)
	case 'J':
		e.eraseScreen(paramOr(params, 0, 0))
	case 'K':
		e.eraseRow(e.cur.y, paramOr(params, 0, 0))
	case 'S':
		e.scrollUp(paramOr(params, 0, 1))
	case 'T':
		e.scrollDown(paramOr(params, 0, 1))
	case 'm':
		e.applySGR(params)
	case 'r':
		top, bottom := paramOr(params, 0, 1), paramOr(params, 1, e.rows())
		e.scrollTop = clamp(top-1, 0, e.rows()-1)
		e.scrollBottom = clamp(bottom-1, e.scrollTop, e.rows()-1)
	case 's': // SCO save cursor
		e.saveCursor()
	case 'u': // SCO restore cursor
		e.restoreCursor()
	default:
		// Recognized-but-unhandled CSI: silently consumed.
	}
	return n
}

func isCSIFinal(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func splitParams(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}

func paramOr(s string, idx, def int) int {
	parts := splitParams(s)
	if idx >= len(parts) || parts[idx] == "" {
		return def
	}
	v, err := strconv.Atoi(parts[idx])
	if err != nil || v == 0 {
		return def
	}
	return v
}

// applyPrivateMode handles "ESC [ ? Ps h" (DECSET) / "ESC [ ? Ps l"
// (DECRST). The only modes this emulator tracks are cursor visibility
// (25), the mouse-tracking family (1000/1002/1003) and SGR coordinate
// extension (1006); the mouse modes govern how SendMouse encodes
// outbound events.
func (e *Emulator) applyPrivateMode(params string, term byte) {
	set := term == 'h'
	for _, p := range splitParams(params) {
		switch p {
		case "1000":
			e.mouseMode = modeIf(set, MouseModeNormal)
		case "1002":
			e.mouseMode = modeIf(set, MouseModeButtonEvent)
		case "1003":
			e.mouseMode = modeIf(set, MouseModeAnyEvent)
		case "1006":
			e.mouseSGR = set
		case "25":
			e.cur.visible = set
		}
	}
}

func modeIf(set bool, m MouseMode) MouseMode {
	if set {
		return m
	}
	return MouseModeOff
}

// applySGR applies a "CSI ... m" parameter list to the current
// character attribute state.
func (e *Emulator) applySGR(params string) {
	parts := splitParams(params)
	if len(parts) == 0 {
		parts = []string{"0"}
	}
	for i := 0; i < len(parts); i++ {
		v, _ := strconv.Atoi(parts[i])
		switch {
		case v == 0:
			e.fg, e.bg, e.attrs = grid.DefaultFg, grid.DefaultBg, 0
		case v == 1:
			e.attrs |= grid.AttrBold
		case v == 2, v == 3:
			// dim / italic: recognized but not representable in
			// grid.Cell's fixed 4-flag attribute set; parsed
			// so they don't fall through as unknown, no visual effect.
		case v == 4:
			e.attrs |= grid.AttrUnderline
		case v == 5:
			e.attrs |= grid.AttrBlink
		case v == 7:
			e.attrs |= grid.AttrReverse
		case v == 21 || v == 22:
			e.attrs &^= grid.AttrBold
		case v == 23:
			// italic off: no-op, see case 2/3 above.
		case v == 24:
			e.attrs &^= grid.AttrUnderline
		case v == 25:
			e.attrs &^= grid.AttrBlink
		case v == 27:
			e.attrs &^= grid.AttrReverse
		case v >= 30 && v <= 37:
			e.fg = grid.Color(v - 30)
		case v == 38 && i+2 < len(parts) && parts[i+1] == "5":
			idx, _ := strconv.Atoi(parts[i+2])
			e.fg = apply256(idx)
			i += 2
		case v == 39:
			e.fg = grid.DefaultFg
		case v >= 40 && v <= 47:
			e.bg = grid.Color(v - 40)
		case v == 48 && i+2 < len(parts) && parts[i+1] == "5":
			idx, _ := strconv.Atoi(parts[i+2])
			e.bg = apply256(idx)
			i += 2
		case v == 49:
			e.bg = grid.DefaultBg
		case v >= 90 && v <= 97:
			e.fg = grid.Color(v - 90 + 8)
		case v >= 100 && v <= 107:
			e.bg = grid.Color(v - 100 + 8)
		}
	}
}

// decodeUTF8 assembles a single UTF-8 scalar starting at buf[0], which
// must be >= 0x80. Returns ok=false if buf doesn't yet hold enough
// continuation bytes (mirrors internal/input's decoder; the two
// packages parse different byte streams so sharing one helper isn't
// worth an import for four lines of bit-twiddling).
func decodeUTF8(buf []byte) (rune, int, bool) {
	b0 := buf[0]
	var n int
	var r rune
	switch {
	case b0&0xE0 == 0xC0:
		n, r = 2, rune(b0&0x1F)
	case b0&0xF0 == 0xE0:
		n, r = 3, rune(b0&0x0F)
	case b0&0xF8 == 0xF0:
		n, r = 4, rune(b0&0x07)
	default:
		return 0xFFFD, 1, true
	}
	if len(buf) < n {
		return 0, 0, false
	}
	for k := 1; k < n; k++ {
		cb := buf[k]
		if cb&0xC0 != 0x80 {
			return 0xFFFD, 1, true
		}
		r = r<<6 | rune(cb&0x3F)
	}
	return r, n, true
}
