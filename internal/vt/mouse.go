package vt

import "github.com/charmbracelet/x/ansi"

// MouseButton mirrors the X11 button numbering the X10/SGR mouse wire
// formats use: 1=left, 2=middle, 3=right, 4/5=wheel up/down, 6/7=wheel
// left/right, 8/9=back/forward. 0 means no button, used for plain
// motion reports.
type MouseButton int

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonMiddle
	MouseButtonRight
	MouseWheelUp
	MouseWheelDown
	MouseWheelLeft
	MouseWheelRight
	MouseButtonBackward
	MouseButtonForward
)

// MouseAction is the action half of an outbound mouse report.
type MouseAction int

const (
	MouseActionPress MouseAction = iota
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

// SendMouse forwards a client mouse event into the emulator's remote
// host, encoded per whichever tracking mode and coordinate extension
// the remote last requested via DECSET. x and y are 0-based
// content-relative cell coordinates.
//
// The gating rules decide which modes accept which actions; the
// coordinate encoding (X10 or SGR) follows whichever extension the
// remote enabled last.
func (e *Emulator) SendMouse(action MouseAction, btn MouseButton, x, y int, shift, alt, ctrl bool) {
	if e.mouseMode == MouseModeOff {
		return
	}

	isMotion := action == MouseActionMove || action == MouseActionDrag
	if isMotion {
		switch e.mouseMode {
		case MouseModeX10, MouseModeNormal:
			return // these modes don't report motion at all
		case MouseModeButtonEvent:
			if btn == MouseButtonNone {
				return // cell-motion mode only forwards motion while a button is held
			}
		}
	}

	isRelease := action == MouseActionRelease
	b := ansi.EncodeMouseButton(ansi.MouseButton(btn), isMotion, shift, alt, ctrl)

	var seq string
	if e.mouseSGR {
		seq = ansi.MouseSgr(b, x, y, isRelease)
	} else {
		seq = ansi.MouseX10(b, x, y)
	}
	_, _ = e.conn.Write([]byte(seq))
}
