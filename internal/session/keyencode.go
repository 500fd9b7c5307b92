package session

import (
	"celld/internal/input"
	"celld/internal/vt"
)

// keyBytes is the byte-exact inverse of internal/input/parser.go's
// csiLetterKeys/tildeKeys/ss3Keys decode tables: it turns a named key
// back into the VT escape sequence a real terminal would have sent for
// it, so forwarding keyboard input to an embedded terminal
// round-trips through any VT100-compatible remote program exactly as it
// would have arrived from a real terminal.
func keyBytes(key input.KeyName, e *vt.Emulator) []byte {
	switch key {
	case input.ArrowUp:
		return []byte{0x1b, '[', 'A'}
	case input.ArrowDown:
		return []byte{0x1b, '[', 'B'}
	case input.ArrowRight:
		return []byte{0x1b, '[', 'C'}
	case input.ArrowLeft:
		return []byte{0x1b, '[', 'D'}
	case input.Home:
		return []byte{0x1b, '[', 'H'}
	case input.End:
		return []byte{0x1b, '[', 'F'}
	case input.PageUp:
		return []byte{0x1b, '[', '5', '~'}
	case input.PageDown:
		return []byte{0x1b, '[', '6', '~'}
	case input.Insert:
		return []byte{0x1b, '[', '2', '~'}
	case input.Delete:
		return []byte{0x1b, '[', '3', '~'}
	case input.F1:
		return []byte{0x1b, 'O', 'P'}
	case input.F2:
		return []byte{0x1b, 'O', 'Q'}
	case input.F3:
		return []byte{0x1b, 'O', 'R'}
	case input.F4:
		return []byte{0x1b, 'O', 'S'}
	case input.F5:
		return []byte{0x1b, '[', '1', '5', '~'}
	case input.F6:
		return []byte{0x1b, '[', '1', '7', '~'}
	case input.F7:
		return []byte{0x1b, '[', '1', '8', '~'}
	case input.F8:
		return []byte{0x1b, '[', '1', '9', '~'}
	case input.F9:
		return []byte{0x1b, '[', '2', '0', '~'}
	case input.F10:
		return []byte{0x1b, '[', '2', '1', '~'}
	case input.F11:
		return []byte{0x1b, '[', '2', '3', '~'}
	case input.F12:
		return []byte{0x1b, '[', '2', '4', '~'}
	case input.Escape:
		return []byte{0x1b}
	case input.Tab:
		return []byte{0x09}
	case input.Backspace:
		return []byte{0x7f}
	case input.Enter:
		if e != nil {
			return e.EnterBytes()
		}
		return []byte{'\r'}
	default:
		return nil
	}
}
