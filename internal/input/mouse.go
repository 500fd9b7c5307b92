package input

import "strconv"

// decodeButton unpacks the shared bit layout both mouse encodings use for
// their button field: bits 0-1 select button/wheel direction,
// bit 2 shift, bit 3 alt, bit 4 ctrl, bit 5 motion, bit 6 wheel.
type decodedButton struct {
	button MouseButton
	mods   Modifiers
	motion bool
	// real reports whether bits 0-1 name an actual pressed button (0, 1,
	// or 2) as opposed to the "no button" code (3) SGR uses for
	// button-less motion and release-trailing reports.
	real bool
}

func decodeButton(cb int) decodedButton {
	low := cb & 0x3
	d := decodedButton{
		mods: Modifiers{
			Shift: cb&0x04 != 0,
			Alt:   cb&0x08 != 0,
			Ctrl:  cb&0x10 != 0,
		},
		motion: cb&0x20 != 0,
	}

	if cb&0x40 != 0 {
		// Wheel: low bits pick direction, not a button.
		if low == 0 {
			d.button = WheelUp
		} else {
			d.button = WheelDown
		}
		d.real = true
		return d
	}

	switch low {
	case 0:
		d.button, d.real = ButtonLeft, true
	case 1:
		d.button, d.real = ButtonMiddle, true
	case 2:
		d.button, d.real = ButtonRight, true
	default: // 3: no button
		d.button, d.real = ButtonNone, false
	}
	return d
}

// decodeX10Mouse decodes "ESC [ M Cb Cx Cy": 6 bytes
// total, each coordinate transmitted as value+32. Returns ok=false if buf
// doesn't yet hold all 6 bytes.
func decodeX10Mouse(buf []byte) (*Event, int, bool) {
	const n = 6
	if len(buf) < n {
		return nil, 0, false
	}

	cb := int(buf[3]) - 32
	x := int(buf[4]) - 32 - 1
	y := int(buf[5]) - 32 - 1

	d := decodeButton(cb)
	action := Press
	switch {
	case d.motion && d.real:
		action = Drag
	case d.motion && !d.real:
		action = Move
	}

	return &Event{
		Kind: KindMouse, X: x, Y: y,
		Button: d.button, Action: action, Mods: d.mods,
	}, n, true
}

// decodeSGRMouse decodes "ESC [ < Pb ; Px ; Py M|m".
// Coordinates are 1-based on the wire and converted to 0-based. The
// release-vs-move contract is load-bearing here: a lowercase 'm'
// terminator only means Release when the button field names a real
// button; a button-less motion report terminated by 'm' (the tail end of
// a drag, after the button has already been released) must be classified
// as Move.
func decodeSGRMouse(buf []byte) (*Event, int, bool) {
	// buf[0:3] = "ESC [ <"
	j := 3
	for j < len(buf) && buf[j] != 'M' && buf[j] != 'm' {
		j++
	}
	if j >= len(buf) {
		return nil, 0, false
	}
	term := buf[j]
	fields := splitFields(buf[3:j])
	if len(fields) != 3 {
		return nil, j + 1, true // malformed, swallow it
	}

	cb, _ := strconv.Atoi(fields[0])
	px, _ := strconv.Atoi(fields[1])
	py, _ := strconv.Atoi(fields[2])
	x, y := px-1, py-1

	d := decodeButton(cb)

	var action MouseAction
	if term == 'm' {
		if d.real {
			action = Release
		} else {
			action = Move
		}
	} else {
		switch {
		case d.motion && d.real:
			action = Drag
		case d.motion && !d.real:
			action = Move
		default:
			action = Press
		}
	}

	return &Event{
		Kind: KindMouse, X: x, Y: y,
		Button: d.button, Action: action, Mods: d.mods,
	}, j + 1, true
}

func splitFields(b []byte) []string {
	var fields []string
	start := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == ';' {
			fields = append(fields, string(b[start:i]))
			start = i + 1
		}
	}
	return fields
}
