package input

// Parser incrementally decodes a client byte stream into Events,
// buffering partial escape sequences and partial UTF-8 runes across
// Feed calls.
type Parser struct {
	pending []byte
}

// NewParser returns a ready-to-use Parser.
func NewParser() *Parser { return &Parser{} }

// Feed consumes data (appended to any previously buffered partial
// sequence) and returns every Event it can fully decode. Bytes that
// begin a sequence without enough following bytes to complete it are
// retained and combined with the next call's data.
//
// A bare ESC with nothing else available in this call is reported
// immediately as Key{escape}; this parser treats one Feed call as one read,
// since it has no wall-clock timer of its own.
func (p *Parser) Feed(data []byte) []Event {
	buf := append(p.pending, data...)
	p.pending = nil

	var events []Event
	i := 0
	for i < len(buf) {
		b := buf[i]
		switch {
		case b == 0x1b:
			ev, consumed, ok := decodeEscape(buf[i:])
			if !ok {
				p.pending = append(p.pending, buf[i:]...)
				i = len(buf)
				continue
			}
			if consumed == 0 {
				// Incomplete, but more bytes might still be coming in
				// this same call (decodeEscape only returns ok=false
				// for that); consumed==0 never pairs with ok==true.
				i = len(buf)
				continue
			}
			if ev != nil {
				events = append(events, *ev)
			}
			i += consumed

		case b == 0x7f:
			events = append(events, Event{Kind: KindKey, Key: Backspace})
			i++
		case b == 0x08:
			events = append(events, Event{Kind: KindKey, Key: Backspace})
			i++
		case b == 0x09:
			events = append(events, Event{Kind: KindKey, Key: Tab})
			i++
		case b == 0x0d:
			events = append(events, Event{Kind: KindKey, Key: Enter})
			i++
		case b < 0x20:
			// No named key covers this control byte; report it as the
			// literal control character.
			events = append(events, Event{Kind: KindChar, Char: rune(b)})
			i++
		case b < 0x80:
			events = append(events, Event{Kind: KindChar, Char: rune(b)})
			i++
		default:
			r, n, ok := decodeUTF8(buf[i:])
			if !ok {
				p.pending = append(p.pending, buf[i:]...)
				i = len(buf)
				continue
			}
			events = append(events, Event{Kind: KindChar, Char: r})
			i += n
		}
	}
	return events
}

// decodeEscape decodes one escape sequence starting at buf[0] == 0x1b.
// Returns (event, bytesConsumed, ok). ok=false means buf does not yet
// contain a complete sequence and the caller should buffer all of it.
// event is nil for sequences that decode successfully but produce no
// Event: unrecognized SS3 and CSI sequences and malformed SGR mouse
// reports are swallowed this way.
func decodeEscape(buf []byte) (*Event, int, bool) {
	if len(buf) < 2 {
		if len(buf) == 1 {
			// Bare ESC with nothing else available this read.
			return &Event{Kind: KindKey, Key: Escape}, 1, true
		}
		return nil, 0, false
	}

	switch buf[1] {
	case 'O':
		if len(buf) < 3 {
			return nil, 0, false
		}
		if key, ok := ss3Keys[buf[2]]; ok {
			return &Event{Kind: KindKey, Key: key}, 3, true
		}
		return nil, 3, true // unrecognized SS3, swallow it
	case '[':
		return decodeCSI(buf)
	default:
		// Unrecognized escape-prefixed sequence: treat the ESC alone
		// as the escape key and let the following byte be reprocessed
		// on the next loop iteration as ordinary input.
		return &Event{Kind: KindKey, Key: Escape}, 1, true
	}
}

var ss3Keys = map[byte]KeyName{
	'P': F1, 'Q': F2, 'R': F3, 'S': F4,
}

// decodeCSI decodes "ESC [ ...", including the X10 and SGR mouse forms.
func decodeCSI(buf []byte) (*Event, int, bool) {
	if len(buf) < 3 {
		return nil, 0, false
	}

	if buf[2] == 'M' {
		return decodeX10Mouse(buf)
	}
	if buf[2] == '<' {
		return decodeSGRMouse(buf)
	}

	// Standard "ESC [ <params> <terminator>" form.
	j := 2
	for j < len(buf) && !isCSITerminator(buf[j]) {
		j++
	}
	if j >= len(buf) {
		return nil, 0, false
	}

	params := string(buf[2:j])
	term := buf[j]
	n := j + 1

	if key, ok := csiLetterKeys[term]; ok {
		return &Event{Kind: KindKey, Key: key}, n, true
	}
	if term == '~' {
		if key, ok := tildeKeys[params]; ok {
			return &Event{Kind: KindKey, Key: key}, n, true
		}
	}
	return nil, n, true // recognized-but-unmapped CSI, swallow it
}

func isCSITerminator(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~'
}

var csiLetterKeys = map[byte]KeyName{
	'A': ArrowUp, 'B': ArrowDown, 'C': ArrowRight, 'D': ArrowLeft,
	'H': Home, 'F': End,
}

var tildeKeys = map[string]KeyName{
	"1": Home, "7": Home,
	"2": Insert,
	"3": Delete,
	"4": End, "8": End,
	"5":  PageUp,
	"6":  PageDown,
	"11": F1, "12": F2, "13": F3, "14": F4, "15": F5,
	"17": F6, "18": F7, "19": F8, "20": F9, "21": F10,
	"23": F11, "24": F12,
}

// decodeUTF8 assembles a single UTF-8 scalar starting at buf[0], which
// must be >= 0x80. Returns ok=false if buf doesn't yet hold enough
// continuation bytes.
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
		// Invalid leading byte; emit the replacement char and consume it.
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
