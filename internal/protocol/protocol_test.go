package protocol

import (
	"strings"
	"testing"

	"celld/internal/input"
)

func TestDecodeInitDefaults(t *testing.T) {
	c, err := Decode([]byte(`{"cmd":"init"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if IntOr(c.Cols, 80) != 80 || IntOr(c.Rows, 24) != 24 {
		t.Fatalf("defaults not applied: cols=%v rows=%v", c.Cols, c.Rows)
	}
}

func TestDecodeInitExplicit(t *testing.T) {
	c, err := Decode([]byte(`{"cmd":"init","cols":120,"rows":40}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if IntOr(c.Cols, 80) != 120 || IntOr(c.Rows, 24) != 40 {
		t.Fatalf("got cols=%v rows=%v", c.Cols, c.Rows)
	}
}

func TestDecodeMalformedJSONErrors(t *testing.T) {
	_, err := Decode([]byte(`{"cmd": not json`))
	if err == nil {
		t.Fatal("expected a decode error for malformed JSON")
	}
}

func TestDecodeCreateWindowDefaults(t *testing.T) {
	c, err := Decode([]byte(`{"cmd":"create_window","id":"w","x":1,"y":2,"width":10,"height":5}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Border != "" {
		t.Fatalf("border should be empty/omitted when not given, defaulting happens downstream: %q", c.Border)
	}
	if BoolOr(c.Closable, true) != true {
		t.Fatalf("closable should default true when absent")
	}
	if BoolOr(c.Invert, false) != false {
		t.Fatalf("invert should default false when absent")
	}
}

func TestDecodeBatchCells(t *testing.T) {
	c, err := Decode([]byte(`{"cmd":"batch","cells":[{"x":1,"y":2,"char":"A","fg":2,"bg":0},{"window":"w","x":0,"y":0,"char":"B","fg":1,"bg":0}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.Cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(c.Cells))
	}
	if c.Cells[1].Window != "w" {
		t.Fatalf("second cell window = %q, want w", c.Cells[1].Window)
	}
}

func TestEncodeClientConnectLine(t *testing.T) {
	b, err := Encode(ClientConnect("session_1.2.3.4_0"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := string(b)
	if !strings.HasSuffix(s, "\n") {
		t.Fatalf("event line must end with newline, got %q", s)
	}
	if !strings.Contains(s, `"type":"client_connect"`) {
		t.Fatalf("missing type tag: %q", s)
	}
}

func TestEncodeWindowMoved(t *testing.T) {
	b, _ := Encode(WindowMoved("s1", "w", 12, 6))
	s := string(b)
	if !strings.Contains(s, `"x":12`) || !strings.Contains(s, `"y":6`) {
		t.Fatalf("missing coordinates: %q", s)
	}
}

func TestEncodeInputMouseEvent(t *testing.T) {
	ev := input.Event{Kind: input.KindMouse, X: 3, Y: 4, Button: input.ButtonLeft, Action: input.Press}
	b, _ := Encode(Input("s1", ev))
	s := string(b)
	if !strings.Contains(s, `"kind":"mouse"`) || !strings.Contains(s, `"button":"left"`) || !strings.Contains(s, `"action":"press"`) {
		t.Fatalf("got %q", s)
	}
}

func TestEncodeInputCharEvent(t *testing.T) {
	ev := input.Event{Kind: input.KindChar, Char: 'a'}
	b, _ := Encode(Input("s1", ev))
	s := string(b)
	if !strings.Contains(s, `"kind":"char"`) || !strings.Contains(s, `"char":"a"`) {
		t.Fatalf("got %q", s)
	}
}

func TestScannerAcceptsOneMebibyteLine(t *testing.T) {
	big := strings.Repeat("a", 1<<20-2)
	r := strings.NewReader(`{"cmd":"print_direct","text":"` + big + `"}` + "\n")
	sc := NewScanner(r, 1<<20+4096)
	if !sc.Scan() {
		t.Fatalf("scan failed: %v", sc.Err())
	}
	if len(sc.Bytes()) < 1<<20 {
		t.Fatalf("got %d bytes, want >= 1MiB", len(sc.Bytes()))
	}
}
