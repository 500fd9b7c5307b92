package session

import (
	"strings"
	"testing"

	"celld/internal/config"
	"celld/internal/protocol"
)

func iptr(v int) *int       { return &v }
func sptr(v string) *string { return &v }
func bptr(v bool) *bool     { return &v }

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New("session_test_0", nil, config.DefaultUserConfig().Window)
	s.ApplyCommand(&protocol.Command{Cmd: "init", Cols: iptr(80), Rows: iptr(24)})
	s.DrainOutput()
	return s
}

func createWindow(t *testing.T, s *Session, id string, x, y, w, h int) {
	t.Helper()
	s.ApplyCommand(&protocol.Command{
		Cmd: "create_window", ID: id,
		X: iptr(x), Y: iptr(y), Width: iptr(w), Height: iptr(h),
		Border: "single",
	})
}

// sgrPress/sgrRelease/sgrDrag build the SGR mouse wire encodings for a
// left-button report at 0-based screen coordinates.
func sgrPress(x, y int) []byte {
	return []byte("\x1b[<0;" + itoa(x+1) + ";" + itoa(y+1) + "M")
}

func sgrRelease(x, y int) []byte {
	return []byte("\x1b[<0;" + itoa(x+1) + ";" + itoa(y+1) + "m")
}

func sgrDrag(x, y int) []byte {
	return []byte("\x1b[<32;" + itoa(x+1) + ";" + itoa(y+1) + "M")
}

func sgrMotion(x, y int) []byte {
	return []byte("\x1b[<35;" + itoa(x+1) + ";" + itoa(y+1) + "m")
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}

func eventTypes(events []protocol.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestCloseButtonClickEmitsCloseRequested(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	if events := s.HandleClientBytes(sgrPress(11, 5)); len(events) != 0 {
		t.Fatalf("close-button press must be swallowed, got %v", eventTypes(events))
	}
	events := s.HandleClientBytes(sgrRelease(11, 5))
	if len(events) != 1 || events[0].Type != "window_close_requested" || events[0].ID != "w" {
		t.Fatalf("expected window_close_requested{w}, got %+v", events)
	}
}

func TestCloseButtonReleaseElsewhereCancels(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	s.HandleClientBytes(sgrPress(11, 5))
	events := s.HandleClientBytes(sgrRelease(15, 8))
	for _, ev := range events {
		if ev.Type == "window_close_requested" {
			t.Fatalf("release away from the close glyph must not close, got %+v", events)
		}
	}
}

func TestTitleBarDragMovesWindow(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	events := s.HandleClientBytes(sgrPress(15, 5))
	if len(events) != 1 || events[0].Type != "window_focused" || events[0].ID != "w" {
		t.Fatalf("title-bar press must focus, got %+v", events)
	}

	if events := s.HandleClientBytes(sgrDrag(17, 6)); len(events) != 0 {
		t.Fatalf("mid-drag updates emit nothing, got %v", eventTypes(events))
	}

	events = s.HandleClientBytes(sgrRelease(17, 6))
	if len(events) != 1 || events[0].Type != "window_moved" {
		t.Fatalf("expected window_moved, got %+v", events)
	}
	if events[0].X != 12 || events[0].Y != 6 {
		t.Fatalf("window_moved = (%d,%d), want (12,6)", events[0].X, events[0].Y)
	}
}

func TestDragClampsTitleBarAboveMenuRow(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	s.HandleClientBytes(sgrPress(15, 5))
	s.HandleClientBytes(sgrDrag(15, 0))
	events := s.HandleClientBytes(sgrRelease(15, 0))
	if events[0].Y != 1 {
		t.Fatalf("window y must clamp to 1, got %d", events[0].Y)
	}
}

func TestResizeHandleDragResizesWindow(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	events := s.HandleClientBytes(sgrPress(29, 14))
	if len(events) != 1 || events[0].Type != "window_focused" {
		t.Fatalf("resize-handle press must focus, got %+v", events)
	}

	s.HandleClientBytes(sgrDrag(35, 18))
	events = s.HandleClientBytes(sgrRelease(35, 18))
	if len(events) != 1 || events[0].Type != "window_resized" {
		t.Fatalf("expected window_resized, got %+v", events)
	}
	if events[0].Width != 26 || events[0].Height != 14 {
		t.Fatalf("window_resized = %dx%d, want 26x14", events[0].Width, events[0].Height)
	}
}

func TestResizeFloorsAtMinimums(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	s.HandleClientBytes(sgrPress(29, 14))
	s.HandleClientBytes(sgrDrag(11, 6))
	events := s.HandleClientBytes(sgrRelease(11, 6))
	if events[0].Width != 10 || events[0].Height != 5 {
		t.Fatalf("resize must floor at min 10x5, got %dx%d", events[0].Width, events[0].Height)
	}
}

func TestContentPressFocusesAndForwardsTranslated(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	events := s.HandleClientBytes(sgrPress(13, 8))
	if len(events) != 2 {
		t.Fatalf("expected focus + input, got %v", eventTypes(events))
	}
	if events[0].Type != "window_focused" {
		t.Fatalf("first event must be window_focused, got %q", events[0].Type)
	}
	in := events[1]
	if in.Type != "input" || in.Input == nil {
		t.Fatalf("second event must be input, got %+v", in)
	}
	// Content origin is (11,6) for a bordered window at (10,5).
	if in.Input.X != 2 || in.Input.Y != 2 {
		t.Fatalf("content press coords = (%d,%d), want window-relative (2,2)", in.Input.X, in.Input.Y)
	}
}

func TestMissPressForwardsScreenAbsolute(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	events := s.HandleClientBytes(sgrPress(70, 20))
	if len(events) != 1 || events[0].Type != "input" {
		t.Fatalf("miss must forward one input event, got %v", eventTypes(events))
	}
	if events[0].Input.X != 70 || events[0].Input.Y != 20 {
		t.Fatalf("miss coords = (%d,%d), want screen-absolute (70,20)", events[0].Input.X, events[0].Input.Y)
	}
}

func TestMotionAfterReleaseForwardsAsMove(t *testing.T) {
	s := newTestSession(t)

	s.HandleClientBytes(sgrPress(40, 12))
	s.HandleClientBytes(sgrRelease(40, 12))
	events := s.HandleClientBytes(sgrMotion(41, 12))
	if len(events) != 1 || events[0].Type != "input" {
		t.Fatalf("expected one input event, got %v", eventTypes(events))
	}
	if events[0].Input.Action != "move" {
		t.Fatalf("button-less lowercase-m report must be move, got %q", events[0].Input.Action)
	}
}

func TestIdempotentRecreateKeepsContent(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "x", 0, 0, 10, 5)
	s.ApplyCommand(&protocol.Command{Cmd: "print", Window: "x", X: iptr(0), Y: iptr(0), Text: "hi"})

	s.ApplyCommand(&protocol.Command{
		Cmd: "create_window", ID: "x",
		X: iptr(5), Y: iptr(5), Width: iptr(10), Height: iptr(5),
		Border: "single", Title: sptr("new"), Closable: bptr(true),
	})

	w := s.wm.Get("x")
	if w.X != 5 || w.Y != 5 {
		t.Fatalf("position = (%d,%d), want (5,5)", w.X, w.Y)
	}
	if w.Title != "new" {
		t.Fatalf("title = %q, want new", w.Title)
	}
	if w.ContentGrid().Get(0, 0).Glyph != 'h' {
		t.Fatalf("content must survive an identical-geometry re-create")
	}
}

func TestUpdateWindowPartialMutation(t *testing.T) {
	s := newTestSession(t)
	createWindow(t, s, "w", 10, 5, 20, 10)

	s.ApplyCommand(&protocol.Command{Cmd: "update_window", ID: "w", Title: sptr("t2"), Resizable: bptr(false)})

	w := s.wm.Get("w")
	if w.Title != "t2" {
		t.Fatalf("title = %q, want t2", w.Title)
	}
	if w.Flags.Resizable {
		t.Fatalf("resizable should have been cleared")
	}
	if w.W != 20 || w.H != 10 {
		t.Fatalf("untouched fields must stay: %dx%d", w.W, w.H)
	}
}

func TestKeyboardForwardsWhenNoTerminalFocused(t *testing.T) {
	s := newTestSession(t)
	events := s.HandleClientBytes([]byte("a"))
	if len(events) != 1 || events[0].Type != "input" || events[0].Input.Char != "a" {
		t.Fatalf("expected char input event, got %+v", events)
	}
}

func TestFlushForceFullStartsWithClearHome(t *testing.T) {
	s := newTestSession(t)
	s.ApplyCommand(&protocol.Command{Cmd: "flush", ForceFull: true})
	out := string(s.DrainOutput())
	if !strings.HasPrefix(out, "\x1b[2J\x1b[H") {
		t.Fatalf("force-full flush must start with clear+home, got %q", out[:min(len(out), 16)])
	}
}

func TestSecondFlushEmitsNothing(t *testing.T) {
	s := newTestSession(t)
	s.ApplyCommand(&protocol.Command{Cmd: "set_direct", X: iptr(0), Y: iptr(0), Char: "A", Fg: iptr(2)})
	s.ApplyCommand(&protocol.Command{Cmd: "flush", ForceFull: true})
	s.DrainOutput()

	s.ApplyCommand(&protocol.Command{Cmd: "flush"})
	if out := s.DrainOutput(); len(out) != 0 {
		t.Fatalf("flush with no changes must emit nothing, got %q", out)
	}
}

func TestShutdownEmitsFarewellAndMarksClosed(t *testing.T) {
	s := newTestSession(t)
	s.ApplyCommand(&protocol.Command{Cmd: "shutdown"})
	out := string(s.DrainOutput())
	for _, seq := range []string{"\x1b[2J", "\x1b[H", "\x1b[?25h", "\x1b[0m"} {
		if !strings.Contains(out, seq) {
			t.Fatalf("shutdown output missing %q, got %q", seq, out)
		}
	}
	if !s.Closed {
		t.Fatalf("shutdown must mark the session closed")
	}
}

func TestEnableMouseEmitsEnableSequences(t *testing.T) {
	s := newTestSession(t)
	s.ApplyCommand(&protocol.Command{Cmd: "enable_mouse", Mode: "any"})
	s.ApplyCommand(&protocol.Command{Cmd: "enable_mouse", Mode: "sgr"})
	out := string(s.DrainOutput())
	if !strings.Contains(out, "\x1b[?1003h") || !strings.Contains(out, "\x1b[?1006h") {
		t.Fatalf("expected any+sgr enable sequences, got %q", out)
	}

	s.ApplyCommand(&protocol.Command{Cmd: "disable_mouse"})
	if out := string(s.DrainOutput()); !strings.Contains(out, "\x1b[?1003l") {
		t.Fatalf("expected disable sequences, got %q", out)
	}
}

func TestRemoveMissingWindowIsNoOp(t *testing.T) {
	s := newTestSession(t)
	s.ApplyCommand(&protocol.Command{Cmd: "remove_window", ID: "ghost"})
	s.ApplyCommand(&protocol.Command{Cmd: "print", Window: "ghost", Text: "x"})
	s.ApplyCommand(&protocol.Command{Cmd: "bring_to_front", ID: "ghost"})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
