package protocol

import (
	"encoding/json"

	"celld/internal/input"
)

// Event is the wire encoding of the engine's event tagged union: every
// field any event type carries, with Type selecting which are
// populated. Mirrors Command's flat-struct shape on the outbound side.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`

	ID     string `json:"id,omitempty"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`

	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`

	Input *InputEvent `json:"input,omitempty"`
}

// InputEvent is the JSON shape of an internal/input.Event forwarded to
// the application inside an "input" event.
type InputEvent struct {
	Kind string `json:"kind"`

	Char string `json:"char,omitempty"`
	Key  string `json:"key,omitempty"`

	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	Button string `json:"button,omitempty"`
	Action string `json:"action,omitempty"`
	Mods   *Mods  `json:"mods,omitempty"`
}

// Mods is the shift/alt/ctrl trio InputEvent carries for mouse events.
type Mods struct {
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
	Ctrl  bool `json:"ctrl"`
}

var mouseButtonNames = map[input.MouseButton]string{
	input.ButtonNone:   "none",
	input.ButtonLeft:   "left",
	input.ButtonMiddle: "middle",
	input.ButtonRight:  "right",
	input.WheelUp:      "wheel_up",
	input.WheelDown:    "wheel_down",
}

var mouseActionNames = map[input.MouseAction]string{
	input.Press:   "press",
	input.Release: "release",
	input.Move:    "move",
	input.Drag:    "drag",
}

// EncodeInputEvent translates a parsed input.Event into its wire shape.
func EncodeInputEvent(ev input.Event) InputEvent {
	out := InputEvent{}
	switch ev.Kind {
	case input.KindChar:
		out.Kind = "char"
		out.Char = string(ev.Char)
	case input.KindKey:
		out.Kind = "key"
		out.Key = string(ev.Key)
	case input.KindMouse:
		out.Kind = "mouse"
		out.X, out.Y = ev.X, ev.Y
		out.Button = mouseButtonNames[ev.Button]
		out.Action = mouseActionNames[ev.Action]
		out.Mods = &Mods{Shift: ev.Mods.Shift, Alt: ev.Mods.Alt, Ctrl: ev.Mods.Ctrl}
	}
	return out
}

// Event constructors, one per tagged-union case.

func ClientConnect(session string) Event {
	return Event{Type: "client_connect", Session: session}
}

func ClientDisconnect(session string) Event {
	return Event{Type: "client_disconnect", Session: session}
}

func Input(session string, ev input.Event) Event {
	wire := EncodeInputEvent(ev)
	return Event{Type: "input", Session: session, Input: &wire}
}

func WindowCloseRequested(session, id string) Event {
	return Event{Type: "window_close_requested", Session: session, ID: id}
}

func WindowMoved(session, id string, x, y int) Event {
	return Event{Type: "window_moved", Session: session, ID: id, X: x, Y: y}
}

func WindowResized(session, id string, width, height int) Event {
	return Event{Type: "window_resized", Session: session, ID: id, Width: width, Height: height}
}

func WindowFocused(session, id string) Event {
	return Event{Type: "window_focused", Session: session, ID: id}
}

func TerminalConnected(session, id, host string, port int) Event {
	return Event{Type: "terminal_connected", Session: session, ID: id, Host: host, Port: port}
}

func TerminalDisconnected(session, id, reason string) Event {
	return Event{Type: "terminal_disconnected", Session: session, ID: id, Reason: reason}
}

func TerminalError(session, id, errMsg string) Event {
	return Event{Type: "terminal_error", Session: session, ID: id, Error: errMsg}
}

// Encode marshals ev as one JSON line, newline-terminated.
func Encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
