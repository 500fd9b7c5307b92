// Package input turns a byte stream from a client socket into typed
// input events: characters, named keys, and decoded mouse
// events in both X10 and SGR encodings.
package input

// KeyName is one of a closed set of named keys.
type KeyName string

// The closed set of key names the parser ever produces.
const (
	ArrowUp    KeyName = "up"
	ArrowDown  KeyName = "down"
	ArrowLeft  KeyName = "left"
	ArrowRight KeyName = "right"
	Home       KeyName = "home"
	End        KeyName = "end"
	PageUp     KeyName = "page_up"
	PageDown   KeyName = "page_down"
	Insert     KeyName = "insert"
	Delete     KeyName = "delete"
	Escape     KeyName = "escape"
	Enter      KeyName = "enter"
	Tab        KeyName = "tab"
	Backspace  KeyName = "backspace"
	F1         KeyName = "f1"
	F2         KeyName = "f2"
	F3         KeyName = "f3"
	F4         KeyName = "f4"
	F5         KeyName = "f5"
	F6         KeyName = "f6"
	F7         KeyName = "f7"
	F8         KeyName = "f8"
	F9         KeyName = "f9"
	F10        KeyName = "f10"
	F11        KeyName = "f11"
	F12        KeyName = "f12"
)

// MouseButton identifies which button a mouse event concerns.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	WheelUp
	WheelDown
)

// MouseAction is the kind of mouse transition reported.
type MouseAction int

const (
	Press MouseAction = iota
	Release
	Move
	Drag
)

// Modifiers are the shift/alt/ctrl bits carried by both mouse encodings.
type Modifiers struct {
	Shift bool
	Alt   bool
	Ctrl  bool
}

// Kind discriminates an Event's payload.
type Kind int

const (
	KindChar Kind = iota
	KindKey
	KindMouse
)

// Event is the parser's single output type.
type Event struct {
	Kind Kind

	Char rune
	Key  KeyName

	X, Y   int
	Button MouseButton
	Action MouseAction
	Mods   Modifiers
}
