package session

import (
	"celld/internal/input"
	"celld/internal/protocol"
	"celld/internal/vt"
	"celld/internal/window"
)

var mouseButtonToVT = map[input.MouseButton]vt.MouseButton{
	input.ButtonNone:   vt.MouseButtonNone,
	input.ButtonLeft:   vt.MouseButtonLeft,
	input.ButtonMiddle: vt.MouseButtonMiddle,
	input.ButtonRight:  vt.MouseButtonRight,
	input.WheelUp:      vt.MouseWheelUp,
	input.WheelDown:    vt.MouseWheelDown,
}

var mouseActionToVT = map[input.MouseAction]vt.MouseAction{
	input.Press:   vt.MouseActionPress,
	input.Release: vt.MouseActionRelease,
	input.Move:    vt.MouseActionMove,
	input.Drag:    vt.MouseActionDrag,
}

// forwardToTerminal routes a content-area mouse event to the hosting
// window's embedded terminal instead of emitting it as an input event.
func (s *Session) forwardToTerminal(id string, ev input.Event, relX, relY int) bool {
	e, ok := s.terminals[id]
	if !ok {
		return false
	}
	e.SendMouse(mouseActionToVT[ev.Action], mouseButtonToVT[ev.Button], relX, relY,
		ev.Mods.Shift, ev.Mods.Alt, ev.Mods.Ctrl)
	return true
}

// HandleClientBytes parses raw client bytes into input events and runs
// them through the chrome interaction state machine, returning
// whatever application-facing events fall out. Keyboard and
// mouse events addressed to a focused embedded terminal are forwarded
// to its remote connection instead of being turned into events.
func (s *Session) HandleClientBytes(data []byte) []protocol.Event {
	var out []protocol.Event
	for _, ev := range s.parser.Feed(data) {
		out = append(out, s.handleEvent(ev)...)
	}
	return out
}

func (s *Session) handleEvent(ev input.Event) []protocol.Event {
	switch ev.Kind {
	case input.KindMouse:
		return s.handleMouse(ev)
	default:
		return s.handleKeyOrChar(ev)
	}
}

// handleKeyOrChar routes keyboard input to the focused window's
// embedded terminal if it hosts one, otherwise forwards it as an input
// event to the application.
func (s *Session) handleKeyOrChar(ev input.Event) []protocol.Event {
	if e, ok := s.terminals[s.focused]; ok {
		var b []byte
		if ev.Kind == input.KindChar {
			b = []byte(string(ev.Char))
		} else {
			b = keyBytes(ev.Key, e)
		}
		if b != nil {
			_ = e.Send(b)
		}
		return nil
	}
	return []protocol.Event{protocol.Input(s.ID, ev)}
}

func (s *Session) handleMouse(ev input.Event) []protocol.Event {
	switch s.interaction.kind {
	case interactionDragging:
		return s.handleDragging(ev)
	case interactionResizing:
		return s.handleResizing(ev)
	default:
		return s.handleIdleMouse(ev)
	}
}

func (s *Session) handleIdleMouse(ev input.Event) []protocol.Event {
	hit := s.wm.HitTest(ev.X, ev.Y)

	if hit.Region == window.RegionNone {
		return []protocol.Event{protocol.Input(s.ID, ev)}
	}

	if ev.Action == input.Press {
		switch hit.Region {
		case window.RegionCloseButton:
			s.pendingClose = hit.Window.ID
			return nil

		case window.RegionTitleBar:
			if !hit.Window.Flags.Draggable {
				break
			}
			s.wm.BringToFront(hit.Window.ID)
			s.focused = hit.Window.ID
			s.interaction = interaction{
				kind:     interactionDragging,
				windowID: hit.Window.ID,
				grabDX:   ev.X - hit.Window.X,
				grabDY:   ev.Y - hit.Window.Y,
			}
			return []protocol.Event{protocol.WindowFocused(s.ID, hit.Window.ID)}

		case window.RegionResizeHandle:
			if !hit.Window.Flags.Resizable {
				break
			}
			s.wm.BringToFront(hit.Window.ID)
			s.focused = hit.Window.ID
			s.interaction = interaction{
				kind:     interactionResizing,
				windowID: hit.Window.ID,
				anchorX:  hit.Window.X,
				anchorY:  hit.Window.Y,
			}
			return []protocol.Event{protocol.WindowFocused(s.ID, hit.Window.ID)}

		case window.RegionContent, window.RegionBorderOther:
			s.wm.BringToFront(hit.Window.ID)
			s.focused = hit.Window.ID
			events := []protocol.Event{protocol.WindowFocused(s.ID, hit.Window.ID)}
			if hit.Region == window.RegionContent && s.forwardToTerminal(hit.Window.ID, ev, hit.RelX, hit.RelY) {
				return events
			}
			translated := ev
			translated.X, translated.Y = hit.RelX, hit.RelY
			return append(events, protocol.Input(s.ID, translated))
		}
	}

	if hit.Region == window.RegionCloseButton && ev.Action == input.Release && hit.Window.ID == s.pendingClose {
		s.pendingClose = ""
		return []protocol.Event{protocol.WindowCloseRequested(s.ID, hit.Window.ID)}
	}

	if hit.Region == window.RegionContent && s.forwardToTerminal(hit.Window.ID, ev, hit.RelX, hit.RelY) {
		return nil
	}

	translated := ev
	translated.X, translated.Y = hit.RelX, hit.RelY
	return []protocol.Event{protocol.Input(s.ID, translated)}
}

// handleDragging implements the dragging branch of the chrome state
// machine: the window follows the cursor offset by the
// grab point captured at press time, y clamped to at least 1 so the
// title bar never covers the top screen row.
func (s *Session) handleDragging(ev input.Event) []protocol.Event {
	w := s.wm.Get(s.interaction.windowID)
	if w == nil {
		s.interaction = interaction{}
		return nil
	}
	if ev.Action == input.Release {
		id := w.ID
		s.interaction = interaction{}
		return []protocol.Event{protocol.WindowMoved(s.ID, id, w.X, w.Y)}
	}
	x := ev.X - s.interaction.grabDX
	y := ev.Y - s.interaction.grabDY
	if y < 1 {
		y = 1
	}
	w.Move(x, y)
	return nil
}

// handleResizing implements the resizing branch: size is
// recomputed from the window's origin captured at press time (the
// anchor) and the current pointer position, floored at the window's
// configured minimums.
func (s *Session) handleResizing(ev input.Event) []protocol.Event {
	w := s.wm.Get(s.interaction.windowID)
	if w == nil {
		s.interaction = interaction{}
		return nil
	}
	if ev.Action == input.Release {
		id := w.ID
		width, height := w.W, w.H
		s.interaction = interaction{}
		return []protocol.Event{protocol.WindowResized(s.ID, id, width, height)}
	}
	width := ev.X - s.interaction.anchorX + 1
	height := ev.Y - s.interaction.anchorY + 1
	if width < w.MinW {
		width = w.MinW
	}
	if height < w.MinH {
		height = w.MinH
	}
	w.Resize(width, height)
	return nil
}
