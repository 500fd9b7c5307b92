package session

import (
	"strconv"

	"celld/internal/grid"
	"celld/internal/protocol"
	"celld/internal/render"
	"celld/internal/vt"
	"celld/internal/window"
)

// TerminalDialRequest is what ApplyCommand returns for a "create_terminal"
// command instead of dialing inline: the remote connect attempt (with
// its 10s timeout) runs on its own goroutine so a slow or refusing host
// can never stall the session's single owning task. The server dials
// asynchronously and reports the outcome back via CompleteTerminalDial.
type TerminalDialRequest struct {
	ID         string
	Host       string
	Port       string
	Cols, Rows int
	LocalEcho  bool
	LineEnding vt.LineEnding
}

func cellFromOp(op protocol.CellOp) grid.Cell {
	var r rune = ' '
	for _, c := range op.Char {
		r = c
		break
	}
	return grid.NewCell(r, grid.Color(op.Fg), grid.Color(op.Bg), 0)
}

func (s *Session) windowSpecFromCommand(c *protocol.Command) window.Spec {
	border := c.Border
	if border == "" {
		border = s.winCfg.DefaultBorder
	}
	return window.Spec{
		ID:     c.ID,
		X:      protocol.IntOr(c.X, 0),
		Y:      protocol.IntOr(c.Y, 0),
		W:      protocol.IntOr(c.Width, s.winCfg.MinWidth),
		H:      protocol.IntOr(c.Height, s.winCfg.MinHeight),
		Border: window.ParseBorderStyle(border),
		Title:  protocol.StringOr(c.Title, ""),
		MinW:   protocol.IntOr(c.MinWidth, s.winCfg.MinWidth),
		MinH:   protocol.IntOr(c.MinHeight, s.winCfg.MinHeight),
		Flags: window.Flags{
			Closable:  protocol.BoolOr(c.Closable, true),
			Resizable: protocol.BoolOr(c.Resizable, true),
			Draggable: protocol.BoolOr(c.Draggable, true),
			Visible:   true,
			Invert:    protocol.BoolOr(c.Invert, false),
		},
	}
}

// mouseEnableSequences are the raw escape sequences the engine sends to
// the client's own terminal so that terminal starts reporting X10/SGR
// mouse events, the way a real terminal program would enable them. The
// modes are independent per xterm protocol semantics: "sgr" only
// toggles the coordinate-encoding extension and can be sent either
// before or after a tracking-mode enable.
var mouseEnableSequences = map[string]string{
	"normal": "\x1b[?1000h",
	"button": "\x1b[?1002h",
	"any":    "\x1b[?1003h",
	"sgr":    "\x1b[?1006h",
}

const mouseDisableAll = "\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l"

// ApplyCommand mutates session state per the closed command catalog,
// returning any events to emit and, for "create_terminal", a pending
// dial request for the server to execute off-task.
func (s *Session) ApplyCommand(c *protocol.Command) ([]protocol.Event, *TerminalDialRequest) {
	switch c.Cmd {
	case "init":
		s.Resize(protocol.IntOr(c.Cols, 80), protocol.IntOr(c.Rows, 24))

	case "shutdown":
		s.emit(render.ShutdownSequence())
		s.Closed = true

	case "reset":
		s.wm.Reset()
		s.terminals = make(map[string]*vt.Emulator)

	case "clear", "clear_background":
		s.wm.ClearBackground()

	case "set_direct":
		s.wm.Background().Set(protocol.IntOr(c.X, 0), protocol.IntOr(c.Y, 0), cellFromOp(protocol.CellOp{
			Char: c.Char, Fg: protocol.IntOr(c.Fg, int(grid.DefaultFg)), Bg: protocol.IntOr(c.Bg, int(grid.DefaultBg)),
		}))

	case "print_direct":
		s.wm.Background().Print(protocol.IntOr(c.X, 0), protocol.IntOr(c.Y, 0), c.Text,
			grid.Color(protocol.IntOr(c.Fg, int(grid.DefaultFg))), grid.Color(protocol.IntOr(c.Bg, int(grid.DefaultBg))), 0)

	case "batch":
		for _, op := range c.Cells {
			target := s.wm.Background()
			if op.Window != "" {
				if w := s.wm.Get(op.Window); w != nil {
					target = w.ContentGrid()
				} else {
					continue
				}
			}
			target.Set(op.X, op.Y, cellFromOp(op))
		}

	case "create_window":
		s.wm.Create(s.windowSpecFromCommand(c))

	case "remove_window":
		s.wm.Remove(c.ID)
		if _, ok := s.terminals[c.ID]; ok {
			_ = s.terminals[c.ID].Close()
			delete(s.terminals, c.ID)
		}
		if s.focused == c.ID {
			s.focused = ""
		}

	case "update_window":
		if w := s.wm.Get(c.ID); w != nil {
			if c.X != nil || c.Y != nil {
				w.Move(protocol.IntOr(c.X, w.X), protocol.IntOr(c.Y, w.Y))
			}
			if c.Border != "" {
				w.SetBorder(window.ParseBorderStyle(c.Border))
			}
			if c.Title != nil {
				w.SetTitle(*c.Title)
			}
			if c.Invert != nil {
				w.SetInvert(*c.Invert)
			}
			if c.Closable != nil {
				w.Flags.Closable = *c.Closable
			}
			if c.Resizable != nil {
				w.Flags.Resizable = *c.Resizable
			}
			if c.Draggable != nil {
				w.Flags.Draggable = *c.Draggable
			}
			if c.MinWidth != nil {
				w.MinW = *c.MinWidth
			}
			if c.MinHeight != nil {
				w.MinH = *c.MinHeight
			}
			if c.Width != nil || c.Height != nil {
				w.Resize(protocol.IntOr(c.Width, w.W), protocol.IntOr(c.Height, w.H))
			}
		}

	case "clear_window":
		if w := s.wm.Get(c.ID); w != nil {
			w.ContentGrid().Clear()
		}

	case "set_cell":
		if w := s.wm.Get(c.Window); w != nil {
			w.ContentGrid().Set(protocol.IntOr(c.X, 0), protocol.IntOr(c.Y, 0), cellFromOp(protocol.CellOp{
				Char: c.Char, Fg: protocol.IntOr(c.Fg, int(grid.DefaultFg)), Bg: protocol.IntOr(c.Bg, int(grid.DefaultBg)),
			}))
		}

	case "print":
		if w := s.wm.Get(c.Window); w != nil {
			w.ContentGrid().Print(protocol.IntOr(c.X, 0), protocol.IntOr(c.Y, 0), c.Text,
				grid.Color(protocol.IntOr(c.Fg, int(grid.DefaultFg))), grid.Color(protocol.IntOr(c.Bg, int(grid.DefaultBg))), 0)
		}

	case "fill":
		if w := s.wm.Get(c.Window); w != nil {
			rect := grid.Rect{
				X: protocol.IntOr(c.X, 0), Y: protocol.IntOr(c.Y, 0),
				W: protocol.IntOr(c.Width, w.ContentGrid().Cols()), H: protocol.IntOr(c.Height, w.ContentGrid().Rows()),
			}
			w.ContentGrid().Fill(rect, cellFromOp(protocol.CellOp{
				Char: c.Char, Fg: protocol.IntOr(c.Fg, int(grid.DefaultFg)), Bg: protocol.IntOr(c.Bg, int(grid.DefaultBg)),
			}))
		}

	case "bring_to_front":
		s.wm.BringToFront(c.ID)

	case "send_to_back":
		s.wm.SendToBack(c.ID)

	case "move_window":
		if w := s.wm.Get(c.ID); w != nil {
			w.Move(protocol.IntOr(c.X, w.X), protocol.IntOr(c.Y, w.Y))
		}

	case "resize_window":
		if w := s.wm.Get(c.ID); w != nil {
			w.Resize(protocol.IntOr(c.Width, w.W), protocol.IntOr(c.Height, w.H))
		}

	case "enable_mouse":
		if c.Mode == "sgr" {
			s.sgrExt = true
		} else {
			switch c.Mode {
			case "button":
				s.tracking = TrackingButton
			case "any":
				s.tracking = TrackingAny
			default:
				s.tracking = TrackingNormal
			}
		}
		if seq, ok := mouseEnableSequences[c.Mode]; ok {
			s.emit([]byte(seq))
		}

	case "disable_mouse":
		s.tracking = TrackingOff
		s.sgrExt = false
		s.emit([]byte(mouseDisableAll))

	case "flush":
		s.Flush(c.ForceFull)

	case "create_terminal":
		spec := s.windowSpecFromCommand(c)
		spec.Flags.Draggable = true
		w := s.wm.Create(spec)
		cols, rows := w.ContentGrid().Cols(), w.ContentGrid().Rows()
		return nil, &TerminalDialRequest{
			ID: c.ID, Host: c.Host, Port: strconv.Itoa(c.Port),
			Cols: cols, Rows: rows,
			LocalEcho:  protocol.BoolOr(c.LocalEcho, false),
			LineEnding: lineEndingFromString(c.LineEnding),
		}

	case "close_terminal":
		if e, ok := s.terminals[c.ID]; ok {
			_ = e.Close()
			delete(s.terminals, c.ID)
		}

	case "terminal_input":
		if e, ok := s.terminals[c.ID]; ok {
			_ = e.Send([]byte(c.Data))
		}

	case "terminal_config":
		if e, ok := s.terminals[c.ID]; ok {
			e.Configure(vt.Config{
				LocalEcho:  protocol.BoolOr(c.LocalEcho, false),
				LineEnding: lineEndingFromString(c.LineEnding),
			})
		}

	case "resize_terminal":
		if w := s.wm.Get(c.ID); w != nil {
			w.Resize(protocol.IntOr(c.Width, w.W), protocol.IntOr(c.Height, w.H))
		}
		if e, ok := s.terminals[c.ID]; ok {
			if w := s.wm.Get(c.ID); w != nil {
				e.Resize(w.ContentGrid().Cols(), w.ContentGrid().Rows())
			}
		}
	}

	return nil, nil
}

func lineEndingFromString(s string) vt.LineEnding {
	if s == "crlf" {
		return vt.LineEndingCRLF
	}
	return vt.LineEndingCR
}

// CompleteTerminalDial attaches a successfully dialed emulator (or
// reports the failure) for a pending create_terminal request.
func (s *Session) CompleteTerminalDial(req TerminalDialRequest, e *vt.Emulator, err error) []protocol.Event {
	if err != nil {
		return []protocol.Event{protocol.TerminalError(s.ID, req.ID, err.Error())}
	}
	e.Configure(vt.Config{LocalEcho: req.LocalEcho, LineEnding: req.LineEnding})
	s.terminals[req.ID] = e
	port, _ := strconv.Atoi(req.Port)
	return []protocol.Event{protocol.TerminalConnected(s.ID, req.ID, req.Host, port)}
}
