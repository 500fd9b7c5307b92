// Package session holds all per-client engine state (windows,
// renderer shadow, input parser state, mouse mode, embedded terminals,
// output queue) and the pure state transitions that applying a
// protocol command or a client byte causes. It owns no goroutines or
// sockets itself — internal/server supplies those and calls into
// Session from the single goroutine allowed to touch it.
package session

import (
	"celld/internal/colormap"
	"celld/internal/config"
	"celld/internal/grid"
	"celld/internal/input"
	"celld/internal/protocol"
	"celld/internal/render"
	"celld/internal/vt"
	"celld/internal/window"
)

// TrackingMode is the session-level client mouse-reporting mode
// (off/normal/button/any), distinct from an embedded vt.Emulator's own
// idea of what its remote program asked for.
type TrackingMode int

const (
	TrackingOff TrackingMode = iota
	TrackingNormal
	TrackingButton
	TrackingAny
)

type interactionKind int

const (
	interactionIdle interactionKind = iota
	interactionDragging
	interactionResizing
)

// interaction is the chrome state machine's current state.
type interaction struct {
	kind     interactionKind
	windowID string

	grabDX, grabDY int // dragging

	anchorX, anchorY int // resizing: window origin captured at press time
}

// Session is one connected client's full engine state.
type Session struct {
	ID string

	cols, rows int
	wm         *window.Manager
	renderer   *render.Renderer
	parser     *input.Parser

	tracking TrackingMode
	sgrExt   bool

	interaction  interaction
	focused      string
	pendingClose string

	terminals map[string]*vt.Emulator

	out []byte

	Closed bool

	logger *config.Logger
	winCfg config.WindowConfig
}

// New builds a Session for a newly accepted client connection, sized to
// the default 80x24 grid until an "init" command says otherwise. winCfg
// supplies the defaults applied when create_window omits border or
// minimum-size fields.
func New(id string, logger *config.Logger, winCfg config.WindowConfig) *Session {
	wm := window.NewManager(80, 24)
	if winCfg.BorderFg != "" || winCfg.BorderBg != "" {
		fg, bg := grid.White, grid.Black
		if winCfg.BorderFg != "" {
			fg = colormap.ParseConfigColor(winCfg.BorderFg)
		}
		if winCfg.BorderBg != "" {
			bg = colormap.ParseConfigColor(winCfg.BorderBg)
		}
		wm.SetChromeColors(fg, bg)
	}
	return &Session{
		ID:        id,
		cols:      80,
		rows:      24,
		wm:        wm,
		renderer:  render.New(80, 24),
		parser:    input.NewParser(),
		terminals: make(map[string]*vt.Emulator),
		logger:    logger,
		winCfg:    winCfg,
	}
}

// Resize reallocates the screen-sized grids and shadow buffer for a new
// cols x rows.
func (s *Session) Resize(cols, rows int) {
	s.cols, s.rows = cols, rows
	s.wm.Resize(cols, rows)
	s.renderer.Resize(cols, rows)
}

// DrainOutput returns and clears whatever bytes have accumulated for
// the client socket since the last drain.
func (s *Session) DrainOutput() []byte {
	if len(s.out) == 0 {
		return nil
	}
	b := s.out
	s.out = nil
	return b
}

func (s *Session) emit(b []byte) { s.out = append(s.out, b...) }

// Flush implements the "flush" command: copy every embedded terminal's
// grid into its hosting window, composite, render with force_full,
// drain to the output queue, clear dirty bits (the last part is
// Render's own contract).
func (s *Session) Flush(forceFull bool) {
	for id, e := range s.terminals {
		if w := s.wm.Get(id); w != nil {
			w.ContentGrid().CopyFrom(e.Grid())
		}
	}
	s.wm.Composite()
	s.emit(s.renderer.Render(s.wm.Display(), forceFull))
}

// AutoFlushTick implements the 30ms auto-flush loop: if the
// session owns at least one embedded terminal, pull its grid into the
// hosting window's content, composite, and render a delta pass. A
// session with no terminals does nothing, so the timer tick is free.
func (s *Session) AutoFlushTick() {
	if len(s.terminals) == 0 {
		return
	}
	for id, e := range s.terminals {
		if w := s.wm.Get(id); w != nil {
			w.ContentGrid().CopyFrom(e.Grid())
		}
	}
	s.wm.Composite()
	s.emit(s.renderer.Render(s.wm.Display(), false))
}

// HasTerminals reports whether the auto-flush timer has any work to do
// (the same condition AutoFlushTick checks before doing anything).
func (s *Session) HasTerminals() bool { return len(s.terminals) > 0 }

// Terminal returns the embedded terminal with the given id, or nil.
func (s *Session) Terminal(id string) *vt.Emulator { return s.terminals[id] }

// TerminalIDs returns every embedded terminal id this session owns, for
// the server to manage read-loop tasks against.
func (s *Session) TerminalIDs() []string {
	ids := make([]string, 0, len(s.terminals))
	for id := range s.terminals {
		ids = append(ids, id)
	}
	return ids
}

// HandleTerminalBytes feeds bytes read from an embedded terminal's
// remote connection into its emulator. The emulator grid isn't copied
// into the hosting window until the next flush or auto-flush tick.
func (s *Session) HandleTerminalBytes(id string, data []byte) {
	if e, ok := s.terminals[id]; ok {
		e.Feed(data)
	}
}

// RemoteDisconnected tears down a terminal whose remote connection
// closed or errored out from under it.
func (s *Session) RemoteDisconnected(id, reason string) []protocol.Event {
	if _, ok := s.terminals[id]; !ok {
		return nil
	}
	delete(s.terminals, id)
	return []protocol.Event{protocol.TerminalDisconnected(s.ID, id, reason)}
}

// Teardown closes every embedded terminal's remote connection; called
// when the owning client disconnects.
func (s *Session) Teardown() {
	for _, e := range s.terminals {
		_ = e.Close()
	}
	s.terminals = make(map[string]*vt.Emulator)
}
