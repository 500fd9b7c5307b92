package server

import (
	"celld/internal/protocol"
	"celld/internal/session"
	"celld/internal/vt"
)

type msgKind int

const (
	msgClientBytes msgKind = iota
	msgCommand
	msgTerminalBytes
	msgDialResult
	msgRemoteClosed
	msgClientClosed
)

// sessionMsg is one entry of a session task's FIFO queue: the
// queue is the only path by which any goroutine other than the owning
// task ever influences a Session's state.
type sessionMsg struct {
	kind msgKind

	data []byte

	cmd *protocol.Command

	termID string
	reason string

	dialReq  session.TerminalDialRequest
	emulator *vt.Emulator
	dialErr  error
}
