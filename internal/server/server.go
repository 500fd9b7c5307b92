// Package server owns the engine's two TCP listeners (one for
// applications speaking the line-delimited JSON protocol, one for raw
// clients whose byte stream is keystrokes/mouse sequences and whose
// replies are the rendered ANSI delta stream), the per-session task that
// owns all of one client's engine state, and the bounded FIFO queue
// every mutation of that state is funneled through.
package server

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"celld/internal/config"
	"celld/internal/protocol"
	"celld/internal/session"
	"celld/internal/vt"
)

// sessionQueueDepth bounds the FIFO queue of messages a session task
// drains. Sized generously
// above any single auto-flush tick's plausible backlog.
const sessionQueueDepth = 256

// Server owns both listeners and every live session.
type Server struct {
	appAddr    string
	clientAddr string
	logger     *config.Logger
	winCfg     config.WindowConfig

	appLn    net.Listener
	clientLn net.Listener

	mu       sync.Mutex
	apps     map[net.Conn]struct{}
	sessions map[string]*sessionEntry
	ipCount  map[string]int

	done chan struct{}
}

type sessionEntry struct {
	sess  *session.Session
	queue chan sessionMsg
	conn  net.Conn
}

// New builds a Server bound to appAddr/clientAddr (host:port strings,
// from the binary's two positional arguments). winCfg carries the
// user-config window defaults handed to every new session.
func New(appAddr, clientAddr string, logger *config.Logger, winCfg config.WindowConfig) *Server {
	return &Server{
		appAddr:    appAddr,
		clientAddr: clientAddr,
		logger:     logger,
		winCfg:     winCfg,
		apps:       make(map[net.Conn]struct{}),
		sessions:   make(map[string]*sessionEntry),
		ipCount:    make(map[string]int),
		done:       make(chan struct{}),
	}
}

// Run binds both listeners and serves until ctx is cancelled. A bind
// failure on either listener is returned so the caller can exit
// non-zero.
func (s *Server) Run(ctx context.Context) error {
	appLn, err := net.Listen("tcp", s.appAddr)
	if err != nil {
		return err
	}
	s.appLn = appLn

	clientLn, err := net.Listen("tcp", s.clientAddr)
	if err != nil {
		_ = appLn.Close()
		return err
	}
	s.clientLn = clientLn

	s.logger.Infof("listening: app=%s client=%s", s.appAddr, s.clientAddr)

	go s.acceptApps(ctx)
	go s.acceptClients(ctx)

	<-ctx.Done()
	s.shutdown()
	return nil
}

func (s *Server) shutdown() {
	close(s.done)
	_ = s.appLn.Close()
	_ = s.clientLn.Close()

	s.mu.Lock()
	for conn := range s.apps {
		_ = conn.Close()
	}
	// Session queues are closed by each task's own endSession once it
	// observes ctx cancellation; closing them here would race a
	// double close against that path.
	for _, e := range s.sessions {
		_ = e.conn.Close()
	}
	s.mu.Unlock()
}

func (s *Server) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// nextSessionID produces "session_<ip>_<n>" ids, n counting separately
// per source IP so two clients from the same host never collide. A
// peer address that won't parse (unix-socket tests, exotic transports)
// falls back to a random uuid key instead of colliding on "".
func (s *Server) nextSessionID(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	key := strings.ReplaceAll(host, ":", "-") // IPv6 colons aren't id-safe
	s.mu.Lock()
	n := s.ipCount[key]
	s.ipCount[key] = n + 1
	s.mu.Unlock()
	return "session_" + key + "_" + strconv.Itoa(n)
}

func (s *Server) broadcastToApps(ev protocol.Event) {
	b, err := protocol.Encode(ev)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.apps {
		_, _ = conn.Write(b)
	}
}

func (s *Server) broadcastAll(events []protocol.Event) {
	for _, ev := range events {
		s.broadcastToApps(ev)
	}
}

// acceptApps runs the application-port accept loop.
func (s *Server) acceptApps(ctx context.Context) {
	for {
		conn, err := s.appLn.Accept()
		if err != nil {
			if s.stopped() {
				return
			}
			s.logger.Errorf("app accept: %v", err)
			return
		}
		s.registerApp(conn)
		go s.appReadLoop(ctx, conn)
	}
}

func (s *Server) registerApp(conn net.Conn) {
	s.mu.Lock()
	s.apps[conn] = struct{}{}
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	// A newly connected application is brought up to date on every
	// already-live session.
	for _, id := range ids {
		b, err := protocol.Encode(protocol.ClientConnect(id))
		if err == nil {
			_, _ = conn.Write(b)
		}
	}
}

func (s *Server) deregisterApp(conn net.Conn) {
	s.mu.Lock()
	delete(s.apps, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) appReadLoop(ctx context.Context, conn net.Conn) {
	defer s.deregisterApp(conn)

	sc := protocol.NewScanner(conn, config.MaxCommandLineBytes+4096)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		cmd, err := protocol.Decode(line)
		if err != nil {
			s.logger.Debugf("dropping malformed command line: %v", err)
			continue
		}
		if cmd.Session == "" {
			continue
		}
		s.mu.Lock()
		entry, ok := s.sessions[cmd.Session]
		s.mu.Unlock()
		if !ok {
			continue
		}
		// trySend absorbs the race where the session tore down between
		// the map lookup and the enqueue.
		trySend(entry.queue, sessionMsg{kind: msgCommand, cmd: cmd})
		if ctx.Err() != nil {
			return
		}
	}
}

// acceptClients runs the client-port accept loop: each
// accepted connection becomes a new Session with its own task.
func (s *Server) acceptClients(ctx context.Context) {
	for {
		conn, err := s.clientLn.Accept()
		if err != nil {
			if s.stopped() {
				return
			}
			s.logger.Errorf("client accept: %v", err)
			return
		}
		s.startSession(ctx, conn)
	}
}

func (s *Server) startSession(ctx context.Context, conn net.Conn) {
	id := s.nextSessionID(conn)
	sess := session.New(id, s.logger, s.winCfg)
	entry := &sessionEntry{sess: sess, queue: make(chan sessionMsg, sessionQueueDepth), conn: conn}

	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	s.broadcastToApps(protocol.ClientConnect(id))

	go s.clientReadLoop(entry)
	go s.sessionTask(ctx, entry)
}

func (s *Server) endSession(entry *sessionEntry) {
	s.mu.Lock()
	delete(s.sessions, entry.sess.ID)
	s.mu.Unlock()
	// Closing the queue releases any producer still pointed at this
	// session; trySend absorbs the resulting panic on their side.
	close(entry.queue)
	entry.sess.Teardown()
	_ = entry.conn.Close()
	s.broadcastToApps(protocol.ClientDisconnect(entry.sess.ID))
}

// clientReadLoop forwards raw client bytes into the session's queue.
func (s *Server) clientReadLoop(entry *sessionEntry) {
	buf := make([]byte, 4096)
	for {
		n, err := entry.conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !trySend(entry.queue, sessionMsg{kind: msgClientBytes, data: data}) {
				return
			}
		}
		if err != nil {
			trySend(entry.queue, sessionMsg{kind: msgClientClosed})
			return
		}
	}
}

// terminalReadLoop forwards bytes from one embedded terminal's remote
// connection into its owning session's queue; each remote connection
// gets a read goroutine of its own.
func (s *Server) terminalReadLoop(entry *sessionEntry, id string, conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !trySend(entry.queue, sessionMsg{kind: msgTerminalBytes, termID: id, data: data}) {
				return
			}
		}
		if err != nil {
			reason := "closed"
			if err.Error() != "" {
				reason = err.Error()
			}
			trySend(entry.queue, sessionMsg{kind: msgRemoteClosed, termID: id, reason: reason})
			return
		}
	}
}

// trySend delivers msg unless the queue is already closed (session
// torn down), returning false in that case so the caller's read loop
// can exit instead of panicking on a send to a closed channel.
func trySend(queue chan sessionMsg, msg sessionMsg) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	queue <- msg
	return true
}

// sessionTask is the single goroutine allowed to mutate one Session.
// It drains the inbound queue and ticks the 30ms auto-flush timer,
// flushing rendered bytes to the client socket after each message.
func (s *Server) sessionTask(ctx context.Context, entry *sessionEntry) {
	ticker := time.NewTicker(config.AutoFlushInterval)
	defer ticker.Stop()
	defer s.endSession(entry)

	for {
		select {
		case msg, ok := <-entry.queue:
			if !ok {
				return
			}
			if s.handleSessionMsg(ctx, entry, msg) {
				return
			}
			s.flushToClient(entry)

		case <-ticker.C:
			entry.sess.AutoFlushTick()
			s.flushToClient(entry)

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) flushToClient(entry *sessionEntry) {
	if b := entry.sess.DrainOutput(); len(b) > 0 {
		_, _ = entry.conn.Write(b)
	}
}

// handleSessionMsg applies one queued message to the session, returning
// true if the session task should exit afterward.
func (s *Server) handleSessionMsg(ctx context.Context, entry *sessionEntry, msg sessionMsg) bool {
	switch msg.kind {
	case msgClientBytes:
		s.broadcastAll(entry.sess.HandleClientBytes(msg.data))

	case msgCommand:
		events, dial := entry.sess.ApplyCommand(msg.cmd)
		s.broadcastAll(events)
		if dial != nil {
			go s.dialTerminal(ctx, entry, *dial)
		}
		if entry.sess.Closed {
			return true
		}

	case msgTerminalBytes:
		entry.sess.HandleTerminalBytes(msg.termID, msg.data)

	case msgDialResult:
		events := entry.sess.CompleteTerminalDial(msg.dialReq, msg.emulator, msg.dialErr)
		s.broadcastAll(events)
		if msg.emulator != nil {
			go s.terminalReadLoop(entry, msg.dialReq.ID, msg.emulator.Conn())
		}

	case msgRemoteClosed:
		s.broadcastAll(entry.sess.RemoteDisconnected(msg.termID, msg.reason))

	case msgClientClosed:
		return true
	}
	return false
}

// dialTerminal runs a create_terminal request's remote connect attempt
// off the session's task, reporting the outcome back onto the
// queue.
func (s *Server) dialTerminal(ctx context.Context, entry *sessionEntry, req session.TerminalDialRequest) {
	dctx, cancel := context.WithTimeout(ctx, config.TerminalDialTimeout)
	defer cancel()
	e, err := vt.Dial(dctx, req.Host, req.Port, req.Cols, req.Rows)
	trySend(entry.queue, sessionMsg{kind: msgDialResult, dialReq: req, emulator: e, dialErr: err})
}
