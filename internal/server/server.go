// Package server is wtmuxd's core: it accepts client connections over an
// internal/transport listener, decodes internal/protocol messages, and
// dispatches each one against a mux.ServerState behind a single exclusive
// mutex (spec.md §4.5, §5). Grounded on the teacher's internal/wsserver.Hub
// for its connection-registry-plus-per-connection-writeMu shape and its
// lock-ordering discipline (writeMu before the state mutex, documented once
// and never violated), generalized from the teacher's single-WebView-client
// model to wtmuxd's many concurrent client connections.
package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"wtmux/internal/config"
	"wtmux/internal/ids"
	"wtmux/internal/mux"
	"wtmux/internal/protocol"
	"wtmux/internal/transport"
)

// idleDrainInterval is how often the idle drainer polls every pane's PTY for
// output the client isn't actively driving with input (spec.md §12
// "Idle PTY drain", supplementing §4.5's post-input drain policy so output
// from background processes still reaches attached clients).
const idleDrainInterval = 50 * time.Millisecond

// clientConn is one accepted connection plus the registry entry it backs.
//
// Lock ordering (never acquire in reverse): writeMu is always acquired
// without holding Server.mu. writeMu serializes frame writes to conn, which
// is not safe for concurrent use from multiple goroutines; Server.mu
// protects state, which this type never touches directly.
type clientConn struct {
	id      ids.ClientID
	conn    net.Conn
	writeMu sync.Mutex
}

func (c *clientConn) send(msg protocol.ServerMessage) error {
	payload, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		return fmt.Errorf("server: encode message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return transport.WriteFrame(c.conn, payload)
}

// Server is wtmuxd's accept loop and dispatch core.
type Server struct {
	log *slog.Logger

	mu      sync.Mutex
	state   *mux.ServerState
	clients map[ids.ClientID]*clientConn

	listener net.Listener
	wg       sync.WaitGroup

	idleStop chan struct{}
	idleDone chan struct{}

	shutdownOnce sync.Once
}

// New creates a server over cfg. Callers must call Serve to start accepting.
func New(cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:     log,
		state:   mux.NewServerState(cfg),
		clients: map[ids.ClientID]*clientConn{},
	}
}

// SetConfig replaces the live configuration, used by the config hot-reload
// watcher (spec.md §6 "the running server ... re-reads bindings and
// options"). Caller must not be holding any lock.
func (s *Server) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Config = cfg
}

// Serve accepts connections on l until it returns an error or Shutdown is
// called, blocking until the accept loop exits. It also starts the idle PTY
// drainer for the server's lifetime.
func (s *Server) Serve(l net.Listener) error {
	s.listener = l
	s.idleStop = make(chan struct{})
	s.idleDone = make(chan struct{})
	go s.idleDrainLoop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Shutdown closes the listener and every client connection, pushing a
// Shutdown message to each attached client first, and waits for all
// connection handlers and the idle drainer to exit. Safe to call more than
// once (e.g. once from a "kill-server" command and once from the daemon's
// own signal handler); only the first call does anything.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(s.shutdownLocked)
}

func (s *Server) shutdownLocked() {
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	targets := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		_ = c.send(protocol.ServerMessage{Type: protocol.Shutdown})
		c.conn.Close()
	}

	if s.idleStop != nil {
		close(s.idleStop)
		<-s.idleDone
	}
	s.wg.Wait()
}

// handleConn owns one client's lifetime: register, decode-dispatch-reply in
// a loop, unregister on disconnect (spec.md §4.5: "Clients are created on
// connect ... removed on disconnect").
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.mu.Lock()
	reg := s.state.RegisterClient(80, 24)
	cc := &clientConn{id: reg.ClientID, conn: conn}
	s.clients[reg.ClientID] = cc
	s.mu.Unlock()

	s.log.Info("[server] client connected", "client", reg.ClientID)

	defer func() {
		s.mu.Lock()
		s.state.UnregisterClient(reg.ClientID)
		delete(s.clients, reg.ClientID)
		s.mu.Unlock()
		s.log.Info("[server] client disconnected", "client", reg.ClientID)
	}()

	for {
		payload, err := transport.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Warn("[server] read frame", "client", reg.ClientID, "err", err)
			}
			return
		}
		msg, err := protocol.DecodeClientMessage(payload)
		if err != nil {
			s.log.Warn("[server] decode message", "client", reg.ClientID, "err", err)
			continue
		}

		reply, detach, pushes := s.dispatch(reg.ClientID, msg)

		for _, p := range pushes {
			if err := p.conn.send(p.msg); err != nil {
				s.log.Warn("[server] push", "client", p.conn.id, "err", err)
			}
		}
		if err := cc.send(reply); err != nil {
			s.log.Warn("[server] send reply", "client", reg.ClientID, "err", err)
			return
		}
		if detach {
			return
		}
	}
}

// pushTarget is an out-of-band ServerMessage destined for a client other
// than the one whose request produced it (e.g. every client detached by a
// kill-session issued from someone else's connection).
type pushTarget struct {
	conn *clientConn
	msg  protocol.ServerMessage
}

// dispatch applies one decoded client message to state under the exclusive
// mutex and renders the reply, then releases the mutex before the caller
// writes anything to the network (spec.md §4.5: "drop the mutex, then send
// exactly one reply").
func (s *Server) dispatch(from ids.ClientID, msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.state.Clients[from]
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "client is gone"}, true, nil
	}

	h := handlerContext{s: s, state: s.state, client: client}
	return h.handle(msg)
}

func (s *Server) idleDrainLoop() {
	defer close(s.idleDone)
	t := time.NewTicker(idleDrainInterval)
	defer t.Stop()
	for {
		select {
		case <-s.idleStop:
			return
		case <-t.C:
			s.mu.Lock()
			for _, sess := range s.state.Sessions {
				for _, w := range sess.Windows {
					for _, p := range w.Panes {
						p.Drain()
					}
				}
			}
			s.mu.Unlock()
		}
	}
}
