package mux

import (
	"wtmux/internal/config"
	"wtmux/internal/copymode"
	"wtmux/internal/ids"
)

// DefaultPasteBufferSize bounds the paste-buffer stack (spec.md §3).
const DefaultPasteBufferSize = 50

// ClientRegistration tracks one connected client's attachment and terminal
// size (spec.md §3).
type ClientRegistration struct {
	ClientID  ids.ClientID
	SessionID ids.SessionID
	HasSessionID bool
	Cols, Rows int
	CopyMode  *copymode.State
}

// ServerState is the single piece of shared state protected by the server's
// exclusive mutex (spec.md §3, §5): sessions, config, paste buffer and the
// client registry. No component outside the mutex holder may mutate any
// session/window/pane/Terminal/layout/paste-buffer.
type ServerState struct {
	Sessions map[ids.SessionID]*Session
	Config   *config.Config

	// PasteBuffer is a bounded FIFO stack; pushing past Cap discards the
	// bottom entry (spec.md §3).
	PasteBuffer []string
	PasteBufferCap int

	Clients map[ids.ClientID]*ClientRegistration
}

// NewServerState creates an empty server state with the given config.
func NewServerState(cfg *config.Config) *ServerState {
	return &ServerState{
		Sessions:       map[ids.SessionID]*Session{},
		Config:         cfg,
		PasteBufferCap: DefaultPasteBufferSize,
		Clients:        map[ids.ClientID]*ClientRegistration{},
	}
}

// PushPaste pushes s onto the paste buffer, discarding the oldest entry when
// full (spec.md §3).
func (s *ServerState) PushPaste(text string) {
	s.PasteBuffer = append(s.PasteBuffer, text)
	if len(s.PasteBuffer) > s.PasteBufferCap {
		s.PasteBuffer = s.PasteBuffer[len(s.PasteBuffer)-s.PasteBufferCap:]
	}
}

// RegisterClient creates a fresh, unattached client registration (spec.md
// §4.5: "Clients are created on connect").
func (s *ServerState) RegisterClient(cols, rows int) *ClientRegistration {
	c := &ClientRegistration{
		ClientID: ids.NewClientID(),
		Cols:     cols,
		Rows:     rows,
	}
	s.Clients[c.ClientID] = c
	return c
}

// UnregisterClient removes a client on disconnect (spec.md §4.5).
func (s *ServerState) UnregisterClient(id ids.ClientID) {
	delete(s.Clients, id)
}

// CloseSessionForcingDetach removes a session and returns the ids of every
// client that was attached to it, so the caller can forcibly detach them
// (spec.md §3: "Session destroyed when its last window closes; clients on
// that session are forcibly detached").
func (s *ServerState) CloseSessionForcingDetach(id ids.SessionID) []ids.ClientID {
	sess, ok := s.Sessions[id]
	if !ok {
		return nil
	}
	for _, w := range sess.Windows {
		for pid := range w.Panes {
			w.ClosePane(pid)
		}
	}
	delete(s.Sessions, id)

	var detached []ids.ClientID
	for cid, c := range s.Clients {
		if c.HasSessionID && c.SessionID == id {
			c.HasSessionID = false
			c.SessionID = ""
			detached = append(detached, cid)
		}
	}
	return detached
}
