package mux

import (
	"testing"

	"wtmux/internal/config"
	"wtmux/internal/layout"
	"wtmux/internal/pty"
)

func TestPushPasteDiscardsOldestPastCap(t *testing.T) {
	state := NewServerState(config.DefaultConfig())
	state.PasteBufferCap = 2
	state.PushPaste("one")
	state.PushPaste("two")
	state.PushPaste("three")
	if len(state.PasteBuffer) != 2 {
		t.Fatalf("len(PasteBuffer) = %d, want 2", len(state.PasteBuffer))
	}
	if state.PasteBuffer[0] != "two" || state.PasteBuffer[1] != "three" {
		t.Fatalf("PasteBuffer = %v, want [two three]", state.PasteBuffer)
	}
}

func TestRegisterAndUnregisterClient(t *testing.T) {
	state := NewServerState(config.DefaultConfig())
	c := state.RegisterClient(80, 24)
	if _, ok := state.Clients[c.ClientID]; !ok {
		t.Fatal("expected client to be registered")
	}
	state.UnregisterClient(c.ClientID)
	if _, ok := state.Clients[c.ClientID]; ok {
		t.Fatal("expected client to be removed")
	}
}

func TestCloseSessionForcingDetachReturnsAttachedClients(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Options.DefaultShell = "/bin/sh"
	state := NewServerState(cfg)

	sess := NewSession("main")
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	state.Sessions[sess.ID] = sess

	attached := state.RegisterClient(80, 24)
	attached.SessionID = sess.ID
	attached.HasSessionID = true
	other := state.RegisterClient(80, 24)

	detached := state.CloseSessionForcingDetach(sess.ID)
	if len(detached) != 1 || detached[0] != attached.ClientID {
		t.Fatalf("detached = %v, want [%v]", detached, attached.ClientID)
	}
	if attached.HasSessionID {
		t.Fatal("expected attached client's HasSessionID cleared")
	}
	if other.HasSessionID || other.SessionID != "" {
		t.Fatal("expected unrelated client to be untouched")
	}
	if _, ok := state.Sessions[sess.ID]; ok {
		t.Fatal("expected session removed from state")
	}
}

func TestCloseSessionForcingDetachUnknownSessionIsNoop(t *testing.T) {
	state := NewServerState(config.DefaultConfig())
	if detached := state.CloseSessionForcingDetach("nonexistent"); detached != nil {
		t.Fatalf("detached = %v, want nil", detached)
	}
}
