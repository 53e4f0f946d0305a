package server

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"wtmux/internal/config"
	"wtmux/internal/protocol"
	"wtmux/internal/transport"
)

func startTestServer(t *testing.T) (addr string, srv *Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Options.DefaultShell = "/bin/sh"
	srv = New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	go srv.Serve(l)
	t.Cleanup(srv.Shutdown)
	return l.Addr().String(), srv
}

func roundTrip(t *testing.T, conn net.Conn, msg protocol.ClientMessage) protocol.ServerMessage {
	t.Helper()
	payload, err := protocol.EncodeClientMessage(msg)
	if err != nil {
		t.Fatalf("EncodeClientMessage: %v", err)
	}
	if err := transport.WriteFrame(conn, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	replyPayload, err := transport.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	reply, err := protocol.DecodeServerMessage(replyPayload)
	if err != nil {
		t.Fatalf("DecodeServerMessage: %v", err)
	}
	return reply
}

func TestNewSessionAndAttachRoundTrip(t *testing.T) {
	addr, _ := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	reply := roundTrip(t, conn, protocol.ClientMessage{Type: protocol.NewSession, Name: "main", Cols: 80, Rows: 24})
	if reply.Type != protocol.SessionCreated {
		t.Fatalf("got %+v, want SessionCreated", reply)
	}
	if reply.SessionID == "" {
		t.Fatal("expected a non-empty session id")
	}
}

func TestListSessionsReflectsCreatedSession(t *testing.T) {
	addr, _ := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	created := roundTrip(t, conn, protocol.ClientMessage{Type: protocol.NewSession, Name: "work", Cols: 80, Rows: 24})
	if created.Type != protocol.SessionCreated {
		t.Fatalf("create: got %+v", created)
	}

	list := roundTrip(t, conn, protocol.ClientMessage{Type: protocol.ListSessions})
	if list.Type != protocol.SessionList {
		t.Fatalf("got %+v, want SessionList", list)
	}
	found := false
	for _, s := range list.Sessions {
		if s.Name == "work" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session %q in list, got %+v", "work", list.Sessions)
	}
}

func TestInputProducesOutputFromShell(t *testing.T) {
	addr, _ := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	created := roundTrip(t, conn, protocol.ClientMessage{Type: protocol.NewSession, Name: "main", Cols: 80, Rows: 24})
	if created.Type != protocol.SessionCreated {
		t.Fatalf("create: got %+v", created)
	}

	reply := roundTrip(t, conn, protocol.ClientMessage{Type: protocol.Input, Bytes: []byte("echo hi\n")})
	if reply.Type != protocol.Output {
		t.Fatalf("got %+v, want Output", reply)
	}
}

func TestKillServerShutsDownListener(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Options.DefaultShell = "/bin/sh"
	srv := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := l.Addr().String()
	go srv.Serve(l)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	reply := roundTrip(t, conn, protocol.ClientMessage{Type: protocol.Command, Command: "kill-server"})
	if reply.Type != protocol.Shutdown && reply.Type != protocol.Notification {
		t.Fatalf("got %+v, want Shutdown or Notification", reply)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := net.Dial("tcp", addr); err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected listener to stop accepting connections after kill-server")
}
