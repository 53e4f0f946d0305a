//go:build !windows

package transport

import (
	"net"
	"testing"
)

func TestListenDialRoundTrip(t *testing.T) {
	addr := "test-user-" + t.Name()
	l, err := Listen(addr)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	accepted := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			accepted <- err
			return
		}
		defer conn.Close()
		if err := WriteFrame(conn, []byte("pong")); err != nil {
			accepted <- err
			return
		}
		accepted <- nil
	}()

	conn, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	got, err := ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(got) != "pong" {
		t.Fatalf("got %q, want pong", got)
	}
	if err := <-accepted; err != nil {
		t.Fatalf("accept goroutine: %v", err)
	}
}

func TestListenRemovesStaleSocket(t *testing.T) {
	addr := "stale-" + t.Name()
	l1, err := Listen(addr)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	path := l1.Addr().String()
	// Keep the socket file on Close so the second Listen meets a stale one.
	l1.(*net.UnixListener).SetUnlinkOnClose(false)
	l1.Close()

	l2, err := Listen(addr)
	if err != nil {
		t.Fatalf("second Listen after close: %v", err)
	}
	defer l2.Close()
	if l2.Addr().String() != path {
		t.Fatalf("expected same socket path, got %q vs %q", l2.Addr().String(), path)
	}
}
