//go:build !windows

package pty

import (
	"bytes"
	"testing"
	"time"
)

func TestSpawnSmoke(t *testing.T) {
	p, err := Spawn(Config{Command: "/bin/sh", Args: []string{"-c", "echo hi"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	defer p.Close()

	if p.Pid() <= 0 {
		t.Errorf("Pid() = %d, want positive", p.Pid())
	}

	buf := make([]byte, 256)
	deadline := time.Now().Add(2 * time.Second)
	var got []byte
	for time.Now().Before(deadline) {
		n, err := p.Read(buf)
		if n > 0 {
			got = append(got, buf[:n]...)
		}
		if bytes.Contains(got, []byte("hi")) {
			return
		}
		if err != nil {
			break
		}
	}
	if !bytes.Contains(got, []byte("hi")) {
		t.Fatalf("output = %q, want it to contain %q", got, "hi")
	}
}

func TestSpawnResize(t *testing.T) {
	p, err := Spawn(Config{Command: "/bin/sh", Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	defer p.Close()

	if err := p.Resize(100, 30); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
}
