package render

import (
	"strings"
	"testing"
	"time"

	"wtmux/internal/config"
	"wtmux/internal/layout"
	"wtmux/internal/mux"
	"wtmux/internal/pty"
)

func newTestSession(t *testing.T, cols, rows int) *mux.Session {
	t.Helper()
	sess := mux.NewSession("main")
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: cols, Rows: rows - 1}, layout.Rect{W: cols, H: rows - 1}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return sess
}

func TestComposeIncludesPaneContentAndStatusBar(t *testing.T) {
	sess := newTestSession(t, 20, 10)
	w := sess.ActiveWindow()
	p := w.Panes[w.ActivePane]
	p.Term.Write([]byte("hello pane"))

	cfg := config.DefaultConfig()
	client := &mux.ClientRegistration{Cols: 20, Rows: 10}
	now := time.Date(2026, 7, 31, 14, 5, 0, 0, time.UTC)

	out := string(Compose(sess, client, cfg, now))
	if !strings.Contains(out, "hello pane") {
		t.Fatalf("Compose output missing pane content: %q", out)
	}
	if !strings.Contains(out, "main") {
		t.Fatalf("Compose output missing session name in status bar: %q", out)
	}
	if !strings.Contains(out, "14:05") {
		t.Fatalf("Compose output missing expanded clock token: %q", out)
	}
}

func TestComposeHidesStatusBarWhenDisabled(t *testing.T) {
	sess := newTestSession(t, 20, 10)
	cfg := config.DefaultConfig()
	cfg.Options.Status = false
	cfg.Options.StatusLeft = "SHOULD-NOT-APPEAR"
	client := &mux.ClientRegistration{Cols: 20, Rows: 10}

	out := string(Compose(sess, client, cfg, time.Now()))
	if strings.Contains(out, "SHOULD-NOT-APPEAR") {
		t.Fatal("expected status bar to be suppressed when Options.Status is false")
	}
}

func TestComposeEmptySessionStillShowsCursor(t *testing.T) {
	sess := mux.NewSession("empty")
	cfg := config.DefaultConfig()
	client := &mux.ClientRegistration{Cols: 20, Rows: 10}

	out := string(Compose(sess, client, cfg, time.Now()))
	if !strings.Contains(out, "\x1b[?25h") {
		t.Fatalf("Compose output for empty session missing show-cursor sequence: %q", out)
	}
}
