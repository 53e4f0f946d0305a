package mux

import (
	"strings"
	"testing"

	"wtmux/internal/layout"
	"wtmux/internal/pty"
)

func newShellSession(t *testing.T) *Session {
	t.Helper()
	sess := NewSession("main")
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return sess
}

func TestNewPaneSetsWtmuxEnvVars(t *testing.T) {
	sess := newShellSession(t)
	p := sess.ActiveWindow().Panes[sess.ActiveWindow().ActivePane]

	var sawWtmux, sawPane, sawSession bool
	for _, kv := range p.Env {
		switch {
		case kv == "WTMUX=1":
			sawWtmux = true
		case strings.HasPrefix(kv, "WTMUX_PANE="):
			sawPane = true
		case strings.HasPrefix(kv, "WTMUX_SESSION="+string(sess.ID)):
			sawSession = true
		}
	}
	if !sawWtmux || !sawPane || !sawSession {
		t.Fatalf("Env missing wtmux identity vars: %v", p.Env)
	}
}

func TestSplitPaneInheritsParentEnv(t *testing.T) {
	sess := newShellSession(t)
	w := sess.ActiveWindow()
	parent := w.Panes[w.ActivePane]
	parent.Env = append(parent.Env, "CUSTOM_VAR=hello")

	child, err := w.SplitPane(pty.Config{Command: "/bin/sh", Cols: 40, Rows: 24}, true)
	if err != nil {
		t.Fatalf("SplitPane: %v", err)
	}
	found := false
	for _, kv := range child.Env {
		if kv == "CUSTOM_VAR=hello" {
			found = true
		}
	}
	if !found {
		t.Fatalf("child pane did not inherit CUSTOM_VAR: %v", child.Env)
	}
}

func TestWindowSplitAndClosePane(t *testing.T) {
	sess := newShellSession(t)
	w := sess.ActiveWindow()
	if len(w.Panes) != 1 {
		t.Fatalf("expected 1 pane, got %d", len(w.Panes))
	}
	p2, err := w.SplitPane(pty.Config{Command: "/bin/sh", Cols: 40, Rows: 24}, true)
	if err != nil {
		t.Fatalf("SplitPane: %v", err)
	}
	if len(w.Panes) != 2 {
		t.Fatalf("expected 2 panes, got %d", len(w.Panes))
	}
	if w.ActivePane != p2.ID {
		t.Fatalf("expected new pane to be active")
	}

	empty := w.ClosePane(p2.ID)
	if empty {
		t.Fatal("expected window to still have one pane left")
	}
	if len(w.Panes) != 1 {
		t.Fatalf("expected 1 pane after close, got %d", len(w.Panes))
	}
}

func TestCloseWindowWithoutRenumberLeavesGap(t *testing.T) {
	sess := newShellSession(t)
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	mid := sess.Windows[1]

	empty := sess.CloseWindow(mid.ID, false)
	if empty {
		t.Fatal("expected session to still have windows")
	}
	if sess.Windows[0].Index != 0 || sess.Windows[1].Index != 2 {
		t.Fatalf("expected index gap [0,2], got [%d,%d]", sess.Windows[0].Index, sess.Windows[1].Index)
	}
}

func TestCloseWindowWithRenumberCompactsIndices(t *testing.T) {
	sess := newShellSession(t)
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	mid := sess.Windows[1]

	sess.CloseWindow(mid.ID, true)
	if sess.Windows[0].Index != 0 || sess.Windows[1].Index != 1 {
		t.Fatalf("expected compacted indices [0,1], got [%d,%d]", sess.Windows[0].Index, sess.Windows[1].Index)
	}
	if sess.NextWindowIndex != 2 {
		t.Fatalf("NextWindowIndex = %d, want 2", sess.NextWindowIndex)
	}
}

func TestSessionNextPrevAndSelectLastWindow(t *testing.T) {
	sess := newShellSession(t)
	if _, err := sess.NewWindow(pty.Config{Command: "/bin/sh", Cols: 80, Rows: 24}, layout.Rect{W: 80, H: 23}); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if sess.ActiveWindowIndex != 1 {
		t.Fatalf("ActiveWindowIndex = %d, want 1", sess.ActiveWindowIndex)
	}
	sess.PrevWindow()
	if sess.ActiveWindowIndex != 0 {
		t.Fatalf("ActiveWindowIndex after PrevWindow = %d, want 0", sess.ActiveWindowIndex)
	}
	sess.SelectLastWindow()
	if sess.ActiveWindowIndex != 1 {
		t.Fatalf("ActiveWindowIndex after SelectLastWindow = %d, want 1", sess.ActiveWindowIndex)
	}
	sess.NextWindow()
	if sess.ActiveWindowIndex != 0 {
		t.Fatalf("ActiveWindowIndex after NextWindow = %d, want 0", sess.ActiveWindowIndex)
	}
}

func TestSessionResizeReservesStatusBarRow(t *testing.T) {
	sess := newShellSession(t)
	sess.Resize(100, 30)
	w := sess.ActiveWindow()
	if w.Area.H != 29 {
		t.Fatalf("window area height = %d, want 29 (30 - 1 status row)", w.Area.H)
	}
}

func TestWindowToggleZoomAndNextLayout(t *testing.T) {
	sess := newShellSession(t)
	w := sess.ActiveWindow()
	if _, err := w.SplitPane(pty.Config{Command: "/bin/sh", Cols: 40, Rows: 24}, true); err != nil {
		t.Fatalf("SplitPane: %v", err)
	}

	w.ToggleZoom()
	if w.ZoomedPane == "" {
		t.Fatal("expected a zoomed pane after ToggleZoom")
	}
	w.ToggleZoom()
	if w.ZoomedPane != "" {
		t.Fatal("expected zoom cleared after second ToggleZoom")
	}

	before := w.PresetIndex
	w.NextLayout()
	if w.PresetIndex == before {
		t.Fatal("expected PresetIndex to advance")
	}
}
