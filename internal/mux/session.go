package mux

import (
	"time"

	"wtmux/internal/ids"
	"wtmux/internal/layout"
	"wtmux/internal/pty"
)

// Session is an ordered list of windows (spec.md §3).
type Session struct {
	ID                ids.SessionID
	Name              string
	Windows           []*Window
	ActiveWindowIndex int
	LastWindowIndex   int
	HasLastWindow     bool
	CreatedAt         time.Time
	NextWindowIndex   int // monotonic external index, never reused
}

// NewSession creates an empty session with the given name.
func NewSession(name string) *Session {
	return &Session{
		ID:        ids.NewSessionID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// NewWindow appends a window running cfg, assigning it next_window_index
// and making it active (spec.md §4.4).
func (s *Session) NewWindow(cfg pty.Config, area layout.Rect) (*Window, error) {
	idx := s.NextWindowIndex
	s.NextWindowIndex++
	w, err := NewWindow(ids.NewWindowID(), idx, cfg, area, s.ID)
	if err != nil {
		return nil, err
	}
	s.HasLastWindow = len(s.Windows) > 0
	if s.HasLastWindow {
		s.LastWindowIndex = s.ActiveWindowIndex
	}
	s.Windows = append(s.Windows, w)
	s.ActiveWindowIndex = len(s.Windows) - 1
	return w, nil
}

// SelectWindow finds a window by its external index (spec.md §4.4).
func (s *Session) SelectWindow(index int) bool {
	for i, w := range s.Windows {
		if w.Index == index {
			s.LastWindowIndex = s.ActiveWindowIndex
			s.HasLastWindow = true
			s.ActiveWindowIndex = i
			return true
		}
	}
	return false
}

// NextWindow cycles forward by position.
func (s *Session) NextWindow() {
	if len(s.Windows) == 0 {
		return
	}
	s.LastWindowIndex = s.ActiveWindowIndex
	s.HasLastWindow = true
	s.ActiveWindowIndex = (s.ActiveWindowIndex + 1) % len(s.Windows)
}

// PrevWindow cycles backward by position.
func (s *Session) PrevWindow() {
	if len(s.Windows) == 0 {
		return
	}
	s.LastWindowIndex = s.ActiveWindowIndex
	s.HasLastWindow = true
	s.ActiveWindowIndex = (s.ActiveWindowIndex - 1 + len(s.Windows)) % len(s.Windows)
}

// SelectLastWindow swaps the active and last window (spec.md §4.4).
func (s *Session) SelectLastWindow() {
	if !s.HasLastWindow {
		return
	}
	s.ActiveWindowIndex, s.LastWindowIndex = s.LastWindowIndex, s.ActiveWindowIndex
}

// ActiveWindow returns the currently active window, or nil if empty.
func (s *Session) ActiveWindow() *Window {
	if s.ActiveWindowIndex < 0 || s.ActiveWindowIndex >= len(s.Windows) {
		return nil
	}
	return s.Windows[s.ActiveWindowIndex]
}

// CloseWindow removes the window at position i; if the active index is now
// past the end, it snaps to the last window (spec.md §4.4). Returns true iff
// the session is now empty. When renumber is true (the renumber-windows
// option, spec.md §6/§12), the remaining windows' external indices are
// compacted to 0..n-1 in position order; otherwise indices are left as-is,
// leaving a gap where the closed window was.
func (s *Session) CloseWindow(id ids.WindowID, renumber bool) bool {
	for i, w := range s.Windows {
		if w.ID != id {
			continue
		}
		for pid := range w.Panes {
			w.ClosePane(pid)
		}
		s.Windows = append(s.Windows[:i], s.Windows[i+1:]...)
		break
	}
	if s.ActiveWindowIndex >= len(s.Windows) {
		s.ActiveWindowIndex = len(s.Windows) - 1
	}
	if s.LastWindowIndex >= len(s.Windows) {
		s.HasLastWindow = false
	}
	if renumber {
		for i, w := range s.Windows {
			w.Index = i
		}
		s.NextWindowIndex = len(s.Windows)
	}
	return len(s.Windows) == 0
}

// Resize propagates Rect(0,0,cols,rows-1) to every window, reserving one row
// for the status bar (spec.md §4.4).
func (s *Session) Resize(cols, rows int) {
	area := layout.Rect{X: 0, Y: 0, W: cols, H: rows - 1}
	if area.H < 1 {
		area.H = 1
	}
	for _, w := range s.Windows {
		w.Resize(area)
	}
}
