// Package mux implements the session/window/pane model that owns PTYs and
// VT state behind the server's single exclusive mutex (spec.md §3-§4.4,
// §5). Grounded on the teacher's internal/tmux.SessionManager and its
// TmuxSession/TmuxWindow/TmuxPane types, regrown around uuid-keyed ids, an
// N-ary layout.Node per window and an explicit ServerState rather than a
// package-level SessionManager singleton.
package mux

import (
	"os"
	"time"

	"wtmux/internal/ids"
	"wtmux/internal/pty"
	"wtmux/internal/vt"
)

// drainTimeout bounds how long a mutation spends pulling PTY output into
// Terminal State after writing input (spec.md §4.5).
const drainTimeout = 50 * time.Millisecond

// Pane owns one PTY and its Terminal State exclusively (spec.md §3).
type Pane struct {
	ID     ids.PaneID
	PTY    pty.PTY
	Term   *vt.Terminal
	Title  string
	Cols   int
	Rows   int
	Exited bool

	// Env is the environment this pane's process was spawned with: the
	// process's inherited environment plus WTMUX/WTMUX_PANE/WTMUX_SESSION,
	// and (when split from an existing pane) that pane's Env as the base
	// (spec.md §12 "per-pane environment inheritance").
	Env []string
}

// NewPane spawns command and creates a fresh Terminal State sized cols x
// rows (spec.md §4.4 Pane.new). env, when non-nil, is used as the base
// environment instead of the process's own; callers pass the splitting
// pane's Env so a new pane inherits it (spec.md §12).
func NewPane(cfg pty.Config, env []string, sessionID ids.SessionID) (*Pane, error) {
	id := ids.NewPaneID()
	fullEnv := paneEnv(env, id, sessionID)
	cfg.Env = fullEnv
	p, err := pty.Spawn(cfg)
	if err != nil {
		return nil, err
	}
	cols, rows := cfg.Cols, cfg.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	return &Pane{
		ID:   id,
		PTY:  p,
		Term: vt.New(cols, rows),
		Cols: cols,
		Rows: rows,
		Env:  fullEnv,
	}, nil
}

// paneEnv builds one pane's environment: base (the process environment, or
// an existing pane's Env when splitting) plus the WTMUX identity variables
// every pane's process can read to find its way back to the server (spec.md
// §12).
func paneEnv(base []string, id ids.PaneID, sessionID ids.SessionID) []string {
	var env []string
	if base != nil {
		env = append(env, base...)
	} else {
		env = append(env, os.Environ()...)
	}
	env = append(env,
		"WTMUX=1",
		"WTMUX_PANE="+string(id),
		"WTMUX_SESSION="+string(sessionID),
	)
	return env
}

// Resize forwards the new size to both the PTY and the Terminal; a no-op
// when unchanged (spec.md §4.4).
func (p *Pane) Resize(cols, rows int) error {
	if cols == p.Cols && rows == p.Rows {
		return nil
	}
	p.Cols, p.Rows = cols, rows
	p.Term.Resize(cols, rows)
	if p.Exited {
		return nil
	}
	return p.PTY.Resize(cols, rows)
}

// WriteInput writes bytes to the PTY (spec.md §4.4).
func (p *Pane) WriteInput(b []byte) (int, error) {
	if p.Exited {
		return 0, nil
	}
	return p.PTY.Write(b)
}

// ReadOutput reads up to 4 KiB from the PTY, feeding it into the Terminal's
// VT parser and tracking title changes from OSC; zero bytes (EOF) marks the
// pane exited (spec.md §4.4).
func (p *Pane) ReadOutput() (int, error) {
	if p.Exited {
		return 0, nil
	}
	// Clear any deadline a prior Drain left set; this is a plain blocking
	// read, not a bounded poll.
	if err := p.PTY.SetReadDeadline(time.Time{}); err != nil {
		return 0, err
	}
	buf := make([]byte, 4096)
	n, err := p.PTY.Read(buf)
	if n > 0 {
		p.Term.Write(buf[:n])
		if p.Term.Title != "" {
			p.Title = p.Term.Title
		}
	}
	if n == 0 || err != nil {
		p.Exited = true
	}
	return n, err
}

// Drain implements the PTY draining policy of spec.md §4.5: after a mutation
// writes input to this pane, poll its PTY read side for up to drainTimeout
// per iteration, feeding whatever appears into Terminal State, stopping on
// the first timeout or short read. Must be called while holding the
// server's exclusive mutex.
//
// Each iteration bounds its Read with PTY.SetReadDeadline rather than
// racing a goroutine against a timer: a per-iteration reader goroutine
// would outlive a timed-out select, and since this is called from every
// idle tick (internal/server/server.go's drainer) an idle pane would
// accumulate one orphaned goroutine per tick forever, with whichever one
// eventually won the race writing into a channel nobody still reads from
// (dropping that chunk of output). SetReadDeadline lets Read itself return
// a timeout error, so there is exactly one Read call in flight at a time
// and nothing to leak or drop.
func (p *Pane) Drain() {
	if p.Exited {
		return
	}
	buf := make([]byte, 4096)
	for {
		if err := p.PTY.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
			return
		}
		n, err := p.PTY.Read(buf)
		if n > 0 {
			p.Term.Write(buf[:n])
			if p.Term.Title != "" {
				p.Title = p.Term.Title
			}
		}
		switch {
		case err != nil && isTimeout(err):
			return
		case err != nil:
			p.Exited = true
			return
		case n == 0:
			p.Exited = true
			return
		case n < len(buf):
			return
		}
	}
}

// isTimeout reports whether err is a deadline-exceeded error from
// PTY.SetReadDeadline, as opposed to a real read failure.
func isTimeout(err error) bool {
	t, ok := err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// Close terminates the PTY and its child process.
func (p *Pane) Close() error {
	return p.PTY.Close()
}
