//go:build !windows

package pty

import (
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"wtmux/internal/procutil"
)

// unixPTY wraps a creack/pty master file and the spawned command, grounded
// on the teacher's terminal_unix.go Start().
type unixPTY struct {
	cmd  *exec.Cmd
	ptmx *os.File
}

// Spawn starts cfg.Command attached to a fresh PTY master sized cols x rows.
func Spawn(cfg Config) (PTY, error) {
	if cfg.Command == "" {
		cfg.Command = defaultShell()
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}

	cmd := buildCmd(cfg)
	procutil.HideWindow(cmd)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cfg.Cols),
		Rows: uint16(cfg.Rows),
	})
	if err != nil {
		return nil, err
	}
	return &unixPTY{cmd: cmd, ptmx: ptmx}, nil
}

func (u *unixPTY) Read(p []byte) (int, error)  { return u.ptmx.Read(p) }
func (u *unixPTY) Write(p []byte) (int, error) { return u.ptmx.Write(p) }

// SetReadDeadline bounds the next Read; ptmx is a regular *os.File wrapping
// the PTY master fd, which supports I/O deadlines like any other pollable
// file on unix (spec.md §4.5).
func (u *unixPTY) SetReadDeadline(t time.Time) error {
	return u.ptmx.SetReadDeadline(t)
}

func (u *unixPTY) Resize(cols, rows int) error {
	return pty.Setsize(u.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

func (u *unixPTY) Pid() int {
	if u.cmd == nil || u.cmd.Process == nil {
		return 0
	}
	return u.cmd.Process.Pid
}

func (u *unixPTY) Close() error {
	err := u.ptmx.Close()
	if u.cmd != nil && u.cmd.Process != nil {
		_ = u.cmd.Process.Kill()
	}
	return err
}
