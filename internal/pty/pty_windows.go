//go:build windows

package pty

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ErrConPTYUnsupported indicates the running Windows build predates the
// pseudo console API (introduced in Windows 10 1809).
var ErrConPTYUnsupported = errors.New("pty: ConPTY is not available on this version of Windows")

const (
	defaultConPTYCols = 80
	defaultConPTYRows = 24
	maxConPTYDim      = 32767
	gracePeriodMS     = 500
)

// conPTY is a Windows pseudo console backing one pane, grounded on the
// teacher's internal/terminal.ConPty.
type conPTY struct {
	mu    sync.RWMutex
	h     hpcon
	pi    *windows.ProcessInformation
	stdin *pipeHandle
	stdout *pipeHandle

	closeOnce sync.Once
	closeErr  error
}

// pipeHandle is a Windows pipe handle used for ConPTY I/O; Close
// invalidates it so concurrent Read/Write see a clean error instead of a
// stale handle.
//
// Anonymous pipes created by windows.CreatePipe cannot be opened with
// FILE_FLAG_OVERLAPPED, so ReadFile on them always blocks until data
// arrives; there is no per-call deadline primitive to ask the kernel for
// the way creack/pty's ptmx *os.File supports on unix. SetReadDeadline is
// instead emulated with a single background goroutine, started once and
// kept for the handle's lifetime, that pumps completed reads into readCh;
// Read services callers (with or without a deadline) from that channel.
// Because the goroutine is bounded to one per pipeHandle for its entire
// lifetime rather than spawned anew on every poll, it does not reproduce
// the unbounded-goroutine growth a per-call reader would cause, and it
// never touches Terminal State itself -- only the mutex-holding caller of
// Read does that -- so it is not a second writer in the sense spec.md
// §4.5/§9 rule out.
type pipeHandle struct {
	mu       sync.Mutex
	handle   windows.Handle
	deadline time.Time

	readOnce sync.Once
	readCh   chan pipeReadResult
}

type pipeReadResult struct {
	buf []byte
	err error
}

// errTimeout reports Timeout() == true so mux.Pane.Drain can tell an
// expired deadline apart from a real read error (spec.md §4.5).
type errTimeout struct{}

func (errTimeout) Error() string { return "pty: read timeout" }
func (errTimeout) Timeout() bool { return true }

func (p *pipeHandle) startReader() {
	p.readOnce.Do(func() {
		p.readCh = make(chan pipeReadResult, 1)
		go func() {
			for {
				p.mu.Lock()
				h := p.handle
				p.mu.Unlock()
				if h == 0 || h == windows.InvalidHandle {
					p.readCh <- pipeReadResult{err: ErrClosed}
					return
				}
				buf := make([]byte, 4096)
				var n uint32
				err := windows.ReadFile(h, buf, &n, nil)
				p.readCh <- pipeReadResult{buf: buf[:n], err: err}
				if err != nil {
					return
				}
			}
		}()
	})
}

func (p *pipeHandle) Read(b []byte) (int, error) {
	p.mu.Lock()
	h := p.handle
	deadline := p.deadline
	p.mu.Unlock()
	if h == 0 || h == windows.InvalidHandle {
		return 0, ErrClosed
	}
	p.startReader()

	var timeoutCh <-chan time.Time
	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, errTimeout{}
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r, ok := <-p.readCh:
		if !ok {
			return 0, ErrClosed
		}
		return copy(b, r.buf), r.err
	case <-timeoutCh:
		return 0, errTimeout{}
	}
}

// SetReadDeadline sets the absolute time by which the next Read must
// complete; a zero Time clears it so Read blocks indefinitely again.
func (p *pipeHandle) SetReadDeadline(t time.Time) error {
	p.mu.Lock()
	p.deadline = t
	p.mu.Unlock()
	return nil
}

func (p *pipeHandle) Write(b []byte) (int, error) {
	p.mu.Lock()
	h := p.handle
	p.mu.Unlock()
	if h == 0 || h == windows.InvalidHandle {
		return 0, ErrClosed
	}
	var n uint32
	err := windows.WriteFile(h, b, &n, nil)
	return int(n), err
}

func (p *pipeHandle) Close() error {
	p.mu.Lock()
	h := p.handle
	p.handle = windows.InvalidHandle
	p.mu.Unlock()
	if h == 0 || h == windows.InvalidHandle {
		return nil
	}
	return windows.CloseHandle(h)
}

// Spawn starts cfg.Command attached to a fresh Windows pseudo console.
func Spawn(cfg Config) (PTY, error) {
	if !conPTYAvailable() {
		return nil, ErrConPTYUnsupported
	}
	if cfg.Command == "" {
		cfg.Command = "cmd.exe"
	}
	cols, rows := cfg.Cols, cfg.Rows
	if cols <= 0 {
		cols = defaultConPTYCols
	}
	if rows <= 0 {
		rows = defaultConPTYRows
	}
	if cols > maxConPTYDim || rows > maxConPTYDim {
		return nil, fmt.Errorf("pty: dimensions must be <= %d: cols=%d rows=%d", maxConPTYDim, cols, rows)
	}

	ptyIn, cmdIn, cmdOut, ptyOut, err := createPipePair()
	if err != nil {
		return nil, err
	}

	size := &coord{X: int16(cols), Y: int16(rows)}
	h, err := createPseudoConsole(size, ptyIn, ptyOut)
	closeHandles(ptyIn, ptyOut)
	if err != nil {
		closeHandles(cmdIn, cmdOut)
		return nil, err
	}

	commandLine := quoteCommandLine(cfg.Command, cfg.Args)
	pi, err := startConPTYProcess(commandLine, cfg.Dir, cfg.Env, h)
	if err != nil {
		closePseudoConsole(h)
		closeHandles(cmdIn, cmdOut)
		return nil, err
	}

	return &conPTY{
		h:      h,
		pi:     pi,
		stdin:  &pipeHandle{handle: cmdIn},
		stdout: &pipeHandle{handle: cmdOut},
	}, nil
}

func createPipePair() (ptyIn, cmdIn, cmdOut, ptyOut windows.Handle, err error) {
	if err = windows.CreatePipe(&ptyIn, &cmdIn, nil, 0); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("pty: create input pipe: %w", err)
	}
	if err = windows.CreatePipe(&cmdOut, &ptyOut, nil, 0); err != nil {
		closeHandles(ptyIn, cmdIn)
		return 0, 0, 0, 0, fmt.Errorf("pty: create output pipe: %w", err)
	}
	return
}

func closeHandles(handles ...windows.Handle) {
	for _, h := range handles {
		if h != 0 && h != windows.InvalidHandle {
			windows.CloseHandle(h)
		}
	}
}

func quoteCommandLine(command string, args []string) string {
	parts := append([]string{command}, args...)
	return strings.Join(parts, " ")
}

func startConPTYProcess(commandLine, dir string, env []string, h hpcon) (*windows.ProcessInformation, error) {
	cmdLinePtr, err := windows.UTF16PtrFromString(commandLine)
	if err != nil {
		return nil, err
	}
	var dirPtr *uint16
	if dir != "" {
		dirPtr, err = windows.UTF16PtrFromString(dir)
		if err != nil {
			return nil, err
		}
	}

	// STARTUPINFOEXW is STARTUPINFOW followed by a proc-thread-attribute-list
	// pointer; Cb must cover both so CreateProcess reads past the nominal
	// StartupInfo fields when EXTENDED_STARTUPINFO_PRESENT is set.
	var si struct {
		startupInfo   windows.StartupInfo
		attributeList uintptr
	}
	si.startupInfo.Cb = uint32(unsafe.Sizeof(si))
	si.startupInfo.Flags |= windows.STARTF_USESTDHANDLES

	attrList, err := initializeProcThreadAttrList()
	if err != nil {
		return nil, fmt.Errorf("pty: build startup info: %w", err)
	}
	defer deleteProcThreadAttrList(attrList)
	if err := updateProcThreadAttrWithPseudoConsole(attrList, h); err != nil {
		return nil, err
	}
	si.attributeList = uintptr(unsafe.Pointer(&attrList[0]))

	var pi windows.ProcessInformation
	envBlock := buildEnvBlock(env)
	flags := uint32(windows.EXTENDED_STARTUPINFO_PRESENT)
	if envBlock != nil {
		flags |= windows.CREATE_UNICODE_ENVIRONMENT
	}

	err = windows.CreateProcess(nil, cmdLinePtr, nil, nil, false, flags, envBlock, dirPtr, &si.startupInfo, &pi)
	runtime.KeepAlive(envBlock)
	runtime.KeepAlive(attrList)
	if err != nil {
		return nil, fmt.Errorf("pty: CreateProcess failed: %w", err)
	}
	return &pi, nil
}

func (c *conPTY) Read(p []byte) (int, error) {
	c.mu.RLock()
	r := c.stdout
	c.mu.RUnlock()
	if r == nil {
		return 0, ErrClosed
	}
	return r.Read(p)
}

func (c *conPTY) Write(p []byte) (int, error) {
	c.mu.RLock()
	w := c.stdin
	c.mu.RUnlock()
	if w == nil {
		return 0, ErrClosed
	}
	return w.Write(p)
}

// SetReadDeadline bounds the next Read (spec.md §4.5).
func (c *conPTY) SetReadDeadline(t time.Time) error {
	c.mu.RLock()
	r := c.stdout
	c.mu.RUnlock()
	if r == nil {
		return ErrClosed
	}
	return r.SetReadDeadline(t)
}

func (c *conPTY) Resize(cols, rows int) error {
	if cols <= 0 || cols > maxConPTYDim || rows <= 0 || rows > maxConPTYDim {
		return fmt.Errorf("pty: dimensions must be between 1 and %d", maxConPTYDim)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.h == 0 {
		return ErrClosed
	}
	return resizePseudoConsole(c.h, &coord{X: int16(cols), Y: int16(rows)})
}

func (c *conPTY) Pid() int {
	c.mu.RLock()
	pi := c.pi
	c.mu.RUnlock()
	if pi == nil {
		return 0
	}
	return int(pi.ProcessId)
}

func (c *conPTY) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.doClose()
	})
	return c.closeErr
}

func (c *conPTY) doClose() error {
	c.mu.Lock()
	h := c.h
	pi := c.pi
	stdin, stdout := c.stdin, c.stdout
	c.h, c.pi, c.stdin, c.stdout = 0, nil, nil, nil
	c.mu.Unlock()

	if h != 0 {
		closePseudoConsole(h)
	}

	var firstErr error
	if pi != nil {
		ret, waitErr := windows.WaitForSingleObject(pi.Process, gracePeriodMS)
		if waitErr != nil && firstErr == nil {
			firstErr = waitErr
		}
		if ret != windows.WAIT_OBJECT_0 {
			if termErr := windows.TerminateProcess(pi.Process, 0); termErr != nil && firstErr == nil {
				firstErr = termErr
			}
		}
		closeHandles(pi.Process, pi.Thread)
	}
	for _, p := range []*pipeHandle{stdin, stdout} {
		if p != nil {
			if err := p.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
