// Command wtmux is the terminal client: it dials wtmuxd's transport,
// interprets raw stdin through internal/input's prefix-key state machine,
// and streams internal/protocol Output frames back to the real terminal
// (spec.md §1, §4.9, §6). Grounded on the teacher's cmd/tmux-shim/main.go
// for its args[0]-names-a-verb dispatch shape (new-session/attach/etc.
// instead of the shim's tmux(1) verbs), and on the pack's
// term.GetSize/MakeRaw/Restore raw-mode idiom (seen throughout the
// other_examples terminal-client sources) for putting the controlling
// terminal into raw mode around the attached session.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"wtmux/internal/config"
	"wtmux/internal/input"
	"wtmux/internal/protocol"
	"wtmux/internal/transport"
)

func main() {
	args := os.Args[1:]
	verb := "new-session"
	rest := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		verb = args[0]
		rest = args[1:]
	}

	addr := transport.DefaultAddress()

	var err error
	switch verb {
	case "list-sessions", "ls":
		err = runListSessions(addr)
	case "kill-session":
		target, _ := flagValue(rest, "-t")
		err = runKillSession(addr, target)
	case "kill-server":
		err = runKillServer(addr)
	case "start-server":
		err = runStartServer(addr)
	case "new-session", "new":
		name, _ := flagValue(rest, "-s")
		cmd, _ := flagValue(rest, "-c")
		err = runAttachLoop(addr, protocol.ClientMessage{Type: protocol.NewSession, Name: name, Command: cmd})
	case "attach", "a":
		target, _ := flagValue(rest, "-t")
		err = runAttachLoop(addr, protocol.ClientMessage{Type: protocol.Attach, Target: target})
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "wtmux:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: wtmux [new-session|new [-s name] [-c cmd] | attach|a [-t target] |
              list-sessions|ls | kill-session -t name | kill-server | start-server]`)
}

func flagValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func runListSessions(addr string) error {
	conn, err := transport.Dial(addr)
	if err != nil {
		return fmt.Errorf("no server running on %s: %w", addr, err)
	}
	defer conn.Close()

	reply, err := roundTrip(conn, protocol.ClientMessage{Type: protocol.ListSessions})
	if err != nil {
		return err
	}
	if reply.Type == protocol.Error {
		return fmt.Errorf("%s", reply.Text)
	}
	for _, s := range reply.Sessions {
		fmt.Printf("%s: %d windows, %d panes (created %s) [%d attached]\n",
			s.Name, s.WindowCount, s.PaneCount, s.CreatedAt.Format("Mon Jan 2 15:04:05 2006"), s.AttachedClients)
	}
	return nil
}

func runKillSession(addr, target string) error {
	if target == "" {
		return fmt.Errorf("kill-session requires -t name")
	}
	conn, err := transport.Dial(addr)
	if err != nil {
		return fmt.Errorf("no server running on %s: %w", addr, err)
	}
	defer conn.Close()
	reply, err := roundTrip(conn, protocol.ClientMessage{Type: protocol.KillSession, Target: target})
	if err != nil {
		return err
	}
	if reply.Type == protocol.Error {
		return fmt.Errorf("%s", reply.Text)
	}
	return nil
}

func runKillServer(addr string) error {
	conn, err := transport.Dial(addr)
	if err != nil {
		return fmt.Errorf("no server running on %s: %w", addr, err)
	}
	defer conn.Close()
	_, err = roundTrip(conn, protocol.ClientMessage{Type: protocol.Command, Command: "kill-server"})
	return err
}

// runStartServer launches wtmuxd as a detached background process, the same
// role tmux's "start-server" plays: prepare a server without attaching to
// it. If one is already listening at addr, this is a no-op.
func runStartServer(addr string) error {
	if conn, err := transport.Dial(addr); err == nil {
		conn.Close()
		return nil
	}
	exe, err := resolveDaemonPath()
	if err != nil {
		return err
	}
	proc, err := spawnDetached(exe, []string{"-addr", addr})
	if err != nil {
		return fmt.Errorf("start wtmuxd: %w", err)
	}
	fmt.Printf("wtmuxd started, pid %d\n", proc)
	return nil
}

func roundTrip(conn io.ReadWriter, msg protocol.ClientMessage) (protocol.ServerMessage, error) {
	payload, err := protocol.EncodeClientMessage(msg)
	if err != nil {
		return protocol.ServerMessage{}, err
	}
	if err := transport.WriteFrame(conn, payload); err != nil {
		return protocol.ServerMessage{}, err
	}
	reply, err := transport.ReadFrame(conn)
	if err != nil {
		return protocol.ServerMessage{}, err
	}
	return protocol.DecodeServerMessage(reply)
}

// runAttachLoop dials addr, sends initial (cols,rows) and the attach/create
// request, then relays between the real terminal (in raw mode) and the
// server until Detached or Shutdown arrives (spec.md §4.9).
func runAttachLoop(addr string, initial protocol.ClientMessage) error {
	conn, err := transport.Dial(addr)
	if err != nil {
		return fmt.Errorf("no server running on %s: %w", addr, err)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		cols, rows = 80, 24
	}

	if _, err := roundTrip(conn, protocol.ClientMessage{Type: protocol.Resize, Cols: cols, Rows: rows}); err != nil {
		return err
	}
	initial.Cols, initial.Rows = cols, rows
	reply, err := roundTrip(conn, initial)
	if err != nil {
		return err
	}
	if reply.Type == protocol.Error {
		return fmt.Errorf("%s", reply.Text)
	}

	cfg := loadClientConfig()
	interp := input.New(cfg)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			payload, err := transport.ReadFrame(conn)
			if err != nil {
				return
			}
			msg, err := protocol.DecodeServerMessage(payload)
			if err != nil {
				continue
			}
			switch msg.Type {
			case protocol.Output:
				os.Stdout.Write(msg.Bytes)
			case protocol.Notification:
				if msg.Text != "" {
					fmt.Fprintf(os.Stdout, "\r\n%s\r\n", msg.Text)
				}
			case protocol.Error:
				fmt.Fprintf(os.Stderr, "\r\nwtmux: %s\r\n", msg.Text)
			case protocol.Detached, protocol.Shutdown:
				return
			}
		}
	}()

	in := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return nil
		default:
		}
		key, err := decodeKey(in)
		if err != nil {
			return nil
		}
		action := interp.Handle(key)
		switch action.Kind {
		case input.ActionInput:
			if _, err := roundTrip(conn, protocol.ClientMessage{Type: protocol.Input, Bytes: action.Bytes}); err != nil {
				return nil
			}
		case input.ActionCommand:
			if action.Command == "" {
				continue
			}
			if _, err := roundTrip(conn, protocol.ClientMessage{Type: protocol.Command, Command: action.Command}); err != nil {
				return nil
			}
		case input.ActionDetach:
			roundTrip(conn, protocol.ClientMessage{Type: protocol.Detach})
			return nil
		case input.ActionRedraw:
			fmt.Fprintf(os.Stdout, "\r\n%s", action.Prompt)
		}
	}
}

func loadClientConfig() *config.Config {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultConfig()
	}
	path := home + "/.wtmux.conf"
	if cfg, err := config.Load(path); err == nil {
		return cfg
	}
	return config.DefaultConfig()
}

// decodeKey reads one key chord off the terminal's raw byte stream: ESC
// sequences and SS3 sequences for named keys, C0 controls as Ctrl+letter,
// everything else as a literal (possibly multi-byte) rune (spec.md §4.9).
func decodeKey(r *bufio.Reader) (config.Key, error) {
	b, err := r.ReadByte()
	if err != nil {
		return config.Key{}, err
	}
	switch b {
	case 0x1b:
		return decodeEscape(r)
	case '\r':
		return config.Key{Name: "Enter"}, nil
	case '\t':
		return config.Key{Name: "Tab"}, nil
	case 0x7f:
		return config.Key{Name: "BSpace"}, nil
	}
	if b < 0x20 {
		return config.Key{Ctrl: true, Name: string(rune('a' + b - 1))}, nil
	}
	if b < 0x80 {
		return config.Key{Name: string(rune(b))}, nil
	}
	return decodeUTF8Rune(r, b)
}

func decodeUTF8Rune(r *bufio.Reader, first byte) (config.Key, error) {
	n := utf8ExtraBytes(first)
	buf := []byte{first}
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, b)
	}
	ru, _ := utf8.DecodeRune(buf)
	return config.Key{Name: string(ru)}, nil
}

func utf8ExtraBytes(first byte) int {
	switch {
	case first&0xe0 == 0xc0:
		return 1
	case first&0xf0 == 0xe0:
		return 2
	case first&0xf8 == 0xf0:
		return 3
	default:
		return 0
	}
}

var escSequences = map[string]string{
	"[A": "Up", "[B": "Down", "[C": "Right", "[D": "Left",
	"[H": "Home", "[F": "End",
	"[2~": "Insert", "[3~": "Delete",
	"[5~": "PageUp", "[6~": "PageDown",
	"OP": "F1", "OQ": "F2", "OR": "F3", "OS": "F4",
	"[15~": "F5", "[17~": "F6", "[18~": "F7", "[19~": "F8",
	"[20~": "F9", "[21~": "F10", "[23~": "F11", "[24~": "F12",
}

// decodeEscape handles the byte right after 0x1b: a recognized CSI/SS3
// sequence, a bare Escape, or Alt+<key> (spec.md §4.9's reverse mapping of
// input/keyencode.go's namedSequences table).
func decodeEscape(r *bufio.Reader) (config.Key, error) {
	peeked, err := r.Peek(1)
	if err != nil || (peeked[0] != '[' && peeked[0] != 'O') {
		if err != nil {
			return config.Key{Name: "Escape"}, nil
		}
		b, _ := r.ReadByte()
		return config.Key{Alt: true, Name: string(rune(b))}, nil
	}

	var raw []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			break
		}
		raw = append(raw, b)
		if len(raw) > 1 && (b == '~' || (b >= 'A' && b <= 'Z')) {
			break
		}
		if len(raw) > 8 {
			break
		}
	}
	if name, ok := escSequences[string(raw)]; ok {
		return config.Key{Name: name}, nil
	}
	return config.Key{Name: "Escape"}, nil
}

func resolveDaemonPath() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := self[:strings.LastIndexByte(self, os.PathSeparator)+1]
	candidate := dir + "wtmuxd"
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("wtmuxd binary not found next to %s", self)
}

// spawnDetached starts exe as a background process, stdio detached from
// this one, and returns its pid without waiting for it to exit.
func spawnDetached(exe string, args []string) (int, error) {
	cmd := exec.Command(exe, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}
