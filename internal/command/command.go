// Package command implements the command executor of spec.md §4.6: it
// parses a whitespace-split command string against its first token and
// mutates a mux.ServerState accordingly. Grounded on the teacher's
// internal/tmux.CommandRouter (handler-map dispatch keyed by command name,
// mutator errors translated to a response rather than propagated to the
// transport) but restructured: the teacher's handlers return an
// ipc.TmuxResponse built for a request/reply shim, while this executor
// returns an Outcome that the server layer folds into the
// Client→Server/Server→Client protocol of spec.md §6 (replies, sentinels
// for detach-client/copy-mode/paste-buffer/command-prompt, and the
// Notification/Error text for display-message and unknown commands).
package command

import (
	"fmt"
	"strconv"
	"strings"

	"wtmux/internal/config"
	"wtmux/internal/ids"
	"wtmux/internal/layout"
	"wtmux/internal/mux"
	"wtmux/internal/pty"
	"wtmux/internal/wtmuxerr"
)

// Sentinel names returned in Outcome.Sentinel for commands the executor
// does not fully resolve itself (spec.md §4.6, §4.9).
const (
	SentinelDetachClient   = "detach-client"
	SentinelCopyMode       = "copy-mode"
	SentinelPasteBuffer    = "paste-buffer"
	SentinelCommandPrompt  = "command-prompt"
	SentinelClockMode      = "clock-mode"
	SentinelShutdownServer = "shutdown-server"
)

// Outcome is the result of executing one command line.
type Outcome struct {
	// Sentinel is non-empty when the command is a pass-through marker the
	// caller (server/input-interpreter) must act on itself.
	Sentinel string
	// Notification, when non-empty, is returned to the client as a
	// display-message/list-keys result.
	Notification string
}

// Execute parses line and applies it to state on behalf of client (spec.md
// §4.6). Caller must hold state's exclusive mutex.
func Execute(state *mux.ServerState, client *mux.ClientRegistration, line string) (Outcome, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "empty command")
	}
	name, args := tokens[0], tokens[1:]

	switch name {
	case "split-window":
		return splitWindow(state, client, args)
	case "new-window":
		return newWindow(state, client, args)
	case "select-window":
		return selectWindow(state, client, args)
	case "next-window":
		return withSession(state, client, func(s *mux.Session) (Outcome, error) {
			s.NextWindow()
			return Outcome{}, nil
		})
	case "previous-window":
		return withSession(state, client, func(s *mux.Session) (Outcome, error) {
			s.PrevWindow()
			return Outcome{}, nil
		})
	case "last-window":
		return withSession(state, client, func(s *mux.Session) (Outcome, error) {
			s.SelectLastWindow()
			return Outcome{}, nil
		})
	case "select-pane":
		return selectPane(state, client, args)
	case "resize-pane":
		return resizePane(state, client, args)
	case "kill-pane":
		return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
			w.ClosePane(w.ActivePane)
			return Outcome{}, nil
		})
	case "kill-window":
		return killWindow(state, client)
	case "kill-session":
		return killSession(state, client, args)
	case "rename-window":
		return renameWindow(state, client, args)
	case "rename-session":
		return renameSession(state, client, args)
	case "detach-client":
		return Outcome{Sentinel: SentinelDetachClient}, nil
	case "copy-mode":
		return Outcome{Sentinel: SentinelCopyMode}, nil
	case "paste-buffer":
		return Outcome{Sentinel: SentinelPasteBuffer}, nil
	case "command-prompt":
		return Outcome{Sentinel: SentinelCommandPrompt}, nil
	case "clock-mode":
		return Outcome{Sentinel: SentinelClockMode}, nil
	case "kill-server":
		return Outcome{Sentinel: SentinelShutdownServer}, nil
	case "list-keys":
		return Outcome{Notification: listKeys(state.Config)}, nil
	case "next-layout":
		return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
			w.NextLayout()
			return Outcome{}, nil
		})
	case "swap-pane":
		return swapPane(state, client, args)
	case "source-file", "source":
		return sourceFile(state, args)
	case "set-option", "set":
		return setOption(state, args)
	case "display-message":
		return Outcome{Notification: strings.Join(args, " ")}, nil
	default:
		return Outcome{}, wtmuxerr.New(wtmuxerr.Other, fmt.Sprintf("unknown command: %s", name))
	}
}

func withSession(state *mux.ServerState, client *mux.ClientRegistration, fn func(*mux.Session) (Outcome, error)) (Outcome, error) {
	if !client.HasSessionID {
		return Outcome{}, wtmuxerr.New(wtmuxerr.SessionNotFound, "client is not attached to a session")
	}
	sess, ok := state.Sessions[client.SessionID]
	if !ok {
		return Outcome{}, wtmuxerr.New(wtmuxerr.SessionNotFound, string(client.SessionID))
	}
	return fn(sess)
}

func withWindow(state *mux.ServerState, client *mux.ClientRegistration, fn func(*mux.Window) (Outcome, error)) (Outcome, error) {
	return withSession(state, client, func(s *mux.Session) (Outcome, error) {
		w := s.ActiveWindow()
		if w == nil {
			return Outcome{}, wtmuxerr.New(wtmuxerr.WindowNotFound, "session has no windows")
		}
		return fn(w)
	})
}

func paneConfig(state *mux.ServerState) pty.Config {
	return pty.Config{
		Command: state.Config.Options.DefaultShell,
		Cols:    80,
		Rows:    24,
	}
}

func splitWindow(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	horizontal := hasFlag(args, "-h")
	return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
		if _, err := w.SplitPane(paneConfig(state), horizontal); err != nil {
			return Outcome{}, wtmuxerr.Wrap(wtmuxerr.PtySpawn, "split-window", err)
		}
		return Outcome{}, nil
	})
}

func newWindow(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	name, _ := flagValue(args, "-n")
	return withSession(state, client, func(s *mux.Session) (Outcome, error) {
		area := layout.Rect{X: 0, Y: 0, W: client.Cols, H: client.Rows - 1}
		if area.H < 1 {
			area.H = 1
		}
		w, err := s.NewWindow(paneConfig(state), area)
		if err != nil {
			return Outcome{}, wtmuxerr.Wrap(wtmuxerr.PtySpawn, "new-window", err)
		}
		if name != "" {
			w.Name = name
		}
		return Outcome{}, nil
	})
}

func selectWindow(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	target, ok := flagValue(args, "-t")
	if !ok {
		return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "select-window requires -t N")
	}
	n, err := strconv.Atoi(target)
	if err != nil {
		return Outcome{}, wtmuxerr.Wrap(wtmuxerr.Other, "select-window: bad index", err)
	}
	return withSession(state, client, func(s *mux.Session) (Outcome, error) {
		if !s.SelectWindow(n) {
			return Outcome{}, wtmuxerr.New(wtmuxerr.WindowNotFound, target)
		}
		return Outcome{}, nil
	})
}

func selectPane(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
		switch {
		case hasFlag(args, "-U"):
			w.SelectPaneDirection(layout.Up)
		case hasFlag(args, "-D"):
			w.SelectPaneDirection(layout.Down)
		case hasFlag(args, "-L"):
			w.SelectPaneDirection(layout.Left)
		case hasFlag(args, "-R"):
			w.SelectPaneDirection(layout.Right)
		case hasFlag(args, "-t"):
			selectNextInTreeOrder(w)
		default:
			return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "select-pane requires -U/-D/-L/-R or -t")
		}
		return Outcome{}, nil
	})
}

// selectNextInTreeOrder implements "-t :.+": advance to the next pane in
// the layout tree's pre-order (spec.md §4.6).
func selectNextInTreeOrder(w *mux.Window) {
	order := w.Layout.PaneIDs()
	if len(order) == 0 {
		return
	}
	for i, id := range order {
		if id == w.ActivePane {
			w.LastActivePane = w.ActivePane
			w.ActivePane = order[(i+1)%len(order)]
			return
		}
	}
	w.ActivePane = order[0]
}

func resizePane(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
		if hasFlag(args, "-Z") {
			w.ToggleZoom()
			return Outcome{}, nil
		}
		var dir layout.Direction
		switch {
		case hasFlag(args, "-U"):
			dir = layout.Up
		case hasFlag(args, "-D"):
			dir = layout.Down
		case hasFlag(args, "-L"):
			dir = layout.Left
		case hasFlag(args, "-R"):
			dir = layout.Right
		default:
			return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "resize-pane requires -U/-D/-L/-R N or -Z")
		}
		amount := 1
		for _, a := range args {
			if n, err := strconv.Atoi(a); err == nil {
				amount = n
			}
		}
		w.ResizePaneDirection(dir, amount)
		return Outcome{}, nil
	})
}

func killWindow(state *mux.ServerState, client *mux.ClientRegistration) (Outcome, error) {
	return withSession(state, client, func(s *mux.Session) (Outcome, error) {
		w := s.ActiveWindow()
		if w == nil {
			return Outcome{}, wtmuxerr.New(wtmuxerr.WindowNotFound, "session has no windows")
		}
		s.CloseWindow(w.ID, state.Config.Options.RenumberWindows)
		return Outcome{}, nil
	})
}

func killSession(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	target, ok := flagValue(args, "-t")
	if !ok {
		return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "kill-session requires -t name")
	}
	id, ok := findSessionByName(state, target)
	if !ok {
		return Outcome{}, wtmuxerr.New(wtmuxerr.SessionNotFound, target)
	}
	state.CloseSessionForcingDetach(id)
	return Outcome{}, nil
}

func findSessionByName(state *mux.ServerState, name string) (ids.SessionID, bool) {
	for id, s := range state.Sessions {
		if s.Name == name {
			return id, true
		}
	}
	return "", false
}

func renameWindow(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	if len(args) < 1 {
		return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "rename-window requires a name")
	}
	name := strings.Join(args, " ")
	return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
		w.Name = name
		return Outcome{}, nil
	})
}

func renameSession(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	if len(args) < 1 {
		return Outcome{}, wtmuxerr.New(wtmuxerr.Other, "rename-session requires a name")
	}
	name := strings.Join(args, " ")
	return withSession(state, client, func(s *mux.Session) (Outcome, error) {
		s.Name = name
		return Outcome{}, nil
	})
}

func swapPane(state *mux.ServerState, client *mux.ClientRegistration, args []string) (Outcome, error) {
	return withWindow(state, client, func(w *mux.Window) (Outcome, error) {
		order := w.Layout.PaneIDs()
		if len(order) < 2 {
			return Outcome{}, nil
		}
		idx := -1
		for i, id := range order {
			if id == w.ActivePane {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Outcome{}, nil
		}
		var other ids.PaneID
		if hasFlag(args, "-U") {
			other = order[(idx-1+len(order))%len(order)]
		} else {
			other = order[(idx+1)%len(order)]
		}
		w.SwapPanes(w.ActivePane, other)
		return Outcome{}, nil
	})
}

func sourceFile(state *mux.ServerState, args []string) (Outcome, error) {
	if len(args) < 1 {
		return Outcome{}, wtmuxerr.New(wtmuxerr.ConfigSyntax, "source-file requires a path")
	}
	if err := config.SourceFile(state.Config, args[0]); err != nil {
		return Outcome{}, wtmuxerr.Wrap(wtmuxerr.ConfigSyntax, "source-file", err)
	}
	return Outcome{}, nil
}

func setOption(state *mux.ServerState, args []string) (Outcome, error) {
	args = dropFlag(args, "-g")
	if len(args) < 2 {
		return Outcome{}, wtmuxerr.New(wtmuxerr.ConfigSyntax, "set-option requires NAME VALUE")
	}
	if err := config.SetOption(state.Config, args[0], strings.Join(args[1:], " ")); err != nil {
		return Outcome{}, wtmuxerr.Wrap(wtmuxerr.ConfigSyntax, "set-option", err)
	}
	return Outcome{}, nil
}

func listKeys(cfg *config.Config) string {
	var b strings.Builder
	for k, v := range cfg.Bindings {
		fmt.Fprintf(&b, "bind-key %s %s\n", k, v)
	}
	for k, v := range cfg.Unbound {
		fmt.Fprintf(&b, "bind-key -n %s %s\n", k, v)
	}
	return b.String()
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func flagValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func dropFlag(args []string, flag string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == flag {
			continue
		}
		out = append(out, a)
	}
	return out
}
