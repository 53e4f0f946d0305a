package server

import (
	"time"

	"wtmux/internal/command"
	"wtmux/internal/copymode"
	"wtmux/internal/ids"
	"wtmux/internal/layout"
	"wtmux/internal/mux"
	"wtmux/internal/protocol"
	"wtmux/internal/pty"
	"wtmux/internal/render"
)

// handlerContext carries the state one dispatch call needs; it exists only
// to keep per-message-type methods short, mirroring the teacher's
// CommandRouter handler-map shape in internal/tmux (spec.md §4.6 grounds the
// command cases below; this file is the protocol-level counterpart that the
// teacher has no equivalent of, since its control channel never grew past a
// handful of subscribe/unsubscribe verbs).
type handlerContext struct {
	s      *Server
	state  *mux.ServerState
	client *mux.ClientRegistration
}

func (h handlerContext) handle(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	switch msg.Type {
	case protocol.NewSession:
		return h.newSession(msg)
	case protocol.Attach:
		return h.attach(msg)
	case protocol.Detach:
		return protocol.ServerMessage{Type: protocol.Detached}, true, nil
	case protocol.Input:
		return h.input(msg)
	case protocol.Resize:
		return h.resize(msg)
	case protocol.SplitPane:
		return h.mutateActive(func(w *mux.Window) error {
			_, err := w.SplitPane(h.paneConfig(), msg.Horizontal)
			return err
		})
	case protocol.SelectPane:
		return h.mutateActive(func(w *mux.Window) error {
			if dir, ok := toLayoutDirection(msg.Direction); ok {
				w.SelectPaneDirection(dir)
			}
			return nil
		})
	case protocol.ResizePane:
		return h.mutateActive(func(w *mux.Window) error {
			if dir, ok := toLayoutDirection(msg.Direction); ok {
				w.ResizePaneDirection(dir, msg.Amount)
			}
			return nil
		})
	case protocol.ZoomPane:
		return h.mutateActive(func(w *mux.Window) error {
			w.ToggleZoom()
			return nil
		})
	case protocol.NewWindow:
		return h.newWindow(msg)
	case protocol.ClosePane:
		return h.closePane()
	case protocol.SelectWindow:
		return h.mutateSession(func(sess *mux.Session) error {
			sess.SelectWindow(msg.Index)
			return nil
		})
	case protocol.NextWindow:
		return h.mutateSession(func(sess *mux.Session) error { sess.NextWindow(); return nil })
	case protocol.PrevWindow:
		return h.mutateSession(func(sess *mux.Session) error { sess.PrevWindow(); return nil })
	case protocol.RenameWindow:
		return h.mutateActive(func(w *mux.Window) error { w.Name = msg.Name; return nil })
	case protocol.RenameSession:
		return h.mutateSession(func(sess *mux.Session) error { sess.Name = msg.Name; return nil })
	case protocol.ListSessions:
		return protocol.ServerMessage{Type: protocol.SessionList, Sessions: h.listSessions()}, false, nil
	case protocol.KillSession:
		return h.killSession(msg)
	case protocol.EnterCopyMode:
		return h.enterCopyMode()
	case protocol.CopyModeInput:
		return h.copyModeInput(msg)
	case protocol.Paste:
		return h.paste()
	case protocol.Command:
		return h.command(msg)
	case protocol.MouseEvent:
		return h.mouseEvent(msg)
	case protocol.Ping:
		return protocol.ServerMessage{Type: protocol.Pong}, false, nil
	default:
		return protocol.ServerMessage{Type: protocol.Error, Text: "unknown message type"}, false, nil
	}
}

func errMsg(err error) protocol.ServerMessage {
	return protocol.ServerMessage{Type: protocol.Error, Text: err.Error()}
}

func (h handlerContext) paneConfig() pty.Config {
	return pty.Config{Command: h.state.Config.Options.DefaultShell, Cols: h.client.Cols, Rows: h.client.Rows}
}

func (h handlerContext) session() (*mux.Session, bool) {
	if !h.client.HasSessionID {
		return nil, false
	}
	sess, ok := h.state.Sessions[h.client.SessionID]
	return sess, ok
}

// render composes the caller's attached session into one Output message,
// spec.md §4.5's default reply shape for any mutator that produces no
// message of its own.
func (h handlerContext) render() protocol.ServerMessage {
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}
	}
	bytes := render.Compose(sess, h.client, h.state.Config, time.Now())
	return protocol.ServerMessage{Type: protocol.Output, Bytes: bytes}
}

func (h handlerContext) mutateSession(fn func(*mux.Session) error) (protocol.ServerMessage, bool, []pushTarget) {
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	if err := fn(sess); err != nil {
		return errMsg(err), false, nil
	}
	return h.render(), false, nil
}

func (h handlerContext) mutateActive(fn func(*mux.Window) error) (protocol.ServerMessage, bool, []pushTarget) {
	return h.mutateSession(func(sess *mux.Session) error {
		w := sess.ActiveWindow()
		if w == nil {
			return emptySessionErr()
		}
		return fn(w)
	})
}

func emptySessionErr() error {
	return &noWindowsError{}
}

type noWindowsError struct{}

func (*noWindowsError) Error() string { return "session has no windows" }

func toLayoutDirection(d protocol.Direction) (layout.Direction, bool) {
	switch d {
	case protocol.DirUp:
		return layout.Up, true
	case protocol.DirDown:
		return layout.Down, true
	case protocol.DirLeft:
		return layout.Left, true
	case protocol.DirRight:
		return layout.Right, true
	default:
		return 0, false
	}
}

func (h handlerContext) newSession(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	cols, rows := h.client.Cols, h.client.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}
	name := msg.Name
	if name == "" {
		name = defaultSessionName(h.state)
	}
	sess := mux.NewSession(name)
	area := layout.Rect{X: 0, Y: 0, W: cols, H: rows - 1}
	if area.H < 1 {
		area.H = 1
	}
	cfg := pty.Config{Command: h.state.Config.Options.DefaultShell, Cols: cols, Rows: rows}
	if msg.Command != "" {
		cfg.Command = msg.Command
	}
	if _, err := sess.NewWindow(cfg, area); err != nil {
		return errMsg(err), false, nil
	}
	h.state.Sessions[sess.ID] = sess
	h.client.SessionID = sess.ID
	h.client.HasSessionID = true
	return protocol.ServerMessage{Type: protocol.SessionCreated, SessionID: string(sess.ID), Name: sess.Name}, false, nil
}

func defaultSessionName(state *mux.ServerState) string {
	n := len(state.Sessions)
	for {
		name := sessionNameAt(n)
		if _, taken := findSessionByTarget(state, name); !taken {
			return name
		}
		n++
	}
}

func sessionNameAt(n int) string {
	return "wtmux-" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func findSessionByTarget(state *mux.ServerState, target string) (ids.SessionID, bool) {
	if sess, ok := state.Sessions[ids.SessionID(target)]; ok {
		return sess.ID, true
	}
	for id, sess := range state.Sessions {
		if sess.Name == target {
			return id, true
		}
	}
	return "", false
}

func (h handlerContext) attach(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	id, ok := findSessionByTarget(h.state, msg.Target)
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "no such session: " + msg.Target}, false, nil
	}
	sess := h.state.Sessions[id]
	h.client.SessionID = id
	h.client.HasSessionID = true
	if h.client.Cols > 0 && h.client.Rows > 0 {
		sess.Resize(h.client.Cols, h.client.Rows)
	}
	return protocol.ServerMessage{Type: protocol.Attached, SessionID: string(id), Name: sess.Name}, false, nil
}

func (h handlerContext) input(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	w := sess.ActiveWindow()
	if w == nil {
		return errMsg(emptySessionErr()), false, nil
	}
	p, ok := w.Panes[w.ActivePane]
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "no active pane"}, false, nil
	}
	p.WriteInput(msg.Bytes)
	p.Drain()
	return h.render(), false, nil
}

func (h handlerContext) resize(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	h.client.Cols, h.client.Rows = msg.Cols, msg.Rows
	if sess, ok := h.session(); ok {
		sess.Resize(msg.Cols, msg.Rows)
	}
	return h.render(), false, nil
}

func (h handlerContext) newWindow(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	return h.mutateSession(func(sess *mux.Session) error {
		area := layout.Rect{X: 0, Y: 0, W: h.client.Cols, H: h.client.Rows - 1}
		if area.H < 1 {
			area.H = 1
		}
		cfg := h.paneConfig()
		if msg.Command != "" {
			cfg.Command = msg.Command
		}
		w, err := sess.NewWindow(cfg, area)
		if err != nil {
			return err
		}
		if msg.Name != "" {
			w.Name = msg.Name
		}
		return nil
	})
}

// closePane closes the caller's active pane, cascading into window and
// session teardown, and forcibly detaching every client left attached to a
// now-destroyed session (spec.md §3, §4.4).
func (h handlerContext) closePane() (protocol.ServerMessage, bool, []pushTarget) {
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	w := sess.ActiveWindow()
	if w == nil {
		return errMsg(emptySessionErr()), false, nil
	}
	windowEmpty := w.ClosePane(w.ActivePane)
	if !windowEmpty {
		return h.render(), false, nil
	}
	sessionEmpty := sess.CloseWindow(w.ID, h.state.Config.Options.RenumberWindows)
	if !sessionEmpty {
		return h.render(), false, nil
	}
	detachedIDs := h.state.CloseSessionForcingDetach(sess.ID)
	return h.pushDetach(detachedIDs)
}

// pushDetach turns a slice of forcibly-detached client ids into the reply
// for the caller (Detached, if the caller is among them) plus push targets
// for everyone else (spec.md §3 "clients on that session are forcibly
// detached").
func (h handlerContext) pushDetach(detachedIDs []ids.ClientID) (protocol.ServerMessage, bool, []pushTarget) {
	var pushes []pushTarget
	callerDetached := false
	for _, cid := range detachedIDs {
		if cid == h.client.ClientID {
			callerDetached = true
			continue
		}
		if cc, ok := h.s.clients[cid]; ok {
			pushes = append(pushes, pushTarget{conn: cc, msg: protocol.ServerMessage{Type: protocol.Detached}})
		}
	}
	if callerDetached {
		return protocol.ServerMessage{Type: protocol.Detached}, true, pushes
	}
	return protocol.ServerMessage{Type: protocol.Notification, Text: "session closed"}, false, pushes
}

func (h handlerContext) killSession(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	id, ok := findSessionByTarget(h.state, msg.Target)
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "no such session: " + msg.Target}, false, nil
	}
	detachedIDs := h.state.CloseSessionForcingDetach(id)
	return h.pushDetach(detachedIDs)
}

func (h handlerContext) listSessions() []protocol.SessionInfo {
	out := make([]protocol.SessionInfo, 0, len(h.state.Sessions))
	for _, sess := range h.state.Sessions {
		panes := 0
		for _, w := range sess.Windows {
			panes += len(w.Panes)
		}
		attached := 0
		for _, c := range h.state.Clients {
			if c.HasSessionID && c.SessionID == sess.ID {
				attached++
			}
		}
		out = append(out, protocol.SessionInfo{
			ID:              string(sess.ID),
			Name:            sess.Name,
			WindowCount:     len(sess.Windows),
			PaneCount:       panes,
			CreatedAt:       sess.CreatedAt,
			AttachedClients: attached,
		})
	}
	return out
}

func (h handlerContext) enterCopyMode() (protocol.ServerMessage, bool, []pushTarget) {
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	w := sess.ActiveWindow()
	if w == nil {
		return errMsg(emptySessionErr()), false, nil
	}
	p, ok := w.Panes[w.ActivePane]
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "no active pane"}, false, nil
	}
	h.client.CopyMode = &copymode.State{}
	h.client.CopyMode.Enter(p.Term.Cursor.Col, p.Term.Cursor.Row)
	return h.render(), false, nil
}

// copyModeInput dispatches one copy-mode action against the caller's
// overlay state and the active pane's grid (spec.md §4.8). Leaving copy
// mode via CopySelection pushes its result onto the paste buffer.
func (h handlerContext) copyModeInput(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	if h.client.CopyMode == nil || !h.client.CopyMode.Active {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not in copy mode"}, false, nil
	}
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	w := sess.ActiveWindow()
	if w == nil {
		return errMsg(emptySessionErr()), false, nil
	}
	p, ok := w.Panes[w.ActivePane]
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "no active pane"}, false, nil
	}
	cm := h.client.CopyMode
	g := p.Term.Grid
	switch msg.CopyAction.Kind {
	case protocol.CopyUp:
		cm.Move(0, -1, g.Cols, g.Rows)
	case protocol.CopyDown:
		cm.Move(0, 1, g.Cols, g.Rows)
	case protocol.CopyLeft:
		cm.Move(-1, 0, g.Cols, g.Rows)
	case protocol.CopyRight:
		cm.Move(1, 0, g.Cols, g.Rows)
	case protocol.CopyPageUp:
		cm.PageMove(g.Rows, false, false)
	case protocol.CopyPageDown:
		cm.PageMove(g.Rows, false, true)
	case protocol.CopyHalfPageUp:
		cm.PageMove(g.Rows, true, false)
	case protocol.CopyHalfPageDown:
		cm.PageMove(g.Rows, true, true)
	case protocol.CopyTop:
		cm.SnapTop()
	case protocol.CopyBottom:
		cm.SnapBottom(g.Rows)
	case protocol.CopyStartOfLine:
		cm.SnapStartOfLine()
	case protocol.CopyEndOfLine:
		cm.SnapEndOfLine(g.Cols)
	case protocol.CopyStartSelection:
		cm.StartSelection()
	case protocol.CopyCancelSelection:
		cm.CancelSelection()
	case protocol.CopyCopySelection:
		text := cm.CopySelection(g)
		if text != "" {
			h.state.PushPaste(text)
		}
	case protocol.CopySearchForward:
		cm.SearchForward(g, msg.CopyAction.Query)
	case protocol.CopySearchBackward:
		cm.SearchBackward(g, msg.CopyAction.Query)
	case protocol.CopySearchNext:
		cm.SearchNext(g)
	case protocol.CopySearchPrev:
		cm.SearchPrev(g)
	}
	return h.render(), false, nil
}

// paste writes the top of the paste buffer to the active pane, the same
// action the "paste-buffer" command sentinel requests (spec.md §3, §4.6).
func (h handlerContext) paste() (protocol.ServerMessage, bool, []pushTarget) {
	if len(h.state.PasteBuffer) == 0 {
		return h.render(), false, nil
	}
	text := h.state.PasteBuffer[len(h.state.PasteBuffer)-1]
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	w := sess.ActiveWindow()
	if w == nil {
		return errMsg(emptySessionErr()), false, nil
	}
	if p, ok := w.Panes[w.ActivePane]; ok {
		p.WriteInput([]byte(text))
		p.Drain()
	}
	return h.render(), false, nil
}

// command runs a tmux-style command line through internal/command, folding
// its sentinels into protocol-level behavior (spec.md §4.6, §4.9).
func (h handlerContext) command(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	outcome, err := command.Execute(h.state, h.client, msg.Command)
	if err != nil {
		return errMsg(err), false, nil
	}
	switch outcome.Sentinel {
	case command.SentinelDetachClient:
		return protocol.ServerMessage{Type: protocol.Detached}, true, nil
	case command.SentinelCopyMode:
		return h.enterCopyMode()
	case command.SentinelPasteBuffer:
		return h.paste()
	case command.SentinelCommandPrompt, command.SentinelClockMode:
		return protocol.ServerMessage{Type: protocol.Notification}, false, nil
	case command.SentinelShutdownServer:
		go h.s.Shutdown()
		return protocol.ServerMessage{Type: protocol.Notification, Text: "server shutting down"}, false, nil
	}
	if outcome.Notification != "" {
		return protocol.ServerMessage{Type: protocol.Notification, Text: outcome.Notification}, false, nil
	}
	return h.render(), false, nil
}

// mouseEvent applies the minimal, idiomatic tmux mouse behavior: a click
// focuses the pane under the pointer, a scroll enters (or continues) copy
// mode and scrolls it. spec.md §6 names the MouseEvent message but leaves
// its pane-selection/scroll semantics unspecified; this mirrors tmux's own
// default mouse bindings (select-pane on click, copy-mode on wheel). The
// whole thing is gated on the "mouse" option (spec.md §6, default off): a
// client that never enabled it gets its clicks and scrolls ignored rather
// than moving panes or opening copy mode out of nowhere.
func (h handlerContext) mouseEvent(msg protocol.ClientMessage) (protocol.ServerMessage, bool, []pushTarget) {
	if !h.state.Config.Options.Mouse {
		return h.render(), false, nil
	}
	sess, ok := h.session()
	if !ok {
		return protocol.ServerMessage{Type: protocol.Error, Text: "not attached to a session"}, false, nil
	}
	w := sess.ActiveWindow()
	if w == nil {
		return errMsg(emptySessionErr()), false, nil
	}
	switch msg.MouseKind {
	case protocol.MouseClick:
		if id, ok := paneAt(w, msg.Col, msg.Row); ok {
			w.LastActivePane = w.ActivePane
			w.ActivePane = id
		}
	case protocol.MouseScrollUp:
		h.ensureCopyMode(w)
		cols, rows := activeGridSize(w)
		h.client.CopyMode.Move(0, -3, cols, rows)
	case protocol.MouseScrollDown:
		if h.client.CopyMode != nil && h.client.CopyMode.Active {
			rows := 3
			h.client.CopyMode.PageMove(rows, true, true)
		}
	}
	return h.render(), false, nil
}

func (h handlerContext) ensureCopyMode(w *mux.Window) {
	if h.client.CopyMode != nil && h.client.CopyMode.Active {
		return
	}
	if p, ok := w.Panes[w.ActivePane]; ok {
		h.client.CopyMode = &copymode.State{}
		h.client.CopyMode.Enter(p.Term.Cursor.Col, p.Term.Cursor.Row)
	}
}

func activeGridSize(w *mux.Window) (int, int) {
	if p, ok := w.Panes[w.ActivePane]; ok {
		return p.Term.Grid.Cols, p.Term.Grid.Rows
	}
	return 0, 0
}

func paneAt(w *mux.Window, col, row int) (ids.PaneID, bool) {
	geoms := layout.CalculateGeometries(w.Layout, w.Area)
	for id, r := range geoms {
		if col >= r.X && col < r.X+r.W && row >= r.Y && row < r.Y+r.H {
			return id, true
		}
	}
	return "", false
}
