// Package protocol defines the wire messages exchanged between client and
// server (spec.md §6): a self-describing tagged sum type per direction,
// encoded as JSON. Grounded on the teacher's internal/wsserver.hub.go,
// which decodes one incoming JSON object into a struct carrying a
// discriminator field ("Action") and then switches on it; this package
// generalizes that single-struct-with-discriminator shape to the full
// Client→Server and Server→Client message sets of spec.md §6 rather than
// the teacher's narrower subscribe/unsubscribe control messages. JSON (not
// a binary tagged union) is used because it is what the teacher's control
// channel already speaks and no example repo in the pack carries a
// generic binary tagged-union codec (see DESIGN.md).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClientMessageType tags the variant of a ClientMessage (spec.md §6).
type ClientMessageType string

const (
	NewSession    ClientMessageType = "NewSession"
	Attach        ClientMessageType = "Attach"
	Detach        ClientMessageType = "Detach"
	Input         ClientMessageType = "Input"
	Resize        ClientMessageType = "Resize"
	SplitPane     ClientMessageType = "SplitPane"
	SelectPane    ClientMessageType = "SelectPane"
	ResizePane    ClientMessageType = "ResizePane"
	ZoomPane      ClientMessageType = "ZoomPane"
	NewWindow     ClientMessageType = "NewWindow"
	ClosePane     ClientMessageType = "ClosePane"
	SelectWindow  ClientMessageType = "SelectWindow"
	NextWindow    ClientMessageType = "NextWindow"
	PrevWindow    ClientMessageType = "PrevWindow"
	RenameWindow  ClientMessageType = "RenameWindow"
	RenameSession ClientMessageType = "RenameSession"
	ListSessions  ClientMessageType = "ListSessions"
	KillSession   ClientMessageType = "KillSession"
	EnterCopyMode ClientMessageType = "EnterCopyMode"
	CopyModeInput ClientMessageType = "CopyModeInput"
	Paste         ClientMessageType = "Paste"
	Command       ClientMessageType = "Command"
	MouseEvent    ClientMessageType = "MouseEvent"
	Ping          ClientMessageType = "Ping"
)

// ServerMessageType tags the variant of a ServerMessage (spec.md §6).
type ServerMessageType string

const (
	Output         ServerMessageType = "Output"
	SessionCreated ServerMessageType = "SessionCreated"
	Attached       ServerMessageType = "Attached"
	Detached       ServerMessageType = "Detached"
	SessionList    ServerMessageType = "SessionList"
	Error          ServerMessageType = "Error"
	Pong           ServerMessageType = "Pong"
	Shutdown       ServerMessageType = "Shutdown"
	Notification   ServerMessageType = "Notification"
)

// Direction is a pane-navigation or resize direction (spec.md §6).
type Direction string

const (
	DirUp    Direction = "Up"
	DirDown  Direction = "Down"
	DirLeft  Direction = "Left"
	DirRight Direction = "Right"
)

// MouseEventKind is the kind of mouse event a client reports (spec.md §6).
type MouseEventKind string

const (
	MouseClick      MouseEventKind = "Click"
	MouseScrollUp   MouseEventKind = "ScrollUp"
	MouseScrollDown MouseEventKind = "ScrollDown"
)

// CopyAction names one copy-mode input (spec.md §4.8): a movement, a
// scroll, a selection edge, or a search with its query.
type CopyAction struct {
	Kind  string `json:"kind"`
	Query string `json:"query,omitempty"`
}

// Copy-mode action kinds.
const (
	CopyUp              = "Up"
	CopyDown            = "Down"
	CopyLeft            = "Left"
	CopyRight           = "Right"
	CopyPageUp          = "PageUp"
	CopyPageDown        = "PageDown"
	CopyHalfPageUp      = "HalfPageUp"
	CopyHalfPageDown    = "HalfPageDown"
	CopyTop             = "Top"
	CopyBottom          = "Bottom"
	CopyStartOfLine     = "StartOfLine"
	CopyEndOfLine       = "EndOfLine"
	CopyStartSelection  = "StartSelection"
	CopyCopySelection   = "CopySelection"
	CopyCancelSelection = "CancelSelection"
	CopySearchForward   = "SearchForward"
	CopySearchBackward  = "SearchBackward"
	CopySearchNext      = "SearchNext"
	CopySearchPrev      = "SearchPrev"
)

// ClientMessage is every field any Client→Server variant may carry; Type
// selects which fields are meaningful (spec.md §6). Mirrors the teacher's
// single-struct-plus-discriminator decode shape in wsserver.hub.go.
type ClientMessage struct {
	Type ClientMessageType `json:"type"`

	Name       string         `json:"name,omitempty"`
	Command    string         `json:"command,omitempty"`
	Cols       int            `json:"cols,omitempty"`
	Rows       int            `json:"rows,omitempty"`
	Target     string         `json:"target,omitempty"`
	Bytes      []byte         `json:"bytes,omitempty"`
	Horizontal bool           `json:"horizontal,omitempty"`
	Direction  Direction      `json:"direction,omitempty"`
	Amount     int            `json:"amount,omitempty"`
	Index      int            `json:"index,omitempty"`
	CopyAction CopyAction     `json:"copyAction,omitempty"`
	MouseKind  MouseEventKind `json:"mouseKind,omitempty"`
	Col        int            `json:"col,omitempty"`
	Row        int            `json:"row,omitempty"`
}

// SessionInfo summarizes one session for ListSessions replies (spec.md §6).
type SessionInfo struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	WindowCount     int       `json:"windowCount"`
	PaneCount       int       `json:"paneCount"`
	CreatedAt       time.Time `json:"createdAt"`
	AttachedClients int       `json:"attachedClients"`
}

// ServerMessage is every field any Server→Client variant may carry.
type ServerMessage struct {
	Type ServerMessageType `json:"type"`

	Bytes     []byte        `json:"bytes,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Name      string        `json:"name,omitempty"`
	Sessions  []SessionInfo `json:"sessions,omitempty"`
	Text      string        `json:"text,omitempty"`
}

// EncodeClientMessage serializes m to its wire form.
func EncodeClientMessage(m ClientMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeClientMessage parses a Client→Server payload.
func DecodeClientMessage(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("protocol: decode client message: %w", err)
	}
	return m, nil
}

// EncodeServerMessage serializes m to its wire form.
func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeServerMessage parses a Server→Client payload.
func DecodeServerMessage(b []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return ServerMessage{}, fmt.Errorf("protocol: decode server message: %w", err)
	}
	return m, nil
}
