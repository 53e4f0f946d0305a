// Package ids defines the opaque identifier types shared across the
// session/window/pane/client model (spec.md §3), each backed by a
// github.com/google/uuid v4, matching the teacher's use of uuid for
// session/window/pane identity in internal/tmux and internal/panestate.
package ids

import "github.com/google/uuid"

type SessionID string
type WindowID string
type PaneID string
type ClientID string

func NewSessionID() SessionID { return SessionID(uuid.NewString()) }
func NewWindowID() WindowID   { return WindowID(uuid.NewString()) }
func NewPaneID() PaneID       { return PaneID(uuid.NewString()) }
func NewClientID() ClientID   { return ClientID(uuid.NewString()) }
