package models

import "time"

// The following are the named notifications the core emits to external UI
// code, one struct per name.

// WorkspaceActivatedEvent fires when a workspace becomes the active one on
// its monitor.
type WorkspaceActivatedEvent struct {
	WorkspaceID WorkspaceID `json:"workspace_id"`
	MonitorID   MonitorID   `json:"monitor_id"`
	At          time.Time   `json:"at"`
}

// LayoutKindChangedEvent fires when a workspace's root layout kind changes.
type LayoutKindChangedEvent struct {
	WorkspaceID WorkspaceID `json:"workspace_id"`
	Kind        string      `json:"kind"`
	At          time.Time   `json:"at"`
}

// WindowAddedEvent fires when a window is adopted by a workspace.
type WindowAddedEvent struct {
	WorkspaceID WorkspaceID  `json:"workspace_id"`
	Handle      WindowHandle `json:"handle"`
	At          time.Time    `json:"at"`
}

// WindowRemovedEvent fires when a window is released from a workspace.
type WindowRemovedEvent struct {
	WorkspaceID WorkspaceID  `json:"workspace_id"`
	Handle      WindowHandle `json:"handle"`
	At          time.Time    `json:"at"`
}

// WindowMovedEvent fires on a user-driven move of a tracked window.
type WindowMovedEvent struct {
	Handle WindowHandle `json:"handle"`
	Frame  Rectangle    `json:"frame"`
	At     time.Time    `json:"at"`
}

// WindowResizedEvent fires on a user-driven resize of a tracked window.
type WindowResizedEvent struct {
	Handle WindowHandle `json:"handle"`
	Frame  Rectangle    `json:"frame"`
	At     time.Time    `json:"at"`
}

// WindowMinimizedEvent fires when a window is minimized.
type WindowMinimizedEvent struct {
	Handle WindowHandle `json:"handle"`
	At     time.Time    `json:"at"`
}

// WindowUnminimizedEvent fires when a window is deminimized.
type WindowUnminimizedEvent struct {
	Handle WindowHandle `json:"handle"`
	At     time.Time    `json:"at"`
}

// WindowClosedEvent fires when a window is destroyed.
type WindowClosedEvent struct {
	Handle WindowHandle `json:"handle"`
	At     time.Time    `json:"at"`
}

// Event wraps a payload with its notification name, the shape delivered on
// the Coordinator's event channel and relayed by the daemon's debug
// websocket endpoint. The payload is one of the above structs, except for
// "display-changed", which carries an empty struct.
type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload"`
}
