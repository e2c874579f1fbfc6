package models

import "github.com/google/uuid"

// WindowHandle is the opaque, platform-supplied identifier for a top-level
// window. The core never interprets its contents; drivers stringify
// whatever native handle their windowing system uses (an X11 driver
// stringifies an xproto.Window).
type WindowHandle string

// MonitorID is a stable identifier for a physical display, supplied by the
// PlatformPort (an X11 driver uses the RandR output name).
type MonitorID string

// WorkspaceID is a process-lifetime-stable identifier for a workspace,
// surviving persistence round-trips across restarts.
type WorkspaceID uuid.UUID

// NewWorkspaceID generates a fresh workspace identifier.
func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(uuid.New())
}

func (w WorkspaceID) String() string {
	return uuid.UUID(w).String()
}

// PID is an owning-process identifier, as reported by the platform.
type PID int
