// Package platform defines the capability surface the tiling engine in
// internal/wm depends on for everything that touches the windowing system:
// enumerating displays and windows, reading and writing geometry, and
// subscribing to lifecycle events. Port is a capability surface, not a
// class — the core only ever holds a Port value, never a concrete driver
// type.
package platform

import (
	"context"

	"github.com/frostplexx/yuki/pkg/models"
)

// EventKind enumerates every lifecycle signal Subscribe's callers can
// receive.
type EventKind string

const (
	EventAppLaunched        EventKind = "app_launched"
	EventAppTerminated      EventKind = "app_terminated"
	EventAppActivated       EventKind = "app_activated"
	EventAppHidden          EventKind = "app_hidden"
	EventAppUnhidden        EventKind = "app_unhidden"
	EventWindowCreated      EventKind = "window_created"
	EventWindowDestroyed    EventKind = "window_destroyed"
	EventWindowFocusChanged EventKind = "window_focus_changed"
	EventWindowMinimized    EventKind = "window_minimized"
	EventWindowDeminimized  EventKind = "window_deminimized"
	EventWindowMoved        EventKind = "window_moved"
	EventWindowResized      EventKind = "window_resized"
	EventSpaceChanged       EventKind = "space_changed"
	EventDisplayChanged     EventKind = "display_changed"
	EventSystemSleep        EventKind = "system_sleep"
	EventSystemWake         EventKind = "system_wake"
)

// Event is a single occurrence pushed from the Port's dedicated event
// thread. Handle and PID are populated when the event concerns a specific
// window or process; Frame is populated for moved/resized events.
type Event struct {
	Kind   EventKind
	Handle models.WindowHandle
	PID    models.PID
	Frame  models.Rectangle
}

// Callback receives events pushed from the Port's dedicated event thread.
// Implementations must return quickly — push to a buffered channel, never
// do I/O inline — since the callee must not block that thread.
type Callback func(Event)

// Port is the abstract dependency through which the core reads and writes
// window state and receives lifecycle events.
type Port interface {
	// EnumerateDisplays is one-shot on startup and whenever the port
	// reports a topology change.
	EnumerateDisplays(ctx context.Context) ([]models.MonitorDescriptor, error)

	// EnumerateWindows may be cached by the implementation for up to
	// 100ms.
	EnumerateWindows(ctx context.Context) ([]models.WindowSnapshot, error)

	// GetGeometry returns a window's current frame. ok is false if the
	// handle no longer exists (the caller should treat this as
	// HandleStale).
	GetGeometry(ctx context.Context, handle models.WindowHandle) (frame models.Rectangle, ok bool, err error)

	// SetGeometry moves and resizes a window. Implementations must
	// temporarily suppress the windowing system's "enhanced accessibility
	// animation" across the call and guarantee restoration on every exit
	// path, including panics. The x11 and fake drivers in this module have
	// no such animation to suppress and write the geometry directly.
	SetGeometry(ctx context.Context, handle models.WindowHandle, frame models.Rectangle) error

	Raise(ctx context.Context, handle models.WindowHandle) error
	SetMinimized(ctx context.Context, handle models.WindowHandle, minimized bool) error
	SetFullscreen(ctx context.Context, handle models.WindowHandle, fullscreen bool) error

	// Subscribe registers cb for every event kind above. It returns an
	// unsubscribe function. Events are delivered on a dedicated thread the
	// implementation owns; cb must not block it.
	Subscribe(cb Callback) (unsubscribe func())

	// PointerLocation supports focus-follows-mouse-style monitor
	// selection.
	PointerLocation(ctx context.Context) (models.Point, error)
}

// SuppressionScope is the shape of a scoped suppression handle whose End
// restores the suppressed behaviour in a single deferred call. No driver in
// this module returns one, and the core never constructs one.
type SuppressionScope interface {
	End()
}
