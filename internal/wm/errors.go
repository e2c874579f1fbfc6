package wm

import (
	"errors"
	"fmt"

	"github.com/frostplexx/yuki/pkg/models"
)

// Sentinel error kinds. Callers compare with errors.Is. The two kinds that
// carry data, HandleStaleError and GeometryWriteFailedError below, are
// struct types matched with errors.As; they do not wrap a sentinel.
var (
	// ErrPlatformDenied means the platform refused to grant accessibility
	// permission. Fatal to the core; surfaced once to the UI.
	ErrPlatformDenied = errors.New("platform denied accessibility permission")

	// ErrRegistryConflict means a caller attempted to bind a handle already
	// owned by another workspace without unbinding first. Fatal as a
	// programmer error.
	ErrRegistryConflict = errors.New("window handle already bound to another workspace")

	// ErrLastWorkspace means a caller attempted to remove the only
	// workspace on a monitor.
	ErrLastWorkspace = errors.New("cannot remove the last workspace on a monitor")

	// ErrPortDisconnected means the PlatformPort subscription was lost.
	// Transient; handled by the reconnect backoff in internal/platform/x11.
	ErrPortDisconnected = errors.New("platform port disconnected")
)

// HandleStaleError means a window handle used in a call no longer exists.
// Callers treat this identically to a window-destroyed event.
type HandleStaleError struct {
	Handle models.WindowHandle
}

func (e *HandleStaleError) Error() string {
	return fmt.Sprintf("window handle %q is stale", e.Handle)
}

// GeometryWriteFailedError wraps a single failed PlatformPort.SetGeometry
// call. Never fatal: the reconciler retries once then drops it.
type GeometryWriteFailedError struct {
	Handle models.WindowHandle
	Err    error
}

func (e *GeometryWriteFailedError) Error() string {
	return fmt.Sprintf("geometry write failed for %q: %v", e.Handle, e.Err)
}

func (e *GeometryWriteFailedError) Unwrap() error { return e.Err }
