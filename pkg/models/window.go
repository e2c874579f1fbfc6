package models

// WindowSnapshot is the shape PlatformPort.EnumerateWindows returns for a
// single window. It is a point-in-time copy; the core owns no reference
// back into platform state.
type WindowSnapshot struct {
	Handle      WindowHandle `json:"handle"`
	OwningPID   PID          `json:"owning_pid"`
	Frame       Rectangle    `json:"frame"`
	Title       string       `json:"title"`
	Subrole     string       `json:"subrole"`
	BundleID    string       `json:"bundle_id"`
	IsMinimized bool         `json:"is_minimized"`
}

// Window is the core's tracked state for one top-level window. Ownership
// (which workspace holds it) lives in the WindowRegistry, not here, to
// keep a single authoritative mapping.
type Window struct {
	Handle      WindowHandle `json:"handle"`
	Title       string       `json:"title"`
	Subrole     string       `json:"subrole"`
	BundleID    string       `json:"bundle_id"`
	OwningPID   PID          `json:"owning_pid"`
	IsFloating  bool         `json:"is_floating"`  // user override
	IsMinimized bool         `json:"is_minimized"`
}

// ApplyUpdate copies the mutable, platform-observed fields of a fresh
// snapshot onto the window, leaving user-controlled flags (IsFloating)
// untouched.
func (w *Window) ApplyUpdate(s WindowSnapshot) {
	w.Title = s.Title
	w.Subrole = s.Subrole
	w.BundleID = s.BundleID
	w.OwningPID = s.OwningPID
	w.IsMinimized = s.IsMinimized
}
