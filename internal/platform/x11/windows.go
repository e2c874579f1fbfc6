package x11

import (
	"context"
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/frostplexx/yuki/pkg/models"
)

// EnumerateWindows returns every top-level window the running window
// manager currently stacks, shaped as the core's window-discovery contract.
// Grounded on the reference client's ClientListStackingGet + GetInfo: walk
// the EWMH stacking order and build one snapshot per window, skipping any
// the window manager itself no longer considers manageable.
func (d *Driver) EnumerateWindows(ctx context.Context) ([]models.WindowSnapshot, error) {
	X := d.xu()
	clients, err := ewmh.ClientListStackingGet(X)
	if err != nil {
		return nil, fmt.Errorf("x11: client list stacking: %w", err)
	}

	out := make([]models.WindowSnapshot, 0, len(clients))
	for _, w := range clients {
		snap, err := d.snapshotWindow(X, w)
		if err != nil {
			d.log.WithError(err).WithField("window", uint32(w)).Debug("x11.enumerate_windows.skip")
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (d *Driver) snapshotWindow(X *xgbutil.XUtil, w xproto.Window) (models.WindowSnapshot, error) {
	frame, err := outerGeometry(X, w)
	if err != nil {
		return models.WindowSnapshot{}, err
	}

	var title string
	if n, err := icccm.WmNameGet(X, w); err == nil {
		title = n
	}

	var bundleID string
	if c, err := icccm.WmClassGet(X, w); err == nil && c != nil {
		bundleID = c.Class
	}

	pid, _ := ewmh.WmPidGet(X, w)

	states, _ := ewmh.WmStateGet(X, w)
	minimized := containsState(states, "_NET_WM_STATE_HIDDEN")

	subrole := "standard"
	if types, err := ewmh.WmWindowTypeGet(X, w); err == nil && containsState(types, "_NET_WM_WINDOW_TYPE_DIALOG") {
		subrole = "dialog"
	}

	return models.WindowSnapshot{
		Handle:      handleOf(w),
		OwningPID:   models.PID(pid),
		Frame:       frame,
		Title:       title,
		Subrole:     subrole,
		BundleID:    bundleID,
		IsMinimized: minimized,
	}, nil
}

// GetGeometry reads a single window's current outer frame. ok is false if
// the handle no longer resolves to a live window.
func (d *Driver) GetGeometry(ctx context.Context, handle models.WindowHandle) (models.Rectangle, bool, error) {
	w, err := windowOf(handle)
	if err != nil {
		return models.Rectangle{}, false, err
	}
	frame, err := outerGeometry(d.xu(), w)
	if err != nil {
		return models.Rectangle{}, false, nil
	}
	return frame, true, nil
}

// SetGeometry moves and resizes a window to the given outer frame. Grounded
// on the reference client's MoveWindow: clear maximize/fullscreen state
// first, since a maximized window ignores configure requests, then issue an
// EWMH moveresize against the client's inner geometry, compensating for the
// decoration extents the window manager itself adds back in. No animation
// or compositor suppression is performed around the write.
func (d *Driver) SetGeometry(ctx context.Context, handle models.WindowHandle, frame models.Rectangle) error {
	w, err := windowOf(handle)
	if err != nil {
		return err
	}
	X := d.xu()

	_ = ewmh.WmStateReq(X, w, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_VERT")
	_ = ewmh.WmStateReq(X, w, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ")
	_ = ewmh.WmStateReq(X, w, ewmh.StateRemove, "_NET_WM_STATE_FULLSCREEN")

	left, right, top, bottom, err := frameExtents(X, w)
	if err != nil {
		left, right, top, bottom = 0, 0, 0, 0
	}

	innerX := int(frame.X) + left
	innerY := int(frame.Y) + top
	innerW := int(frame.Width) - left - right
	innerH := int(frame.Height) - top - bottom
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}

	if err := ewmh.MoveresizeWindow(X, w, innerX, innerY, innerW, innerH); err != nil {
		return fmt.Errorf("x11: moveresize %s: %w", handle, err)
	}
	return nil
}

// Raise brings a window to the front of the stacking order and gives it
// input focus, the reference client's activation path.
func (d *Driver) Raise(ctx context.Context, handle models.WindowHandle) error {
	w, err := windowOf(handle)
	if err != nil {
		return err
	}
	X := d.xu()
	if err := ewmh.ActiveWindowReq(X, w); err != nil {
		return fmt.Errorf("x11: raise %s: %w", handle, err)
	}
	return nil
}

// SetMinimized toggles a window's iconic state via the EWMH hidden-state
// request, since plain ICCCM WM_CHANGE_STATE is reversed by most modern
// window managers.
func (d *Driver) SetMinimized(ctx context.Context, handle models.WindowHandle, minimized bool) error {
	w, err := windowOf(handle)
	if err != nil {
		return err
	}
	X := d.xu()
	action := ewmh.StateRemove
	if minimized {
		action = ewmh.StateAdd
	}
	if err := ewmh.WmStateReq(X, w, action, "_NET_WM_STATE_HIDDEN"); err != nil {
		return fmt.Errorf("x11: set minimized %s: %w", handle, err)
	}
	return nil
}

// SetFullscreen toggles a window's fullscreen state, used by float-classified
// windows that request it outside of any tiled region.
func (d *Driver) SetFullscreen(ctx context.Context, handle models.WindowHandle, fullscreen bool) error {
	w, err := windowOf(handle)
	if err != nil {
		return err
	}
	X := d.xu()
	action := ewmh.StateRemove
	if fullscreen {
		action = ewmh.StateAdd
	}
	if err := ewmh.WmStateReq(X, w, action, "_NET_WM_STATE_FULLSCREEN"); err != nil {
		return fmt.Errorf("x11: set fullscreen %s: %w", handle, err)
	}
	return nil
}

// outerGeometry returns a window's frame in root coordinates: its
// decoration geometry when the window manager reparented it into a frame,
// otherwise its raw client geometry. Mirrors the reference client's
// OuterGeometry, which adds the frame back onto the inner client rectangle
// rather than trusting a single property.
func outerGeometry(X *xgbutil.XUtil, w xproto.Window) (models.Rectangle, error) {
	geom, err := xwindow.New(X, w).DecorGeometry()
	if err != nil {
		geom, err = xwindow.New(X, w).Geometry()
	}
	if err != nil {
		return models.Rectangle{}, fmt.Errorf("x11: geometry: %w", err)
	}
	return models.NewRectangle(
		float64(geom.X()), float64(geom.Y()),
		float64(geom.Width()), float64(geom.Height()),
	), nil
}

// frameExtents reads _NET_FRAME_EXTENTS, the left/right/top/bottom
// decoration widths the window manager has added around a client's
// requested geometry. _GTK_FRAME_EXTENTS is not consulted.
func frameExtents(X *xgbutil.XUtil, w xproto.Window) (left, right, top, bottom int, err error) {
	extents, err := ewmh.WmFrameExtentsGet(X, w)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(extents) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("x11: unexpected frame extents length %d", len(extents))
	}
	return extents[0], extents[1], extents[2], extents[3], nil
}

func handleOf(w xproto.Window) models.WindowHandle {
	return models.WindowHandle(strconv.FormatUint(uint64(w), 10))
}

func windowOf(h models.WindowHandle) (xproto.Window, error) {
	v, err := strconv.ParseUint(string(h), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("x11: invalid window handle %q: %w", h, err)
	}
	return xproto.Window(v), nil
}

func containsState(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
