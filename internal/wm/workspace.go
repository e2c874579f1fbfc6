package wm

import (
	"context"
	"sync"
	"time"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/pkg/models"
	"github.com/sirupsen/logrus"
)

// WorkspaceState is a workspace's lifecycle state.
type WorkspaceState int

const (
	Inactive WorkspaceState = iota
	Activating
	Active
	Deactivating
)

func (s WorkspaceState) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Deactivating:
		return "deactivating"
	default:
		return "unknown"
	}
}

// hideEpsilon keeps hidden windows just inside the visible frame's
// bottom-right corner rather than exactly on its edge.
const hideEpsilon = 2.0

// hidePoint returns the off-screen parking spot for an inactive workspace's
// windows: just inside the bottom-right corner of the visible frame.
func hidePoint(visibleFrame models.Rectangle) models.Point {
	return models.Point{
		X: visibleFrame.X + visibleFrame.Width - hideEpsilon,
		Y: visibleFrame.Y + visibleFrame.Height - hideEpsilon,
	}
}

// HideRegion returns the small rectangle near the bottom-right corner of
// visibleFrame used to park inactive workspaces' windows, exported so
// tests can assert a window lands there.
func HideRegion(visibleFrame models.Rectangle) models.Rectangle {
	p := hidePoint(visibleFrame)
	return models.NewRectangle(p.X, p.Y, hideEpsilon, hideEpsilon)
}

// Workspace is a named container on one monitor. It stores its monitor's
// id, never a pointer to the Monitor itself, so the ownership graph has no
// cycle.
type Workspace struct {
	ID        models.WorkspaceID
	Name      string
	MonitorID models.MonitorID

	mu    sync.Mutex
	state WorkspaceState

	tree        *LayoutNode
	rootKind    LayoutKind
	saved       *models.SavedGeometry
	needsRetile bool

	registry   *Registry
	classifier *FloatClassifier
	port       platform.Port
	onEvent    func(models.Event)
	log        *logrus.Entry
}

// NewWorkspace constructs a workspace in the Inactive state with an empty
// tree of the given root layout kind.
func NewWorkspace(name string, monitorID models.MonitorID, rootKind LayoutKind, registry *Registry, classifier *FloatClassifier, port platform.Port, onEvent func(models.Event), log *logrus.Entry) *Workspace {
	id := models.NewWorkspaceID()
	return &Workspace{
		ID:         id,
		Name:       name,
		MonitorID:  monitorID,
		state:      Inactive,
		tree:       NewLeaf(rootKind),
		rootKind:   rootKind,
		saved:      models.NewSavedGeometry(),
		registry:   registry,
		classifier: classifier,
		port:       port,
		onEvent:    onEvent,
		log:        log.WithField("workspace_id", id.String()),
	}
}

// State returns the workspace's current lifecycle state.
func (w *Workspace) State() WorkspaceState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Tree returns the workspace's current layout tree. Callers must not
// mutate it directly; use SetLayout/CycleLayout/the Reconciler's sync.
func (w *Workspace) Tree() *LayoutNode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree
}

// RootKind returns the workspace's current root layout kind.
func (w *Workspace) RootKind() LayoutKind {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rootKind
}

// Adopt binds handle to this workspace. Fails with ErrRegistryConflict if
// handle is already bound elsewhere. If the
// workspace is not active, the window is parked at the hide point
// immediately.
func (w *Workspace) Adopt(ctx context.Context, handle models.WindowHandle, pid models.PID, visibleFrame models.Rectangle) error {
	if err := w.registry.Bind(handle, w.ID, pid); err != nil {
		return err
	}

	w.mu.Lock()
	w.tree = SyncTree(w.tree, w.rootKind, append(w.tree.allWindows(), handle))
	active := w.state == Active
	w.mu.Unlock()

	if !active {
		hp := hidePoint(visibleFrame)
		if err := w.port.SetGeometry(ctx, handle, models.NewRectangle(hp.X, hp.Y, 1, 1)); err != nil {
			w.log.WithError(err).WithField("handle", handle).Warn("workspace.adopt.hide_failed")
		}
	}

	w.emit("window-added", models.WindowAddedEvent{WorkspaceID: w.ID, Handle: handle, At: time.Now()})
	return nil
}

// Release removes handle from this workspace's tree, unbinds it in the
// registry, and drops any saved geometry for it.
func (w *Workspace) Release(handle models.WindowHandle) {
	w.registry.Unbind(handle)

	w.mu.Lock()
	remaining := make([]models.WindowHandle, 0)
	for _, h := range w.tree.allWindows() {
		if h != handle {
			remaining = append(remaining, h)
		}
	}
	w.tree = SyncTree(w.tree, w.rootKind, remaining)
	delete(w.saved.Frames, handle)
	if w.saved.FocusedHandle != nil && *w.saved.FocusedHandle == handle {
		w.saved.FocusedHandle = nil
	}
	w.mu.Unlock()

	w.emit("window-removed", models.WindowRemovedEvent{WorkspaceID: w.ID, Handle: handle, At: time.Now()})
}

// Activate makes this workspace the active one: no-op if already active.
// The caller (Monitor) is responsible for deactivating any previously
// active workspace on the same monitor first, as a single monitor-scoped
// critical section.
func (w *Workspace) Activate(ctx context.Context, visibleFrame models.Rectangle) {
	w.mu.Lock()
	if w.state == Active {
		w.mu.Unlock()
		return
	}
	w.state = Activating
	handles := w.tree.allWindows()
	saved := w.saved
	w.mu.Unlock()

	for _, h := range handles {
		frame, ok := saved.Frames[h]
		if !ok {
			frame = centeredFrame(visibleFrame)
		}
		if err := w.port.SetGeometry(ctx, h, frame); err != nil {
			w.log.WithError(err).WithField("handle", h).Warn("workspace.activate.restore_failed")
		}
	}
	if saved.FocusedHandle != nil {
		if err := w.port.Raise(ctx, *saved.FocusedHandle); err != nil {
			w.log.WithError(err).Debug("workspace.activate.refocus_failed")
		}
	}

	w.mu.Lock()
	w.state = Active
	w.needsRetile = true
	w.mu.Unlock()

	w.emit("workspace-activated", models.WorkspaceActivatedEvent{WorkspaceID: w.ID, MonitorID: w.MonitorID, At: time.Now()})
}

// centeredFrame returns a reasonably sized, centered rectangle for a window
// with no saved geometry.
func centeredFrame(visibleFrame models.Rectangle) models.Rectangle {
	w, h := visibleFrame.Width*0.6, visibleFrame.Height*0.6
	c := visibleFrame.Center()
	return models.NewRectangle(c.X-w/2, c.Y-h/2, w, h)
}

// Deactivate snapshots current geometry and focus, then hides every owned
// window.
func (w *Workspace) Deactivate(ctx context.Context, visibleFrame models.Rectangle, focused *models.WindowHandle) {
	w.mu.Lock()
	if w.state != Active {
		w.mu.Unlock()
		return
	}
	w.state = Deactivating
	handles := w.tree.allWindows()
	w.mu.Unlock()

	snapshot := models.NewSavedGeometry()
	snapshot.FocusedHandle = focused
	hp := hidePoint(visibleFrame)
	hideFrame := models.NewRectangle(hp.X, hp.Y, 1, 1)

	for _, h := range handles {
		if frame, ok, err := w.port.GetGeometry(ctx, h); err == nil && ok {
			snapshot.Frames[h] = frame
		}
		if err := w.port.SetGeometry(ctx, h, hideFrame); err != nil {
			w.log.WithError(err).WithField("handle", h).Warn("workspace.deactivate.hide_failed")
		}
	}

	w.mu.Lock()
	w.saved = snapshot
	w.state = Inactive
	w.mu.Unlock()
}

// SetLayout mutates the root layout kind and marks the workspace as needing
// a retile; scheduling the reconciliation is the caller's job.
func (w *Workspace) SetLayout(kind LayoutKind) {
	w.mu.Lock()
	w.rootKind = kind
	w.tree = w.tree.SetRootKind(kind)
	w.needsRetile = true
	w.mu.Unlock()

	w.emit("layout-kind-changed", models.LayoutKindChangedEvent{WorkspaceID: w.ID, Kind: string(kind), At: time.Now()})
}

// CycleLayout advances the root kind through the fixed order
// {bsp, hstack, vstack, zstack, float}.
func (w *Workspace) CycleLayout() {
	w.mu.Lock()
	next := NextCycleKind(w.rootKind)
	w.mu.Unlock()
	w.SetLayout(next)
}

// RequestRetile sets needsRetile. It does not schedule a reconciliation;
// Reconciler.RequestRetile does that. reason is used only for structured
// logging.
func (w *Workspace) RequestRetile(reason string) {
	w.mu.Lock()
	w.needsRetile = true
	w.mu.Unlock()
	w.log.WithField("reason", reason).Trace("workspace.retile_requested")
}

// NeedsRetile reports the pending-retile flag. ReconcileNow is what clears
// it, on a successful pass.
func (w *Workspace) NeedsRetile() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.needsRetile
}

// WindowCount returns how many windows the workspace's tree currently
// holds.
func (w *Workspace) WindowCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.count()
}

// ReconcileNow performs the per-workspace reconciliation steps: snapshot
// the owned window set, sync the tree, compute geometries if Active and
// non-float, and apply them with a single retry on failure. Called by the
// Reconciler, never directly by the EventRouter. Returns the geometries it
// attempted to apply, for the fast-path caller to confirm synchronous
// completion.
func (w *Workspace) ReconcileNow(ctx context.Context, gaps Gaps, visibleFrame models.Rectangle, retryDelay time.Duration) map[models.WindowHandle]models.Rectangle {
	w.mu.Lock()
	// The registry is authoritative: a handle it no longer assigns to this
	// workspace (e.g. dropped with its terminated process) leaves the tree.
	windows := make([]models.WindowHandle, 0)
	for _, h := range w.tree.allWindows() {
		if owner, ok := w.registry.Owner(h); ok && owner == w.ID {
			windows = append(windows, h)
		}
	}
	w.tree = SyncTree(w.tree, w.rootKind, windows)
	active := w.state == Active
	floatRoot := w.rootKind == KindFloat
	tree := w.tree
	w.mu.Unlock()

	if !active || floatRoot {
		w.mu.Lock()
		w.needsRetile = false
		w.mu.Unlock()
		return nil
	}

	tileTree := tree
	if floats := w.floatingHandles(ctx, windows); len(floats) > 0 {
		tileTree = cloneExcluding(tree, floats)
	}

	geoms := Layout(tileTree, visibleFrame, gaps)
	for handle, frame := range geoms {
		if err := w.port.SetGeometry(ctx, handle, frame); err != nil {
			w.log.WithError(err).WithField("handle", handle).Debug("reconcile.write_failed_retrying")
			time.Sleep(retryDelay)
			if err2 := w.port.SetGeometry(ctx, handle, frame); err2 != nil {
				w.log.WithError(err2).WithField("handle", handle).Warn("reconcile.write_failed_dropped")
			}
		}
	}

	w.mu.Lock()
	w.needsRetile = false
	w.mu.Unlock()
	return geoms
}

// floatingHandles runs the FloatClassifier over handles and returns the
// subset it says must be excluded from tiling: user-floated, minimized,
// dialog-shaped, or otherwise matching the classify chain.
func (w *Workspace) floatingHandles(ctx context.Context, handles []models.WindowHandle) map[models.WindowHandle]bool {
	out := make(map[models.WindowHandle]bool)
	for _, h := range handles {
		meta, _ := w.registry.Meta(h)
		in := classifyInput{
			UserOverrideFloat: meta.IsFloating,
			IsMinimized:       meta.IsMinimized,
			BundleID:          meta.BundleID,
			Subrole:           meta.Subrole,
			Title:             meta.Title,
		}
		if frame, ok, err := w.port.GetGeometry(ctx, h); err == nil && ok {
			in.Width, in.Height = frame.Width, frame.Height
		}
		if w.classifier.Classify(h, in) {
			out[h] = true
		}
	}
	return out
}

func (w *Workspace) emit(name string, payload interface{}) {
	if w.onEvent != nil {
		w.onEvent(models.Event{Name: name, Payload: payload})
	}
}
