package wm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/pkg/models"
	"github.com/sirupsen/logrus"
)

// WorkspaceRecord is the persisted shape of one workspace: per monitor id,
// an ordered list of { workspace_id (stable), name, layout_kind }.
type WorkspaceRecord struct {
	ID         models.WorkspaceID `json:"workspace_id"`
	Name       string             `json:"name"`
	LayoutKind LayoutKind         `json:"layout_kind"`
}

// PersistenceStore is consumed, not implemented, by the core.
// The daemon shell supplies a concrete implementation (e.g. one JSON file
// per monitor id).
type PersistenceStore interface {
	Load(ctx context.Context, monitorID models.MonitorID) ([]WorkspaceRecord, error)
	Save(ctx context.Context, monitorID models.MonitorID, records []WorkspaceRecord) error
}

// Config holds the tuning knobs, all given their documented defaults by
// pkg/config.
type Config struct {
	Gaps                     Gaps
	RestorePositions         bool
	AutoTileNewWindows       bool
	ReconcileDebounceMs      int
	GeometryRetryMs          int
	PerfFastPathWindowThresh int
	WorkerPoolSize           int
	AppOverrides             []AppOverride
}

// Coordinator is the top-level wiring point: it owns every Monitor, the
// WindowRegistry, the FloatClassifier, the Reconciler and EventRouter, and
// exposes the command API external UI code calls. It is the only
// component holding a PlatformPort reference that outlives a single call.
type Coordinator struct {
	mu sync.Mutex

	port        platform.Port
	persistence PersistenceStore
	cfg         Config
	log         *logrus.Entry

	registry   *Registry
	classifier *FloatClassifier
	reconciler *Reconciler
	router     *EventRouter

	monitors []*Monitor
	onEvent  func(models.Event)
}

// NewCoordinator builds and starts a Coordinator: it enumerates displays,
// loads or defaults each monitor's workspace list, activates the first
// workspace on every monitor, and starts the EventRouter and Reconciler.
func NewCoordinator(ctx context.Context, port platform.Port, persistence PersistenceStore, cfg Config, onEvent func(models.Event), log *logrus.Entry) (*Coordinator, error) {
	c := &Coordinator{
		port:        port,
		persistence: persistence,
		cfg:         cfg,
		log:         log,
		registry:    NewRegistry(),
		classifier:  NewFloatClassifier(cfg.AppOverrides),
		onEvent:     onEvent,
	}

	descs, err := port.EnumerateDisplays(ctx)
	if err != nil {
		return nil, fmt.Errorf("wm: enumerate displays: %w", err)
	}
	for _, d := range descs {
		mon := NewMonitor(d)
		if err := c.populateMonitor(ctx, mon); err != nil {
			return nil, err
		}
		c.monitors = append(c.monitors, mon)
	}

	c.reconciler = NewReconciler(
		cfg.WorkerPoolSize,
		msDuration(cfg.ReconcileDebounceMs, DefaultReconcileDebounce),
		msDuration(cfg.GeometryRetryMs, DefaultGeometryRetryDelay),
		nonZero(cfg.PerfFastPathWindowThresh, DefaultFastPathWindowThreshold),
		cfg.Gaps,
		c.visibleFrameFor,
		log.WithField("component", "reconciler"),
	)
	c.router = NewEventRouter(c.registry, c.classifier, c.reconciler, port, c.Monitors, onEvent, log.WithField("component", "event_router"))
	c.router.Start()

	for _, mon := range c.monitors {
		if len(mon.Workspaces()) > 0 {
			_ = mon.ActivateIndex(ctx, 0, nil)
		}
	}

	return c, nil
}

func msDuration(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func nonZero(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// populateMonitor loads persisted workspace records for mon, or falls back
// to the defaults: "Default" (bsp) and "Secondary" (hstack).
func (c *Coordinator) populateMonitor(ctx context.Context, mon *Monitor) error {
	records, err := c.persistence.Load(ctx, mon.ID())
	if err != nil {
		return fmt.Errorf("wm: load workspace records for %s: %w", mon.ID(), err)
	}
	if len(records) == 0 {
		records = []WorkspaceRecord{
			{ID: models.NewWorkspaceID(), Name: "Default", LayoutKind: KindBSP},
			{ID: models.NewWorkspaceID(), Name: "Secondary", LayoutKind: KindHStack},
		}
	}
	for _, rec := range records {
		ws := NewWorkspace(rec.Name, mon.ID(), rec.LayoutKind, c.registry, c.classifier, c.port, c.onEvent, c.log)
		ws.ID = rec.ID
		mon.Append(ws)
	}
	return c.persist(ctx, mon)
}

func (c *Coordinator) persist(ctx context.Context, mon *Monitor) error {
	recs := make([]WorkspaceRecord, 0, len(mon.Workspaces()))
	for _, ws := range mon.Workspaces() {
		recs = append(recs, WorkspaceRecord{ID: ws.ID, Name: ws.Name, LayoutKind: ws.RootKind()})
	}
	return c.persistence.Save(ctx, mon.ID(), recs)
}

// Monitors returns the coordinator's current monitor set; used as the
// EventRouter's MonitorsFunc.
func (c *Coordinator) Monitors() []*Monitor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Monitor(nil), c.monitors...)
}

// Stop tears down the EventRouter and Reconciler, releasing the
// PlatformPort subscription acquired at init.
func (c *Coordinator) Stop() {
	c.router.Stop()
	c.reconciler.Stop()
}

func (c *Coordinator) visibleFrameFor(ws *Workspace) (models.Rectangle, bool) {
	for _, mon := range c.Monitors() {
		if mon.ID() == ws.MonitorID {
			return mon.VisibleFrame(), true
		}
	}
	return models.Rectangle{}, false
}

func (c *Coordinator) mouseMonitor(ctx context.Context) *Monitor {
	pt, err := c.port.PointerLocation(ctx)
	if err != nil {
		return nil
	}
	for _, mon := range c.Monitors() {
		if mon.Frame().Contains(pt) {
			return mon
		}
	}
	mons := c.Monitors()
	if len(mons) > 0 {
		return mons[0]
	}
	return nil
}

// CycleLayoutOnMouseMonitor advances the active workspace's root layout
// kind on whichever monitor currently contains the pointer.
func (c *Coordinator) CycleLayoutOnMouseMonitor(ctx context.Context) {
	mon := c.mouseMonitor(ctx)
	if mon == nil {
		return
	}
	if ws := mon.Active(); ws != nil {
		ws.CycleLayout()
		c.reconciler.RequestRetile(ws)
	}
}

// SetLayoutOnMouseMonitor sets the active workspace's root layout kind on
// the mouse monitor.
func (c *Coordinator) SetLayoutOnMouseMonitor(ctx context.Context, kind LayoutKind) {
	mon := c.mouseMonitor(ctx)
	if mon == nil {
		return
	}
	if ws := mon.Active(); ws != nil {
		ws.SetLayout(kind)
		c.reconciler.RequestRetile(ws)
	}
}

// FocusNextWindow cycles focus to the next non-minimized window in the
// mouse monitor's active workspace, by insertion order.
func (c *Coordinator) FocusNextWindow(ctx context.Context) error {
	return c.cycleFocus(ctx, 1)
}

// FocusPreviousWindow cycles focus to the previous non-minimized window.
func (c *Coordinator) FocusPreviousWindow(ctx context.Context) error {
	return c.cycleFocus(ctx, -1)
}

func (c *Coordinator) cycleFocus(ctx context.Context, dir int) error {
	mon := c.mouseMonitor(ctx)
	if mon == nil {
		return fmt.Errorf("wm: no monitor under pointer")
	}
	ws := mon.Active()
	if ws == nil {
		return fmt.Errorf("wm: no active workspace")
	}
	var handles []models.WindowHandle
	for _, hnd := range ws.Tree().allWindows() {
		if meta, ok := c.registry.Meta(hnd); !ok || !meta.IsMinimized {
			handles = append(handles, hnd)
		}
	}
	if len(handles) == 0 {
		return nil
	}
	// Cycling starts from the window last reported focused on this
	// workspace, or from the first window when none is known.
	idx := 0
	if cur := c.router.focusedHandle(ws.ID); cur != nil {
		for i, hnd := range handles {
			if hnd == *cur {
				idx = i
			}
		}
	}
	next := ((idx + dir) % len(handles) + len(handles)) % len(handles)
	return c.port.Raise(ctx, handles[next])
}

// ActivateWorkspace activates the workspace at index on monitorID.
func (c *Coordinator) ActivateWorkspace(ctx context.Context, monitorID models.MonitorID, index int) error {
	mon := c.monitorByID(monitorID)
	if mon == nil {
		return fmt.Errorf("wm: unknown monitor %q", monitorID)
	}
	return mon.ActivateIndex(ctx, index, nil)
}

// ActivateNextWorkspace activates the next workspace, in order, on the
// mouse monitor.
func (c *Coordinator) ActivateNextWorkspace(ctx context.Context) error {
	return c.activateRelative(ctx, 1)
}

// ActivatePreviousWorkspace activates the previous workspace.
func (c *Coordinator) ActivatePreviousWorkspace(ctx context.Context) error {
	return c.activateRelative(ctx, -1)
}

func (c *Coordinator) activateRelative(ctx context.Context, dir int) error {
	mon := c.mouseMonitor(ctx)
	if mon == nil {
		return fmt.Errorf("wm: no monitor under pointer")
	}
	n := len(mon.Workspaces())
	if n == 0 {
		return nil
	}
	next := ((mon.ActiveIndex() + dir) % n + n) % n
	return mon.ActivateIndex(ctx, next, nil)
}

// CreateWorkspace creates a new workspace on monitorID and persists the
// updated list.
func (c *Coordinator) CreateWorkspace(ctx context.Context, monitorID models.MonitorID, name string, kind LayoutKind) (models.WorkspaceID, error) {
	mon := c.monitorByID(monitorID)
	if mon == nil {
		return models.WorkspaceID{}, fmt.Errorf("wm: unknown monitor %q", monitorID)
	}
	ws := NewWorkspace(name, monitorID, kind, c.registry, c.classifier, c.port, c.onEvent, c.log)
	mon.Append(ws)
	if err := c.persist(ctx, mon); err != nil {
		c.log.WithError(err).Warn("coordinator.create_workspace.persist_failed")
	}
	return ws.ID, nil
}

// RemoveWorkspace removes a workspace, reassigning its windows to the first
// other workspace on its monitor. If the removed workspace was active, the
// workspace that takes its place as active is activated. Fails with
// ErrLastWorkspace if it is the only workspace on its monitor.
func (c *Coordinator) RemoveWorkspace(ctx context.Context, id models.WorkspaceID) error {
	for _, mon := range c.Monitors() {
		idx := -1
		var target *Workspace
		for i, ws := range mon.Workspaces() {
			if ws.ID == id {
				idx, target = i, ws
				break
			}
		}
		if target == nil {
			continue
		}
		survivor := c.sibling(mon, idx)
		if survivor == nil {
			return ErrLastWorkspace
		}
		for _, h := range target.Tree().allWindows() {
			target.Release(h)
			if err := survivor.Adopt(ctx, h, 0, mon.VisibleFrame()); err != nil {
				c.log.WithError(err).WithField("handle", h).Warn("coordinator.remove_workspace.reassign_failed")
			}
		}
		if err := mon.Remove(idx); err != nil {
			return err
		}
		if ws := mon.Active(); ws != nil && ws.State() != Active {
			ws.Activate(ctx, mon.VisibleFrame())
		}
		c.reconciler.RequestRetile(survivor)
		return c.persist(ctx, mon)
	}
	return fmt.Errorf("wm: unknown workspace %s", id)
}

func (c *Coordinator) sibling(mon *Monitor, idx int) *Workspace {
	wss := mon.Workspaces()
	if len(wss) <= 1 {
		return nil
	}
	for i, ws := range wss {
		if i != idx {
			return ws
		}
	}
	return nil
}

// SetGaps updates the outer/inner gap configuration and retiles every
// workspace.
func (c *Coordinator) SetGaps(outer, inner float64) {
	c.mu.Lock()
	c.cfg.Gaps = Gaps{Outer: outer, Inner: inner}
	c.mu.Unlock()
	c.reconciler.SetGaps(Gaps{Outer: outer, Inner: inner})
	for _, mon := range c.Monitors() {
		for _, ws := range mon.Workspaces() {
			c.reconciler.RequestRetile(ws)
		}
	}
}

// ToggleFloat flips handle's user float override, flushes the classifier's
// memoized decision for it, and requests retile on its owning workspace so
// the change actually takes effect.
func (c *Coordinator) ToggleFloat(handle models.WindowHandle) {
	meta, _ := c.registry.Meta(handle)
	c.registry.SetUserFloat(handle, !meta.IsFloating)
	c.classifier.Invalidate(handle)
	if wsID, ok := c.registry.Owner(handle); ok {
		for _, mon := range c.Monitors() {
			for _, ws := range mon.Workspaces() {
				if ws.ID == wsID {
					c.reconciler.RequestRetile(ws)
					return
				}
			}
		}
	}
}

func (c *Coordinator) monitorByID(id models.MonitorID) *Monitor {
	for _, mon := range c.Monitors() {
		if mon.ID() == id {
			return mon
		}
	}
	return nil
}
