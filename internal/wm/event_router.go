package wm

import (
	"context"
	"sync"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/pkg/models"
	"github.com/sirupsen/logrus"
)

// MonitorsFunc returns the current ordered set of monitors. The EventRouter
// never owns Monitor lifetime; Coordinator does.
type MonitorsFunc func() []*Monitor

// EventRouter consumes PlatformPort events from a bounded queue on its own
// goroutine and dispatches each by kind to the matching handler. It replaces
// OS-callback trampolines with a channel-and-timer idiom.
type EventRouter struct {
	registry   *Registry
	classifier *FloatClassifier
	reconciler *Reconciler
	port       platform.Port
	monitors   MonitorsFunc
	onEvent    func(models.Event)
	log        *logrus.Entry

	queue       chan platform.Event
	unsubscribe func()
	quit        chan struct{}
	wg          sync.WaitGroup

	mu        sync.Mutex
	focused   map[models.WorkspaceID]models.WindowHandle
	suspended bool
}

// NewEventRouter builds a router bound to the given collaborators. Start
// must be called to begin consuming events.
func NewEventRouter(registry *Registry, classifier *FloatClassifier, reconciler *Reconciler, port platform.Port, monitors MonitorsFunc, onEvent func(models.Event), log *logrus.Entry) *EventRouter {
	return &EventRouter{
		registry:   registry,
		classifier: classifier,
		reconciler: reconciler,
		port:       port,
		monitors:   monitors,
		onEvent:    onEvent,
		log:        log,
		queue:      make(chan platform.Event, 512),
		quit:       make(chan struct{}),
		focused:    make(map[models.WorkspaceID]models.WindowHandle),
	}
}

// Start subscribes to the port and begins the single-owner processing
// loop. The port's callback only ever pushes to a buffered channel,
// never blocking the port's dedicated event thread.
func (r *EventRouter) Start() {
	r.unsubscribe = r.port.Subscribe(func(ev platform.Event) {
		select {
		case r.queue <- ev:
		default:
			r.log.Warn("event_router.queue_full_dropping_event")
		}
	})
	r.wg.Add(1)
	go r.loop()
}

// Stop unsubscribes from the port and terminates the processing loop.
func (r *EventRouter) Stop() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	close(r.quit)
	r.wg.Wait()
}

func (r *EventRouter) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.quit:
			return
		case ev := <-r.queue:
			r.handle(context.Background(), ev)
		}
	}
}

func (r *EventRouter) handle(ctx context.Context, ev platform.Event) {
	r.mu.Lock()
	suspended := r.suspended
	r.mu.Unlock()

	switch ev.Kind {
	case platform.EventSystemSleep:
		r.mu.Lock()
		r.suspended = true
		r.mu.Unlock()
		r.classifier.Flush()
		return
	case platform.EventSystemWake:
		r.mu.Lock()
		r.suspended = false
		r.mu.Unlock()
		return
	}
	if suspended {
		return
	}

	switch ev.Kind {
	case platform.EventWindowCreated:
		r.onWindowCreated(ctx, ev)
	case platform.EventWindowDestroyed:
		r.onWindowDestroyed(ctx, ev)
	case platform.EventAppTerminated:
		r.onAppTerminated(ev)
	case platform.EventWindowMoved, platform.EventWindowResized:
		r.onWindowMovedResized(ev)
	case platform.EventWindowMinimized:
		r.onMinimizeChanged(ev, true)
	case platform.EventWindowDeminimized:
		r.onMinimizeChanged(ev, false)
	case platform.EventWindowFocusChanged:
		r.onFocusChanged(ev)
	case platform.EventAppActivated:
		r.onAppActivated(ctx, ev)
	case platform.EventSpaceChanged:
		r.onSpaceChanged(ctx)
	case platform.EventDisplayChanged:
		r.onDisplayChanged(ctx)
	}
}

// onWindowCreated resolves the target workspace by pointer location and
// adopts the new window.
func (r *EventRouter) onWindowCreated(ctx context.Context, ev platform.Event) {
	mon := r.mouseMonitor(ctx)
	if mon == nil {
		return
	}
	ws := mon.Active()
	if ws == nil {
		return
	}

	r.registry.UpdateMeta(r.snapshotFor(ctx, ev.Handle, ev.PID))

	if err := ws.Adopt(ctx, ev.Handle, ev.PID, mon.VisibleFrame()); err != nil {
		r.log.WithError(err).WithField("handle", ev.Handle).Warn("event_router.adopt_failed")
		return
	}
	r.reconciler.RequestRetile(ws)
}

// onWindowDestroyed releases the window from its owner, trying the
// fast-path synchronous reconciliation before falling back to the
// debounced path.
func (r *EventRouter) onWindowDestroyed(ctx context.Context, ev platform.Event) {
	wsID, ok := r.registry.Owner(ev.Handle)
	if !ok {
		return
	}
	ws := r.findWorkspace(wsID)
	if ws == nil {
		return
	}
	ws.Release(ev.Handle)
	r.classifier.Invalidate(ev.Handle)

	r.emit("window-closed", models.WindowClosedEvent{Handle: ev.Handle})

	if r.reconciler.FastPathDestroy(ctx, ws) {
		return
	}
	r.reconciler.RequestRetile(ws)
}

// onAppTerminated drops every window owned by the dying process and
// requests retile on every affected workspace.
func (r *EventRouter) onAppTerminated(ev platform.Event) {
	affected := r.registry.DropAllForPID(ev.PID)
	for _, wsID := range affected {
		if ws := r.findWorkspace(wsID); ws != nil {
			r.reconciler.RequestRetile(ws)
		}
	}
}

// onWindowMovedResized relays the move/resize as a notification and, if
// the owner is Active and not floating, requests a debounced retile. No
// geometry cache is kept or updated.
func (r *EventRouter) onWindowMovedResized(ev platform.Event) {
	wsID, ok := r.registry.Owner(ev.Handle)
	if !ok {
		return
	}
	ws := r.findWorkspace(wsID)
	if ws == nil {
		return
	}

	if ev.Kind == platform.EventWindowMoved {
		r.emit("window-moved", models.WindowMovedEvent{Handle: ev.Handle, Frame: ev.Frame})
	} else {
		r.emit("window-resized", models.WindowResizedEvent{Handle: ev.Handle, Frame: ev.Frame})
	}

	if ws.State() == Active && ws.RootKind() != KindFloat {
		r.reconciler.RequestRetile(ws)
	}
}

// onMinimizeChanged updates the window flag, flushes the classifier's
// memoized decision, and requests retile.
func (r *EventRouter) onMinimizeChanged(ev platform.Event, minimized bool) {
	r.registry.SetMinimized(ev.Handle, minimized)
	r.classifier.Invalidate(ev.Handle)

	if minimized {
		r.emit("window-minimized", models.WindowMinimizedEvent{Handle: ev.Handle})
	} else {
		r.emit("window-unminimized", models.WindowUnminimizedEvent{Handle: ev.Handle})
	}

	if wsID, ok := r.registry.Owner(ev.Handle); ok {
		if ws := r.findWorkspace(wsID); ws != nil {
			r.reconciler.RequestRetile(ws)
		}
	}
}

// onFocusChanged updates the focused marker without requesting retile.
func (r *EventRouter) onFocusChanged(ev platform.Event) {
	wsID, ok := r.registry.Owner(ev.Handle)
	if !ok {
		return
	}
	r.mu.Lock()
	r.focused[wsID] = ev.Handle
	r.mu.Unlock()
}

// onAppActivated locates a workspace containing any window of the
// activated application and activates it if it isn't already active.
func (r *EventRouter) onAppActivated(ctx context.Context, ev platform.Event) {
	for _, mon := range r.monitors() {
		for i, ws := range mon.Workspaces() {
			for _, h := range ws.Tree().allWindows() {
				w, ok := r.registry.Meta(h)
				if ok && w.OwningPID == ev.PID && ws.State() != Active {
					// The workspace being deactivated snapshots its own
					// focused window.
					var focused *models.WindowHandle
					if prev := mon.Active(); prev != nil {
						focused = r.focusedHandle(prev.ID)
					}
					_ = mon.ActivateIndex(ctx, i, focused)
					r.reconciler.ScheduleSettledReconcile(ws)
					return
				}
			}
		}
	}
}

// onSpaceChanged requests retile on the mouse-monitor's active workspace.
func (r *EventRouter) onSpaceChanged(ctx context.Context) {
	mon := r.mouseMonitor(ctx)
	if mon == nil {
		return
	}
	if ws := mon.Active(); ws != nil {
		r.reconciler.RequestRetile(ws)
	}
}

// onDisplayChanged re-enumerates displays and applies the fresh descriptor
// to every monitor already known by id, requesting a retile of the active
// workspace of each monitor whose rectangle changed. A display that
// appears is not added as a monitor, a monitor whose display is gone is not
// removed, and no workspace is moved between monitors.
func (r *EventRouter) onDisplayChanged(ctx context.Context) {
	descs, err := r.port.EnumerateDisplays(ctx)
	if err != nil {
		r.log.WithError(err).Warn("event_router.enumerate_displays_failed")
		return
	}
	byID := make(map[models.MonitorID]models.MonitorDescriptor, len(descs))
	for _, d := range descs {
		byID[d.ID] = d
	}
	for _, mon := range r.monitors() {
		if d, ok := byID[mon.ID()]; ok && mon.UpdateDescriptor(d) {
			if ws := mon.Active(); ws != nil {
				r.reconciler.RequestRetile(ws)
			}
		}
	}
	r.emit("display-changed", struct{}{})
}

func (r *EventRouter) findWorkspace(id models.WorkspaceID) *Workspace {
	for _, mon := range r.monitors() {
		for _, ws := range mon.Workspaces() {
			if ws.ID == id {
				return ws
			}
		}
	}
	return nil
}

// snapshotFor enriches a bare created-event handle with the full window
// attributes the FloatClassifier needs, by looking it up in the port's
// current enumeration. Falls back to a bare snapshot if the port doesn't
// (yet) list it.
func (r *EventRouter) snapshotFor(ctx context.Context, handle models.WindowHandle, pid models.PID) models.WindowSnapshot {
	snaps, err := r.port.EnumerateWindows(ctx)
	if err != nil {
		return models.WindowSnapshot{Handle: handle, OwningPID: pid}
	}
	for _, s := range snaps {
		if s.Handle == handle {
			return s
		}
	}
	return models.WindowSnapshot{Handle: handle, OwningPID: pid}
}

func (r *EventRouter) focusedHandle(id models.WorkspaceID) *models.WindowHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.focused[id]; ok {
		return &h
	}
	return nil
}

// mouseMonitor returns the monitor whose frame contains the current
// pointer location, used for focus-follows-mouse-style command targeting.
func (r *EventRouter) mouseMonitor(ctx context.Context) *Monitor {
	pt, err := r.port.PointerLocation(ctx)
	if err != nil {
		return nil
	}
	mons := r.monitors()
	for _, mon := range mons {
		if mon.Frame().Contains(pt) {
			return mon
		}
	}
	if len(mons) > 0 {
		return mons[0]
	}
	return nil
}

func (r *EventRouter) emit(name string, payload interface{}) {
	if r.onEvent != nil {
		r.onEvent(models.Event{Name: name, Payload: payload})
	}
}
