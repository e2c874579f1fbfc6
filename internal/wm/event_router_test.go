package wm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/internal/platform/fake"
	"github.com/frostplexx/yuki/pkg/models"
)

type testRig struct {
	port       *fake.Port
	registry   *Registry
	classifier *FloatClassifier
	reconciler *Reconciler
	router     *EventRouter
	monitor    *Monitor
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	port := fake.New()
	registry := NewRegistry()
	classifier := NewFloatClassifier(nil)
	mon := newTestMonitor("m0")
	ws := NewWorkspace("default", mon.ID(), KindBSP, registry, classifier, port, nil, testLogger())
	mon.Append(ws)
	require.NoError(t, mon.ActivateIndex(context.Background(), 0, nil))

	monitors := func() []*Monitor { return []*Monitor{mon} }
	reconciler := NewReconciler(1, time.Millisecond, time.Millisecond, DefaultFastPathWindowThreshold, Gaps{}, func(ws *Workspace) (models.Rectangle, bool) {
		return mon.VisibleFrame(), true
	}, testLogger())
	router := NewEventRouter(registry, classifier, reconciler, port, monitors, nil, testLogger())

	return &testRig{port: port, registry: registry, classifier: classifier, reconciler: reconciler, router: router, monitor: mon}
}

func TestEventRouterWindowCreatedAdoptsIntoActiveWorkspace(t *testing.T) {
	rig := newTestRig(t)
	rig.router.Start()
	defer rig.router.Stop()
	defer rig.reconciler.Stop()

	rig.port.AddWindow(models.WindowSnapshot{Handle: h("a"), OwningPID: 1})

	require.Eventually(t, func() bool {
		_, ok := rig.registry.Owner(h("a"))
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestEventRouterWindowDestroyedReleasesOwnership(t *testing.T) {
	rig := newTestRig(t)
	rig.router.Start()
	defer rig.router.Stop()
	defer rig.reconciler.Stop()

	rig.port.AddWindow(models.WindowSnapshot{Handle: h("a"), OwningPID: 1})
	require.Eventually(t, func() bool {
		_, ok := rig.registry.Owner(h("a"))
		return ok
	}, time.Second, 5*time.Millisecond)

	rig.port.DestroyWindow(h("a"))
	require.Eventually(t, func() bool {
		_, ok := rig.registry.Owner(h("a"))
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestEventRouterAppTerminatedDropsAllOwnedWindows(t *testing.T) {
	rig := newTestRig(t)
	ws := rig.monitor.Active()
	ctx := context.Background()
	visible := rig.monitor.VisibleFrame()
	require.NoError(t, ws.Adopt(ctx, h("a"), 9, visible))
	require.NoError(t, ws.Adopt(ctx, h("b"), 9, visible))

	rig.router.onAppTerminated(platform.Event{Kind: platform.EventAppTerminated, PID: 9})
	_, ok := rig.registry.Owner(h("a"))
	assert.False(t, ok)
	_, ok = rig.registry.Owner(h("b"))
	assert.False(t, ok)
}

func TestEventRouterSuspendedDropsEvents(t *testing.T) {
	rig := newTestRig(t)
	rig.router.suspended = true
	rig.router.handle(context.Background(), platform.Event{Kind: platform.EventWindowCreated, Handle: h("a"), PID: 1})

	_, ok := rig.registry.Owner(h("a"))
	assert.False(t, ok)
}

func TestEventRouterSystemSleepSuspendsAndWakeResumes(t *testing.T) {
	rig := newTestRig(t)
	rig.router.handle(context.Background(), platform.Event{Kind: platform.EventSystemSleep})
	assert.True(t, rig.router.suspended)

	rig.router.handle(context.Background(), platform.Event{Kind: platform.EventSystemWake})
	assert.False(t, rig.router.suspended)
}

func TestEventRouterFindWorkspaceLocatesByID(t *testing.T) {
	rig := newTestRig(t)
	ws := rig.monitor.Active()
	found := rig.router.findWorkspace(ws.ID)
	assert.Equal(t, ws, found)
}

func TestEventRouterMouseMonitorFallsBackToFirst(t *testing.T) {
	rig := newTestRig(t)
	rig.port.SetPointerLocation(models.Point{X: -100, Y: -100})
	mon := rig.router.mouseMonitor(context.Background())
	require.NotNil(t, mon)
	assert.Equal(t, rig.monitor.ID(), mon.ID())
}

func TestEventRouterFocusChangedTracksFocusedHandlePerWorkspace(t *testing.T) {
	rig := newTestRig(t)
	ws := rig.monitor.Active()
	ctx := context.Background()
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, rig.monitor.VisibleFrame()))

	rig.router.onFocusChanged(platform.Event{Kind: platform.EventWindowFocusChanged, Handle: h("a")})
	assert.Equal(t, h("a"), *rig.router.focusedHandle(ws.ID))
}
