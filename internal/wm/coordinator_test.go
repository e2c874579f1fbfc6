package wm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostplexx/yuki/internal/platform/fake"
	"github.com/frostplexx/yuki/pkg/models"
)

// memoryStore is a minimal in-memory PersistenceStore for coordinator
// tests; it never touches disk.
type memoryStore struct {
	records map[models.MonitorID][]WorkspaceRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[models.MonitorID][]WorkspaceRecord)}
}

func (s *memoryStore) Load(ctx context.Context, monitorID models.MonitorID) ([]WorkspaceRecord, error) {
	return s.records[monitorID], nil
}

func (s *memoryStore) Save(ctx context.Context, monitorID models.MonitorID, records []WorkspaceRecord) error {
	s.records[monitorID] = records
	return nil
}

var _ PersistenceStore = (*memoryStore)(nil)

func newTestCoordinator(t *testing.T) (*Coordinator, *fake.Port) {
	t.Helper()
	port := fake.New()
	port.SetDisplays([]models.MonitorDescriptor{
		{ID: "m0", Name: "m0", Frame: models.NewRectangle(0, 0, 1920, 1080), VisibleFrame: models.NewRectangle(0, 0, 1920, 1040), IsPrimary: true},
	})
	cfg := Config{Gaps: Gaps{Outer: 4, Inner: 4}, WorkerPoolSize: 1, ReconcileDebounceMs: 1, GeometryRetryMs: 1}
	c, err := NewCoordinator(context.Background(), port, newMemoryStore(), cfg, nil, testLogger())
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c, port
}

func TestNewCoordinatorCreatesDefaultWorkspaces(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mons := c.Monitors()
	require.Len(t, mons, 1)
	wss := mons[0].Workspaces()
	require.Len(t, wss, 2)
	assert.Equal(t, "Default", wss[0].Name)
	assert.Equal(t, KindBSP, wss[0].RootKind())
	assert.Equal(t, "Secondary", wss[1].Name)
	assert.Equal(t, KindHStack, wss[1].RootKind())
}

func TestNewCoordinatorActivatesFirstWorkspace(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mon := c.Monitors()[0]
	assert.Equal(t, 0, mon.ActiveIndex())
	assert.Equal(t, Active, mon.Active().State())
}

func TestNewCoordinatorPersistsDefaultRecords(t *testing.T) {
	port := fake.New()
	port.SetDisplays([]models.MonitorDescriptor{{ID: "m0", Name: "m0", Frame: models.NewRectangle(0, 0, 1920, 1080), VisibleFrame: models.NewRectangle(0, 0, 1920, 1040)}})
	store := newMemoryStore()
	c, err := NewCoordinator(context.Background(), port, store, Config{WorkerPoolSize: 1}, nil, testLogger())
	require.NoError(t, err)
	defer c.Stop()

	recs := store.records[models.MonitorID("m0")]
	require.Len(t, recs, 2)
}

func TestCoordinatorReloadsPersistedWorkspaces(t *testing.T) {
	port := fake.New()
	port.SetDisplays([]models.MonitorDescriptor{{ID: "m0", Name: "m0", Frame: models.NewRectangle(0, 0, 1920, 1080), VisibleFrame: models.NewRectangle(0, 0, 1920, 1040)}})
	store := newMemoryStore()
	existingID := models.NewWorkspaceID()
	store.records[models.MonitorID("m0")] = []WorkspaceRecord{
		{ID: existingID, Name: "Solo", LayoutKind: KindZStack},
	}

	c, err := NewCoordinator(context.Background(), port, store, Config{WorkerPoolSize: 1}, nil, testLogger())
	require.NoError(t, err)
	defer c.Stop()

	wss := c.Monitors()[0].Workspaces()
	require.Len(t, wss, 1)
	assert.Equal(t, existingID, wss[0].ID)
	assert.Equal(t, "Solo", wss[0].Name)
}

func TestCoordinatorCycleLayoutOnMouseMonitor(t *testing.T) {
	c, port := newTestCoordinator(t)
	port.SetPointerLocation(models.Point{X: 100, Y: 100})

	before := c.Monitors()[0].Active().RootKind()
	c.CycleLayoutOnMouseMonitor(context.Background())
	after := c.Monitors()[0].Active().RootKind()
	assert.NotEqual(t, before, after)
	assert.Equal(t, NextCycleKind(before), after)
}

func TestCoordinatorSetLayoutOnMouseMonitor(t *testing.T) {
	c, port := newTestCoordinator(t)
	port.SetPointerLocation(models.Point{X: 100, Y: 100})
	c.SetLayoutOnMouseMonitor(context.Background(), KindZStack)
	assert.Equal(t, KindZStack, c.Monitors()[0].Active().RootKind())
}

func TestCoordinatorActivateWorkspaceByIndex(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mon := c.Monitors()[0]
	require.NoError(t, c.ActivateWorkspace(context.Background(), mon.ID(), 1))
	assert.Equal(t, 1, mon.ActiveIndex())
}

func TestCoordinatorActivateWorkspaceUnknownMonitor(t *testing.T) {
	c, _ := newTestCoordinator(t)
	err := c.ActivateWorkspace(context.Background(), models.MonitorID("nope"), 0)
	assert.Error(t, err)
}

func TestCoordinatorActivateNextAndPreviousWorkspaceWrap(t *testing.T) {
	c, port := newTestCoordinator(t)
	port.SetPointerLocation(models.Point{X: 100, Y: 100})
	mon := c.Monitors()[0]

	require.NoError(t, c.ActivateNextWorkspace(context.Background()))
	assert.Equal(t, 1, mon.ActiveIndex())

	require.NoError(t, c.ActivateNextWorkspace(context.Background()))
	assert.Equal(t, 0, mon.ActiveIndex())

	require.NoError(t, c.ActivatePreviousWorkspace(context.Background()))
	assert.Equal(t, 1, mon.ActiveIndex())
}

func TestCoordinatorCreateAndRemoveWorkspace(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mon := c.Monitors()[0]

	id, err := c.CreateWorkspace(context.Background(), mon.ID(), "Extra", KindVStack)
	require.NoError(t, err)
	assert.Len(t, mon.Workspaces(), 3)

	require.NoError(t, c.RemoveWorkspace(context.Background(), id))
	assert.Len(t, mon.Workspaces(), 2)
}

func TestCoordinatorRemoveWorkspaceReassignsWindows(t *testing.T) {
	c, port := newTestCoordinator(t)
	mon := c.Monitors()[0]
	wss := mon.Workspaces()
	doomed := wss[1]

	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	require.NoError(t, doomed.Adopt(context.Background(), h("a"), 1, mon.VisibleFrame()))

	require.NoError(t, c.RemoveWorkspace(context.Background(), doomed.ID))

	survivor := mon.Workspaces()[0]
	assert.Contains(t, survivor.Tree().allWindows(), h("a"))
}

func TestCoordinatorRemoveWorkspaceUnknownID(t *testing.T) {
	c, _ := newTestCoordinator(t)
	err := c.RemoveWorkspace(context.Background(), models.NewWorkspaceID())
	assert.Error(t, err)
}

func TestCoordinatorRemoveLastWorkspaceOnMonitorFails(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mon := c.Monitors()[0]
	wss := mon.Workspaces()
	require.NoError(t, c.RemoveWorkspace(context.Background(), wss[1].ID))

	err := c.RemoveWorkspace(context.Background(), wss[0].ID)
	assert.ErrorIs(t, err, ErrLastWorkspace)
}

func TestCoordinatorSetGapsUpdatesConfigAndRetilesWorkspaces(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.SetGaps(10, 5)
	c.mu.Lock()
	gaps := c.cfg.Gaps
	c.mu.Unlock()
	assert.Equal(t, Gaps{Outer: 10, Inner: 5}, gaps)

	wss := c.Monitors()[0].Workspaces()
	c.reconciler.mu.Lock()
	defer c.reconciler.mu.Unlock()
	for _, ws := range wss {
		_, scheduled := c.reconciler.schedules[ws.ID]
		assert.True(t, scheduled, "workspace %s must have a retile scheduled", ws.Name)
	}
}

func TestCoordinatorToggleFloatDoesNotPanicOnUnownedHandle(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.ToggleFloat(h("unowned"))
}

func TestCoordinatorToggleFloatExcludesWindowFromTiling(t *testing.T) {
	c, port := newTestCoordinator(t)
	mon := c.Monitors()[0]
	port.AddWindow(models.WindowSnapshot{Handle: h("a"), Frame: models.NewRectangle(0, 0, 800, 600)})
	port.AddWindow(models.WindowSnapshot{Handle: h("b"), Frame: models.NewRectangle(0, 0, 800, 600)})
	ws := mon.Active()
	ctx := context.Background()
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, mon.VisibleFrame()))
	require.NoError(t, ws.Adopt(ctx, h("b"), 2, mon.VisibleFrame()))
	ws.ReconcileNow(ctx, c.cfg.Gaps, mon.VisibleFrame(), 0)

	before, ok := port.LastWrite(h("a"))
	require.True(t, ok)

	c.ToggleFloat(h("a"))
	ws.ReconcileNow(ctx, c.cfg.Gaps, mon.VisibleFrame(), 0)

	after, ok := port.LastWrite(h("a"))
	require.True(t, ok)
	assert.True(t, after.ApproxEqual(before, 0.01), "floated window must not receive a new tiled geometry")
}
