package wm

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostplexx/yuki/internal/platform/fake"
	"github.com/frostplexx/yuki/pkg/models"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger)
}

func newTestWorkspace(t *testing.T, port *fake.Port, kind LayoutKind) *Workspace {
	t.Helper()
	registry := NewRegistry()
	classifier := NewFloatClassifier(nil)
	return NewWorkspace("test", models.MonitorID("mon-0"), kind, registry, classifier, port, nil, testLogger())
}

func TestWorkspaceAdoptBindsAndHidesWhenInactive(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindBSP)
	port.AddWindow(models.WindowSnapshot{Handle: h("a"), Frame: models.NewRectangle(0, 0, 100, 100)})

	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(context.Background(), h("a"), 1, visible))

	assert.Equal(t, 1, ws.WindowCount())
	frame, ok := port.LastWrite(h("a"))
	require.True(t, ok)
	hide := HideRegion(visible)
	assert.InDelta(t, hide.X, frame.X, 0.01)
	assert.InDelta(t, hide.Y, frame.Y, 0.01)
}

func TestWorkspaceAdoptConflictPropagates(t *testing.T) {
	port := fake.New()
	registry := NewRegistry()
	classifier := NewFloatClassifier(nil)
	ws1 := NewWorkspace("one", models.MonitorID("mon-0"), KindBSP, registry, classifier, port, nil, testLogger())
	ws2 := NewWorkspace("two", models.MonitorID("mon-0"), KindBSP, registry, classifier, port, nil, testLogger())

	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws1.Adopt(ctx, h("a"), 1, visible))
	err := ws2.Adopt(ctx, h("a"), 1, visible)
	assert.ErrorIs(t, err, ErrRegistryConflict)
}

func TestWorkspaceReleaseUnbindsAndDropsSavedGeometry(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindBSP)
	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))

	ws.Release(h("a"))
	assert.Equal(t, 0, ws.WindowCount())
	_, ok := ws.registry.Owner(h("a"))
	assert.False(t, ok)
}

func TestWorkspaceActivateRestoresSavedGeometry(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindFloat)
	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))

	saved := models.NewRectangle(10, 20, 300, 400)
	ws.saved.Frames[h("a")] = saved

	ws.Activate(ctx, visible)
	assert.Equal(t, Active, ws.State())

	frame, ok := port.LastWrite(h("a"))
	require.True(t, ok)
	assert.True(t, frame.ApproxEqual(saved, 0.01))
}

func TestWorkspaceActivateIsNoopWhenAlreadyActive(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindFloat)
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	ws.Activate(ctx, visible)
	require.Equal(t, Active, ws.State())
	ws.Activate(ctx, visible)
	assert.Equal(t, Active, ws.State())
}

func TestWorkspaceDeactivateHidesWindowsAndSnapshotsGeometry(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindFloat)
	port.AddWindow(models.WindowSnapshot{Handle: h("a"), Frame: models.NewRectangle(5, 5, 200, 200)})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))
	ws.Activate(ctx, visible)

	focused := h("a")
	ws.Deactivate(ctx, visible, &focused)
	assert.Equal(t, Inactive, ws.State())

	frame, ok := port.LastWrite(h("a"))
	require.True(t, ok)
	hide := HideRegion(visible)
	assert.InDelta(t, hide.X, frame.X, 0.01)
}

func TestWorkspaceSetLayoutAndCycle(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindBSP)
	ws.SetLayout(KindZStack)
	assert.Equal(t, KindZStack, ws.RootKind())

	ws.CycleLayout()
	assert.Equal(t, KindFloat, ws.RootKind())
}

func TestWorkspaceReconcileNowSkipsWhenInactive(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindBSP)
	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))

	geoms := ws.ReconcileNow(ctx, Gaps{}, visible, 0)
	assert.Nil(t, geoms)
}

func TestWorkspaceReconcileNowAppliesLayoutWhenActive(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindHStack)
	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	port.AddWindow(models.WindowSnapshot{Handle: h("b")})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))
	require.NoError(t, ws.Adopt(ctx, h("b"), 1, visible))
	ws.Activate(ctx, visible)

	geoms := ws.ReconcileNow(ctx, Gaps{}, visible, 0)
	assert.Len(t, geoms, 2)
	assert.False(t, ws.NeedsRetile())
}

func TestWorkspaceReconcileNowExcludesUserFloatedWindowFromTiling(t *testing.T) {
	port := fake.New()
	registry := NewRegistry()
	classifier := NewFloatClassifier(nil)
	ws := NewWorkspace("test", models.MonitorID("mon-0"), KindBSP, registry, classifier, port, nil, testLogger())
	port.AddWindow(models.WindowSnapshot{Handle: h("a"), Frame: models.NewRectangle(0, 0, 800, 600)})
	port.AddWindow(models.WindowSnapshot{Handle: h("b"), Frame: models.NewRectangle(0, 0, 800, 600)})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))
	require.NoError(t, ws.Adopt(ctx, h("b"), 1, visible))
	ws.Activate(ctx, visible)

	registry.SetUserFloat(h("a"), true)
	geoms := ws.ReconcileNow(ctx, Gaps{}, visible, 0)

	_, floated := geoms[h("a")]
	assert.False(t, floated, "user-floated window must not receive a tiled geometry")
	assert.True(t, geoms[h("b")].ApproxEqual(visible, 0.01), "sole remaining tileable window should fill the region")
}

func TestWorkspaceReconcileNowExcludesMinimizedWindowFromTiling(t *testing.T) {
	port := fake.New()
	registry := NewRegistry()
	classifier := NewFloatClassifier(nil)
	ws := NewWorkspace("test", models.MonitorID("mon-0"), KindBSP, registry, classifier, port, nil, testLogger())
	port.AddWindow(models.WindowSnapshot{Handle: h("a"), Frame: models.NewRectangle(0, 0, 800, 600)})
	port.AddWindow(models.WindowSnapshot{Handle: h("b"), Frame: models.NewRectangle(0, 0, 800, 600)})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))
	require.NoError(t, ws.Adopt(ctx, h("b"), 1, visible))
	ws.Activate(ctx, visible)

	registry.UpdateMeta(models.WindowSnapshot{Handle: h("a"), IsMinimized: true})
	geoms := ws.ReconcileNow(ctx, Gaps{}, visible, 0)

	_, minimized := geoms[h("a")]
	assert.False(t, minimized, "minimized window must not receive a tiled geometry")
	assert.Len(t, geoms, 1)
}

func TestWorkspaceReconcileNowSkipsWhenFloat(t *testing.T) {
	port := fake.New()
	ws := newTestWorkspace(t, port, KindFloat)
	port.AddWindow(models.WindowSnapshot{Handle: h("a")})
	ctx := context.Background()
	visible := models.NewRectangle(0, 0, 1000, 1000)
	require.NoError(t, ws.Adopt(ctx, h("a"), 1, visible))
	ws.Activate(ctx, visible)

	geoms := ws.ReconcileNow(ctx, Gaps{}, visible, 0)
	assert.Nil(t, geoms)
}
