package wm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostplexx/yuki/pkg/models"
)

func TestRegistryBindAndOwner(t *testing.T) {
	r := NewRegistry()
	ws := models.NewWorkspaceID()
	require.NoError(t, r.Bind(h("a"), ws, 100))

	got, ok := r.Owner(h("a"))
	require.True(t, ok)
	assert.Equal(t, ws, got)
}

func TestRegistryBindConflictRejected(t *testing.T) {
	r := NewRegistry()
	ws1, ws2 := models.NewWorkspaceID(), models.NewWorkspaceID()
	require.NoError(t, r.Bind(h("a"), ws1, 100))
	err := r.Bind(h("a"), ws2, 100)
	assert.ErrorIs(t, err, ErrRegistryConflict)
}

func TestRegistryRebindSameWorkspaceIsNoop(t *testing.T) {
	r := NewRegistry()
	ws := models.NewWorkspaceID()
	require.NoError(t, r.Bind(h("a"), ws, 100))
	assert.NoError(t, r.Bind(h("a"), ws, 100))
}

func TestRegistryUnbindRemovesOwnership(t *testing.T) {
	r := NewRegistry()
	ws := models.NewWorkspaceID()
	require.NoError(t, r.Bind(h("a"), ws, 100))
	r.Unbind(h("a"))
	_, ok := r.Owner(h("a"))
	assert.False(t, ok)
}

func TestRegistryOwnerUnknownHandle(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Owner(h("nope"))
	assert.False(t, ok)
}

func TestRegistryDropAllForPIDReturnsAffectedWorkspaces(t *testing.T) {
	r := NewRegistry()
	ws1, ws2 := models.NewWorkspaceID(), models.NewWorkspaceID()
	require.NoError(t, r.Bind(h("a"), ws1, 42))
	require.NoError(t, r.Bind(h("b"), ws1, 42))
	require.NoError(t, r.Bind(h("c"), ws2, 42))
	require.NoError(t, r.Bind(h("d"), ws2, 7))

	affected := r.DropAllForPID(42)
	assert.ElementsMatch(t, []models.WorkspaceID{ws1, ws2}, affected)

	_, ok := r.Owner(h("a"))
	assert.False(t, ok)
	_, ok = r.Owner(h("d"))
	assert.True(t, ok, "pid 7's window must survive dropping pid 42")
}

func TestRegistryDropAllForPIDIdempotent(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.DropAllForPID(999))
}

func TestRegistryUpdateMetaPreservesUserFloatOverride(t *testing.T) {
	r := NewRegistry()
	r.SetUserFloat(h("a"), true)

	r.UpdateMeta(models.WindowSnapshot{Handle: h("a"), Title: "renamed", BundleID: "com.example.app"})

	meta, ok := r.Meta(h("a"))
	require.True(t, ok)
	assert.True(t, meta.IsFloating, "UpdateMeta must not clobber a user override")
	assert.Equal(t, "renamed", meta.Title)
	assert.Equal(t, "com.example.app", meta.BundleID)
}

func TestRegistrySetMinimizedOnlyAffectsKnownHandle(t *testing.T) {
	r := NewRegistry()
	r.SetMinimized(h("nope"), true)
	_, ok := r.Meta(h("nope"))
	assert.False(t, ok, "SetMinimized must not create a meta entry for an unknown handle")

	r.UpdateMeta(models.WindowSnapshot{Handle: h("a")})
	r.SetMinimized(h("a"), true)
	meta, ok := r.Meta(h("a"))
	require.True(t, ok)
	assert.True(t, meta.IsMinimized)
}

func TestRegistryMetaUnknownHandleReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Meta(h("nope"))
	assert.False(t, ok)
}

func TestRegistryUnbindAndDropAllForPIDClearMeta(t *testing.T) {
	r := NewRegistry()
	ws := models.NewWorkspaceID()
	require.NoError(t, r.Bind(h("a"), ws, 42))
	r.UpdateMeta(models.WindowSnapshot{Handle: h("a")})
	r.Unbind(h("a"))
	_, ok := r.Meta(h("a"))
	assert.False(t, ok)

	require.NoError(t, r.Bind(h("b"), ws, 42))
	r.UpdateMeta(models.WindowSnapshot{Handle: h("b")})
	r.DropAllForPID(42)
	_, ok = r.Meta(h("b"))
	assert.False(t, ok)
}

func TestRegistryLRUCacheEvictsOldestBeyondCapacity(t *testing.T) {
	r := NewRegistry()
	ws := models.NewWorkspaceID()
	for i := 0; i < lruCacheSize+10; i++ {
		handle := models.WindowHandle(fmt.Sprintf("w%d", i))
		require.NoError(t, r.Bind(handle, ws, 1))
	}
	assert.LessOrEqual(t, r.cacheLRU.Len(), lruCacheSize)
}
