package wm

import (
	"container/list"
	"sync"

	"github.com/frostplexx/yuki/pkg/models"
)

// lruCacheSize is the "most recent 100 window->workspace lookups" cache
// size.
const lruCacheSize = 100

// Registry is the single process-wide mapping from window handle to owning
// workspace. It is the tie-breaker during crash recovery:
// LayoutTrees reconcile to it, never the other way around.
type Registry struct {
	mu sync.Mutex

	owners map[models.WindowHandle]models.WorkspaceID
	pids   map[models.WindowHandle]models.PID
	meta   map[models.WindowHandle]*models.Window

	// cache accelerates Owner lookups with a bounded LRU. Eviction here
	// never touches owners: it only drops the acceleration structure.
	cache    map[models.WindowHandle]*list.Element
	cacheLRU *list.List
}

type cacheEntry struct {
	handle models.WindowHandle
	wsID   models.WorkspaceID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		owners:   make(map[models.WindowHandle]models.WorkspaceID),
		pids:     make(map[models.WindowHandle]models.PID),
		meta:     make(map[models.WindowHandle]*models.Window),
		cache:    make(map[models.WindowHandle]*list.Element),
		cacheLRU: list.New(),
	}
}

// Bind records that handle is owned by workspace. Fails with
// ErrRegistryConflict if the handle is already bound to a different
// workspace.
func (r *Registry) Bind(handle models.WindowHandle, workspace models.WorkspaceID, pid models.PID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.owners[handle]; ok && existing != workspace {
		return ErrRegistryConflict
	}
	r.owners[handle] = workspace
	r.pids[handle] = pid
	r.touchCacheLocked(handle, workspace)
	return nil
}

// Unbind removes handle's ownership record, if any.
func (r *Registry) Unbind(handle models.WindowHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, handle)
	delete(r.pids, handle)
	delete(r.meta, handle)
	if el, ok := r.cache[handle]; ok {
		r.cacheLRU.Remove(el)
		delete(r.cache, handle)
	}
}

// UpdateMeta records the platform-observed attributes of a window, used by
// the FloatClassifier. Any user float override already set for handle is
// preserved.
func (r *Registry) UpdateMeta(snap models.WindowSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.meta[snap.Handle]
	if !ok {
		w = &models.Window{Handle: snap.Handle}
		r.meta[snap.Handle] = w
	}
	w.ApplyUpdate(snap)
}

// SetMinimized updates handle's tracked minimized flag without requiring a
// full snapshot.
func (r *Registry) SetMinimized(handle models.WindowHandle, minimized bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.meta[handle]; ok {
		w.IsMinimized = minimized
	}
}

// SetUserFloat sets handle's user-override float flag, creating a meta
// entry if none exists yet.
func (r *Registry) SetUserFloat(handle models.WindowHandle, floating bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.meta[handle]
	if !ok {
		w = &models.Window{Handle: handle}
		r.meta[handle] = w
	}
	w.IsFloating = floating
}

// Meta returns the tracked attributes for handle, if any have been
// recorded via UpdateMeta.
func (r *Registry) Meta(handle models.WindowHandle) (models.Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.meta[handle]
	if !ok {
		return models.Window{}, false
	}
	return *w, true
}

// Owner returns the workspace that owns handle, if any.
func (r *Registry) Owner(handle models.WindowHandle) (models.WorkspaceID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.cache[handle]; ok {
		r.cacheLRU.MoveToFront(el)
		return el.Value.(*cacheEntry).wsID, true
	}
	wsID, ok := r.owners[handle]
	if ok {
		r.touchCacheLocked(handle, wsID)
	}
	return wsID, ok
}

// DropAllForPID unbinds every handle owned by pid and returns the set of
// workspaces that lost a window, so the caller can request retile on each.
// Idempotent: calling it for a pid with no tracked windows is a no-op.
func (r *Registry) DropAllForPID(pid models.PID) []models.WorkspaceID {
	r.mu.Lock()
	defer r.mu.Unlock()

	affected := make(map[models.WorkspaceID]bool)
	var toDrop []models.WindowHandle
	for h, p := range r.pids {
		if p == pid {
			toDrop = append(toDrop, h)
			affected[r.owners[h]] = true
		}
	}
	for _, h := range toDrop {
		delete(r.owners, h)
		delete(r.pids, h)
		delete(r.meta, h)
		if el, ok := r.cache[h]; ok {
			r.cacheLRU.Remove(el)
			delete(r.cache, h)
		}
	}

	out := make([]models.WorkspaceID, 0, len(affected))
	for ws := range affected {
		out = append(out, ws)
	}
	return out
}

// touchCacheLocked inserts or refreshes handle's LRU cache entry, evicting
// the oldest entry once the cache exceeds lruCacheSize. Must be called with
// r.mu held.
func (r *Registry) touchCacheLocked(handle models.WindowHandle, wsID models.WorkspaceID) {
	if el, ok := r.cache[handle]; ok {
		el.Value.(*cacheEntry).wsID = wsID
		r.cacheLRU.MoveToFront(el)
		return
	}
	el := r.cacheLRU.PushFront(&cacheEntry{handle: handle, wsID: wsID})
	r.cache[handle] = el
	if r.cacheLRU.Len() > lruCacheSize {
		oldest := r.cacheLRU.Back()
		if oldest != nil {
			r.cacheLRU.Remove(oldest)
			delete(r.cache, oldest.Value.(*cacheEntry).handle)
		}
	}
}
