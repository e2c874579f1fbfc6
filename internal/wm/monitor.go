package wm

import (
	"context"
	"fmt"
	"sync"

	"github.com/frostplexx/yuki/pkg/models"
)

// Monitor owns an ordered list of workspaces and tracks which one is
// active. ActivateIndex holds the monitor's lock across the whole
// deactivate/activate pair, so no other monitor operation observes a
// half-switched monitor.
type Monitor struct {
	mu sync.Mutex

	id           models.MonitorID
	name         string
	frame        models.Rectangle
	visibleFrame models.Rectangle
	isPrimary    bool

	workspaces  []*Workspace
	activeIndex int
}

// NewMonitor wires a monitor from a descriptor with no workspaces yet; the
// caller (Coordinator) must Append at least one before the monitor is
// usable, per the "never zero workspaces" invariant.
func NewMonitor(d models.MonitorDescriptor) *Monitor {
	return &Monitor{
		id:           d.ID,
		name:         d.Name,
		frame:        d.Frame,
		visibleFrame: d.VisibleFrame,
		isPrimary:    d.IsPrimary,
		activeIndex:  -1,
	}
}

// ID returns the monitor's stable identifier.
func (m *Monitor) ID() models.MonitorID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// Frame returns the monitor's full rectangle, including menu bar / dock /
// panel reservations.
func (m *Monitor) Frame() models.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// VisibleFrame returns the monitor's current usable rectangle (excludes
// menu bar / dock / panel reservations).
func (m *Monitor) VisibleFrame() models.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleFrame
}

// UpdateDescriptor applies a fresh enumeration result for this monitor
// (display topology changed). If the frame or usable rectangle moved, it
// marks the active workspace as needing a retile and returns true;
// scheduling the reconciliation is the caller's job.
func (m *Monitor) UpdateDescriptor(d models.MonitorDescriptor) (retile bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.frame != d.Frame || m.visibleFrame != d.VisibleFrame
	m.frame = d.Frame
	m.visibleFrame = d.VisibleFrame
	m.name = d.Name
	m.isPrimary = d.IsPrimary
	if changed && m.activeIndex >= 0 {
		m.workspaces[m.activeIndex].RequestRetile("monitor_geometry_changed")
		return true
	}
	return false
}

// Workspaces returns the monitor's ordered workspace list.
func (m *Monitor) Workspaces() []*Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Workspace(nil), m.workspaces...)
}

// Active returns the currently active workspace, or nil if none is active
// yet (true only before the very first ActivateIndex call).
func (m *Monitor) Active() *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeIndex < 0 || m.activeIndex >= len(m.workspaces) {
		return nil
	}
	return m.workspaces[m.activeIndex]
}

// Append adds ws to the end of the monitor's ordered workspace list. It
// does not activate ws; the caller must call ActivateIndex once the
// monitor's initial workspace set is fully built.
func (m *Monitor) Append(ws *Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces = append(m.workspaces, ws)
}

// Remove detaches the workspace at index i. It does not move the
// workspace's windows and does not activate any workspace; the Coordinator
// does both. Refuses to remove the last remaining workspace on a monitor.
func (m *Monitor) Remove(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.workspaces) <= 1 {
		return ErrLastWorkspace
	}
	if i < 0 || i >= len(m.workspaces) {
		return fmt.Errorf("wm: workspace index %d out of range", i)
	}
	m.workspaces = append(m.workspaces[:i], m.workspaces[i+1:]...)
	if i < m.activeIndex {
		m.activeIndex--
	}
	if m.activeIndex >= len(m.workspaces) {
		m.activeIndex = len(m.workspaces) - 1
	}
	return nil
}

// ActivateIndex deactivates the currently active workspace (if any) and
// activates the one at index i, as a single monitor-scoped operation.
// No-op if i is already active.
func (m *Monitor) ActivateIndex(ctx context.Context, i int, focused *models.WindowHandle) error {
	m.mu.Lock()
	if i < 0 || i >= len(m.workspaces) {
		m.mu.Unlock()
		return fmt.Errorf("wm: workspace index %d out of range", i)
	}
	if i == m.activeIndex {
		m.mu.Unlock()
		return nil
	}
	prev := m.activeIndex
	var prevWS *Workspace
	if prev >= 0 {
		prevWS = m.workspaces[prev]
	}
	next := m.workspaces[i]
	visibleFrame := m.visibleFrame

	if prevWS != nil {
		prevWS.Deactivate(ctx, visibleFrame, focused)
	}
	next.Activate(ctx, visibleFrame)

	m.activeIndex = i
	m.mu.Unlock()
	return nil
}

// ActiveIndex returns the index of the currently active workspace, or -1.
func (m *Monitor) ActiveIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeIndex
}

// IndexOf returns the position of ws in the monitor's ordered list, or -1.
func (m *Monitor) IndexOf(ws *Workspace) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.workspaces {
		if w == ws {
			return i
		}
	}
	return -1
}
