// Package fake provides a deterministic, in-memory platform.Port
// implementation used by internal/wm's tests and by the daemon's
// --fake-platform development mode. No X server required.
package fake

import (
	"context"
	"sync"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/pkg/models"
)

// Port is a push-button fake: tests call AddWindow/MoveWindow/DestroyWindow
// etc. to drive it, and assert on what the core writes back via
// GetGeometry/LastWrite.
type Port struct {
	mu sync.Mutex

	displays []models.MonitorDescriptor
	windows  map[models.WindowHandle]models.WindowSnapshot
	frames   map[models.WindowHandle]models.Rectangle

	subscribers []platform.Callback
	pointer     models.Point

	writes []Write
}

// Write records one SetGeometry call, for test assertions.
type Write struct {
	Handle models.WindowHandle
	Frame  models.Rectangle
}

// New returns an empty fake port with no displays and no windows.
func New() *Port {
	return &Port{
		windows: make(map[models.WindowHandle]models.WindowSnapshot),
		frames:  make(map[models.WindowHandle]models.Rectangle),
	}
}

// SetDisplays replaces the enumerated display list.
func (p *Port) SetDisplays(d []models.MonitorDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.displays = d
}

// AddWindow registers a window and emits a window_created event.
func (p *Port) AddWindow(snap models.WindowSnapshot) {
	p.mu.Lock()
	p.windows[snap.Handle] = snap
	p.frames[snap.Handle] = snap.Frame
	subs := append([]platform.Callback(nil), p.subscribers...)
	p.mu.Unlock()

	for _, cb := range subs {
		cb(platform.Event{Kind: platform.EventWindowCreated, Handle: snap.Handle, PID: snap.OwningPID})
	}
}

// DestroyWindow removes a window and emits a window_destroyed event.
func (p *Port) DestroyWindow(handle models.WindowHandle) {
	p.mu.Lock()
	delete(p.windows, handle)
	delete(p.frames, handle)
	subs := append([]platform.Callback(nil), p.subscribers...)
	p.mu.Unlock()

	for _, cb := range subs {
		cb(platform.Event{Kind: platform.EventWindowDestroyed, Handle: handle})
	}
}

// TerminateApp emits an app_terminated event for pid.
func (p *Port) TerminateApp(pid models.PID) {
	p.mu.Lock()
	subs := append([]platform.Callback(nil), p.subscribers...)
	p.mu.Unlock()
	for _, cb := range subs {
		cb(platform.Event{Kind: platform.EventAppTerminated, PID: pid})
	}
}

// LastWrite returns the most recently written frame for handle.
func (p *Port) LastWrite(handle models.WindowHandle) (models.Rectangle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.writes) - 1; i >= 0; i-- {
		if p.writes[i].Handle == handle {
			return p.writes[i].Frame, true
		}
	}
	return models.Rectangle{}, false
}

// Writes returns every SetGeometry call observed so far, in order.
func (p *Port) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Write(nil), p.writes...)
}

func (p *Port) EnumerateDisplays(ctx context.Context) ([]models.MonitorDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MonitorDescriptor(nil), p.displays...), nil
}

func (p *Port) EnumerateWindows(ctx context.Context) ([]models.WindowSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.WindowSnapshot, 0, len(p.windows))
	for _, w := range p.windows {
		out = append(out, w)
	}
	return out, nil
}

func (p *Port) GetGeometry(ctx context.Context, handle models.WindowHandle) (models.Rectangle, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.frames[handle]
	return f, ok, nil
}

func (p *Port) SetGeometry(ctx context.Context, handle models.WindowHandle, frame models.Rectangle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.frames[handle]; !ok {
		return nil
	}
	p.frames[handle] = frame
	p.writes = append(p.writes, Write{Handle: handle, Frame: frame})
	return nil
}

func (p *Port) Raise(ctx context.Context, handle models.WindowHandle) error { return nil }

func (p *Port) SetMinimized(ctx context.Context, handle models.WindowHandle, minimized bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.windows[handle]; ok {
		w.IsMinimized = minimized
		p.windows[handle] = w
	}
	return nil
}

func (p *Port) SetFullscreen(ctx context.Context, handle models.WindowHandle, fullscreen bool) error {
	return nil
}

func (p *Port) Subscribe(cb platform.Callback) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, cb)
	idx := len(p.subscribers) - 1
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if idx < len(p.subscribers) {
			p.subscribers[idx] = nil
		}
	}
}

func (p *Port) PointerLocation(ctx context.Context) (models.Point, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pointer, nil
}

// SetPointerLocation drives PointerLocation for focus-follows-mouse tests.
func (p *Port) SetPointerLocation(pt models.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pointer = pt
}

var _ platform.Port = (*Port)(nil)
