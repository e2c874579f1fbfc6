package x11

import (
	"context"
	"math/rand"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/pkg/models"
)

// Subscribe registers cb to receive translated platform events and starts
// the background event loop on first call. Grounded on the reference
// client's StateUpdate dispatch and monitorRandREvents reconnect loop:
// root-window SubstructureNotify/PropertyChange events drive window
// lifecycle and focus, RandR ScreenChangeNotify drives display topology,
// and a dedicated goroutine re-dials with exponential backoff if the
// connection drops.
func (d *Driver) Subscribe(cb platform.Callback) func() {
	d.subMu.Lock()
	first := len(d.subscribers) == 0
	id := len(d.subscribers)
	d.subscribers = append(d.subscribers, cb)
	d.subMu.Unlock()

	if first {
		if err := selectRootInput(d.xu()); err != nil {
			d.log.WithError(err).Error("x11.subscribe.select_input_failed")
		}
		d.wg.Add(1)
		go d.eventLoop(context.Background())
	}

	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		if id < len(d.subscribers) {
			d.subscribers[id] = nil
		}
	}
}

func selectRootInput(X *xgbutil.XUtil) error {
	if err := xproto.ChangeWindowAttributesChecked(X.Conn(), X.RootWin(), xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange)}).Check(); err != nil {
		return err
	}
	return randr.SelectInputChecked(X.Conn(), X.RootWin(), randr.NotifyMaskScreenChange).Check()
}

func (d *Driver) eventLoop(ctx context.Context) {
	defer d.wg.Done()
	backoff := minBackoff

	for {
		select {
		case <-d.quit:
			return
		default:
		}

		ev, err := d.xu().Conn().WaitForEvent()
		if err != nil {
			d.log.WithError(err).Warn("x11.event_loop.read_error")
			if !d.reconnect(&backoff) {
				return
			}
			continue
		}
		backoff = minBackoff

		if translated, ok := d.translate(ev); ok {
			d.dispatch(translated)
		}
	}
}

// reconnect re-dials the X server with exponential backoff (100ms base,
// capped at 5s, +/-20% jitter), the same bounds the reference client uses
// when its RandR event channel goes silent. Returns false if the driver is
// shutting down.
func (d *Driver) reconnect(backoff *time.Duration) bool {
	jitter := time.Duration(float64(*backoff) * (0.8 + 0.4*rand.Float64()))

	select {
	case <-d.quit:
		return false
	case <-time.After(jitter):
	}

	conn, err := xgbutil.NewConn()
	if err != nil {
		d.log.WithError(err).Debug("x11.reconnect.failed")
		*backoff = nextBackoff(*backoff)
		return true
	}
	if err := randr.Init(conn.Conn()); err != nil {
		conn.Conn().Close()
		d.log.WithError(err).Debug("x11.reconnect.randr_init_failed")
		*backoff = nextBackoff(*backoff)
		return true
	}
	_ = selectRootInput(conn)

	d.mu.Lock()
	old := d.conn
	d.conn = conn
	d.mu.Unlock()
	old.Conn().Close()

	d.log.Info("x11.reconnect.recovered")
	*backoff = minBackoff
	return true
}

func nextBackoff(cur time.Duration) time.Duration {
	cur *= 2
	if cur > maxBackoff {
		return maxBackoff
	}
	return cur
}

func (d *Driver) translate(ev xgb.Event) (platform.Event, bool) {
	switch e := ev.(type) {
	case xproto.CreateNotifyEvent:
		return platform.Event{Kind: platform.EventWindowCreated, Handle: handleOf(e.Window)}, true
	case xproto.DestroyNotifyEvent:
		return platform.Event{Kind: platform.EventWindowDestroyed, Handle: handleOf(e.Window)}, true
	case xproto.ConfigureNotifyEvent:
		return platform.Event{
			Kind:   platform.EventWindowResized,
			Handle: handleOf(e.Window),
			Frame:  models.NewRectangle(float64(e.X), float64(e.Y), float64(e.Width), float64(e.Height)),
		}, true
	case xproto.PropertyNotifyEvent:
		return d.translateProperty(e)
	case randr.ScreenChangeNotifyEvent:
		return platform.Event{Kind: platform.EventDisplayChanged}, true
	case randr.NotifyEvent:
		return platform.Event{Kind: platform.EventDisplayChanged}, true
	default:
		return platform.Event{}, false
	}
}

func (d *Driver) translateProperty(e xproto.PropertyNotifyEvent) (platform.Event, bool) {
	X := d.xu()
	name, err := atomName(X, e.Atom)
	if err != nil {
		return platform.Event{}, false
	}
	switch name {
	case "_NET_ACTIVE_WINDOW":
		active, err := ewmh.ActiveWindowGet(X)
		if err != nil {
			return platform.Event{}, false
		}
		pid, _ := ewmh.WmPidGet(X, active)
		return platform.Event{Kind: platform.EventAppActivated, Handle: handleOf(active), PID: models.PID(pid)}, true
	case "_NET_WM_STATE":
		states, err := ewmh.WmStateGet(X, e.Window)
		if err != nil {
			return platform.Event{}, false
		}
		if containsState(states, "_NET_WM_STATE_HIDDEN") {
			return platform.Event{Kind: platform.EventWindowMinimized, Handle: handleOf(e.Window)}, true
		}
		return platform.Event{Kind: platform.EventWindowDeminimized, Handle: handleOf(e.Window)}, true
	case "_NET_CURRENT_DESKTOP":
		return platform.Event{Kind: platform.EventSpaceChanged}, true
	default:
		return platform.Event{}, false
	}
}

func atomName(X *xgbutil.XUtil, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetAtomName(X.Conn(), atom).Reply()
	if err != nil {
		return "", err
	}
	return string(reply.Name), nil
}

func (d *Driver) dispatch(ev platform.Event) {
	d.subMu.Lock()
	cbs := make([]platform.Callback, 0, len(d.subscribers))
	for _, cb := range d.subscribers {
		if cb != nil {
			cbs = append(cbs, cb)
		}
	}
	d.subMu.Unlock()

	for _, cb := range cbs {
		cb(ev)
	}
}
