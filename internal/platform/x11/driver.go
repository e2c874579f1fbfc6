// Package x11 is the concrete PlatformPort driver for X11/EWMH window
// managers. Grounded on the EWMH/RandR window-manager-interop code of a
// reference X11 tiling client: connects through github.com/BurntSushi/xgb,
// issues requests through github.com/BurntSushi/xgbutil's ewmh/icccm/
// xwindow helpers, and enumerates/subscribes to monitor topology through
// github.com/BurntSushi/xgb/randr.
package x11

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/sirupsen/logrus"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/pkg/models"
)

// Reconnect backoff bounds for a lost platform.Port subscription:
// exponential backoff with a 100ms base and a 5s cap.
const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// Driver implements platform.Port against a live X11/EWMH connection.
type Driver struct {
	mu   sync.Mutex
	conn *xgbutil.XUtil
	log  *logrus.Entry

	subMu       sync.Mutex
	subscribers []platform.Callback
	quit        chan struct{}
	wg          sync.WaitGroup
}

// Dial connects to the X server named by the DISPLAY environment variable
// and verifies the running window manager is EWMH-compliant, the same
// precondition the reference client checks before starting.
func Dial(log *logrus.Entry) (*Driver, error) {
	conn, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}
	if _, err := ewmh.GetEwmhWM(conn); err != nil {
		conn.Conn().Close()
		return nil, fmt.Errorf("x11: window manager is not EWMH compliant: %w", err)
	}
	if err := randr.Init(conn.Conn()); err != nil {
		conn.Conn().Close()
		return nil, fmt.Errorf("x11: randr init: %w", err)
	}
	return &Driver{conn: conn, log: log, quit: make(chan struct{})}, nil
}

// Close terminates the X connection and any running event goroutines.
func (d *Driver) Close() {
	close(d.quit)
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conn.Conn().Close()
}

func (d *Driver) xu() *xgbutil.XUtil {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn
}

var _ platform.Port = (*Driver)(nil)

// PointerLocation returns the root-window-relative pointer position, used
// by the core for focus-follows-mouse-style monitor selection.
func (d *Driver) PointerLocation(ctx context.Context) (models.Point, error) {
	X := d.xu()
	p, err := xproto.QueryPointer(X.Conn(), X.RootWin()).Reply()
	if err != nil {
		return models.Point{}, fmt.Errorf("x11: query pointer: %w", err)
	}
	return models.Point{X: float64(p.RootX), Y: float64(p.RootY)}, nil
}
