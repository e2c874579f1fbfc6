package x11

import (
	"context"
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/frostplexx/yuki/pkg/models"
)

// EnumerateDisplays walks RandR's screen resources and returns one
// MonitorDescriptor per connected, active output, grounded on the reference
// client's PhysicalHeadsGet: screen resources → per-output connection state
// → crtc geometry, falling back to the biggest output as primary when RandR
// reports none.
func (d *Driver) EnumerateDisplays(ctx context.Context) ([]models.MonitorDescriptor, error) {
	X := d.xu()

	resources, err := randr.GetScreenResources(X.Conn(), X.RootWin()).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: get screen resources: %w", err)
	}
	primary, err := randr.GetOutputPrimary(X.Conn(), X.RootWin()).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: get output primary: %w", err)
	}

	struts, err := d.workareaStruts()
	if err != nil {
		d.log.WithError(err).Debug("x11.enumerate_displays.struts_unavailable")
	}

	type head struct {
		id      randr.Output
		name    string
		primary bool
		frame   models.Rectangle
	}
	var heads []head
	hasPrimary := false

	for _, output := range resources.Outputs {
		oinfo, err := randr.GetOutputInfo(X.Conn(), output, 0).Reply()
		if err != nil {
			return nil, fmt.Errorf("x11: get output info: %w", err)
		}
		if oinfo.Connection != randr.ConnectionConnected || oinfo.Crtc == 0 {
			continue
		}
		cinfo, err := randr.GetCrtcInfo(X.Conn(), oinfo.Crtc, 0).Reply()
		if err != nil {
			return nil, fmt.Errorf("x11: get crtc info: %w", err)
		}

		h := head{
			id:      output,
			name:    string(oinfo.Name),
			primary: primary != nil && output == primary.Output,
			frame: models.NewRectangle(
				float64(cinfo.X), float64(cinfo.Y),
				float64(cinfo.Width), float64(cinfo.Height),
			),
		}
		heads = append(heads, h)
		hasPrimary = hasPrimary || h.primary
	}

	if !hasPrimary && len(heads) > 0 {
		biggest := 0
		for i, h := range heads {
			if h.frame.Width*h.frame.Height > heads[biggest].frame.Width*heads[biggest].frame.Height {
				biggest = i
			}
			_ = h
		}
		heads[biggest].primary = true
	}

	sort.Slice(heads, func(i, j int) bool { return heads[i].frame.X < heads[j].frame.X })

	out := make([]models.MonitorDescriptor, 0, len(heads))
	for _, h := range heads {
		visible := h.frame
		if struts != nil {
			visible = struts.apply(h.frame)
		}
		out = append(out, models.MonitorDescriptor{
			ID:           models.MonitorID(h.name),
			Name:         h.name,
			Frame:        h.frame,
			VisibleFrame: visible,
			IsPrimary:    h.primary,
		})
	}
	return out, nil
}

// workareaMargins is the EWMH _NET_WORKAREA-derived inset applied uniformly
// to every output's visible frame (panels/docks), a simplification of the
// reference client's per-edge strut accumulation across every stacked
// window.
type workareaMargins struct {
	left, right, top, bottom float64
}

func (m *workareaMargins) apply(frame models.Rectangle) models.Rectangle {
	return models.NewRectangle(
		frame.X+m.left,
		frame.Y+m.top,
		frame.Width-m.left-m.right,
		frame.Height-m.top-m.bottom,
	)
}

func (d *Driver) workareaStruts() (*workareaMargins, error) {
	X := d.xu()
	areas, err := ewmh.WorkareaGet(X)
	if err != nil || len(areas) == 0 {
		return nil, err
	}
	wa := areas[0]
	root, err := xwindow.New(X, X.RootWin()).Geometry()
	if err != nil || root == nil {
		return nil, err
	}
	return &workareaMargins{
		left:   float64(wa.X),
		top:    float64(wa.Y),
		right:  float64(root.Width()) - float64(wa.X) - float64(wa.Width),
		bottom: float64(root.Height()) - float64(wa.Y) - float64(wa.Height),
	}, nil
}
