package wm

import "github.com/frostplexx/yuki/pkg/models"

// Gaps holds the two spacing knobs the GeometryEngine applies: once at the
// root (outer) and between every pair of children at every split (inner).
// Defaults: 8 and 8.
type Gaps struct {
	Outer float64
	Inner float64
}

// Layout is the pure function: given a tree and an available rectangle, it
// returns the geometry every tiled window should occupy. It has no side
// effects and is safe to call concurrently with itself, including
// concurrently with other calls to Layout. A float leaf contributes no
// rectangles — floating windows keep whatever geometry they already have.
func Layout(root *LayoutNode, region models.Rectangle, gaps Gaps) map[models.WindowHandle]models.Rectangle {
	out := make(map[models.WindowHandle]models.Rectangle)
	if root == nil {
		return out
	}
	inset := region.Inset(gaps.Outer)
	layoutNode(root, inset, gaps.Inner, out)
	return out
}

func layoutNode(n *LayoutNode, region models.Rectangle, innerGap float64, out map[models.WindowHandle]models.Rectangle) {
	if n.leaf != nil {
		layoutLeaf(n.leaf, region, innerGap, out)
		return
	}
	s := n.split
	left, right := splitRegion(region, s.ratio, s.horizontal, innerGap)
	layoutNode(s.left, left, innerGap, out)
	layoutNode(s.right, right, innerGap, out)
}

func layoutLeaf(l *leafNode, region models.Rectangle, innerGap float64, out map[models.WindowHandle]models.Rectangle) {
	switch l.kind {
	case KindFloat:
		// Windows keep their current geometry; the engine contributes
		// nothing for them.
		return
	case KindZStack:
		for _, h := range l.windows {
			out[h] = region
		}
	case KindHStack:
		layoutEqualStack(l.windows, region, innerGap, true, out)
	case KindVStack:
		layoutEqualStack(l.windows, region, innerGap, false, out)
	case KindBSP:
		layoutBSPLeaf(l, region, innerGap, out)
	}
}

// layoutBSPLeaf lays out a bsp leaf's windows. The tree stops materializing
// Split nodes once a subtree has <= 2 windows, but bsp's
// alternating-orientation rule still applies to that last, implicit split —
// exactly the orientation buildSplits/SyncTree recorded as bspHorizontal.
func layoutBSPLeaf(l *leafNode, region models.Rectangle, innerGap float64, out map[models.WindowHandle]models.Rectangle) {
	switch len(l.windows) {
	case 0:
		return
	case 1:
		out[l.windows[0]] = region
	case 2:
		left, right := splitRegion(region, 0.5, l.bspHorizontal, innerGap)
		out[l.windows[0]] = left
		out[l.windows[1]] = right
	default:
		// More than 2 windows in a bsp leaf only happens transiently
		// between an incremental insert and the next rebuild; degrade to
		// an equal horizontal stack so every window still gets a rect.
		layoutEqualStack(l.windows, region, innerGap, true, out)
	}
}

// layoutEqualStack lays n windows out in equal columns (horizontal=true) or
// equal rows (horizontal=false), separated by gap.
func layoutEqualStack(windows []models.WindowHandle, region models.Rectangle, gap float64, horizontal bool, out map[models.WindowHandle]models.Rectangle) {
	n := len(windows)
	if n == 0 {
		return
	}
	if n == 1 {
		out[windows[0]] = region
		return
	}
	if horizontal {
		total := region.Width - gap*float64(n-1)
		if total < 0 {
			total = 0
		}
		each := total / float64(n)
		x := region.X
		for _, h := range windows {
			out[h] = models.NewRectangle(x, region.Y, each, region.Height)
			x += each + gap
		}
		return
	}
	total := region.Height - gap*float64(n-1)
	if total < 0 {
		total = 0
	}
	each := total / float64(n)
	y := region.Y
	for _, h := range windows {
		out[h] = models.NewRectangle(region.X, y, region.Width, each)
		y += each + gap
	}
}

// splitRegion computes the two child rectangles for an internal node given
// a region, ratio, and orientation, subtracting gap once between them.
func splitRegion(region models.Rectangle, ratio float64, horizontal bool, gap float64) (left, right models.Rectangle) {
	if horizontal {
		avail := region.Width - gap
		if avail < 0 {
			avail = 0
		}
		lw := ratio * avail
		rw := avail - lw
		left = models.NewRectangle(region.X, region.Y, lw, region.Height)
		right = models.NewRectangle(region.X+lw+gap, region.Y, rw, region.Height)
		return
	}
	avail := region.Height - gap
	if avail < 0 {
		avail = 0
	}
	// First child placed at the top, smaller y.
	th := ratio * avail
	bh := avail - th
	left = models.NewRectangle(region.X, region.Y, region.Width, th)
	right = models.NewRectangle(region.X, region.Y+th+gap, region.Width, bh)
	return
}
