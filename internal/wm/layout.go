package wm

import (
	"fmt"

	"github.com/frostplexx/yuki/pkg/models"
)

// LayoutKind is one of the five ways a region can be divided among its
// occupants.
type LayoutKind string

const (
	KindBSP    LayoutKind = "bsp"
	KindHStack LayoutKind = "hstack"
	KindVStack LayoutKind = "vstack"
	KindZStack LayoutKind = "zstack"
	KindFloat  LayoutKind = "float"
)

// cycleOrder is the fixed sequence Workspace.CycleLayout advances through.
var cycleOrder = []LayoutKind{KindBSP, KindHStack, KindVStack, KindZStack, KindFloat}

// splittable reports whether kind is legal on an internal node. zstack and
// float only ever apply at a leaf.
func (k LayoutKind) splittable() bool {
	return k == KindBSP || k == KindHStack || k == KindVStack
}

const (
	minSplitRatio = 0.1
	maxSplitRatio = 0.9
)

func clampRatio(r float64) float64 {
	if r < minSplitRatio {
		return minSplitRatio
	}
	if r > maxSplitRatio {
		return maxSplitRatio
	}
	return r
}

// LayoutNode is a tagged variant in place of dynamic dispatch over node
// types: a node is either a Leaf or a Split, never both. Exactly one of
// the two payloads below is populated.
type LayoutNode struct {
	leaf  *leafNode
	split *splitNode
}

type leafNode struct {
	kind    LayoutKind
	windows []models.WindowHandle
	// bspHorizontal is the orientation a bsp leaf's two windows should be
	// split along when the GeometryEngine lays them out: the tree stops
	// materializing new Split nodes once a subtree holds <= 2 windows, but
	// bsp's alternating-orientation rule still applies to that last,
	// implicit split. Meaningless for any other kind or leaf size.
	bspHorizontal bool
}

type splitNode struct {
	kind       LayoutKind
	ratio      float64
	horizontal bool // true: children placed left/right; false: top/bottom
	left       *LayoutNode
	right      *LayoutNode
}

// NewLeaf builds a leaf node holding windows in insertion order.
func NewLeaf(kind LayoutKind, windows ...models.WindowHandle) *LayoutNode {
	ws := make([]models.WindowHandle, len(windows))
	copy(ws, windows)
	return &LayoutNode{leaf: &leafNode{kind: kind, windows: ws}}
}

// NewSplit builds an internal node. kind must be splittable; NewSplit
// panics otherwise: other kinds at an internal node are invalid and
// indicate a programmer error.
func NewSplit(kind LayoutKind, ratio float64, horizontal bool, left, right *LayoutNode) *LayoutNode {
	if !kind.splittable() {
		panic(fmt.Sprintf("wm: layout kind %q is not splittable", kind))
	}
	return &LayoutNode{split: &splitNode{
		kind:       kind,
		ratio:      clampRatio(ratio),
		horizontal: horizontal,
		left:       left,
		right:      right,
	}}
}

// IsLeaf reports whether the node is a leaf.
func (n *LayoutNode) IsLeaf() bool { return n.leaf != nil }

// Kind returns the node's layout kind, whichever variant it is.
func (n *LayoutNode) Kind() LayoutKind {
	if n.leaf != nil {
		return n.leaf.kind
	}
	return n.split.kind
}

// Windows returns the windows held directly by a leaf, or nil for a split.
func (n *LayoutNode) Windows() []models.WindowHandle {
	if n.leaf == nil {
		return nil
	}
	return n.leaf.windows
}

// count returns the number of windows in the subtree rooted at n.
func (n *LayoutNode) count() int {
	if n.leaf != nil {
		return len(n.leaf.windows)
	}
	return n.split.left.count() + n.split.right.count()
}

// allWindows returns every window handle in the subtree, in tree order.
func (n *LayoutNode) allWindows() []models.WindowHandle {
	if n.leaf != nil {
		out := make([]models.WindowHandle, len(n.leaf.windows))
		copy(out, n.leaf.windows)
		return out
	}
	return append(n.split.left.allWindows(), n.split.right.allWindows()...)
}

// rebuildThreshold is the window-count delta past which SyncTree rebuilds
// the tree from scratch rather than patching it incrementally.
const rebuildThreshold = 2

// SyncTree rebuilds or incrementally updates root against the current
// window set. rootKind seeds the kind of a freshly built root (and of the
// splits created while subdividing it);
// it is ignored on an incremental update, which preserves the existing
// tree's kinds.
func SyncTree(root *LayoutNode, rootKind LayoutKind, current []models.WindowHandle) *LayoutNode {
	prevCount := 0
	if root != nil {
		prevCount = root.count()
	}
	delta := prevCount - len(current)
	if delta < 0 {
		delta = -delta
	}

	if root == nil || delta > rebuildThreshold || prevCount == 0 || len(current) == 0 {
		return rebuild(rootKind, current)
	}
	return incrementalSync(root, current)
}

// rebuild creates a fresh root leaf with the current set. bsp recursively
// splits until every leaf holds at most two windows; hstack and vstack stay
// a single leaf, since the GeometryEngine already lays out an arbitrary
// number of windows in equal columns or rows directly from a leaf.
func rebuild(rootKind LayoutKind, current []models.WindowHandle) *LayoutNode {
	if len(current) == 0 {
		return NewLeaf(rootKind)
	}
	if rootKind != KindBSP || len(current) <= 1 {
		return NewLeaf(rootKind, current...)
	}
	return buildSplits(current, true)
}

// buildSplits recursively partitions windows into a binary tree of bsp
// splits, alternating orientation at each level starting horizontal at the
// root — a single fixed alternation rule, not context-dependent on the
// caller. Only bsp subdivides; hstack/vstack leaves hold every window.
func buildSplits(windows []models.WindowHandle, horizontal bool) *LayoutNode {
	if len(windows) <= 2 {
		leaf := NewLeaf(KindBSP, windows...)
		leaf.leaf.bspHorizontal = horizontal
		return leaf
	}
	mid := len(windows) / 2
	left := buildSplits(windows[:mid], !horizontal)
	right := buildSplits(windows[mid:], !horizontal)
	return NewSplit(KindBSP, 0.5, horizontal, left, right)
}

// incrementalSync removes absent handles from every leaf and inserts new
// windows into the leaf with the fewest windows, ties broken by tree order.
func incrementalSync(root *LayoutNode, current []models.WindowHandle) *LayoutNode {
	present := make(map[models.WindowHandle]bool, len(current))
	for _, h := range current {
		present[h] = true
	}
	removeAbsent(root, present)

	existing := make(map[models.WindowHandle]bool)
	for _, h := range root.allWindows() {
		existing[h] = true
	}
	for _, h := range current {
		if !existing[h] {
			insertIntoSmallestLeaf(root, h)
			existing[h] = true
		}
	}
	return root
}

func removeAbsent(n *LayoutNode, present map[models.WindowHandle]bool) {
	if n.leaf != nil {
		kept := n.leaf.windows[:0:0]
		for _, h := range n.leaf.windows {
			if present[h] {
				kept = append(kept, h)
			}
		}
		n.leaf.windows = kept
		return
	}
	removeAbsent(n.split.left, present)
	removeAbsent(n.split.right, present)
}

// insertIntoSmallestLeaf walks the tree choosing, at every split, the child
// subtree with the fewer windows (ties go left, i.e. tree order), and
// appends h to the leaf it bottoms out at.
func insertIntoSmallestLeaf(n *LayoutNode, h models.WindowHandle) {
	if n.leaf != nil {
		n.leaf.windows = append(n.leaf.windows, h)
		return
	}
	if n.split.left.count() <= n.split.right.count() {
		insertIntoSmallestLeaf(n.split.left, h)
	} else {
		insertIntoSmallestLeaf(n.split.right, h)
	}
}

// SetRootKind returns a tree of the new layout kind holding the same
// windows: a leaf root becomes a leaf of the new kind, and a non-leaf root
// is rebuilt from its windows. The receiver is not modified.
func (n *LayoutNode) SetRootKind(kind LayoutKind) *LayoutNode {
	if n.leaf != nil {
		return NewLeaf(kind, n.leaf.windows...)
	}
	return rebuild(kind, n.allWindows())
}

// cloneExcluding returns a structural copy of the subtree rooted at n with
// every handle in exclude dropped from its leaf. The source tree is left
// untouched: this builds a layout-only view so the FloatClassifier can pull
// windows out of tiling without the workspace losing track of them.
func cloneExcluding(n *LayoutNode, exclude map[models.WindowHandle]bool) *LayoutNode {
	if n.leaf != nil {
		kept := make([]models.WindowHandle, 0, len(n.leaf.windows))
		for _, h := range n.leaf.windows {
			if !exclude[h] {
				kept = append(kept, h)
			}
		}
		return &LayoutNode{leaf: &leafNode{kind: n.leaf.kind, windows: kept, bspHorizontal: n.leaf.bspHorizontal}}
	}
	return &LayoutNode{split: &splitNode{
		kind:       n.split.kind,
		ratio:      n.split.ratio,
		horizontal: n.split.horizontal,
		left:       cloneExcluding(n.split.left, exclude),
		right:      cloneExcluding(n.split.right, exclude),
	}}
}

// NextCycleKind returns the layout kind that follows kind in the fixed
// cycle order.
func NextCycleKind(kind LayoutKind) LayoutKind {
	for i, k := range cycleOrder {
		if k == kind {
			return cycleOrder[(i+1)%len(cycleOrder)]
		}
	}
	return cycleOrder[0]
}
