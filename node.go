package arbor

// nodeIDCounter is a plain counter (no atomic; arbor is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// NodeKind tells which kind of content a node draws.
type NodeKind uint8

const (
	KindLayer  NodeKind = iota // group node with no content of its own
	KindSolid                  // filled rectangle or rounded rectangle
	KindShape                  // path with fill and stroke paints
	KindText                   // laid-out text
	KindImage                  // bitmap
	KindCustom                 // content recorded by a user callback
)

var nodeKindNames = [...]string{"layer", "solid", "shape", "text", "image", "custom"}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// Node is a layer in the tree. A single flat struct serves every kind; the
// kind-specific properties live behind Solid, Shape, TextBlock and Bitmap.
//
// Nodes are not safe for concurrent use. Every mutation must happen on the
// goroutine that renders the owning DisplayList.
type Node struct {
	// Identity
	ID       uint32
	Name     string
	UserData any
	kind     NodeKind

	// Hierarchy
	parent   *Node
	root     *Node        // top of this node's tree; nil when the node is the top
	owner    *DisplayList // set only on a DisplayList root
	children []*Node

	// Transform
	xf    Transform2D
	m3d   Matrix3D
	has3D bool

	// Compositing
	alpha        float64
	blend        BlendMode
	visible      bool
	edgeAA       bool
	groupOpacity bool
	scrollRect   *Rect

	// Effects
	filters   []Filter
	styles    []LayerStyle
	mask      *Node
	maskOwner *Node
	maskType  MaskType

	// Content
	source        contentSource
	content       Content
	contentValid  bool
	contentBounds Rect
	dirty         dirtyFlags

	// Cached local bounds of the whole subtree, effects included. An
	// invalid node's ancestors are always invalid too.
	bounds      Rect
	boundsValid bool

	// Render bookkeeping. lastBounds is the scene-space footprint recorded
	// at the last frame; removal and movement redraw it.
	lastBounds    Rect
	hasLastBounds bool
	cache         subtreeCache

	disposed bool
}

// nodeDefaults sets the field values shared by all constructors.
func (f *Factory) nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.xf = NewTransform2D()
	n.m3d = IdentityMatrix3D
	n.alpha = 1
	n.visible = true
	n.edgeAA = f.settings.EdgeAntialiasing
	n.groupOpacity = f.settings.GroupOpacity
	n.dirty = dirtyTransform | dirtyContentBounds
	n.cache.changed = true
}

// Kind returns the node's content kind.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// --- Compositing properties ---

// Alpha returns the node's opacity.
func (n *Node) Alpha() float64 {
	return n.alpha
}

// SetAlpha sets the node's opacity, clamped to [0, 1].
func (n *Node) SetAlpha(a float64) {
	a = clamp01(a)
	if n.alpha == a {
		return
	}
	n.alpha = a
	n.invalidateAppearance()
}

// BlendMode returns the mode used to composite the node onto what is below.
func (n *Node) BlendMode() BlendMode {
	return n.blend
}

// SetBlendMode sets how the node composites onto what is below it.
func (n *Node) SetBlendMode(b BlendMode) {
	if n.blend == b {
		return
	}
	n.blend = b
	n.invalidateAppearance()
}

// Visible reports whether the node is drawn.
func (n *Node) Visible() bool {
	return n.visible
}

// SetVisible shows or hides the node and its subtree.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.invalidateAppearance()
}

// EdgeAntialiasing reports whether edges of the node's geometry are smoothed.
func (n *Node) EdgeAntialiasing() bool {
	return n.edgeAA
}

// SetEdgeAntialiasing toggles edge smoothing for the node's own content.
func (n *Node) SetEdgeAntialiasing(v bool) {
	if n.edgeAA == v {
		return
	}
	n.edgeAA = v
	n.invalidateContent()
}

// GroupOpacity reports whether the node's alpha applies to its subtree as a
// single composited unit.
func (n *Node) GroupOpacity() bool {
	return n.groupOpacity
}

// SetGroupOpacity toggles group opacity.
func (n *Node) SetGroupOpacity(v bool) {
	if n.groupOpacity == v {
		return
	}
	n.groupOpacity = v
	n.invalidateAppearance()
}

// ScrollRect returns the node's scroll window, or nil.
func (n *Node) ScrollRect() *Rect {
	if n.scrollRect == nil {
		return nil
	}
	r := *n.scrollRect
	return &r
}

// SetScrollRect clips the node's content to r and scrolls it so r's origin
// lands on the node's origin. Pass nil to remove the window.
func (n *Node) SetScrollRect(r *Rect) {
	if r == nil && n.scrollRect == nil {
		return
	}
	if r != nil && n.scrollRect != nil && *r == *n.scrollRect {
		return
	}
	if r == nil {
		n.scrollRect = nil
	} else {
		v := *r
		n.scrollRect = &v
	}
	n.invalidateTransform()
}

// --- Effects ---

// Filters returns the node's filters. The slice must not be mutated.
func (n *Node) Filters() []Filter {
	return n.filters
}

// SetFilters replaces the node's filter chain. Filters run left to right,
// each consuming the previous one's output.
func (n *Node) SetFilters(filters ...Filter) {
	n.filters = append([]Filter(nil), filters...)
	n.invalidateEffects()
}

// AddFilter appends a filter to the chain.
func (n *Node) AddFilter(f Filter) {
	if f == nil {
		return
	}
	n.filters = append(n.filters, f)
	n.invalidateEffects()
}

// RemoveFilter removes the first occurrence of f. Returns false when absent.
func (n *Node) RemoveFilter(f Filter) bool {
	for i, cur := range n.filters {
		if cur == f {
			n.filters = append(n.filters[:i:i], n.filters[i+1:]...)
			n.invalidateEffects()
			return true
		}
	}
	return false
}

// Styles returns the node's layer styles. The slice must not be mutated.
func (n *Node) Styles() []LayerStyle {
	return n.styles
}

// SetStyles replaces the node's layer styles.
func (n *Node) SetStyles(styles ...LayerStyle) {
	n.styles = append([]LayerStyle(nil), styles...)
	n.invalidateEffects()
}

// AddStyle appends a layer style.
func (n *Node) AddStyle(s LayerStyle) {
	if s == nil {
		return
	}
	n.styles = append(n.styles, s)
	n.invalidateEffects()
}

// InvalidateEffects must be called after mutating a filter or style that is
// already attached to the node.
func (n *Node) InvalidateEffects() {
	n.invalidateEffects()
}

// invalidateEffects redraws the node's old and new footprint. Effects change
// the node's output without touching its own content.
func (n *Node) invalidateEffects() {
	n.invalidateDescendents()
	n.invalidateTransform()
}

// --- Disposal ---

// Dispose removes this node from its parent, releases its mask links and
// caches, and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	if n.owner != nil {
		if globalDebug {
			debugAssert(false, "Dispose called on a DisplayList root")
		}
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.releaseSubtreeCache()
	if n.mask != nil {
		n.mask.maskOwner = nil
		n.mask = nil
	}
	if n.maskOwner != nil {
		n.maskOwner.mask = nil
		n.maskOwner = nil
	}
	for _, child := range n.children {
		child.parent = nil
		child.root = nil
		child.dispose()
	}
	n.disposed = true
	n.ID = 0
	n.children = nil
	n.parent = nil
	n.root = nil
	n.filters = nil
	n.styles = nil
	n.source = nil
	n.content = nil
	n.UserData = nil
}

// IsDisposed reports whether the node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}
