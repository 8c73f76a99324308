package arbor

// dirtyFlags records what about a node changed since the last frame.
type dirtyFlags uint8

const (
	// dirtyContent: the node's own drawing output is stale.
	dirtyContent dirtyFlags = 1 << iota
	// dirtyContentBounds: the cached content bounds are stale.
	dirtyContentBounds
	// dirtyDescendents: some descendant needs redrawing.
	dirtyDescendents
	// dirtyTransform: the node's placement or appearance changed. Forces a
	// region redraw without recomputing content.
	dirtyTransform
)

func (f dirtyFlags) has(bits dirtyFlags) bool {
	return f&bits != 0
}

// needsRegionRedraw reports whether the node's whole footprint, old and new,
// must be redrawn.
func (f dirtyFlags) needsRegionRedraw() bool {
	return f.has(dirtyContent | dirtyTransform)
}

// invalidateContent marks the node's own drawing as stale. The content is
// rebuilt on next use and every ancestor learns a descendant changed.
func (n *Node) invalidateContent() {
	n.contentValid = false
	n.dirty |= dirtyContent | dirtyContentBounds
	n.dropSubtreeCache()
	n.bubbleDescendents()
}

// invalidateTransform marks the node for a region redraw without touching
// its content.
func (n *Node) invalidateTransform() {
	n.dirty |= dirtyTransform
	n.dropSubtreeCache()
	n.bubbleDescendents()
}

// invalidateAppearance is invalidateTransform for properties applied when a
// cached subtree image is composited (alpha, blend, visibility). The node's
// own subtree cache stays valid.
func (n *Node) invalidateAppearance() {
	n.dirty |= dirtyTransform
	n.bubbleDescendents()
}

// invalidateDescendents marks only the descendants flag on the node.
func (n *Node) invalidateDescendents() {
	n.dirty |= dirtyDescendents
	n.dropSubtreeCache()
	n.bubbleDescendents()
}

// bubbleDescendents sets dirtyDescendents on every strict ancestor and drops
// their subtree caches. An ancestor already flagged has had this done since
// the last frame, so the walk stops there.
func (n *Node) bubbleDescendents() {
	n.invalidateBounds()
	n.notifyMaskOwner()
	for p := n.parent; p != nil; p = p.parent {
		if p.dirty.has(dirtyDescendents) {
			return
		}
		p.dirty |= dirtyDescendents
		p.dropSubtreeCache()
		p.notifyMaskOwner()
	}
}

// notifyMaskOwner forwards a change in a mask to the node it masks. Masks are
// not drawn on their own, so the owner is what needs redrawing.
func (n *Node) notifyMaskOwner() {
	o := n.maskOwner
	if o == nil {
		return
	}
	o.invalidateBounds()
	if !o.dirty.has(dirtyTransform) {
		o.invalidateTransform()
	}
}

// invalidateBounds drops the cached subtree bounds of n and its ancestors.
func (n *Node) invalidateBounds() {
	n.boundsValid = false
	for p := n.parent; p != nil && p.boundsValid; p = p.parent {
		p.boundsValid = false
	}
}

// clearDirty resets the per-frame flags on n and every flagged descendant.
// dirtyContentBounds is left alone; bounds queries clear it lazily.
func clearDirty(n *Node) {
	descend := n.dirty.has(dirtyDescendents)
	n.dirty &^= dirtyContent | dirtyDescendents | dirtyTransform
	if !descend {
		return
	}
	for _, c := range n.children {
		clearDirty(c)
	}
}
