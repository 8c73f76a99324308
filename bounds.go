package arbor

// contentBoundsLocal returns the conservative bounds of the node's own
// content, recomputed when dirtyContentBounds is set.
func (n *Node) contentBoundsLocal() Rect {
	if n.dirty.has(dirtyContentBounds) || !n.contentValid {
		if c := n.Content(); c != nil {
			n.contentBounds = c.Bounds()
		} else {
			n.contentBounds = Rect{}
		}
		n.dirty &^= dirtyContentBounds
	}
	return n.contentBounds
}

// drawsChild reports whether c takes part in its parent's output.
func drawsChild(c *Node) bool {
	return c.visible && c.maskOwner == nil
}

// bodyBounds returns the local bounds of content and children, without the
// node's own effects.
func (n *Node) bodyBounds() Rect {
	b := n.contentBoundsLocal()
	for _, c := range n.children {
		if !drawsChild(c) {
			continue
		}
		cb := c.localBounds()
		if cb.IsEmpty() {
			continue
		}
		b = b.Union(n.childOffset(c.localMatrix()).MapRect(cb))
	}
	if sr := n.scrollRect; sr != nil {
		b = b.Intersect(Rect{Width: sr.Width, Height: sr.Height})
	}
	return b
}

// effectBounds grows body bounds r by the node's styles and filters and
// limits it to the mask.
func (n *Node) effectBounds(r Rect) Rect {
	if r.IsEmpty() {
		return r
	}
	if len(n.styles) > 0 {
		out := r
		for _, s := range n.styles {
			out = out.Union(s.StyleBounds(r))
		}
		r = out
	}
	for _, f := range n.filters {
		r = f.FilterBounds(r)
	}
	if m := n.mask; m != nil {
		r = r.Intersect(n.maskMatrix().MapRect(m.localBounds()))
	}
	return r
}

// localBounds returns the conservative local-space bounds of everything the
// node draws, effects included.
func (n *Node) localBounds() Rect {
	if n.boundsValid {
		return n.bounds
	}
	n.bounds = n.effectBounds(n.bodyBounds())
	n.boundsValid = true
	return n.bounds
}

// hasEffects reports whether the node draws through filters, styles or a mask.
func (n *Node) hasEffects() bool {
	return len(n.filters) > 0 || len(n.styles) > 0 || n.mask != nil
}

// Bounds returns the extent of the node and its subtree in target's space,
// or in the node's own local space when target is nil. Tight bounds follow
// the exact geometry; otherwise a cheaper conservative box is returned.
// Effects (filters, styles, masks) are included either way.
func (n *Node) Bounds(target *Node, tight bool) Rect {
	m := n.matrixTo(target)
	if !tight {
		return m.MapRect(n.localBounds())
	}
	return n.tightBounds(m)
}

// tightBounds maps exact geometry through m. Effects fall back to the
// conservative box since filters do not follow geometry.
func (n *Node) tightBounds(m Matrix3D) Rect {
	if n.hasEffects() {
		return m.MapRect(n.localBounds())
	}
	var b Rect
	if c := n.Content(); c != nil {
		b = contentTightBounds(c, m)
	}
	for _, c := range n.children {
		if !drawsChild(c) {
			continue
		}
		cm := m.Multiply(n.childOffset(c.localMatrix()))
		b = b.Union(c.tightBounds(cm))
	}
	if sr := n.scrollRect; sr != nil {
		b = b.Intersect(m.MapRect(Rect{Width: sr.Width, Height: sr.Height}))
	}
	return b
}

// sceneBounds returns the conservative bounds in the space the tree's root
// is drawn into.
func (n *Node) sceneBounds() Rect {
	return n.GlobalMatrix().MapRect(n.localBounds())
}
