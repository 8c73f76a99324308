package arbor

// SetMask makes m the mask of n. The mask is not drawn on its own; its
// coverage limits what of n shows. A mask serves one node at a time: if m
// already masks another node, that node loses it.
//
// When m has a parent its placement comes from the tree. A parentless mask
// is positioned in n's local space by its own transform.
//
// Returns false, changing nothing, when m is n, an ancestor of n, or a
// DisplayList root.
func (n *Node) SetMask(m *Node) bool {
	if m == n.mask {
		return true
	}
	if m == nil {
		n.ClearMask()
		return true
	}
	if m.owner != nil || isAncestor(m, n) || m.disposed {
		return false
	}
	if prev := m.maskOwner; prev != nil {
		prev.mask = nil
		prev.invalidateEffects()
	}
	if n.mask != nil {
		n.mask.maskOwner = nil
	}
	n.mask = m
	m.maskOwner = n
	n.invalidateEffects()
	return true
}

// ClearMask removes the mask from this node.
func (n *Node) ClearMask() {
	if n.mask == nil {
		return
	}
	n.mask.maskOwner = nil
	n.mask = nil
	n.invalidateEffects()
}

// Mask returns the current mask node, or nil if no mask is set.
func (n *Node) Mask() *Node {
	return n.mask
}

// MaskOwner returns the node this node masks, or nil.
func (n *Node) MaskOwner() *Node {
	return n.maskOwner
}

// MaskType returns how the mask's pixels are turned into coverage.
func (n *Node) MaskType() MaskType {
	return n.maskType
}

// SetMaskType sets how the mask's pixels are turned into coverage.
func (n *Node) SetMaskType(t MaskType) {
	if n.maskType == t {
		return
	}
	n.maskType = t
	if n.mask != nil {
		n.invalidateEffects()
	}
}

// maskMatrix maps the mask's local space into the owner's local space.
func (n *Node) maskMatrix() Matrix3D {
	m := n.mask
	if m.parent == nil {
		return m.localMatrix()
	}
	return m.matrixTo(n)
}
