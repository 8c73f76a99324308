package arbor

// --- Tree queries ---

// Parent returns the node's parent, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the top of the node's tree; the node itself when detached.
func (n *Node) Root() *Node {
	if n.root != nil {
		return n.root
	}
	return n
}

// DisplayList returns the session whose tree contains this node, or nil.
func (n *Node) DisplayList() *DisplayList {
	return n.Root().owner
}

// Attached reports whether the node is linked under a DisplayList root.
func (n *Node) Attached() bool {
	return n.DisplayList() != nil
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at index, or nil when out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// ChildIndex returns the index of child among n's children, or -1.
func (n *Node) ChildIndex(child *Node) int {
	if child == nil || child.parent != n {
		return -1
	}
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// ChildByName returns the first child, in insertion order, with the given name.
func (n *Node) ChildByName(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Contains reports whether node is n or one of its descendants.
func (n *Node) Contains(node *Node) bool {
	return node != nil && isAncestor(n, node)
}

// --- Tree manipulation ---

// AddChild appends child to this node's children. A child that already has a
// parent is removed from it first. Returns false, changing nothing, when the
// link would create a cycle or child is a DisplayList root.
func (n *Node) AddChild(child *Node) bool {
	return n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at index. An index past the end appends; a
// negative index fails. Re-adding a current child moves it to index.
func (n *Node) AddChildAt(child *Node, index int) bool {
	if !n.canAdopt(child) || index < 0 {
		return false
	}
	if child.parent == n {
		if index >= len(n.children) {
			index = len(n.children) - 1
		}
		return n.SetChildIndex(child, index)
	}
	if index > len(n.children) {
		index = len(n.children)
	}
	if child.parent != nil {
		child.parent.detachChild(child)
	}
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.linkSubtree(child)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
	return true
}

// canAdopt reports whether child may become a child of n.
func (n *Node) canAdopt(child *Node) bool {
	if child == nil || child.disposed || n.disposed {
		return false
	}
	if child.owner != nil {
		return false
	}
	return !isAncestor(child, n)
}

// RemoveChildAt removes and returns the child at index. Returns nil when the
// index is out of range.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	child := n.children[index]
	n.detachChild(child)
	return child
}

// RemoveChild removes child from n. Returns false when child's parent is not n.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	n.detachChild(child)
	return true
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	n.parent.detachChild(n)
}

// RemoveChildren removes the children in [begin, end) and returns them.
// The range is clamped to the child list. Children are not disposed.
func (n *Node) RemoveChildren(begin, end int) []*Node {
	if begin < 0 {
		begin = 0
	}
	if end > len(n.children) {
		end = len(n.children)
	}
	if begin >= end {
		return nil
	}
	removed := append([]*Node(nil), n.children[begin:end]...)
	for _, c := range removed {
		n.detachChild(c)
	}
	return removed
}

// RemoveAllChildren removes every child.
func (n *Node) RemoveAllChildren() []*Node {
	return n.RemoveChildren(0, len(n.children))
}

// SetChildIndex moves child to index among its siblings. Returns false when
// child is not a child of n or index is out of range.
func (n *Node) SetChildIndex(child *Node, index int) bool {
	if child == nil || child.parent != n || index < 0 || index >= len(n.children) {
		return false
	}
	oldIndex := n.ChildIndex(child)
	if oldIndex == index {
		return true
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
	child.invalidateTransform()
	return true
}

// ReplaceChild puts newChild where oldChild is. Returns false when oldChild
// is not a child of n or newChild cannot be adopted.
func (n *Node) ReplaceChild(oldChild, newChild *Node) bool {
	index := n.ChildIndex(oldChild)
	if index < 0 {
		return false
	}
	if oldChild == newChild {
		return true
	}
	if !n.canAdopt(newChild) || isAncestor(newChild, n) {
		return false
	}
	if newChild.parent == n {
		n.detachChild(newChild)
		index = n.ChildIndex(oldChild)
	}
	n.detachChild(oldChild)
	return n.AddChildAt(newChild, index)
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// detachChild unlinks child from n, hands its last footprint to the session
// so the area is redrawn, and marks n's ancestors.
func (n *Node) detachChild(child *Node) {
	if dl := n.DisplayList(); dl != nil && child.hasLastBounds {
		dl.addPendingDirty(child.lastBounds)
	}
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			break
		}
	}
	child.parent = nil
	n.unlinkSubtree(child)
	n.invalidateDescendents()
}

// linkSubtree updates root pointers after child joined n and marks the new
// footprint for drawing.
func (n *Node) linkSubtree(child *Node) {
	top := n.Root()
	setSubtreeRoot(child, top)
	child.invalidateTransform()
}

// unlinkSubtree makes child the top of its own tree.
func (n *Node) unlinkSubtree(child *Node) {
	setSubtreeRoot(child, child)
}

// setSubtreeRoot points every node under (and including) top-level node sub
// at top. A node whose session changes loses its caches and footprint, which
// belonged to the old session.
func setSubtreeRoot(sub, top *Node) {
	var root *Node
	if sub != top {
		root = top
	}
	before := sub.DisplayList()
	sub.root = root
	if sub.DisplayList() != before {
		sub.releaseSubtreeCache()
		sub.hasLastBounds = false
		sub.dirty |= dirtyTransform
	}
	for _, c := range sub.children {
		setSubtreeRoot(c, top)
	}
}
