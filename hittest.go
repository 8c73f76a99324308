package arbor

// HitTestPoint reports whether the root-space point (x, y) hits the node.
// Without shapeTest the node's bounding box decides. With shapeTest the
// geometry of the node's content and visible descendants does, stroke width
// included; image content is always tested by its box.
func (n *Node) HitTestPoint(x, y float64, shapeTest bool) bool {
	if !shapeTest {
		return n.sceneBounds().Contains(x, y)
	}
	lx, ly, ok := n.GlobalMatrix().Unproject(x, y)
	if !ok {
		return false
	}
	return n.hitLocal(lx, ly)
}

// hitLocal tests exact geometry at a point in the node's local space.
func (n *Node) hitLocal(x, y float64) bool {
	if m := n.mask; m != nil {
		mx, my, ok := n.maskMatrix().Unproject(x, y)
		if !ok || !m.hitLocal(mx, my) {
			return false
		}
	}
	if sr := n.scrollRect; sr != nil && !(Rect{Width: sr.Width, Height: sr.Height}).Contains(x, y) {
		return false
	}
	if c := n.Content(); c != nil && hitContent(c, x, y, true) {
		return true
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		c := n.children[i]
		if !drawsChild(c) {
			continue
		}
		cx, cy, ok := n.childOffset(c.localMatrix()).Unproject(x, y)
		if ok && c.hitLocal(cx, cy) {
			return true
		}
	}
	return false
}

// LayersUnderPoint returns every visible descendant whose bounding box
// contains the root-space point (x, y), front-most first. A child's own
// descendants come before the child. The node itself is not included.
func (n *Node) LayersUnderPoint(x, y float64) []*Node {
	var out []*Node
	n.collectUnderPoint(x, y, &out)
	return out
}

func (n *Node) collectUnderPoint(x, y float64, out *[]*Node) {
	for i := len(n.children) - 1; i >= 0; i-- {
		c := n.children[i]
		if !drawsChild(c) {
			continue
		}
		c.collectUnderPoint(x, y, out)
		if c.sceneBounds().Contains(x, y) {
			*out = append(*out, c)
		}
	}
}
