package arbor

import "math"

// Transform2D is a decomposed 2D placement. The zero value is not the
// identity; use NewTransform2D or set ScaleX and ScaleY to 1.
type Transform2D struct {
	X, Y           float64
	ScaleX, ScaleY float64
	Rotation       float64 // radians, clockwise
	SkewX, SkewY   float64 // radians
	PivotX, PivotY float64
}

// NewTransform2D returns the identity placement.
func NewTransform2D() Transform2D {
	return Transform2D{ScaleX: 1, ScaleY: 1}
}

// Matrix composes the placement into an affine matrix.
//
// Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Skew -> Rotate -> Translate(X, Y)
func (t Transform2D) Matrix() Matrix {
	sx := t.ScaleX
	sy := t.ScaleY

	sin, cos := math.Sincos(t.Rotation)

	var tanSkewX, tanSkewY float64
	if t.SkewX != 0 {
		tanSkewX = math.Tan(t.SkewX)
	}
	if t.SkewY != 0 {
		tanSkewY = math.Tan(t.SkewY)
	}

	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	preTx := -t.PivotX*sx - tanSkewX*t.PivotY*sy
	preTy := -tanSkewY*t.PivotX*sx - t.PivotY*sy

	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	return Matrix{ra, rb, rc, rd, rtx + t.X, rty + t.Y}
}

// --- Node transform ---

// localMatrix returns the node's full local transform: the 3D transform is
// applied in the node's own space first, then the 2D placement.
func (n *Node) localMatrix() Matrix3D {
	m := Matrix3DFromAffine(n.xf.Matrix())
	if n.has3D {
		m = m.Multiply(n.m3d)
	}
	return m
}

// Matrix returns the node's local transform.
func (n *Node) Matrix() Matrix3D {
	return n.localMatrix()
}

// Transform returns the node's decomposed 2D placement.
func (n *Node) Transform() Transform2D {
	return n.xf
}

// SetTransform replaces the node's 2D placement.
func (n *Node) SetTransform(t Transform2D) {
	if n.xf == t {
		return
	}
	n.xf = t
	n.invalidateTransform()
}

// SetPosition sets the node's local X and Y.
func (n *Node) SetPosition(x, y float64) {
	if n.xf.X == x && n.xf.Y == y {
		return
	}
	n.xf.X = x
	n.xf.Y = y
	n.invalidateTransform()
}

// Position returns the node's local X and Y.
func (n *Node) Position() (x, y float64) {
	return n.xf.X, n.xf.Y
}

// SetScale sets the node's ScaleX and ScaleY.
func (n *Node) SetScale(sx, sy float64) {
	if n.xf.ScaleX == sx && n.xf.ScaleY == sy {
		return
	}
	n.xf.ScaleX = sx
	n.xf.ScaleY = sy
	n.invalidateTransform()
}

// SetRotation sets the node's rotation in radians.
func (n *Node) SetRotation(r float64) {
	if n.xf.Rotation == r {
		return
	}
	n.xf.Rotation = r
	n.invalidateTransform()
}

// SetSkew sets the node's SkewX and SkewY in radians.
func (n *Node) SetSkew(sx, sy float64) {
	n.xf.SkewX = sx
	n.xf.SkewY = sy
	n.invalidateTransform()
}

// SetPivot sets the point, in local units, that scale and rotation pivot on.
func (n *Node) SetPivot(px, py float64) {
	n.xf.PivotX = px
	n.xf.PivotY = py
	n.invalidateTransform()
}

// SetMatrix3D sets an additional 3D transform, applied in the node's own space
// before its 2D placement. Pass IdentityMatrix3D to clear it.
func (n *Node) SetMatrix3D(m Matrix3D) {
	if n.m3d == m {
		return
	}
	n.m3d = m
	n.has3D = !m.IsIdentity()
	n.invalidateTransform()
}

// Matrix3D returns the node's additional 3D transform.
func (n *Node) Matrix3D() Matrix3D {
	return n.m3d
}

// is3D reports whether the node's transform projects out of the plane.
func (n *Node) is3D() bool {
	return n.has3D && !n.localMatrix().IsAffine()
}

// GlobalMatrix returns the transform from this node's local space to the
// space of its tree root. The root's own transform is included.
func (n *Node) GlobalMatrix() Matrix3D {
	m := n.localMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.localMatrix().Multiply(p.childOffset(m))
	}
	return m
}

// childOffset applies the node's scroll offset to a matrix in child space.
// A scroll rect moves children by the negated origin of the window.
func (n *Node) childOffset(m Matrix3D) Matrix3D {
	if n.scrollRect == nil {
		return m
	}
	return Translate3D(-n.scrollRect.X, -n.scrollRect.Y, 0).Multiply(m)
}

// matrixTo returns the transform from this node's local space to target's
// local space. A nil target yields the identity.
func (n *Node) matrixTo(target *Node) Matrix3D {
	if target == nil {
		return IdentityMatrix3D
	}
	if target == n {
		return IdentityMatrix3D
	}
	inv, ok := target.GlobalMatrix().Invert()
	if !ok {
		return IdentityMatrix3D
	}
	return inv.Multiply(n.GlobalMatrix())
}

// --- Coordinate conversion ---

// GlobalToLocal converts a root-space point to this node's local space.
func (n *Node) GlobalToLocal(gx, gy float64) (lx, ly float64) {
	lx, ly, ok := n.GlobalMatrix().Unproject(gx, gy)
	if !ok {
		return gx, gy
	}
	return lx, ly
}

// LocalToGlobal converts a local point to root space.
func (n *Node) LocalToGlobal(lx, ly float64) (gx, gy float64) {
	return n.GlobalMatrix().Apply(lx, ly)
}
