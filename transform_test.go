package arbor

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const epsilon = 1e-9

var approx = cmpopts.EquateApprox(0, epsilon)

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// --- Matrix ---

func TestMatrixMultiplyOrder(t *testing.T) {
	// Scale first, then translate.
	m := TranslateMatrix(10, 0).Multiply(ScaleMatrix(2, 2))
	x, y := m.Apply(1, 1)
	if !near(x, 12) || !near(y, 2) {
		t.Errorf("Apply = (%v, %v), want (12, 2)", x, y)
	}
}

func TestRotateMatrixClockwise(t *testing.T) {
	x, y := RotateMatrix(math.Pi/2).Apply(1, 0)
	if !near(x, 0) || !near(y, 1) {
		t.Errorf("Apply = (%v, %v), want (0, 1)", x, y)
	}
}

func TestMatrixInvert(t *testing.T) {
	m := TranslateMatrix(5, -3).Multiply(RotateMatrix(0.7)).Multiply(ScaleMatrix(2, 0.5))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert failed")
	}
	if diff := cmp.Diff(IdentityMatrix, m.Multiply(inv), approx); diff != "" {
		t.Errorf("m * inv (-want +got):\n%s", diff)
	}
	if _, ok := ScaleMatrix(0, 1).Invert(); ok {
		t.Error("singular matrix should not invert")
	}
}

func TestMatrixMapRect(t *testing.T) {
	r := Rect{Width: 10, Height: 20}
	got := RotateMatrix(math.Pi / 2).MapRect(r)
	want := Rect{X: -20, Y: 0, Width: 20, Height: 10}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("MapRect (-want +got):\n%s", diff)
	}
	if !ScaleMatrix(-1, 1).MapRect(Rect{}).IsEmpty() {
		t.Error("empty rect should stay empty")
	}
}

func TestMatrixAxisAligned(t *testing.T) {
	if !RotateMatrix(math.Pi / 2).IsAxisAligned() {
		t.Error("quarter turn is axis-aligned")
	}
	if RotateMatrix(0.3).IsAxisAligned() {
		t.Error("arbitrary rotation is not axis-aligned")
	}
	if got := ScaleMatrix(2, 3).MaxScale(); got != 3 {
		t.Errorf("MaxScale = %v, want 3", got)
	}
}

// --- Matrix3D ---

func TestMatrix3DAffineRoundTrip(t *testing.T) {
	m := TranslateMatrix(3, 4).Multiply(RotateMatrix(1.1))
	m3 := Matrix3DFromAffine(m)
	if !m3.IsAffine() {
		t.Fatal("lifted affine matrix should be affine")
	}
	if diff := cmp.Diff(m, m3.Affine(), approx); diff != "" {
		t.Errorf("Affine (-want +got):\n%s", diff)
	}
}

func TestMatrix3DRotateZMatchesRotate(t *testing.T) {
	a := RotateZ3D(0.4).Affine()
	if diff := cmp.Diff(RotateMatrix(0.4), a, approx); diff != "" {
		t.Errorf("RotateZ3D (-want +got):\n%s", diff)
	}
}

func TestMatrix3DPerspectiveUnproject(t *testing.T) {
	m := Perspective3D(500).Multiply(RotateY3D(0.5))
	if m.IsAffine() {
		t.Fatal("perspective should not be affine")
	}
	px, py := m.Apply(40, 30)
	lx, ly, ok := m.Unproject(px, py)
	if !ok {
		t.Fatal("Unproject failed")
	}
	if !near(lx, 40) || !near(ly, 30) {
		t.Errorf("Unproject = (%v, %v), want (40, 30)", lx, ly)
	}
}

func TestMatrix3DInvert(t *testing.T) {
	m := Translate3D(10, 20, 0).Multiply(RotateX3D(0.3)).Multiply(Scale3D(2, 2, 1))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert failed")
	}
	if diff := cmp.Diff(IdentityMatrix3D, m.Multiply(inv), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("m * inv (-want +got):\n%s", diff)
	}
}

// --- Transform2D ---

func TestTransform2DPivot(t *testing.T) {
	tr := NewTransform2D()
	tr.X, tr.Y = 100, 100
	tr.PivotX, tr.PivotY = 10, 10
	tr.Rotation = math.Pi
	x, y := tr.Matrix().Apply(10, 10)
	if !near(x, 100) || !near(y, 100) {
		t.Errorf("pivot maps to (%v, %v), want (100, 100)", x, y)
	}
	x, y = tr.Matrix().Apply(20, 10)
	if !near(x, 90) || !near(y, 100) {
		t.Errorf("pivot+10 maps to (%v, %v), want (90, 100)", x, y)
	}
}

func TestTransform2DScaleThenTranslate(t *testing.T) {
	tr := NewTransform2D()
	tr.X, tr.Y = 5, 7
	tr.ScaleX, tr.ScaleY = 2, 3
	want := Matrix{2, 0, 0, 3, 5, 7}
	if diff := cmp.Diff(want, tr.Matrix(), approx); diff != "" {
		t.Errorf("Matrix (-want +got):\n%s", diff)
	}
}

func TestTransform2DSkew(t *testing.T) {
	tr := NewTransform2D()
	tr.SkewX = math.Pi / 4
	x, y := tr.Matrix().Apply(0, 10)
	if !near(x, 10) || !near(y, 10) {
		t.Errorf("Apply = (%v, %v), want (10, 10)", x, y)
	}
}

// --- Node transforms ---

func TestGlobalMatrixChain(t *testing.T) {
	root, mid, leaf := NewLayer("root"), NewLayer("mid"), NewLayer("leaf")
	root.AddChild(mid)
	mid.AddChild(leaf)
	mid.SetPosition(10, 20)
	mid.SetScale(2, 2)
	leaf.SetPosition(5, 5)

	x, y := leaf.LocalToGlobal(1, 1)
	if !near(x, 22) || !near(y, 32) {
		t.Errorf("LocalToGlobal = (%v, %v), want (22, 32)", x, y)
	}
	lx, ly := leaf.GlobalToLocal(22, 32)
	if !near(lx, 1) || !near(ly, 1) {
		t.Errorf("GlobalToLocal = (%v, %v), want (1, 1)", lx, ly)
	}
}

func TestScrollRectOffsetsChildren(t *testing.T) {
	p, c := NewLayer("p"), NewLayer("c")
	p.AddChild(c)
	p.SetScrollRect(&Rect{X: 30, Y: 40, Width: 100, Height: 100})
	x, y := c.LocalToGlobal(30, 40)
	if !near(x, 0) || !near(y, 0) {
		t.Errorf("LocalToGlobal = (%v, %v), want (0, 0)", x, y)
	}
}

func TestSetMatrix3DAppliesBeforePlacement(t *testing.T) {
	n := NewLayer("n")
	n.SetPosition(100, 0)
	n.SetMatrix3D(Translate3D(0, 50, 0))
	x, y := n.LocalToGlobal(0, 0)
	if !near(x, 100) || !near(y, 50) {
		t.Errorf("LocalToGlobal = (%v, %v), want (100, 50)", x, y)
	}
	n.SetMatrix3D(IdentityMatrix3D)
	if n.is3D() {
		t.Error("identity 3D matrix should clear the 3D state")
	}
}

func TestSetPositionNoopKeepsClean(t *testing.T) {
	n := NewLayer("n")
	n.SetPosition(1, 2)
	n.dirty = 0
	n.SetPosition(1, 2)
	if n.dirty != 0 {
		t.Errorf("dirty = %b after a no-op SetPosition", n.dirty)
	}
	n.SetPosition(3, 2)
	if !n.dirty.has(dirtyTransform) {
		t.Error("SetPosition should mark the transform dirty")
	}
}
