package arbor

import "math"

// Matrix is a 2D affine transform stored as [a, b, c, d, tx, ty].
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the identity affine transform.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

// TranslateMatrix returns a translation by (tx, ty).
func TranslateMatrix(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// ScaleMatrix returns a scale by (sx, sy) around the origin.
func ScaleMatrix(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// RotateMatrix returns a rotation by angle radians (clockwise, Y down).
func RotateMatrix(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Multiply returns m * child: child is applied first, then m.
func (m Matrix) Multiply(child Matrix) Matrix {
	return Matrix{
		m[0]*child[0] + m[2]*child[1],
		m[1]*child[0] + m[3]*child[1],
		m[0]*child[2] + m[2]*child[3],
		m[1]*child[2] + m[3]*child[3],
		m[0]*child[4] + m[2]*child[5] + m[4],
		m[1]*child[4] + m[3]*child[5] + m[5],
	}
}

// Invert returns the inverse transform. ok is false when the matrix is
// singular, in which case the identity is returned.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityMatrix, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, true
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyVector transforms a direction, ignoring translation.
func (m Matrix) ApplyVector(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y, m[1]*x + m[3]*y
}

// MapRect returns the axis-aligned bounds of r after transformation.
func (m Matrix) MapRect(r Rect) Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	if m.IsScaleTranslate() {
		x0, y0 := m.Apply(r.X, r.Y)
		x1, y1 := m.Apply(r.Right(), r.Bottom())
		return RectFromLTRB(math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1))
	}
	return boundsOfPoints(
		m.point(r.X, r.Y), m.point(r.Right(), r.Y),
		m.point(r.Right(), r.Bottom()), m.point(r.X, r.Bottom()),
	)
}

func (m Matrix) point(x, y float64) Vec2 {
	px, py := m.Apply(x, y)
	return Vec2{px, py}
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool {
	return m == IdentityMatrix
}

// IsScaleTranslate reports whether m has no rotation or skew.
func (m Matrix) IsScaleTranslate() bool {
	return m[1] == 0 && m[2] == 0
}

// IsAxisAligned reports whether m maps axis-aligned rectangles to
// axis-aligned rectangles (scale, translate and 90 degree turns).
func (m Matrix) IsAxisAligned() bool {
	return (m[1] == 0 && m[2] == 0) || (m[0] == 0 && m[3] == 0)
}

// ScaleFactors returns the lengths of the transformed unit axes.
func (m Matrix) ScaleFactors() (sx, sy float64) {
	return math.Hypot(m[0], m[1]), math.Hypot(m[2], m[3])
}

// MaxScale returns the largest axis scale of m.
func (m Matrix) MaxScale() float64 {
	sx, sy := m.ScaleFactors()
	return math.Max(sx, sy)
}

func boundsOfPoints(pts ...Vec2) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	if minX > maxX {
		return Rect{}
	}
	return RectFromLTRB(minX, minY, maxX, maxY)
}

// --- Matrix3D ---

// Matrix3D is a row-major 4x4 transform. A 2D point (x, y) is mapped as the
// column vector (x, y, 0, 1); the fourth row carries perspective.
type Matrix3D [16]float64

// IdentityMatrix3D is the identity 4x4 transform.
var IdentityMatrix3D = Matrix3D{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Matrix3DFromAffine lifts a 2D affine transform into 4x4 form.
func Matrix3DFromAffine(m Matrix) Matrix3D {
	return Matrix3D{
		m[0], m[2], 0, m[4],
		m[1], m[3], 0, m[5],
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate3D returns a translation by (x, y, z).
func Translate3D(x, y, z float64) Matrix3D {
	m := IdentityMatrix3D
	m[3], m[7], m[11] = x, y, z
	return m
}

// Scale3D returns a scale by (x, y, z).
func Scale3D(x, y, z float64) Matrix3D {
	m := IdentityMatrix3D
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateX3D rotates around the X axis by angle radians.
func RotateX3D(angle float64) Matrix3D {
	sin, cos := math.Sincos(angle)
	m := IdentityMatrix3D
	m[5], m[6] = cos, -sin
	m[9], m[10] = sin, cos
	return m
}

// RotateY3D rotates around the Y axis by angle radians.
func RotateY3D(angle float64) Matrix3D {
	sin, cos := math.Sincos(angle)
	m := IdentityMatrix3D
	m[0], m[2] = cos, sin
	m[8], m[10] = -sin, cos
	return m
}

// RotateZ3D rotates around the Z axis by angle radians.
func RotateZ3D(angle float64) Matrix3D {
	return Matrix3DFromAffine(RotateMatrix(angle))
}

// Perspective3D returns a projection with the eye at distance d on the +Z
// axis: points at z move toward the origin by a factor d/(d-z).
func Perspective3D(d float64) Matrix3D {
	m := IdentityMatrix3D
	if d != 0 {
		m[14] = -1 / d
	}
	return m
}

// Multiply returns m * child: child is applied first, then m.
func (m Matrix3D) Multiply(child Matrix3D) Matrix3D {
	var r Matrix3D
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * child[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// IsAffine reports whether m acts on the z=0 plane as a 2D affine transform.
func (m Matrix3D) IsAffine() bool {
	return m[12] == 0 && m[13] == 0 && m[15] == 1
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix3D) IsIdentity() bool {
	return m == IdentityMatrix3D
}

// Affine extracts the 2D affine part of m. Only meaningful when IsAffine.
func (m Matrix3D) Affine() Matrix {
	return Matrix{m[0], m[4], m[1], m[5], m[3], m[7]}
}

// minW keeps projected points in front of the eye.
const minW = 1e-5

// Apply projects the 2D point (x, y, 0).
func (m Matrix3D) Apply(x, y float64) (float64, float64) {
	px := m[0]*x + m[1]*y + m[3]
	py := m[4]*x + m[5]*y + m[7]
	w := m[12]*x + m[13]*y + m[15]
	if w < minW {
		w = minW
	}
	return px / w, py / w
}

// MapRect returns the bounds of r's projected corners.
func (m Matrix3D) MapRect(r Rect) Rect {
	if m.IsAffine() {
		return m.Affine().MapRect(r)
	}
	if r.IsEmpty() {
		return Rect{}
	}
	pt := func(x, y float64) Vec2 {
		px, py := m.Apply(x, y)
		return Vec2{px, py}
	}
	return boundsOfPoints(pt(r.X, r.Y), pt(r.Right(), r.Y), pt(r.Right(), r.Bottom()), pt(r.X, r.Bottom()))
}

// homography drops the z row and column, leaving the 3x3 plane mapping.
func (m Matrix3D) homography() [9]float64 {
	return [9]float64{
		m[0], m[1], m[3],
		m[4], m[5], m[7],
		m[12], m[13], m[15],
	}
}

// Unproject maps a projected point back to the z=0 plane. ok is false when
// the plane mapping is singular.
func (m Matrix3D) Unproject(x, y float64) (lx, ly float64, ok bool) {
	inv, ok := invert3x3(m.homography())
	if !ok {
		return 0, 0, false
	}
	px := inv[0]*x + inv[1]*y + inv[2]
	py := inv[3]*x + inv[4]*y + inv[5]
	w := inv[6]*x + inv[7]*y + inv[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	return px / w, py / w, true
}

// PlaneInverse returns the inverse of the z=0 plane mapping as a 3x3
// row-major homography, used by backends that sample projected surfaces.
func (m Matrix3D) PlaneInverse() ([9]float64, bool) {
	return invert3x3(m.homography())
}

func invert3x3(h [9]float64) ([9]float64, bool) {
	a, b, c := h[0], h[1], h[2]
	d, e, f := h[3], h[4], h[5]
	g, hh, i := h[6], h[7], h[8]
	A := e*i - f*hh
	B := -(d*i - f*g)
	C := d*hh - e*g
	det := a*A + b*B + c*C
	if math.Abs(det) < 1e-12 {
		return [9]float64{}, false
	}
	inv := 1 / det
	return [9]float64{
		A * inv, -(b*i - c*hh) * inv, (b*f - c*e) * inv,
		B * inv, (a*i - c*g) * inv, -(a*f - c*d) * inv,
		C * inv, -(a*hh - b*g) * inv, (a*e - b*d) * inv,
	}, true
}

// Invert returns the full 4x4 inverse. ok is false for singular matrices.
func (m Matrix3D) Invert() (Matrix3D, bool) {
	if m.IsAffine() && m[2] == 0 && m[6] == 0 && m[8] == 0 && m[9] == 0 && m[10] == 1 && m[11] == 0 && m[14] == 0 {
		inv, ok := m.Affine().Invert()
		return Matrix3DFromAffine(inv), ok
	}
	var inv Matrix3D
	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	if math.Abs(det) < 1e-12 {
		return IdentityMatrix3D, false
	}
	det = 1 / det
	for i := range inv {
		inv[i] *= det
	}
	return inv, true
}
