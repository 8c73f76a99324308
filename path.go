package arbor

import (
	"math"

	"github.com/gogpu/gg"
)

// FillRule decides which regions of a self-intersecting path are inside.
type FillRule uint8

const (
	FillNonZero FillRule = iota // non-zero winding
	FillEvenOdd                 // odd crossing count
)

// kappa is the cubic control distance approximating a quarter ellipse.
const kappa = 0.5522847498307936

// PathSink receives path segments in order. Backends implement it to turn a
// Path into their own geometry.
type PathSink interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadTo(cx, cy, x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	Close()
}

// Path is a vector outline built from lines and Bezier curves. Geometry
// queries (winding, tight bounds, shape detection) are answered by gg.
type Path struct {
	p    *gg.Path
	rule FillRule
}

// NewPath returns an empty path using the non-zero fill rule.
func NewPath() *Path {
	return &Path{p: gg.NewPath()}
}

// FillRule returns the path's fill rule.
func (p *Path) FillRule() FillRule {
	return p.rule
}

// SetFillRule sets the path's fill rule.
func (p *Path) SetFillRule(r FillRule) {
	p.rule = r
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) { p.p.MoveTo(x, y) }

// LineTo adds a line to (x, y).
func (p *Path) LineTo(x, y float64) { p.p.LineTo(x, y) }

// QuadTo adds a quadratic curve through control (cx, cy) to (x, y).
func (p *Path) QuadTo(cx, cy, x, y float64) { p.p.QuadraticTo(cx, cy, x, y) }

// CubicTo adds a cubic curve to (x, y).
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.p.CubicTo(c1x, c1y, c2x, c2y, x, y)
}

// Close closes the current subpath.
func (p *Path) Close() { p.p.Close() }

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.p.Elements()) == 0
}

// AddRect adds a closed rectangle.
func (p *Path) AddRect(r Rect) {
	p.p.Rectangle(r.X, r.Y, r.Width, r.Height)
}

// AddRRect adds a closed rounded rectangle. Square corners add a plain rect.
func (p *Path) AddRRect(rr RRect) {
	rx, ry := rr.clampedRadii()
	if rx <= 0 || ry <= 0 {
		p.AddRect(rr.Rect)
		return
	}
	r := rr.Rect
	kx, ky := rx*kappa, ry*kappa
	l, t, rt, b := r.X, r.Y, r.Right(), r.Bottom()
	p.MoveTo(l+rx, t)
	p.LineTo(rt-rx, t)
	p.CubicTo(rt-rx+kx, t, rt, t+ry-ky, rt, t+ry)
	p.LineTo(rt, b-ry)
	p.CubicTo(rt, b-ry+ky, rt-rx+kx, b, rt-rx, b)
	p.LineTo(l+rx, b)
	p.CubicTo(l+rx-kx, b, l, b-ry+ky, l, b-ry)
	p.LineTo(l, t+ry)
	p.CubicTo(l, t+ry-ky, l+rx-kx, t, l+rx, t)
	p.Close()
}

// AddOval adds an ellipse inscribed in r.
func (p *Path) AddOval(r Rect) {
	p.p.Ellipse(r.X+r.Width/2, r.Y+r.Height/2, r.Width/2, r.Height/2)
}

// AddCircle adds a circle.
func (p *Path) AddCircle(cx, cy, radius float64) {
	p.p.Circle(cx, cy, radius)
}

// Clone returns a deep copy.
func (p *Path) Clone() *Path {
	return &Path{p: p.p.Clone(), rule: p.rule}
}

// Transform returns a copy of the path mapped through m.
func (p *Path) Transform(m Matrix) *Path {
	return &Path{p: p.p.Transform(toGGMatrix(m)), rule: p.rule}
}

func toGGMatrix(m Matrix) gg.Matrix {
	return gg.Matrix{A: m[0], B: m[2], C: m[4], D: m[1], E: m[3], F: m[5]}
}

// Bounds returns the box around every point and control point. Cheap and
// never smaller than the drawn outline.
func (p *Path) Bounds() Rect {
	var pts []Vec2
	for _, el := range p.p.Elements() {
		switch e := el.(type) {
		case gg.MoveTo:
			pts = append(pts, Vec2{e.Point.X, e.Point.Y})
		case gg.LineTo:
			pts = append(pts, Vec2{e.Point.X, e.Point.Y})
		case gg.QuadTo:
			pts = append(pts, Vec2{e.Control.X, e.Control.Y}, Vec2{e.Point.X, e.Point.Y})
		case gg.CubicTo:
			pts = append(pts,
				Vec2{e.Control1.X, e.Control1.Y},
				Vec2{e.Control2.X, e.Control2.Y},
				Vec2{e.Point.X, e.Point.Y})
		}
	}
	return boundsOfPoints(pts...)
}

// TightBounds returns the exact box of the outline using curve extrema.
func (p *Path) TightBounds() Rect {
	b := p.p.BoundingBox()
	return RectFromLTRB(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}

// Contains reports whether (x, y) is inside the path under its fill rule.
func (p *Path) Contains(x, y float64) bool {
	w := p.p.Winding(gg.Pt(x, y))
	if p.rule == FillEvenOdd {
		return w%2 != 0
	}
	return w != 0
}

// StrokeContains reports whether (x, y) lies within halfWidth of the outline.
func (p *Path) StrokeContains(x, y, halfWidth float64) bool {
	if halfWidth <= 0 {
		return false
	}
	hit := false
	limit := halfWidth * halfWidth
	p.eachSegment(0.25, func(x0, y0, x1, y1 float64) bool {
		if distSqToSegment(x, y, x0, y0, x1, y1) <= limit {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// eachSegment flattens the path into line segments and calls fn for each
// until fn returns false. Closed subpaths include their closing segment.
func (p *Path) eachSegment(tolerance float64, fn func(x0, y0, x1, y1 float64) bool) {
	var cur, start gg.Point
	emit := func(to gg.Point) bool {
		ok := fn(cur.X, cur.Y, to.X, to.Y)
		cur = to
		return ok
	}
	for _, el := range p.p.Elements() {
		switch e := el.(type) {
		case gg.MoveTo:
			cur, start = e.Point, e.Point
		case gg.LineTo:
			if !emit(e.Point) {
				return
			}
		case gg.QuadTo:
			n := curveSteps(tolerance, cur, e.Control, e.Point)
			p0 := cur
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				pt := gg.Pt(
					mt*mt*p0.X+2*mt*t*e.Control.X+t*t*e.Point.X,
					mt*mt*p0.Y+2*mt*t*e.Control.Y+t*t*e.Point.Y,
				)
				if !emit(pt) {
					return
				}
			}
		case gg.CubicTo:
			n := curveSteps(tolerance, cur, e.Control1, e.Control2, e.Point)
			p0 := cur
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
				pt := gg.Pt(
					a*p0.X+b*e.Control1.X+c*e.Control2.X+d*e.Point.X,
					a*p0.Y+b*e.Control1.Y+c*e.Control2.Y+d*e.Point.Y,
				)
				if !emit(pt) {
					return
				}
			}
		case gg.Close:
			if cur != start && !emit(start) {
				return
			}
			cur = start
		}
	}
}

// curveSteps picks a subdivision count from the control polygon length.
func curveSteps(tolerance float64, pts ...gg.Point) int {
	var length float64
	for i := 1; i < len(pts); i++ {
		length += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	n := int(math.Ceil(math.Sqrt(length / tolerance)))
	if n < 2 {
		n = 2
	}
	if n > 128 {
		n = 128
	}
	return n
}

func distSqToSegment(px, py, x0, y0, x1, y1 float64) float64 {
	dx, dy := x1-x0, y1-y0
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = clamp01(((px-x0)*dx + (py-y0)*dy) / l2)
	}
	cx, cy := x0+t*dx-px, y0+t*dy-py
	return cx*cx + cy*cy
}

// Replay feeds the path's segments to sink.
func (p *Path) Replay(sink PathSink) {
	for _, el := range p.p.Elements() {
		switch e := el.(type) {
		case gg.MoveTo:
			sink.MoveTo(e.Point.X, e.Point.Y)
		case gg.LineTo:
			sink.LineTo(e.Point.X, e.Point.Y)
		case gg.QuadTo:
			sink.QuadTo(e.Control.X, e.Control.Y, e.Point.X, e.Point.Y)
		case gg.CubicTo:
			sink.CubicTo(e.Control1.X, e.Control1.Y, e.Control2.X, e.Control2.Y, e.Point.X, e.Point.Y)
		case gg.Close:
			sink.Close()
		}
	}
}

// asRRect reports whether the path is exactly a rectangle, rounded rectangle,
// circle or ellipse, and returns it as an RRect.
func (p *Path) asRRect() (RRect, bool) {
	if p.IsEmpty() {
		return RRect{}, false
	}
	s := gg.DetectShape(p.p)
	switch s.Kind {
	case gg.ShapeRect:
		r := Rect{X: s.CenterX - s.Width/2, Y: s.CenterY - s.Height/2, Width: s.Width, Height: s.Height}
		return RRect{Rect: r}, true
	case gg.ShapeRRect:
		r := Rect{X: s.CenterX - s.Width/2, Y: s.CenterY - s.Height/2, Width: s.Width, Height: s.Height}
		return RRect{Rect: r, RadiusX: s.CornerRadius, RadiusY: s.CornerRadius}, true
	case gg.ShapeCircle, gg.ShapeEllipse:
		r := Rect{X: s.CenterX - s.RadiusX, Y: s.CenterY - s.RadiusY, Width: 2 * s.RadiusX, Height: 2 * s.RadiusY}
		return RRect{Rect: r, RadiusX: s.RadiusX, RadiusY: s.RadiusY}, true
	}
	return RRect{}, false
}
