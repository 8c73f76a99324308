package ebitenrender

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/arbor"
)

// vectorSink maps arbor path segments through m into a vector.Path.
type vectorSink struct {
	m arbor.Matrix
	p *vector.Path
}

func (s *vectorSink) pt(x, y float64) (float32, float32) {
	x, y = s.m.Apply(x, y)
	return float32(x), float32(y)
}

func (s *vectorSink) MoveTo(x, y float64) { s.p.MoveTo(s.pt(x, y)) }
func (s *vectorSink) LineTo(x, y float64) { s.p.LineTo(s.pt(x, y)) }
func (s *vectorSink) Close()              { s.p.Close() }

func (s *vectorSink) QuadTo(cx, cy, x, y float64) {
	x1, y1 := s.pt(cx, cy)
	x2, y2 := s.pt(x, y)
	s.p.QuadTo(x1, y1, x2, y2)
}

func (s *vectorSink) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	x1, y1 := s.pt(c1x, c1y)
	x2, y2 := s.pt(c2x, c2y)
	x3, y3 := s.pt(x, y)
	s.p.CubicTo(x1, y1, x2, y2, x3, y3)
}

// curveSteps is how many lines a curve is split into before dashing.
const curveSteps = 16

// dasher splits a path into dashes in local space. The pattern restarts at
// every subpath.
type dasher struct {
	out       arbor.PathSink
	intervals []float64

	i        int     // current interval
	left     float64 // length left in the current interval
	x, y     float64
	sx, sy   float64 // subpath start
	penDown  bool
	hasStart bool
}

func newDasher(out arbor.PathSink, intervals []float64) arbor.PathSink {
	var total float64
	for _, v := range intervals {
		total += max(v, 0)
	}
	if total <= 0 {
		return out
	}
	return &dasher{out: out, intervals: intervals}
}

func (d *dasher) reset() {
	d.i = 0
	d.left = d.intervals[0]
	d.penDown = false
}

func (d *dasher) MoveTo(x, y float64) {
	d.x, d.y, d.sx, d.sy = x, y, x, y
	d.hasStart = true
	d.reset()
}

func (d *dasher) LineTo(x, y float64) {
	if !d.hasStart {
		d.MoveTo(x, y)
		return
	}
	dx, dy := x-d.x, y-d.y
	length := math.Hypot(dx, dy)
	pos := 0.0
	for pos < length {
		step := min(d.left, length-pos)
		on := d.i%2 == 0
		if on && !d.penDown {
			t := pos / length
			d.out.MoveTo(d.x+dx*t, d.y+dy*t)
			d.penDown = true
		}
		pos += step
		d.left -= step
		if on {
			t := pos / length
			d.out.LineTo(d.x+dx*t, d.y+dy*t)
		}
		if d.left <= 0 {
			d.i = (d.i + 1) % len(d.intervals)
			d.left = d.intervals[d.i]
			d.penDown = false
		}
	}
	d.x, d.y = x, y
}

func (d *dasher) QuadTo(cx, cy, x, y float64) {
	x0, y0 := d.x, d.y
	for k := 1; k <= curveSteps; k++ {
		t := float64(k) / curveSteps
		u := 1 - t
		d.LineTo(u*u*x0+2*u*t*cx+t*t*x, u*u*y0+2*u*t*cy+t*t*y)
	}
}

func (d *dasher) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	x0, y0 := d.x, d.y
	for k := 1; k <= curveSteps; k++ {
		t := float64(k) / curveSteps
		u := 1 - t
		a, b, c, e := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		d.LineTo(a*x0+b*c1x+c*c2x+e*x, a*y0+b*c1y+c*c2y+e*y)
	}
}

func (d *dasher) Close() {
	if d.hasStart {
		d.LineTo(d.sx, d.sy)
	}
}
