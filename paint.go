package arbor

import "math"

// PaintStyle selects whether geometry is filled or stroked.
type PaintStyle uint8

const (
	PaintFill   PaintStyle = iota // fill the interior
	PaintStroke                   // stroke the outline
)

// LineCap is the shape at the ends of open strokes.
type LineCap uint8

const (
	CapButt   LineCap = iota // flat, ends exactly at the endpoint
	CapRound                 // half circle past the endpoint
	CapSquare                // half square past the endpoint
)

// LineJoin is the shape where stroke segments meet.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota // sharp corner, limited by MiterLimit
	JoinRound                 // rounded corner
	JoinBevel                 // cut-off corner
)

// Paint describes how geometry is drawn. Paints are values; content keeps
// its own copy.
type Paint struct {
	Color       Color
	Style       PaintStyle
	StrokeWidth float64
	Cap         LineCap
	Join        LineJoin
	MiterLimit  float64
	Dash        []float64
	Antialias   bool
}

// FillPaint returns a fill paint of color c.
func FillPaint(c Color) Paint {
	return Paint{Color: c, Style: PaintFill, MiterLimit: 4, Antialias: true}
}

// StrokePaint returns a stroke paint of color c and width w.
func StrokePaint(c Color, w float64) Paint {
	return Paint{Color: c, Style: PaintStroke, StrokeWidth: w, MiterLimit: 4, Antialias: true}
}

// IsStroke reports whether the paint strokes.
func (p *Paint) IsStroke() bool {
	return p.Style == PaintStroke
}

// strokeOutset returns how far a stroke reaches past the geometry. Miter
// joins can extend up to MiterLimit half-widths.
func (p *Paint) strokeOutset() float64 {
	if p.Style != PaintStroke || p.StrokeWidth <= 0 {
		return 0
	}
	hw := p.StrokeWidth / 2
	if p.Join == JoinMiter {
		return hw * math.Max(1, p.MiterLimit)
	}
	if p.Cap == CapSquare {
		return hw * math.Sqrt2
	}
	return hw
}

// halfWidth returns half the stroke width, or 0 for fills.
func (p *Paint) halfWidth() float64 {
	if p.Style != PaintStroke || p.StrokeWidth <= 0 {
		return 0
	}
	return p.StrokeWidth / 2
}

// isOpaqueFill reports whether the paint covers its geometry completely.
func (p *Paint) isOpaqueFill() bool {
	return p.Style == PaintFill && p.Color.IsOpaque()
}

// forDraw returns the paint to hand to a canvas at the given opacity. In
// contour mode the color becomes opaque black so only geometry survives.
func (p Paint) forDraw(opacity float64, contour bool) Paint {
	if contour {
		p.Color = ColorBlack
		return p
	}
	p.Color.A *= opacity
	return p
}
