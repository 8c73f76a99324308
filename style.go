package arbor

import "math"

// StylePosition says whether a style draws behind or in front of the node.
type StylePosition uint8

const (
	StyleBelow StylePosition = iota
	StyleAbove
)

// LayerStyle is a decoration derived from a node's rendered pixels, drawn
// below or above them before any filter runs. Styles run in list order
// within their position.
type LayerStyle interface {
	Position() StylePosition
	// StyleBounds returns the local-space area the style covers for a node
	// whose body covers r.
	StyleBounds(r Rect) Rect
	// Draw composites the style onto dst. source holds the node's body.
	Draw(fc *FilterContext, dst, source Surface)
}

// DropShadowStyle draws a shadow of the node behind it.
type DropShadowStyle struct {
	OffsetX, OffsetY float64
	Blur             float64
	Color            Color
}

// NewDropShadowStyle creates a drop shadow style.
func NewDropShadowStyle(dx, dy, blur float64, c Color) *DropShadowStyle {
	return &DropShadowStyle{OffsetX: dx, OffsetY: dy, Blur: max(blur, 0), Color: c}
}

func (s *DropShadowStyle) Position() StylePosition { return StyleBelow }

func (s *DropShadowStyle) StyleBounds(r Rect) Rect {
	o := blurOutset(s.Blur)
	return r.Offset(s.OffsetX, s.OffsetY).Outset(o, o)
}

func (s *DropShadowStyle) Draw(fc *FilterContext, dst, source Surface) {
	drawShadow(fc, dst, source, s.OffsetX, s.OffsetY, s.Blur, s.Blur, s.Color)
}

// InnerShadowStyle draws a shadow inside the node's edge, over it.
type InnerShadowStyle struct {
	OffsetX, OffsetY float64
	Blur             float64
	Color            Color
}

// NewInnerShadowStyle creates an inner shadow style.
func NewInnerShadowStyle(dx, dy, blur float64, c Color) *InnerShadowStyle {
	return &InnerShadowStyle{OffsetX: dx, OffsetY: dy, Blur: max(blur, 0), Color: c}
}

func (s *InnerShadowStyle) Position() StylePosition { return StyleAbove }

func (s *InnerShadowStyle) StyleBounds(r Rect) Rect { return r }

func (s *InnerShadowStyle) Draw(fc *FilterContext, dst, source Surface) {
	shadow := innerShadow(fc, source, s.OffsetX, s.OffsetY, s.Blur, s.Blur, s.Color)
	if shadow == nil {
		return
	}
	copySurface(shadow, source, &SurfaceOptions{Alpha: 1, Blend: BlendMask})
	copySurface(dst, shadow, nil)
}

// StrokeStyle draws a solid ring of Width around the outside of the node's
// pixels.
type StrokeStyle struct {
	Width float64
	Color Color
}

// NewStrokeStyle creates an outside stroke style.
func NewStrokeStyle(width float64, c Color) *StrokeStyle {
	return &StrokeStyle{Width: max(width, 0), Color: c}
}

func (s *StrokeStyle) Position() StylePosition { return StyleAbove }

func (s *StrokeStyle) StyleBounds(r Rect) Rect {
	return r.Outset(s.Width, s.Width)
}

// strokeSteps is the number of directions the source is smeared in.
const strokeSteps = 16

func (s *StrokeStyle) Draw(fc *FilterContext, dst, source Surface) {
	if s.Width <= 0 {
		return
	}
	ring, err := fc.Temp(source.Width(), source.Height())
	if err != nil {
		return
	}
	tint := &SurfaceOptions{Alpha: 1, Fill: &s.Color}
	for i := 0; i < strokeSteps; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / strokeSteps)
		dx, dy := fc.DeviceVector(cos*s.Width, sin*s.Width)
		offsetSurface(ring, source, dx, dy, tint)
	}
	copySurface(ring, source, &SurfaceOptions{Alpha: 1, Blend: BlendErase})
	copySurface(dst, ring, nil)
}
