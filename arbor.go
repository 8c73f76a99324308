package arbor

import (
	"image/color"
	"math"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication happens inside the backends when pixels are composited.
type Color struct {
	R, G, B, A float64
}

var (
	// ColorWhite is opaque white.
	ColorWhite = Color{1, 1, 1, 1}
	// ColorBlack is opaque black.
	ColorBlack = Color{0, 0, 0, 1}
	// ColorTransparent has every component at zero.
	ColorTransparent = Color{}
)

// RGBA is shorthand for Color{r, g, b, a}.
func RGBA(r, g, b, a float64) Color {
	return Color{r, g, b, a}
}

// ColorFromRGBA8 converts 8-bit channel values to a Color.
func ColorFromRGBA8(r, g, b, a uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, float64(a) / 255}
}

// WithAlpha returns c with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// IsOpaque reports whether the color has full alpha.
func (c Color) IsOpaque() bool {
	return c.A >= 1
}

// NRGBA converts the color to the standard library's non-premultiplied type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: clampByte(c.R),
		G: clampByte(c.G),
		B: clampByte(c.B),
		A: clampByte(c.A),
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Vec2 is a 2D vector used for points, offsets and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromLTRB builds a Rect from its edges.
func RectFromLTRB(l, t, r, b float64) Rect {
	return Rect{X: l, Y: t, Width: r - l, Height: b - t}
}

// Right returns X + Width.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns Y + Height.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return !(r.Width > 0 && r.Height > 0)
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and other overlap with a non-empty area.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Intersect returns the overlap of r and o. The result is the zero Rect when
// they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	l := math.Max(r.X, o.X)
	t := math.Max(r.Y, o.Y)
	rr := math.Min(r.Right(), o.Right())
	b := math.Min(r.Bottom(), o.Bottom())
	if rr <= l || b <= t {
		return Rect{}
	}
	return RectFromLTRB(l, t, rr, b)
}

// Union returns the smallest rectangle containing r and o. Empty inputs are
// ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return RectFromLTRB(
		math.Min(r.X, o.X), math.Min(r.Y, o.Y),
		math.Max(r.Right(), o.Right()), math.Max(r.Bottom(), o.Bottom()),
	)
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Outset grows r by dx horizontally and dy vertically on each side.
func (r Rect) Outset(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// Scale multiplies every component by s.
func (r Rect) Scale(s float64) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, Width: r.Width * s, Height: r.Height * s}
}

// RoundOut expands r to integer edges.
func (r Rect) RoundOut() Rect {
	l := math.Floor(r.X)
	t := math.Floor(r.Y)
	return RectFromLTRB(l, t, math.Ceil(r.Right()), math.Ceil(r.Bottom()))
}

// RRect is a rectangle with elliptical corners.
type RRect struct {
	Rect             Rect
	RadiusX, RadiusY float64
}

// IsRect reports whether the corners are square.
func (rr RRect) IsRect() bool {
	return rr.RadiusX <= 0 || rr.RadiusY <= 0
}

// clampedRadii limits the radii to half the rectangle's size.
func (rr RRect) clampedRadii() (float64, float64) {
	rx := math.Min(math.Max(rr.RadiusX, 0), rr.Rect.Width/2)
	ry := math.Min(math.Max(rr.RadiusY, 0), rr.Rect.Height/2)
	return rx, ry
}

// Contains reports whether (x, y) lies inside the rounded rectangle.
func (rr RRect) Contains(x, y float64) bool {
	r := rr.Rect
	if !r.Contains(x, y) {
		return false
	}
	rx, ry := rr.clampedRadii()
	if rx <= 0 || ry <= 0 {
		return true
	}
	var cx, cy float64
	switch {
	case x < r.X+rx:
		cx = r.X + rx
	case x > r.Right()-rx:
		cx = r.Right() - rx
	default:
		return true
	}
	switch {
	case y < r.Y+ry:
		cy = r.Y + ry
	case y > r.Bottom()-ry:
		cy = r.Bottom() - ry
	default:
		return true
	}
	dx := (x - cx) / rx
	dy := (y - cy) / ry
	return dx*dx+dy*dy <= 1
}

// BlendMode selects a compositing operation.
type BlendMode uint8

const (
	BlendNormal      BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                          // additive / lighter
	BlendMultiply                     // multiply (source * destination; only darkens)
	BlendScreen                       // screen (1 - (1-src)*(1-dst); only brightens)
	BlendDarken                       // keeps the darker of source and destination
	BlendLighten                      // keeps the lighter of source and destination
	BlendErase                        // destination-out (punch transparent holes)
	BlendMask                         // destination-in (clip destination to source alpha)
	BlendSourceIn                     // source-in (source only where destination exists)
	BlendSourceAtop                   // source-atop (source over destination, clipped to it)
	BlendBelow                        // destination-over (draw behind existing content)
	BlendNone                         // opaque copy (skip blending)
	BlendXor                          // exclusive-or of coverage
)

var blendModeNames = [...]string{
	BlendNormal:     "normal",
	BlendAdd:        "add",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
	BlendErase:      "erase",
	BlendMask:       "mask",
	BlendSourceIn:   "source-in",
	BlendSourceAtop: "source-atop",
	BlendBelow:      "below",
	BlendNone:       "none",
	BlendXor:        "xor",
}

func (b BlendMode) String() string {
	if int(b) < len(blendModeNames) {
		return blendModeNames[b]
	}
	return "unknown"
}

// MaskType selects which channel of a mask node gates the masked node.
type MaskType uint8

const (
	MaskAlpha     MaskType = iota // mask opacity
	MaskContour                   // mask geometry only, fill and alpha ignored
	MaskLuminance                 // rendered luminance of the mask
)

func (m MaskType) String() string {
	switch m {
	case MaskAlpha:
		return "alpha"
	case MaskContour:
		return "contour"
	case MaskLuminance:
		return "luminance"
	}
	return "unknown"
}

// RenderMode selects the strategy a DisplayList uses to produce a frame.
type RenderMode uint8

const (
	RenderDirect  RenderMode = iota // redraw everything every frame
	RenderPartial                   // redraw dirty rectangles onto a cached frame
	RenderTiled                     // cache per-zoom tile grids for pan and zoom
)

func (m RenderMode) String() string {
	switch m {
	case RenderDirect:
		return "direct"
	case RenderPartial:
		return "partial"
	case RenderTiled:
		return "tiled"
	}
	return "unknown"
}

// TextAlign controls horizontal text alignment within a TextBlock.
type TextAlign uint8

const (
	TextAlignLeft   TextAlign = iota // align text to the left edge (default)
	TextAlignCenter                  // center text horizontally
	TextAlignRight                   // align text to the right edge
)
