package arbor

import (
	"math"
)

// Filter is a visual effect applied to a node's rendered output. Filters run
// on device-space surfaces; lengths given in local units are converted with
// the FilterContext.
type Filter interface {
	// Apply renders src into dst with the filter effect. dst has the same
	// size as src and starts cleared.
	Apply(fc *FilterContext, src, dst Surface)
	// FilterBounds returns the local-space area covered by the output for an
	// input covering r.
	FilterBounds(r Rect) Rect
}

// FilterContext carries what a filter or style needs while it runs.
type FilterContext struct {
	backend Backend
	pool    *surfacePool
	linear  Matrix // local to device, translation dropped
	temps   []Surface
}

func newFilterContext(pool *surfacePool, m Matrix) *FilterContext {
	m[4], m[5] = 0, 0
	return &FilterContext{backend: pool.backend, pool: pool, linear: m}
}

// Backend returns the backend the surfaces belong to.
func (fc *FilterContext) Backend() Backend { return fc.backend }

// Temp returns a cleared scratch surface at least w by h. It is released
// after the node finishes drawing.
func (fc *FilterContext) Temp(w, h int) (Surface, error) {
	s, err := fc.pool.acquire(w, h)
	if err != nil {
		return nil, err
	}
	fc.temps = append(fc.temps, s)
	return s, nil
}

// DeviceVector maps a local-space offset to device pixels.
func (fc *FilterContext) DeviceVector(dx, dy float64) (float64, float64) {
	return fc.linear.ApplyVector(dx, dy)
}

// DeviceScale returns the device pixels per local unit along each axis.
func (fc *FilterContext) DeviceScale() (sx, sy float64) {
	return fc.linear.ScaleFactors()
}

// release returns every scratch surface to the pool.
func (fc *FilterContext) release() {
	for _, s := range fc.temps {
		fc.pool.release(s)
	}
	fc.temps = fc.temps[:0]
}

// surfaceRect returns the full pixel rect of s.
func surfaceRect(s Surface) Rect {
	return Rect{Width: float64(s.Width()), Height: float64(s.Height())}
}

// copySurface draws src onto dst at the same position.
func copySurface(dst, src Surface, opts *SurfaceOptions) {
	r := surfaceRect(src)
	dst.Canvas().DrawSurface(src, r, r, opts)
}

// offsetSurface draws src onto dst moved by (dx, dy) device pixels.
func offsetSurface(dst, src Surface, dx, dy float64, opts *SurfaceOptions) {
	r := surfaceRect(src)
	dst.Canvas().DrawSurface(src, r, r.Offset(dx, dy), opts)
}

// blurOutset is how far a Gaussian of deviation sigma visibly spreads.
func blurOutset(sigma float64) float64 {
	return 3 * math.Max(sigma, 0)
}

// --- BlurFilter ---

// BlurFilter applies a Gaussian blur. Sigma is in local units.
type BlurFilter struct {
	SigmaX, SigmaY float64
}

// NewBlurFilter creates a blur with the same deviation on both axes.
func NewBlurFilter(sigma float64) *BlurFilter {
	return &BlurFilter{SigmaX: max(sigma, 0), SigmaY: max(sigma, 0)}
}

// Apply blurs src into dst.
func (f *BlurFilter) Apply(fc *FilterContext, src, dst Surface) {
	sx, sy := fc.DeviceScale()
	if f.SigmaX <= 0 && f.SigmaY <= 0 {
		copySurface(dst, src, nil)
		return
	}
	fc.Backend().Blur(dst, src, f.SigmaX*sx, f.SigmaY*sy)
}

// FilterBounds grows r by three deviations.
func (f *BlurFilter) FilterBounds(r Rect) Rect {
	return r.Outset(blurOutset(f.SigmaX), blurOutset(f.SigmaY))
}

// --- ColorMatrixFilter ---

// ColorMatrixFilter transforms every pixel's color with a 4x5 matrix.
type ColorMatrixFilter struct {
	Matrix ColorMatrix
}

// NewColorMatrixFilter creates a color matrix filter initialized to the identity.
func NewColorMatrixFilter() *ColorMatrixFilter {
	return &ColorMatrixFilter{Matrix: IdentityColorMatrix}
}

// SetBrightness sets the matrix to adjust brightness by the given offset [-1, 1].
func (f *ColorMatrixFilter) SetBrightness(b float64) {
	f.Matrix = ColorMatrix{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// SetContrast sets the matrix to adjust contrast. c=1 is normal, 0=gray, >1 is higher.
func (f *ColorMatrixFilter) SetContrast(c float64) {
	t := (1.0 - c) / 2.0
	f.Matrix = ColorMatrix{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SetSaturation sets the matrix to adjust saturation. s=1 is normal, 0=grayscale.
func (f *ColorMatrixFilter) SetSaturation(s float64) {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	f.Matrix = ColorMatrix{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SetHueRotate sets the matrix to rotate hue by angle radians.
func (f *ColorMatrixFilter) SetHueRotate(angle float64) {
	sin, cos := math.Sincos(angle)
	const lr, lg, lb = 0.213, 0.715, 0.072
	f.Matrix = ColorMatrix{
		lr + cos*(1-lr) + sin*(-lr), lg + cos*(-lg) + sin*(-lg), lb + cos*(-lb) + sin*(1-lb), 0, 0,
		lr + cos*(-lr) + sin*0.143, lg + cos*(1-lg) + sin*0.140, lb + cos*(-lb) + sin*(-0.283), 0, 0,
		lr + cos*(-lr) + sin*(-(1 - lr)), lg + cos*(-lg) + sin*lg, lb + cos*(1-lb) + sin*lb, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Apply writes the transformed colors of src into dst.
func (f *ColorMatrixFilter) Apply(fc *FilterContext, src, dst Surface) {
	fc.Backend().ColorMatrix(dst, src, &f.Matrix)
}

// FilterBounds returns r unchanged.
func (f *ColorMatrixFilter) FilterBounds(r Rect) Rect { return r }

// --- OutlineFilter ---

// OutlineFilter draws the source in 8 cardinal/diagonal offsets with the
// outline color, then draws the original on top. Thickness is in local units.
type OutlineFilter struct {
	Thickness float64
	Color     Color
}

// NewOutlineFilter creates an outline filter.
func NewOutlineFilter(thickness float64, c Color) *OutlineFilter {
	return &OutlineFilter{Thickness: max(thickness, 0), Color: c}
}

// Apply draws an 8-direction offset outline behind the source image.
func (f *OutlineFilter) Apply(fc *FilterContext, src, dst Surface) {
	tx, ty := fc.DeviceScale()
	tx *= f.Thickness
	ty *= f.Thickness
	offsets := [8][2]float64{
		{-tx, 0}, {tx, 0}, {0, -ty}, {0, ty},
		{-tx, -ty}, {tx, -ty}, {-tx, ty}, {tx, ty},
	}
	tint := &SurfaceOptions{Alpha: 1, Fill: &f.Color}
	for _, off := range offsets {
		offsetSurface(dst, src, off[0], off[1], tint)
	}
	copySurface(dst, src, nil)
}

// FilterBounds grows r by the thickness.
func (f *OutlineFilter) FilterBounds(r Rect) Rect {
	return r.Outset(f.Thickness, f.Thickness)
}

// --- BlendFilter ---

// BlendFilter blends a flat color over the source with Mode, keeping the
// source's coverage.
type BlendFilter struct {
	Color Color
	Mode  BlendMode
}

// NewBlendFilter creates a color blend filter.
func NewBlendFilter(c Color, mode BlendMode) *BlendFilter {
	return &BlendFilter{Color: c, Mode: mode}
}

// Apply draws src, blends the color over it and trims the result to the
// source's alpha.
func (f *BlendFilter) Apply(fc *FilterContext, src, dst Surface) {
	fill, err := fc.Temp(src.Width(), src.Height())
	if err != nil {
		copySurface(dst, src, nil)
		return
	}
	fill.Canvas().Clear(f.Color)
	copySurface(dst, src, nil)
	copySurface(dst, fill, &SurfaceOptions{Alpha: 1, Blend: f.Mode})
	copySurface(dst, src, &SurfaceOptions{Alpha: 1, Blend: BlendMask})
}

// FilterBounds returns r unchanged.
func (f *BlendFilter) FilterBounds(r Rect) Rect { return r }

// filterMargin returns how far, in local units, the node's effects reach
// outside its body bounds r.
func (n *Node) filterMargin(r Rect) float64 {
	e := n.effectBoundsUnmasked(r)
	return max(r.X-e.X, e.Right()-r.Right(), r.Y-e.Y, e.Bottom()-r.Bottom(), 0)
}

// effectBoundsUnmasked is effectBounds without the mask intersection.
func (n *Node) effectBoundsUnmasked(r Rect) Rect {
	out := r
	for _, s := range n.styles {
		out = out.Union(s.StyleBounds(r))
	}
	for _, f := range n.filters {
		out = f.FilterBounds(out)
	}
	return out
}
