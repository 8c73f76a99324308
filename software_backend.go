package arbor

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// SoftwareBackend rasterizes on the CPU. Paths, strokes and dashes are
// rasterized by gg into coverage masks; compositing, blend modes, blur and
// color matrices run on premultiplied RGBA pixels.
type SoftwareBackend struct {
	surfaces int // live surfaces
}

// NewSoftwareBackend returns a CPU backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// LiveSurfaces returns the number of surfaces created and not yet disposed.
func (b *SoftwareBackend) LiveSurfaces() int { return b.surfaces }

// NewSurface returns a transparent w by h surface.
func (b *SoftwareBackend) NewSurface(w, h int) (Surface, error) {
	if w <= 0 || h <= 0 || w > MaxSurfaceSize || h > MaxSurfaceSize {
		return nil, fmt.Errorf("arbor: software surface %dx%d: %w", w, h, ErrInvalidSize)
	}
	b.surfaces++
	return &SoftwareSurface{backend: b, img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

// Blur writes src blurred to dst.
func (b *SoftwareBackend) Blur(dst, src Surface, sigmaX, sigmaY float64) {
	d, s := asSoftware(dst), asSoftware(src)
	if d == nil || s == nil {
		return
	}
	blurRGBA(d.img, s.img, max(sigmaX, 0), max(sigmaY, 0))
}

// ColorMatrix writes src transformed by m to dst.
func (b *SoftwareBackend) ColorMatrix(dst, src Surface, m *ColorMatrix) {
	d, s := asSoftware(dst), asSoftware(src)
	if d == nil || s == nil {
		return
	}
	colorMatrixRGBA(d.img, s.img, m)
}

func asSoftware(s Surface) *SoftwareSurface {
	ss, ok := s.(*SoftwareSurface)
	if !ok || ss.img == nil {
		return nil
	}
	return ss
}

// SoftwareSurface is a premultiplied RGBA pixel buffer.
type SoftwareSurface struct {
	backend *SoftwareBackend
	img     *image.RGBA
}

func (s *SoftwareSurface) Width() int       { return s.img.Rect.Dx() }
func (s *SoftwareSurface) Height() int      { return s.img.Rect.Dy() }
func (s *SoftwareSurface) Backend() Backend { return s.backend }

// Canvas returns a drawing context over the whole surface.
func (s *SoftwareSurface) Canvas() Canvas {
	return &softwareCanvas{s: s, state: canvasState{m: IdentityMatrix, clip: s.img.Rect}}
}

// Dispose releases the pixels. The surface must not be drawn to again.
func (s *SoftwareSurface) Dispose() {
	if s.img == nil {
		return
	}
	s.img = nil
	s.backend.surfaces--
}

// Image returns the premultiplied pixels.
func (s *SoftwareSurface) Image() *image.RGBA { return s.img }

// ReadPixels returns an unpremultiplied copy of the pixels.
func (s *SoftwareSurface) ReadPixels() *image.NRGBA {
	out := image.NewNRGBA(s.img.Rect)
	draw.Draw(out, out.Rect, s.img, image.Point{}, draw.Src)
	return out
}

// PixelAt returns the unpremultiplied color at (x, y).
func (s *SoftwareSurface) PixelAt(x, y int) Color {
	if !(image.Point{x, y}.In(s.img.Rect)) {
		return ColorTransparent
	}
	p := loadPx(s.img.Pix, s.img.PixOffset(x, y))
	if p.a == 0 {
		return ColorTransparent
	}
	return Color{p.r / p.a, p.g / p.a, p.b / p.a, p.a}
}

type canvasState struct {
	m    Matrix
	clip image.Rectangle
}

type softwareCanvas struct {
	s     *SoftwareSurface
	state canvasState
	stack []canvasState
}

func (c *softwareCanvas) Backend() Backend { return c.s.backend }

func (c *softwareCanvas) Save() { c.stack = append(c.stack, c.state) }

func (c *softwareCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *softwareCanvas) Matrix() Matrix     { return c.state.m }
func (c *softwareCanvas) SetMatrix(m Matrix) { c.state.m = m }
func (c *softwareCanvas) Concat(m Matrix)    { c.state.m = c.state.m.Multiply(m) }
func (c *softwareCanvas) ClipBounds() Rect   { return rectFromImage(c.state.clip) }
func (c *softwareCanvas) live() bool         { return c.s.img != nil && !c.state.clip.Empty() }
func (c *softwareCanvas) device(r Rect) Rect { return c.state.m.MapRect(r) }

func (c *softwareCanvas) area(r Rect) image.Rectangle {
	return roundOutImage(c.device(r)).Intersect(c.state.clip)
}

// ClipRect intersects the clip with r's device bounds, edges rounded to the
// nearest pixel.
func (c *softwareCanvas) ClipRect(r Rect) {
	d := c.device(r)
	if d.IsEmpty() {
		c.state.clip = image.Rectangle{}
		return
	}
	ir := image.Rect(
		int(math.Round(d.X)), int(math.Round(d.Y)),
		int(math.Round(d.Right())), int(math.Round(d.Bottom())),
	)
	c.state.clip = c.state.clip.Intersect(ir)
}

func (c *softwareCanvas) Clear(col Color) {
	if !c.live() {
		return
	}
	p := premultiplied(col)
	img := c.s.img
	for y := c.state.clip.Min.Y; y < c.state.clip.Max.Y; y++ {
		for x := c.state.clip.Min.X; x < c.state.clip.Max.X; x++ {
			storePx(img.Pix, img.PixOffset(x, y), p)
		}
	}
}

func (c *softwareCanvas) DrawRect(r Rect, p *Paint) {
	c.drawGeometry(r, p, FillNonZero, func(s PathSink) {
		s.MoveTo(r.X, r.Y)
		s.LineTo(r.Right(), r.Y)
		s.LineTo(r.Right(), r.Bottom())
		s.LineTo(r.X, r.Bottom())
		s.Close()
	})
}

func (c *softwareCanvas) DrawRRect(rr RRect, p *Paint) {
	path := NewPath()
	path.AddRRect(rr)
	c.drawGeometry(rr.Rect, p, FillNonZero, path.Replay)
}

func (c *softwareCanvas) DrawPath(path *Path, p *Paint) {
	if path.IsEmpty() {
		return
	}
	c.drawGeometry(path.Bounds(), p, path.FillRule(), path.Replay)
}

// ggSink feeds path segments to a gg context, which applies its matrix.
type ggSink struct{ dc *gg.Context }

func (s *ggSink) MoveTo(x, y float64)         { s.dc.MoveTo(x, y) }
func (s *ggSink) LineTo(x, y float64)         { s.dc.LineTo(x, y) }
func (s *ggSink) QuadTo(cx, cy, x, y float64) { s.dc.QuadraticTo(cx, cy, x, y) }
func (s *ggSink) Close()                      { s.dc.ClosePath() }

func (s *ggSink) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	s.dc.CubicTo(c1x, c1y, c2x, c2y, x, y)
}

var (
	ggCaps  = [...]gg.LineCap{CapButt: gg.LineCapButt, CapRound: gg.LineCapRound, CapSquare: gg.LineCapSquare}
	ggJoins = [...]gg.LineJoin{JoinMiter: gg.LineJoinMiter, JoinRound: gg.LineJoinRound, JoinBevel: gg.LineJoinBevel}
)

// drawGeometry rasterizes the outline emitted by build into a coverage mask
// with gg and composites the paint color through it.
func (c *softwareCanvas) drawGeometry(local Rect, p *Paint, rule FillRule, build func(PathSink)) {
	if !c.live() || p.Color.A <= 0 {
		return
	}
	o := p.strokeOutset() + 1
	area := c.area(local.Outset(o, o))
	if area.Empty() {
		return
	}
	w, h := area.Dx(), area.Dy()
	pm := gg.NewPixmap(w, h)
	dc := gg.NewContext(w, h, gg.WithPixmap(pm))
	defer dc.Close()
	dc.SetTransform(toGGMatrix(TranslateMatrix(-float64(area.Min.X), -float64(area.Min.Y)).Multiply(c.state.m)))
	dc.SetRGBA(1, 1, 1, 1)
	if rule == FillEvenOdd {
		dc.SetFillRule(gg.FillRuleEvenOdd)
	}
	build(&ggSink{dc: dc})

	var err error
	if p.IsStroke() {
		if p.StrokeWidth <= 0 {
			return
		}
		dc.SetLineWidth(p.StrokeWidth)
		dc.SetLineCap(ggCaps[p.Cap])
		dc.SetLineJoin(ggJoins[p.Join])
		dc.SetMiterLimit(p.MiterLimit)
		if len(p.Dash) > 0 {
			dc.SetDash(p.Dash...)
		}
		err = dc.Stroke()
	} else {
		err = dc.Fill()
	}
	if err != nil {
		Logger().Debug("software rasterization failed", slog.Any("err", err))
		return
	}

	data := pm.Data()
	mask := make([]uint8, w*h)
	for i := range mask {
		mask[i] = data[i*4+3]
	}
	fillCoverage(c.s.img, area, mask, p.Color, p.Antialias)
}

// DrawText renders the run's glyphs with gg at the canvas scale into a
// scratch mask, then draws the mask tinted with the paint color.
func (c *softwareCanvas) DrawText(run *TextRun, p *Paint) {
	if !c.live() || run == nil || len(run.Lines) == 0 || p.Color.A <= 0 {
		return
	}
	b := run.Bounds()
	if b.IsEmpty() || c.area(b).Empty() {
		return
	}
	scale := max(c.state.m.MaxScale(), 1e-3)
	const pad = 2
	w := int(math.Ceil(b.Width*scale)) + 2*pad
	h := int(math.Ceil(b.Height*scale)) + 2*pad
	if w > MaxSurfaceSize || h > MaxSurfaceSize {
		return
	}
	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	face := run.Font.Face(run.Size * scale)
	for _, l := range run.Lines {
		drawGlyphs(scratch, l.Text, face, (l.X-b.X)*scale+pad, (l.Baseline-b.Y)*scale+pad)
	}
	dst := Rect{X: b.X - pad/scale, Y: b.Y - pad/scale, Width: float64(w) / scale, Height: float64(h) / scale}
	fill := Color{p.Color.R, p.Color.G, p.Color.B, 1}
	c.drawRGBA(scratch, scratch.Rect, dst, &SurfaceOptions{Alpha: p.Color.A, Smooth: true, Fill: &fill})
}

func (c *softwareCanvas) DrawImage(img image.Image, src image.Rectangle, dst Rect, opts *SurfaceOptions) {
	if !c.live() || img == nil {
		return
	}
	src = src.Intersect(img.Bounds())
	if src.Empty() {
		return
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(src)
		draw.Draw(rgba, src, img, src.Min, draw.Src)
	}
	c.drawRGBA(rgba, src, dst, resolveOptions(opts))
}

func (c *softwareCanvas) DrawSurface(s Surface, src, dst Rect, opts *SurfaceOptions) {
	if !c.live() {
		return
	}
	img := surfacePixels(s)
	if img == nil {
		return
	}
	sr := image.Rect(
		int(math.Floor(src.X)), int(math.Floor(src.Y)),
		int(math.Ceil(src.Right())), int(math.Ceil(src.Bottom())),
	).Intersect(img.Rect)
	if sr.Empty() || dst.IsEmpty() {
		return
	}
	c.drawRGBA(img, sr, dst, resolveOptions(opts))
}

// surfacePixels returns the premultiplied pixels of s, reading them back
// from other backends when they allow it.
func surfacePixels(s Surface) *image.RGBA {
	if ss := asSoftware(s); ss != nil {
		return ss.img
	}
	if pr, ok := s.(PixelReader); ok {
		n := pr.ReadPixels()
		out := image.NewRGBA(n.Rect)
		draw.Draw(out, out.Rect, n, n.Rect.Min, draw.Src)
		return out
	}
	return nil
}

// drawRGBA draws the sr part of img stretched over dst through the canvas
// matrix. Pixel-aligned copies skip resampling.
func (c *softwareCanvas) drawRGBA(img *image.RGBA, sr image.Rectangle, dst Rect, opts *SurfaceOptions) {
	m := c.state.m.Multiply(TranslateMatrix(dst.X, dst.Y)).
		Multiply(ScaleMatrix(dst.Width/float64(sr.Dx()), dst.Height/float64(sr.Dy()))).
		Multiply(TranslateMatrix(-float64(sr.Min.X), -float64(sr.Min.Y)))
	area := roundOutImage(m.MapRect(rectFromImage(sr))).Intersect(c.state.clip)
	if area.Empty() {
		return
	}
	if off, ok := integerOffset(m); ok {
		src := img.SubImage(sr).(*image.RGBA)
		compositeImage(c.s.img, src, off, area, opts)
		return
	}
	scratch := image.NewRGBA(area)
	var interp draw.Transformer = draw.NearestNeighbor
	if opts.Smooth {
		interp = draw.BiLinear
	}
	interp.Transform(scratch, f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}, img, sr, draw.Src, nil)
	compositeImage(c.s.img, scratch, image.Point{}, area, opts)
}

// integerOffset reports whether m is a whole-pixel translation.
func integerOffset(m Matrix) (image.Point, bool) {
	if m[0] != 1 || m[1] != 0 || m[2] != 0 || m[3] != 1 {
		return image.Point{}, false
	}
	if m[4] != math.Trunc(m[4]) || m[5] != math.Trunc(m[5]) {
		return image.Point{}, false
	}
	return image.Point{int(m[4]), int(m[5])}, true
}

// DrawSurfaceProjected samples s through the inverse plane mapping of the
// canvas matrix times m.
func (c *softwareCanvas) DrawSurfaceProjected(s Surface, m Matrix3D, opts *SurfaceOptions) {
	if !c.live() {
		return
	}
	img := surfacePixels(s)
	if img == nil {
		return
	}
	opts = resolveOptions(opts)
	full := Matrix3DFromAffine(c.state.m).Multiply(m)
	area := roundOutImage(full.MapRect(rectFromImage(img.Rect))).Intersect(c.state.clip)
	if area.Empty() {
		return
	}
	inv, ok := full.PlaneInverse()
	if !ok {
		return
	}
	scratch := image.NewRGBA(area)
	bounds := img.Rect
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx, dy := float64(x)+0.5, float64(y)+0.5
			w := inv[6]*dx + inv[7]*dy + inv[8]
			if w <= 0 {
				continue
			}
			u := (inv[0]*dx + inv[1]*dy + inv[2]) / w
			v := (inv[3]*dx + inv[4]*dy + inv[5]) / w
			if u < 0 || v < 0 || u >= float64(bounds.Dx()) || v >= float64(bounds.Dy()) {
				continue
			}
			var p px
			if opts.Smooth {
				p = sampleBilinear(img, bounds, u, v)
			} else {
				p = loadPx(img.Pix, img.PixOffset(int(u), int(v)))
			}
			storePx(scratch.Pix, scratch.PixOffset(x, y), p)
		}
	}
	compositeImage(c.s.img, scratch, image.Point{}, area, opts)
}

func rectFromImage(r image.Rectangle) Rect {
	return Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

func roundOutImage(r Rect) image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.Right())), int(math.Ceil(r.Bottom())),
	)
}

// drawGlyphs draws s in opaque white with its baseline origin at (x, y).
func drawGlyphs(dst *image.RGBA, s string, face text.Face, x, y float64) {
	text.Draw(dst, s, face, x, y, color.White)
}
