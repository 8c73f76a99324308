package ebitenrender

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/arbor"
)

// projectedGrid is the number of mesh cells per side used to approximate a
// perspective draw.
const projectedGrid = 16

type canvasState struct {
	m    arbor.Matrix
	clip image.Rectangle
}

type canvas struct {
	s     *Surface
	state canvasState
	stack []canvasState
}

func newCanvas(s *Surface) *canvas {
	return &canvas{s: s, state: canvasState{m: arbor.IdentityMatrix, clip: s.img.Bounds()}}
}

func (c *canvas) Backend() arbor.Backend   { return c.s.backend }
func (c *canvas) Save()                    { c.stack = append(c.stack, c.state) }
func (c *canvas) Matrix() arbor.Matrix     { return c.state.m }
func (c *canvas) SetMatrix(m arbor.Matrix) { c.state.m = m }
func (c *canvas) Concat(m arbor.Matrix)    { c.state.m = c.state.m.Multiply(m) }

func (c *canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *canvas) ClipRect(r arbor.Rect) {
	d := c.state.m.MapRect(r)
	c.state.clip = c.state.clip.Intersect(image.Rect(
		int(math.Round(d.X)), int(math.Round(d.Y)),
		int(math.Round(d.Right())), int(math.Round(d.Bottom())),
	))
}

func (c *canvas) ClipBounds() arbor.Rect {
	r := c.state.clip
	return arbor.Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// dst returns the surface image clipped to the current clip, or nil when
// the clip is empty.
func (c *canvas) dst() *ebiten.Image {
	if c.state.clip.Empty() {
		return nil
	}
	return c.s.img.SubImage(c.state.clip).(*ebiten.Image)
}

func (c *canvas) Clear(col arbor.Color) {
	if d := c.dst(); d != nil {
		d.Fill(premul(col))
	}
}

// --- Geometry ---

func (c *canvas) DrawRect(r arbor.Rect, p *arbor.Paint) {
	c.drawGeometry(p, arbor.FillNonZero, func(s arbor.PathSink) {
		s.MoveTo(r.X, r.Y)
		s.LineTo(r.Right(), r.Y)
		s.LineTo(r.Right(), r.Bottom())
		s.LineTo(r.X, r.Bottom())
		s.Close()
	})
}

func (c *canvas) DrawRRect(rr arbor.RRect, p *arbor.Paint) {
	path := arbor.NewPath()
	path.AddRRect(rr)
	c.drawGeometry(p, arbor.FillNonZero, path.Replay)
}

func (c *canvas) DrawPath(path *arbor.Path, p *arbor.Paint) {
	c.drawGeometry(p, path.FillRule(), path.Replay)
}

var (
	vectorCaps  = [...]vector.LineCap{arbor.CapButt: vector.LineCapButt, arbor.CapRound: vector.LineCapRound, arbor.CapSquare: vector.LineCapSquare}
	vectorJoins = [...]vector.LineJoin{arbor.JoinMiter: vector.LineJoinMiter, arbor.JoinRound: vector.LineJoinRound, arbor.JoinBevel: vector.LineJoinBevel}
)

// drawGeometry builds a device-space vector path from build and fills or
// strokes it with p.
func (c *canvas) drawGeometry(p *arbor.Paint, rule arbor.FillRule, build func(arbor.PathSink)) {
	d := c.dst()
	if d == nil {
		return
	}
	var vp vector.Path
	sink := &vectorSink{m: c.state.m, p: &vp}
	if p.IsStroke() && len(p.Dash) > 0 {
		build(newDasher(sink, p.Dash))
	} else {
		build(sink)
	}

	op := &vector.DrawPathOptions{AntiAlias: p.Antialias}
	op.ColorScale.ScaleWithColor(p.Color.NRGBA())
	if !p.IsStroke() {
		fo := &vector.FillOptions{FillRule: vector.FillRuleNonZero}
		if rule == arbor.FillEvenOdd {
			fo.FillRule = vector.FillRuleEvenOdd
		}
		vector.FillPath(d, &vp, fo, op)
		return
	}
	scale := math.Sqrt(math.Abs(c.state.m[0]*c.state.m[3] - c.state.m[1]*c.state.m[2]))
	so := &vector.StrokeOptions{
		Width:      float32(max(p.StrokeWidth*scale, 1)),
		LineCap:    vectorCaps[p.Cap],
		LineJoin:   vectorJoins[p.Join],
		MiterLimit: float32(p.MiterLimit),
	}
	vector.StrokePath(d, &vp, so, op)
}

// --- Text ---

func (c *canvas) DrawText(run *arbor.TextRun, p *arbor.Paint) {
	d := c.dst()
	if d == nil || run.Font == nil {
		return
	}
	src := c.s.backend.faceSource(run.Font)
	scale := c.state.m.MaxScale()
	if src == nil || scale <= 0 {
		return
	}
	// Glyphs are shaped at device size and scaled back so zoomed text stays
	// sharp.
	face := &text.GoTextFace{Source: src, Size: run.Size * scale}
	ascent := face.Metrics().HAscent
	for _, line := range run.Lines {
		m := c.state.m.
			Multiply(arbor.TranslateMatrix(line.X, line.Baseline)).
			Multiply(arbor.ScaleMatrix(1/scale, 1/scale)).
			Multiply(arbor.TranslateMatrix(0, -ascent))
		op := &text.DrawOptions{}
		op.GeoM = geoM(m)
		op.ColorScale.ScaleWithColor(p.Color.NRGBA())
		op.Filter = ebiten.FilterLinear
		text.Draw(d, line.Text, face, op)
	}
}

// --- Images and surfaces ---

func (c *canvas) DrawImage(img image.Image, src image.Rectangle, dst arbor.Rect, opts *arbor.SurfaceOptions) {
	e := c.s.backend.ebitenImage(img)
	sr := arbor.Rect{X: float64(src.Min.X), Y: float64(src.Min.Y), Width: float64(src.Dx()), Height: float64(src.Dy())}
	c.drawEbiten(e, sr, dst, opts)
}

func (c *canvas) DrawSurface(s arbor.Surface, src, dst arbor.Rect, opts *arbor.SurfaceOptions) {
	img, owned := imageOf(s)
	if img == nil {
		return
	}
	if owned {
		defer img.Deallocate()
	}
	c.drawEbiten(img, src, dst, opts)
}

// drawEbiten draws the src part of img stretched over dst.
func (c *canvas) drawEbiten(img *ebiten.Image, src, dst arbor.Rect, opts *arbor.SurfaceOptions) {
	d := c.dst()
	if d == nil || src.IsEmpty() || dst.IsEmpty() {
		return
	}
	opts = options(opts)
	sub := img.SubImage(image.Rect(
		int(math.Floor(src.X)), int(math.Floor(src.Y)),
		int(math.Ceil(src.Right())), int(math.Ceil(src.Bottom())),
	)).(*ebiten.Image)
	m := c.state.m.
		Multiply(arbor.TranslateMatrix(dst.X, dst.Y)).
		Multiply(arbor.ScaleMatrix(dst.Width/src.Width, dst.Height/src.Height))

	if opts.Fill != nil {
		cm := fillColorM(*opts.Fill, opts.Alpha)
		colorm.DrawImage(d, sub, cm, &colorm.DrawImageOptions{
			GeoM:   geoM(m),
			Blend:  ebitenBlend(opts.Blend),
			Filter: filterFor(opts.Smooth),
		})
		return
	}
	op := &ebiten.DrawImageOptions{GeoM: geoM(m), Blend: ebitenBlend(opts.Blend), Filter: filterFor(opts.Smooth)}
	op.ColorScale.ScaleAlpha(float32(opts.Alpha))
	d.DrawImage(sub, op)
}

// DrawSurfaceProjected draws s as a mesh whose vertices are projected
// exactly; texels inside each cell are interpolated affinely.
func (c *canvas) DrawSurfaceProjected(s arbor.Surface, m arbor.Matrix3D, opts *arbor.SurfaceOptions) {
	d := c.dst()
	img, owned := imageOf(s)
	if d == nil || img == nil {
		return
	}
	if owned {
		defer img.Deallocate()
	}
	opts = options(opts)
	full := arbor.Matrix3DFromAffine(c.state.m).Multiply(m)
	w, h := float64(s.Width()), float64(s.Height())

	const n = projectedGrid
	vs := make([]ebiten.Vertex, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			u, v := w*float64(i)/n, h*float64(j)/n
			x, y := full.Apply(u, v)
			vs = append(vs, ebiten.Vertex{
				DstX: float32(x), DstY: float32(y),
				SrcX: float32(u), SrcY: float32(v),
				ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
			})
		}
	}
	is := make([]uint16, 0, n*n*6)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			k := uint16(j*(n+1) + i)
			is = append(is, k, k+1, k+n+1, k+1, k+n+2, k+n+1)
		}
	}

	if opts.Fill != nil {
		colorm.DrawTriangles(d, vs, is, img, fillColorM(*opts.Fill, opts.Alpha), &colorm.DrawTrianglesOptions{
			Blend:  ebitenBlend(opts.Blend),
			Filter: filterFor(opts.Smooth),
		})
		return
	}
	for i := range vs {
		vs[i].ColorA = float32(opts.Alpha)
	}
	d.DrawTriangles(vs, is, img, &ebiten.DrawTrianglesOptions{
		Blend:  ebitenBlend(opts.Blend),
		Filter: filterFor(opts.Smooth),
	})
}

// fillColorM replaces color with fill and scales alpha by fill's alpha and
// opacity.
func fillColorM(fill arbor.Color, opacity float64) colorm.ColorM {
	var cm colorm.ColorM
	cm.Scale(0, 0, 0, fill.A*opacity)
	cm.Translate(fill.R, fill.G, fill.B, 0)
	return cm
}

var defaultOptions = arbor.SurfaceOptions{Alpha: 1, Smooth: true}

func options(opts *arbor.SurfaceOptions) *arbor.SurfaceOptions {
	if opts == nil {
		return &defaultOptions
	}
	return opts
}

// geoM converts an affine matrix to ebiten's row layout.
func geoM(m arbor.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	return g
}
