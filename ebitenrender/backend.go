// Package ebitenrender draws arbor display lists with Ebitengine.
package ebitenrender

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/arbor"
)

// Backend allocates ebiten.Image surfaces. It is not safe for concurrent
// use; call it from the game's Draw.
type Backend struct {
	images  map[image.Image]*ebiten.Image
	sources map[*arbor.Font]*text.GoTextFaceSource
	temps   []*ebiten.Image

	colorMatrix *ebiten.Shader
	uniforms    map[string]any
	matrixF32   [20]float32
}

// NewBackend returns a backend with empty caches.
func NewBackend() *Backend {
	b := &Backend{
		images:   make(map[image.Image]*ebiten.Image),
		sources:  make(map[*arbor.Font]*text.GoTextFaceSource),
		uniforms: make(map[string]any, 1),
	}
	b.uniforms["Matrix"] = b.matrixF32[:]
	return b
}

// NewSurface allocates an offscreen image.
func (b *Backend) NewSurface(w, h int) (arbor.Surface, error) {
	if w <= 0 || h <= 0 || w > arbor.MaxSurfaceSize || h > arbor.MaxSurfaceSize {
		return nil, fmt.Errorf("arbor/ebitenrender: surface %dx%d: %w", w, h, arbor.ErrInvalidSize)
	}
	return &Surface{backend: b, img: ebiten.NewImage(w, h), owned: true}, nil
}

// Wrap returns a surface drawing into img. Disposing the surface leaves img
// allocated.
func (b *Backend) Wrap(img *ebiten.Image) *Surface {
	return &Surface{backend: b, img: img}
}

// ForgetImage drops the GPU copy of an image drawn by image layers.
func (b *Backend) ForgetImage(img image.Image) {
	if e, ok := b.images[img]; ok {
		e.Deallocate()
		delete(b.images, img)
	}
}

// Purge releases every cached image and blur buffer.
func (b *Backend) Purge() {
	for k, e := range b.images {
		e.Deallocate()
		delete(b.images, k)
	}
	for _, t := range b.temps {
		t.Deallocate()
	}
	b.temps = nil
}

// ebitenImage returns img as an ebiten.Image, uploading it once.
func (b *Backend) ebitenImage(img image.Image) *ebiten.Image {
	if e, ok := img.(*ebiten.Image); ok {
		return e
	}
	if e, ok := b.images[img]; ok {
		return e
	}
	e := ebiten.NewImageFromImage(img)
	b.images[img] = e
	return e
}

func (b *Backend) faceSource(f *arbor.Font) *text.GoTextFaceSource {
	if src, ok := b.sources[f]; ok {
		return src
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(f.Data()))
	if err != nil {
		arbor.Logger().Warn("ebitenrender: font source failed", "font", f.Name(), "error", err)
	}
	b.sources[f] = src
	return src
}

// --- Surfaces ---

// Surface is an arbor.Surface backed by an ebiten.Image.
type Surface struct {
	backend *Backend
	img     *ebiten.Image
	owned   bool
}

func (s *Surface) Width() int             { return s.img.Bounds().Dx() }
func (s *Surface) Height() int            { return s.img.Bounds().Dy() }
func (s *Surface) Backend() arbor.Backend { return s.backend }
func (s *Surface) Image() *ebiten.Image   { return s.img }
func (s *Surface) Canvas() arbor.Canvas   { return newCanvas(s) }

// Dispose frees the image of surfaces created by NewSurface.
func (s *Surface) Dispose() {
	if s.owned && s.img != nil {
		s.img.Deallocate()
	}
	s.img = nil
}

// ReadPixels reads the image back from the GPU. It only works while the
// game loop is running.
func (s *Surface) ReadPixels() *image.NRGBA {
	b := s.img.Bounds()
	pix := make([]byte, 4*b.Dx()*b.Dy())
	s.img.ReadPixels(pix)
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := 0; i < len(pix); i += 4 {
		a := pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = uint8(min(255, (int(pix[i+c])*255+int(a)/2)/int(a)))
		}
	}
	return out
}

// imageOf returns the ebiten image behind s, uploading surfaces of other
// backends when their pixels are readable. The bool reports whether the
// caller owns the returned image.
func imageOf(s arbor.Surface) (*ebiten.Image, bool) {
	if es, ok := s.(*Surface); ok {
		return es.img, false
	}
	if pr, ok := s.(arbor.PixelReader); ok {
		return ebiten.NewImageFromImage(pr.ReadPixels()), true
	}
	return nil, false
}

// --- Whole-surface operations ---

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	a = clamp(a, 0, 1)
	return vec4(clamp(r, 0, 1)*a, clamp(g, 0, 1)*a, clamp(b, 0, 1)*a, a)
}
`

func (b *Backend) colorMatrixShader() *ebiten.Shader {
	if b.colorMatrix == nil {
		s, err := ebiten.NewShader([]byte(colorMatrixShaderSrc))
		if err != nil {
			panic("arbor/ebitenrender: compile color matrix shader: " + err.Error())
		}
		b.colorMatrix = s
	}
	return b.colorMatrix
}

// ColorMatrix runs m over src with a Kage shader.
func (b *Backend) ColorMatrix(dst, src arbor.Surface, m *arbor.ColorMatrix) {
	d, _ := imageOf(dst)
	s, owned := imageOf(src)
	if d == nil || s == nil {
		return
	}
	if owned {
		defer s.Deallocate()
	}
	for i, v := range m {
		b.matrixF32[i] = float32(v)
	}
	op := &ebiten.DrawRectShaderOptions{Uniforms: b.uniforms, Blend: ebiten.BlendCopy}
	op.Images[0] = s
	sb := s.Bounds()
	d.DrawRectShader(sb.Dx(), sb.Dy(), b.colorMatrixShader(), op)
}

// Blur approximates a Gaussian with a Kawase chain: src is halved until the
// chain spans roughly twice the larger deviation, then scaled back up with
// linear filtering.
func (b *Backend) Blur(dst, src arbor.Surface, sigmaX, sigmaY float64) {
	d, _ := imageOf(dst)
	s, owned := imageOf(src)
	if d == nil || s == nil {
		return
	}
	if owned {
		defer s.Deallocate()
	}
	d.Clear()
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	radius := 2 * max(sigmaX, sigmaY)
	if radius < 1 {
		op.Filter = ebiten.FilterNearest
		d.DrawImage(s, op)
		return
	}
	passes := max(1, int(math.Ceil(math.Log2(radius))))
	w, h := s.Bounds().Dx(), s.Bounds().Dy()
	b.ensureTemps(passes, w, h)

	current := s
	for i := 0; i < passes; i++ {
		scaleInto(b.temps[i], current, op)
		current = b.temps[i]
	}
	for i := passes - 2; i >= 0; i-- {
		scaleInto(b.temps[i], current, op)
		current = b.temps[i]
	}
	scaleInto(d, current, op)
}

// ensureTemps keeps one half-size image per pass, reallocating on size
// changes.
func (b *Backend) ensureTemps(passes, w, h int) {
	for i := 0; i < passes; i++ {
		w, h = max(w/2, 1), max(h/2, 1)
		if i < len(b.temps) {
			tb := b.temps[i].Bounds()
			if tb.Dx() == w && tb.Dy() == h {
				continue
			}
			b.temps[i].Deallocate()
			b.temps[i] = ebiten.NewImage(w, h)
			continue
		}
		b.temps = append(b.temps, ebiten.NewImage(w, h))
	}
	for i := passes; i < len(b.temps); i++ {
		b.temps[i].Deallocate()
	}
	b.temps = b.temps[:passes]
}

// scaleInto replaces dst with src stretched to dst's size.
func scaleInto(dst, src *ebiten.Image, op *ebiten.DrawImageOptions) {
	dst.Clear()
	sb, db := src.Bounds(), dst.Bounds()
	op.GeoM.Reset()
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	dst.DrawImage(src, op)
}

// --- Blending ---

// ebitenBlend maps a blend mode onto premultiplied ebiten blend factors.
// Darken and Lighten use per-channel min and max, which is exact for opaque
// pixels.
func ebitenBlend(mode arbor.BlendMode) ebiten.Blend {
	switch mode {
	case arbor.BlendAdd:
		return ebiten.BlendLighter
	case arbor.BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case arbor.BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case arbor.BlendDarken, arbor.BlendLighten:
		op := ebiten.BlendOperationMin
		if mode == arbor.BlendLighten {
			op = ebiten.BlendOperationMax
		}
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           op,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case arbor.BlendErase:
		return ebiten.BlendDestinationOut
	case arbor.BlendMask:
		return ebiten.BlendDestinationIn
	case arbor.BlendSourceIn:
		return ebiten.BlendSourceIn
	case arbor.BlendSourceAtop:
		return ebiten.BlendSourceAtop
	case arbor.BlendBelow:
		return ebiten.BlendDestinationOver
	case arbor.BlendNone:
		return ebiten.BlendCopy
	case arbor.BlendXor:
		return ebiten.BlendXor
	}
	return ebiten.BlendSourceOver
}

func filterFor(smooth bool) ebiten.Filter {
	if smooth {
		return ebiten.FilterLinear
	}
	return ebiten.FilterNearest
}

// premul returns c as a premultiplied color.RGBA.
func premul(c arbor.Color) color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(math.Round(clamp01(c.R) * a * 255)),
		G: uint8(math.Round(clamp01(c.G) * a * 255)),
		B: uint8(math.Round(clamp01(c.B) * a * 255)),
		A: uint8(math.Round(a * 255)),
	}
}

func clamp01(v float64) float64 { return min(max(v, 0), 1) }
