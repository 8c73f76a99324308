package arbor

import (
	"image"
	"math"
)

// px is one premultiplied pixel with components in [0, 1].
type px struct{ r, g, b, a float64 }

func loadPx(pix []uint8, i int) px {
	return px{
		float64(pix[i]) / 255,
		float64(pix[i+1]) / 255,
		float64(pix[i+2]) / 255,
		float64(pix[i+3]) / 255,
	}
}

func storePx(pix []uint8, i int, p px) {
	a := clamp01(p.a)
	pix[i+3] = clampByte(a)
	// Premultiplied color never exceeds alpha.
	pix[i] = clampByte(min(p.r, a))
	pix[i+1] = clampByte(min(p.g, a))
	pix[i+2] = clampByte(min(p.b, a))
}

func premultiplied(c Color) px {
	a := clamp01(c.A)
	return px{clamp01(c.R) * a, clamp01(c.G) * a, clamp01(c.B) * a, a}
}

// blendPx composites premultiplied source s onto destination d.
func blendPx(mode BlendMode, s, d px) px {
	switch mode {
	case BlendAdd:
		return px{min(s.r+d.r, 1), min(s.g+d.g, 1), min(s.b+d.b, 1), min(s.a+d.a, 1)}
	case BlendMultiply:
		f := func(sc, dc float64) float64 { return sc*dc + sc*(1-d.a) + dc*(1-s.a) }
		return px{f(s.r, d.r), f(s.g, d.g), f(s.b, d.b), s.a + d.a - s.a*d.a}
	case BlendScreen:
		f := func(sc, dc float64) float64 { return sc + dc - sc*dc }
		return px{f(s.r, d.r), f(s.g, d.g), f(s.b, d.b), f(s.a, d.a)}
	case BlendDarken:
		f := func(sc, dc float64) float64 { return min(sc*d.a, dc*s.a) + sc*(1-d.a) + dc*(1-s.a) }
		return px{f(s.r, d.r), f(s.g, d.g), f(s.b, d.b), s.a + d.a - s.a*d.a}
	case BlendLighten:
		f := func(sc, dc float64) float64 { return max(sc*d.a, dc*s.a) + sc*(1-d.a) + dc*(1-s.a) }
		return px{f(s.r, d.r), f(s.g, d.g), f(s.b, d.b), s.a + d.a - s.a*d.a}
	case BlendErase:
		k := 1 - s.a
		return px{d.r * k, d.g * k, d.b * k, d.a * k}
	case BlendMask:
		return px{d.r * s.a, d.g * s.a, d.b * s.a, d.a * s.a}
	case BlendSourceIn:
		return px{s.r * d.a, s.g * d.a, s.b * d.a, s.a * d.a}
	case BlendSourceAtop:
		k := 1 - s.a
		return px{s.r*d.a + d.r*k, s.g*d.a + d.g*k, s.b*d.a + d.b*k, d.a}
	case BlendBelow:
		k := 1 - d.a
		return px{d.r + s.r*k, d.g + s.g*k, d.b + s.b*k, d.a + s.a*k}
	case BlendNone:
		return s
	case BlendXor:
		ks, kd := 1-d.a, 1-s.a
		return px{s.r*ks + d.r*kd, s.g*ks + d.g*kd, s.b*ks + d.b*kd, s.a*ks + d.a*kd}
	}
	k := 1 - s.a
	return px{s.r + d.r*k, s.g + d.g*k, s.b + d.b*k, s.a + d.a*k}
}

// blendCoverage blends s onto d and keeps only cov of the change.
func blendCoverage(mode BlendMode, s, d px, cov float64) px {
	out := blendPx(mode, s, d)
	if cov >= 1 {
		return out
	}
	return px{
		d.r + (out.r-d.r)*cov,
		d.g + (out.g-d.g)*cov,
		d.b + (out.b-d.b)*cov,
		d.a + (out.a-d.a)*cov,
	}
}

// fillCoverage composites color c over dst through an 8-bit coverage mask
// covering area. mask holds one byte per pixel of area, row-major.
func fillCoverage(dst *image.RGBA, area image.Rectangle, mask []uint8, c Color, aa bool) {
	src := premultiplied(c)
	w := area.Dx()
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := (y - area.Min.Y) * w
		for x := area.Min.X; x < area.Max.X; x++ {
			m := mask[row+x-area.Min.X]
			if m == 0 {
				continue
			}
			cov := float64(m) / 255
			if !aa {
				if m < 128 {
					continue
				}
				cov = 1
			}
			i := dst.PixOffset(x, y)
			storePx(dst.Pix, i, blendCoverage(BlendNormal, src, loadPx(dst.Pix, i), cov))
		}
	}
}

// compositeImage blends src onto dst over area. Pixel (x, y) of dst takes
// pixel (x-off.X, y-off.Y) of src; pixels outside src's bounds are skipped.
func compositeImage(dst, src *image.RGBA, off image.Point, area image.Rectangle, opts *SurfaceOptions) {
	area = area.Intersect(src.Bounds().Add(off))
	alpha := clamp01(opts.Alpha)
	var fill px
	if opts.Fill != nil {
		fill = premultiplied(Color{opts.Fill.R, opts.Fill.G, opts.Fill.B, 1})
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			s := loadPx(src.Pix, src.PixOffset(x-off.X, y-off.Y))
			if opts.Fill != nil {
				a := s.a * opts.Fill.A
				s = px{fill.r * a, fill.g * a, fill.b * a, a}
			}
			if alpha < 1 {
				s = px{s.r * alpha, s.g * alpha, s.b * alpha, s.a * alpha}
			}
			if s.a == 0 && keepsDestOnClear(opts.Blend) {
				continue
			}
			i := dst.PixOffset(x, y)
			storePx(dst.Pix, i, blendPx(opts.Blend, s, loadPx(dst.Pix, i)))
		}
	}
}

// keepsDestOnClear reports whether a fully transparent source leaves the
// destination unchanged under mode.
func keepsDestOnClear(mode BlendMode) bool {
	switch mode {
	case BlendMask, BlendSourceIn, BlendNone:
		return false
	}
	return true
}

// sampleBilinear returns the premultiplied color of img at continuous
// coordinates (u, v), clamping to the edges of bounds.
func sampleBilinear(img *image.RGBA, bounds image.Rectangle, u, v float64) px {
	u -= 0.5
	v -= 0.5
	x0, y0 := int(math.Floor(u)), int(math.Floor(v))
	fx, fy := u-float64(x0), v-float64(y0)
	clampX := func(x int) int { return min(max(x, bounds.Min.X), bounds.Max.X-1) }
	clampY := func(y int) int { return min(max(y, bounds.Min.Y), bounds.Max.Y-1) }
	xa, xb := clampX(x0), clampX(x0+1)
	ya, yb := clampY(y0), clampY(y0+1)
	p00 := loadPx(img.Pix, img.PixOffset(xa, ya))
	p10 := loadPx(img.Pix, img.PixOffset(xb, ya))
	p01 := loadPx(img.Pix, img.PixOffset(xa, yb))
	p11 := loadPx(img.Pix, img.PixOffset(xb, yb))
	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	mix := func(a, b, c, d float64) float64 { return lerp(lerp(a, b, fx), lerp(c, d, fx), fy) }
	return px{
		mix(p00.r, p10.r, p01.r, p11.r),
		mix(p00.g, p10.g, p01.g, p11.g),
		mix(p00.b, p10.b, p01.b, p11.b),
		mix(p00.a, p10.a, p01.a, p11.a),
	}
}

// --- Whole-surface operations ---

// boxSizes returns three box widths whose successive passes approximate a
// Gaussian of deviation sigma.
func boxSizes(sigma float64) [3]int {
	var sizes [3]int
	if sigma <= 0 {
		return sizes
	}
	const n = 3
	ideal := math.Sqrt(12*sigma*sigma/n + 1)
	wl := int(math.Floor(ideal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2
	m := int(math.Round((12*sigma*sigma - n*float64(wl*wl) - 4*n*float64(wl) - 3*n) / (-4*float64(wl) - 4)))
	for i := range sizes {
		if i < m {
			sizes[i] = wl
		} else {
			sizes[i] = wu
		}
	}
	return sizes
}

// blurRGBA blurs src into dst with separable box passes. Both images have
// the same bounds.
func blurRGBA(dst, src *image.RGBA, sigmaX, sigmaY float64) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]float64, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 4; c++ {
				buf[(y*w+x)*4+c] = float64(src.Pix[i+c])
			}
		}
	}
	tmp := make([]float64, len(buf))
	for _, size := range boxSizes(sigmaX) {
		if size > 1 {
			boxPass(tmp, buf, w, h, size/2, true)
			buf, tmp = tmp, buf
		}
	}
	for _, size := range boxSizes(sigmaY) {
		if size > 1 {
			boxPass(tmp, buf, w, h, size/2, false)
			buf, tmp = tmp, buf
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := dst.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 4; c++ {
				dst.Pix[i+c] = uint8(min(max(math.Round(buf[(y*w+x)*4+c]), 0), 255))
			}
		}
	}
}

// boxPass averages each pixel with r neighbors on either side along one
// axis. Pixels past the edge count as transparent.
func boxPass(dst, src []float64, w, h, r int, horizontal bool) {
	lines, length := h, w
	if !horizontal {
		lines, length = w, h
	}
	at := func(line, k int) int {
		if horizontal {
			return (line*w + k) * 4
		}
		return (k*w + line) * 4
	}
	norm := 1 / float64(2*r+1)
	for line := 0; line < lines; line++ {
		var sum [4]float64
		for k := 0; k <= r && k < length; k++ {
			i := at(line, k)
			for c := 0; c < 4; c++ {
				sum[c] += src[i+c]
			}
		}
		for k := 0; k < length; k++ {
			o := at(line, k)
			for c := 0; c < 4; c++ {
				dst[o+c] = sum[c] * norm
			}
			if in := k + r + 1; in < length {
				i := at(line, in)
				for c := 0; c < 4; c++ {
					sum[c] += src[i+c]
				}
			}
			if out := k - r; out >= 0 {
				i := at(line, out)
				for c := 0; c < 4; c++ {
					sum[c] -= src[i+c]
				}
			}
		}
	}
}

// colorMatrixRGBA applies m to every pixel of src, writing dst.
func colorMatrixRGBA(dst, src *image.RGBA, m *ColorMatrix) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			p := loadPx(src.Pix, i)
			var r, g, bl float64
			if p.a > 0 {
				r, g, bl = p.r/p.a, p.g/p.a, p.b/p.a
			}
			r, g, bl, a := m.Apply(r, g, bl, p.a)
			storePx(dst.Pix, dst.PixOffset(x, y), premultiplied(Color{r, g, bl, a}))
		}
	}
}
