package arbor

// DropShadowFilter draws a blurred, offset, tinted copy of the source behind
// it. With ShadowOnly the source itself is left out.
type DropShadowFilter struct {
	OffsetX, OffsetY float64
	BlurX, BlurY     float64
	Color            Color
	ShadowOnly       bool
}

// NewDropShadowFilter creates a drop shadow drawn behind the source.
func NewDropShadowFilter(dx, dy, blurX, blurY float64, c Color) *DropShadowFilter {
	return &DropShadowFilter{OffsetX: dx, OffsetY: dy, BlurX: max(blurX, 0), BlurY: max(blurY, 0), Color: c}
}

// NewDropShadowOnly creates a drop shadow whose output is the shadow alone.
func NewDropShadowOnly(dx, dy, blurX, blurY float64, c Color) *DropShadowFilter {
	f := NewDropShadowFilter(dx, dy, blurX, blurY, c)
	f.ShadowOnly = true
	return f
}

// Apply draws the shadow, then the source unless ShadowOnly.
func (f *DropShadowFilter) Apply(fc *FilterContext, src, dst Surface) {
	drawShadow(fc, dst, src, f.OffsetX, f.OffsetY, f.BlurX, f.BlurY, f.Color)
	if !f.ShadowOnly {
		copySurface(dst, src, nil)
	}
}

// FilterBounds returns the shadow's area, joined with r unless ShadowOnly.
func (f *DropShadowFilter) FilterBounds(r Rect) Rect {
	if r.IsEmpty() {
		return r
	}
	shadow := r.Offset(f.OffsetX, f.OffsetY).Outset(blurOutset(f.BlurX), blurOutset(f.BlurY))
	if f.ShadowOnly {
		return shadow
	}
	return r.Union(shadow)
}

// drawShadow composites a tinted copy of src, moved by the local offset
// (dx, dy) and blurred, onto dst.
func drawShadow(fc *FilterContext, dst, src Surface, dx, dy, blurX, blurY float64, c Color) {
	tint, err := fc.Temp(src.Width(), src.Height())
	if err != nil {
		return
	}
	ox, oy := fc.DeviceVector(dx, dy)
	offsetSurface(tint, src, ox, oy, &SurfaceOptions{Alpha: 1, Fill: &c})
	copySurface(dst, blurred(fc, tint, blurX, blurY), nil)
}

// blurred returns s blurred by local deviations, or s when there is nothing
// to blur or no scratch surface is available.
func blurred(fc *FilterContext, s Surface, blurX, blurY float64) Surface {
	if blurX <= 0 && blurY <= 0 {
		return s
	}
	out, err := fc.Temp(s.Width(), s.Height())
	if err != nil {
		return s
	}
	sx, sy := fc.DeviceScale()
	fc.Backend().Blur(out, s, blurX*sx, blurY*sy)
	return out
}

// InnerShadowFilter darkens the inside edge of the source as if it were cut
// into the surface below. With ShadowOnly only the shadow is kept, still
// clipped to the source's shape.
type InnerShadowFilter struct {
	OffsetX, OffsetY float64
	BlurX, BlurY     float64
	Color            Color
	ShadowOnly       bool
}

// NewInnerShadowFilter creates an inner shadow drawn over the source.
func NewInnerShadowFilter(dx, dy, blurX, blurY float64, c Color) *InnerShadowFilter {
	return &InnerShadowFilter{OffsetX: dx, OffsetY: dy, BlurX: max(blurX, 0), BlurY: max(blurY, 0), Color: c}
}

// NewInnerShadowOnly creates an inner shadow whose output is the shadow alone.
func NewInnerShadowOnly(dx, dy, blurX, blurY float64, c Color) *InnerShadowFilter {
	f := NewInnerShadowFilter(dx, dy, blurX, blurY, c)
	f.ShadowOnly = true
	return f
}

// Apply draws the source and then the shadow clipped to it.
func (f *InnerShadowFilter) Apply(fc *FilterContext, src, dst Surface) {
	shadow := innerShadow(fc, src, f.OffsetX, f.OffsetY, f.BlurX, f.BlurY, f.Color)
	if shadow == nil {
		copySurface(dst, src, nil)
		return
	}
	if f.ShadowOnly {
		copySurface(dst, shadow, nil)
		copySurface(dst, src, &SurfaceOptions{Alpha: 1, Blend: BlendMask})
		return
	}
	copySurface(dst, src, nil)
	copySurface(dst, shadow, &SurfaceOptions{Alpha: 1, Blend: BlendSourceAtop})
}

// FilterBounds returns r: the shadow never leaves the source.
func (f *InnerShadowFilter) FilterBounds(r Rect) Rect { return r }

// innerShadow returns a surface holding the color everywhere outside src,
// moved by the offset and blurred. The caller clips it to src.
func innerShadow(fc *FilterContext, src Surface, dx, dy, blurX, blurY float64, c Color) Surface {
	w, h := src.Width(), src.Height()
	inv, err := fc.Temp(w, h)
	if err != nil {
		return nil
	}
	inv.Canvas().Clear(c)
	copySurface(inv, src, &SurfaceOptions{Alpha: 1, Blend: BlendErase})

	// Past the surface edge everything counts as outside, so the moved copy
	// lands on a surface already filled with the color.
	moved, err := fc.Temp(w, h)
	if err != nil {
		return nil
	}
	moved.Canvas().Clear(c)
	ox, oy := fc.DeviceVector(dx, dy)
	offsetSurface(moved, inv, ox, oy, &SurfaceOptions{Alpha: 1, Blend: BlendNone})
	return blurred(fc, moved, blurX, blurY)
}
