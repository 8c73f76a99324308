package arbor

import (
	"log/slog"
	"math"
)

// drawer walks a tree onto a canvas. One drawer serves one frame (or one
// Node.Draw call); it is not retained.
type drawer struct {
	dl    *DisplayList // nil outside a session render
	pool  *surfacePool
	stats *FrameStats

	// contour draws every paint opaque black, for contour masks.
	contour bool
	// useCache lets nodes be served from their subtree caches. Masks are
	// always drawn live.
	useCache bool
}

func newDrawer(dl *DisplayList, pool *surfacePool, stats *FrameStats) *drawer {
	if stats == nil {
		stats = &FrameStats{}
	}
	return &drawer{dl: dl, pool: pool, stats: stats, useCache: dl != nil}
}

// Draw renders the node's content, effects and visible descendants onto cv
// in the canvas's current space, at the given opacity and blend mode. The
// node's own transform is not applied; descendants use theirs. Caches are
// neither read nor written.
func (n *Node) Draw(cv Canvas, alpha float64, mode BlendMode) {
	if n.disposed || cv == nil {
		return
	}
	a := clamp01(alpha) * n.alpha
	if !n.visible || a <= 0 {
		return
	}
	var pool *surfacePool
	if dl := n.DisplayList(); dl != nil && dl.backend == cv.Backend() {
		pool = dl.pool
	} else {
		pool = newSurfacePool(cv.Backend())
		defer pool.purge()
	}
	d := newDrawer(nil, pool, nil)
	if n.blend != BlendNormal {
		mode = n.blend
	}
	d.drawLocal(cv, n, a, mode, false)
}

// drawNode draws child n of the node whose local space cv is in.
func (d *drawer) drawNode(cv Canvas, n *Node, alpha float64, blend BlendMode) {
	if !n.visible {
		return
	}
	a := alpha * n.alpha
	if d.contour {
		a = 1
	}
	if a <= 0 {
		return
	}
	mode := n.blend
	if mode == BlendNormal {
		mode = blend
	}
	d.drawWithMatrix(cv, n, n.localMatrix(), a, mode)
}

// drawWithMatrix draws n placed by m relative to cv's current space.
func (d *drawer) drawWithMatrix(cv Canvas, n *Node, m Matrix3D, a float64, mode BlendMode) {
	if !m.IsAffine() {
		d.drawProjected(cv, n, m, a, mode)
		return
	}
	cv.Save()
	cv.Concat(m.Affine())
	d.drawLocal(cv, n, a, mode, d.useCache)
	cv.Restore()
}

// drawLocal draws n with cv already in n's local space.
func (d *drawer) drawLocal(cv Canvas, n *Node, a float64, mode BlendMode, allowCache bool) {
	lb := n.localBounds()
	if lb.IsEmpty() {
		return
	}
	if !cv.Matrix().MapRect(lb).Intersects(cv.ClipBounds()) {
		return
	}
	d.stats.NodesDrawn++

	if allowCache && d.cacheEligible(n, a, mode) && d.drawCached(cv, n, lb, a, mode) {
		return
	}

	clip, clipped := d.maskClip(cv, n)
	if clipped {
		cv.Save()
		defer cv.Restore()
		cv.ClipRect(clip)
	}
	if d.needsOffscreen(n, a, mode, clipped) {
		d.drawOffscreen(cv, n, lb, a, mode, clipped)
		return
	}
	d.drawBody(cv, n, a)
}

// drawBody draws n's content and children, clipped to its scroll window.
func (d *drawer) drawBody(cv Canvas, n *Node, a float64) {
	sr := n.scrollRect
	if sr != nil {
		cv.Save()
		defer cv.Restore()
		cv.ClipRect(Rect{Width: sr.Width, Height: sr.Height})
	}
	if c := n.Content(); c != nil {
		drawContent(cv, c, a, d.contour)
		d.stats.DrawCalls += contentDrawCount(c)
	}
	if len(n.children) == 0 {
		return
	}
	if sr != nil {
		cv.Concat(TranslateMatrix(-sr.X, -sr.Y))
	}
	for _, c := range n.children {
		if drawsChild(c) {
			d.drawNode(cv, c, a, BlendNormal)
		}
	}
}

// needsOffscreen reports whether n must be rendered in isolation and then
// composited.
func (d *drawer) needsOffscreen(n *Node, a float64, mode BlendMode, maskClipped bool) bool {
	if len(n.filters) > 0 || len(n.styles) > 0 || mode != BlendNormal {
		return true
	}
	if n.mask != nil && !maskClipped {
		return true
	}
	return n.groupOpacity && a < 1 && drawParts(n) > 1
}

// drawParts counts the separate draws making up n's body, stopping at 2.
func drawParts(n *Node) int {
	parts := contentDrawCount(n.Content())
	for _, c := range n.children {
		if parts > 1 {
			break
		}
		if drawsChild(c) {
			parts++
		}
	}
	return parts
}

// maskClip returns the clip rectangle, in n's local space, replacing n's
// mask when the mask is a plain opaque rectangle that stays axis-aligned on
// the device.
func (d *drawer) maskClip(cv Canvas, n *Node) (Rect, bool) {
	m := n.mask
	if m == nil || n.maskType == MaskLuminance {
		return Rect{}, false
	}
	if len(m.children) > 0 || m.hasEffects() || m.scrollRect != nil {
		return Rect{}, false
	}
	alphaMask := n.maskType == MaskAlpha
	if alphaMask && m.alpha < 1 {
		return Rect{}, false
	}
	var r Rect
	switch c := m.Content().(type) {
	case *RectContent:
		if c.Paint.IsStroke() || (alphaMask && !c.Paint.isOpaqueFill()) {
			return Rect{}, false
		}
		r = c.Rect
	case *SolidContent:
		if !c.RRect.IsRect() || (alphaMask && !c.Color.IsOpaque()) {
			return Rect{}, false
		}
		r = c.RRect.Rect
	default:
		return Rect{}, false
	}
	rel := n.maskMatrix()
	if !rel.IsAffine() {
		return Rect{}, false
	}
	ra := rel.Affine()
	if !ra.IsAxisAligned() || !cv.Matrix().Multiply(ra).IsAxisAligned() {
		return Rect{}, false
	}
	return ra.MapRect(r), true
}

// drawOffscreen renders n's body into a device-aligned offscreen, runs its
// styles, filters and mask there, and composites the result.
func (d *drawer) drawOffscreen(cv Canvas, n *Node, lb Rect, a float64, mode BlendMode, maskClipped bool) {
	m := cv.Matrix()
	bb := n.bodyBounds()
	margin := n.filterMargin(bb) * m.MaxScale()
	// A shadow-only output can lie clear of the body it is made from.
	area := m.MapRect(lb.Union(bb)).Intersect(cv.ClipBounds().Outset(margin, margin)).RoundOut()
	if area.IsEmpty() {
		return
	}
	w, h := int(area.Width), int(area.Height)
	body, err := d.pool.acquire(w, h)
	if err != nil {
		d.skip(n, err)
		return
	}
	defer d.pool.release(body)

	toArea := TranslateMatrix(-area.X, -area.Y).Multiply(m)
	bc := body.Canvas()
	bc.SetMatrix(toArea)
	d.drawBody(bc, n, 1)

	fc := newFilterContext(d.pool, m)
	defer fc.release()

	out := body
	if len(n.styles) > 0 {
		if styled, err := fc.Temp(w, h); err == nil {
			for _, s := range n.styles {
				if s.Position() == StyleBelow {
					s.Draw(fc, styled, body)
				}
			}
			copySurface(styled, body, nil)
			for _, s := range n.styles {
				if s.Position() == StyleAbove {
					s.Draw(fc, styled, body)
				}
			}
			out = styled
		}
	}
	for _, f := range n.filters {
		next, err := fc.Temp(out.Width(), out.Height())
		if err != nil {
			d.skip(n, err)
			break
		}
		f.Apply(fc, out, next)
		out = next
	}
	if n.mask != nil && !maskClipped {
		if !d.applyMask(fc, out, n, toArea) {
			return
		}
	}

	cv.Save()
	cv.SetMatrix(IdentityMatrix)
	cv.DrawSurface(out, Rect{Width: area.Width, Height: area.Height}, area, &SurfaceOptions{Alpha: a, Blend: mode})
	cv.Restore()
	d.stats.DrawCalls++
}

// applyMask keeps only the parts of out covered by n's mask. toArea maps n's
// local space onto out. It returns false when the mask could not be drawn;
// the node is then skipped rather than shown unmasked.
func (d *drawer) applyMask(fc *FilterContext, out Surface, n *Node, toArea Matrix) bool {
	ms, err := fc.Temp(out.Width(), out.Height())
	if err != nil {
		d.skip(n, err)
		return false
	}
	mc := ms.Canvas()
	mc.SetMatrix(toArea)
	d.drawMask(mc, n)

	if n.maskType == MaskLuminance {
		luma, err := fc.Temp(out.Width(), out.Height())
		if err != nil {
			d.skip(n, err)
			return false
		}
		fc.Backend().ColorMatrix(luma, ms, &luminanceToAlpha)
		copySurface(out, luma, &SurfaceOptions{Alpha: 1, Blend: BlendMask})
	}
	copySurface(out, ms, &SurfaceOptions{Alpha: 1, Blend: BlendMask})
	return true
}

// drawMask draws n's mask node in n's local space. The mask's own
// visibility is ignored: it is never drawn on its own anyway.
func (d *drawer) drawMask(cv Canvas, n *Node) {
	m := n.mask
	contour, useCache := d.contour, d.useCache
	d.contour = n.maskType == MaskContour
	d.useCache = false
	a := m.alpha
	if d.contour {
		a = 1
	}
	if a > 0 {
		d.drawWithMatrix(cv, m, n.maskMatrix(), a, m.blend)
	}
	d.contour, d.useCache = contour, useCache
}

// drawProjected draws a node whose transform carries perspective: its body
// is rendered flat at the device scale, then mapped through the projection.
func (d *drawer) drawProjected(cv Canvas, n *Node, m Matrix3D, a float64, mode BlendMode) {
	lb := n.localBounds()
	if lb.IsEmpty() {
		return
	}
	cm := cv.Matrix()
	if !cm.MapRect(m.MapRect(lb)).Intersects(cv.ClipBounds()) {
		return
	}
	s := cm.MaxScale()
	s = min(s, MaxSurfaceSize/lb.Width, MaxSurfaceSize/lb.Height)
	if s <= 0 || math.IsNaN(s) {
		return
	}
	w := max(int(math.Ceil(lb.Width*s)), 1)
	h := max(int(math.Ceil(lb.Height*s)), 1)
	flat, err := d.pool.acquire(w, h)
	if err != nil {
		d.skip(n, err)
		return
	}
	defer d.pool.release(flat)
	fcv := flat.Canvas()
	fcv.SetMatrix(ScaleMatrix(s, s).Multiply(TranslateMatrix(-lb.X, -lb.Y)))
	d.drawLocal(fcv, n, 1, BlendNormal, false)

	place := m.Multiply(Translate3D(lb.X, lb.Y, 0)).Multiply(Scale3D(1/s, 1/s, 1))
	cv.DrawSurfaceProjected(flat, place, &SurfaceOptions{Alpha: a, Blend: mode, Smooth: true})
	d.stats.DrawCalls++
}

// skip records a draw dropped because an offscreen could not be allocated.
func (d *drawer) skip(n *Node, err error) {
	d.stats.SkippedAllocs++
	Logger().Warn("draw skipped", slog.String("node", n.Name), slog.Any("err", err))
}
