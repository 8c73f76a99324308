package arbor

// partialState is the frame kept between Partial renders.
type partialState struct {
	frame Surface
	w, h  int
	// stale forces the next Partial render to redraw everything: the view
	// or background changed, or the frame was lost.
	stale bool
}

// renderPartial redraws the dirty parts of the kept frame and composites
// the frame onto target.
func (dl *DisplayList) renderPartial(target Surface, autoClear bool, d *drawer) {
	w, h := target.Width(), target.Height()
	ps := &dl.partial
	if ps.frame == nil || ps.w != w || ps.h != h {
		if ps.frame != nil {
			ps.frame.Dispose()
		}
		frame, err := dl.backend.NewSurface(w, h)
		if err != nil {
			logAllocFailure("partial frame", w, h, err)
			d.stats.SkippedAllocs++
			*ps = partialState{stale: true}
			return
		}
		*ps = partialState{frame: frame, w: w, h: h, stale: true}
	}

	viewport := Rect{Width: float64(w), Height: float64(h)}
	var screen dirtyRegion
	if ps.stale {
		recordLastBounds(dl.root, IdentityMatrix3D, true)
		screen.add(viewport)
		d.stats.FullRedraw = true
		ps.stale = false
	} else {
		view := dl.viewMatrix()
		for _, r := range dl.sceneDirty().rects {
			// One pixel of slack for antialiased edges.
			screen.add(view.MapRect(r).Outset(1, 1))
		}
		screen.clip(viewport)
	}

	cv := ps.frame.Canvas()
	view := dl.viewMatrix()
	for _, r := range screen.rects {
		cv.Save()
		cv.ClipRect(r)
		cv.Clear(dl.background)
		cv.SetMatrix(view)
		d.drawNode(cv, dl.root, 1, BlendNormal)
		cv.Restore()
	}
	d.stats.DirtyRects = len(screen.rects)
	dl.lastDirty = append(dl.lastDirty, screen.rects...)

	tc := target.Canvas()
	if autoClear {
		tc.Clear(dl.background)
	}
	tc.DrawSurface(ps.frame, viewport, viewport, nil)
	d.stats.DrawCalls++
}
