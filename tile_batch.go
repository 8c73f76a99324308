package arbor

// tileRun is a row of horizontally adjacent tiles whose slots are also
// adjacent in one atlas row, so they can be drawn and composited as one
// rectangle.
type tileRun struct {
	atlas    int
	sx, sy   float64 // atlas origin of the first slot
	tx, ty   int     // grid position of the first tile
	count    int
	lastSlot int
}

// extends reports whether t continues the run: the next grid column and the
// next slot of the same atlas row.
func (r *tileRun) extends(tc *tileCache, t *tile) bool {
	if r.count == 0 || t.ty != r.ty || t.tx != r.tx+r.count || t.slot != r.lastSlot+1 {
		return false
	}
	atlas, _, sy := tc.slotOrigin(t.slot)
	return atlas == r.atlas && sy == r.sy
}

func newTileRun(tc *tileCache, t *tile) tileRun {
	atlas, sx, sy := tc.slotOrigin(t.slot)
	return tileRun{atlas: atlas, sx: sx, sy: sy, tx: t.tx, ty: t.ty, count: 1, lastSlot: t.slot}
}

// atlasRect returns the run's pixels in its atlas.
func (r *tileRun) atlasRect(size int) Rect {
	s := float64(size)
	return Rect{X: r.sx, Y: r.sy, Width: s * float64(r.count), Height: s}
}

// contentMatrix maps zoomed-content space into the run's atlas pixels.
func (r *tileRun) contentMatrix(size int, z float64) Matrix {
	s := float64(size)
	return TranslateMatrix(r.sx-float64(r.tx)*s, r.sy-float64(r.ty)*s).Multiply(ScaleMatrix(z, z))
}

// renderTileJobs redraws the given tiles. Full jobs sharing a run are drawn
// with one traversal of the tree; partial jobs are drawn clipped to their
// dirty area.
func (dl *DisplayList) renderTileJobs(jobs []tileJob, z float64, d *drawer) {
	tc := dl.tiles
	var run tileRun
	flush := func() {
		if run.count == 0 {
			return
		}
		dl.drawTileArea(run, run.atlasRect(tc.size), z, d)
		run = tileRun{}
	}
	for _, j := range jobs {
		if !j.full {
			flush()
			r := newTileRun(tc, j.t)
			s := float64(tc.size)
			clip := j.area.Offset(r.sx-float64(j.t.tx)*s, r.sy-float64(j.t.ty)*s).Intersect(r.atlasRect(tc.size))
			dl.drawTileArea(r, clip, z, d)
			continue
		}
		if run.extends(tc, j.t) {
			run.count++
			run.lastSlot = j.t.slot
			continue
		}
		flush()
		run = newTileRun(tc, j.t)
	}
	flush()
}

// drawTileArea clears clip in the run's atlas and draws the tree into it.
func (dl *DisplayList) drawTileArea(r tileRun, clip Rect, z float64, d *drawer) {
	if clip.IsEmpty() {
		return
	}
	cv := dl.tiles.atlases[r.atlas].Canvas()
	cv.Save()
	cv.SetMatrix(IdentityMatrix)
	cv.ClipRect(clip)
	cv.Clear(ColorTransparent)
	cv.SetMatrix(r.contentMatrix(dl.tiles.size, z))
	d.drawNode(cv, dl.root, 1, BlendNormal)
	cv.Restore()
}

// compositeTiles draws the visible tiles of cur onto cv, one draw call per
// run.
func (dl *DisplayList) compositeTiles(cv Canvas, cur *tileBucket, grid tileGrid, d *drawer) {
	tc := dl.tiles
	s := float64(tc.size)
	opts := &SurfaceOptions{Alpha: 1, Smooth: false}
	cv.Save()
	cv.SetMatrix(IdentityMatrix)
	var run tileRun
	flush := func() {
		if run.count == 0 {
			return
		}
		dst := Rect{
			X:      float64(run.tx)*s + dl.offsetX,
			Y:      float64(run.ty)*s + dl.offsetY,
			Width:  s * float64(run.count),
			Height: s,
		}
		cv.DrawSurface(tc.atlases[run.atlas], run.atlasRect(tc.size), dst, opts)
		d.stats.DrawCalls++
		run = tileRun{}
	}
	for ty := grid.ty0; ty <= grid.ty1; ty++ {
		for tx := grid.tx0; tx <= grid.tx1; tx++ {
			t := cur.get(tx, ty)
			if t == nil {
				flush()
				continue
			}
			t.lastUsed = dl.frame
			if run.extends(tc, t) {
				run.count++
				run.lastSlot = t.slot
				continue
			}
			flush()
			run = newTileRun(tc, t)
		}
		flush()
	}
	cv.Restore()
}
