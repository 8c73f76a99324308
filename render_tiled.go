package arbor

import (
	"log/slog"
	"math"
)

// tileJob is a tile whose pixels must be (re)drawn. area is the part of the
// tile to redraw, in zoomed-content space.
type tileJob struct {
	t    *tile
	area Rect
	full bool
}

// tileGrid is the inclusive range of tile coordinates on screen.
type tileGrid struct {
	tx0, ty0, tx1, ty1 int
}

func (g tileGrid) contains(tx, ty int) bool {
	return tx >= g.tx0 && tx <= g.tx1 && ty >= g.ty0 && ty <= g.ty1
}

// visibleGrid returns the tiles covering a w by h target when the content
// origin sits at (ox, oy).
func visibleGrid(w, h int, ox, oy float64, size int) tileGrid {
	s := float64(size)
	return tileGrid{
		tx0: int(math.Floor(-ox / s)),
		ty0: int(math.Floor(-oy / s)),
		tx1: int(math.Ceil((float64(w)-ox)/s)) - 1,
		ty1: int(math.Ceil((float64(h)-oy)/s)) - 1,
	}
}

// tileRect returns a tile's area in zoomed-content space.
func tileRect(tx, ty, size int) Rect {
	s := float64(size)
	return Rect{X: float64(tx) * s, Y: float64(ty) * s, Width: s, Height: s}
}

// renderTiled draws the tree through the tile cache of the current zoom.
func (dl *DisplayList) renderTiled(target Surface, autoClear bool, d *drawer) {
	w, h := target.Width(), target.Height()
	ts := dl.tileSize
	maxTiles := max(dl.maxTileCount, minTileCount(w, h, ts))
	if dl.tiles == nil || dl.tiles.size != ts {
		dl.dropTiles()
		dl.tiles = newTileCache(dl.backend, ts, maxTiles)
	}
	tc := dl.tiles
	tc.maxTiles = maxTiles

	z, key := dl.zoom(), dl.zoomKey
	if dl.frame > 1 && key == tc.lastKey {
		tc.stable++
	} else {
		tc.stable = 0
	}
	tc.lastKey = key

	var region *dirtyRegion
	if dl.resync || !dl.rendered {
		recordLastBounds(dl.root, IdentityMatrix3D, true)
		region = &dirtyRegion{}
	} else {
		region = dl.sceneDirty()
	}

	viewport := Rect{Width: float64(w), Height: float64(h)}
	grid := visibleGrid(w, h, dl.offsetX, dl.offsetY, ts)
	redraw := dl.invalidateTiles(region, grid, key)

	cv := target.Canvas()
	if autoClear {
		cv.Clear(dl.background)
	}
	for _, r := range region.rects {
		sr := r.Scale(z).Offset(dl.offsetX, dl.offsetY).Intersect(viewport)
		if !sr.IsEmpty() {
			dl.lastDirty = append(dl.lastDirty, sr.RoundOut())
		}
	}
	d.stats.DirtyRects = len(dl.lastDirty)

	if !dl.contentVisible(viewport) {
		if n := tc.clearAll(); n > 0 {
			Logger().Debug("tile caches cleared", slog.Int("tiles", n), slog.Int("free", len(tc.free)))
		}
		return
	}

	cur := tc.bucket(key, z, true)
	var jobs []tileJob
	var stand []tileGrid // single cells drawn from other buckets
	budget := dl.maxTilesRefined
	refineAll := budget == 0 && tc.stable >= 1
	for ty := grid.ty0; ty <= grid.ty1; ty++ {
		for tx := grid.tx0; tx <= grid.tx1; tx++ {
			if t := cur.get(tx, ty); t != nil {
				if area, ok := redraw[tileKey(tx, ty)]; ok {
					jobs = append(jobs, tileJob{t: t, area: area})
					d.stats.TilesRedrawn++
				}
				continue
			}
			if dl.allowZoomBlur && tc.fallbackBucket(cur, tx, ty) != nil {
				if !refineAll && budget <= 0 {
					stand = append(stand, tileGrid{tx, ty, tx, ty})
					continue
				}
				budget--
				d.stats.TilesRefined++
			}
			t := dl.newTile(cur, tx, ty, grid)
			if t == nil {
				d.stats.SkippedAllocs++
				continue
			}
			jobs = append(jobs, tileJob{t: t, area: tileRect(tx, ty, ts), full: true})
			d.stats.TilesRedrawn++
		}
	}

	for _, cell := range stand {
		dl.drawFallback(cv, cur, cell.tx0, cell.ty0, d)
	}
	dl.renderTileJobs(jobs, z, d)
	dl.compositeTiles(cv, cur, grid, d)
}

// invalidateTiles applies the scene-space dirty region to every bucket.
// Visible tiles of the current bucket are redrawn in place; the returned map
// holds the area to redraw per tile. Every other tile touched is recycled,
// once no matter how many rectangles touch it.
func (dl *DisplayList) invalidateTiles(region *dirtyRegion, grid tileGrid, key int64) map[int64]Rect {
	redraw := make(map[int64]Rect)
	if region.empty() {
		return redraw
	}
	tc := dl.tiles
	for _, b := range tc.buckets {
		var content []Rect
		for _, r := range region.rects {
			content = append(content, r.Scale(b.zoom).Outset(1, 1).RoundOut())
		}
		for k, t := range b.tiles {
			tr := tileRect(t.tx, t.ty, tc.size)
			var area Rect
			for _, cr := range content {
				area = area.Union(cr.Intersect(tr))
			}
			if area.IsEmpty() {
				continue
			}
			if b.key == key && grid.contains(t.tx, t.ty) {
				redraw[k] = area
				continue
			}
			tc.recycle(b, t)
			dl.stats.TilesRecycled++
		}
	}
	return redraw
}

// newTile allocates a tile of cur at (tx, ty). Visible tiles of cur are
// never evicted for it.
func (dl *DisplayList) newTile(cur *tileBucket, tx, ty int, grid tileGrid) *tile {
	tc := dl.tiles
	slot, ok := tc.allocate(cur, func(t *tile) bool { return grid.contains(t.tx, t.ty) })
	if !ok {
		Logger().Warn("tile budget exhausted", slog.Int("max", tc.maxTiles))
		return nil
	}
	if _, err := tc.atlasFor(slot); err != nil {
		tc.releaseSlot(slot)
		logAllocFailure("tile atlas", tc.cols*tc.size, tc.cols*tc.size, err)
		return nil
	}
	t := &tile{tx: tx, ty: ty, slot: slot}
	cur.tiles[tileKey(tx, ty)] = t
	return t
}

// fallbackBucket returns the bucket nearest in zoom to cur that holds any
// tile overlapping cell (tx, ty) of cur.
func (tc *tileCache) fallbackBucket(cur *tileBucket, tx, ty int) *tileBucket {
	var best *tileBucket
	for _, b := range tc.buckets {
		if b == cur || len(b.tiles) == 0 {
			continue
		}
		if best != nil && zoomDistance(b.zoom, cur.zoom) >= zoomDistance(best.zoom, cur.zoom) {
			continue
		}
		area := tileRect(tx, ty, tc.size).Scale(b.zoom / cur.zoom)
		if tc.anyTileIn(b, area) {
			best = b
		}
	}
	return best
}

func (tc *tileCache) anyTileIn(b *tileBucket, area Rect) bool {
	s := float64(tc.size)
	for ty := int(math.Floor(area.Y / s)); float64(ty)*s < area.Bottom(); ty++ {
		for tx := int(math.Floor(area.X / s)); float64(tx)*s < area.Right(); tx++ {
			if b.get(tx, ty) != nil {
				return true
			}
		}
	}
	return false
}

// drawFallback fills the screen cell of (tx, ty) with scaled tiles from the
// nearest other zoom bucket.
func (dl *DisplayList) drawFallback(cv Canvas, cur *tileBucket, tx, ty int, d *drawer) {
	tc := dl.tiles
	b := tc.fallbackBucket(cur, tx, ty)
	if b == nil {
		return
	}
	ratio := cur.zoom / b.zoom
	cell := tileRect(tx, ty, tc.size)
	area := cell.Scale(1 / ratio)
	s := float64(tc.size)

	cv.Save()
	cv.SetMatrix(IdentityMatrix)
	cv.ClipRect(cell.Offset(dl.offsetX, dl.offsetY))
	for fy := int(math.Floor(area.Y / s)); float64(fy)*s < area.Bottom(); fy++ {
		for fx := int(math.Floor(area.X / s)); float64(fx)*s < area.Right(); fx++ {
			t := b.get(fx, fy)
			if t == nil {
				continue
			}
			atlas, sx, sy := tc.slotOrigin(t.slot)
			dst := tileRect(fx, fy, tc.size).Scale(ratio).Offset(dl.offsetX, dl.offsetY)
			src := Rect{X: sx, Y: sy, Width: s, Height: s}
			cv.DrawSurface(tc.atlases[atlas], src, dst, &SurfaceOptions{Alpha: 1, Smooth: true})
			d.stats.DrawCalls++
			t.lastUsed = dl.frame
		}
	}
	cv.Restore()
	d.stats.TilesFallback++
}
