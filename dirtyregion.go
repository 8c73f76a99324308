package arbor

// maxDirtyRects caps the rectangles redrawn per frame. Past it the closest
// pair is merged; one slightly larger redraw beats many tiny ones.
const maxDirtyRects = 8

// dirtyRegion is the set of integer-aligned rectangles to redraw this frame.
type dirtyRegion struct {
	rects []Rect
}

// add includes r. Rectangles that overlap are merged.
func (d *dirtyRegion) add(r Rect) {
	if r.IsEmpty() {
		return
	}
	r = r.RoundOut()
	for i := 0; i < len(d.rects); {
		cur := d.rects[i]
		if cur.ContainsRect(r) {
			return
		}
		if cur.Intersects(r) {
			r = r.Union(cur)
			d.rects = append(d.rects[:i], d.rects[i+1:]...)
			i = 0
			continue
		}
		i++
	}
	d.rects = append(d.rects, r)
	for len(d.rects) > maxDirtyRects {
		d.mergeClosest()
	}
}

// mergeClosest replaces the pair whose union adds the least area.
func (d *dirtyRegion) mergeClosest() {
	bi, bj := 0, 1
	best := -1.0
	for i := 0; i < len(d.rects); i++ {
		for j := i + 1; j < len(d.rects); j++ {
			u := d.rects[i].Union(d.rects[j])
			cost := area(u) - area(d.rects[i]) - area(d.rects[j])
			if best < 0 || cost < best {
				best, bi, bj = cost, i, j
			}
		}
	}
	u := d.rects[bi].Union(d.rects[bj])
	d.rects = append(d.rects[:bj], d.rects[bj+1:]...)
	d.rects[bi] = u
}

func area(r Rect) float64 { return r.Width * r.Height }

// clip limits every rectangle to view, dropping those outside.
func (d *dirtyRegion) clip(view Rect) {
	out := d.rects[:0]
	for _, r := range d.rects {
		if c := r.Intersect(view); !c.IsEmpty() {
			out = append(out, c)
		}
	}
	clear(d.rects[len(out):])
	d.rects = out
}

// intersects reports whether r overlaps any dirty rectangle.
func (d *dirtyRegion) intersects(r Rect) bool {
	for _, cur := range d.rects {
		if cur.Intersects(r) {
			return true
		}
	}
	return false
}

func (d *dirtyRegion) empty() bool { return len(d.rects) == 0 }

func (d *dirtyRegion) reset() {
	d.rects = d.rects[:0]
}
