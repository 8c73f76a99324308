package arbor

import "image"

// ContentRecorder collects a node's own drawing calls and folds them into a
// single Content. It is handed to content callbacks and never retained.
//
// Paint.Antialias is taken from the node's edge antialiasing setting.
type ContentRecorder struct {
	items []Content
	aa    bool
}

// DrawRect records a rectangle.
func (r *ContentRecorder) DrawRect(rect Rect, p Paint) {
	if rect.IsEmpty() {
		return
	}
	p.Antialias = r.aa
	r.items = append(r.items, &RectContent{Rect: rect, Paint: p})
}

// DrawRRect records a rounded rectangle. Square corners record a rectangle.
func (r *ContentRecorder) DrawRRect(rr RRect, p Paint) {
	if rr.IsRect() {
		r.DrawRect(rr.Rect, p)
		return
	}
	if rr.Rect.IsEmpty() {
		return
	}
	p.Antialias = r.aa
	r.items = append(r.items, &RRectContent{RRect: rr, Paint: p})
}

// DrawPath records a path. A path that is exactly a rectangle, rounded
// rectangle, circle or ellipse is recorded as the matching rounded rectangle.
func (r *ContentRecorder) DrawPath(path *Path, p Paint) {
	if path.IsEmpty() {
		return
	}
	if rr, ok := path.asRRect(); ok {
		r.DrawRRect(rr, p)
		return
	}
	p.Antialias = r.aa
	r.items = append(r.items, &PathContent{Path: path.Clone(), Paint: p})
}

// DrawText records a laid-out text run.
func (r *ContentRecorder) DrawText(run *TextRun, p Paint) {
	if run == nil || len(run.Lines) == 0 {
		return
	}
	p.Antialias = r.aa
	r.items = append(r.items, &TextContent{Run: run, Paint: p})
}

// DrawSolid records a color fill of a rectangle or rounded rectangle.
func (r *ContentRecorder) DrawSolid(rr RRect, c Color) {
	if rr.Rect.IsEmpty() {
		return
	}
	r.items = append(r.items, &SolidContent{RRect: rr, Color: c, AA: r.aa})
}

// DrawImage records the src part of img stretched over dst. An empty src
// means the whole image.
func (r *ContentRecorder) DrawImage(img image.Image, src image.Rectangle, dst Rect, smooth bool) {
	if img == nil || dst.IsEmpty() {
		return
	}
	if src.Empty() {
		src = img.Bounds()
	}
	r.items = append(r.items, &ImageContent{Image: img, Src: src, Dst: dst, Smooth: smooth})
}

// finish returns the recorded content: nil for no calls, the single variant
// for one call, a ComposeContent otherwise.
func (r *ContentRecorder) finish() Content {
	switch len(r.items) {
	case 0:
		return nil
	case 1:
		return r.items[0]
	}
	return &ComposeContent{Items: r.items}
}
