package arbor

import "image"

// ContentKind tags a Content variant.
type ContentKind uint8

const (
	ContentRect ContentKind = iota
	ContentRRect
	ContentPath
	ContentText
	ContentSolid
	ContentImage
	ContentCompose
)

var contentKindNames = [...]string{"rect", "rrect", "path", "text", "solid", "image", "compose"}

func (k ContentKind) String() string {
	if int(k) < len(contentKindNames) {
		return contentKindNames[k]
	}
	return "unknown"
}

// Content is a node's own drawing, rebuilt from its drawing calls when the
// node changes and immutable until then. Children are never part of it.
type Content interface {
	Kind() ContentKind
	// Bounds returns a conservative local-space box, stroke included.
	Bounds() Rect
}

// RectContent is a filled or stroked rectangle.
type RectContent struct {
	Rect  Rect
	Paint Paint
}

// RRectContent is a filled or stroked rounded rectangle.
type RRectContent struct {
	RRect RRect
	Paint Paint
}

// PathContent is a filled or stroked path.
type PathContent struct {
	Path  *Path
	Paint Paint
}

// TextContent is a laid-out text run.
type TextContent struct {
	Run   *TextRun
	Paint Paint
}

// SolidContent is an opaque-style color fill of a rectangle or rounded
// rectangle, the output of a solid layer.
type SolidContent struct {
	RRect RRect
	Color Color
	AA    bool
}

// ImageContent is a bitmap drawn into a destination rectangle.
type ImageContent struct {
	Image  image.Image
	Src    image.Rectangle
	Dst    Rect
	Smooth bool
}

// ComposeContent is an ordered sequence of contents drawn back to front.
type ComposeContent struct {
	Items []Content
}

func (*RectContent) Kind() ContentKind    { return ContentRect }
func (*RRectContent) Kind() ContentKind   { return ContentRRect }
func (*PathContent) Kind() ContentKind    { return ContentPath }
func (*TextContent) Kind() ContentKind    { return ContentText }
func (*SolidContent) Kind() ContentKind   { return ContentSolid }
func (*ImageContent) Kind() ContentKind   { return ContentImage }
func (*ComposeContent) Kind() ContentKind { return ContentCompose }

// Rectangle strokes meet at right angles, so a miter reaches exactly half the
// stroke width past each edge.
func (c *RectContent) Bounds() Rect {
	o := c.Paint.halfWidth()
	return c.Rect.Outset(o, o)
}

func (c *RRectContent) Bounds() Rect {
	o := c.Paint.halfWidth()
	return c.RRect.Rect.Outset(o, o)
}

func (c *PathContent) Bounds() Rect {
	o := c.Paint.strokeOutset()
	return c.Path.Bounds().Outset(o, o)
}

func (c *TextContent) Bounds() Rect {
	return c.Run.Bounds()
}

func (c *SolidContent) Bounds() Rect {
	return c.RRect.Rect
}

func (c *ImageContent) Bounds() Rect {
	return c.Dst
}

func (c *ComposeContent) Bounds() Rect {
	var b Rect
	for _, it := range c.Items {
		b = b.Union(it.Bounds())
	}
	return b
}

// contentTightBounds returns the exact extent of c mapped through m.
func contentTightBounds(c Content, m Matrix3D) Rect {
	switch v := c.(type) {
	case *PathContent:
		o := 0.0
		if v.Paint.IsStroke() {
			o = v.Paint.StrokeWidth / 2
			if v.Paint.Join == JoinMiter {
				o = v.Paint.strokeOutset()
			}
		}
		if m.IsAffine() {
			a := m.Affine()
			s := a.MaxScale()
			return v.Path.Transform(a).TightBounds().Outset(o*s, o*s)
		}
		return m.MapRect(v.Path.TightBounds().Outset(o, o))
	case *RectContent:
		hw := 0.0
		if v.Paint.IsStroke() {
			hw = v.Paint.StrokeWidth / 2
		}
		return m.MapRect(v.Rect.Outset(hw, hw))
	case *RRectContent:
		hw := 0.0
		if v.Paint.IsStroke() {
			hw = v.Paint.StrokeWidth / 2
		}
		return m.MapRect(v.RRect.Rect.Outset(hw, hw))
	case *TextContent:
		var b Rect
		for i := range v.Run.Lines {
			b = b.Union(m.MapRect(v.Run.lineBox(i)))
		}
		return b
	case *ComposeContent:
		var b Rect
		for _, it := range v.Items {
			b = b.Union(contentTightBounds(it, m))
		}
		return b
	}
	return m.MapRect(c.Bounds())
}

// drawContent draws c on canvas at the given opacity. In contour mode every
// paint becomes opaque so only the geometry shows; mask rendering uses it.
func drawContent(cv Canvas, c Content, opacity float64, contour bool) {
	switch v := c.(type) {
	case *RectContent:
		p := v.Paint.forDraw(opacity, contour)
		cv.DrawRect(v.Rect, &p)
	case *RRectContent:
		p := v.Paint.forDraw(opacity, contour)
		cv.DrawRRect(v.RRect, &p)
	case *PathContent:
		p := v.Paint.forDraw(opacity, contour)
		cv.DrawPath(v.Path, &p)
	case *TextContent:
		p := v.Paint.forDraw(opacity, contour)
		cv.DrawText(v.Run, &p)
	case *SolidContent:
		p := FillPaint(v.Color)
		p.Antialias = v.AA
		p = p.forDraw(opacity, contour)
		if v.RRect.IsRect() {
			cv.DrawRect(v.RRect.Rect, &p)
		} else {
			cv.DrawRRect(v.RRect, &p)
		}
	case *ImageContent:
		if contour {
			p := FillPaint(ColorBlack)
			cv.DrawRect(v.Dst, &p)
			return
		}
		cv.DrawImage(v.Image, v.Src, v.Dst, &SurfaceOptions{Alpha: opacity, Smooth: v.Smooth})
	case *ComposeContent:
		for _, it := range v.Items {
			drawContent(cv, it, opacity, contour)
		}
	}
}

// contentDrawCount returns how many canvas draws c issues.
func contentDrawCount(c Content) int {
	if v, ok := c.(*ComposeContent); ok {
		n := 0
		for _, it := range v.Items {
			n += contentDrawCount(it)
		}
		return n
	}
	if c == nil {
		return 0
	}
	return 1
}

// hitContent tests (x, y), in local space, against c. With exact false the
// conservative box decides; with exact true the geometry does, strokes
// included. Images always test by their box.
func hitContent(c Content, x, y float64, exact bool) bool {
	if !exact {
		if v, ok := c.(*ComposeContent); ok {
			for _, it := range v.Items {
				if hitContent(it, x, y, false) {
					return true
				}
			}
			return false
		}
		return c.Bounds().Contains(x, y)
	}
	switch v := c.(type) {
	case *RectContent:
		return hitRRect(RRect{Rect: v.Rect}, &v.Paint, x, y)
	case *RRectContent:
		return hitRRect(v.RRect, &v.Paint, x, y)
	case *PathContent:
		if v.Paint.IsStroke() {
			return v.Path.StrokeContains(x, y, v.Paint.StrokeWidth/2)
		}
		return v.Path.Contains(x, y)
	case *TextContent:
		return v.Run.hit(x, y)
	case *SolidContent:
		return v.RRect.Contains(x, y)
	case *ImageContent:
		return v.Dst.Contains(x, y)
	case *ComposeContent:
		for _, it := range v.Items {
			if hitContent(it, x, y, true) {
				return true
			}
		}
	}
	return false
}

// hitRRect tests a filled or stroked rounded rectangle. A stroke covers the
// band of half its width on either side of the edge.
func hitRRect(rr RRect, p *Paint, x, y float64) bool {
	if !p.IsStroke() {
		return rr.Contains(x, y)
	}
	hw := p.StrokeWidth / 2
	outer := RRect{Rect: rr.Rect.Outset(hw, hw), RadiusX: rr.RadiusX + hw, RadiusY: rr.RadiusY + hw}
	if rr.IsRect() {
		outer.RadiusX, outer.RadiusY = 0, 0
	}
	if !outer.Contains(x, y) {
		return false
	}
	inner := RRect{Rect: rr.Rect.Outset(-hw, -hw), RadiusX: rr.RadiusX - hw, RadiusY: rr.RadiusY - hw}
	if inner.Rect.IsEmpty() {
		return true
	}
	return !inner.Contains(x, y)
}
