package arbor

import "image"

// contentSource produces a node's own drawing calls.
type contentSource interface {
	record(r *ContentRecorder)
}

// Content returns the node's own drawing, rebuilding it when stale. Layers
// with no content of their own return nil.
func (n *Node) Content() Content {
	if n.contentValid {
		return n.content
	}
	r := ContentRecorder{aa: n.edgeAA}
	if n.source != nil {
		n.source.record(&r)
	}
	n.content = r.finish()
	n.contentValid = true
	return n.content
}

// InvalidateContent must be called when something a custom layer's callback
// reads has changed.
func (n *Node) InvalidateContent() {
	n.invalidateContent()
}

// --- Constructors ---

// NewLayer creates a group layer with no content of its own.
func NewLayer(name string) *Node { return defaultFactory().NewLayer(name) }

// NewLayer creates a group layer with no content of its own.
func (f *Factory) NewLayer(name string) *Node {
	n := &Node{Name: name, kind: KindLayer}
	f.nodeDefaults(n)
	return n
}

// NewSolidLayer creates a w by h rectangle filled with c.
func NewSolidLayer(name string, w, h float64, c Color) *Node {
	return defaultFactory().NewSolidLayer(name, w, h, c)
}

// NewSolidLayer creates a w by h rectangle filled with c.
func (f *Factory) NewSolidLayer(name string, w, h float64, c Color) *Node {
	n := &Node{Name: name, kind: KindSolid}
	f.nodeDefaults(n)
	n.source = &Solid{node: n, width: w, height: h, color: c}
	return n
}

// NewShapeLayer creates a layer drawing path. Add paints with Shape().
func NewShapeLayer(name string, path *Path) *Node {
	return defaultFactory().NewShapeLayer(name, path)
}

// NewShapeLayer creates a layer drawing path. Add paints with Shape().
func (f *Factory) NewShapeLayer(name string, path *Path) *Node {
	n := &Node{Name: name, kind: KindShape}
	f.nodeDefaults(n)
	s := &Shape{node: n}
	if path != nil {
		s.path = path.Clone()
	}
	n.source = s
	return n
}

// NewTextLayer creates a layer drawing s. A nil font uses DefaultFont.
func NewTextLayer(name, s string, font *Font, size float64) *Node {
	return defaultFactory().NewTextLayer(name, s, font, size)
}

// NewTextLayer creates a layer drawing s. A nil font uses DefaultFont.
func (f *Factory) NewTextLayer(name, s string, font *Font, size float64) *Node {
	n := &Node{Name: name, kind: KindText}
	f.nodeDefaults(n)
	n.source = &TextBlock{node: n, layout: textLayout{text: s, font: font, size: size, lineSpacing: 1}, color: ColorBlack}
	return n
}

// NewImageLayer creates a layer drawing img at its natural size.
func NewImageLayer(name string, img image.Image) *Node {
	return defaultFactory().NewImageLayer(name, img)
}

// NewImageLayer creates a layer drawing img at its natural size.
func (f *Factory) NewImageLayer(name string, img image.Image) *Node {
	n := &Node{Name: name, kind: KindImage}
	f.nodeDefaults(n)
	n.source = &Bitmap{node: n, img: img, smooth: true}
	return n
}

// NewCustomLayer creates a layer whose content comes from fn. fn runs again
// after InvalidateContent.
func NewCustomLayer(name string, fn func(r *ContentRecorder)) *Node {
	return defaultFactory().NewCustomLayer(name, fn)
}

// NewCustomLayer creates a layer whose content comes from fn.
func (f *Factory) NewCustomLayer(name string, fn func(r *ContentRecorder)) *Node {
	n := &Node{Name: name, kind: KindCustom}
	f.nodeDefaults(n)
	n.source = funcSource(fn)
	return n
}

type funcSource func(r *ContentRecorder)

func (fs funcSource) record(r *ContentRecorder) {
	if fs != nil {
		fs(r)
	}
}

// --- Solid ---

// Solid holds a solid layer's properties.
type Solid struct {
	node          *Node
	width, height float64
	rx, ry        float64
	color         Color
}

// Solid returns the solid properties, or nil for other kinds.
func (n *Node) Solid() *Solid {
	s, _ := n.source.(*Solid)
	return s
}

func (s *Solid) record(r *ContentRecorder) {
	r.DrawSolid(RRect{Rect: Rect{Width: s.width, Height: s.height}, RadiusX: s.rx, RadiusY: s.ry}, s.color)
}

// Size returns the solid's width and height.
func (s *Solid) Size() (w, h float64) { return s.width, s.height }

// SetSize sets the width and height. Negative values clamp to 0.
func (s *Solid) SetSize(w, h float64) {
	w, h = max(w, 0), max(h, 0)
	if s.width == w && s.height == h {
		return
	}
	s.width, s.height = w, h
	s.node.invalidateContent()
}

// Radius returns the corner radii.
func (s *Solid) Radius() (rx, ry float64) { return s.rx, s.ry }

// SetRadius sets the corner radii.
func (s *Solid) SetRadius(rx, ry float64) {
	rx, ry = max(rx, 0), max(ry, 0)
	if s.rx == rx && s.ry == ry {
		return
	}
	s.rx, s.ry = rx, ry
	s.node.invalidateContent()
}

// Color returns the fill color.
func (s *Solid) Color() Color { return s.color }

// SetColor sets the fill color.
func (s *Solid) SetColor(c Color) {
	if s.color == c {
		return
	}
	s.color = c
	s.node.invalidateContent()
}

// --- Shape ---

// Shape holds a shape layer's path and paints. Fills draw before strokes.
type Shape struct {
	node    *Node
	path    *Path
	fills   []Paint
	strokes []Paint
}

// Shape returns the shape properties, or nil for other kinds.
func (n *Node) Shape() *Shape {
	s, _ := n.source.(*Shape)
	return s
}

func (s *Shape) record(r *ContentRecorder) {
	if s.path.IsEmpty() {
		return
	}
	for _, p := range s.fills {
		p.Style = PaintFill
		r.DrawPath(s.path, p)
	}
	for _, p := range s.strokes {
		p.Style = PaintStroke
		r.DrawPath(s.path, p)
	}
}

// Path returns a copy of the shape's path.
func (s *Shape) Path() *Path {
	if s.path == nil {
		return nil
	}
	return s.path.Clone()
}

// SetPath replaces the path. The shape keeps its own copy.
func (s *Shape) SetPath(p *Path) {
	if p == nil {
		s.path = nil
	} else {
		s.path = p.Clone()
	}
	s.node.invalidateContent()
}

// Fills returns the fill paints.
func (s *Shape) Fills() []Paint { return s.fills }

// SetFills replaces the fill paints.
func (s *Shape) SetFills(paints ...Paint) {
	s.fills = append([]Paint(nil), paints...)
	s.node.invalidateContent()
}

// SetFillColor replaces the fills with a single fill of color c.
func (s *Shape) SetFillColor(c Color) {
	s.SetFills(FillPaint(c))
}

// Strokes returns the stroke paints.
func (s *Shape) Strokes() []Paint { return s.strokes }

// SetStrokes replaces the stroke paints.
func (s *Shape) SetStrokes(paints ...Paint) {
	s.strokes = append([]Paint(nil), paints...)
	s.node.invalidateContent()
}

// SetStroke replaces the strokes with a single stroke.
func (s *Shape) SetStroke(c Color, width float64) {
	s.SetStrokes(StrokePaint(c, width))
}

// --- Text ---

// TextBlock holds a text layer's string and formatting.
type TextBlock struct {
	node   *Node
	layout textLayout
	color  Color
	run    *TextRun
}

// TextBlock returns the text properties, or nil for other kinds.
func (n *Node) TextBlock() *TextBlock {
	t, _ := n.source.(*TextBlock)
	return t
}

func (t *TextBlock) record(r *ContentRecorder) {
	r.DrawText(t.Run(), FillPaint(t.color))
}

// Run returns the laid-out text, laying it out when stale.
func (t *TextBlock) Run() *TextRun {
	if t.run == nil {
		t.run = t.layout.layout()
	}
	return t.run
}

func (t *TextBlock) changed() {
	t.run = nil
	t.node.invalidateContent()
}

// Text returns the string.
func (t *TextBlock) Text() string { return t.layout.text }

// SetText replaces the string.
func (t *TextBlock) SetText(s string) {
	if t.layout.text == s {
		return
	}
	t.layout.text = s
	t.changed()
}

// Font returns the font; nil means DefaultFont.
func (t *TextBlock) Font() *Font { return t.layout.font }

// SetFont sets the font and size.
func (t *TextBlock) SetFont(f *Font, size float64) {
	t.layout.font = f
	t.layout.size = size
	t.changed()
}

// Size returns the font size.
func (t *TextBlock) Size() float64 { return t.layout.size }

// Color returns the text color.
func (t *TextBlock) Color() Color { return t.color }

// SetColor sets the text color.
func (t *TextBlock) SetColor(c Color) {
	if t.color == c {
		return
	}
	t.color = c
	t.node.invalidateContent()
}

// Align returns the horizontal alignment.
func (t *TextBlock) Align() TextAlign { return t.layout.align }

// SetAlign sets the horizontal alignment.
func (t *TextBlock) SetAlign(a TextAlign) {
	if t.layout.align == a {
		return
	}
	t.layout.align = a
	t.changed()
}

// WrapWidth returns the wrap width; 0 disables wrapping.
func (t *TextBlock) WrapWidth() float64 { return t.layout.wrapWidth }

// SetWrapWidth sets the width at which lines wrap; 0 disables wrapping.
func (t *TextBlock) SetWrapWidth(w float64) {
	w = max(w, 0)
	if t.layout.wrapWidth == w {
		return
	}
	t.layout.wrapWidth = w
	t.changed()
}

// LineSpacing returns the line height multiplier.
func (t *TextBlock) LineSpacing() float64 { return t.layout.lineSpacing }

// SetLineSpacing sets the line height multiplier. Values <= 0 reset to 1.
func (t *TextBlock) SetLineSpacing(s float64) {
	if s <= 0 {
		s = 1
	}
	if t.layout.lineSpacing == s {
		return
	}
	t.layout.lineSpacing = s
	t.changed()
}

// --- Image ---

// Bitmap holds an image layer's source image.
type Bitmap struct {
	node          *Node
	img           image.Image
	src           image.Rectangle
	width, height float64
	offX, offY    float64 // trim offset of atlas regions
	smooth        bool
}

// Bitmap returns the image properties, or nil for other kinds.
func (n *Node) Bitmap() *Bitmap {
	b, _ := n.source.(*Bitmap)
	return b
}

func (b *Bitmap) record(r *ContentRecorder) {
	if b.img == nil {
		return
	}
	w, h := b.Size()
	r.DrawImage(b.img, b.srcRect(), Rect{X: b.offX, Y: b.offY, Width: w, Height: h}, b.smooth)
}

func (b *Bitmap) srcRect() image.Rectangle {
	if b.src.Empty() && b.img != nil {
		return b.img.Bounds()
	}
	return b.src
}

// Image returns the source image.
func (b *Bitmap) Image() image.Image { return b.img }

// SetImage replaces the image and resets the source rectangle.
func (b *Bitmap) SetImage(img image.Image) {
	b.img = img
	b.src = image.Rectangle{}
	b.node.invalidateContent()
}

// SetSourceRect draws only r of the image. An empty r draws the whole image.
func (b *Bitmap) SetSourceRect(r image.Rectangle) {
	if b.src == r {
		return
	}
	b.src = r
	b.node.invalidateContent()
}

// Size returns the drawn size. Without an explicit size it is the source
// rectangle's size.
func (b *Bitmap) Size() (w, h float64) {
	if b.width > 0 && b.height > 0 {
		return b.width, b.height
	}
	s := b.srcRect()
	return float64(s.Dx()), float64(s.Dy())
}

// SetSize stretches the image to w by h. Zero restores the natural size.
func (b *Bitmap) SetSize(w, h float64) {
	b.width, b.height = max(w, 0), max(h, 0)
	b.node.invalidateContent()
}

// Smooth reports whether the image is filtered when scaled.
func (b *Bitmap) Smooth() bool { return b.smooth }

// SetSmooth toggles filtering when scaled.
func (b *Bitmap) SetSmooth(v bool) {
	if b.smooth == v {
		return
	}
	b.smooth = v
	b.node.invalidateContent()
}
