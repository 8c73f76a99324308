package arbor

import (
	"fmt"
	"image"
)

// OpKind names a recorded canvas or backend operation.
type OpKind uint8

const (
	OpClear OpKind = iota
	OpClipRect
	OpDrawRect
	OpDrawRRect
	OpDrawPath
	OpDrawText
	OpDrawImage
	OpDrawSurface
	OpDrawSurfaceProjected
	OpBlur
	OpColorMatrix
)

var opKindNames = [...]string{
	"clear", "clip", "rect", "rrect", "path", "text", "image",
	"surface", "surface-projected", "blur", "color-matrix",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "unknown"
}

// RecordedOp is one operation seen by a RecordingBackend.
type RecordedOp struct {
	Kind OpKind
	// Target is the ID of the surface drawn into.
	Target int
	// Source is the ID of the surface read by surface draws, blur and color
	// matrix operations; 0 otherwise.
	Source int
	// Bounds is the device-space box of the operation. Clear and clip ops
	// report the resulting clip.
	Bounds Rect
	// Clip is the device clip in force.
	Clip  Rect
	Color Color
	Alpha float64
	Blend BlendMode
}

// RecordingBackend records operations without producing pixels. Surface IDs
// start at 1 in allocation order.
type RecordingBackend struct {
	Ops []RecordedOp
	// MaxSurfaces, when positive, makes NewSurface fail once that many
	// surfaces are live.
	MaxSurfaces int

	nextID int
	live   int
}

// NewRecordingBackend returns an empty recorder.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{}
}

// Reset drops the recorded operations.
func (b *RecordingBackend) Reset() { b.Ops = b.Ops[:0] }

// LiveSurfaces returns the number of surfaces not yet disposed.
func (b *RecordingBackend) LiveSurfaces() int { return b.live }

// Count returns how many recorded operations have kind k.
func (b *RecordingBackend) Count(k OpKind) int {
	n := 0
	for _, op := range b.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// OpsOn returns the operations drawn into surface id.
func (b *RecordingBackend) OpsOn(id int) []RecordedOp {
	var out []RecordedOp
	for _, op := range b.Ops {
		if op.Target == id {
			out = append(out, op)
		}
	}
	return out
}

func (b *RecordingBackend) NewSurface(w, h int) (Surface, error) {
	if w <= 0 || h <= 0 || w > MaxSurfaceSize || h > MaxSurfaceSize {
		return nil, fmt.Errorf("arbor: recording surface %dx%d: %w", w, h, ErrInvalidSize)
	}
	if b.MaxSurfaces > 0 && b.live >= b.MaxSurfaces {
		return nil, fmt.Errorf("arbor: recording surface %dx%d: %w", w, h, ErrBackendUnavailable)
	}
	b.nextID++
	b.live++
	return &RecordingSurface{backend: b, id: b.nextID, w: w, h: h}, nil
}

func (b *RecordingBackend) Blur(dst, src Surface, sigmaX, sigmaY float64) {
	b.Ops = append(b.Ops, RecordedOp{Kind: OpBlur, Target: surfaceID(dst), Source: surfaceID(src), Bounds: surfaceRect(dst)})
}

func (b *RecordingBackend) ColorMatrix(dst, src Surface, m *ColorMatrix) {
	b.Ops = append(b.Ops, RecordedOp{Kind: OpColorMatrix, Target: surfaceID(dst), Source: surfaceID(src), Bounds: surfaceRect(dst)})
}

func surfaceID(s Surface) int {
	if rs, ok := s.(*RecordingSurface); ok {
		return rs.id
	}
	return 0
}

// RecordingSurface is a sized surface with no pixels.
type RecordingSurface struct {
	backend  *RecordingBackend
	id       int
	w, h     int
	disposed bool
}

// ID returns the surface's allocation number.
func (s *RecordingSurface) ID() int            { return s.id }
func (s *RecordingSurface) Width() int         { return s.w }
func (s *RecordingSurface) Height() int        { return s.h }
func (s *RecordingSurface) Backend() Backend   { return s.backend }
func (s *RecordingSurface) Disposed() bool     { return s.disposed }
func (s *RecordingSurface) bounds() Rect       { return Rect{Width: float64(s.w), Height: float64(s.h)} }
func (s *RecordingSurface) newState() recState { return recState{m: IdentityMatrix, clip: s.bounds()} }

func (s *RecordingSurface) Canvas() Canvas {
	return &recordingCanvas{s: s, state: s.newState()}
}

func (s *RecordingSurface) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.backend.live--
}

type recState struct {
	m    Matrix
	clip Rect
}

type recordingCanvas struct {
	s     *RecordingSurface
	state recState
	stack []recState
}

func (c *recordingCanvas) record(op RecordedOp) {
	op.Target = c.s.id
	op.Clip = c.state.clip
	c.s.backend.Ops = append(c.s.backend.Ops, op)
}

// draw records a draw of local-space box r unless the clip hides it.
func (c *recordingCanvas) draw(k OpKind, r Rect, col Color, alpha float64, blend BlendMode, src int) {
	d := c.state.m.MapRect(r)
	if !d.Intersects(c.state.clip) {
		return
	}
	c.record(RecordedOp{Kind: k, Bounds: d, Color: col, Alpha: alpha, Blend: blend, Source: src})
}

func (c *recordingCanvas) Backend() Backend   { return c.s.backend }
func (c *recordingCanvas) Save()              { c.stack = append(c.stack, c.state) }
func (c *recordingCanvas) Matrix() Matrix     { return c.state.m }
func (c *recordingCanvas) SetMatrix(m Matrix) { c.state.m = m }
func (c *recordingCanvas) Concat(m Matrix)    { c.state.m = c.state.m.Multiply(m) }
func (c *recordingCanvas) ClipBounds() Rect   { return c.state.clip }

func (c *recordingCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *recordingCanvas) ClipRect(r Rect) {
	c.state.clip = c.state.clip.Intersect(c.state.m.MapRect(r))
	c.record(RecordedOp{Kind: OpClipRect, Bounds: c.state.clip})
}

func (c *recordingCanvas) Clear(col Color) {
	if c.state.clip.IsEmpty() {
		return
	}
	c.record(RecordedOp{Kind: OpClear, Bounds: c.state.clip, Color: col})
}

func (c *recordingCanvas) DrawRect(r Rect, p *Paint) {
	o := p.strokeOutset()
	c.draw(OpDrawRect, r.Outset(o, o), p.Color, p.Color.A, BlendNormal, 0)
}

func (c *recordingCanvas) DrawRRect(rr RRect, p *Paint) {
	o := p.strokeOutset()
	c.draw(OpDrawRRect, rr.Rect.Outset(o, o), p.Color, p.Color.A, BlendNormal, 0)
}

func (c *recordingCanvas) DrawPath(path *Path, p *Paint) {
	o := p.strokeOutset()
	c.draw(OpDrawPath, path.Bounds().Outset(o, o), p.Color, p.Color.A, BlendNormal, 0)
}

func (c *recordingCanvas) DrawText(run *TextRun, p *Paint) {
	c.draw(OpDrawText, run.Bounds(), p.Color, p.Color.A, BlendNormal, 0)
}

func (c *recordingCanvas) DrawImage(img image.Image, src image.Rectangle, dst Rect, opts *SurfaceOptions) {
	opts = resolveOptions(opts)
	c.draw(OpDrawImage, dst, ColorTransparent, opts.Alpha, opts.Blend, 0)
}

func (c *recordingCanvas) DrawSurface(s Surface, src, dst Rect, opts *SurfaceOptions) {
	opts = resolveOptions(opts)
	c.draw(OpDrawSurface, dst, fillOrNone(opts), opts.Alpha, opts.Blend, surfaceID(s))
}

func (c *recordingCanvas) DrawSurfaceProjected(s Surface, m Matrix3D, opts *SurfaceOptions) {
	opts = resolveOptions(opts)
	d := Matrix3DFromAffine(c.state.m).Multiply(m).MapRect(surfaceRect(s))
	if !d.Intersects(c.state.clip) {
		return
	}
	c.record(RecordedOp{Kind: OpDrawSurfaceProjected, Bounds: d, Alpha: opts.Alpha, Blend: opts.Blend, Source: surfaceID(s)})
}

func fillOrNone(opts *SurfaceOptions) Color {
	if opts.Fill != nil {
		return *opts.Fill
	}
	return ColorTransparent
}
