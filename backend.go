package arbor

import (
	"errors"
	"image"
)

var (
	// ErrInvalidSize is returned when a surface of non-positive or excessive
	// size is requested.
	ErrInvalidSize = errors.New("arbor: invalid surface size")
	// ErrBackendUnavailable is returned when a backend cannot allocate
	// surfaces, for example after its device was lost.
	ErrBackendUnavailable = errors.New("arbor: backend unavailable")
)

// MaxSurfaceSize is the largest width or height a backend must support.
const MaxSurfaceSize = 8192

// Backend allocates surfaces and runs whole-surface image operations.
type Backend interface {
	NewSurface(width, height int) (Surface, error)
	// Blur writes src blurred by a Gaussian of the given deviations to dst.
	// dst and src have the same size and may not alias.
	Blur(dst, src Surface, sigmaX, sigmaY float64)
	// ColorMatrix writes src transformed by m to dst.
	ColorMatrix(dst, src Surface, m *ColorMatrix)
}

// Surface is a pixel buffer a Canvas draws into. Pixels are premultiplied
// unless the backend documents otherwise.
type Surface interface {
	Width() int
	Height() int
	// Canvas returns a drawing context reset to the identity matrix with
	// no clip.
	Canvas() Canvas
	Backend() Backend
	Dispose()
}

// PixelReader is implemented by surfaces whose pixels can be read back.
type PixelReader interface {
	ReadPixels() *image.NRGBA
}

// SurfaceOptions control how an image or surface is composited.
type SurfaceOptions struct {
	Alpha  float64 // opacity in [0, 1]
	Blend  BlendMode
	Smooth bool
	// Fill, when set, replaces the source's color with Fill. The source's
	// alpha is kept and scaled by Fill.A. Shadows and outlines draw this way.
	Fill *Color
}

// opaque is the options used when the caller passes nil.
var opaque = SurfaceOptions{Alpha: 1, Smooth: true}

// resolveOptions returns opts or the defaults for nil.
func resolveOptions(opts *SurfaceOptions) *SurfaceOptions {
	if opts == nil {
		return &opaque
	}
	return opts
}

// Canvas is a stateful drawing context over a Surface. Coordinates passed to
// draw calls are transformed by the current matrix; the clip is kept in
// device space.
type Canvas interface {
	// Backend returns the backend of the surface being drawn into.
	Backend() Backend

	Save()
	Restore()

	Matrix() Matrix
	SetMatrix(m Matrix)
	Concat(m Matrix)

	// ClipRect intersects the clip with the device bounds of r mapped by
	// the current matrix.
	ClipRect(r Rect)
	// ClipBounds returns the clip in device space.
	ClipBounds() Rect

	// Clear sets every pixel inside the clip to c, without blending.
	Clear(c Color)

	DrawRect(r Rect, p *Paint)
	DrawRRect(rr RRect, p *Paint)
	DrawPath(path *Path, p *Paint)
	DrawText(run *TextRun, p *Paint)
	DrawImage(img image.Image, src image.Rectangle, dst Rect, opts *SurfaceOptions)

	// DrawSurface draws the src part of a surface into dst.
	DrawSurface(s Surface, src, dst Rect, opts *SurfaceOptions)
	// DrawSurfaceProjected draws s with each source pixel (x, y) placed at
	// m applied to (x, y), before the canvas matrix. m may carry perspective.
	DrawSurfaceProjected(s Surface, m Matrix3D, opts *SurfaceOptions)
}

// ColorMatrix is a 4x5 row-major matrix applied to unpremultiplied RGBA in
// [0, 1]: out = M * [r g b a 1].
type ColorMatrix [20]float64

// IdentityColorMatrix leaves colors unchanged.
var IdentityColorMatrix = ColorMatrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// Apply transforms one unpremultiplied color.
func (m *ColorMatrix) Apply(r, g, b, a float64) (float64, float64, float64, float64) {
	return m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4],
		m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9],
		m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14],
		m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]
}

// Concat returns the matrix applying o after m.
func (m *ColorMatrix) Concat(o *ColorMatrix) ColorMatrix {
	var r ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += o[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				sum += o[row*5+4]
			}
			r[row*5+col] = sum
		}
	}
	return r
}

// luminanceToAlpha writes Rec. 709 luminance into alpha and clears color.
var luminanceToAlpha = ColorMatrix{
	0, 0, 0, 0, 0,
	0, 0, 0, 0, 0,
	0, 0, 0, 0, 0,
	0.2126, 0.7152, 0.0722, 0, 0,
}
