package arbor

import "math"

// DefaultZoomPrecision quantizes zoom to 0.001 steps.
const DefaultZoomPrecision = 1000

const (
	minZoomScale = 1.0 / 1024
	maxZoomScale = 1024.0
)

// quantizeZoom turns a zoom scale into its cache bucket key. Zoom-in scales
// step by 1/precision; zoom-out scales are keyed by their magnification
// precision/scale and negated, so the two ranges never collide and have the
// same granularity.
func quantizeZoom(scale float64, precision int64) int64 {
	p := float64(precision)
	if scale >= 1 {
		return int64(math.Round(scale * p))
	}
	return -int64(math.Round(p / scale))
}

// dequantizeZoom returns the scale a bucket key stands for.
func dequantizeZoom(key, precision int64) float64 {
	p := float64(precision)
	if key >= 0 {
		return float64(key) / p
	}
	return p / float64(-key)
}
