package arbor

import (
	"fmt"
	"log/slog"
)

// surfacePool recycles offscreen surfaces by power-of-two size so filters,
// masks and caches stop allocating once a scene settles.
type surfacePool struct {
	backend Backend
	buckets map[uint64][]Surface
	live    int
}

func newSurfacePool(b Backend) *surfacePool {
	return &surfacePool{backend: b, buckets: make(map[uint64][]Surface)}
}

// poolKey packs power-of-two dimensions into one map key.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// nextPowerOfTwo returns the smallest power of two >= n, or 1 for n <= 0.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// acquire returns a cleared surface at least w by h.
func (p *surfacePool) acquire(w, h int) (Surface, error) {
	if w <= 0 || h <= 0 || w > MaxSurfaceSize || h > MaxSurfaceSize {
		return nil, fmt.Errorf("arbor: offscreen %dx%d: %w", w, h, ErrInvalidSize)
	}
	pw, ph := nextPowerOfTwo(w), nextPowerOfTwo(h)
	key := poolKey(pw, ph)
	if list := p.buckets[key]; len(list) > 0 {
		s := list[len(list)-1]
		list[len(list)-1] = nil
		p.buckets[key] = list[:len(list)-1]
		s.Canvas().Clear(ColorTransparent)
		p.live++
		return s, nil
	}
	s, err := p.backend.NewSurface(pw, ph)
	if err != nil {
		return nil, fmt.Errorf("arbor: offscreen %dx%d: %w", pw, ph, err)
	}
	p.live++
	return s, nil
}

// release returns s to the pool.
func (p *surfacePool) release(s Surface) {
	if s == nil {
		return
	}
	key := poolKey(s.Width(), s.Height())
	p.buckets[key] = append(p.buckets[key], s)
	p.live--
}

// idle returns the number of pooled surfaces.
func (p *surfacePool) idle() int {
	n := 0
	for _, list := range p.buckets {
		n += len(list)
	}
	return n
}

// purge disposes every pooled surface.
func (p *surfacePool) purge() {
	n := 0
	for key, list := range p.buckets {
		for _, s := range list {
			s.Dispose()
			n++
		}
		delete(p.buckets, key)
	}
	if n > 0 {
		Logger().Debug("surface pool purged", slog.Int("surfaces", n))
	}
}

// forget drops pooled surfaces without disposing them, for when the backend
// has already lost them.
func (p *surfacePool) forget() {
	clear(p.buckets)
	p.live = 0
}
