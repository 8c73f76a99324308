package arbor

import (
	"log/slog"
	"math"
)

// subtreeCache holds a node's rendered subtree per content-scale bucket.
// An entry is only built once the node has been drawn in two consecutive
// frames without a change in between.
type subtreeCache struct {
	changed bool // modified since it was last drawn
	static  bool // drawn unchanged across two frames
	entries map[int]*cacheEntry
	pool    *surfacePool // owner of the entry surfaces
}

// cacheEntry is one rasterization of a subtree. The surface's top-left
// w by h pixels map onto bounds in the node's local space.
type cacheEntry struct {
	surface    Surface
	bounds     Rect
	w, h       int
	colorSpace string
}

// cacheCandidate is a node whose subtree was drawn this frame after a change.
// If it stays unchanged until the next frame begins, it becomes static.
type cacheCandidate struct {
	node   *Node
	bucket int
}

// dropSubtreeCache returns the node's cached images to the pool and restarts
// the two-frame stability count.
func (n *Node) dropSubtreeCache() {
	c := &n.cache
	c.changed = true
	c.static = false
	if len(c.entries) == 0 {
		return
	}
	for bucket, e := range c.entries {
		c.pool.release(e.surface)
		delete(c.entries, bucket)
	}
}

// releaseSubtreeCache drops the cache of n and every descendant and forgets
// the pool, used when the subtree leaves its session.
func (n *Node) releaseSubtreeCache() {
	n.dropSubtreeCache()
	n.cache.pool = nil
	for _, c := range n.children {
		c.releaseSubtreeCache()
	}
}

// forgetSubtreeCache discards cache entries of n and every descendant
// without returning them to a pool, for surfaces the backend already lost.
func (n *Node) forgetSubtreeCache() {
	n.cache = subtreeCache{changed: true}
	for _, c := range n.children {
		c.forgetSubtreeCache()
	}
}

// hasSubtreeCache reports whether the node holds at least one cached image.
func (n *Node) hasSubtreeCache() bool {
	return len(n.cache.entries) > 0
}

// subtreeCacheEntries counts cached images in the subtree rooted at n.
func (n *Node) subtreeCacheEntries() int {
	count := len(n.cache.entries)
	for _, c := range n.children {
		count += c.subtreeCacheEntries()
	}
	return count
}

// cacheBucket returns the power-of-two long edge of r at the given scale.
func cacheBucket(r Rect, scale float64) int {
	return nextPowerOfTwo(int(math.Ceil(max(r.Width, r.Height) * scale)))
}

// cacheable reports whether n's subtree is worth rasterizing on its own:
// only nodes with a child, a filter or a style qualify.
func cacheable(n *Node) bool {
	if n.owner != nil || n.is3D() || isTrivialLeaf(n) {
		return false
	}
	return len(n.children) > 0 || len(n.filters) > 0 || len(n.styles) > 0
}

// isTrivialLeaf reports whether n is a childless, effect-free node whose
// content is a plain rectangle, rounded rectangle or solid fill.
func isTrivialLeaf(n *Node) bool {
	if len(n.children) > 0 || len(n.filters) > 0 || len(n.styles) > 0 {
		return false
	}
	c := n.Content()
	if c == nil {
		return true
	}
	switch c.Kind() {
	case ContentRect, ContentRRect, ContentSolid:
		return true
	}
	return false
}

// cacheEligible reports whether the drawer may serve n from its subtree
// cache when drawn at opacity a with blend mode.
func (d *drawer) cacheEligible(n *Node, a float64, mode BlendMode) bool {
	dl := d.dl
	if dl == nil || !d.useCache || dl.subtreeCacheMaxSize <= 0 || dl.mode == RenderDirect {
		return false
	}
	if !cacheable(n) || n.DisplayList() != dl {
		return false
	}
	// Without group opacity a translucent subtree's children blend one by
	// one, which a single cached image cannot reproduce.
	return a == 1 || n.groupOpacity || n.hasEffects() || mode != BlendNormal
}

// drawCached draws n from its subtree cache. It returns false when the
// caller must draw the subtree normally.
func (d *drawer) drawCached(cv Canvas, n *Node, lb Rect, a float64, mode BlendMode) bool {
	bucket := cacheBucket(lb, cv.Matrix().MaxScale())
	if bucket > d.dl.subtreeCacheMaxSize {
		return false
	}
	c := &n.cache
	if e := c.entries[bucket]; e != nil {
		d.stats.CacheHits++
		d.drawEntry(cv, e, a, mode)
		return true
	}
	d.stats.CacheMisses++
	if c.changed {
		c.changed = false
		c.static = false
		d.dl.cacheCandidates = append(d.dl.cacheCandidates, cacheCandidate{node: n, bucket: bucket})
		return false
	}
	if !c.static {
		return false
	}
	e, ok := d.buildCacheEntry(n, lb, bucket)
	if !ok {
		return false
	}
	d.drawEntry(cv, e, a, mode)
	return true
}

func (d *drawer) drawEntry(cv Canvas, e *cacheEntry, a float64, mode BlendMode) {
	src := Rect{Width: float64(e.w), Height: float64(e.h)}
	cv.DrawSurface(e.surface, src, e.bounds, &SurfaceOptions{Alpha: a, Blend: mode, Smooth: true})
	d.stats.DrawCalls++
}

// buildCacheEntry rasterizes n's subtree, effects included, at the bucket's
// resolution and stores it.
func (d *drawer) buildCacheEntry(n *Node, lb Rect, bucket int) (*cacheEntry, bool) {
	long := max(lb.Width, lb.Height)
	if long <= 0 {
		return nil, false
	}
	k := float64(bucket) / long
	w := max(int(math.Ceil(lb.Width*k)), 1)
	h := max(int(math.Ceil(lb.Height*k)), 1)
	s, err := d.pool.acquire(w, h)
	if err != nil {
		d.skip(n, err)
		return nil, false
	}
	cv := s.Canvas()
	cv.SetMatrix(ScaleMatrix(k, k).Multiply(TranslateMatrix(-lb.X, -lb.Y)))
	d.drawLocal(cv, n, 1, BlendNormal, false)

	c := &n.cache
	if c.entries == nil {
		c.entries = make(map[int]*cacheEntry)
	}
	c.pool = d.pool
	e := &cacheEntry{surface: s, bounds: lb, w: w, h: h, colorSpace: "srgb"}
	c.entries[bucket] = e
	Logger().Debug("subtree cache entry built",
		slog.String("node", n.Name), slog.Int("bucket", bucket), slog.Int("w", w), slog.Int("h", h))
	return e, true
}

// promoteCacheCandidates marks last frame's candidates static when nothing
// changed them since, and builds their entries.
func (dl *DisplayList) promoteCacheCandidates(d *drawer) {
	for _, cand := range dl.cacheCandidates {
		n := cand.node
		if n.disposed || n.cache.changed || n.DisplayList() != dl || !cacheable(n) {
			continue
		}
		if cand.bucket > dl.subtreeCacheMaxSize {
			continue
		}
		n.cache.static = true
		if n.cache.entries[cand.bucket] == nil {
			d.buildCacheEntry(n, n.localBounds(), cand.bucket)
		}
	}
	clear(dl.cacheCandidates)
	dl.cacheCandidates = dl.cacheCandidates[:0]
}
