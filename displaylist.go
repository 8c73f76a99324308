package arbor

import (
	"log/slog"
	"math"
	"time"
)

const (
	// DefaultTileSize is the tile edge used when none is configured.
	DefaultTileSize = 256
	minTileSize     = 16
	maxTileSize     = 2048
)

// DisplayList is a render session: it owns a root layer and draws the tree
// onto a surface each frame with one of three strategies.
//
// A DisplayList is not safe for concurrent use. Tree mutation, setters and
// Render must all happen on one goroutine.
type DisplayList struct {
	backend Backend
	pool    *surfacePool
	root    *Node

	mode                RenderMode
	zoomKey             int64
	zoomPrecision       int64
	offsetX, offsetY    float64
	tileSize            int
	maxTileCount        int
	allowZoomBlur       bool
	maxTilesRefined     int
	subtreeCacheMaxSize int
	background          Color
	showDirty           bool

	// pendingDirty holds scene-space areas vacated by removed nodes.
	pendingDirty    dirtyRegion
	cacheCandidates []cacheCandidate

	partial  partialState
	tiles    *tileCache
	lastMode RenderMode
	rendered bool
	resync   bool   // footprints are stale after a mode switch
	frame    uint64 // frames rendered

	lastDirty []Rect // screen-space rects redrawn by the last frame
	stats     FrameStats

	zoomTween   *TweenGroup
	offsetTween *TweenGroup
}

// NewDisplayList creates a session drawing with backend. The root layer is
// created empty.
func NewDisplayList(backend Backend, opts ...Option) *DisplayList {
	dl := &DisplayList{
		backend:       backend,
		pool:          newSurfacePool(backend),
		mode:          RenderDirect,
		zoomPrecision: DefaultZoomPrecision,
		tileSize:      DefaultTileSize,
		background:    ColorWhite,
	}
	dl.zoomKey = quantizeZoom(1, dl.zoomPrecision)
	root := NewLayer("root")
	root.owner = dl
	dl.root = root
	for _, opt := range opts {
		opt(dl)
	}
	return dl
}

// Root returns the session's root layer.
func (dl *DisplayList) Root() *Node {
	return dl.root
}

// Backend returns the backend the session allocates from.
func (dl *DisplayList) Backend() Backend {
	return dl.backend
}

// --- Configuration ---

// RenderMode returns the strategy used by Render.
func (dl *DisplayList) RenderMode() RenderMode { return dl.mode }

// SetRenderMode selects the render strategy. Unknown values select Direct.
func (dl *DisplayList) SetRenderMode(m RenderMode) {
	if m > RenderTiled {
		m = RenderDirect
	}
	dl.mode = m
}

// TileSize returns the tile edge in pixels.
func (dl *DisplayList) TileSize() int { return dl.tileSize }

// SetTileSize sets the tile edge. The value is clamped to [16, 2048] and
// rounded up to a power of two. Changing it drops every tile.
func (dl *DisplayList) SetTileSize(size int) {
	size = nextPowerOfTwo(min(max(size, minTileSize), maxTileSize))
	if size == dl.tileSize {
		return
	}
	dl.tileSize = size
	dl.dropTiles()
}

// MaxTileCount returns the configured tile budget; 0 means the minimum
// that covers the viewport.
func (dl *DisplayList) MaxTileCount() int { return dl.maxTileCount }

// SetMaxTileCount sets the tile budget. Negative values clamp to 0; values
// below the viewport minimum are raised to it when rendering.
func (dl *DisplayList) SetMaxTileCount(n int) {
	dl.maxTileCount = max(n, 0)
}

// AllowZoomBlur reports whether other zoom levels' tiles stand in for
// missing ones.
func (dl *DisplayList) AllowZoomBlur() bool { return dl.allowZoomBlur }

// SetAllowZoomBlur toggles drawing scaled tiles of other zoom levels while
// the current level fills in.
func (dl *DisplayList) SetAllowZoomBlur(v bool) { dl.allowZoomBlur = v }

// MaxTilesRefinedPerFrame returns the refinement budget.
func (dl *DisplayList) MaxTilesRefinedPerFrame() int { return dl.maxTilesRefined }

// SetMaxTilesRefinedPerFrame limits how many stand-in tiles are replaced per
// frame. With 0 nothing is refined while the zoom keeps changing; once it
// holds still for a frame every tile is refined at once.
func (dl *DisplayList) SetMaxTilesRefinedPerFrame(n int) {
	dl.maxTilesRefined = max(n, 0)
}

// ZoomScale returns the effective zoom, after quantization.
func (dl *DisplayList) ZoomScale() float64 {
	return dequantizeZoom(dl.zoomKey, dl.zoomPrecision)
}

// SetZoomScale sets the zoom. Non-positive and non-finite values are
// ignored; others are clamped to [1/1024, 1024].
func (dl *DisplayList) SetZoomScale(s float64) {
	if !(s > 0) || math.IsInf(s, 0) {
		return
	}
	s = min(max(s, minZoomScale), maxZoomScale)
	key := quantizeZoom(s, dl.zoomPrecision)
	if key == dl.zoomKey {
		return
	}
	dl.zoomKey = key
	dl.partial.stale = true
}

// ZoomScalePrecision returns the quantization multiplier.
func (dl *DisplayList) ZoomScalePrecision() int64 { return dl.zoomPrecision }

// SetZoomScalePrecision sets the quantization multiplier, at least 1. The
// current zoom is requantized and tile buckets keyed by the old precision
// are dropped.
func (dl *DisplayList) SetZoomScalePrecision(p int64) {
	p = max(p, 1)
	if p == dl.zoomPrecision {
		return
	}
	z := dl.ZoomScale()
	dl.zoomPrecision = p
	dl.zoomKey = quantizeZoom(z, p)
	dl.partial.stale = true
	dl.dropTiles()
}

// ContentOffset returns the screen position of the content origin.
func (dl *DisplayList) ContentOffset() (x, y float64) { return dl.offsetX, dl.offsetY }

// SetContentOffset moves the content origin to screen point (x, y).
func (dl *DisplayList) SetContentOffset(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	if x == dl.offsetX && y == dl.offsetY {
		return
	}
	dl.offsetX, dl.offsetY = x, y
	dl.partial.stale = true
}

// SubtreeCacheMaxSize returns the largest cached subtree edge; 0 disables
// subtree caching.
func (dl *DisplayList) SubtreeCacheMaxSize() int { return dl.subtreeCacheMaxSize }

// SetSubtreeCacheMaxSize sets the largest power-of-two edge a subtree may be
// cached at. Negative values clamp to 0, which disables the cache.
func (dl *DisplayList) SetSubtreeCacheMaxSize(n int) {
	n = min(max(n, 0), MaxSurfaceSize)
	if n == dl.subtreeCacheMaxSize {
		return
	}
	dl.subtreeCacheMaxSize = n
	if n == 0 {
		dl.root.releaseSubtreeCache()
	}
}

// BackgroundColor returns the color drawn behind the content.
func (dl *DisplayList) BackgroundColor() Color { return dl.background }

// SetBackgroundColor sets the color drawn behind the content.
func (dl *DisplayList) SetBackgroundColor(c Color) {
	if c == dl.background {
		return
	}
	dl.background = c
	dl.partial.stale = true
}

// ShowDirtyRegions reports whether redrawn areas are outlined.
func (dl *DisplayList) ShowDirtyRegions() bool { return dl.showDirty }

// SetShowDirtyRegions toggles outlining each frame's redrawn areas on the
// target.
func (dl *DisplayList) SetShowDirtyRegions(v bool) { dl.showDirty = v }

// zoom returns the scale content is drawn at.
func (dl *DisplayList) zoom() float64 {
	return dequantizeZoom(dl.zoomKey, dl.zoomPrecision)
}

// viewMatrix maps scene space to the target: screen = scene*zoom + offset.
func (dl *DisplayList) viewMatrix() Matrix {
	z := dl.zoom()
	return TranslateMatrix(dl.offsetX, dl.offsetY).Multiply(ScaleMatrix(z, z))
}

// --- Rendering ---

// Render draws the tree onto target with the configured strategy. With
// autoClear the target is first cleared to the background color; otherwise
// the frame is composited over what target holds.
func (dl *DisplayList) Render(target Surface, autoClear bool) {
	if target == nil || target.Width() <= 0 || target.Height() <= 0 {
		return
	}
	start := time.Now()
	dl.stats = FrameStats{Mode: dl.mode}
	d := newDrawer(dl, dl.pool, &dl.stats)
	dl.promoteCacheCandidates(d)
	dl.lastDirty = dl.lastDirty[:0]

	dl.frame++
	if dl.rendered && dl.mode != dl.lastMode {
		// Direct frames do not track footprints, and tiles went stale
		// while another mode drew.
		dl.partial.stale = true
		dl.resync = true
		dl.clearTiles()
	}

	switch dl.mode {
	case RenderPartial:
		dl.renderPartial(target, autoClear, d)
	case RenderTiled:
		dl.renderTiled(target, autoClear, d)
	default:
		dl.renderDirect(target, autoClear, d)
	}

	if dl.showDirty && len(dl.lastDirty) > 0 {
		dl.drawDirtyOverlay(target.Canvas())
	}
	dl.pendingDirty.reset()
	clearDirty(dl.root)
	dl.lastMode = dl.mode
	dl.rendered = true
	dl.resync = false
	dl.stats.FrameTime = time.Since(start)
	dl.stats.logFrame()
}

// renderDirect redraws the whole tree onto target.
func (dl *DisplayList) renderDirect(target Surface, autoClear bool, d *drawer) {
	cv := target.Canvas()
	if autoClear {
		cv.Clear(dl.background)
	}
	cv.SetMatrix(dl.viewMatrix())
	d.drawNode(cv, dl.root, 1, BlendNormal)
	dl.stats.FullRedraw = true
}

// drawDirtyOverlay outlines the last frame's redrawn rectangles.
func (dl *DisplayList) drawDirtyOverlay(cv Canvas) {
	fill := FillPaint(RGBA(1, 0, 0, 0.12))
	stroke := StrokePaint(RGBA(1, 0, 0, 0.8), 1)
	for _, r := range dl.lastDirty {
		cv.DrawRect(r, &fill)
		cv.DrawRect(r.Outset(-0.5, -0.5), &stroke)
	}
}

// addPendingDirty records a scene-space area that must be redrawn even
// though no node in the tree covers it any more.
func (dl *DisplayList) addPendingDirty(r Rect) {
	dl.pendingDirty.add(r)
}

// ReleaseResources treats every backend resource the session holds as lost:
// caches, tiles and the partial frame are forgotten without being disposed
// and are rebuilt on the next Render. Call it after the graphics device was
// reset.
func (dl *DisplayList) ReleaseResources() {
	dl.root.forgetSubtreeCache()
	clear(dl.cacheCandidates)
	dl.cacheCandidates = dl.cacheCandidates[:0]
	dl.pool.forget()
	dl.partial = partialState{stale: true}
	dl.tiles = nil
	Logger().Debug("display list resources released")
}

// Stats returns the statistics of the last Render.
func (dl *DisplayList) Stats() FrameStats {
	return dl.stats
}

// LastDirtyRects returns the screen-space rectangles the last Render
// redrew. A full redraw reports the whole target.
func (dl *DisplayList) LastDirtyRects() []Rect {
	return append([]Rect(nil), dl.lastDirty...)
}

// --- Dirty collection ---

// collectDirty adds the old and new scene footprint of every node changed
// since the last frame to region and records the new footprints. parent
// maps n's parent space (scroll offset applied) to the scene.
func (dl *DisplayList) collectDirty(n *Node, parent Matrix3D, visible bool, region *dirtyRegion) {
	m := parent.Multiply(n.localMatrix())
	visible = visible && n.visible
	if n.dirty.needsRegionRedraw() {
		if n.hasLastBounds {
			region.add(n.lastBounds)
		}
		recordLastBounds(n, parent, visible)
		if n.hasLastBounds {
			region.add(n.lastBounds)
		}
		return
	}
	if !n.dirty.has(dirtyDescendents) {
		return
	}
	cp := m.Multiply(n.childOffset(IdentityMatrix3D))
	for _, c := range n.children {
		if c.maskOwner != nil {
			continue
		}
		dl.collectDirty(c, cp, visible, region)
	}
	setLastBounds(n, m, visible)
}

// recordLastBounds stores the current scene footprint of n and its drawn
// descendants.
func recordLastBounds(n *Node, parent Matrix3D, visible bool) {
	m := parent.Multiply(n.localMatrix())
	visible = visible && n.visible
	setLastBounds(n, m, visible)
	cp := m.Multiply(n.childOffset(IdentityMatrix3D))
	for _, c := range n.children {
		if c.maskOwner != nil {
			continue
		}
		recordLastBounds(c, cp, visible)
	}
}

func setLastBounds(n *Node, m Matrix3D, visible bool) {
	if !visible {
		n.hasLastBounds = false
		n.lastBounds = Rect{}
		return
	}
	n.lastBounds = m.MapRect(n.localBounds())
	n.hasLastBounds = !n.lastBounds.IsEmpty()
}

// escalateDirty grows region by the whole footprint of every node whose
// output depends on the pixels below it (non-normal blend, filters, 3D)
// and overlaps a dirty area. Repeats until nothing new is added.
func (dl *DisplayList) escalateDirty(region *dirtyRegion) {
	if region.empty() {
		return
	}
	var sensitive []*Node
	collectSensitive(dl.root, &sensitive)
	if len(sensitive) == 0 {
		return
	}
	done := make([]bool, len(sensitive))
	for changed := true; changed; {
		changed = false
		for i, n := range sensitive {
			if done[i] || !region.intersects(n.lastBounds) {
				continue
			}
			done[i] = true
			region.add(n.lastBounds)
			changed = true
		}
	}
}

func collectSensitive(n *Node, out *[]*Node) {
	if !n.visible || !n.hasLastBounds {
		return
	}
	if n.blend != BlendNormal || len(n.filters) > 0 || n.is3D() {
		*out = append(*out, n)
	}
	for _, c := range n.children {
		if c.maskOwner == nil {
			collectSensitive(c, out)
		}
	}
}

// sceneDirty gathers this frame's scene-space dirty region: changed nodes,
// removed nodes, and the nodes that must be redrawn because of them.
func (dl *DisplayList) sceneDirty() *dirtyRegion {
	region := &dirtyRegion{}
	for _, r := range dl.pendingDirty.rects {
		region.add(r)
	}
	dl.collectDirty(dl.root, IdentityMatrix3D, true, region)
	dl.escalateDirty(region)
	return region
}

// contentVisible reports whether anything drawable lies inside the
// screen-space viewport.
func (dl *DisplayList) contentVisible(viewport Rect) bool {
	root := dl.root
	if !root.visible || root.alpha <= 0 {
		return false
	}
	scene := root.localMatrix().MapRect(root.localBounds())
	return dl.viewMatrix().MapRect(scene).Intersects(viewport)
}

// logAllocFailure reports a session-level surface allocation failure.
func logAllocFailure(what string, w, h int, err error) {
	Logger().Warn("surface allocation failed",
		slog.String("for", what), slog.Int("w", w), slog.Int("h", h), slog.Any("err", err))
}
