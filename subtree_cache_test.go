package arbor

import "testing"

// cachedScene builds a Partial session with a two-child group g under the
// root and an unrelated layer o beside it.
func cachedScene(t *testing.T, b Backend) (dl *DisplayList, g, o *Node, target Surface) {
	t.Helper()
	dl = NewDisplayList(b, WithRenderMode(RenderPartial), WithSubtreeCacheMaxSize(1024))
	g = NewLayer("g")
	a := NewSolidLayer("a", 40, 40, colorRed)
	c := NewSolidLayer("c", 40, 40, colorRed)
	c.SetPosition(40, 40)
	g.AddChild(a)
	g.AddChild(c)
	o = NewSolidLayer("o", 10, 10, ColorBlack)
	o.SetPosition(100, 100)
	dl.Root().AddChild(g)
	dl.Root().AddChild(o)
	return dl, g, o, mustSurface(t, b, 200, 200)
}

func TestSubtreeCacheNeedsTwoStableFrames(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())

	dl.Render(target, true)
	if dl.CacheInfo().SubtreeEntries != 0 {
		t.Error("entry built on the first frame")
	}
	if dl.Stats().CacheMisses == 0 {
		t.Error("first frame should miss")
	}

	dl.Render(target, true)
	if !g.hasSubtreeCache() {
		t.Fatal("unchanged group was not cached on the second frame")
	}
	if got := dl.CacheInfo().SubtreeEntries; got != 1 {
		t.Errorf("SubtreeEntries = %d, want 1", got)
	}
}

func TestSubtreeCacheHit(t *testing.T) {
	dl, _, o, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)

	// Moving o over the group forces the group to be redrawn.
	o.SetPosition(30, 30)
	dl.Render(target, true)
	if got := dl.Stats().CacheHits; got == 0 {
		t.Error("redrawn group was not served from its cache")
	}
}

func TestSubtreeCacheDroppedOnChange(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)
	if !g.hasSubtreeCache() {
		t.Fatal("group not cached")
	}

	g.Children()[0].Solid().SetColor(ColorBlack)
	if g.hasSubtreeCache() {
		t.Error("child change kept the group's cache")
	}
	if got := dl.CacheInfo().PooledSurfaces; got == 0 {
		t.Error("dropped entry was not returned to the pool")
	}

	// Changed last frame: one miss, then rebuilt.
	dl.Render(target, true)
	if g.hasSubtreeCache() {
		t.Error("cache rebuilt in the frame of the change")
	}
	dl.Render(target, true)
	if !g.hasSubtreeCache() {
		t.Error("cache not rebuilt once stable")
	}
}

func TestSubtreeCacheSurvivesMove(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)

	g.SetAlpha(0.999)
	g.SetAlpha(1)
	if !g.hasSubtreeCache() {
		t.Error("alpha change dropped the node's own cache")
	}
	g.SetPosition(5, 5)
	if g.hasSubtreeCache() {
		t.Error("moving should drop the cache")
	}
}

func TestSubtreeCacheSkips(t *testing.T) {
	tests := []struct {
		name  string
		setup func(dl *DisplayList, g *Node)
	}{
		{"direct mode", func(dl *DisplayList, g *Node) { dl.SetRenderMode(RenderDirect) }},
		{"disabled", func(dl *DisplayList, g *Node) { dl.SetSubtreeCacheMaxSize(0) }},
		{"over size", func(dl *DisplayList, g *Node) { dl.SetSubtreeCacheMaxSize(64) }},
		{"translucent", func(dl *DisplayList, g *Node) { g.SetAlpha(0.5) }},
		{"3d", func(dl *DisplayList, g *Node) { g.SetMatrix3D(Perspective3D(500).Multiply(RotateY3D(0.3))) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl, g, o, target := cachedScene(t, NewRecordingBackend())
			tt.setup(dl, g)
			for i := range 3 {
				o.SetPosition(float64(20+i), 20)
				dl.Render(target, true)
			}
			if got := dl.CacheInfo().SubtreeEntries; got != 0 {
				t.Errorf("SubtreeEntries = %d, want 0", got)
			}
			if got := dl.Stats().CacheHits; got != 0 {
				t.Errorf("CacheHits = %d, want 0", got)
			}
		})
	}
}

func TestSubtreeCacheGroupOpacity(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	g.SetAlpha(0.5)
	g.SetGroupOpacity(true)
	dl.Render(target, true)
	dl.Render(target, true)
	if !g.hasSubtreeCache() {
		t.Error("group-opacity subtree should be cached when translucent")
	}
}

func TestSubtreeCacheLeafNeverCached(t *testing.T) {
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial), WithSubtreeCacheMaxSize(1024))
	leaf := NewSolidLayer("leaf", 50, 50, colorRed)
	dl.Root().AddChild(leaf)
	target := mustSurface(t, rb, 100, 100)
	for range 3 {
		dl.Render(target, true)
	}
	if leaf.hasSubtreeCache() || dl.Root().hasSubtreeCache() {
		t.Error("leaf or root was cached")
	}
}

func triangleLayer(name string) *Node {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(40, 0)
	p.LineTo(20, 40)
	p.Close()
	n := NewShapeLayer(name, p)
	n.Shape().SetFillColor(colorRed)
	return n
}

func TestIsTrivialLeaf(t *testing.T) {
	parent := NewLayer("parent")
	parent.AddChild(NewSolidLayer("c", 5, 5, colorRed))
	blurred := NewSolidLayer("blurred", 5, 5, colorRed)
	blurred.AddFilter(NewBlurFilter(1))

	tests := []struct {
		name string
		n    *Node
		want bool
	}{
		{"empty", NewLayer("empty"), true},
		{"solid", NewSolidLayer("solid", 5, 5, colorRed), true},
		{"path", triangleLayer("path"), false},
		{"children", parent, false},
		{"filtered", blurred, false},
	}
	for _, tt := range tests {
		if got := isTrivialLeaf(tt.n); got != tt.want {
			t.Errorf("isTrivialLeaf(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSubtreeCacheSkipsContentLeaves(t *testing.T) {
	tests := []struct {
		name string
		leaf *Node
	}{
		{"path", triangleLayer("tri")},
		{"text", NewTextLayer("text", "Hello", nil, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRecordingBackend()
			dl := NewDisplayList(rb, WithRenderMode(RenderPartial), WithSubtreeCacheMaxSize(1024))
			dl.Root().AddChild(tt.leaf)
			target := mustSurface(t, rb, 100, 100)
			for range 3 {
				dl.Render(target, true)
			}
			if tt.leaf.hasSubtreeCache() {
				t.Error("childless, effect-free leaf was cached")
			}
		})
	}
}

func TestSubtreeCacheFilteredLeaf(t *testing.T) {
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial), WithSubtreeCacheMaxSize(1024))
	leaf := triangleLayer("tri")
	leaf.AddFilter(NewBlurFilter(1))
	dl.Root().AddChild(leaf)
	target := mustSurface(t, rb, 100, 100)
	dl.Render(target, true)
	dl.Render(target, true)
	if !leaf.hasSubtreeCache() {
		t.Error("filtered leaf was not cached once stable")
	}
}

// --- Zoom ---

func TestSubtreeCacheZoomAddsBucket(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)
	if g.cache.entries[128] == nil {
		t.Fatalf("entries = %v, want the 128 bucket", g.cache.entries)
	}
	old := g.cache.entries[128]

	dl.SetZoomScale(2)
	dl.Render(target, true)
	if g.cache.entries[128] != old {
		t.Error("zoom change replaced the existing entry")
	}
	if g.cache.entries[256] == nil {
		t.Error("no entry built for the new zoom's bucket")
	}
	if got := len(g.cache.entries); got != 2 {
		t.Errorf("entries = %d, want 2", got)
	}
	for bucket := range g.cache.entries {
		if bucket > dl.SubtreeCacheMaxSize() {
			t.Errorf("bucket %d exceeds SubtreeCacheMaxSize %d", bucket, dl.SubtreeCacheMaxSize())
		}
	}
}

func TestSubtreeCacheReleasedOnDisable(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)
	dl.SetSubtreeCacheMaxSize(0)
	if g.hasSubtreeCache() {
		t.Error("disabling the cache kept entries")
	}
	if got := dl.CacheInfo().PooledSurfaces; got == 0 {
		t.Error("released entries were not pooled")
	}
}

func TestSubtreeCacheForgottenOnRelease(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)
	dl.ReleaseResources()
	if g.hasSubtreeCache() || dl.CacheInfo().PooledSurfaces != 0 {
		t.Errorf("resources kept after release: %+v", dl.CacheInfo())
	}
}

func TestSubtreeCacheLeavesSession(t *testing.T) {
	dl, g, _, target := cachedScene(t, NewRecordingBackend())
	dl.Render(target, true)
	dl.Render(target, true)
	dl.Root().RemoveChild(g)
	if g.hasSubtreeCache() {
		t.Error("detached subtree kept its cache")
	}
}

func TestSubtreeCachePixels(t *testing.T) {
	sb := NewSoftwareBackend()
	dl, _, o, target := cachedScene(t, sb)
	dl.Render(target, true)
	dl.Render(target, true)

	o.SetPosition(60, 10)
	dl.Render(target, true)
	if dl.Stats().CacheHits == 0 {
		t.Fatal("expected a cache hit")
	}
	assertPixel(t, target, 20, 20, colorRed)
	assertPixel(t, target, 60, 60, colorRed)
	assertPixel(t, target, 62, 12, ColorBlack)
	assertPixel(t, target, 60, 20, ColorWhite)
}

func TestCacheBucket(t *testing.T) {
	tests := []struct {
		r     Rect
		scale float64
		want  int
	}{
		{Rect{Width: 80, Height: 80}, 1, 128},
		{Rect{Width: 80, Height: 30}, 2, 256},
		{Rect{Width: 64, Height: 10}, 1, 64},
		{Rect{Width: 0.5, Height: 0.5}, 1, 1},
	}
	for _, tt := range tests {
		if got := cacheBucket(tt.r, tt.scale); got != tt.want {
			t.Errorf("cacheBucket(%v, %v) = %d, want %d", tt.r, tt.scale, got, tt.want)
		}
	}
}

// --- Pool ---

func TestSurfacePoolReuse(t *testing.T) {
	rb := NewRecordingBackend()
	p := newSurfacePool(rb)
	s, err := p.acquire(50, 20)
	if err != nil {
		t.Fatal(err)
	}
	if s.Width() != 64 || s.Height() != 32 {
		t.Errorf("size = %dx%d, want 64x32", s.Width(), s.Height())
	}
	p.release(s)
	if p.idle() != 1 {
		t.Errorf("idle = %d, want 1", p.idle())
	}
	s2, _ := p.acquire(60, 30)
	if s2 != s {
		t.Error("pooled surface was not reused")
	}
	p.release(s2)
	p.purge()
	if rb.LiveSurfaces() != 0 {
		t.Errorf("LiveSurfaces = %d after purge", rb.LiveSurfaces())
	}
	if _, err := p.acquire(0, 1); err == nil {
		t.Error("zero-size acquire should fail")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 4, 100: 128, 256: 256} {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
