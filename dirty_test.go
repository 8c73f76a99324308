package arbor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- dirtyRegion ---

func TestDirtyRegionMergesOverlaps(t *testing.T) {
	var d dirtyRegion
	d.add(Rect{X: 0, Y: 0, Width: 10, Height: 10})
	d.add(Rect{X: 5, Y: 5, Width: 10, Height: 10})
	d.add(Rect{X: 100, Y: 100, Width: 10, Height: 10})
	want := []Rect{
		{X: 0, Y: 0, Width: 15, Height: 15},
		{X: 100, Y: 100, Width: 10, Height: 10},
	}
	if diff := cmp.Diff(want, d.rects); diff != "" {
		t.Errorf("rects (-want +got):\n%s", diff)
	}
}

func TestDirtyRegionChainedMerge(t *testing.T) {
	var d dirtyRegion
	d.add(Rect{X: 0, Width: 10, Height: 10})
	d.add(Rect{X: 20, Width: 10, Height: 10})
	// Bridges both: all three become one.
	d.add(Rect{X: 5, Width: 20, Height: 10})
	want := []Rect{{X: 0, Width: 30, Height: 10}}
	if diff := cmp.Diff(want, d.rects); diff != "" {
		t.Errorf("rects (-want +got):\n%s", diff)
	}
}

func TestDirtyRegionRoundsOut(t *testing.T) {
	var d dirtyRegion
	d.add(Rect{X: 0.4, Y: 0.6, Width: 1, Height: 1})
	want := []Rect{{X: 0, Y: 0, Width: 2, Height: 2}}
	if diff := cmp.Diff(want, d.rects); diff != "" {
		t.Errorf("rects (-want +got):\n%s", diff)
	}
	d.add(Rect{})
	if len(d.rects) != 1 {
		t.Errorf("empty rect was added: %v", d.rects)
	}
	d.add(Rect{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5})
	if len(d.rects) != 1 {
		t.Errorf("contained rect was added: %v", d.rects)
	}
}

func TestDirtyRegionCap(t *testing.T) {
	var d dirtyRegion
	for i := range maxDirtyRects + 4 {
		d.add(Rect{X: float64(i * 100), Width: 10, Height: 10})
	}
	if len(d.rects) != maxDirtyRects {
		t.Fatalf("len(rects) = %d, want %d", len(d.rects), maxDirtyRects)
	}
	var covered float64
	for _, r := range d.rects {
		covered += area(r)
	}
	if covered < float64((maxDirtyRects+4)*100) {
		t.Errorf("merged rects cover %v, less than the input", covered)
	}
}

func TestDirtyRegionClip(t *testing.T) {
	var d dirtyRegion
	d.add(Rect{X: -5, Y: -5, Width: 10, Height: 10})
	d.add(Rect{X: 500, Y: 500, Width: 10, Height: 10})
	d.clip(Rect{Width: 100, Height: 100})
	want := []Rect{{Width: 5, Height: 5}}
	if diff := cmp.Diff(want, d.rects); diff != "" {
		t.Errorf("rects (-want +got):\n%s", diff)
	}
}

// --- Flag propagation ---

func TestInvalidateContentBubbles(t *testing.T) {
	root, mid, leaf := NewLayer("root"), NewLayer("mid"), NewSolidLayer("leaf", 5, 5, ColorBlack)
	root.AddChild(mid)
	mid.AddChild(leaf)
	clearAllDirty(root)

	leaf.Solid().SetColor(ColorWhite)
	if !leaf.dirty.has(dirtyContent) {
		t.Error("leaf should be content-dirty")
	}
	for _, n := range []*Node{mid, root} {
		if !n.dirty.has(dirtyDescendents) {
			t.Errorf("%s should know a descendant changed", n.Name)
		}
		if n.dirty.has(dirtyContent) {
			t.Errorf("%s content should stay clean", n.Name)
		}
	}
}

func TestAppearanceKeepsOwnCache(t *testing.T) {
	n := NewLayer("n")
	n.cache.changed = false
	n.SetAlpha(0.5)
	if n.cache.changed {
		t.Error("alpha should not invalidate the node's own cache")
	}
	n.SetPosition(3, 3)
	if !n.cache.changed {
		t.Error("moving should invalidate the node's cache")
	}
}

func TestClearDirty(t *testing.T) {
	root, leaf := NewLayer("root"), NewLayer("leaf")
	root.AddChild(leaf)
	leaf.SetPosition(1, 1)
	clearDirty(root)
	if root.dirty.has(dirtyDescendents) || leaf.dirty.has(dirtyTransform) {
		t.Errorf("flags left after clearDirty: root=%b leaf=%b", root.dirty, leaf.dirty)
	}
}

func clearAllDirty(n *Node) {
	n.dirty = 0
	for _, c := range n.children {
		clearAllDirty(c)
	}
}
