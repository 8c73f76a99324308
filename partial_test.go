package arbor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newPartialSession(t *testing.T, w, h int) (*DisplayList, *RecordingBackend, Surface) {
	t.Helper()
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial))
	return dl, rb, mustSurface(t, rb, w, h)
}

func TestPartialFirstFrameIsFull(t *testing.T) {
	dl, _, target := newPartialSession(t, 200, 100)
	dl.Root().AddChild(NewSolidLayer("n", 10, 10, colorRed))
	dl.Render(target, true)

	st := dl.Stats()
	if !st.FullRedraw || st.DirtyRects != 1 {
		t.Errorf("stats = %+v, want a single full redraw", st)
	}
	want := []Rect{{Width: 200, Height: 100}}
	if diff := cmp.Diff(want, dl.LastDirtyRects()); diff != "" {
		t.Errorf("LastDirtyRects (-want +got):\n%s", diff)
	}
}

func TestPartialIdleFrame(t *testing.T) {
	dl, rb, target := newPartialSession(t, 100, 100)
	dl.Root().AddChild(NewSolidLayer("n", 10, 10, colorRed))
	dl.Render(target, true)

	rb.Reset()
	dl.Render(target, true)
	if got := dl.Stats().DirtyRects; got != 0 {
		t.Errorf("DirtyRects = %d, want 0", got)
	}
	if got := rb.Count(OpDrawRect); got != 0 {
		t.Errorf("idle frame drew %d rects", got)
	}
	// The kept frame is still composited.
	if got := rb.Count(OpDrawSurface); got != 1 {
		t.Errorf("surface draws = %d, want 1", got)
	}
}

func TestPartialMoveRedrawsOldAndNew(t *testing.T) {
	dl, _, target := newPartialSession(t, 200, 200)
	n := NewSolidLayer("n", 20, 20, colorRed)
	n.SetPosition(10, 10)
	dl.Root().AddChild(n)
	dl.Render(target, true)

	n.SetPosition(100, 100)
	dl.Render(target, true)
	want := []Rect{
		{X: 9, Y: 9, Width: 22, Height: 22},
		{X: 99, Y: 99, Width: 22, Height: 22},
	}
	if diff := cmp.Diff(want, dl.LastDirtyRects()); diff != "" {
		t.Errorf("LastDirtyRects (-want +got):\n%s", diff)
	}
	if dl.Stats().FullRedraw {
		t.Error("a move should not redraw the whole frame")
	}
}

func TestPartialMapsThroughView(t *testing.T) {
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial), WithZoomScale(2), WithContentOffset(10, 0))
	n := NewSolidLayer("n", 10, 10, colorRed)
	dl.Root().AddChild(n)
	target := mustSurface(t, rb, 200, 200)
	dl.Render(target, true)

	n.Solid().SetColor(ColorBlack)
	dl.Render(target, true)
	want := []Rect{{X: 9, Y: 0, Width: 22, Height: 21}}
	if diff := cmp.Diff(want, dl.LastDirtyRects()); diff != "" {
		t.Errorf("LastDirtyRects (-want +got):\n%s", diff)
	}
}

func TestPartialRemovalRedrawsVacatedArea(t *testing.T) {
	dl, _, target := newPartialSession(t, 100, 100)
	keep := NewSolidLayer("keep", 10, 10, colorRed)
	gone := NewSolidLayer("gone", 10, 10, colorRed)
	gone.SetPosition(50, 50)
	dl.Root().AddChild(keep)
	dl.Root().AddChild(gone)
	dl.Render(target, true)

	dl.Root().RemoveChild(gone)
	dl.Render(target, true)
	want := []Rect{{X: 49, Y: 49, Width: 12, Height: 12}}
	if diff := cmp.Diff(want, dl.LastDirtyRects()); diff != "" {
		t.Errorf("LastDirtyRects (-want +got):\n%s", diff)
	}
}

func TestPartialHideRedraws(t *testing.T) {
	dl, _, target := newPartialSession(t, 100, 100)
	n := NewSolidLayer("n", 10, 10, colorRed)
	n.SetPosition(20, 20)
	dl.Root().AddChild(n)
	dl.Render(target, true)

	n.SetVisible(false)
	dl.Render(target, true)
	want := []Rect{{X: 19, Y: 19, Width: 12, Height: 12}}
	if diff := cmp.Diff(want, dl.LastDirtyRects()); diff != "" {
		t.Errorf("LastDirtyRects (-want +got):\n%s", diff)
	}
}

func TestPartialViewChangeIsFull(t *testing.T) {
	tests := []struct {
		name   string
		change func(dl *DisplayList)
	}{
		{"offset", func(dl *DisplayList) { dl.SetContentOffset(5, 5) }},
		{"zoom", func(dl *DisplayList) { dl.SetZoomScale(2) }},
		{"background", func(dl *DisplayList) { dl.SetBackgroundColor(ColorBlack) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl, _, target := newPartialSession(t, 50, 50)
			dl.Root().AddChild(NewSolidLayer("n", 10, 10, colorRed))
			dl.Render(target, true)
			dl.Render(target, true)
			tt.change(dl)
			dl.Render(target, true)
			if !dl.Stats().FullRedraw {
				t.Error("view change should redraw the whole frame")
			}
		})
	}
}

func TestPartialTargetResize(t *testing.T) {
	dl, rb, target := newPartialSession(t, 50, 50)
	dl.Root().AddChild(NewSolidLayer("n", 10, 10, colorRed))
	dl.Render(target, true)
	dl.Render(mustSurface(t, rb, 80, 60), true)
	if !dl.Stats().FullRedraw {
		t.Error("new target size should redraw the whole frame")
	}
	if got, want := dl.LastDirtyRects(), []Rect{{Width: 80, Height: 60}}; !cmp.Equal(got, want) {
		t.Errorf("LastDirtyRects = %v, want %v", got, want)
	}
}

func TestPartialEscalatesBlendedOverlap(t *testing.T) {
	dl, _, target := newPartialSession(t, 300, 300)
	tint := NewSolidLayer("tint", 200, 200, colorRed)
	tint.SetBlendMode(BlendMultiply)
	dot := NewSolidLayer("dot", 10, 10, ColorBlack)
	dot.SetPosition(50, 50)
	dl.Root().AddChild(dot)
	dl.Root().AddChild(tint)
	dl.Render(target, true)

	dot.SetPosition(60, 60)
	dl.Render(target, true)
	want := []Rect{{Width: 201, Height: 201}}
	if diff := cmp.Diff(want, dl.LastDirtyRects()); diff != "" {
		t.Errorf("LastDirtyRects (-want +got):\n%s", diff)
	}
}

func TestPartialNoEscalationWithoutOverlap(t *testing.T) {
	dl, _, target := newPartialSession(t, 300, 300)
	tint := NewSolidLayer("tint", 50, 50, colorRed)
	tint.SetBlendMode(BlendMultiply)
	dot := NewSolidLayer("dot", 10, 10, ColorBlack)
	dot.SetPosition(200, 200)
	dl.Root().AddChild(tint)
	dl.Root().AddChild(dot)
	dl.Render(target, true)

	dot.SetPosition(220, 220)
	dl.Render(target, true)
	for _, r := range dl.LastDirtyRects() {
		if r.Intersects(Rect{Width: 50, Height: 50}) {
			t.Errorf("dirty rect %v reached the blended layer", r)
		}
	}
}

func TestPartialPixels(t *testing.T) {
	sb := NewSoftwareBackend()
	dl := NewDisplayList(sb, WithRenderMode(RenderPartial))
	n := NewSolidLayer("n", 10, 10, colorRed)
	n.SetPosition(5, 5)
	dl.Root().AddChild(n)
	target := mustSurface(t, sb, 64, 64)
	dl.Render(target, true)
	assertPixel(t, target, 8, 8, colorRed)

	n.SetPosition(40, 40)
	dl.Render(target, true)
	assertPixel(t, target, 8, 8, ColorWhite)
	assertPixel(t, target, 45, 45, colorRed)
	assertPixel(t, target, 30, 30, ColorWhite)
}
