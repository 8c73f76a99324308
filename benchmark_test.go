package arbor

import "testing"

// setupBenchScene returns a session of the given mode with n solid layers
// laid out on a 40px grid, and a 1280x720 recording target.
func setupBenchScene(b *testing.B, mode RenderMode, n int) (*DisplayList, []*Node, Surface) {
	b.Helper()
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(mode), WithSubtreeCacheMaxSize(512))
	nodes := make([]*Node, n)
	for i := range nodes {
		nd := NewSolidLayer("sp", 32, 32, colorRed)
		nd.SetPosition(float64(i%100)*40, float64(i/100)*40)
		dl.Root().AddChild(nd)
		nodes[i] = nd
	}
	return dl, nodes, mustSurface(b, rb, 1280, 720)
}

// --- Frame Benchmarks ---

func BenchmarkRender_Direct_10000Static(b *testing.B) {
	dl, _, target := setupBenchScene(b, RenderDirect, 10000)
	dl.Render(target, true)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dl.Render(target, true)
	}
}

func BenchmarkRender_Partial_10000Static(b *testing.B) {
	dl, _, target := setupBenchScene(b, RenderPartial, 10000)
	dl.Render(target, true)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dl.Render(target, true)
	}
}

func BenchmarkRender_Partial_10000OneMoving(b *testing.B) {
	dl, nodes, target := setupBenchScene(b, RenderPartial, 10000)
	dl.Render(target, true)
	mover := nodes[len(nodes)/2]

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		mover.SetPosition(float64(i%600), 300)
		dl.Render(target, true)
	}
}

func BenchmarkRender_Tiled_10000Scrolling(b *testing.B) {
	dl, _, target := setupBenchScene(b, RenderTiled, 10000)
	dl.Render(target, true)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dl.SetContentOffset(-float64(i%1000), 0)
		dl.Render(target, true)
	}
}

func BenchmarkRender_Tiled_10000Rotating(b *testing.B) {
	dl, nodes, target := setupBenchScene(b, RenderTiled, 10000)
	dl.Render(target, true)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		// Dirty every transform.
		for _, n := range nodes {
			n.SetRotation(float64(i) * 0.01)
		}
		dl.Render(target, true)
	}
}

func BenchmarkRender_CachedGroup(b *testing.B) {
	rb := NewRecordingBackend()
	dl := NewDisplayList(rb, WithRenderMode(RenderPartial), WithSubtreeCacheMaxSize(1024))
	g := NewLayer("g")
	for i := range 200 {
		nd := NewSolidLayer("c", 8, 8, colorRed)
		nd.SetPosition(float64(i%20)*10, float64(i/20)*10)
		g.AddChild(nd)
	}
	dl.Root().AddChild(g)
	over := NewSolidLayer("over", 20, 20, ColorBlack)
	dl.Root().AddChild(over)
	target := mustSurface(b, rb, 640, 480)
	dl.Render(target, true)
	dl.Render(target, true)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		over.SetPosition(float64(i%180), 50)
		dl.Render(target, true)
	}
}

// --- Tree Benchmarks ---

func BenchmarkHitTest_10000(b *testing.B) {
	dl, _, _ := setupBenchScene(b, RenderDirect, 10000)
	root := dl.Root()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		root.LayersUnderPoint(float64(i%4000), float64(i%4000))
	}
}

func BenchmarkFilter_Blur_Software(b *testing.B) {
	sb := NewSoftwareBackend()
	dl := NewDisplayList(sb)
	n := NewSolidLayer("n", 200, 200, colorRed)
	n.SetPosition(50, 50)
	n.SetFilters(NewBlurFilter(6))
	dl.Root().AddChild(n)
	target := mustSurface(b, sb, 320, 320)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dl.Render(target, true)
	}
}
