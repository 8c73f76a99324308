// Package arbor is a retained-mode 2D layer tree with a render session that
// redraws only what changed.
//
// # Quick start
//
// A [DisplayList] owns a root layer and draws it onto a [Surface] from a
// [Backend]. The software backend rasterizes on the CPU; the ebitenrender
// package draws with [Ebitengine]:
//
//	dl := arbor.NewDisplayList(arbor.NewSoftwareBackend(),
//		arbor.WithRenderMode(arbor.RenderTiled),
//		arbor.WithSubtreeCacheMaxSize(1024))
//
//	card := arbor.NewSolidLayer("card", 200, 120, arbor.RGBA(0.2, 0.5, 0.9, 1))
//	card.SetPosition(40, 40)
//	card.AddStyle(arbor.NewDropShadowStyle(0, 4, 6, arbor.RGBA(0, 0, 0, 0.4)))
//	dl.Root().AddChild(card)
//
//	target, _ := dl.Backend().NewSurface(800, 600)
//	dl.Render(target, true)
//
// # Layers
//
// Every layer is a [Node]. Kinds are created with [NewLayer], [NewSolidLayer],
// [NewShapeLayer], [NewTextLayer], [NewImageLayer] and [NewCustomLayer].
// Children draw in order over their parent's own content and inherit its
// transform, opacity and clipping. A layer can carry filters, layer styles,
// a mask layer and a blend mode.
//
// # Render modes
//
//   - [RenderDirect] redraws the whole tree every frame.
//   - [RenderPartial] keeps the previous frame and redraws the union of what
//     changed.
//   - [RenderTiled] caches the scene in tiles per zoom level and redraws only
//     invalidated tiles. Tiles of other zoom levels can stand in while the
//     current level fills in.
//
// A subtree cache keeps a rendered copy of layers that stay unchanged across
// frames, in every mode but Direct.
//
// [Ebitengine]: https://ebitengine.org
package arbor
