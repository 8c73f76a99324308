package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values together and writes them through a
// setter, so the usual invalidation runs. Create one with TweenAlpha,
// TweenPosition, TweenScale or TweenRotation and call Update(dt) each frame.
// If the target node is disposed the group stops immediately.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(v [4]float64)
	target *Node
	Done   bool
}

func newTweenGroup(target *Node, apply func(v [4]float64), duration float32, fn ease.TweenFunc, pairs ...[2]float64) *TweenGroup {
	g := &TweenGroup{count: len(pairs), target: target, apply: apply}
	for i, p := range pairs {
		g.tweens[i] = gween.New(float32(p[0]), float32(p[1]), duration, fn)
	}
	return g
}

// Update advances all tweens by dt seconds and applies the values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}
	var v [4]float64
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		v[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(v)
}

// TweenAlpha animates the node's opacity to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, func(v [4]float64) { node.SetAlpha(v[0]) },
		duration, fn, [2]float64{node.alpha, to})
}

// TweenPosition animates the node's X and Y to the target coordinates.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, func(v [4]float64) { node.SetPosition(v[0], v[1]) },
		duration, fn, [2]float64{node.xf.X, toX}, [2]float64{node.xf.Y, toY})
}

// TweenScale animates the node's ScaleX and ScaleY to the target values.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, func(v [4]float64) { node.SetScale(v[0], v[1]) },
		duration, fn, [2]float64{node.xf.ScaleX, toSX}, [2]float64{node.xf.ScaleY, toSY})
}

// TweenRotation animates the node's rotation, in radians, to the target.
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, func(v [4]float64) { node.SetRotation(v[0]) },
		duration, fn, [2]float64{node.xf.Rotation, to})
}

// TweenColor animates a solid layer's color. Other kinds return nil.
func TweenColor(node *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	s := node.Solid()
	if s == nil {
		return nil
	}
	from := s.Color()
	return newTweenGroup(node, func(v [4]float64) { s.SetColor(Color{v[0], v[1], v[2], v[3]}) },
		duration, fn,
		[2]float64{from.R, to.R}, [2]float64{from.G, to.G},
		[2]float64{from.B, to.B}, [2]float64{from.A, to.A})
}

// --- View animation ---

// AnimateZoom tweens the zoom scale to the target over duration seconds.
// Advance it with Update. A later call replaces a running zoom animation.
func (dl *DisplayList) AnimateZoom(to float64, duration float32, fn ease.TweenFunc) {
	dl.zoomTween = newTweenGroup(nil, func(v [4]float64) { dl.SetZoomScale(v[0]) },
		duration, fn, [2]float64{dl.ZoomScale(), to})
}

// AnimateOffset tweens the content offset to (x, y) over duration seconds.
func (dl *DisplayList) AnimateOffset(x, y float64, duration float32, fn ease.TweenFunc) {
	ox, oy := dl.ContentOffset()
	dl.offsetTween = newTweenGroup(nil, func(v [4]float64) { dl.SetContentOffset(v[0], v[1]) },
		duration, fn, [2]float64{ox, x}, [2]float64{oy, y})
}

// Update advances view animations by dt seconds.
func (dl *DisplayList) Update(dt float32) {
	if dl.zoomTween != nil {
		dl.zoomTween.Update(dt)
		if dl.zoomTween.Done {
			dl.zoomTween = nil
		}
	}
	if dl.offsetTween != nil {
		dl.offsetTween.Update(dt)
		if dl.offsetTween.Done {
			dl.offsetTween = nil
		}
	}
}

// Animating reports whether a view animation is running.
func (dl *DisplayList) Animating() bool {
	return dl.zoomTween != nil || dl.offsetTween != nil
}
