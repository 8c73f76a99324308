// Arbordemo lays out a grid of cards and lets you pan and zoom it.
//
// Controls:
//
//	wheel      zoom around the cursor
//	drag       pan
//	click      toggle the card under the cursor
//	F1         show dirty regions
//	F2         cycle direct, partial and tiled rendering
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/ebitenrender"
)

const (
	screenW  = 1280
	screenH  = 720
	cardW    = 160
	cardH    = 100
	cardGap  = 24
	gridCols = 24
	gridRows = 16
)

var (
	cardColor   = arbor.Color{R: 0.93, G: 0.93, B: 0.96, A: 1}
	activeColor = arbor.Color{R: 0.98, G: 0.78, B: 0.35, A: 1}
	shadowColor = arbor.Color{A: 0.35}
)

type demo struct {
	dl *arbor.DisplayList

	tweens []*arbor.TweenGroup

	dragging  bool
	dragMoved bool
	lastX     int
	lastY     int
}

func main() {
	configPath := flag.String("config", "", "JSON display list config")
	debug := flag.Bool("debug", false, "log per-frame stats")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
		arbor.SetDebugMode(true)
	}
	arbor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dl := arbor.NewDisplayList(ebitenrender.NewBackend(),
		arbor.WithRenderMode(arbor.RenderTiled),
		arbor.WithBackgroundColor(arbor.Color{R: 0.16, G: 0.17, B: 0.2, A: 1}),
		arbor.WithAllowZoomBlur(true),
		arbor.WithMaxTilesRefinedPerFrame(8),
	)
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("read config: %v", err)
		}
		cfg, err := arbor.LoadConfig(data)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		dl.ApplyConfig(cfg)
	}
	buildCards(dl.Root())

	d := &demo{dl: dl}
	err := ebitenrender.Run(dl, ebitenrender.RunConfig{
		Title:     "arbor demo",
		Width:     screenW,
		Height:    screenH,
		Resizable: true,
		ShowStats: true,
	}, d.update)
	if err != nil {
		log.Fatal(err)
	}
}

func buildCards(root *arbor.Node) {
	font := arbor.DefaultFont()
	shadow := arbor.NewDropShadowStyle(0, 4, 6, shadowColor)
	for row := range gridRows {
		for col := range gridCols {
			card := arbor.NewLayer(fmt.Sprintf("card-%d-%d", col, row))
			card.SetPosition(float64(col*(cardW+cardGap)), float64(row*(cardH+cardGap)))

			bg := arbor.NewSolidLayer("bg", cardW, cardH, cardColor)
			bg.Solid().SetRadius(8, 8)
			bg.SetStyles(shadow)
			card.AddChild(bg)

			label := arbor.NewTextLayer("label", fmt.Sprintf("Card %d, %d", col, row), font, 16)
			label.TextBlock().SetColor(arbor.Color{R: 0.15, G: 0.15, B: 0.2, A: 1})
			label.SetPosition(12, 12)
			card.AddChild(label)

			badge := arbor.NewPath()
			badge.AddCircle(cardW-20, cardH-20, 8)
			dot := arbor.NewShapeLayer("badge", badge)
			dot.Shape().SetFillColor(arbor.Color{R: 0.3, G: 0.55, B: 0.9, A: 1})
			card.AddChild(dot)

			root.AddChild(card)
		}
	}
}

func (d *demo) update(dt float64) error {
	live := d.tweens[:0]
	for _, t := range d.tweens {
		t.Update(float32(dt))
		if !t.Done {
			live = append(live, t)
		}
	}
	d.tweens = live

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		d.dl.SetShowDirtyRegions(!d.dl.ShowDirtyRegions())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		next := (d.dl.RenderMode() + 1) % 3
		d.dl.SetRenderMode(next)
		arbor.Logger().Info("render mode", "mode", next.String())
	}

	x, y := ebiten.CursorPosition()
	if _, wy := ebiten.Wheel(); wy != 0 {
		d.zoomAt(float64(x), float64(y), math.Pow(1.15, wy))
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		d.dragging, d.dragMoved = true, false
		d.lastX, d.lastY = x, y
	case d.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if dx, dy := x-d.lastX, y-d.lastY; dx != 0 || dy != 0 {
			ox, oy := d.dl.ContentOffset()
			d.dl.SetContentOffset(ox+float64(dx), oy+float64(dy))
			d.lastX, d.lastY = x, y
			d.dragMoved = true
		}
	case d.dragging:
		d.dragging = false
		if !d.dragMoved {
			d.toggleAt(float64(x), float64(y))
		}
	}
	return nil
}

// zoomAt scales the view by factor keeping the content under (sx, sy) still.
func (d *demo) zoomAt(sx, sy, factor float64) {
	z := d.dl.ZoomScale()
	nz := min(max(z*factor, 0.05), 8)
	ox, oy := d.dl.ContentOffset()
	cx, cy := (sx-ox)/z, (sy-oy)/z
	d.dl.SetZoomScale(nz)
	d.dl.SetContentOffset(sx-cx*nz, sy-cy*nz)
}

// toggleAt flips the color of the card under screen point (sx, sy).
func (d *demo) toggleAt(sx, sy float64) {
	z := d.dl.ZoomScale()
	ox, oy := d.dl.ContentOffset()
	for _, n := range d.dl.Root().LayersUnderPoint((sx-ox)/z, (sy-oy)/z) {
		if n.Name != "bg" {
			continue
		}
		to := activeColor
		if n.Solid().Color() != cardColor {
			to = cardColor
		}
		d.tweens = append(d.tweens, arbor.TweenColor(n, to, 0.25, ease.OutQuad))
		return
	}
}
