package ebitenrender

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/arbor"
)

// ErrWrongBackend is returned by Run when the display list was not created
// with an ebitenrender Backend.
var ErrWrongBackend = errors.New("arbor/ebitenrender: display list does not use an ebitenrender backend")

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Resizable lets the window be resized; the render target follows the
	// window size.
	Resizable bool
	// ShowStats draws FPS, TPS and the last frame's stats in the top-left
	// corner. The overlay is drawn on the screen, outside the display list.
	ShowStats bool
}

// Run opens a window and renders dl every frame until the window closes or
// update returns an error. update runs once per tick with the tick length
// in seconds, after the display list's own animations advance.
func Run(dl *arbor.DisplayList, cfg RunConfig, update func(dt float64) error) error {
	b, ok := dl.Backend().(*Backend)
	if !ok {
		return ErrWrongBackend
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	g := &game{dl: dl, backend: b, cfg: cfg, update: update}
	err := ebiten.RunGame(g)
	g.release()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game keeps a persistent offscreen target so partial redraws can reuse
// the previous frame's pixels.
type game struct {
	dl      *arbor.DisplayList
	backend *Backend
	cfg     RunConfig
	update  func(dt float64) error

	target *Surface
	stats  string
	since  float64
}

func (g *game) Update() error {
	dt := 1 / float64(ebiten.TPS())
	g.dl.Update(float32(dt))
	if g.update != nil {
		if err := g.update(dt); err != nil {
			return err
		}
	}
	g.since += dt
	if g.cfg.ShowStats && g.since >= 0.5 {
		g.since = 0
		s := g.dl.Stats()
		g.stats = fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nmode: %s\ndraws: %d dirty: %d\ntiles: %d redrawn %d refined",
			ebiten.ActualFPS(), ebiten.ActualTPS(), s.Mode, s.DrawCalls, s.DirtyRects, s.TilesRedrawn, s.TilesRefined)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if g.target == nil || g.target.Width() != w || g.target.Height() != h {
		if g.target != nil {
			g.target.Dispose()
		}
		s, err := g.backend.NewSurface(w, h)
		if err != nil {
			arbor.Logger().Error("ebitenrender: target allocation failed", "width", w, "height", h, "error", err)
			return
		}
		g.target = s.(*Surface)
	}
	g.dl.Render(g.target, true)
	screen.DrawImage(g.target.img, nil)
	if g.cfg.ShowStats && g.stats != "" {
		vector.DrawFilledRect(screen, 0, 0, 190, 84, color.RGBA{0, 0, 0, 128}, false)
		ebitenutil.DebugPrintAt(screen, g.stats, 4, 2)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.cfg.Resizable {
		return outsideWidth, outsideHeight
	}
	return g.cfg.Width, g.cfg.Height
}

func (g *game) release() {
	if g.target != nil {
		g.target.Dispose()
		g.target = nil
	}
	g.dl.ReleaseResources()
	g.backend.Purge()
}
