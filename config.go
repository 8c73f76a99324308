package arbor

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Option configures a DisplayList at construction.
type Option func(dl *DisplayList)

// WithRenderMode selects the render strategy.
func WithRenderMode(m RenderMode) Option {
	return func(dl *DisplayList) { dl.SetRenderMode(m) }
}

// WithTileSize sets the tile edge for Tiled mode.
func WithTileSize(size int) Option {
	return func(dl *DisplayList) { dl.SetTileSize(size) }
}

// WithMaxTileCount sets the tile budget.
func WithMaxTileCount(n int) Option {
	return func(dl *DisplayList) { dl.SetMaxTileCount(n) }
}

// WithZoomScale sets the initial zoom.
func WithZoomScale(s float64) Option {
	return func(dl *DisplayList) { dl.SetZoomScale(s) }
}

// WithZoomScalePrecision sets the zoom quantization multiplier.
func WithZoomScalePrecision(p int64) Option {
	return func(dl *DisplayList) { dl.SetZoomScalePrecision(p) }
}

// WithContentOffset sets the screen position of the content origin.
func WithContentOffset(x, y float64) Option {
	return func(dl *DisplayList) { dl.SetContentOffset(x, y) }
}

// WithSubtreeCacheMaxSize enables subtree caching up to the given edge.
func WithSubtreeCacheMaxSize(n int) Option {
	return func(dl *DisplayList) { dl.SetSubtreeCacheMaxSize(n) }
}

// WithBackgroundColor sets the color drawn behind the content.
func WithBackgroundColor(c Color) Option {
	return func(dl *DisplayList) { dl.SetBackgroundColor(c) }
}

// WithAllowZoomBlur lets other zoom levels' tiles stand in for missing ones.
func WithAllowZoomBlur(v bool) Option {
	return func(dl *DisplayList) { dl.SetAllowZoomBlur(v) }
}

// WithMaxTilesRefinedPerFrame sets the refinement budget.
func WithMaxTilesRefinedPerFrame(n int) Option {
	return func(dl *DisplayList) { dl.SetMaxTilesRefinedPerFrame(n) }
}

// WithShowDirtyRegions outlines each frame's redrawn areas.
func WithShowDirtyRegions(v bool) Option {
	return func(dl *DisplayList) { dl.SetShowDirtyRegions(v) }
}

// Config is the serializable form of a DisplayList's settings. Zero fields
// keep the session's current value, except the booleans, which are always
// applied.
type Config struct {
	RenderMode              string     `json:"renderMode,omitempty"`
	TileSize                int        `json:"tileSize,omitempty"`
	MaxTileCount            int        `json:"maxTileCount,omitempty"`
	AllowZoomBlur           bool       `json:"allowZoomBlur"`
	MaxTilesRefinedPerFrame int        `json:"maxTilesRefinedPerFrame,omitempty"`
	ZoomScale               float64    `json:"zoomScale,omitempty"`
	ZoomScalePrecision      int64      `json:"zoomScalePrecision,omitempty"`
	ContentOffset           [2]float64 `json:"contentOffset"`
	SubtreeCacheMaxSize     int        `json:"subtreeCacheMaxSize,omitempty"`
	// BackgroundColor is [r, g, b, a] in [0, 1].
	BackgroundColor  *[4]float64 `json:"backgroundColor,omitempty"`
	ShowDirtyRegions bool        `json:"showDirtyRegions"`
}

// ParseRenderMode maps "direct", "partial" or "tiled" to a RenderMode.
func ParseRenderMode(s string) (RenderMode, error) {
	switch s {
	case "direct":
		return RenderDirect, nil
	case "partial":
		return RenderPartial, nil
	case "tiled":
		return RenderTiled, nil
	}
	return RenderDirect, fmt.Errorf("arbor: unknown render mode %q", s)
}

// LoadConfig parses a JSON configuration.
func LoadConfig(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("arbor: parse config: %w", err)
	}
	if c.RenderMode != "" {
		if _, err := ParseRenderMode(c.RenderMode); err != nil {
			return Config{}, fmt.Errorf("arbor: parse config: %w", err)
		}
	}
	return c, nil
}

// Config returns the session's current settings.
func (dl *DisplayList) Config() Config {
	bg := [4]float64{dl.background.R, dl.background.G, dl.background.B, dl.background.A}
	return Config{
		RenderMode:              dl.mode.String(),
		TileSize:                dl.tileSize,
		MaxTileCount:            dl.maxTileCount,
		AllowZoomBlur:           dl.allowZoomBlur,
		MaxTilesRefinedPerFrame: dl.maxTilesRefined,
		ZoomScale:               dl.ZoomScale(),
		ZoomScalePrecision:      dl.zoomPrecision,
		ContentOffset:           [2]float64{dl.offsetX, dl.offsetY},
		SubtreeCacheMaxSize:     dl.subtreeCacheMaxSize,
		BackgroundColor:         &bg,
		ShowDirtyRegions:        dl.showDirty,
	}
}

// ApplyConfig applies c through the setters, so every value is clamped the
// same way. The precision is applied before the zoom.
func (dl *DisplayList) ApplyConfig(c Config) {
	if c.RenderMode != "" {
		if m, err := ParseRenderMode(c.RenderMode); err == nil {
			dl.SetRenderMode(m)
		}
	}
	if c.TileSize != 0 {
		dl.SetTileSize(c.TileSize)
	}
	if c.MaxTileCount != 0 {
		dl.SetMaxTileCount(c.MaxTileCount)
	}
	dl.SetAllowZoomBlur(c.AllowZoomBlur)
	if c.MaxTilesRefinedPerFrame != 0 {
		dl.SetMaxTilesRefinedPerFrame(c.MaxTilesRefinedPerFrame)
	}
	if c.ZoomScalePrecision != 0 {
		dl.SetZoomScalePrecision(c.ZoomScalePrecision)
	}
	if c.ZoomScale != 0 {
		dl.SetZoomScale(c.ZoomScale)
	}
	dl.SetContentOffset(c.ContentOffset[0], c.ContentOffset[1])
	if c.SubtreeCacheMaxSize != 0 {
		dl.SetSubtreeCacheMaxSize(c.SubtreeCacheMaxSize)
	}
	if bg := c.BackgroundColor; bg != nil {
		dl.SetBackgroundColor(Color{clamp01(bg[0]), clamp01(bg[1]), clamp01(bg[2]), clamp01(bg[3])})
	}
	dl.SetShowDirtyRegions(c.ShowDirtyRegions)
	Logger().Info("display list configured",
		slog.String("mode", dl.mode.String()),
		slog.Int("tileSize", dl.tileSize),
		slog.Float64("zoom", dl.ZoomScale()))
}
