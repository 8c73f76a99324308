package arbor

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadAndApplyConfig(t *testing.T) {
	data := []byte(`{
		"renderMode": "tiled",
		"tileSize": 100,
		"maxTileCount": 12,
		"allowZoomBlur": true,
		"maxTilesRefinedPerFrame": 2,
		"zoomScale": 1.5,
		"zoomScalePrecision": 10,
		"contentOffset": [3, 4],
		"subtreeCacheMaxSize": 512,
		"backgroundColor": [0, 0, 0, 2],
		"showDirtyRegions": true
	}`)
	c, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	dl := NewDisplayList(NewRecordingBackend())
	dl.ApplyConfig(c)

	want := Config{
		RenderMode:              "tiled",
		TileSize:                128,
		MaxTileCount:            12,
		AllowZoomBlur:           true,
		MaxTilesRefinedPerFrame: 2,
		ZoomScale:               1.5,
		ZoomScalePrecision:      10,
		ContentOffset:           [2]float64{3, 4},
		SubtreeCacheMaxSize:     512,
		BackgroundColor:         &[4]float64{0, 0, 0, 1},
		ShowDirtyRegions:        true,
	}
	if diff := cmp.Diff(want, dl.Config()); diff != "" {
		t.Errorf("Config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name, data, wantErr string
	}{
		{"unknown mode", `{"renderMode": "fast"}`, "unknown render mode"},
		{"malformed", `{"tileSize": }`, "parse config"},
		{"wrong type", `{"tileSize": "big"}`, "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyConfigKeepsUnsetFields(t *testing.T) {
	dl := NewDisplayList(NewRecordingBackend(),
		WithRenderMode(RenderPartial),
		WithTileSize(512),
		WithShowDirtyRegions(true),
		WithContentOffset(9, 9),
	)
	dl.ApplyConfig(Config{})
	if dl.RenderMode() != RenderPartial || dl.TileSize() != 512 {
		t.Errorf("zero fields changed settings: %+v", dl.Config())
	}
	// Booleans and the offset have no "unset" value.
	if dl.ShowDirtyRegions() {
		t.Error("ShowDirtyRegions should follow the config")
	}
	if x, y := dl.ContentOffset(); x != 0 || y != 0 {
		t.Errorf("ContentOffset = (%v, %v), want (0, 0)", x, y)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	src := NewDisplayList(NewRecordingBackend(),
		WithRenderMode(RenderTiled),
		WithZoomScale(0.25),
		WithBackgroundColor(RGBA(0.5, 0.25, 0, 1)),
	)
	dst := NewDisplayList(NewRecordingBackend())
	dst.ApplyConfig(src.Config())
	if diff := cmp.Diff(src.Config(), dst.Config()); diff != "" {
		t.Errorf("Config (-src +dst):\n%s", diff)
	}
}

func TestParseRenderMode(t *testing.T) {
	for _, m := range []RenderMode{RenderDirect, RenderPartial, RenderTiled} {
		got, err := ParseRenderMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseRenderMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseRenderMode("Tiled"); err == nil {
		t.Error("mode names are case-sensitive")
	}
}
