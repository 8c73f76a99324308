package arbor

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// AtlasRegion is a named sub-image of an atlas page.
type AtlasRegion struct {
	Page int
	// Frame is the packed pixels within the page.
	Frame image.Rectangle
	// Offset is where Frame sits inside the untrimmed sprite.
	OffsetX, OffsetY int
	// Source size of the sprite before trimming.
	SourceW, SourceH int
}

// Atlas holds page images and the regions packed into them.
type Atlas struct {
	Pages   []image.Image
	regions map[string]AtlasRegion
}

// Region returns the named region.
func (a *Atlas) Region(name string) (AtlasRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Len returns the number of regions.
func (a *Atlas) Len() int { return len(a.regions) }

// NewImageLayer creates an image layer showing the named region. Trimmed
// regions keep their untrimmed size: the frame is drawn at its offset.
// Unknown names and missing pages return nil.
func (a *Atlas) NewImageLayer(layerName, region string) *Node {
	r, ok := a.regions[region]
	if !ok || r.Page >= len(a.Pages) || a.Pages[r.Page] == nil {
		Logger().Warn("atlas region not found", slog.String("region", region))
		return nil
	}
	n := NewImageLayer(layerName, a.Pages[r.Page])
	b := n.Bitmap()
	b.SetSourceRect(r.Frame)
	b.offX, b.offY = float64(r.OffsetX), float64(r.OffsetY)
	return n
}

// LoadAtlas parses TexturePacker JSON, either the hash format (one "frames"
// object) or the array format ("textures", one entry per page). Rotated
// frames are rejected; pack with rotation disabled.
func LoadAtlas(data []byte, pages []image.Image) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("arbor: parse atlas: %w", err)
	}
	a := &Atlas{Pages: pages, regions: make(map[string]AtlasRegion)}
	switch {
	case probe.Textures != nil:
		var textures []struct {
			Frames map[string]packedFrame `json:"frames"`
		}
		if err := json.Unmarshal(probe.Textures, &textures); err != nil {
			return nil, fmt.Errorf("arbor: parse atlas textures: %w", err)
		}
		for i, t := range textures {
			if err := a.addFrames(t.Frames, i); err != nil {
				return nil, err
			}
		}
	case probe.Frames != nil:
		var frames map[string]packedFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, fmt.Errorf("arbor: parse atlas frames: %w", err)
		}
		if err := a.addFrames(frames, 0); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(`arbor: atlas has neither "frames" nor "textures"`)
	}
	return a, nil
}

type packedRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type packedFrame struct {
	Frame            packedRect `json:"frame"`
	Rotated          bool       `json:"rotated"`
	SpriteSourceSize packedRect `json:"spriteSourceSize"`
	SourceSize       struct {
		W int `json:"w"`
		H int `json:"h"`
	} `json:"sourceSize"`
}

func (a *Atlas) addFrames(frames map[string]packedFrame, page int) error {
	for name, f := range frames {
		if f.Rotated {
			return fmt.Errorf("arbor: atlas region %q is rotated", name)
		}
		a.regions[name] = AtlasRegion{
			Page:    page,
			Frame:   image.Rect(f.Frame.X, f.Frame.Y, f.Frame.X+f.Frame.W, f.Frame.Y+f.Frame.H),
			OffsetX: f.SpriteSourceSize.X,
			OffsetY: f.SpriteSourceSize.Y,
			SourceW: f.SourceSize.W,
			SourceH: f.SourceSize.H,
		}
	}
	return nil
}
