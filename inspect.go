package arbor

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// LayerInfo is a snapshot of one layer and its subtree, shaped for JSON.
type LayerInfo struct {
	ID       uint32      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Kind     string      `json:"kind"`
	Content  string      `json:"content,omitempty"`
	Visible  bool        `json:"visible"`
	Alpha    float64     `json:"alpha"`
	Blend    string      `json:"blend,omitempty"`
	Bounds   Rect        `json:"bounds"`
	Filters  int         `json:"filters,omitempty"`
	Styles   int         `json:"styles,omitempty"`
	Mask     *LayerInfo  `json:"mask,omitempty"`
	MaskType string      `json:"maskType,omitempty"`
	Cached   int         `json:"cachedEntries,omitempty"`
	Children []LayerInfo `json:"children,omitempty"`
}

// Inspect returns a snapshot of n and its subtree. Bounds are in n's
// parent space.
func (n *Node) Inspect() LayerInfo {
	info := LayerInfo{
		ID:      n.ID,
		Name:    n.Name,
		Kind:    n.kind.String(),
		Visible: n.visible,
		Alpha:   n.alpha,
		Bounds:  n.localMatrix().MapRect(n.localBounds()),
		Filters: len(n.filters),
		Styles:  len(n.styles),
		Cached:  n.subtreeCacheEntries(),
	}
	if c := n.Content(); c != nil {
		info.Content = c.Kind().String()
	}
	if n.blend != BlendNormal {
		info.Blend = n.blend.String()
	}
	if n.mask != nil {
		m := n.mask.Inspect()
		info.Mask = &m
		info.MaskType = n.maskType.String()
	}
	for _, c := range n.children {
		if c.maskOwner != nil {
			continue
		}
		info.Children = append(info.Children, c.Inspect())
	}
	return info
}

// DumpTree writes n's subtree to w as indented JSON.
func (n *Node) DumpTree(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n.Inspect()); err != nil {
		return fmt.Errorf("arbor: dump tree: %w", err)
	}
	return nil
}

// CacheInfo describes what a DisplayList holds in its caches.
type CacheInfo struct {
	Mode           string           `json:"mode"`
	Buckets        []TileBucketInfo `json:"buckets,omitempty"`
	Tiles          int              `json:"tiles"`
	FreeTiles      int              `json:"freeTiles"`
	TileSlots      int              `json:"tileSlots"`
	Atlases        int              `json:"atlases"`
	SubtreeEntries int              `json:"subtreeEntries"`
	PooledSurfaces int              `json:"pooledSurfaces"`
}

// CacheInfo returns the current cache occupancy. Buckets are ordered by
// zoom key.
func (dl *DisplayList) CacheInfo() CacheInfo {
	info := CacheInfo{
		Mode:           dl.mode.String(),
		SubtreeEntries: countSubtreeEntries(dl.root),
		PooledSurfaces: dl.pool.idle(),
	}
	if tc := dl.tiles; tc != nil {
		for _, b := range tc.buckets {
			info.Buckets = append(info.Buckets, TileBucketInfo{Key: b.key, Zoom: b.zoom, Tiles: len(b.tiles)})
			info.Tiles += len(b.tiles)
		}
		slices.SortFunc(info.Buckets, func(a, b TileBucketInfo) int {
			switch {
			case a.Key < b.Key:
				return -1
			case a.Key > b.Key:
				return 1
			}
			return 0
		})
		info.FreeTiles = len(tc.free)
		info.TileSlots = tc.slots
		info.Atlases = len(tc.atlases)
	}
	return info
}

func countSubtreeEntries(n *Node) int {
	total := n.subtreeCacheEntries()
	for _, c := range n.children {
		total += countSubtreeEntries(c)
	}
	return total
}
