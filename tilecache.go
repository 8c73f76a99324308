package arbor

import (
	"log/slog"
	"math"
	"slices"
)

// atlasMaxSize bounds the edge of one tile atlas surface.
const atlasMaxSize = 2048

// tile is one cached square of zoomed content. Its pixels live in a slot of
// a tile atlas.
type tile struct {
	tx, ty   int
	slot     int
	lastUsed uint64 // frame the tile was last composited
}

// tileKey packs grid coordinates into a map key.
func tileKey(tx, ty int) int64 {
	return int64(tx)<<32 | int64(uint32(ty))
}

// tileBucket is the grid of tiles cached for one quantized zoom.
type tileBucket struct {
	key   int64
	zoom  float64
	tiles map[int64]*tile
}

func (b *tileBucket) get(tx, ty int) *tile {
	return b.tiles[tileKey(tx, ty)]
}

// tileCache stores tiles for every zoom bucket in shared atlas surfaces.
// Slots are numbered globally: slot s lives in atlas s/perAtlas. Freed slots
// go to a free list kept sorted, so tiles allocated together sit side by side
// and composite in runs.
type tileCache struct {
	backend  Backend
	size     int // tile edge in pixels
	cols     int // slots per atlas row
	perAtlas int
	atlases  []Surface
	slots    int   // slots handed out so far
	free     []int // sorted
	maxTiles int
	buckets  map[int64]*tileBucket

	lastKey int64 // zoom bucket of the previous frame
	stable  int   // consecutive frames lastKey has held
}

func newTileCache(backend Backend, size, maxTiles int) *tileCache {
	cols := int(math.Ceil(math.Sqrt(float64(maxTiles))))
	cols = min(max(cols, 1), max(atlasMaxSize/size, 1))
	return &tileCache{
		backend:  backend,
		size:     size,
		cols:     cols,
		perAtlas: cols * cols,
		maxTiles: maxTiles,
		buckets:  make(map[int64]*tileBucket),
	}
}

// minTileCount is the number of tiles covering a w by h viewport at any
// offset: one extra row and column for the half-tile margin.
func minTileCount(w, h, size int) int {
	return (ceilDiv(w, size) + 1) * (ceilDiv(h, size) + 1)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// bucket returns the bucket for key, creating it when asked.
func (tc *tileCache) bucket(key int64, zoom float64, create bool) *tileBucket {
	b := tc.buckets[key]
	if b == nil && create {
		b = &tileBucket{key: key, zoom: zoom, tiles: make(map[int64]*tile)}
		tc.buckets[key] = b
	}
	return b
}

// slotOrigin returns the atlas and pixel origin of slot s.
func (tc *tileCache) slotOrigin(s int) (atlas int, x, y float64) {
	atlas = s / tc.perAtlas
	local := s % tc.perAtlas
	col, row := local%tc.cols, local/tc.cols
	return atlas, float64(col * tc.size), float64(row * tc.size)
}

// atlasFor returns the surface holding slot s, allocating it on first use.
func (tc *tileCache) atlasFor(s int) (Surface, error) {
	i := s / tc.perAtlas
	for len(tc.atlases) <= i {
		edge := tc.cols * tc.size
		a, err := tc.backend.NewSurface(edge, edge)
		if err != nil {
			return nil, err
		}
		tc.atlases = append(tc.atlases, a)
		Logger().Debug("tile atlas allocated", slog.Int("index", len(tc.atlases)-1), slog.Int("edge", edge))
	}
	return tc.atlases[i], nil
}

// total returns the number of tiles held by all buckets.
func (tc *tileCache) total() int {
	return tc.slots - len(tc.free)
}

// releaseSlot returns slot s to the free list.
func (tc *tileCache) releaseSlot(s int) {
	i, _ := slices.BinarySearch(tc.free, s)
	tc.free = slices.Insert(tc.free, i, s)
}

// recycle removes t from b and frees its slot.
func (tc *tileCache) recycle(b *tileBucket, t *tile) {
	delete(b.tiles, tileKey(t.tx, t.ty))
	tc.releaseSlot(t.slot)
	if len(b.tiles) == 0 {
		delete(tc.buckets, b.key)
	}
}

// clearAll moves every tile of every bucket to the free list.
func (tc *tileCache) clearAll() int {
	n := 0
	for _, b := range tc.buckets {
		for _, t := range b.tiles {
			tc.releaseSlot(t.slot)
			n++
		}
	}
	clear(tc.buckets)
	return n
}

// allocate returns a slot for a new tile in cur. It takes the lowest free
// slot, then a fresh one while under budget, then evicts: first from other
// buckets, farthest zoom first, then tiles of cur outside keep.
func (tc *tileCache) allocate(cur *tileBucket, keep func(t *tile) bool) (int, bool) {
	if len(tc.free) > 0 {
		s := tc.free[0]
		tc.free = tc.free[1:]
		return s, true
	}
	if tc.slots < tc.maxTiles {
		s := tc.slots
		tc.slots++
		return s, true
	}
	if victim, b := tc.evictionVictim(cur, keep); victim != nil {
		delete(b.tiles, tileKey(victim.tx, victim.ty))
		if len(b.tiles) == 0 && b != cur {
			delete(tc.buckets, b.key)
		}
		return victim.slot, true
	}
	return 0, false
}

func (tc *tileCache) evictionVictim(cur *tileBucket, keep func(t *tile) bool) (*tile, *tileBucket) {
	var far *tileBucket
	for _, b := range tc.buckets {
		if b == cur || len(b.tiles) == 0 {
			continue
		}
		if far == nil || zoomDistance(b.zoom, cur.zoom) > zoomDistance(far.zoom, cur.zoom) {
			far = b
		}
	}
	if far != nil {
		return oldestTile(far, nil), far
	}
	if t := oldestTile(cur, keep); t != nil {
		return t, cur
	}
	return nil, nil
}

// oldestTile returns the least recently used tile of b not kept by keep.
func oldestTile(b *tileBucket, keep func(t *tile) bool) *tile {
	var best *tile
	for _, t := range b.tiles {
		if keep != nil && keep(t) {
			continue
		}
		if best == nil || t.lastUsed < best.lastUsed ||
			(t.lastUsed == best.lastUsed && t.slot < best.slot) {
			best = t
		}
	}
	return best
}

func zoomDistance(a, b float64) float64 {
	return math.Abs(math.Log(a / b))
}

// dispose releases every atlas.
func (tc *tileCache) dispose() {
	for _, a := range tc.atlases {
		a.Dispose()
	}
	tc.atlases = nil
	clear(tc.buckets)
	tc.free = nil
	tc.slots = 0
}

// TileBucketInfo describes one zoom bucket of the tile cache.
type TileBucketInfo struct {
	Key   int64   `json:"key"`
	Zoom  float64 `json:"zoom"`
	Tiles int     `json:"tiles"`
}

// dropTiles disposes the tile cache; the next Tiled render starts over.
func (dl *DisplayList) dropTiles() {
	if dl.tiles != nil {
		dl.tiles.dispose()
		dl.tiles = nil
	}
}

// clearTiles returns every tile to the free list, keeping the atlases.
func (dl *DisplayList) clearTiles() {
	if dl.tiles != nil {
		dl.tiles.clearAll()
	}
}
