package arbor

import (
	"fmt"
	"log/slog"
	"time"
)

// globalDebug turns on invariant checks and per-frame stats logging.
var globalDebug bool

// SetDebugMode enables or disables debug mode. In debug mode broken internal
// invariants panic and every frame logs its FrameStats at Debug level.
func SetDebugMode(on bool) {
	globalDebug = on
}

// DebugMode reports whether debug mode is on.
func DebugMode() bool {
	return globalDebug
}

// debugAssert panics when cond is false and debug mode is on.
func debugAssert(cond bool, format string, args ...any) {
	if cond || !globalDebug {
		return
	}
	panic("arbor debug: " + fmt.Sprintf(format, args...))
}

// FrameStats describes the work done by the last Render call.
type FrameStats struct {
	Mode          RenderMode
	NodesDrawn    int
	DrawCalls     int
	DirtyRects    int
	FullRedraw    bool
	TilesRedrawn  int
	TilesRecycled int
	TilesRefined  int
	TilesFallback int
	CacheHits     int
	CacheMisses   int
	SkippedAllocs int
	FrameTime     time.Duration
}

// logFrame writes the frame's stats to the package logger.
func (s *FrameStats) logFrame() {
	if !globalDebug {
		return
	}
	Logger().Debug("frame",
		slog.String("mode", s.Mode.String()),
		slog.Int("nodes", s.NodesDrawn),
		slog.Int("drawCalls", s.DrawCalls),
		slog.Int("dirtyRects", s.DirtyRects),
		slog.Bool("full", s.FullRedraw),
		slog.Int("tilesRedrawn", s.TilesRedrawn),
		slog.Int("tilesRecycled", s.TilesRecycled),
		slog.Int("tilesRefined", s.TilesRefined),
		slog.Int("cacheHits", s.CacheHits),
		slog.Int("cacheMisses", s.CacheMisses),
		slog.Duration("time", s.FrameTime),
	)
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns when a node sits deeper than debugMaxTreeDepth.
func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("tree depth exceeds threshold",
			slog.Int("depth", depth), slog.Int("threshold", debugMaxTreeDepth), slog.String("node", n.Name))
	}
}

const debugMaxChildCount = 1000

// debugCheckChildCount warns when a node has more than debugMaxChildCount children.
func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("child count exceeds threshold",
			slog.String("node", n.Name), slog.Int("children", len(n.children)), slog.Int("threshold", debugMaxChildCount))
	}
}
