package arbor

import (
	"math"
	"strings"
	"testing"
)

func TestTextLayerMeasures(t *testing.T) {
	n := NewTextLayer("t", "Hello", nil, 16)
	run := n.TextBlock().Run()
	if len(run.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(run.Lines))
	}
	want := DefaultFont().Measure("Hello", 16)
	if want <= 0 || math.Abs(run.Lines[0].Width-want) > 1e-9 {
		t.Errorf("Width = %v, want %v", run.Lines[0].Width, want)
	}
	if got := n.Bounds(nil, false); got != run.Bounds() || got.IsEmpty() {
		t.Errorf("Bounds = %v, run bounds %v", got, run.Bounds())
	}
}

func TestTextLines(t *testing.T) {
	n := NewTextLayer("t", "a\r\nlonger line", nil, 20)
	run := n.TextBlock().Run()
	if len(run.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(run.Lines))
	}
	if run.Lines[1].Baseline <= run.Lines[0].Baseline {
		t.Error("second line should sit below the first")
	}

	n.TextBlock().SetLineSpacing(2)
	wide := n.TextBlock().Run()
	gap1 := run.Lines[1].Baseline - run.Lines[0].Baseline
	gap2 := wide.Lines[1].Baseline - wide.Lines[0].Baseline
	if math.Abs(gap2-2*gap1) > 1e-9 {
		t.Errorf("line gap = %v, want %v", gap2, 2*gap1)
	}
}

func TestTextAlign(t *testing.T) {
	n := NewTextLayer("t", "a\nwide line", nil, 16)
	tb := n.TextBlock()
	tb.SetAlign(TextAlignRight)
	run := tb.Run()
	short, long := run.Lines[0], run.Lines[1]
	if long.X != 0 {
		t.Errorf("widest line X = %v, want 0", long.X)
	}
	if math.Abs(short.X+short.Width-long.Width) > 1e-9 {
		t.Errorf("right edges differ: %v vs %v", short.X+short.Width, long.Width)
	}

	tb.SetAlign(TextAlignCenter)
	run = tb.Run()
	if math.Abs(run.Lines[0].X-(long.Width-short.Width)/2) > 1e-9 {
		t.Errorf("centered X = %v", run.Lines[0].X)
	}
}

func TestTextWrap(t *testing.T) {
	n := NewTextLayer("t", "one two three four", nil, 16)
	tb := n.TextBlock()
	tb.SetWrapWidth(DefaultFont().Measure("one two", 16) + 1)
	run := tb.Run()
	if len(run.Lines) < 2 {
		t.Fatalf("lines = %d, want wrapping", len(run.Lines))
	}
	for _, l := range run.Lines {
		if l.Text == "" || strings.HasSuffix(l.Text, " ") {
			t.Errorf("line %q should be trimmed and non-empty", l.Text)
		}
	}
}

func TestTextChangesInvalidate(t *testing.T) {
	p := NewLayer("p")
	n := NewTextLayer("t", "a", nil, 16)
	p.AddChild(n)
	clearAllDirty(p)

	n.TextBlock().SetText("a")
	if n.dirty != 0 {
		t.Error("same text should not dirty the layer")
	}
	before := n.Bounds(nil, false)
	n.TextBlock().SetText("a much longer string")
	if !n.dirty.has(dirtyContent) || !p.dirty.has(dirtyDescendents) {
		t.Error("SetText did not invalidate")
	}
	if after := n.Bounds(nil, false); after.Width <= before.Width {
		t.Errorf("bounds did not grow: %v -> %v", before, after)
	}
}

func TestTextHit(t *testing.T) {
	n := NewTextLayer("t", "Hello", nil, 16)
	b := n.Bounds(nil, false)
	if !n.HitTestPoint(b.X+b.Width/2, b.Y+b.Height/2, true) {
		t.Error("center of the text box should hit")
	}
	if n.HitTestPoint(b.Right()+5, b.Y, true) {
		t.Error("point past the text should miss")
	}
}

func TestLoadFontRejectsGarbage(t *testing.T) {
	if _, err := LoadFont("junk", []byte("not a font")); err == nil {
		t.Error("LoadFont accepted garbage")
	}
}

func TestEmptyText(t *testing.T) {
	n := NewTextLayer("t", "", nil, 16)
	if got := n.Bounds(nil, false); !got.IsEmpty() {
		t.Errorf("empty text Bounds = %v", got)
	}
}
