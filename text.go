package arbor

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Font is a loaded typeface. Measurement goes through gg's font source; the
// raw bytes are kept so GPU backends can build their own face from them.
type Font struct {
	name   string
	data   []byte
	source *text.FontSource

	mu    sync.Mutex
	faces map[float64]text.Face
}

// LoadFont parses TTF or OTF data.
func LoadFont(name string, data []byte) (*Font, error) {
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("arbor: load font %q: %w", name, err)
	}
	return &Font{
		name:   name,
		data:   append([]byte(nil), data...),
		source: src,
		faces:  make(map[float64]text.Face),
	}, nil
}

var (
	defaultFontOnce sync.Once
	defaultFont     *Font
)

// DefaultFont returns the Go Regular typeface.
func DefaultFont() *Font {
	defaultFontOnce.Do(func() {
		f, err := LoadFont("Go Regular", goregular.TTF)
		if err != nil {
			panic(err)
		}
		defaultFont = f
	})
	return defaultFont
}

// Name returns the font's name.
func (f *Font) Name() string { return f.name }

// Data returns the font file bytes. The slice must not be modified.
func (f *Font) Data() []byte { return f.data }

// Face returns the gg face at size, creating it on first use.
func (f *Font) Face(size float64) text.Face {
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[size]; ok {
		return face
	}
	face := f.source.Face(size)
	f.faces[size] = face
	return face
}

// Metrics returns the vertical metrics at size.
func (f *Font) Metrics(size float64) text.Metrics {
	return f.Face(size).Metrics()
}

// Measure returns the advance width of s at size.
func (f *Font) Measure(s string, size float64) float64 {
	return f.Face(size).Advance(s)
}

// TextLine is one laid-out line of a TextRun.
type TextLine struct {
	Text     string
	X        float64 // left edge after alignment
	Baseline float64
	Width    float64
}

// TextRun is laid-out text ready to draw. Coordinates are in the owning
// node's local space with the first line's top at y = 0.
type TextRun struct {
	Font    *Font
	Size    float64
	Ascent  float64
	Descent float64
	Lines   []TextLine
}

// Bounds returns the box covering every line from ascent to descent.
func (r *TextRun) Bounds() Rect {
	var b Rect
	for i := range r.Lines {
		b = b.Union(r.lineBox(i))
	}
	return b
}

func (r *TextRun) lineBox(i int) Rect {
	l := &r.Lines[i]
	return Rect{X: l.X, Y: l.Baseline - r.Ascent, Width: l.Width, Height: r.Ascent + r.Descent}
}

// hit reports whether (x, y) falls on a line's box.
func (r *TextRun) hit(x, y float64) bool {
	for i := range r.Lines {
		if r.lineBox(i).Contains(x, y) {
			return true
		}
	}
	return false
}

// textLayout holds the inputs of a layout pass.
type textLayout struct {
	text        string
	font        *Font
	size        float64
	align       TextAlign
	wrapWidth   float64
	lineSpacing float64
}

// layout breaks the text into lines, wrapping on word boundaries when a
// wrap width is set, and aligns them within the wrap width or, without one,
// the widest line.
func (tl *textLayout) layout() *TextRun {
	font := tl.font
	if font == nil {
		font = DefaultFont()
	}
	size := tl.size
	if size <= 0 {
		size = 16
	}
	face := font.Face(size)
	m := face.Metrics()
	run := &TextRun{Font: font, Size: size, Ascent: m.Ascent, Descent: m.Descent}
	if tl.text == "" {
		return run
	}

	var lines []string
	if tl.wrapWidth > 0 {
		for _, w := range text.WrapText(tl.text, face, tl.wrapWidth, text.WrapWord) {
			lines = append(lines, strings.TrimRight(w.Text, " "))
		}
	} else {
		lines = strings.Split(strings.ReplaceAll(tl.text, "\r\n", "\n"), "\n")
	}

	spacing := tl.lineSpacing
	if spacing <= 0 {
		spacing = 1
	}
	lineHeight := m.LineHeight() * spacing

	var maxW float64
	run.Lines = make([]TextLine, len(lines))
	for i, s := range lines {
		w := face.Advance(s)
		maxW = math.Max(maxW, w)
		run.Lines[i] = TextLine{Text: s, Baseline: m.Ascent + float64(i)*lineHeight, Width: w}
	}

	alignW := maxW
	if tl.wrapWidth > 0 {
		alignW = tl.wrapWidth
	}
	for i := range run.Lines {
		l := &run.Lines[i]
		switch tl.align {
		case TextAlignCenter:
			l.X = (alignW - l.Width) / 2
		case TextAlignRight:
			l.X = alignW - l.Width
		}
	}
	return run
}
