package arbor

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func redSquare(t *testing.T) Surface {
	t.Helper()
	sb := NewSoftwareBackend()
	s := mustSurface(t, sb, 8, 8)
	s.Canvas().Clear(colorRed)
	return s
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, redSquare(t)); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := img.Bounds().Dx(); got != 8 {
		t.Errorf("width = %d, want 8", got)
	}
	r, g, b, a := img.At(3, 3).RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("pixel = (%d, %d, %d, %d), want opaque red", r, g, b, a)
	}
}

func TestEncodePNGNotReadable(t *testing.T) {
	s := mustSurface(t, NewRecordingBackend(), 4, 4)
	if err := EncodePNG(&bytes.Buffer{}, s); !errors.Is(err, ErrNotReadable) {
		t.Errorf("err = %v, want ErrNotReadable", err)
	}
}

func TestScreenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	path, err := Screenshot(redSquare(t), dir, "after zoom/2")
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("saved to %s, want inside %s", path, dir)
	}
	if !strings.HasSuffix(path, "_after_zoom_2.png") {
		t.Errorf("path = %s, want sanitized label suffix", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestSavePNGBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "x.png")
	if err := SavePNG(redSquare(t), path); err == nil {
		t.Error("SavePNG into a missing directory should fail")
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := map[string]string{
		"":           "unlabeled",
		"  ":         "unlabeled",
		"tiles-v1.2": "tiles-v1.2",
		"a b/c":      "a_b_c",
		" padded ":   "padded",
		"zoom@2x!":   "zoom_2x_",
	}
	for in, want := range tests {
		if got := sanitizeLabel(in); got != want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
