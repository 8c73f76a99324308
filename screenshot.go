package arbor

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotReadable is returned when a surface cannot read back its pixels.
var ErrNotReadable = errors.New("arbor: surface pixels are not readable")

// EncodePNG writes the pixels of s to w as PNG. s must implement PixelReader.
func EncodePNG(w io.Writer, s Surface) error {
	pr, ok := s.(PixelReader)
	if !ok {
		return ErrNotReadable
	}
	if err := png.Encode(w, pr.ReadPixels()); err != nil {
		return fmt.Errorf("arbor: encode png: %w", err)
	}
	return nil
}

// SavePNG writes the pixels of s to a PNG file at path.
func SavePNG(s Surface, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("arbor: create %s: %w", path, err)
	}
	if err := EncodePNG(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Screenshot saves s into dir under a timestamped name built from label and
// returns the file's path. dir is created when missing.
func Screenshot(s Surface, dir, label string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("arbor: screenshot dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.png", time.Now().Format("20060102_150405"), sanitizeLabel(label))
	path := filepath.Join(dir, name)
	if err := SavePNG(s, path); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeLabel keeps letters, digits, '-' and '.', replacing anything else
// with '_'. An empty label becomes "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
