package player

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// FaceMetrics measures text through a font.Face, for word-wrapping lyrics
// with the same face they are drawn with.
type FaceMetrics struct {
	face font.Face
}

// NewFaceMetrics wraps a font face.
func NewFaceMetrics(face font.Face) *FaceMetrics {
	return &FaceMetrics{face: face}
}

// Size returns the rendered width of text and the face's line height.
func (m *FaceMetrics) Size(text string) (int, int) {
	w := font.MeasureString(m.face, text).Ceil()
	met := m.face.Metrics()
	h := (met.Ascent + met.Descent).Ceil()
	return w, h
}

// Ascent returns the face's ascent in pixels, for baseline placement.
func (m *FaceMetrics) Ascent() int {
	return m.face.Metrics().Ascent.Ceil()
}

// LoadFace loads a TrueType/OpenType font at the given size. An empty
// path falls back to the built-in bitmap face.
func LoadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	tt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	face, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
