package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/m3rciful/celebguess/core/logger"
)

const builtinFontName = "goregular"

// faceSource builds a fresh font.Face per render; faces are not safe for concurrent use.
type faceSource struct {
	font *opentype.Font
	size float64
	name string
	// fallback is set when the configured font could not be used.
	fallback bool
}

// loadFace tries the configured TrueType/OpenType file once. An empty path
// or a failed load uses the embedded Go Regular font, so the size always
// applies. The fixed 7x13 bitmap face is the last resort.
func loadFace(path string, size float64) faceSource {
	path = strings.TrimSpace(path)
	if path != "" {
		f, err := parseFontFile(path)
		if err == nil {
			return faceSource{font: f, size: size, name: path}
		}
		logger.Warn(context.Background(), "render", "font.fallback",
			slog.String("path", path),
			slog.String("use", builtinFontName),
			slog.String("err", err.Error()),
		)
	}

	src := builtinFace(size)
	src.fallback = path != ""
	return src
}

func builtinFace(size float64) faceSource {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		logger.Warn(context.Background(), "render", "font.bitmap",
			slog.Float64("font_size", size),
			slog.String("note", "font_size is ignored by the bitmap face"),
			slog.String("err", err.Error()),
		)
		return faceSource{name: "basic", size: size, fallback: true}
	}
	return faceSource{font: f, size: size, name: builtinFontName}
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// Fallback reports whether the configured font could not be used.
func (s faceSource) Fallback() bool {
	return s.fallback
}

func (s faceSource) newFace() (font.Face, error) {
	if s.font == nil {
		return basicfont.Face7x13, nil
	}
	return opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    s.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
