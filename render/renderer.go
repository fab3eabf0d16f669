// Package render draws the "who is this celebrity?" cards sent with every round.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/m3rciful/celebguess/core/logger"
	"github.com/m3rciful/celebguess/game"
)

const (
	defaultSize     = 500
	defaultFontSize = 40
	defaultTagline  = "Guess Me!"
	frameWidth      = 3
	qrMargin        = 8
)

// DefaultPalette holds the card background colours.
var DefaultPalette = []color.RGBA{
	{R: 41, G: 128, B: 185, A: 255},  // blue
	{R: 39, G: 174, B: 96, A: 255},   // green
	{R: 142, G: 68, B: 173, A: 255},  // purple
	{R: 230, G: 126, B: 34, A: 255},  // orange
	{R: 231, G: 76, B: 60, A: 255},   // red
}

var (
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	yellow = color.RGBA{R: 255, G: 255, A: 255}
)

// Options configures a Renderer. Zero values pick the defaults.
type Options struct {
	Width    int
	Height   int
	FontPath string
	FontSize float64
	Tagline  string
	// ShareURL, when set, is encoded as a QR code in the bottom-right corner.
	ShareURL string
	QRSize   int
	Palette  []color.RGBA
	// Pick returns an index in [0, n); defaults to math/rand/v2.
	Pick func(n int) int
}

// Renderer produces PNG cards. It is safe for concurrent use.
type Renderer struct {
	opts  Options
	faces faceSource
	qr    image.Image
}

var _ game.Renderer = (*Renderer)(nil)

// New resolves the font once and prepares the optional share QR code.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = defaultSize
	}
	if opts.Height <= 0 {
		opts.Height = defaultSize
	}
	if opts.FontSize <= 0 {
		opts.FontSize = defaultFontSize
	}
	if strings.TrimSpace(opts.Tagline) == "" {
		opts.Tagline = defaultTagline
	}
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.QRSize <= 0 {
		opts.QRSize = min(opts.Width, opts.Height) / 6
	}

	r := &Renderer{
		opts:  opts,
		faces: loadFace(opts.FontPath, opts.FontSize),
	}

	if url := strings.TrimSpace(opts.ShareURL); url != "" {
		q, err := qrcode.New(url, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("render: share qr: %w", err)
		}
		q.DisableBorder = true
		r.qr = q.Image(opts.QRSize)
	}

	logger.Info(context.Background(), "render", "render.ready",
		slog.String("font", r.faces.name),
		slog.Bool("font_fallback", r.faces.Fallback()),
		slog.Int("width", opts.Width),
		slog.Int("height", opts.Height),
		slog.Bool("share_qr", r.qr != nil),
	)
	return r, nil
}

// FontFallback reports whether the configured font could not be loaded.
func (r *Renderer) FontFallback() bool {
	return r.faces.Fallback()
}

// Render draws the card for name and encodes it as PNG.
func (r *Renderer) Render(ctx context.Context, name string) (game.Card, error) {
	if err := ctx.Err(); err != nil {
		return game.Card{}, err
	}

	face, err := r.faces.newFace()
	if err != nil {
		return game.Card{}, fmt.Errorf("render: font face: %w", err)
	}
	defer face.Close()

	w, h := r.opts.Width, r.opts.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := r.opts.Palette[r.opts.Pick(len(r.opts.Palette))]
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	drawCentered(img, face, name, white, w/2, h*2/5)
	drawCentered(img, face, r.opts.Tagline, yellow, w/2, h*3/5)
	strokeRect(img, image.Rect(w/5, h/5, w*4/5, h*4/5), frameWidth, white)

	if r.qr != nil {
		b := r.qr.Bounds()
		at := image.Pt(w-b.Dx()-qrMargin, h-b.Dy()-qrMargin)
		draw.Draw(img, b.Add(at), r.qr, b.Min, draw.Src)
	}

	if err := ctx.Err(); err != nil {
		return game.Card{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return game.Card{}, fmt.Errorf("render: encode png: %w", err)
	}
	return game.Card{PNG: buf.Bytes()}, nil
}

// drawCentered draws text with its visual centre at (cx, cy).
func drawCentered(dst draw.Image, face font.Face, text string, c color.Color, cx, cy int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	m := face.Metrics()
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - width/2,
		Y: fixed.I(cy) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(text)
}

// strokeRect outlines rect with a border of the given width drawn inwards.
func strokeRect(dst draw.Image, rect image.Rectangle, width int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+width),
		image.Rect(rect.Min.X, rect.Max.Y-width, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+width, rect.Max.Y),
		image.Rect(rect.Max.X-width, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}
