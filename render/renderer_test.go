package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestRender_DefaultCard(t *testing.T) {
	req := require.New(t)
	r, err := New(Options{Pick: func(int) int { return 0 }})
	req.NoError(err)
	req.False(r.FontFallback())
	req.Equal(builtinFontName, r.faces.name)

	card, err := r.Render(context.Background(), "Shah Rukh Khan")
	req.NoError(err)

	img := decode(t, card.PNG)
	req.Equal(image.Rect(0, 0, 500, 500), img.Bounds())
	req.True(sameColor(DefaultPalette[0], img.At(5, 5)), "background")
	req.True(sameColor(white, img.At(100, 250)), "left frame edge")
	req.True(sameColor(white, img.At(399, 250)), "right frame edge")
	req.True(sameColor(white, img.At(250, 101)), "top frame edge")
}

func TestRender_DrawsTextAroundAnchors(t *testing.T) {
	r, err := New(Options{Pick: func(int) int { return 4 }})
	require.NoError(t, err)

	card, err := r.Render(context.Background(), "Madonna")
	require.NoError(t, err)
	img := decode(t, card.PNG)

	hasColor := func(c color.Color, y0, y1 int) bool {
		for y := y0; y < y1; y++ {
			for x := 150; x < 350; x++ {
				if sameColor(c, img.At(x, y)) {
					return true
				}
			}
		}
		return false
	}
	require.True(t, hasColor(white, 190, 210), "name near y=200")
	require.True(t, hasColor(yellow, 290, 310), "tagline near y=300")
}

func TestRender_MissingFontFallsBack(t *testing.T) {
	r, err := New(Options{FontPath: "/definitely/not/here.ttf"})
	require.NoError(t, err)
	require.True(t, r.FontFallback())
	require.Equal(t, builtinFontName, r.faces.name)
	require.NotNil(t, r.faces.font)

	_, err = r.Render(context.Background(), "Tom Cruise")
	require.NoError(t, err)
}

func TestRender_ShareQR(t *testing.T) {
	req := require.New(t)
	r, err := New(Options{
		ShareURL: "https://t.me/celebguess_bot",
		Pick:     func(int) int { return 1 },
	})
	req.NoError(err)
	req.NotNil(r.qr)

	card, err := r.Render(context.Background(), "Virat Kohli")
	req.NoError(err)
	img := decode(t, card.PNG)

	// The QR corner is black and white only, never the green background.
	b := r.qr.Bounds()
	x := 500 - b.Dx() - qrMargin + b.Dx()/2
	y := 500 - b.Dy() - qrMargin + b.Dy()/2
	req.False(sameColor(DefaultPalette[1], img.At(x, y)))
}

func TestRender_CancelledContext(t *testing.T) {
	r, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, "Aamir Khan")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRender_CustomSize(t *testing.T) {
	r, err := New(Options{Width: 320, Height: 240})
	require.NoError(t, err)

	card, err := r.Render(context.Background(), "Salman Khan")
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 320, 240), decode(t, card.PNG).Bounds())
}

// inkRows counts the rows in [y0, y1) that hold at least one pixel of c
// between the frame edges.
func inkRows(img image.Image, c color.Color, y0, y1 int) int {
	rows := 0
	for y := y0; y < y1; y++ {
		for x := 110; x < 390; x++ {
			if sameColor(c, img.At(x, y)) {
				rows++
				break
			}
		}
	}
	return rows
}

func TestRender_DefaultFontHonoursSize(t *testing.T) {
	render := func(size float64) int {
		r, err := New(Options{FontSize: size, Pick: func(int) int { return 2 }})
		require.NoError(t, err)
		card, err := r.Render(context.Background(), "Madonna")
		require.NoError(t, err)
		return inkRows(decode(t, card.PNG), white, 150, 250)
	}

	large, small := render(40), render(16)
	require.Greater(t, large, 20, "40px name is taller than the 13px bitmap face")
	require.Greater(t, large, small)
}
