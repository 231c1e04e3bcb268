package pixel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// patternImage builds a deterministic multi-color source without any
// randomness so repeated reductions can be compared byte for byte.
func patternImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x*7 + y*13) % 256),
				G: uint8((x*31 + y*3) % 256),
				B: uint8((x + y*y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestReduceDeterministic(t *testing.T) {
	img := patternImage(120, 90)
	opts := Options{GridW: 30, GridH: 30, Colors: 5}

	art1, pal1, err := Reduce(img, opts)
	require.NoError(t, err)
	art2, pal2, err := Reduce(img, opts)
	require.NoError(t, err)

	assert.Equal(t, art1, art2)
	assert.Equal(t, pal1, pal2)
}

func TestReducePaletteInvariants(t *testing.T) {
	art, pal, err := Reduce(patternImage(64, 64), Options{Colors: 5})
	require.NoError(t, err)

	assert.Equal(t, 30, art.W)
	assert.Equal(t, 30, art.H)
	assert.Len(t, art.Cells, 900)

	require.NotEmpty(t, pal)
	assert.LessOrEqual(t, len(pal), 5)

	var sum float64
	for i, e := range pal {
		assert.Greater(t, e.Weight, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, pal[i-1].Weight, e.Weight)
		}
		sum += e.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestReduceTwoHalves(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	fillRect(img, 0, 0, 30, 60, color.RGBA{255, 0, 0, 255})
	fillRect(img, 30, 0, 60, 60, color.RGBA{0, 0, 255, 255})

	_, pal, err := Reduce(img, Options{GridW: 30, GridH: 30, Colors: 5})
	require.NoError(t, err)

	require.Len(t, pal, 2)
	assert.InDelta(t, 0.5, pal[0].Weight, 1e-9)
	assert.InDelta(t, 0.5, pal[1].Weight, 1e-9)

	got := map[RGB]bool{pal[0].Color: true, pal[1].Color: true}
	assert.True(t, got[RGB{R: 255}], "red cluster missing: %v", pal)
	assert.True(t, got[RGB{B: 255}], "blue cluster missing: %v", pal)
}

func TestReduceUniformImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	fillRect(img, 0, 0, 40, 40, color.RGBA{10, 200, 30, 255})

	art, pal, err := Reduce(img, Options{Colors: 5})
	require.NoError(t, err)

	require.Len(t, pal, 1)
	assert.InDelta(t, 1.0, pal[0].Weight, 1e-9)
	assert.Equal(t, RGB{10, 200, 30}, pal[0].Color)
	for _, c := range art.Cells {
		assert.Equal(t, RGB{10, 200, 30}, c)
	}
}

func TestDownsampleAveragesBlock(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 255, 255, 255})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 1, color.RGBA{255, 255, 255, 255})

	art := downsample(img, 1, 1)
	assert.Equal(t, RGB{128, 128, 128}, art.At(0, 0))
}

func TestDownsamplePartialEdgeWeighting(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(2, 0, color.RGBA{255, 0, 0, 255})

	// cell 0 covers pixel 0 fully and half of pixel 1
	art := downsample(img, 2, 1)
	assert.Equal(t, uint8(85), art.At(0, 0).R)
	assert.Equal(t, uint8(255), art.At(1, 0).R)
}

func TestReduceFewerColorsThanK(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	fillRect(img, 0, 0, 30, 10, color.RGBA{255, 0, 0, 255})
	fillRect(img, 0, 10, 30, 20, color.RGBA{0, 255, 0, 255})
	fillRect(img, 0, 20, 30, 30, color.RGBA{0, 0, 255, 255})

	_, pal, err := Reduce(img, Options{GridW: 30, GridH: 30, Colors: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pal), 3)
}

func TestReduceEmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	_, _, err := Reduce(img, Options{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestPlaceholderShape(t *testing.T) {
	art := Placeholder(30, 30)
	assert.False(t, art.Empty())
	assert.Len(t, art.Cells, 900)

	pal := DefaultPalette()
	var sum float64
	for _, e := range pal {
		sum += e.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRGBHex(t *testing.T) {
	assert.Equal(t, "#FF00AA", RGB{0xFF, 0x00, 0xAA}.Hex())
}
