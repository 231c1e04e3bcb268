// Package pixel reduces album artwork to a small fixed grid of cells and a
// compact perceptual palette. Reduction is pure and deterministic: the same
// image and options always produce byte-identical output.
package pixel

import "fmt"

// RGB is one opaque display color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Art is a row-major grid of reduced artwork cells.
type Art struct {
	W, H  int
	Cells []RGB
}

func (a Art) At(x, y int) RGB {
	return a.Cells[y*a.W+x]
}

func (a Art) Empty() bool {
	return a.W == 0 || a.H == 0 || len(a.Cells) == 0
}

// Entry is one palette color with its share of the grid, in (0, 1].
type Entry struct {
	Color  RGB
	Weight float64
}

// Palette is ordered by descending weight; weights sum to 1.0.
type Palette []Entry

// Primary returns the dominant color, or fallback for an empty palette.
func (p Palette) Primary(fallback RGB) RGB {
	if len(p) == 0 {
		return fallback
	}
	return p[0].Color
}

// Options controls grid and palette dimensions. Zero values take defaults.
type Options struct {
	GridW  int
	GridH  int
	Colors int
}

func (o Options) withDefaults() Options {
	if o.GridW <= 0 {
		o.GridW = 30
	}
	if o.GridH <= 0 {
		o.GridH = 30
	}
	if o.Colors <= 0 {
		o.Colors = 5
	}
	return o
}
