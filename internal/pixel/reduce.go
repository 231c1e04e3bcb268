package pixel

import (
	"errors"
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrEmptyImage = errors.New("pixel: empty source image")

const maxIterations = 20

// Reduce downsamples img to the configured grid by area averaging and
// clusters the grid cells into a palette of at most opts.Colors entries.
func Reduce(img image.Image, opts Options) (Art, Palette, error) {
	opts = opts.withDefaults()

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Art{}, nil, ErrEmptyImage
	}

	art := downsample(img, opts.GridW, opts.GridH)
	palette := clusterPalette(art.Cells, opts.Colors)
	return art, palette, nil
}

// downsample computes the exact area average of the source region covered
// by each grid cell. Edge blocks that cover source pixels partially weight
// them by the covered fraction.
func downsample(img image.Image, gw, gh int) Art {
	bounds := img.Bounds()
	sw := float64(bounds.Dx())
	sh := float64(bounds.Dy())

	cells := make([]RGB, 0, gw*gh)
	for cy := 0; cy < gh; cy++ {
		y0 := float64(cy) * sh / float64(gh)
		y1 := float64(cy+1) * sh / float64(gh)
		for cx := 0; cx < gw; cx++ {
			x0 := float64(cx) * sw / float64(gw)
			x1 := float64(cx+1) * sw / float64(gw)
			cells = append(cells, averageBlock(img, x0, y0, x1, y1))
		}
	}
	return Art{W: gw, H: gh, Cells: cells}
}

func averageBlock(img image.Image, x0, y0, x1, y1 float64) RGB {
	bounds := img.Bounds()
	var sumR, sumG, sumB, total float64

	for py := int(y0); float64(py) < y1; py++ {
		wy := overlap(float64(py), float64(py+1), y0, y1)
		if wy <= 0 {
			continue
		}
		for px := int(x0); float64(px) < x1; px++ {
			wx := overlap(float64(px), float64(px+1), x0, x1)
			if wx <= 0 {
				continue
			}
			r, g, b, _ := img.At(bounds.Min.X+px, bounds.Min.Y+py).RGBA()
			w := wx * wy
			sumR += float64(r>>8) * w
			sumG += float64(g>>8) * w
			sumB += float64(b>>8) * w
			total += w
		}
	}

	if total == 0 {
		return RGB{}
	}
	return RGB{
		R: clampByte(sumR / total),
		G: clampByte(sumG / total),
		B: clampByte(sumB / total),
	}
}

func overlap(a0, a1, b0, b1 float64) float64 {
	lo := a0
	if b0 > lo {
		lo = b0
	}
	hi := a1
	if b1 < hi {
		hi = b1
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func clampByte(v float64) uint8 {
	r := int(v + 0.5)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

type labPoint struct {
	l, a, b float64
}

func toLab(c RGB) labPoint {
	l, a, b := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Lab()
	return labPoint{l, a, b}
}

func fromLab(p labPoint) RGB {
	r, g, b := colorful.Lab(p.l, p.a, p.b).Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

func labDistSq(a, b labPoint) float64 {
	dl := a.l - b.l
	da := a.a - b.a
	db := a.b - b.b
	return dl*dl + da*da + db*db
}

// clusterPalette runs a seeded k-means over the cells in Lab space.
// Seeding takes centroids evenly spaced across the cells sorted by
// luminance, so the result carries no randomness at all.
func clusterPalette(cells []RGB, k int) Palette {
	n := len(cells)
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}

	points := make([]labPoint, n)
	for i, c := range cells {
		points[i] = toLab(c)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return points[order[a]].l < points[order[b]].l
	})

	centroids := make([]labPoint, k)
	for j := 0; j < k; j++ {
		pos := 0
		if k > 1 {
			pos = j * (n - 1) / (k - 1)
		}
		centroids[j] = points[order[pos]]
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	counts := make([]int, k)
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := labDistSq(p, centroids[0])
			for j := 1; j < k; j++ {
				// strict less keeps the lowest index on ties
				if d := labDistSq(p, centroids[j]); d < bestDist {
					best = j
					bestDist = d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]labPoint, k)
		for j := range counts {
			counts[j] = 0
		}
		for i, p := range points {
			j := assign[i]
			sums[j].l += p.l
			sums[j].a += p.a
			sums[j].b += p.b
			counts[j]++
		}
		for j := 0; j < k; j++ {
			// empty clusters keep their previous centroid
			if counts[j] > 0 {
				centroids[j] = labPoint{
					l: sums[j].l / float64(counts[j]),
					a: sums[j].a / float64(counts[j]),
					b: sums[j].b / float64(counts[j]),
				}
			}
		}
	}

	for j := range counts {
		counts[j] = 0
	}
	for _, j := range assign {
		counts[j]++
	}

	palette := make(Palette, 0, k)
	seen := make(map[RGB]int)
	for j := 0; j < k; j++ {
		if counts[j] == 0 {
			continue
		}
		c := fromLab(centroids[j])
		weight := float64(counts[j]) / float64(n)
		if prev, ok := seen[c]; ok {
			palette[prev].Weight += weight
			continue
		}
		seen[c] = len(palette)
		palette = append(palette, Entry{Color: c, Weight: weight})
	}

	sort.SliceStable(palette, func(a, b int) bool {
		return palette[a].Weight > palette[b].Weight
	})
	return palette
}
