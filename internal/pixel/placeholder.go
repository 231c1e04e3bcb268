package pixel

// DefaultPalette is used while no artwork has been reduced yet.
func DefaultPalette() Palette {
	return Palette{
		{Color: RGB{0xBD, 0x93, 0xF9}, Weight: 0.4},
		{Color: RGB{0xFF, 0x79, 0xC6}, Weight: 0.3},
		{Color: RGB{0x8B, 0xE9, 0xFD}, Weight: 0.2},
		{Color: RGB{0x62, 0x72, 0xA4}, Weight: 0.1},
	}
}

// Placeholder builds a dark diagonal gradient grid shown when artwork is
// missing or failed to decode.
func Placeholder(w, h int) Art {
	if w <= 0 {
		w = 30
	}
	if h <= 0 {
		h = 30
	}
	from := RGB{0x28, 0x2A, 0x36}
	to := RGB{0x44, 0x47, 0x5A}

	cells := make([]RGB, 0, w*h)
	span := float64(w + h - 2)
	if span <= 0 {
		span = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := float64(x+y) / span
			cells = append(cells, RGB{
				R: lerpByte(from.R, to.R, t),
				G: lerpByte(from.G, to.G, t),
				B: lerpByte(from.B, to.B, t),
			})
		}
	}
	return Art{W: w, H: h, Cells: cells}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return clampByte(float64(a) + (float64(b)-float64(a))*t)
}
