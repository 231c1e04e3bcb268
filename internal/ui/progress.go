package ui

import (
	"math"
	"strings"
)

const (
	progressFilled = '█'
	progressEmpty  = '░'
)

// Bar renders a fixed-width progress bar. The fill rounds to the nearest
// cell and the percentage clamps to [0, 100].
type Bar struct {
	Width int
}

func (b Bar) Render(percentage float64) string {
	if b.Width <= 0 {
		return ""
	}
	if math.IsNaN(percentage) || percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	filled := int(math.Round(percentage / 100 * float64(b.Width)))
	if filled > b.Width {
		filled = b.Width
	}

	return strings.Repeat(string(progressFilled), filled) +
		strings.Repeat(string(progressEmpty), b.Width-filled)
}
