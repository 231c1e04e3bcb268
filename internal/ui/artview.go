package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pixwatch/pixwatch/internal/pixel"
)

// renderArtLines draws the reduced grid two rows per terminal line using
// the half block glyph, foreground for the top cell and background for the
// bottom one.
func renderArtLines(art pixel.Art) []string {
	if art.Empty() {
		return nil
	}

	lines := make([]string, 0, (art.H+1)/2)
	for y := 0; y < art.H; y += 2 {
		var line strings.Builder
		for x := 0; x < art.W; x++ {
			top := art.At(x, y)
			bottom := top
			if y+1 < art.H {
				bottom = art.At(x, y+1)
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Hex())).
				Background(lipgloss.Color(bottom.Hex()))
			line.WriteString(style.Render("▀"))
		}
		lines = append(lines, line.String())
	}
	return lines
}

// renderPaletteStrip shows the extracted colors with their share of the
// artwork, dominant first.
func renderPaletteStrip(palette pixel.Palette) string {
	if len(palette) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, entry := range palette {
		if i > 0 {
			sb.WriteString(" ")
		}
		swatch := lipgloss.NewStyle().
			Background(lipgloss.Color(entry.Color.Hex())).
			Render("  ")
		sb.WriteString(swatch)
		sb.WriteString(fmt.Sprintf(" %d%%", int(entry.Weight*100+0.5)))
	}
	return sb.String()
}
