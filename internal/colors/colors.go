// Package colors holds the theming helpers the renderer builds styles
// from. All blending happens in Lab space.
package colors

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

func parseHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// Gradient produces steps hex colors blending start to end in Lab space.
func Gradient(startHex, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}
	start := parseHex(startHex)
	end := parseHex(endHex)

	out := make([]string, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		out[i] = start.BlendLab(end, t).Clamped().Hex()
	}
	return out
}

// Blend mixes two hex colors at t in [0, 1].
func Blend(hex1, hex2 string, t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return parseHex(hex1).BlendLab(parseHex(hex2), t).Clamped().Hex()
}

// Interpolate picks a color at t in [0, 1] along a multi-stop ramp.
func Interpolate(stops []string, t float64) string {
	if len(stops) == 0 {
		return "#FFFFFF"
	}
	if len(stops) == 1 {
		return stops[0]
	}
	if t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[len(stops)-1]
	}

	scaled := t * float64(len(stops)-1)
	i := int(scaled)
	return Blend(stops[i], stops[i+1], scaled-float64(i))
}

// Lightness returns the Lab L component in [0, 1].
func Lightness(hex string) float64 {
	l, _, _ := parseHex(hex).Lab()
	return l
}

// Dim darkens a hex color toward black by amount in [0, 1].
func Dim(hex string, amount float64) string {
	return Blend(hex, "#000000", amount)
}

// RenderGradientText styles each rune of text with the matching gradient
// stop.
func RenderGradientText(text string, gradient []string, bold bool) string {
	if len(text) == 0 {
		return ""
	}
	if len(gradient) == 0 {
		return text
	}

	runes := []rune(text)
	var result strings.Builder

	for i, r := range runes {
		colorIdx := 0
		if len(runes) > 1 {
			colorIdx = i * (len(gradient) - 1) / (len(runes) - 1)
		}
		if colorIdx >= len(gradient) {
			colorIdx = len(gradient) - 1
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[colorIdx]))
		if bold {
			style = style.Bold(true)
		}
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}

// FormatTime renders seconds as M:SS.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
