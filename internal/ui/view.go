package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"github.com/pixwatch/pixwatch/internal/colors"
	"github.com/pixwatch/pixwatch/internal/metadata"
	"github.com/pixwatch/pixwatch/internal/pixel"
	"github.com/pixwatch/pixwatch/internal/terminal"
)

const (
	progressWidth = 30
	lyricsWindow  = 5
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.snap.Sample.Active || m.snap.Sample.Track == nil {
		return m.renderWaiting()
	}
	return m.renderMain()
}

func (m Model) renderWaiting() string {
	banner := figure.NewFigure("pixwatch", "", true).String()

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("#BD93F9")).
		Render(banner))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4")).
		Render("waiting for a player..."))
	sb.WriteString("\n")

	if m.listPlayers != nil {
		if players := m.listPlayers(); len(players) > 0 {
			sb.WriteString("\navailable players:\n")
			for _, p := range players {
				sb.WriteString("  • " + p + "\n")
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("#44475A")).
		Render("q to quit"))
	return sb.String()
}

func (m Model) renderMain() string {
	snap := m.snap
	trk := snap.Sample.Track

	art := pixel.Placeholder(0, 0)
	palette := pixel.DefaultPalette()
	var album *metadata.Album
	if snap.Result != nil {
		art = snap.Result.Art
		if len(snap.Result.Palette) > 0 {
			palette = snap.Result.Palette
		}
		album = snap.Result.Album
	}

	artPanel := m.renderArtPanel(art, palette)
	infoPanel := m.renderInfoPanel(trk.Title, trk.Artist, trk.Album, trk.Source, album, palette)

	body := lipgloss.JoinHorizontal(lipgloss.Top, artPanel, "  ", infoPanel)
	return body + "\n"
}

func (m Model) renderArtPanel(art pixel.Art, palette pixel.Palette) string {
	var lines []string

	if m.caps != nil && m.caps.SupportsKittyGraphics && m.snap.Result != nil && m.snap.Result.Image != nil {
		cols := art.W
		rows := (art.H + 1) / 2
		if encoded := terminal.EncodeImageForKitty(m.snap.Result.Image, cols, rows); encoded != "" {
			lines = append(lines, encoded)
		}
	}
	if len(lines) == 0 {
		lines = renderArtLines(art)
	}

	lines = append(lines, "", renderPaletteStrip(palette))
	return strings.Join(lines, "\n")
}

func (m Model) renderInfoPanel(title, artist, albumName, source string, album *metadata.Album, palette pixel.Palette) string {
	primary := palette.Primary(pixel.RGB{R: 0xBD, G: 0x93, B: 0xF9}).Hex()
	secondary := primary
	if len(palette) > 1 {
		secondary = palette[1].Color.Hex()
	}
	gradient := colors.Gradient(primary, secondary, 12)
	dim := colors.Dim(primary, 0.55)

	var sb strings.Builder
	sb.WriteString(colors.RenderGradientText(title, gradient, true))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(primary)).Render(artist))
	sb.WriteString("\n")

	albumLine := albumName
	if source != "" && source != "Unknown" {
		albumLine = fmt.Sprintf("%s  [%s]", albumName, source)
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(dim)).Render(albumLine))
	sb.WriteString("\n")

	if album != nil {
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(dim)).Render(enrichmentLine(album)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderProgress(palette))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderLyrics(primary, dim))

	return sb.String()
}

// enrichmentLine condenses the album metadata into one display row.
func enrichmentLine(album *metadata.Album) string {
	var parts []string
	if album.AudioQuality != "" {
		parts = append(parts, album.AudioQuality)
	}
	if len(album.ReleaseDate) >= 4 {
		parts = append(parts, album.ReleaseDate[:4])
	}
	if album.Tracks > 0 {
		parts = append(parts, fmt.Sprintf("%d tracks", album.Tracks))
	}
	if album.DurationSecs > 0 {
		parts = append(parts, metadata.FormatDuration(album.DurationSecs))
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderProgress(palette pixel.Palette) string {
	pos := m.snap.PositionAt(m.now)
	duration := m.snap.Sample.Track.DurationSecs

	pct := 0.0
	if duration > 0 {
		pct = pos / duration * 100
	}

	stops := make([]string, 0, len(palette))
	for _, e := range palette {
		stops = append(stops, e.Color.Hex())
	}
	barColor := colors.Interpolate(stops, pct/100)

	bar := lipgloss.NewStyle().
		Foreground(lipgloss.Color(barColor)).
		Render(Bar{Width: progressWidth}.Render(pct))

	status := ""
	if !m.snap.Sample.Playing {
		status = "  ⏸"
	}
	return fmt.Sprintf("%s %s %s%s",
		colors.FormatTime(pos), bar, colors.FormatTime(duration), status)
}

// renderLyrics shows a small window of lines centered on the active one.
func (m Model) renderLyrics(primary, dim string) string {
	if m.snap.Result == nil || m.snap.Result.Lyrics.Empty() {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(dim)).Render("♪ no synced lyrics")
	}

	ix := m.snap.Result.Lyrics
	pos := m.snap.PositionAt(m.now) + m.syncOffset
	current := ix.ActiveIndex(time.Duration(pos * float64(time.Second)))

	lines := ix.Lines()
	start := current - lyricsWindow/2
	if start < 0 {
		start = 0
	}
	end := start + lyricsWindow
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		if i == current {
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(primary)).
				Bold(true).
				Render("▸ " + lines[i].Text))
		} else {
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(dim)).
				Render("  " + lines[i].Text))
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
