// Package metadata enriches the displayed track with album details from a
// streaming catalog. Enrichment is optional; the rest of the app works the
// same without a configured provider.
package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Provider looks up album details for an artist/album pair.
type Provider interface {
	AlbumInfo(ctx context.Context, artist, album string) (*Album, error)
}

type Artist struct {
	ID   string
	Name string
}

// Album is the enrichment payload shown next to the track info.
type Album struct {
	ID           string
	Title        string
	Artists      []Artist
	Type         string
	ReleaseDate  string
	Tracks       int
	DurationSecs int
	AudioQuality string
	Popularity   float64
	CoverURL     string
}

func (a *Album) PrimaryArtist() string {
	if a == nil || len(a.Artists) == 0 {
		return "Unknown Artist"
	}
	return a.Artists[0].Name
}

func (a *Album) AllArtists() string {
	if a == nil || len(a.Artists) == 0 {
		return "Unknown Artist"
	}
	names := make([]string, len(a.Artists))
	for i, ar := range a.Artists {
		names[i] = ar.Name
	}
	return strings.Join(names, ", ")
}

// ParseISODuration converts an ISO-8601 duration such as "PT3M45S" to
// seconds. Malformed input yields 0.
func ParseISODuration(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "P")
	tIdx := strings.Index(s, "T")
	if tIdx < 0 {
		return 0
	}
	s = s[tIdx+1:]

	total := 0.0
	num := strings.Builder{}
	for _, r := range s {
		switch {
		case (r >= '0' && r <= '9') || r == '.':
			num.WriteRune(r)
		case r == 'H' || r == 'M' || r == 'S':
			v, err := strconv.ParseFloat(num.String(), 64)
			if err != nil {
				return 0
			}
			switch r {
			case 'H':
				total += v * 3600
			case 'M':
				total += v * 60
			case 'S':
				total += v
			}
			num.Reset()
		default:
			return 0
		}
	}
	if num.Len() > 0 {
		return 0
	}
	return int(total)
}

// FormatDuration renders seconds as M:SS or H:MM:SS.
func FormatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
