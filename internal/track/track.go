package track

import "strings"

// Info identifies the currently playing track as reported by the player.
type Info struct {
	Title        string
	Artist       string
	Album        string
	DurationSecs float64
	ArtworkURL   string
	TrackID      string
	Source       string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != "" && t.Artist != ""
}

func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.TrackID != "" && other.TrackID != "" {
		return t.TrackID == other.TrackID
	}
	return t.Title == other.Title && t.Artist == other.Artist && t.Album == other.Album
}

// Key returns a stable identity string used for change detection and
// cache key derivation. Empty for an invalid track.
func (t *Info) Key() string {
	if !t.IsValid() {
		return ""
	}
	if t.TrackID != "" {
		return t.TrackID
	}
	return strings.ToLower(t.Artist) + "|" + strings.ToLower(t.Title) + "|" + strings.ToLower(t.Album)
}

// DetectSource labels the streaming service from the track url or id.
func DetectSource(url string) string {
	u := strings.ToLower(url)
	switch {
	case u == "":
		return "Unknown"
	case strings.Contains(u, "tidal"):
		return "Tidal"
	case strings.Contains(u, "spotify"):
		return "Spotify"
	case strings.Contains(u, "youtube"):
		return "YouTube"
	case strings.Contains(u, "soundcloud"):
		return "SoundCloud"
	case strings.Contains(u, "deezer"):
		return "Deezer"
	case strings.Contains(u, "apple"):
		return "Apple Music"
	case strings.Contains(u, "bandcamp"):
		return "Bandcamp"
	case strings.HasPrefix(u, "file://"):
		return "Local File"
	default:
		return "Web"
	}
}
