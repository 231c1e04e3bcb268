// Package player samples the active MPRIS player over D-Bus. It exposes a
// single Sample call; change detection and position extrapolation happen in
// the state layer on top of these samples.
package player

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/pixwatch/pixwatch/internal/track"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."
)

// Sample is one observation of the player. Active is false when no player
// answered; the other fields are then zero.
type Sample struct {
	Track     *track.Info
	Position  float64 // seconds
	Rate      float64 // 0 while paused
	Playing   bool
	Active    bool
	SampledAt time.Time
}

type Service struct {
	bus     *dbus.Conn
	service string
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}
	return &Service{bus: bus, service: mprisService}, nil
}

// Sample reads the current track, position, and playback status. Any D-Bus
// failure yields an inactive sample rather than an error; an absent player
// is a normal state, not a fault.
func (s *Service) Sample() Sample {
	now := time.Now()

	trk, err := s.CurrentTrack()
	if err != nil {
		return Sample{SampledAt: now}
	}

	pos, err := s.position()
	if err != nil {
		pos = 0
	}

	playing := s.playbackStatus() == "Playing"
	rate := 0.0
	if playing {
		rate = s.playbackRate()
	}

	return Sample{
		Track:     trk,
		Position:  pos,
		Rate:      rate,
		Playing:   playing,
		Active:    true,
		SampledAt: now,
	}
}

func (s *Service) CurrentTrack() (*track.Info, error) {
	obj := s.bus.Object(s.service, mprisPath)

	prop, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	url := extractString(metadata, "xesam:url")
	info := &track.Info{
		Title:        extractString(metadata, "xesam:title"),
		Artist:       extractArtist(metadata, "xesam:artist"),
		Album:        extractString(metadata, "xesam:album"),
		ArtworkURL:   extractString(metadata, "mpris:artUrl"),
		TrackID:      extractString(metadata, "mpris:trackid"),
		DurationSecs: extractDurationSeconds(metadata, "mpris:length"),
		Source:       track.DetectSource(url),
	}

	if !info.IsValid() {
		return nil, fmt.Errorf("missing title or artist in metadata (title=%q, artist=%q)", info.Title, info.Artist)
	}
	return info, nil
}

func (s *Service) position() (float64, error) {
	obj := s.bus.Object(s.service, mprisPath)

	prop, err := obj.GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}
	if micros < 0 {
		return 0, nil
	}
	return float64(micros) / 1e6, nil
}

func (s *Service) playbackStatus() string {
	obj := s.bus.Object(s.service, mprisPath)

	prop, err := obj.GetProperty(mprisPlayerIface + ".PlaybackStatus")
	if err != nil {
		return ""
	}
	status, _ := prop.Value().(string)
	return status
}

func (s *Service) playbackRate() float64 {
	obj := s.bus.Object(s.service, mprisPath)

	prop, err := obj.GetProperty(mprisPlayerIface + ".Rate")
	if err != nil {
		return 1.0
	}
	rate, ok := prop.Value().(float64)
	if !ok || rate <= 0 {
		return 1.0
	}
	return rate
}

// ListPlayers returns the MPRIS bus names currently registered, for the
// waiting screen hint.
func (s *Service) ListPlayers() ([]string, error) {
	var names []string
	err := s.bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, strings.TrimPrefix(name, mprisPrefix))
		}
	}
	sort.Strings(players)
	return players, nil
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	text, _ := variant.Value().(string)
	return text
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractDurationSeconds(metadata map[string]dbus.Variant, key string) float64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return float64(typed) / 1e6
	case uint64:
		return float64(typed) / 1e6
	default:
		return 0
	}
}
