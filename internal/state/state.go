// Package state holds everything the renderer and the fetch pipeline share.
// One mutex guards it all; critical sections only copy fields, never touch
// the network or disk.
package state

import (
	"image"
	"sync"
	"time"

	"github.com/pixwatch/pixwatch/internal/lyrics"
	"github.com/pixwatch/pixwatch/internal/metadata"
	"github.com/pixwatch/pixwatch/internal/pixel"
	"github.com/pixwatch/pixwatch/internal/player"
	"github.com/pixwatch/pixwatch/internal/track"
)

// Generation increments on every observed track identity change. A fetch
// carries the generation it was started for; results from an older
// generation are discarded at commit time.
type Generation uint64

// Result is the displayable outcome of one fetch pipeline run.
type Result struct {
	Gen     Generation
	Track   track.Info
	Art     pixel.Art
	Palette pixel.Palette
	Image   image.Image // decoded source artwork, nil when unavailable
	Lyrics  *lyrics.Index
	Album   *metadata.Album
}

// Snapshot is a point-in-time copy for the renderer.
type Snapshot struct {
	Gen    Generation
	Sample player.Sample
	Result *Result // nil until the first commit for this generation
}

// PositionAt extrapolates the playback position from the last sample.
// Paused playback (rate 0) freezes the position; the result is clamped to
// [0, duration].
func (s Snapshot) PositionAt(now time.Time) float64 {
	if !s.Sample.Active {
		return 0
	}

	elapsed := now.Sub(s.Sample.SampledAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	pos := s.Sample.Position + elapsed*s.Sample.Rate
	if pos < 0 {
		pos = 0
	}
	if s.Sample.Track != nil {
		if dur := s.Sample.Track.DurationSecs; dur > 0 && pos > dur {
			pos = dur
		}
	}
	return pos
}

type SharedState struct {
	mu     sync.Mutex
	gen    Generation
	key    string
	sample player.Sample
	result *Result
}

func New() *SharedState {
	return &SharedState{}
}

// Observe records the latest sample. When the track identity differs from
// the previous observation the generation is bumped and the stale result is
// cleared; the renderer shows placeholders until the new fetch commits.
func (s *SharedState) Observe(sample player.Sample) (Generation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newKey := ""
	if sample.Active {
		newKey = sample.Track.Key()
	}

	changed := newKey != s.key
	if changed {
		s.gen++
		s.key = newKey
		s.result = nil
	}
	s.sample = sample
	return s.gen, changed
}

// TryCommit installs res only if its generation is still current.
func (s *SharedState) TryCommit(res Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Gen != s.gen {
		return false
	}
	s.result = &res
	return true
}

func (s *SharedState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Gen:    s.gen,
		Sample: s.sample,
		Result: s.result,
	}
}

// Generation returns the current generation without taking a snapshot.
func (s *SharedState) Generation() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
