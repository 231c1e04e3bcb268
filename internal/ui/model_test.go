package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixwatch/pixwatch/internal/pixel"
	"github.com/pixwatch/pixwatch/internal/player"
	"github.com/pixwatch/pixwatch/internal/state"
	"github.com/pixwatch/pixwatch/internal/track"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func tick(m Model, at time.Time) Model {
	next, _ := m.Update(TickMsg(at))
	return next.(Model)
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		m := NewModel(state.New(), nil, 0, nil)
		_, cmd := m.Update(key(k))
		require.NotNil(t, cmd, "key %q should quit", k)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestSyncOffsetKeys(t *testing.T) {
	m := NewModel(state.New(), nil, 0, nil)

	next, _ := m.Update(key("right"))
	m = next.(Model)
	assert.InDelta(t, 0.5, m.SyncOffset(), 1e-9)

	next, _ = m.Update(key("left"))
	m = next.(Model)
	next, _ = m.Update(key("left"))
	m = next.(Model)
	assert.InDelta(t, -0.5, m.SyncOffset(), 1e-9)

	next, _ = m.Update(key("0"))
	m = next.(Model)
	assert.Zero(t, m.SyncOffset())
}

func TestTickSchedulesNextTick(t *testing.T) {
	m := NewModel(state.New(), nil, 0, nil)
	_, cmd := m.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd, "render loop must keep ticking")
}

func TestViewWaitingWithoutPlayer(t *testing.T) {
	shared := state.New()
	m := NewModel(shared, nil, 0, func() []string { return []string{"spotify"} })

	m = tick(m, time.Now())
	out := m.View()
	assert.Contains(t, out, "waiting for a player")
	assert.Contains(t, out, "spotify")
}

func TestViewMainShowsTrackAndLyrics(t *testing.T) {
	shared := state.New()
	trk := track.Info{Title: "Song", Artist: "The Artist", Album: "The Album", DurationSecs: 200}

	now := time.Now()
	gen, _ := shared.Observe(player.Sample{
		Track: &trk, Position: 30, Rate: 1.0, Playing: true, Active: true, SampledAt: now,
	})
	require.True(t, shared.TryCommit(state.Result{
		Gen:     gen,
		Track:   trk,
		Art:     pixel.Placeholder(10, 10),
		Palette: pixel.DefaultPalette(),
	}))

	m := NewModel(shared, nil, 0, nil)
	m = tick(m, now)

	out := m.View()
	assert.Contains(t, out, "The Artist")
	assert.Contains(t, out, "no synced lyrics")
	assert.True(t, strings.Contains(out, "█") || strings.Contains(out, "░"),
		"progress bar expected in main view")
}
