// Package ui renders shared state snapshots at a fixed cadence. The model
// never fetches anything itself; every tick reads one snapshot, extrapolates
// the playback position, and redraws.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pixwatch/pixwatch/internal/config"
	"github.com/pixwatch/pixwatch/internal/state"
	"github.com/pixwatch/pixwatch/internal/terminal"
)

// TickMsg carries the wall clock time of one render tick.
type TickMsg time.Time

type Model struct {
	shared *state.SharedState
	caps   *terminal.Capabilities

	// listPlayers feeds the waiting screen hint; optional
	listPlayers func() []string

	snap       state.Snapshot
	now        time.Time
	syncOffset float64
	width      int
	height     int
	quitting   bool
}

func NewModel(shared *state.SharedState, caps *terminal.Capabilities, syncOffset float64, listPlayers func() []string) Model {
	return Model{
		shared:      shared,
		caps:        caps,
		listPlayers: listPlayers,
		syncOffset:  syncOffset,
		now:         time.Now(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(config.TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// SyncOffset reports the runtime lyric offset so it can be persisted.
func (m Model) SyncOffset() float64 {
	return m.syncOffset
}
