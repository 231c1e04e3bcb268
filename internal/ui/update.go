package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const syncStep = 0.5

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		m.snap = m.shared.Snapshot()
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left":
		m.syncOffset -= syncStep
	case "right":
		m.syncOffset += syncStep
	case "0":
		m.syncOffset = 0
	}

	return m, nil
}
