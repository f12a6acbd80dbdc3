package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/use-agent/recipebox/models"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case CurrentLoadedMsg:
		return m.handleCurrentLoaded(msg)
	case CrawlDoneMsg:
		return m.handleCrawlDone(msg)
	case EntriesLoadedMsg:
		return m.handleEntriesLoaded(msg)
	case DeleteDoneMsg:
		return m.handleDeleteDone(msg)
	case StageMsg:
		if m.State == StateBusy {
			m.Status = msg.Status
		}
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}

	switch m.State {
	case StateLoading, StateBusy:
		return m, nil
	case StateConfirmDelete:
		pending := m.PendingDelete
		m.PendingDelete = ""
		if key != "y" && key != "Y" {
			m.State = StateIdle
			return m, nil
		}
		m.State = StateBusy
		m.Status = models.Busy("Deleting...")
		return m, deleteEntry(m.ctx, m.orch, pending)
	}

	switch key {
	case "c", "C":
		m.State = StateBusy
		m.Screen = ScreenCurrent
		m.Status = models.Busy(models.MsgResolvingTab)
		return m, crawl(m.ctx, m.orch, m.src)
	case "v", "V":
		m.State = StateBusy
		m.Status = models.Busy("Loading saved recipes...")
		return m, viewAll(m.ctx, m.orch)
	}

	if m.Screen != ScreenList {
		return m, nil
	}
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Entries)-1 {
			m.Cursor++
		}
	case "enter", " ":
		if e := m.selected(); e != nil {
			m.Expanded[e.Key] = !m.Expanded[e.Key]
		}
	case "d", "D":
		if e := m.selected(); e != nil {
			m.State = StateConfirmDelete
			m.PendingDelete = e.Key
		}
	case "esc", "backspace":
		m.Screen = ScreenCurrent
	}
	return m, nil
}

func (m Model) handleCurrentLoaded(msg CurrentLoadedMsg) (tea.Model, tea.Cmd) {
	m.State = StateIdle
	m.Status = msg.Outcome.Status
	m.Current = msg.Outcome.Summary
	return m, nil
}

// handleCrawlDone shows the new summary. A summary that failed to save is
// still shown, next to the storage error.
func (m Model) handleCrawlDone(msg CrawlDoneMsg) (tea.Model, tea.Cmd) {
	m.State = StateIdle
	m.Screen = ScreenCurrent
	m.Status = msg.Outcome.Status
	if msg.Outcome.Summary != nil {
		m.Current = msg.Outcome.Summary
	}
	if pe := msg.Outcome.Err(); pe != nil {
		slog.Warn("crawl did not complete", "code", pe.Code, "message", pe.Message)
	}
	return m, nil
}

func (m Model) handleEntriesLoaded(msg EntriesLoadedMsg) (tea.Model, tea.Cmd) {
	m.State = StateIdle
	m.Status = msg.Outcome.Status
	if msg.Outcome.Status.Kind == models.StatusError {
		return m, nil
	}
	m.Screen = ScreenList
	m.Entries = msg.Outcome.Entries
	m.Cursor = min(m.Cursor, max(len(m.Entries)-1, 0))
	return m, nil
}

func (m Model) handleDeleteDone(msg DeleteDoneMsg) (tea.Model, tea.Cmd) {
	m.State = StateIdle
	m.Status = msg.Outcome.Status
	if !msg.Outcome.Success {
		return m, nil
	}

	kept := make([]*models.StoredSummary, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Key != msg.Key {
			kept = append(kept, e)
		}
	}
	m.Entries = kept
	delete(m.Expanded, msg.Key)
	m.Cursor = min(m.Cursor, max(len(m.Entries)-1, 0))
	if m.Current != nil && m.Current.Key == msg.Key {
		m.Current = nil
	}
	return m, nil
}
