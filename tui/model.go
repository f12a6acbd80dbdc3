// Package tui is the terminal popup: it shows the saved summary for the
// active page and lets the user crawl it, browse every saved summary and
// delete entries.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/tab"
)

// State is the popup's interaction state.
type State string

const (
	StateLoading       State = "loading"
	StateIdle          State = "idle"
	StateBusy          State = "busy"
	StateConfirmDelete State = "confirm_delete"
)

// Screen is what the body of the popup shows.
type Screen string

const (
	ScreenCurrent Screen = "current"
	ScreenList    Screen = "list"
)

const defaultWidth = 64

// Model is the popup state.
type Model struct {
	ctx  context.Context
	orch *pipeline.Orchestrator
	src  tab.Source
	loc  *time.Location

	State  State
	Screen Screen
	Status models.UiStatus

	// Current is the saved summary for the active page, if any.
	Current *models.StoredSummary

	// Entries is the view-all list, newest first.
	Entries  []*models.StoredSummary
	Cursor   int
	Expanded map[string]bool

	// PendingDelete is the key awaiting confirmation.
	PendingDelete string

	Width int
}

// NewModel creates the popup model. loc is used for "Saved on:" times.
func NewModel(ctx context.Context, orch *pipeline.Orchestrator, src tab.Source, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{
		ctx:      ctx,
		orch:     orch,
		src:      src,
		loc:      loc,
		State:    StateLoading,
		Screen:   ScreenCurrent,
		Expanded: make(map[string]bool),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return loadCurrent(m.ctx, m.orch, m.src)
}

// Run opens the popup and blocks until the user quits. Stage transitions
// of a running crawl are forwarded to the screen.
func Run(ctx context.Context, orch *pipeline.Orchestrator, src tab.Source, loc *time.Location) error {
	var p *tea.Program
	observed := orch.Observed(func(stage models.Stage, status models.UiStatus) {
		p.Send(StageMsg{Stage: stage, Status: status})
	})
	p = tea.NewProgram(NewModel(ctx, observed, src, loc), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// selected returns the entry under the cursor.
func (m Model) selected() *models.StoredSummary {
	if m.Cursor < 0 || m.Cursor >= len(m.Entries) {
		return nil
	}
	return m.Entries[m.Cursor]
}

func (m Model) headerWidth() int {
	w := m.Width
	if w <= 0 {
		w = defaultWidth
	}
	return max(w-6, 10)
}

// truncate shortens s to at most width terminal cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
