package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/use-agent/recipebox/models"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func sampleEntries() []*models.StoredSummary {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []*models.StoredSummary{
		{Key: "https://a.example/cake", Title: "Cake", GeneratedText: "Bake it.", SavedAt: at},
		{Key: "https://b.example/soup", Title: "Soup", GeneratedText: "Simmer it.", SavedAt: at.Add(-time.Hour)},
	}
}

func newTestModel() Model {
	return NewModel(context.Background(), nil, nil, time.UTC)
}

func TestCurrentLoaded(t *testing.T) {
	m := newTestModel()
	if m.State != StateLoading {
		t.Fatalf("initial State = %v, want %v", m.State, StateLoading)
	}

	sum := sampleEntries()[0]
	m, _ = step(t, m, CurrentLoadedMsg{Outcome: &models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(""), Summary: sum,
	}})
	if m.State != StateIdle {
		t.Errorf("State = %v, want %v", m.State, StateIdle)
	}
	if m.Current != sum {
		t.Errorf("Current = %v, want %v", m.Current, sum)
	}
	if view := m.View(); !strings.Contains(view, "Bake it.") || !strings.Contains(view, models.MsgRecipeSummaryH3) {
		t.Errorf("View() missing summary:\n%s", view)
	}
}

func TestCurrentMissShowsHint(t *testing.T) {
	m, _ := step(t, newTestModel(), CurrentLoadedMsg{Outcome: &models.Outcome{
		Success: true, Stage: models.StageIdle, Status: models.Idle(""),
	}})
	if m.Current != nil {
		t.Errorf("Current = %v, want nil", m.Current)
	}
	if view := m.View(); !strings.Contains(view, TextNoSummary) {
		t.Errorf("View() missing hint:\n%s", view)
	}
}

func TestCrawlKey(t *testing.T) {
	m, _ := step(t, newTestModel(), CurrentLoadedMsg{Outcome: &models.Outcome{Status: models.Idle("")}})

	m, cmd := step(t, m, keyRunes("c"))
	if cmd == nil {
		t.Fatal("crawl key returned no command")
	}
	if m.State != StateBusy {
		t.Errorf("State = %v, want %v", m.State, StateBusy)
	}
	if m.Status != models.Busy(models.MsgResolvingTab) {
		t.Errorf("Status = %+v, want busy %q", m.Status, models.MsgResolvingTab)
	}

	// A second trigger while busy is ignored.
	if _, cmd := step(t, m, keyRunes("c")); cmd != nil {
		t.Error("crawl key while busy returned a command")
	}

	m, _ = step(t, m, StageMsg{Stage: models.StageSummarizing, Status: models.Busy(models.MsgAnalyzing)})
	if m.Status.Message != models.MsgAnalyzing {
		t.Errorf("Status.Message = %q, want %q", m.Status.Message, models.MsgAnalyzing)
	}
}

func TestCrawlDone(t *testing.T) {
	tests := []struct {
		name        string
		outcome     *models.Outcome
		wantCurrent bool
		wantKind    models.StatusKind
	}{
		{
			name: "saved",
			outcome: &models.Outcome{
				Success: true, Stage: models.StageDone, Status: models.Idle(models.MsgSaved),
				Summary: sampleEntries()[0],
			},
			wantCurrent: true,
			wantKind:    models.StatusIdle,
		},
		{
			name: "no recipe",
			outcome: &models.Outcome{
				Stage: models.StageReported, Status: models.Reported(models.MsgNoRecipes),
				Error: &models.ErrorDetail{Code: models.ErrCodeExtractionEmpty, Message: models.MsgNoRecipes},
			},
			wantKind: models.StatusReported,
		},
		{
			name: "storage failure keeps summary",
			outcome: &models.Outcome{
				Stage: models.StageFailed, Status: models.Failed("store put failed"),
				Summary: sampleEntries()[0],
				Error:   &models.ErrorDetail{Code: models.ErrCodeStorageUnavailable, Message: "store put failed"},
			},
			wantCurrent: true,
			wantKind:    models.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			m.State = StateBusy
			m, _ = step(t, m, CrawlDoneMsg{Outcome: tt.outcome})
			if m.State != StateIdle {
				t.Errorf("State = %v, want %v", m.State, StateIdle)
			}
			if (m.Current != nil) != tt.wantCurrent {
				t.Errorf("Current set = %v, want %v", m.Current != nil, tt.wantCurrent)
			}
			if m.Status.Kind != tt.wantKind {
				t.Errorf("Status.Kind = %v, want %v", m.Status.Kind, tt.wantKind)
			}
		})
	}
}

func TestListNavigationAndDelete(t *testing.T) {
	entries := sampleEntries()
	m := newTestModel()
	m.State = StateIdle
	m.Current = entries[1]

	m, _ = step(t, m, EntriesLoadedMsg{Outcome: &models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(""), Entries: entries,
	}})
	if m.Screen != ScreenList {
		t.Fatalf("Screen = %v, want %v", m.Screen, ScreenList)
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", m.Cursor)
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Expanded[entries[1].Key] {
		t.Error("enter did not expand the selected entry")
	}
	if view := m.View(); !strings.Contains(view, "Simmer it.") || !strings.Contains(view, "Saved on:") {
		t.Errorf("View() missing expanded panel:\n%s", view)
	}

	// Anything but y cancels.
	m, _ = step(t, m, keyRunes("d"))
	if m.State != StateConfirmDelete || m.PendingDelete != entries[1].Key {
		t.Fatalf("State = %v, PendingDelete = %q", m.State, m.PendingDelete)
	}
	m, cmd := step(t, m, keyRunes("n"))
	if cmd != nil || m.State != StateIdle {
		t.Errorf("cancel: cmd = %v, State = %v", cmd != nil, m.State)
	}

	m, _ = step(t, m, keyRunes("d"))
	m, cmd = step(t, m, keyRunes("y"))
	if cmd == nil {
		t.Fatal("confirm returned no command")
	}
	if m.State != StateBusy {
		t.Errorf("State = %v, want %v", m.State, StateBusy)
	}

	m, _ = step(t, m, DeleteDoneMsg{Key: entries[1].Key, Outcome: &models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(models.MsgDeleted),
	}})
	if len(m.Entries) != 1 || m.Entries[0].Key != entries[0].Key {
		t.Errorf("Entries after delete = %v", m.Entries)
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}
	if m.Current != nil {
		t.Error("Current still set after its entry was deleted")
	}
	if m.Expanded[entries[1].Key] {
		t.Error("deleted entry still expanded")
	}
}

func TestDeleteFailureKeepsEntries(t *testing.T) {
	m := newTestModel()
	m.State = StateBusy
	m.Screen = ScreenList
	m.Entries = sampleEntries()

	m, _ = step(t, m, DeleteDoneMsg{Key: m.Entries[0].Key, Outcome: &models.Outcome{
		Stage: models.StageFailed, Status: models.Failed("store delete failed"),
		Error: &models.ErrorDetail{Code: models.ErrCodeStorageUnavailable, Message: "store delete failed"},
	}})
	if len(m.Entries) != 2 {
		t.Errorf("len(Entries) = %d, want 2", len(m.Entries))
	}
	if m.Status.Kind != models.StatusError {
		t.Errorf("Status.Kind = %v, want %v", m.Status.Kind, models.StatusError)
	}
}

func TestEmptyList(t *testing.T) {
	m := newTestModel()
	m.State = StateBusy
	m, _ = step(t, m, EntriesLoadedMsg{Outcome: &models.Outcome{
		Stage: models.StageReported, Status: models.Reported(models.MsgNoSavedRecipes),
	}})
	if m.Screen != ScreenList {
		t.Errorf("Screen = %v, want %v", m.Screen, ScreenList)
	}
	if view := m.View(); !strings.Contains(view, models.MsgNoSavedRecipes) {
		t.Errorf("View() missing empty message:\n%s", view)
	}

	// Keys on an empty list do nothing.
	if m2, _ := step(t, m, keyRunes("d")); m2.State != StateIdle {
		t.Errorf("State = %v, want %v", m2.State, StateIdle)
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := step(t, newTestModel(), k)
		if cmd == nil {
			t.Fatalf("%s returned no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", k)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Cake", 10, "Cake"},
		{"Chocolate Cake", 10, "Chocola..."},
		{"寿司寿司", 6, "寿..."},
		{"寿司", 4, "寿司"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
