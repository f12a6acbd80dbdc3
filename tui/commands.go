package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/tab"
)

// loadCurrent creates a command that loads the active page's summary.
func loadCurrent(ctx context.Context, orch *pipeline.Orchestrator, src tab.Source) tea.Cmd {
	return func() tea.Msg {
		return CurrentLoadedMsg{Outcome: orch.RunLoadForCurrentTab(ctx, src)}
	}
}

// crawl creates a command that crawls and summarizes the active page.
func crawl(ctx context.Context, orch *pipeline.Orchestrator, src tab.Source) tea.Cmd {
	return func() tea.Msg {
		return CrawlDoneMsg{Outcome: orch.RunCrawlAndSummarize(ctx, src)}
	}
}

// viewAll creates a command that loads every saved summary.
func viewAll(ctx context.Context, orch *pipeline.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		return EntriesLoadedMsg{Outcome: orch.RunViewAll(ctx)}
	}
}

// deleteEntry creates a command that deletes one saved summary.
func deleteEntry(ctx context.Context, orch *pipeline.Orchestrator, key string) tea.Cmd {
	return func() tea.Msg {
		return DeleteDoneMsg{Key: key, Outcome: orch.RunDelete(ctx, key)}
	}
}
