package tui

import "github.com/use-agent/recipebox/models"

// Messages for the tea program. Each operation command returns exactly
// one of the *DoneMsg types; StageMsg arrives from the orchestrator's
// observer while a crawl is running.

// CurrentLoadedMsg carries the result of loading the active page's summary.
type CurrentLoadedMsg struct {
	Outcome *models.Outcome
}

// CrawlDoneMsg carries the result of a crawl-and-summarize run.
type CrawlDoneMsg struct {
	Outcome *models.Outcome
}

// EntriesLoadedMsg carries the result of a view-all run.
type EntriesLoadedMsg struct {
	Outcome *models.Outcome
}

// DeleteDoneMsg carries the result of deleting Key.
type DeleteDoneMsg struct {
	Key     string
	Outcome *models.Outcome
}

// StageMsg reports a stage transition of a running crawl.
type StageMsg struct {
	Stage  models.Stage
	Status models.UiStatus
}
