package models

// StatusKind classifies what a front-end should show after an operation.
type StatusKind string

const (
	StatusIdle     StatusKind = "idle"
	StatusBusy     StatusKind = "busy"
	StatusReported StatusKind = "reported"
	StatusError    StatusKind = "error"
)

// UiStatus is the presentation state emitted by the orchestrator.
type UiStatus struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

func Idle(msg string) UiStatus     { return UiStatus{Kind: StatusIdle, Message: msg} }
func Busy(msg string) UiStatus     { return UiStatus{Kind: StatusBusy, Message: msg} }
func Reported(msg string) UiStatus { return UiStatus{Kind: StatusReported, Message: msg} }
func Failed(msg string) UiStatus   { return UiStatus{Kind: StatusError, Message: msg} }

// Stage is a step of a crawl-and-summarize run.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageExtracting  Stage = "extracting"
	StageSummarizing Stage = "summarizing"
	StageSaving      Stage = "saving"
	StageDone        Stage = "done"
	StageReported    Stage = "reported"
	StageFailed      Stage = "failed"
)

// User-facing messages.
const (
	MsgNoRecipes       = "No recipes found on the page."
	MsgNoSavedRecipes  = "No saved recipes found."
	MsgAnalyzing       = "Analyzing the recipe with AI..."
	MsgExtracting      = "Reading the recipe from the page..."
	MsgSaving          = "Saving the summary..."
	MsgSaved           = "Recipe summary saved."
	MsgDeleted         = "Recipe deleted."
	MsgResolvingTab    = "Starting recipe crawl..."
	MsgRecipeSummaryH3 = "Recipe Summary"
)
