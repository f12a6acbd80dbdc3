package models

// Outcome is the result of one orchestrator invocation. Exactly one of
// a success render (Summary or Entries), a reported message or an error
// is meaningful, as described by Status.
type Outcome struct {
	// Success is true only when the operation completed without a reported
	// message or an error.
	Success bool `json:"success"`

	// Stage is the last stage the run reached.
	Stage Stage `json:"stage"`

	// Status is what a front-end should display.
	Status UiStatus `json:"status"`

	// Summary is set by a crawl and by a load for the current page.
	Summary *StoredSummary `json:"summary,omitempty"`

	// Entries is set by view-all, sorted newest first.
	Entries []*StoredSummary `json:"entries,omitempty"`

	// Rendered holds the HTML or Markdown rendering when the caller asked for one.
	Rendered string `json:"rendered,omitempty"`

	// Error is populated when Status.Kind is error or reported.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Err returns the outcome's failure as a PipelineError, or nil.
func (o *Outcome) Err() *PipelineError {
	if o == nil || o.Error == nil {
		return nil
	}
	return NewPipelineError(o.Error.Code, o.Error.Message, nil)
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"` // "healthy" or "degraded"
	Uptime     string `json:"uptime"`
	Store      string `json:"store"`
	Summarizer string `json:"summarizer"`
	StoreError string `json:"store_error,omitempty"`
	Version    string `json:"version"`
}
