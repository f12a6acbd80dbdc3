package models

// CrawlRequest is the payload for POST /api/v1/summaries/crawl.
type CrawlRequest struct {
	// URL is the page the recipe comes from. It also becomes the storage key.
	// Required.
	URL string `json:"url" binding:"required,url"`

	// HTML is the page's rendered markup as captured by the caller
	// (e.g. document.documentElement.outerHTML from an extension).
	// When empty, the server fetches the page itself.
	HTML string `json:"html,omitempty"`

	// Timeout bounds the server-side fetch in seconds when HTML is empty.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot evasions for the server-side fetch.
	Stealth bool `json:"stealth,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *CrawlRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// ListQuery holds the query parameters of GET /api/v1/summaries.
type ListQuery struct {
	// Format selects the rendering: "json" (default), "html" or "markdown".
	Format string `form:"format" binding:"omitempty,oneof=json html markdown"`
}

// KeyQuery identifies one stored summary by page URL.
type KeyQuery struct {
	URL string `form:"url" binding:"required"`
}
