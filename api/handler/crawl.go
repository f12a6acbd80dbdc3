package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/tab"
)

// Crawl returns a handler for POST /api/v1/summaries/crawl.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Pick the tab source: the posted HTML, or a server-side fetch.
//  3. Run crawl-and-summarize and write the outcome.
//
// fetcher may be nil, in which case requests must carry html.
func Crawl(orch *pipeline.Orchestrator, fetcher tab.PageFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.CrawlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.ErrCodeInvalidInput, err.Error())
			return
		}
		req.Defaults()

		// ── 2. Choose the source ────────────────────────────────────
		var src tab.Source
		switch {
		case req.HTML != "":
			src = tab.Static{URL: req.URL, HTML: req.HTML}
		case fetcher != nil:
			src = tab.Remote{
				URL:     req.URL,
				Fetcher: fetcher,
				Timeout: time.Duration(req.Timeout) * time.Second,
				Stealth: req.Stealth,
			}
		default:
			respondError(c, models.ErrCodeInvalidInput, "html is required: server-side fetching is disabled")
			return
		}

		// ── 3. Run ──────────────────────────────────────────────────
		respondOutcome(c, orch.RunCrawlAndSummarize(c.Request.Context(), src))
	}
}
