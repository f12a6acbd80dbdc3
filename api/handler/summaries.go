package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/render"
	"github.com/use-agent/recipebox/tab"
)

// Current returns a handler for GET /api/v1/summaries/current?url=.
// A page with no saved summary is a 404.
func Current(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.KeyQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, models.ErrCodeInvalidInput, err.Error())
			return
		}

		out := orch.RunLoadForCurrentTab(c.Request.Context(), tab.Static{URL: q.URL})
		if out.Success && out.Summary == nil {
			c.JSON(http.StatusNotFound, models.Outcome{
				Stage:  out.Stage,
				Status: out.Status,
				Error:  &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: "no saved summary for " + q.URL},
			})
			return
		}
		if out.Summary != nil {
			out.Rendered = render.HTML(out.Summary)
		}
		respondOutcome(c, out)
	}
}

// List returns a handler for GET /api/v1/summaries. With format=html or
// format=markdown the entries are also rendered, in loc.
func List(orch *pipeline.Orchestrator, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.ListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, models.ErrCodeInvalidInput, err.Error())
			return
		}

		out := orch.RunViewAll(c.Request.Context())
		if out.Success {
			switch q.Format {
			case "html":
				out.Rendered = render.HTMLList(out.Entries, loc)
			case "markdown":
				md, err := render.MarkdownList(out.Entries, loc)
				if err != nil {
					respondError(c, models.ErrCodeInternal, err.Error())
					return
				}
				out.Rendered = md
			}
		}
		respondOutcome(c, out)
	}
}

// Delete returns a handler for DELETE /api/v1/summaries?url=.
func Delete(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.KeyQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, models.ErrCodeInvalidInput, err.Error())
			return
		}
		respondOutcome(c, orch.RunDelete(c.Request.Context(), q.URL))
	}
}
