package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/store"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// healthProbeKey is looked up to check the store is reachable.
const healthProbeKey = "recipebox:health-probe"

// Health returns a handler for GET /api/v1/health.
//
// The store is probed with a lookup; when it fails the status is
// "degraded" but the response is still 200 so probes see the detail.
func Health(st store.Store, backend, summarizer string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:     "healthy",
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			Store:      backend,
			Summarizer: summarizer,
			Version:    Version,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if _, _, err := st.Get(ctx, healthProbeKey); err != nil {
			resp.Status = "degraded"
			resp.StoreError = err.Error()
		}

		c.JSON(http.StatusOK, resp)
	}
}
