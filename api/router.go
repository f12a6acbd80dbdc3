package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/recipebox/api/handler"
	"github.com/use-agent/recipebox/api/middleware"
	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/store"
	"github.com/use-agent/recipebox/tab"
)

// Deps are the services the routes call.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Store        store.Store
	// Fetcher may be nil; crawl requests then need html.
	Fetcher    tab.PageFetcher
	Summarizer string
	Location   *time.Location
	StartTime  time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled)
//
// Health is outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(deps.Store, cfg.Store.Backend, deps.Summarizer, deps.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	protected.POST("/summaries/crawl", handler.Crawl(deps.Orchestrator, deps.Fetcher))
	protected.GET("/summaries/current", handler.Current(deps.Orchestrator))
	protected.GET("/summaries", handler.List(deps.Orchestrator, deps.Location))
	protected.DELETE("/summaries", handler.Delete(deps.Orchestrator))

	return r
}
