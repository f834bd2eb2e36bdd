package api

import (
	"github.com/Conceptual-Machines/story-assistant/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/story-assistant/internal/api/middleware"
	"github.com/Conceptual-Machines/story-assistant/internal/config"
	"github.com/Conceptual-Machines/story-assistant/internal/metrics"
	webhandlers "github.com/Conceptual-Machines/story-assistant/internal/web/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the routes are served by
type Deps struct {
	Generator  handlers.Generator
	Pinger     handlers.Pinger
	Prometheus *metrics.Prometheus
	Gatherer   prometheus.Gatherer
	Recorder   metrics.Recorder
	Version    string
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	if deps.Prometheus != nil {
		router.Use(deps.Prometheus.Middleware())
	}

	router.Use(apimiddleware.CORS(cfg.CORSAllowedOrigins))

	// Health and readiness
	healthHandler := handlers.NewHealthHandler(deps.Pinger)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.Ready)

	// Metrics endpoints
	metricsHandler := handlers.NewMetricsHandler(deps.Version, cfg.LLMBackend, deps.Pinger.BaseURL())
	router.GET("/api/metrics", metricsHandler.GetMetrics)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Web pages
	webHandler := webhandlers.NewWebHandler(deps.Generator, webhandlers.NewSessionStore(cfg.SessionSecret, cfg.IsProduction()))
	router.GET("/", webHandler.Home)
	router.POST("/generate", webHandler.Generate)
	router.POST("/htmx/generate", webHandler.HTMXGenerate)

	// JSON API
	v1 := router.Group("/api/v1")
	{
		generationHandler := handlers.NewGenerationHandler(deps.Generator)
		v1.GET("/options", generationHandler.Options)
		v1.POST("/generate", generationHandler.Generate)
	}

	return router
}
