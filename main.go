package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/api"
	"github.com/Conceptual-Machines/story-assistant/internal/config"
	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/metrics"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/observability"
	"github.com/Conceptual-Machines/story-assistant/internal/prompt"
	"github.com/Conceptual-Machines/story-assistant/internal/story"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownTimeout       = 10 * time.Second
	readHeaderTimeout     = 10 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Initialize Sentry
	sentryEnabled := initSentry(cfg)
	if sentryEnabled {
		defer sentry.Flush(sentryFlushTimeout)
	}

	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := llm.NewProviderFactory(llm.FactoryConfig{
		Backend:      cfg.LLMBackend,
		BaseURL:      cfg.OllamaURL,
		Timeout:      cfg.LLMTimeout,
		GeminiAPIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		log.Fatal("Failed to create provider factory: ", err)
	}

	builder, err := prompt.NewPromptBuilder()
	if err != nil {
		log.Fatal("Failed to load prompt templates: ", err)
	}

	prom := metrics.NewPrometheus(prometheus.DefaultRegisterer)
	recorder := metrics.Multi{
		prom,
		metrics.NewSentryMetrics(sentryEnabled),
		metrics.NewCloudWatch(ctx, cfg.CloudWatchEnabled, cfg.Environment),
	}

	tracer := observability.InitializeLangfuse(ctx, cfg)

	svc, err := story.NewService(story.Deps{
		Catalog:   models.NewCatalog(cfg.StoryModels),
		Builder:   builder,
		Providers: factory,
		Recorder:  recorder,
		Tracer:    tracer,
		Timeout:   cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatal("Failed to create story service: ", err)
	}

	router := api.SetupRouter(cfg, api.Deps{
		Generator:  svc,
		Pinger:     factory,
		Prometheus: prom,
		Gatherer:   prometheus.DefaultGatherer,
		Recorder:   recorder,
		Version:    GetVersion(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Starting server on port %s (backend: %s, endpoint: %s)", cfg.Port, cfg.LLMBackend, factory.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		defer tracer.Flush(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sentry.CaptureException(err)
		log.Printf("Server error: %v", err)
	}
}

func initSentry(cfg *config.Config) bool {
	if cfg.SentryDSN == "" {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
		return false
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "story-assistant@" + releaseVersion,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Environment != environmentProduction,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
			}
			return event
		},
	}); err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return false
	}

	log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
	return true
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
