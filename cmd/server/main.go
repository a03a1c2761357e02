// @title         pagegen API
// @version       1.0
// @description   Fake web server: every page is invented by a language model and streamed back as HTML or plain text.
// @BasePath      /
// @schemes       http
// @host          localhost:8080
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gofiber/fiber/v2"

	// internal imports
	"github.com/artem13815/pagegen/api/http"
	"github.com/artem13815/pagegen/api/http/handlers"
	"github.com/artem13815/pagegen/api/http/middleware"
	"github.com/artem13815/pagegen/api/http/presenter"
	_ "github.com/artem13815/pagegen/docs"
	"github.com/artem13815/pagegen/pkg/config"
	"github.com/artem13815/pagegen/pkg/health"
	"github.com/artem13815/pagegen/pkg/health/checkers"
	"github.com/artem13815/pagegen/pkg/llm"
	"github.com/artem13815/pagegen/pkg/llm/gemini"
	"github.com/artem13815/pagegen/pkg/llm/openrouter"
	"github.com/artem13815/pagegen/pkg/metrics"
	"github.com/artem13815/pagegen/pkg/page"
)

func main() {
	// Load configuration from env/.env
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	setupLogging(cfg)
	metrics.Register()

	model, modelID := newModel(cfg)
	pageHandler := handlers.NewPageHandler(page.NewGenerator(model))

	// Health service: compose checkers
	readiness := health.NewService(checkers.NewModelChecker(cfg.Provider, model))
	healthHandler := handlers.NewHealthHandler(readiness)

	app := fiber.New(fiber.Config{
		ErrorHandler:          presenter.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(middleware.RequestLogger())
	http.Register(app, http.Options{
		OpsPrefix:      cfg.OpsPrefix,
		SwaggerEnabled: cfg.SwaggerEnabled,
	}, healthHandler, pageHandler)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(log.Fields{
		"port":     cfg.Port,
		"provider": cfg.Provider,
		"model":    modelID,
		"ops":      cfg.OpsPrefix,
	}).Info("HTTP server listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// streamingModel is what the page generator and the readiness probe need
// from a provider client.
type streamingModel interface {
	llm.StreamingModel
	checkers.Pinger
}

func newModel(cfg config.Config) (streamingModel, string) {
	if cfg.Provider == config.ProviderOpenRouter {
		c := openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterBase, cfg.OpenRouterModel, cfg.OpenRouterAppTitle, cfg.OpenRouterReferer)
		return c, c.Model
	}
	c := gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel)
	return c, c.Model
}

func setupLogging(cfg config.Config) {
	switch cfg.LogFormat {
	case "json":
		log.SetHandler(jsonhandler.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}
	log.SetLevel(cfg.LogLevel)
}
