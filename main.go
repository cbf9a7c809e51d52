package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"retail-insights/analytics"
	"retail-insights/config"
	"retail-insights/database"
	"retail-insights/handlers"
	"retail-insights/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Unable to open the record store")
	}
	defer store.Close()

	strategy, err := analytics.NewStrategy(cfg.AnomalyStrategy, cfg.AnomalySeed)
	if err != nil {
		logger.WithError(err).Fatal("Unable to build the anomaly strategy")
	}

	runner := services.NewRunner(store, strategy, services.RunnerConfig{
		SalesLimit: cfg.SalesFetchLimit,
		Logger:     logger,
	})

	h := &handlers.Handler{
		Pipeline:  runner,
		Inquiries: services.NewInquiryResponder(store, logger),
		DB:        store,
		Log:       logger,
		Timeout:   cfg.RequestTimeout,
		Version:   version,
	}

	if cfg.InsightsEnabled() {
		gen, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.WithError(err).Fatal("Unable to create the Gemini client")
		}
		defer gen.Close()
		h.Insights = services.NewInsightService(runner, gen, logger)
	} else {
		logger.Info("GEMINI_API_KEY not set, insights are disabled")
	}

	app := newApp(cfg, h, logger)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.WithField("port", cfg.Port).Info("🚀 Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}
