// Command batch runs every analysis stage once against the configured store,
// prints the result as JSON and exits non-zero on failure.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"retail-insights/analytics"
	"retail-insights/config"
	"retail-insights/database"
	"retail-insights/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, logger, os.Stdout))
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, out io.Writer) int {
	store, err := database.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Unable to open the record store")
		return 1
	}
	defer store.Close()

	strategy, err := analytics.NewStrategy(cfg.AnomalyStrategy, cfg.AnomalySeed)
	if err != nil {
		logger.WithError(err).Error("Unable to build the anomaly strategy")
		return 1
	}

	runner := services.NewRunner(store, strategy, services.RunnerConfig{
		SalesLimit: cfg.SalesFetchLimit,
		Logger:     logger,
	})
	result, runErr := runner.Run(ctx, nil, services.AllStages)

	// A persist failure still yields results worth printing.
	if result != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.WithError(err).Error("Unable to write the result")
			return 1
		}
	}
	if runErr != nil {
		logger.WithError(runErr).Error("Pipeline run failed")
		return 1
	}
	return 0
}
