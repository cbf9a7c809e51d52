// Command inquiries answers every pending customer inquiry once.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Unable to open the record store")
	}
	defer store.Close()

	replies, err := services.NewInquiryResponder(store, logger).ProcessPending(ctx)
	for _, r := range replies {
		logger.WithField("inquiry_id", r.ID).Infof("Processing inquiry %d: %s -> %s", r.ID, r.InquiryText, r.ResponseText)
	}
	if err != nil {
		logger.WithError(err).Error("Inquiry processing failed")
		store.Close()
		os.Exit(1)
	}
	logger.Infof("Inquiries processed: %d", len(replies))
}
