package routes

import (
	"github.com/gofiber/fiber/v2"

	"retail-insights/handlers"
	"retail-insights/middleware"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	// --- Health ---
	app.Get("/health/db", h.HandleDBHealth)
	app.Get("/version", h.HandleVersion)

	// Kept at the root for existing dashboard clients.
	app.Get("/recommendations", middleware.StoreFilter, h.HandleRecommendations)

	api := app.Group("/api/v1")

	// --- Analytics ---
	api.Get("/recommendations", middleware.StoreFilter, h.HandleRecommendations)
	api.Get("/forecasts", middleware.StoreFilter, h.HandleForecasts)
	api.Get("/trends", middleware.StoreFilter, h.HandleTrends)
	api.Get("/trends/export", middleware.StoreFilter, h.HandleTrendsExport)
	api.Get("/insights", middleware.StoreFilter, h.HandleInsights)

	// --- Customer Inquiries ---
	api.Post("/inquiries/process", h.HandleProcessInquiries)
}
