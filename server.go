package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"retail-insights/config"
	"retail-insights/handlers"
	"retail-insights/middleware"
	"retail-insights/routes"
)

// newApp builds the fiber app with the shared middleware stack and all routes.
func newApp(cfg *config.Config, h *handlers.Handler, log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "retail-insights",
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
	}))

	routes.SetupRoutes(app, h)
	return app
}
