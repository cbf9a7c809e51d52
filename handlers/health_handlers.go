package handlers

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleDBHealth pings the record store.
// GET /health/db
func (h *Handler) HandleDBHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		h.Log.WithError(err).Warn("🩺 [HEALTH] database ping failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "error", "error": "database unreachable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleVersion reports the build version and, when available, the module build info.
// GET /version
func (h *Handler) HandleVersion(c *fiber.Ctx) error {
	version := h.Version
	if version == "" {
		version = "dev"
	}
	resp := fiber.Map{"version": version, "go_version": runtime.Version()}
	if info, ok := debug.ReadBuildInfo(); ok {
		resp["build"] = info.String()
	}
	return c.JSON(resp)
}
