package handlers

import (
	"github.com/gofiber/fiber/v2"

	"retail-insights/middleware"
)

// HandleInsights runs the forecast and asks the text model to explain it.
// GET /api/v1/insights
func (h *Handler) HandleInsights(c *fiber.Ctx) error {
	if h.Insights == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Insights are not configured"})
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	resp, err := h.Insights.Summarize(ctx, middleware.StoreID(c))
	if err != nil {
		if isPipelineError(err) {
			return h.internalError(c, "HandleInsights", err)
		}
		h.Log.WithError(err).Error("🤖 [INSIGHTS] text model failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to generate insights from AI"})
	}
	return c.JSON(resp)
}
