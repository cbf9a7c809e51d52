package handlers

import (
	"github.com/gofiber/fiber/v2"

	"retail-insights/models"
	"retail-insights/services"
)

// HandleRecommendations detects anomalies and monthly sales patterns.
// GET /recommendations, GET /api/v1/recommendations
func (h *Handler) HandleRecommendations(c *fiber.Ctx) error {
	h.Log.Info("🔍 [RECOMMENDATIONS] request received")

	result, err := h.runPipeline(c, services.RecommendationStages)
	if err != nil {
		return h.internalError(c, "HandleRecommendations", err)
	}

	return c.JSON(models.RecommendationsResponse{
		Anomalies:              result.Anomalies,
		RestockRecommendations: result.RestockRecommendations,
		AvoidRestock:           result.AvoidRestock,
		HighDemandPeriods:      result.HighDemandPeriods,
	})
}
