package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"retail-insights/models"
	"retail-insights/services"
)

// HandleForecasts predicts next-period demand per pair and flags anomalies.
// GET /api/v1/forecasts
func (h *Handler) HandleForecasts(c *fiber.Ctx) error {
	h.Log.Info("📈 [FORECAST] request received")

	result, err := h.runPipeline(c, services.ForecastStages)
	if err != nil {
		return h.internalError(c, "HandleForecasts", err)
	}

	return c.JSON(models.ForecastResponse{
		RunID:     result.RunID,
		Forecasts: result.Forecasts,
		Anomalies: result.Anomalies,
		Trends:    result.Trends,
	})
}

// HandleTrends returns the top products, top stores and monthly totals.
// GET /api/v1/trends
func (h *Handler) HandleTrends(c *fiber.Ctx) error {
	result, err := h.runPipeline(c, services.StageTrends)
	if err != nil {
		return h.internalError(c, "HandleTrends", err)
	}
	return c.JSON(result.Trends)
}

// HandleTrendsExport streams the trend summary as an Excel workbook.
// GET /api/v1/trends/export
func (h *Handler) HandleTrendsExport(c *fiber.Ctx) error {
	result, err := h.runPipeline(c, services.StageTrends)
	if err != nil {
		return h.internalError(c, "HandleTrendsExport", err)
	}

	var buf bytes.Buffer
	if err := services.WriteTrendsWorkbook(&buf, *result.Trends); err != nil {
		return h.internalError(c, "HandleTrendsExport", err)
	}

	c.Attachment(fmt.Sprintf("sales-trends-%s.xlsx", time.Now().UTC().Format("2006-01-02")))
	c.Set(fiber.HeaderContentType, services.XLSXContentType)
	return c.Send(buf.Bytes())
}
