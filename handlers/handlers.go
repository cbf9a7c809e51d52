package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"retail-insights/config"
	"retail-insights/middleware"
	"retail-insights/models"
	"retail-insights/services"
)

// InquiryProcessor answers pending customer inquiries.
type InquiryProcessor interface {
	ProcessPending(ctx context.Context) ([]models.InquiryReply, error)
}

// InsightSummarizer explains a fresh forecast in prose.
type InsightSummarizer interface {
	Summarize(ctx context.Context, storeID *int64) (*models.InsightResponse, error)
}

// Pinger checks the record store connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP surface. Insights may be nil, which disables the
// insights endpoint.
type Handler struct {
	Pipeline  services.Pipeline
	Inquiries InquiryProcessor
	Insights  InsightSummarizer
	DB        Pinger
	Log       logrus.FieldLogger
	Timeout   time.Duration
	Version   string
}

// runPipeline runs the given stages for the request's store filter under the
// request timeout.
func (h *Handler) runPipeline(c *fiber.Ctx, stages services.Stage) (*models.RunResult, error) {
	ctx, cancel := h.requestContext(c)
	defer cancel()
	return h.Pipeline.Run(ctx, middleware.StoreID(c), stages)
}

func (h *Handler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

// internalError logs err and answers 500 with the diagnostic text.
func (h *Handler) internalError(c *fiber.Ctx, funcName string, err error) error {
	data := fiber.Map{"path": c.Path()}
	if id := middleware.StoreID(c); id != nil {
		data["store_id"] = *id
	}
	config.LogError(h.Log, "handlers", funcName, "pipeline run", data, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error: " + err.Error()})
}

func isPipelineError(err error) bool {
	return errors.Is(err, services.ErrUpstream) || errors.Is(err, services.ErrPersist) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
