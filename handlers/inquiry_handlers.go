package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleProcessInquiries answers every pending customer inquiry.
// POST /api/v1/inquiries/process
func (h *Handler) HandleProcessInquiries(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	replies, err := h.Inquiries.ProcessPending(ctx)
	if err != nil {
		return h.internalError(c, "HandleProcessInquiries", err)
	}
	return c.JSON(fiber.Map{"processed": len(replies), "replies": replies})
}
