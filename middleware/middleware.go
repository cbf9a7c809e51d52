package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StoreIDKey is the Locals key StoreFilter stores the parsed store id under.
const StoreIDKey = "storeID"

var validate = validator.New()

// StoreFilter parses the optional store_id query parameter. Anything other
// than plain digits is rejected with 400 before the pipeline runs.
func StoreFilter(c *fiber.Ctx) error {
	raw := c.Query("store_id")
	if raw == "" {
		return c.Next()
	}

	if err := validate.Var(raw, "number"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store_id format"})
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store_id format"})
	}

	c.Locals(StoreIDKey, id)
	return c.Next()
}

// StoreID returns the store filter set by StoreFilter, or nil for all stores.
func StoreID(c *fiber.Ctx) *int64 {
	id, ok := c.Locals(StoreIDKey).(int64)
	if !ok {
		return nil
	}
	return &id
}

// RequestLogger logs one line per request with method, path, status and latency.
func RequestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		entry := log.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
		return err
	}
}
