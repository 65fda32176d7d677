package controllers

import (
	"errors"
	"time"

	"go-order-service/src/controllers/models"
	"go-order-service/src/infrastructure/log"
	"go-order-service/src/infrastructure/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const CorrelationIDHeader = "X-Correlation-ID"

// RequestLogger tags every request with a correlation id, then logs and counts the response.
func RequestLogger(logger log.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		correlationID := c.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		c.Set(CorrelationIDHeader, correlationID)
		c.SetUserContext(logger.WithCorrelationID(c.UserContext(), correlationID))

		if err := c.Next(); err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		m.ObserveHTTPRequest(c.Method(), route, status)
		logger.RequestResponse(c.UserContext(), &log.Field{
			URL:            c.OriginalURL(),
			HostName:       c.Hostname(),
			HTTPStatusCode: status,
			Duration:       time.Since(start).Milliseconds(),
			HTTPMethod:     c.Method(),
			Route:          route,
			Message:        "Request completed",
		})
		return nil
	}
}

// ErrorHandler renders errors that escape the handlers. Only fiber errors keep their message.
func ErrorHandler(logger log.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
		}
		logger.Exception(c.UserContext(), "HTTP request error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Internal server error"})
	}
}
