package controllers

import (
	"context"
	"time"

	"go-order-service/src/infrastructure/log"

	"github.com/gofiber/fiber/v2"
)

// HealthController reports whether the order database is reachable.
type HealthController struct {
	ping   func(ctx context.Context) error
	logger log.Logger
}

func NewHealthController(ping func(ctx context.Context) error, logger log.Logger) *HealthController {
	return &HealthController{ping: ping, logger: logger}
}

func (h *HealthController) Route(app *fiber.App) {
	app.Get("/api/healthCheck", h.HealthCheck)
}

// HealthCheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /api/healthCheck [get]
func (h *HealthController) HealthCheck(c *fiber.Ctx) error {
	if err := h.ping(c.UserContext()); err != nil {
		h.logger.Exception(c.UserContext(), "Health check: MySQL ping failed", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
