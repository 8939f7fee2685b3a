package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/utils/response"
)

// ConnectionCounter reports live realtime connections
type ConnectionCounter interface {
	Connected() int
}

// HandleCheckHealth reports database reachability and live connections
func HandleCheckHealth(c *fiber.Ctx, store database.Storage, hub ConnectionCounter) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unavailable")
	}

	connections := 0
	if hub != nil {
		connections = hub.Connected()
	}

	return c.JSON(fiber.Map{
		"status":      "ok",
		"database":    "up",
		"connections": connections,
	})
}
