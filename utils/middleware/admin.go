package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records successful admin write requests. It must run after
// Required and RequireAdmin.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok || !user.IsAdmin() {
			return c.Next()
		}

		// Copy request data now; the fiber context is recycled after the handler
		payload := datatypes.JSON(append([]byte(nil), c.Body()...))
		ip := c.IP()
		userAgent := c.Get("User-Agent")
		description := c.Method() + " " + c.Path()

		err := c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			return err
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, perr := strconv.ParseUint(id, 10, 32); perr == nil {
				resourceID = uint(parsedID)
			}
		}
		if !json.Valid(payload) {
			payload = nil
		}

		entry := model.AdminAuditLog{
			AdminID:     user.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			Payload:     payload,
			IPAddress:   ip,
			UserAgent:   userAgent,
			Description: description,
		}
		if cerr := db.WithContext(c.UserContext()).Create(&entry).Error; cerr != nil {
			logger.Warn("failed to write admin audit log for %s: %v", description, cerr)
		}

		return nil
	}
}
