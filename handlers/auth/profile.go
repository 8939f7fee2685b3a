package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
)

// GetProfile returns the authenticated user
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	return response.Success(c, toUserResponse(user))
}
