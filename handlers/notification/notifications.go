package notification

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
	validator           *validation.Validator
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validation.NewValidator(),
	}
}

// CreateNotificationRequest represents a direct notification to one user
type CreateNotificationRequest struct {
	UserID  uint   `json:"userId" validate:"required,min=1"`
	Message string `json:"message" validate:"required,max=2000"`
}

// CreateNotification handles POST /api/notifications
// Persists the notification and pushes it when the recipient is connected
func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	if _, ok := middleware.GetUserID(c); !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateNotificationRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	notification, err := h.notificationService.Notify(c.UserContext(), req.UserID, req.Message)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create notification")
	}

	return response.Created(c, notification.ToResponse())
}

// GetNotifications handles GET /api/notifications
// Returns all notifications for the authenticated user
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	unreadOnly := c.Query("unread_only") == "true"
	category := c.Query("category")
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	if limit > 100 {
		limit = 100
	}

	notifications, total, err := h.notificationService.GetNotificationsByUser(c.UserContext(), services.ListNotificationsOptions{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Category:   category,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch notifications")
	}

	responseData := make([]model.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responseData = append(responseData, n.ToResponse())
	}

	unreadCount, err := h.notificationService.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch notifications")
	}

	return response.Success(c, fiber.Map{
		"notifications": responseData,
		"total":         total,
		"unread_count":  unreadCount,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	count, err := h.notificationService.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to get unread count")
	}

	return response.Success(c, fiber.Map{
		"unread_count": count,
	})
}

// MarkAsRead handles PATCH /api/notifications/:id/read
// Only the recipient may mark a notification read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	notificationID, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid notification ID")
	}

	notification, err := h.notificationService.MarkAsRead(c.UserContext(), userID, notificationID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to mark notification as read")
	}

	return response.SuccessWithMessage(c, "Notification marked as read", notification.ToResponse())
}

// MarkAllAsRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	count, err := h.notificationService.MarkAllAsRead(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to mark all notifications as read")
	}

	return response.Success(c, fiber.Map{
		"message": "All notifications marked as read",
		"count":   count,
	})
}
