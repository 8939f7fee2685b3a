package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pusher delivers a persisted notification to a live connection. Push
// reports whether the notification was handed to a transport.
type Pusher interface {
	Push(userID uint, notification model.NotificationResponse) bool
}

// NotificationService handles user notifications
type NotificationService struct {
	db     *gorm.DB
	pusher Pusher
}

// NewNotificationService creates a new notification service. pusher may be
// nil, in which case notifications are only persisted.
func NewNotificationService(db *gorm.DB, pusher Pusher) *NotificationService {
	return &NotificationService{db: db, pusher: pusher}
}

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	UserID   uint
	Type     model.NotificationType
	Category model.NotificationCategory
	Title    string
	Message  string
	Metadata *model.NotificationMetadata
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	UserID     uint
	UnreadOnly bool
	Category   string
	Limit      int
	Offset     int
}

// Notify persists a general notification for userID and pushes it live when
// the user has a registered connection.
func (s *NotificationService) Notify(ctx context.Context, userID uint, message string) (*model.UserNotification, error) {
	return s.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   userID,
		Type:     model.NotificationTypeInfo,
		Category: model.NotificationCategoryGeneral,
		Message:  message,
	})
}

// CreateNotification persists a notification, then pushes it. A missing
// live connection is not an error; the row stays readable.
func (s *NotificationService) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*model.UserNotification, error) {
	if req.UserID == 0 || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: user and message are required", ErrValidation)
	}

	var recipient model.User
	if err := s.db.WithContext(ctx).Select("id").First(&recipient, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipient %d: %w", req.UserID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}

	if req.Type == "" {
		req.Type = model.NotificationTypeInfo
	}
	if req.Category == "" {
		req.Category = model.NotificationCategoryGeneral
	}

	notification := &model.UserNotification{
		UserID:   req.UserID,
		Type:     req.Type,
		Category: req.Category,
		Title:    req.Title,
		Message:  req.Message,
		Read:     false,
	}

	if req.Metadata != nil {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	delivered := false
	if s.pusher != nil {
		delivered = s.pusher.Push(notification.UserID, notification.ToResponse())
	}
	logger.Debug("notification %d for user %d created (live=%t)", notification.ID, notification.UserID, delivered)

	return notification, nil
}

// GetNotificationsByUser retrieves notifications for a user, newest first
func (s *NotificationService) GetNotificationsByUser(ctx context.Context, opts ListNotificationsOptions) ([]model.UserNotification, int64, error) {
	var notifications []model.UserNotification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ?", opts.UserID)

	// map conditions keep the "read" column quoted on every dialect
	if opts.UnreadOnly {
		query = query.Where(map[string]interface{}{"read": false})
	}

	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query = query.Limit(limit)
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get notifications: %w", err)
	}

	return notifications, total, nil
}

// GetUnreadCount returns the number of unread notifications for a user
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ?", userID).
		Where(map[string]interface{}{"read": false}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead flips read on one notification owned by userID
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uint) (*model.UserNotification, error) {
	var notification model.UserNotification
	if err := s.db.WithContext(ctx).First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}

	if notification.UserID != userID {
		return nil, fmt.Errorf("notification %d: %w", notificationID, ErrForbidden)
	}

	if !notification.Read {
		if err := s.db.WithContext(ctx).Model(&notification).Update("read", true).Error; err != nil {
			return nil, fmt.Errorf("failed to mark notification as read: %w", err)
		}
		notification.Read = true
	}

	return &notification, nil
}

// MarkAllAsRead marks every unread notification of a user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ?", userID).
		Where(map[string]interface{}{"read": false}).
		Update("read", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}

	return result.RowsAffected, nil
}
