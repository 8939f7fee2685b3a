package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType represents the type/severity of notification
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
)

// NotificationCategory groups notifications by the event that produced them
type NotificationCategory string

const (
	NotificationCategoryPayment      NotificationCategory = "payment"
	NotificationCategoryContribution NotificationCategory = "contribution"
	NotificationCategoryEnrollment   NotificationCategory = "enrollment"
	NotificationCategoryGeneral      NotificationCategory = "general"
)

// UserNotification is a message addressed to a single user. Rows are never
// deleted server-side; the only mutation is flipping Read.
type UserNotification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	UserID    uint                 `gorm:"index;not null" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null;default:'info'" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null;default:'general'" json:"category"`
	Title     string               `gorm:"type:varchar(255)" json:"title"`
	Message   string               `gorm:"type:text;not null" json:"message"`
	Read      bool                 `gorm:"default:false" json:"read"`
	Metadata  datatypes.JSON       `json:"metadata,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationMetadata represents common metadata fields
type NotificationMetadata struct {
	PaymentKind    string  `json:"payment_kind,omitempty"`
	PaymentID      uint    `json:"payment_id,omitempty"`
	ProjectID      uint    `json:"project_id,omitempty"`
	CourseID       uint    `json:"course_id,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	ProjectAmount  float64 `json:"project_amount,omitempty"`
	ProjectPercent int     `json:"project_progress,omitempty"`
}

// NotificationResponse represents the API response format for a notification
type NotificationResponse struct {
	ID        uint                 `json:"id"`
	UserID    uint                 `json:"user_id"`
	Type      NotificationType     `json:"type"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title,omitempty"`
	Message   string               `json:"message"`
	Read      bool                 `json:"read"`
	Metadata  datatypes.JSON       `json:"metadata,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// ToResponse converts a UserNotification to NotificationResponse
func (n *UserNotification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Category:  n.Category,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}
