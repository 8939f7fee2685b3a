package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog records privileged actions such as payment approvals
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"admin_id"`
	Action      string         `gorm:"type:varchar(100);not null" json:"action"` // e.g., "payment_approve"
	Resource    string         `gorm:"type:varchar(100)" json:"resource"`        // e.g., "contributions", "enrollments"
	ResourceID  uint           `json:"resource_id"`
	Payload     datatypes.JSON `json:"payload,omitempty"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string         `gorm:"type:text" json:"user_agent"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`

	// Relationships
	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
