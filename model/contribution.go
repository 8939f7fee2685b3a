package model

import "time"

// ContributionType is the kind of support pledged to a project
type ContributionType string

const (
	ContributionTypeMonetary ContributionType = "monetary"
	ContributionTypeTime     ContributionType = "time"
	ContributionTypeResource ContributionType = "resource"
)

// PaymentStatus is shared by contributions and enrollments
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Contribution is a pledge of money, time or resources to a project
type Contribution struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	UserID          uint             `gorm:"not null;index" json:"user_id"`
	ProjectID       uint             `gorm:"not null;index" json:"project_id"`
	Amount          float64          `gorm:"not null;default:0" json:"amount"`
	Type            ContributionType `gorm:"type:varchar(20);not null;index" json:"type"`
	PaymentStatus   PaymentStatus    `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	TransactionCode string           `gorm:"type:varchar(100)" json:"transaction_code"` // M-Pesa reference
	PaymentMethod   string           `gorm:"type:varchar(50)" json:"payment_method"`
	Description     string           `gorm:"type:text" json:"description"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	ApprovedBy      *uint            `json:"approved_by,omitempty"`

	// Relationships
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// IsMonetary reports whether the contribution moves money into the project
func (c *Contribution) IsMonetary() bool {
	return c.Type == ContributionTypeMonetary
}

// ValidContributionType reports whether t is one of the known kinds
func ValidContributionType(t ContributionType) bool {
	switch t {
	case ContributionTypeMonetary, ContributionTypeTime, ContributionTypeResource:
		return true
	}
	return false
}
