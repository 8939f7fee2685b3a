package model

import "time"

// EnrollmentStatus is the learning state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
)

// Enrollment links a user to a course they bought or joined
type Enrollment struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	UserID           uint             `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID         uint             `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	PaymentStatus    PaymentStatus    `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	TransactionCode  string           `gorm:"type:varchar(100)" json:"transaction_code"`
	PaymentMethod    string           `gorm:"type:varchar(50)" json:"payment_method"`
	Status           EnrollmentStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	Progress         int              `gorm:"default:0" json:"progress"` // 0-100
	CompletedLessons int              `gorm:"default:0" json:"completed_lessons"`
	TotalLessons     int              `gorm:"default:0" json:"total_lessons"`
	TimeSpent        int              `gorm:"default:0" json:"time_spent"` // minutes
	Grade            int              `gorm:"default:0" json:"grade"`      // 0-100
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	ApprovedBy       *uint            `json:"approved_by,omitempty"`

	// Relationships
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
