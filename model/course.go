package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a course listed in the marketplace
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"type:varchar(100);index" json:"category"`
	Level        string         `gorm:"type:varchar(20);default:'beginner'" json:"level"` // beginner, intermediate, advanced
	Price        float64        `gorm:"not null;default:0" json:"price"`                  // 0 means free
	InstructorID *uint          `gorm:"index" json:"instructor_id,omitempty"`
	TotalLessons int            `gorm:"default:0" json:"total_lessons"`
	Duration     int            `gorm:"default:0" json:"duration"` // Duration in hours

	// Relationships
	Instructor  *User        `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsFree reports whether the course can be enrolled without payment
func (c *Course) IsFree() bool {
	return c.Price == 0
}
