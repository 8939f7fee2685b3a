package model

import "time"

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusPaused    ProjectStatus = "paused"
)

// Project is an SDG-themed crowdfunding project
type Project struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	SDGID         int            `gorm:"column:sdg_id;not null;index" json:"sdg_id"` // 1-17
	CreatorID     uint           `gorm:"not null;index" json:"creator_id"`
	Status        ProjectStatus  `gorm:"type:varchar(20);default:'active'" json:"status"`
	TargetAmount  float64        `gorm:"not null;default:0" json:"target_amount"`
	CurrentAmount float64        `gorm:"not null;default:0" json:"current_amount"`
	Progress      int            `gorm:"not null;default:0" json:"progress"` // 0-100

	// Relationships
	Creator       *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Contributions []Contribution `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

// ValidProjectStatus reports whether s is a known project status
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusPaused:
		return true
	}
	return false
}
