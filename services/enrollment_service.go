package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
)

// EnrollmentService handles course purchases and learning progress
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// SubmitEnrollmentInput describes an enrollment request
type SubmitEnrollmentInput struct {
	CourseID        uint
	TransactionCode string
	PaymentMethod   string
}

// ProgressInput carries optional progress-tracking fields
type ProgressInput struct {
	CompletedLessons *int
	TimeSpent        *int
	Grade            *int
}

// SubmitEnrollment enrolls a user in a course. Free courses complete payment
// immediately; paid courses need a transaction code and wait for approval.
func (s *EnrollmentService) SubmitEnrollment(ctx context.Context, userID uint, in SubmitEnrollmentInput) (*model.Enrollment, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, in.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", in.CourseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	var existing int64
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, in.CourseID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateEnrollment
	}

	enrollment := &model.Enrollment{
		UserID:        userID,
		CourseID:      course.ID,
		Status:        model.EnrollmentStatusActive,
		TotalLessons:  course.TotalLessons,
		PaymentMethod: in.PaymentMethod,
	}

	if course.IsFree() {
		enrollment.PaymentStatus = model.PaymentStatusCompleted
		enrollment.PaymentMethod = "free"
	} else {
		code := strings.TrimSpace(in.TransactionCode)
		if code == "" {
			return nil, fmt.Errorf("%w: transaction_code is required for paid courses", ErrValidation)
		}
		enrollment.PaymentStatus = model.PaymentStatusPending
		enrollment.TransactionCode = code
		if enrollment.PaymentMethod == "" {
			enrollment.PaymentMethod = "mpesa"
		}
	}

	if err := s.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		// lost a race with a concurrent request for the same pair
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	enrollment.Course = &course
	return enrollment, nil
}

// ListUserEnrollments returns the caller's enrollments with their courses
func (s *EnrollmentService) ListUserEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateProgress records learning progress on the caller's own enrollment.
// Reaching 100% marks the enrollment completed.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, userID, enrollmentID uint, in ProgressInput) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	if enrollment.UserID != userID {
		return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrForbidden)
	}
	if enrollment.PaymentStatus != model.PaymentStatusCompleted {
		return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrPaymentIncomplete)
	}

	if in.CompletedLessons != nil {
		n := *in.CompletedLessons
		if n < 0 || (enrollment.TotalLessons > 0 && n > enrollment.TotalLessons) {
			return nil, fmt.Errorf("%w: completed_lessons must be between 0 and %d", ErrValidation, enrollment.TotalLessons)
		}
		enrollment.CompletedLessons = n
		enrollment.Progress = LessonProgress(n, enrollment.TotalLessons)
	}
	if in.TimeSpent != nil {
		if *in.TimeSpent < 0 {
			return nil, fmt.Errorf("%w: time_spent must not be negative", ErrValidation)
		}
		enrollment.TimeSpent = *in.TimeSpent
	}
	if in.Grade != nil {
		if *in.Grade < 0 || *in.Grade > 100 {
			return nil, fmt.Errorf("%w: grade must be between 0 and 100", ErrValidation)
		}
		enrollment.Grade = *in.Grade
	}

	if enrollment.Progress >= 100 {
		enrollment.Status = model.EnrollmentStatusCompleted
	}

	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"completed_lessons": enrollment.CompletedLessons,
			"progress":          enrollment.Progress,
			"time_spent":        enrollment.TimeSpent,
			"grade":             enrollment.Grade,
			"status":            enrollment.Status,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return &enrollment, nil
}
