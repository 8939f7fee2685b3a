package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
)

// CourseService manages the course catalog
type CourseService struct {
	db *gorm.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// CourseInput carries catalog fields; nil pointers are left unchanged on update
type CourseInput struct {
	Title        *string
	Description  *string
	Category     *string
	Level        *string
	Price        *float64
	InstructorID *uint
	TotalLessons *int
	Duration     *int
}

// CourseFilter narrows ListCourses
type CourseFilter struct {
	Search   string
	Category string
	Level    string
	Page     int
	Limit    int
}

// ListCourses returns a page of courses, newest first
func (s *CourseService) ListCourses(ctx context.Context, f CourseFilter) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Course{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Level != "" {
		query = query.Where("level = ?", f.Level)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	page, limit := normalizePage(f.Page, f.Limit)
	err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

// GetCourse loads one course with its instructor
func (s *CourseService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	return &course, nil
}

func applyCourseInput(course *model.Course, in CourseInput) error {
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		course.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		course.Description = *in.Description
	}
	if in.Category != nil {
		course.Category = *in.Category
	}
	if in.Level != nil {
		course.Level = *in.Level
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		course.Price = *in.Price
	}
	if in.InstructorID != nil {
		course.InstructorID = in.InstructorID
	}
	if in.TotalLessons != nil {
		if *in.TotalLessons < 0 {
			return fmt.Errorf("%w: total_lessons must not be negative", ErrValidation)
		}
		course.TotalLessons = *in.TotalLessons
	}
	if in.Duration != nil {
		course.Duration = *in.Duration
	}
	return nil
}

// CreateCourse adds a course to the catalog
func (s *CourseService) CreateCourse(ctx context.Context, in CourseInput) (*model.Course, error) {
	course := &model.Course{Level: "beginner"}
	if in.Title == nil {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := applyCourseInput(course, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

// UpdateCourse edits catalog fields. Existing enrollments keep their
// recorded total_lessons.
func (s *CourseService) UpdateCourse(ctx context.Context, id uint, in CourseInput) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	if err := applyCourseInput(&course, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(&course).Error; err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return &course, nil
}
