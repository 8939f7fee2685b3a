package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
)

// ContributionService accepts pledges to projects
type ContributionService struct {
	db *gorm.DB
}

// NewContributionService creates a new contribution service
func NewContributionService(db *gorm.DB) *ContributionService {
	return &ContributionService{db: db}
}

// SubmitContributionInput describes a new pledge
type SubmitContributionInput struct {
	ProjectID       uint
	Amount          float64
	Type            model.ContributionType
	Description     string
	TransactionCode string
	PaymentMethod   string
}

// SubmitContribution records a pending contribution. Project aggregates are
// untouched until an admin approves it. Non-monetary amounts are stored as
// given.
func (s *ContributionService) SubmitContribution(ctx context.Context, userID uint, in SubmitContributionInput) (*model.Contribution, error) {
	if !model.ValidContributionType(in.Type) {
		return nil, fmt.Errorf("%w: type must be monetary, time or resource", ErrValidation)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	code := strings.TrimSpace(in.TransactionCode)
	if in.Type == model.ContributionTypeMonetary && code == "" {
		return nil, fmt.Errorf("%w: transaction_code is required for monetary contributions", ErrValidation)
	}

	var project model.Project
	if err := s.db.WithContext(ctx).Select("id").First(&project, in.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", in.ProjectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	method := in.PaymentMethod
	if method == "" && in.Type == model.ContributionTypeMonetary {
		method = "mpesa"
	}

	contribution := &model.Contribution{
		UserID:          userID,
		ProjectID:       in.ProjectID,
		Amount:          in.Amount,
		Type:            in.Type,
		PaymentStatus:   model.PaymentStatusPending,
		TransactionCode: code,
		PaymentMethod:   method,
		Description:     in.Description,
	}

	if err := s.db.WithContext(ctx).Create(contribution).Error; err != nil {
		return nil, fmt.Errorf("failed to create contribution: %w", err)
	}
	return contribution, nil
}

// ListProjectContributions returns a project's contributions, newest first
func (s *ContributionService) ListProjectContributions(ctx context.Context, projectID uint) ([]model.Contribution, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}

	var contributions []model.Contribution
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&contributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}

	// transaction references are private to the payer and admins
	for i := range contributions {
		contributions[i].TransactionCode = ""
	}
	return contributions, nil
}

// ListUserContributions returns the caller's own contributions
func (s *ContributionService) ListUserContributions(ctx context.Context, userID uint) ([]model.Contribution, error) {
	var contributions []model.Contribution
	err := s.db.WithContext(ctx).
		Preload("Project", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "sdg_id", "status") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&contributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	return contributions, nil
}
