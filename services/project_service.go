package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"gorm.io/gorm"
)

// ProjectService manages SDG crowdfunding projects
type ProjectService struct {
	db *gorm.DB
}

// NewProjectService creates a new project service
func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// CreateProjectInput carries the fields a creator may set
type CreateProjectInput struct {
	Title        string
	Description  string
	SDGID        int
	TargetAmount float64
}

// UpdateProjectInput carries optional edits. Financial aggregates are not
// editable here.
type UpdateProjectInput struct {
	Title        *string
	Description  *string
	SDGID        *int
	Status       *model.ProjectStatus
	TargetAmount *float64
}

// ProjectFilter narrows ListProjects
type ProjectFilter struct {
	SDGID     int
	Status    string
	CreatorID uint
	Search    string
	Page      int
	Limit     int
}

func validSDG(id int) bool {
	return id >= 1 && id <= 17
}

// CreateProject creates an active project with zero raised
func (s *ProjectService) CreateProject(ctx context.Context, creatorID uint, in CreateProjectInput) (*model.Project, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !validSDG(in.SDGID) {
		return nil, fmt.Errorf("%w: sdg_id must be between 1 and 17", ErrValidation)
	}
	if in.TargetAmount < 0 {
		return nil, fmt.Errorf("%w: target_amount must not be negative", ErrValidation)
	}

	project := &model.Project{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		SDGID:        in.SDGID,
		CreatorID:    creatorID,
		Status:       model.ProjectStatusActive,
		TargetAmount: in.TargetAmount,
	}

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject loads a project with its creator
func (s *ProjectService) GetProject(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).
		Preload("Creator", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// ListProjects returns a page of projects, newest first
func (s *ProjectService) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Project{})
	if f.SDGID > 0 {
		query = query.Where("sdg_id = ?", f.SDGID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.CreatorID > 0 {
		query = query.Where("creator_id = ?", f.CreatorID)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	page, limit := normalizePage(f.Page, f.Limit)
	err := query.
		Preload("Creator", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, total, nil
}

// loadOwned loads a project and checks the actor may change it
func (s *ProjectService) loadOwned(ctx context.Context, actor *model.User, id uint) (*model.Project, error) {
	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project.CreatorID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("project %d: %w", id, ErrForbidden)
	}
	return &project, nil
}

// UpdateProject applies creator edits. Changing the target recomputes
// progress from the stored current amount.
func (s *ProjectService) UpdateProject(ctx context.Context, actor *model.User, id uint, in UpdateProjectInput) (*model.Project, error) {
	project, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.SDGID != nil {
		if !validSDG(*in.SDGID) {
			return nil, fmt.Errorf("%w: sdg_id must be between 1 and 17", ErrValidation)
		}
		updates["sdg_id"] = *in.SDGID
	}
	if in.Status != nil {
		if !model.ValidProjectStatus(*in.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		updates["status"] = *in.Status
	}
	if in.TargetAmount != nil {
		if *in.TargetAmount < 0 {
			return nil, fmt.Errorf("%w: target_amount must not be negative", ErrValidation)
		}
		updates["target_amount"] = *in.TargetAmount
	}

	if len(updates) == 0 {
		return project, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if in.TargetAmount == nil {
			return nil
		}
		return recomputeProgress(tx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.GetProject(ctx, id)
}

// DeleteProject removes a project and its contributions
func (s *ProjectService) DeleteProject(ctx context.Context, actor *model.User, id uint) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.Contribution{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// recomputeProgress re-derives progress from the stored amounts. It must run
// inside the transaction that changed them.
func recomputeProgress(tx *gorm.DB, projectID uint) error {
	var project model.Project
	if err := tx.Select("id", "current_amount", "target_amount", "progress").First(&project, projectID).Error; err != nil {
		return err
	}

	progress := ComputeProgress(project.CurrentAmount, project.TargetAmount, project.Progress)
	if progress == project.Progress {
		return nil
	}
	return tx.Model(&model.Project{}).Where("id = ?", projectID).Update("progress", progress).Error
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = response.DefaultPageSize
	}
	if limit > response.MaxPageSize {
		limit = response.MaxPageSize
	}
	return page, limit
}
