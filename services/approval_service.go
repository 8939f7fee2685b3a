package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentRef identifies a payment awaiting approval. It is either an
// EnrollmentPayment or a ContributionPayment.
type PaymentRef interface {
	Kind() model.PaymentKind
	PaymentID() uint
}

// EnrollmentPayment refers to a pending course purchase
type EnrollmentPayment struct{ ID uint }

// ContributionPayment refers to a pending project contribution
type ContributionPayment struct{ ID uint }

func (p EnrollmentPayment) Kind() model.PaymentKind   { return model.PaymentKindEnrollment }
func (p EnrollmentPayment) PaymentID() uint           { return p.ID }
func (p ContributionPayment) Kind() model.PaymentKind { return model.PaymentKindContribution }
func (p ContributionPayment) PaymentID() uint         { return p.ID }

// ParsePaymentRef turns the wire pair {type, id} into a PaymentRef
func ParsePaymentRef(kind string, id uint) (PaymentRef, error) {
	switch model.PaymentKind(kind) {
	case model.PaymentKindEnrollment:
		return EnrollmentPayment{ID: id}, nil
	case model.PaymentKindContribution:
		return ContributionPayment{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentType, kind)
}

// Locker provides best-effort mutual exclusion across instances
type Locker interface {
	TryLock(ctx context.Context, key string) (bool, func(), error)
}

// Actor describes the admin performing an approval, for the audit trail
type Actor struct {
	UserID    uint
	IPAddress string
	UserAgent string
}

// ApprovalResult reports the state after an approval
type ApprovalResult struct {
	Kind          model.PaymentKind   `json:"type"`
	ID            uint                `json:"id"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Enrollment    *model.Enrollment   `json:"enrollment,omitempty"`
	Contribution  *model.Contribution `json:"contribution,omitempty"`
	Project       *model.Project      `json:"project,omitempty"`
}

// ApprovalService is the only writer of project financial aggregates
type ApprovalService struct {
	db            *gorm.DB
	notifications *NotificationService
	locker        Locker
}

// NewApprovalService creates a new approval service. notifications and
// locker may be nil.
func NewApprovalService(db *gorm.DB, notifications *NotificationService, locker Locker) *ApprovalService {
	return &ApprovalService{db: db, notifications: notifications, locker: locker}
}

// ListPendingPayments merges pending monetary contributions and pending
// enrollments, newest first. The list is not paginated.
func (s *ApprovalService) ListPendingPayments(ctx context.Context) ([]model.PendingPayment, error) {
	userSummary := func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }

	var contributions []model.Contribution
	err := s.db.WithContext(ctx).
		Preload("User", userSummary).
		Preload("Project", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Where("payment_status = ? AND type = ?", model.PaymentStatusPending, model.ContributionTypeMonetary).
		Find(&contributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending contributions: %w", err)
	}

	var enrollments []model.Enrollment
	err = s.db.WithContext(ctx).
		Preload("User", userSummary).
		Preload("Course", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "price") }).
		Where("payment_status = ?", model.PaymentStatusPending).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending enrollments: %w", err)
	}

	pending := make([]model.PendingPayment, 0, len(contributions)+len(enrollments))
	for _, c := range contributions {
		p := model.PendingPayment{
			Kind:            model.PaymentKindContribution,
			ID:              c.ID,
			Amount:          c.Amount,
			TransactionCode: c.TransactionCode,
			PaymentMethod:   c.PaymentMethod,
			PaymentStatus:   string(c.PaymentStatus),
			ProjectID:       c.ProjectID,
			CreatedAt:       c.CreatedAt,
		}
		if c.User != nil {
			p.User = model.UserSummary{ID: c.User.ID, Name: c.User.Name, Email: c.User.Email}
		}
		if c.Project != nil {
			p.ProjectTitle = c.Project.Title
		}
		pending = append(pending, p)
	}
	for _, e := range enrollments {
		p := model.PendingPayment{
			Kind:            model.PaymentKindEnrollment,
			ID:              e.ID,
			TransactionCode: e.TransactionCode,
			PaymentMethod:   e.PaymentMethod,
			PaymentStatus:   string(e.PaymentStatus),
			CourseID:        e.CourseID,
			CreatedAt:       e.CreatedAt,
		}
		if e.User != nil {
			p.User = model.UserSummary{ID: e.User.ID, Name: e.User.Name, Email: e.User.Email}
		}
		if e.Course != nil {
			p.CourseTitle = e.Course.Title
			p.Amount = e.Course.Price
		}
		pending = append(pending, p)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		}
		return pending[i].ID > pending[j].ID
	})

	return pending, nil
}

// ApprovePayment moves a pending payment to completed. The status flip, the
// project increment and the audit entry commit together; a payment that is
// no longer pending yields ErrAlreadyProcessed, so an amount is applied at
// most once. The payer is notified after commit.
func (s *ApprovalService) ApprovePayment(ctx context.Context, actor Actor, ref PaymentRef) (*ApprovalResult, error) {
	if ref == nil {
		return nil, ErrInvalidPaymentType
	}

	if s.locker != nil {
		key := fmt.Sprintf("approval:%s:%d", ref.Kind(), ref.PaymentID())
		acquired, release, err := s.locker.TryLock(ctx, key)
		switch {
		case err != nil:
			// the conditional update below still guards correctness
			logger.Warn("approval lock unavailable for %s: %v", key, err)
		case !acquired:
			return nil, ErrApprovalInProgress
		default:
			defer release()
		}
	}

	var (
		result *ApprovalResult
		payer  uint
		notice CreateNotificationRequest
	)
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch p := ref.(type) {
		case EnrollmentPayment:
			result, notice, err = approveEnrollment(tx, p, actor.UserID, now)
		case ContributionPayment:
			result, notice, err = approveContribution(tx, p, actor.UserID, now)
		default:
			return ErrInvalidPaymentType
		}
		if err != nil {
			return err
		}
		payer = notice.UserID
		return writeApprovalAudit(tx, actor, ref, result)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("admin %d approved %s %d", actor.UserID, ref.Kind(), ref.PaymentID())

	if s.notifications != nil && payer != 0 {
		if _, nerr := s.notifications.CreateNotification(ctx, notice); nerr != nil {
			logger.Warn("failed to notify user %d about %s %d: %v", payer, ref.Kind(), ref.PaymentID(), nerr)
		}
	}

	return result, nil
}

func approveEnrollment(tx *gorm.DB, p EnrollmentPayment, adminID uint, now time.Time) (*ApprovalResult, CreateNotificationRequest, error) {
	var notice CreateNotificationRequest

	var enrollment model.Enrollment
	if err := tx.Preload("Course").First(&enrollment, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notice, fmt.Errorf("enrollment %d: %w", p.ID, ErrNotFound)
		}
		return nil, notice, fmt.Errorf("failed to load enrollment: %w", err)
	}

	res := tx.Model(&model.Enrollment{}).
		Where("id = ? AND payment_status = ?", p.ID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusCompleted,
			"status":         model.EnrollmentStatusActive,
			"approved_at":    now,
			"approved_by":    adminID,
		})
	if res.Error != nil {
		return nil, notice, fmt.Errorf("failed to approve enrollment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notice, fmt.Errorf("enrollment %d: %w", p.ID, ErrAlreadyProcessed)
	}

	enrollment.PaymentStatus = model.PaymentStatusCompleted
	enrollment.Status = model.EnrollmentStatusActive
	enrollment.ApprovedAt = &now
	enrollment.ApprovedBy = &adminID

	title := "your course"
	var price float64
	if enrollment.Course != nil {
		title = fmt.Sprintf("%q", enrollment.Course.Title)
		price = enrollment.Course.Price
	}
	notice = CreateNotificationRequest{
		UserID:   enrollment.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryEnrollment,
		Title:    "Enrollment approved",
		Message:  fmt.Sprintf("Your payment for %s has been approved. You now have full access.", title),
		Metadata: &model.NotificationMetadata{
			PaymentKind: string(model.PaymentKindEnrollment),
			PaymentID:   enrollment.ID,
			CourseID:    enrollment.CourseID,
			Amount:      price,
		},
	}

	return &ApprovalResult{
		Kind:          model.PaymentKindEnrollment,
		ID:            enrollment.ID,
		PaymentStatus: enrollment.PaymentStatus,
		Enrollment:    &enrollment,
	}, notice, nil
}

func approveContribution(tx *gorm.DB, p ContributionPayment, adminID uint, now time.Time) (*ApprovalResult, CreateNotificationRequest, error) {
	var notice CreateNotificationRequest

	var contribution model.Contribution
	if err := tx.First(&contribution, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notice, fmt.Errorf("contribution %d: %w", p.ID, ErrNotFound)
		}
		return nil, notice, fmt.Errorf("failed to load contribution: %w", err)
	}

	res := tx.Model(&model.Contribution{}).
		Where("id = ? AND payment_status = ?", p.ID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusCompleted,
			"approved_at":    now,
			"approved_by":    adminID,
		})
	if res.Error != nil {
		return nil, notice, fmt.Errorf("failed to approve contribution: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notice, fmt.Errorf("contribution %d: %w", p.ID, ErrAlreadyProcessed)
	}

	contribution.PaymentStatus = model.PaymentStatusCompleted
	contribution.ApprovedAt = &now
	contribution.ApprovedBy = &adminID

	var project model.Project
	if contribution.IsMonetary() {
		res := tx.Model(&model.Project{}).
			Where("id = ?", contribution.ProjectID).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount + ?", contribution.Amount),
			})
		if res.Error != nil {
			return nil, notice, fmt.Errorf("failed to apply contribution to project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, notice, fmt.Errorf("project %d: %w", contribution.ProjectID, ErrNotFound)
		}
		if err := recomputeProgress(tx, contribution.ProjectID); err != nil {
			return nil, notice, fmt.Errorf("failed to recompute progress: %w", err)
		}
	}

	if err := tx.First(&project, contribution.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notice, fmt.Errorf("project %d: %w", contribution.ProjectID, ErrNotFound)
		}
		return nil, notice, fmt.Errorf("failed to load project: %w", err)
	}

	message := fmt.Sprintf("Your %s contribution to %q has been approved. Thank you!", contribution.Type, project.Title)
	if contribution.IsMonetary() {
		message = fmt.Sprintf("Your contribution of KES %s to %q has been approved. The project is now %d%% funded.",
			decimal.NewFromFloat(contribution.Amount).StringFixed(2), project.Title, project.Progress)
	}
	notice = CreateNotificationRequest{
		UserID:   contribution.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryContribution,
		Title:    "Contribution approved",
		Message:  message,
		Metadata: &model.NotificationMetadata{
			PaymentKind:    string(model.PaymentKindContribution),
			PaymentID:      contribution.ID,
			ProjectID:      project.ID,
			Amount:         contribution.Amount,
			ProjectAmount:  project.CurrentAmount,
			ProjectPercent: project.Progress,
		},
	}

	return &ApprovalResult{
		Kind:          model.PaymentKindContribution,
		ID:            contribution.ID,
		PaymentStatus: contribution.PaymentStatus,
		Contribution:  &contribution,
		Project:       &project,
	}, notice, nil
}

func writeApprovalAudit(tx *gorm.DB, actor Actor, ref PaymentRef, result *ApprovalResult) error {
	resource := "enrollments"
	if ref.Kind() == model.PaymentKindContribution {
		resource = "contributions"
	}

	payload := map[string]interface{}{
		"type":           ref.Kind(),
		"id":             ref.PaymentID(),
		"payment_status": result.PaymentStatus,
	}
	if result.Contribution != nil {
		payload["amount"] = result.Contribution.Amount
		payload["contribution_type"] = result.Contribution.Type
	}
	if result.Project != nil {
		payload["project_current_amount"] = result.Project.CurrentAmount
		payload["project_progress"] = result.Project.Progress
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	entry := model.AdminAuditLog{
		AdminID:     actor.UserID,
		Action:      "payment_approve",
		Resource:    resource,
		ResourceID:  ref.PaymentID(),
		Payload:     datatypes.JSON(raw),
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		Description: fmt.Sprintf("approved %s %d", ref.Kind(), ref.PaymentID()),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
