package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/educonnect-api/model"
)

func TestParsePaymentRef(t *testing.T) {
	tests := []struct {
		kind    string
		id      uint
		want    PaymentRef
		wantErr bool
	}{
		{"enrollment", 3, EnrollmentPayment{ID: 3}, false},
		{"contribution", 7, ContributionPayment{ID: 7}, false},
		{"refund", 1, nil, true},
		{"", 1, nil, true},
		{"Contribution", 1, nil, true},
	}

	for _, tt := range tests {
		got, err := ParsePaymentRef(tt.kind, tt.id)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPaymentType) {
				t.Errorf("ParsePaymentRef(%q) error = %v, want ErrInvalidPaymentType", tt.kind, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePaymentRef(%q) unexpected error: %v", tt.kind, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePaymentRef(%q) = %#v, want %#v", tt.kind, got, tt.want)
		}
	}
}

func TestSubmittedContributionDoesNotMoveProject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := createUser(t, db, "creator", model.RoleStudent)
	donor := createUser(t, db, "donor", model.RoleStudent)
	project := createProject(t, db, creator.ID, 1000)

	contribution, err := NewContributionService(db).SubmitContribution(ctx, donor.ID, SubmitContributionInput{
		ProjectID:       project.ID,
		Amount:          250,
		Type:            model.ContributionTypeMonetary,
		TransactionCode: "QWE123RTY",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}
	if contribution.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("payment_status = %q, want pending", contribution.PaymentStatus)
	}
	if contribution.PaymentMethod != "mpesa" {
		t.Errorf("payment_method = %q, want mpesa", contribution.PaymentMethod)
	}

	got := loadProject(t, db, project.ID)
	if got.CurrentAmount != 0 || got.Progress != 0 {
		t.Errorf("project = %.2f/%d%%, want untouched", got.CurrentAmount, got.Progress)
	}
}

func TestSubmitContributionValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := createUser(t, db, "creator", model.RoleStudent)
	project := createProject(t, db, creator.ID, 1000)
	svc := NewContributionService(db)

	tests := []struct {
		name string
		in   SubmitContributionInput
		want error
	}{
		{"monetary without code", SubmitContributionInput{ProjectID: project.ID, Amount: 10, Type: model.ContributionTypeMonetary}, ErrValidation},
		{"unknown type", SubmitContributionInput{ProjectID: project.ID, Amount: 10, Type: "crypto"}, ErrValidation},
		{"negative amount", SubmitContributionInput{ProjectID: project.ID, Amount: -5, Type: model.ContributionTypeTime}, ErrValidation},
		{"missing project", SubmitContributionInput{ProjectID: 9999, Amount: 10, Type: model.ContributionTypeTime}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitContribution(ctx, creator.ID, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApproveContributionAppliesAmountOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	donor := createUser(t, db, "donor", model.RoleStudent)
	project := createProject(t, db, creator.ID, 1000)

	contribution, err := NewContributionService(db).SubmitContribution(ctx, donor.ID, SubmitContributionInput{
		ProjectID:       project.ID,
		Amount:          250,
		Type:            model.ContributionTypeMonetary,
		TransactionCode: "QWE123RTY",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}

	pusher := newFakePusher(donor.ID)
	svc := NewApprovalService(db, NewNotificationService(db, pusher), nil)
	actor := Actor{UserID: admin.ID, IPAddress: "10.0.0.1", UserAgent: "test"}

	result, err := svc.ApprovePayment(ctx, actor, ContributionPayment{ID: contribution.ID})
	if err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}
	if result.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("result status = %q, want completed", result.PaymentStatus)
	}
	if result.Project == nil || result.Project.CurrentAmount != 250 || result.Project.Progress != 25 {
		t.Fatalf("result project = %+v, want 250 at 25%%", result.Project)
	}

	// second approval must not double count
	_, err = svc.ApprovePayment(ctx, actor, ContributionPayment{ID: contribution.ID})
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second ApprovePayment error = %v, want ErrAlreadyProcessed", err)
	}

	got := loadProject(t, db, project.ID)
	if got.CurrentAmount != 250 || got.Progress != 25 {
		t.Errorf("project = %.2f/%d%%, want 250.00/25%%", got.CurrentAmount, got.Progress)
	}

	var stored model.Contribution
	if err := db.First(&stored, contribution.ID).Error; err != nil {
		t.Fatalf("load contribution: %v", err)
	}
	if stored.PaymentStatus != model.PaymentStatusCompleted || stored.ApprovedBy == nil || *stored.ApprovedBy != admin.ID {
		t.Errorf("stored contribution = %+v, want completed by admin", stored)
	}

	var audits int64
	db.Model(&model.AdminAuditLog{}).Where("action = ? AND resource_id = ?", "payment_approve", contribution.ID).Count(&audits)
	if audits != 1 {
		t.Errorf("audit entries = %d, want 1", audits)
	}

	var notes []model.UserNotification
	db.Where("user_id = ?", donor.ID).Find(&notes)
	if len(notes) != 1 {
		t.Fatalf("donor notifications = %d, want 1", len(notes))
	}
	if !strings.Contains(notes[0].Message, "KES 250.00") || !strings.Contains(notes[0].Message, "25%") {
		t.Errorf("notification message = %q", notes[0].Message)
	}
	if live := pusher.pushesFor(donor.ID); len(live) != 1 || live[0].ID != notes[0].ID {
		t.Errorf("live pushes = %+v, want the persisted notification", live)
	}
}

func TestApproveContributionConcurrently(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	donor := createUser(t, db, "donor", model.RoleStudent)
	project := createProject(t, db, creator.ID, 400)

	contribution, err := NewContributionService(db).SubmitContribution(ctx, donor.ID, SubmitContributionInput{
		ProjectID:       project.ID,
		Amount:          100,
		Type:            model.ContributionTypeMonetary,
		TransactionCode: "ABC",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}

	svc := NewApprovalService(db, nil, nil)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		processed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApprovePayment(ctx, Actor{UserID: admin.ID}, ContributionPayment{ID: contribution.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyProcessed):
				processed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || processed != workers-1 {
		t.Errorf("succeeded = %d, already processed = %d", succeeded, processed)
	}

	got := loadProject(t, db, project.ID)
	if got.CurrentAmount != 100 || got.Progress != 25 {
		t.Errorf("project = %.2f/%d%%, want 100.00/25%%", got.CurrentAmount, got.Progress)
	}
}

func TestApproveDistinctContributionsConcurrently(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	project := createProject(t, db, creator.ID, 2000)

	contributions := NewContributionService(db)
	amounts := []float64{150, 250, 75.5, 300, 24.5}
	ids := make([]uint, 0, len(amounts))
	for i, amount := range amounts {
		donor := createUser(t, db, fmt.Sprintf("donor%d", i), model.RoleStudent)
		c, err := contributions.SubmitContribution(ctx, donor.ID, SubmitContributionInput{
			ProjectID:       project.ID,
			Amount:          amount,
			Type:            model.ContributionTypeMonetary,
			TransactionCode: fmt.Sprintf("QX%d", i),
		})
		if err != nil {
			t.Fatalf("SubmitContribution: %v", err)
		}
		ids = append(ids, c.ID)
	}

	svc := NewApprovalService(db, nil, nil)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := svc.ApprovePayment(ctx, Actor{UserID: admin.ID}, ContributionPayment{ID: id}); err != nil {
				t.Errorf("ApprovePayment(%d): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	got := loadProject(t, db, project.ID)
	if got.CurrentAmount != 800 || got.Progress != 40 {
		t.Errorf("project = %.2f/%d%%, want 800.00/40%%", got.CurrentAmount, got.Progress)
	}
}

func TestApproveNonMonetaryContribution(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	volunteer := createUser(t, db, "volunteer", model.RoleStudent)
	project := createProject(t, db, creator.ID, 1000)

	contribution, err := NewContributionService(db).SubmitContribution(ctx, volunteer.ID, SubmitContributionInput{
		ProjectID: project.ID,
		Amount:    12,
		Type:      model.ContributionTypeTime,
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}

	notifications := NewNotificationService(db, nil)
	result, err := NewApprovalService(db, notifications, nil).
		ApprovePayment(ctx, Actor{UserID: admin.ID}, ContributionPayment{ID: contribution.ID})
	if err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}
	if result.Project.CurrentAmount != 0 {
		t.Errorf("current_amount = %.2f, want 0 for time pledges", result.Project.CurrentAmount)
	}

	count, _ := notifications.GetUnreadCount(ctx, volunteer.ID)
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}
}

func TestApproveProgressCapsAtHundred(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	project := createProject(t, db, creator.ID, 100)

	contribution, err := NewContributionService(db).SubmitContribution(ctx, creator.ID, SubmitContributionInput{
		ProjectID:       project.ID,
		Amount:          150,
		Type:            model.ContributionTypeMonetary,
		TransactionCode: "OVER",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}

	if _, err := NewApprovalService(db, nil, nil).ApprovePayment(ctx, Actor{UserID: admin.ID}, ContributionPayment{ID: contribution.ID}); err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}

	got := loadProject(t, db, project.ID)
	if got.CurrentAmount != 150 || got.Progress != 100 {
		t.Errorf("project = %.2f/%d%%, want 150.00/100%%", got.CurrentAmount, got.Progress)
	}
}

func TestApproveZeroTargetKeepsProgress(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	project := createProject(t, db, creator.ID, 0)
	if err := db.Model(&model.Project{}).Where("id = ?", project.ID).Update("progress", 37).Error; err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	contribution, err := NewContributionService(db).SubmitContribution(ctx, creator.ID, SubmitContributionInput{
		ProjectID:       project.ID,
		Amount:          80,
		Type:            model.ContributionTypeMonetary,
		TransactionCode: "ZERO",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}

	if _, err := NewApprovalService(db, nil, nil).ApprovePayment(ctx, Actor{UserID: admin.ID}, ContributionPayment{ID: contribution.ID}); err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}

	got := loadProject(t, db, project.ID)
	if got.CurrentAmount != 80 || got.Progress != 37 {
		t.Errorf("project = %.2f/%d%%, want 80.00/37%%", got.CurrentAmount, got.Progress)
	}
}

func TestApproveEnrollmentGrantsAccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	student := createUser(t, db, "student", model.RoleStudent)
	course := createCourse(t, db, 1500, 10)

	enrollments := NewEnrollmentService(db)
	enrollment, err := enrollments.SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{
		CourseID:        course.ID,
		TransactionCode: "MPESA42",
	})
	if err != nil {
		t.Fatalf("SubmitEnrollment: %v", err)
	}
	if enrollment.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("payment_status = %q, want pending", enrollment.PaymentStatus)
	}

	done := 3
	if _, err := enrollments.UpdateProgress(ctx, student.ID, enrollment.ID, ProgressInput{CompletedLessons: &done}); !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("UpdateProgress before approval error = %v, want ErrPaymentIncomplete", err)
	}

	svc := NewApprovalService(db, NewNotificationService(db, nil), nil)
	result, err := svc.ApprovePayment(ctx, Actor{UserID: admin.ID}, EnrollmentPayment{ID: enrollment.ID})
	if err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}
	if result.Enrollment == nil || result.Enrollment.PaymentStatus != model.PaymentStatusCompleted {
		t.Fatalf("result enrollment = %+v, want completed", result.Enrollment)
	}

	updated, err := enrollments.UpdateProgress(ctx, student.ID, enrollment.ID, ProgressInput{CompletedLessons: &done})
	if err != nil {
		t.Fatalf("UpdateProgress after approval: %v", err)
	}
	if updated.Progress != 30 {
		t.Errorf("progress = %d, want 30", updated.Progress)
	}

	if _, err := svc.ApprovePayment(ctx, Actor{UserID: admin.ID}, EnrollmentPayment{ID: enrollment.ID}); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("second approval error = %v, want ErrAlreadyProcessed", err)
	}
}

func TestApproveMissingPayment(t *testing.T) {
	db := newTestDB(t)
	admin := createUser(t, db, "admin", model.RoleAdmin)
	svc := NewApprovalService(db, nil, nil)

	for _, ref := range []PaymentRef{EnrollmentPayment{ID: 404}, ContributionPayment{ID: 404}} {
		if _, err := svc.ApprovePayment(context.Background(), Actor{UserID: admin.ID}, ref); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: error = %v, want ErrNotFound", ref.Kind(), err)
		}
	}

	if _, err := svc.ApprovePayment(context.Background(), Actor{UserID: admin.ID}, nil); !errors.Is(err, ErrInvalidPaymentType) {
		t.Errorf("nil ref error = %v, want ErrInvalidPaymentType", err)
	}
}

type stubLocker struct {
	acquired bool
	released bool
}

func (l *stubLocker) TryLock(ctx context.Context, key string) (bool, func(), error) {
	return l.acquired, func() { l.released = true }, nil
}

func TestApproveRespectsLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	student := createUser(t, db, "student", model.RoleStudent)
	course := createCourse(t, db, 100, 4)

	enrollment, err := NewEnrollmentService(db).SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{CourseID: course.ID, TransactionCode: "X1"})
	if err != nil {
		t.Fatalf("SubmitEnrollment: %v", err)
	}

	busy := &stubLocker{acquired: false}
	if _, err := NewApprovalService(db, nil, busy).ApprovePayment(ctx, Actor{UserID: admin.ID}, EnrollmentPayment{ID: enrollment.ID}); !errors.Is(err, ErrApprovalInProgress) {
		t.Fatalf("error = %v, want ErrApprovalInProgress", err)
	}

	free := &stubLocker{acquired: true}
	if _, err := NewApprovalService(db, nil, free).ApprovePayment(ctx, Actor{UserID: admin.ID}, EnrollmentPayment{ID: enrollment.ID}); err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}
	if !free.released {
		t.Error("lock was not released")
	}
}

func TestListPendingPayments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createUser(t, db, "admin", model.RoleAdmin)
	creator := createUser(t, db, "creator", model.RoleStudent)
	donor := createUser(t, db, "donor", model.RoleStudent)
	project := createProject(t, db, creator.ID, 1000)
	course := createCourse(t, db, 800, 8)

	contributions := NewContributionService(db)
	monetary, err := contributions.SubmitContribution(ctx, donor.ID, SubmitContributionInput{
		ProjectID: project.ID, Amount: 50, Type: model.ContributionTypeMonetary, TransactionCode: "C1",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}
	if _, err := contributions.SubmitContribution(ctx, donor.ID, SubmitContributionInput{
		ProjectID: project.ID, Amount: 3, Type: model.ContributionTypeResource,
	}); err != nil {
		t.Fatalf("SubmitContribution resource: %v", err)
	}
	approved, err := contributions.SubmitContribution(ctx, donor.ID, SubmitContributionInput{
		ProjectID: project.ID, Amount: 20, Type: model.ContributionTypeMonetary, TransactionCode: "C2",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}

	enrollment, err := NewEnrollmentService(db).SubmitEnrollment(ctx, donor.ID, SubmitEnrollmentInput{CourseID: course.ID, TransactionCode: "E1"})
	if err != nil {
		t.Fatalf("SubmitEnrollment: %v", err)
	}

	// make the ordering explicit
	base := time.Now().Add(-time.Hour)
	db.Model(&model.Contribution{}).Where("id = ?", monetary.ID).Update("created_at", base)
	db.Model(&model.Enrollment{}).Where("id = ?", enrollment.ID).Update("created_at", base.Add(time.Minute))

	svc := NewApprovalService(db, nil, nil)
	if _, err := svc.ApprovePayment(ctx, Actor{UserID: admin.ID}, ContributionPayment{ID: approved.ID}); err != nil {
		t.Fatalf("ApprovePayment: %v", err)
	}

	pending, err := svc.ListPendingPayments(ctx)
	if err != nil {
		t.Fatalf("ListPendingPayments: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d items, want 2: %+v", len(pending), pending)
	}

	first, second := pending[0], pending[1]
	if first.Kind != model.PaymentKindEnrollment || first.ID != enrollment.ID {
		t.Errorf("first = %s %d, want enrollment %d", first.Kind, first.ID, enrollment.ID)
	}
	if first.Amount != 800 || first.CourseTitle != course.Title || first.User.ID != donor.ID {
		t.Errorf("enrollment entry = %+v", first)
	}
	if second.Kind != model.PaymentKindContribution || second.ID != monetary.ID {
		t.Errorf("second = %s %d, want contribution %d", second.Kind, second.ID, monetary.ID)
	}
	if second.TransactionCode != "C1" || second.ProjectTitle != project.Title {
		t.Errorf("contribution entry = %+v", second)
	}
}
