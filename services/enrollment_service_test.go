package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sahilchouksey/educonnect-api/model"
)

func TestSubmitEnrollmentFreeCourse(t *testing.T) {
	db := newTestDB(t)
	student := createUser(t, db, "student", model.RoleStudent)
	course := createCourse(t, db, 0, 5)

	enrollment, err := NewEnrollmentService(db).SubmitEnrollment(context.Background(), student.ID, SubmitEnrollmentInput{CourseID: course.ID})
	if err != nil {
		t.Fatalf("SubmitEnrollment: %v", err)
	}
	if enrollment.PaymentStatus != model.PaymentStatusCompleted || enrollment.PaymentMethod != "free" {
		t.Errorf("enrollment = %s/%s, want completed/free", enrollment.PaymentStatus, enrollment.PaymentMethod)
	}
	if enrollment.TotalLessons != 5 {
		t.Errorf("total_lessons = %d, want 5", enrollment.TotalLessons)
	}
}

func TestSubmitEnrollmentRules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	student := createUser(t, db, "student", model.RoleStudent)
	course := createCourse(t, db, 999, 5)
	svc := NewEnrollmentService(db)

	if _, err := svc.SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{CourseID: course.ID}); !errors.Is(err, ErrValidation) {
		t.Errorf("paid course without code error = %v, want ErrValidation", err)
	}
	if _, err := svc.SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{CourseID: 4242, TransactionCode: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing course error = %v, want ErrNotFound", err)
	}

	if _, err := svc.SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{CourseID: course.ID, TransactionCode: "X"}); err != nil {
		t.Fatalf("SubmitEnrollment: %v", err)
	}
	if _, err := svc.SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{CourseID: course.ID, TransactionCode: "Y"}); !errors.Is(err, ErrDuplicateEnrollment) {
		t.Errorf("second enrollment error = %v, want ErrDuplicateEnrollment", err)
	}

	var count int64
	db.Model(&model.Enrollment{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&count)
	if count != 1 {
		t.Errorf("enrollments = %d, want 1", count)
	}

	var original model.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&original).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if original.TransactionCode != "X" || original.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("original enrollment = %q/%s, want X/pending", original.TransactionCode, original.PaymentStatus)
	}
}

func TestUpdateProgress(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	student := createUser(t, db, "student", model.RoleStudent)
	other := createUser(t, db, "other", model.RoleStudent)
	course := createCourse(t, db, 0, 4)
	svc := NewEnrollmentService(db)

	enrollment, err := svc.SubmitEnrollment(ctx, student.ID, SubmitEnrollmentInput{CourseID: course.ID})
	if err != nil {
		t.Fatalf("SubmitEnrollment: %v", err)
	}

	two := 2
	if _, err := svc.UpdateProgress(ctx, other.ID, enrollment.ID, ProgressInput{CompletedLessons: &two}); !errors.Is(err, ErrForbidden) {
		t.Errorf("other user error = %v, want ErrForbidden", err)
	}

	tooMany := 5
	if _, err := svc.UpdateProgress(ctx, student.ID, enrollment.ID, ProgressInput{CompletedLessons: &tooMany}); !errors.Is(err, ErrValidation) {
		t.Errorf("too many lessons error = %v, want ErrValidation", err)
	}

	minutes, grade := 90, 88
	updated, err := svc.UpdateProgress(ctx, student.ID, enrollment.ID, ProgressInput{CompletedLessons: &two, TimeSpent: &minutes, Grade: &grade})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.Progress != 50 || updated.Status != model.EnrollmentStatusActive {
		t.Errorf("progress = %d/%s, want 50/active", updated.Progress, updated.Status)
	}

	four := 4
	updated, err = svc.UpdateProgress(ctx, student.ID, enrollment.ID, ProgressInput{CompletedLessons: &four})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.Progress != 100 || updated.Status != model.EnrollmentStatusCompleted {
		t.Errorf("progress = %d/%s, want 100/completed", updated.Progress, updated.Status)
	}

	var stored model.Enrollment
	db.First(&stored, enrollment.ID)
	if stored.TimeSpent != 90 || stored.Grade != 88 || stored.CompletedLessons != 4 {
		t.Errorf("stored = %+v", stored)
	}
}
