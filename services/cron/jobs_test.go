package cron

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newCronTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestReconcileProjectTotalsRepairsDrift(t *testing.T) {
	db := newCronTestDB(t)

	user := model.User{Email: "otieno@example.com", PasswordHash: "x", Name: "Otieno"}
	db.Create(&user)

	drifted := model.Project{Title: "Boreholes", SDGID: 6, CreatorID: user.ID, TargetAmount: 1000, CurrentAmount: 900, Progress: 90}
	healthy := model.Project{Title: "Desks", SDGID: 4, CreatorID: user.ID, TargetAmount: 200, CurrentAmount: 50, Progress: 25}
	db.Create(&drifted)
	db.Create(&healthy)

	contributions := []model.Contribution{
		{UserID: user.ID, ProjectID: drifted.ID, Amount: 300, Type: model.ContributionTypeMonetary, PaymentStatus: model.PaymentStatusCompleted},
		{UserID: user.ID, ProjectID: drifted.ID, Amount: 500, Type: model.ContributionTypeMonetary, PaymentStatus: model.PaymentStatusPending},
		{UserID: user.ID, ProjectID: drifted.ID, Amount: 40, Type: model.ContributionTypeTime, PaymentStatus: model.PaymentStatusCompleted},
		{UserID: user.ID, ProjectID: healthy.ID, Amount: 50, Type: model.ContributionTypeMonetary, PaymentStatus: model.PaymentStatusCompleted},
	}
	if err := db.Create(&contributions).Error; err != nil {
		t.Fatalf("create contributions: %v", err)
	}

	manager := NewCronManager(db)
	message, err := manager.ReconcileProjectTotals()
	if err != nil {
		t.Fatalf("ReconcileProjectTotals: %v", err)
	}
	if !strings.Contains(message, "repaired 1") {
		t.Errorf("message = %q, want one repair", message)
	}

	var driftedGot model.Project
	if err := db.First(&driftedGot, drifted.ID).Error; err != nil {
		t.Fatalf("load drifted project: %v", err)
	}
	if driftedGot.CurrentAmount != 300 || driftedGot.Progress != 30 {
		t.Errorf("drifted project = %.2f/%d%%, want 300.00/30%%", driftedGot.CurrentAmount, driftedGot.Progress)
	}

	var healthyGot model.Project
	if err := db.First(&healthyGot, healthy.ID).Error; err != nil {
		t.Fatalf("load healthy project: %v", err)
	}
	if healthyGot.CurrentAmount != 50 || healthyGot.Progress != 25 {
		t.Errorf("healthy project = %.2f/%d%%, want untouched", healthyGot.CurrentAmount, healthyGot.Progress)
	}
}

func TestRunNowRecordsJobLog(t *testing.T) {
	db := newCronTestDB(t)
	manager := NewCronManager(db)

	if err := manager.RunNow(JobCleanupTokenBlacklist); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if err := manager.RunNow("missing_job"); err == nil {
		t.Error("RunNow accepted an unknown job")
	}

	var logs []model.CronJobLog
	db.Find(&logs)
	if len(logs) != 1 {
		t.Fatalf("job logs = %d, want 1", len(logs))
	}
	if logs[0].JobName != JobCleanupTokenBlacklist || logs[0].Status != model.CronStatusCompleted || logs[0].CompletedAt == nil {
		t.Errorf("log = %+v", logs[0])
	}
}
