package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/auth"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"gorm.io/gorm"
)

// Job names as recorded in cron_job_logs
const (
	JobReconcileProjectTotals = "reconcile_project_totals"
	JobCleanupTokenBlacklist  = "cleanup_token_blacklist"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	blacklist *auth.BlacklistService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	return &CronManager{
		cron:      c,
		db:        db,
		blacklist: auth.NewBlacklistService(db),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	logger.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	logger.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	logger.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every hour: repair project totals that drifted from approved contributions
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.run(JobReconcileProjectTotals, m.ReconcileProjectTotals)
	})
	if err != nil {
		return err
	}

	// Daily at 2 AM: drop expired blacklist entries and old job logs
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.run(JobCleanupTokenBlacklist, m.CleanupTokenBlacklist)
	})
	if err != nil {
		return err
	}

	logger.Info("All cron jobs registered successfully")
	return nil
}

// run executes job and records the outcome in cron_job_logs
func (m *CronManager) run(jobName string, job func() (string, error)) {
	started := time.Now()
	logger.Info("[CRON] Starting job: %s", jobName)

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: started,
	}
	if err := m.db.Create(&entry).Error; err != nil {
		logger.Warn("[CRON] Failed to record start of %s: %v", jobName, err)
	}

	message, err := job()
	finished := time.Now()

	updates := map[string]interface{}{
		"completed_at": finished,
		"duration":     finished.Sub(started).Milliseconds(),
		"message":      message,
	}
	if err != nil {
		logger.Error("[CRON] Error in job: %s - %v", jobName, err)
		updates["status"] = model.CronStatusFailed
		updates["error_msg"] = err.Error()
	} else {
		logger.Info("[CRON] Completed job: %s - %s", jobName, message)
		updates["status"] = model.CronStatusCompleted
	}

	if entry.ID == 0 {
		return
	}
	if uerr := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; uerr != nil {
		logger.Warn("[CRON] Failed to record result of %s: %v", jobName, fmt.Errorf("update log %d: %w", entry.ID, uerr))
	}
}

// RunNow executes a registered job synchronously by name
func (m *CronManager) RunNow(jobName string) error {
	switch jobName {
	case JobReconcileProjectTotals:
		m.run(jobName, m.ReconcileProjectTotals)
	case JobCleanupTokenBlacklist:
		m.run(jobName, m.CleanupTokenBlacklist)
	default:
		return fmt.Errorf("unknown cron job %q", jobName)
	}
	return nil
}
