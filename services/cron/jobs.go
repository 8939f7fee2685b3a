package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"github.com/shopspring/decimal"
)

// projectLedger is one project's stored aggregate next to the total of its
// approved monetary contributions, read in a single statement.
type projectLedger struct {
	ID            uint
	CurrentAmount float64
	TargetAmount  float64
	Progress      int
	Expected      float64
}

const ledgerQuery = `
SELECT p.id, p.current_amount, p.target_amount, p.progress,
	COALESCE((
		SELECT SUM(c.amount) FROM contributions c
		WHERE c.project_id = p.id AND c.type = ? AND c.payment_status = ?
	), 0) AS expected
FROM projects p`

// ReconcileProjectTotals recomputes each project's raised amount from its
// completed monetary contributions and repairs any drift.
// Runs every hour.
func (m *CronManager) ReconcileProjectTotals() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var ledgers []projectLedger
	err := m.db.WithContext(ctx).
		Raw(ledgerQuery, model.ContributionTypeMonetary, model.PaymentStatusCompleted).
		Scan(&ledgers).Error
	if err != nil {
		return "", fmt.Errorf("failed to read project ledgers: %w", err)
	}

	repaired, skipped := 0, 0
	for _, l := range ledgers {
		stored := decimal.NewFromFloat(l.CurrentAmount).Round(2)
		expected := decimal.NewFromFloat(l.Expected).Round(2)
		progress := services.ComputeProgress(l.Expected, l.TargetAmount, l.Progress)

		if stored.Equal(expected) && progress == l.Progress {
			continue
		}

		// Only overwrite the value we read; a concurrent approval wins.
		res := m.db.WithContext(ctx).Model(&model.Project{}).
			Where("id = ? AND current_amount = ?", l.ID, l.CurrentAmount).
			Updates(map[string]interface{}{
				"current_amount": l.Expected,
				"progress":       progress,
			})
		if res.Error != nil {
			logger.Error("[CRON] Failed to repair project %d: %v", l.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			skipped++
			continue
		}

		logger.Warn("[CRON] Repaired project %d: current_amount %s -> %s, progress %d -> %d",
			l.ID, stored.StringFixed(2), expected.StringFixed(2), l.Progress, progress)
		repaired++
	}

	return fmt.Sprintf("Checked %d projects, repaired %d, skipped %d", len(ledgers), repaired, skipped), nil
}

// CleanupTokenBlacklist removes expired blacklist entries and job logs older
// than 90 days. Runs daily at 2 AM.
func (m *CronManager) CleanupTokenBlacklist() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tokens, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to clean token blacklist: %w", err)
	}

	cutoffLogs := time.Now().Add(-90 * 24 * time.Hour)
	result := m.db.WithContext(ctx).Where("created_at < ?", cutoffLogs).Delete(&model.CronJobLog{})
	if result.Error != nil {
		logger.Warn("[CRON] Failed to clean cron logs: %v", result.Error)
	}

	return fmt.Sprintf("Cleaned %d expired tokens and %d old cron logs", tokens, result.RowsAffected), nil
}
