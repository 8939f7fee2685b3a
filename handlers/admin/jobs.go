package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/response"
)

// JobRunner runs a scheduled job on demand
type JobRunner interface {
	RunNow(jobName string) error
}

// ListJobLogs returns recent scheduled job runs
// GET /api/admin/jobs
func ListJobLogs(c *fiber.Ctx, store database.Storage) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := store.GetDB().WithContext(c.UserContext()).Model(&model.CronJobLog{})
	if name := c.Query("job"); name != "" {
		query = query.Where("job_name = ?", name)
	}

	var logs []model.CronJobLog
	if err := query.Order("started_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch job logs")
	}

	return response.Success(c, logs)
}

// RunJob triggers a scheduled job immediately
// POST /api/admin/jobs/:name/run
func RunJob(c *fiber.Ctx, runner JobRunner) error {
	if runner == nil {
		return response.ServiceUnavailable(c, "Scheduled jobs are disabled")
	}

	name := c.Params("name")
	if err := runner.RunNow(name); err != nil {
		return response.NotFound(c, err.Error())
	}

	return response.SuccessWithMessage(c, "Job executed", fiber.Map{"job": name})
}
