package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/shopspring/decimal"
)

// OverviewStats summarizes platform activity for the admin dashboard
type OverviewStats struct {
	TotalUsers              int64  `json:"total_users"`
	TotalCourses            int64  `json:"total_courses"`
	TotalEnrollments        int64  `json:"total_enrollments"`
	PendingEnrollments      int64  `json:"pending_enrollments"`
	TotalProjects           int64  `json:"total_projects"`
	ActiveProjects          int64  `json:"active_projects"`
	TotalContributions      int64  `json:"total_contributions"`
	PendingContributions    int64  `json:"pending_contributions"`
	TotalRaised             string `json:"total_raised"`
	UnreadNotifications int64  `json:"unread_notifications"`
}

// GetOverviewAnalytics retrieves system-wide overview statistics
// GET /api/admin/analytics/overview
func GetOverviewAnalytics(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	var stats OverviewStats
	var raised float64

	counts := []struct {
		model interface{}
		where map[string]interface{}
		dest  *int64
	}{
		{&model.User{}, nil, &stats.TotalUsers},
		{&model.Course{}, nil, &stats.TotalCourses},
		{&model.Enrollment{}, nil, &stats.TotalEnrollments},
		{&model.Enrollment{}, map[string]interface{}{"payment_status": model.PaymentStatusPending}, &stats.PendingEnrollments},
		{&model.Project{}, nil, &stats.TotalProjects},
		{&model.Project{}, map[string]interface{}{"status": model.ProjectStatusActive}, &stats.ActiveProjects},
		{&model.Contribution{}, nil, &stats.TotalContributions},
		{&model.Contribution{}, map[string]interface{}{"payment_status": model.PaymentStatusPending}, &stats.PendingContributions},
		{&model.UserNotification{}, map[string]interface{}{"read": false}, &stats.UnreadNotifications},
	}
	for _, q := range counts {
		query := db.Model(q.model)
		if q.where != nil {
			query = query.Where(q.where)
		}
		if err := query.Count(q.dest).Error; err != nil {
			return response.InternalServerError(c, "Failed to compute analytics")
		}
	}

	err := db.Model(&model.Project{}).Select("COALESCE(SUM(current_amount), 0)").Scan(&raised).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to compute analytics")
	}
	stats.TotalRaised = decimal.NewFromFloat(raised).StringFixed(2)

	return response.SuccessWithMessage(c, "Overview analytics retrieved successfully", stats)
}
