package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/handlers"
	admin_handlers "github.com/sahilchouksey/educonnect-api/handlers/admin"
	auth_handlers "github.com/sahilchouksey/educonnect-api/handlers/auth"
	contribution_handlers "github.com/sahilchouksey/educonnect-api/handlers/contribution"
	course_handlers "github.com/sahilchouksey/educonnect-api/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/educonnect-api/handlers/enrollment"
	notification_handlers "github.com/sahilchouksey/educonnect-api/handlers/notification"
	project_handlers "github.com/sahilchouksey/educonnect-api/handlers/project"
	realtime_handlers "github.com/sahilchouksey/educonnect-api/handlers/realtime"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/services/realtime"
	"github.com/sahilchouksey/educonnect-api/utils/auth"
	"github.com/sahilchouksey/educonnect-api/utils/cache"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
)

// approvalLockTTL bounds how long a crashed approver can block a payment
const approvalLockTTL = 30 * time.Second

// Deps carries the shared components routes are built from. Redis, Pusher
// and Jobs are optional.
type Deps struct {
	Store          database.Storage
	JWTManager     *auth.JWTManager
	Redis          *cache.RedisCache
	Hub            *realtime.Hub
	Pusher         services.Pusher
	Jobs           admin_handlers.JobRunner
	AllowedOrigins string
	RateLimit      int
}

func SetupRoutes(app *fiber.App, deps Deps) {
	store := deps.Store
	db := store.GetDB()

	hub := deps.Hub
	if hub == nil {
		hub = realtime.NewHub()
	}
	pusher := deps.Pusher
	if pusher == nil {
		pusher = hub
	}

	// Brute force protection and approval locks need Redis
	var bruteForceProtection *middleware.BruteForceProtection
	var locker services.Locker
	if deps.Redis != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(deps.Redis)
		locker = cache.NewLocker(deps.Redis, approvalLockTTL)
	}

	verifier := auth.NewTokenVerifier(deps.JWTManager, db)
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	// Services
	notificationService := services.NewNotificationService(db, pusher)
	courseService := services.NewCourseService(db)
	projectService := services.NewProjectService(db)
	contributionService := services.NewContributionService(db)
	enrollmentService := services.NewEnrollmentService(db)
	approvalService := services.NewApprovalService(db, notificationService, locker)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, deps.JWTManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(courseService)
	projectHandler := project_handlers.NewProjectHandler(projectService, contributionService)
	contributionHandler := contribution_handlers.NewContributionHandler(contributionService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(enrollmentService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)
	paymentHandler := admin_handlers.NewPaymentHandler(approvalService)
	wsHandler := realtime_handlers.NewWSHandler(hub, verifier)

	if deps.AllowedOrigins != "" {
		middleware.SetupSecurity(app, middleware.SecurityConfig{
			AllowedOrigins:    deps.AllowedOrigins,
			RateLimitRequests: deps.RateLimit,
			RateLimitWindow:   1 * time.Minute,
		})
	}

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store, hub) })

	// Notification channel
	app.Get("/ws", wsHandler.Upgrade, wsHandler.Handler())

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", bruteForceProtection.CheckLockout(), authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.GetProfile)

	// Course catalog
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Post("/", authMiddleware.Required(), authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "course_create", "courses"), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.Required(), authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "course_update", "courses"), courseHandler.UpdateCourse)

	// SDG projects
	projects := api.Group("/projects")
	projects.Get("/", projectHandler.ListProjects)
	projects.Get("/:id", projectHandler.GetProject)
	projects.Get("/:id/contributions", projectHandler.ListContributions)
	projects.Post("/", authMiddleware.Required(), projectHandler.CreateProject)
	projects.Put("/:id", authMiddleware.Required(), projectHandler.UpdateProject)
	projects.Delete("/:id", authMiddleware.Required(), projectHandler.DeleteProject)

	// Contributions
	contributions := api.Group("/contributions", authMiddleware.Required())
	contributions.Post("/", contributionHandler.CreateContribution)
	contributions.Get("/me", contributionHandler.ListMyContributions)

	// Enrollments
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Post("/", enrollmentHandler.Enroll)
	enrollments.Get("/me", enrollmentHandler.ListMyEnrollments)
	enrollments.Patch("/:id/progress", enrollmentHandler.UpdateProgress)

	// Notifications
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Post("/", notificationHandler.CreateNotification)
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Patch("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Patch("/:id/read", notificationHandler.MarkAsRead)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())
	admin.Get("/pending-payments", paymentHandler.ListPendingPayments)
	admin.Post("/approve-payment", paymentHandler.ApprovePayment)

	admin.Get("/users", func(c *fiber.Ctx) error { return admin_handlers.ListUsers(c, store) })
	admin.Patch("/users/:id/role", middleware.AdminAuditLog(db, "user_role_update", "users"),
		func(c *fiber.Ctx) error { return admin_handlers.UpdateUserRole(c, store) })

	admin.Get("/audit-logs", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/audit-logs/:id", func(c *fiber.Ctx) error { return admin_handlers.GetAuditLog(c, store) })

	admin.Get("/analytics/overview", func(c *fiber.Ctx) error { return admin_handlers.GetOverviewAnalytics(c, store) })

	admin.Get("/jobs", func(c *fiber.Ctx) error { return admin_handlers.ListJobLogs(c, store) })
	admin.Post("/jobs/:name/run", middleware.AdminAuditLog(db, "job_run", "jobs"),
		func(c *fiber.Ctx) error { return admin_handlers.RunJob(c, deps.Jobs) })
}
