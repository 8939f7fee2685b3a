package enrollment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// EnrollmentHandler handles course enrollment and progress
type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
	validator         *validation.Validator
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		validator:         validation.NewValidator(),
	}
}

// EnrollRequest represents an enrollment request
type EnrollRequest struct {
	CourseID        uint   `json:"course_id" validate:"required,min=1"`
	TransactionCode string `json:"transaction_code" validate:"omitempty,max=100"`
	PaymentMethod   string `json:"payment_method" validate:"omitempty,max=50"`
}

// ProgressRequest represents a progress update
type ProgressRequest struct {
	CompletedLessons *int `json:"completed_lessons" validate:"omitempty,gte=0"`
	TimeSpent        *int `json:"time_spent" validate:"omitempty,gte=0"`
	Grade            *int `json:"grade" validate:"omitempty,gte=0,lte=100"`
}

// Enroll handles POST /api/enrollments
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req EnrollRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	enrollment, err := h.enrollmentService.SubmitEnrollment(c.UserContext(), userID, services.SubmitEnrollmentInput{
		CourseID:        req.CourseID,
		TransactionCode: req.TransactionCode,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to enroll")
	}

	return response.Created(c, enrollment)
}

// ListMyEnrollments handles GET /api/enrollments/me
func (h *EnrollmentHandler) ListMyEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollmentService.ListUserEnrollments(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}

// UpdateProgress handles PATCH /api/enrollments/:id/progress
func (h *EnrollmentHandler) UpdateProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid enrollment ID")
	}

	var req ProgressRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	enrollment, err := h.enrollmentService.UpdateProgress(c.UserContext(), userID, id, services.ProgressInput{
		CompletedLessons: req.CompletedLessons,
		TimeSpent:        req.TimeSpent,
		Grade:            req.Grade,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to update progress")
	}

	return response.Success(c, enrollment)
}
