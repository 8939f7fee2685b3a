package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// CourseHandler handles course-related requests
type CourseHandler struct {
	courseService *services.CourseService
	validator     *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		validator:     validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=5000"`
	Category     string  `json:"category" validate:"omitempty,max=100"`
	Level        string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price        float64 `json:"price" validate:"gte=0"`
	InstructorID *uint   `json:"instructor_id" validate:"omitempty,min=1"`
	TotalLessons int     `json:"total_lessons" validate:"gte=0"`
	Duration     int     `json:"duration" validate:"gte=0"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	Category     *string  `json:"category" validate:"omitempty,max=100"`
	Level        *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	InstructorID *uint    `json:"instructor_id" validate:"omitempty,min=1"`
	TotalLessons *int     `json:"total_lessons" validate:"omitempty,gte=0"`
	Duration     *int     `json:"duration" validate:"omitempty,gte=0"`
}

// ListCourses handles GET /api/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	pagination := response.CalculatePagination(page, limit, 0)

	courses, total, err := h.courseService.ListCourses(c.UserContext(), services.CourseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Page:     pagination.CurrentPage,
		Limit:    pagination.PerPage,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(pagination.CurrentPage, pagination.PerPage, total))
}

// GetCourse handles GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.courseService.GetCourse(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	in := services.CourseInput{
		Title:        &req.Title,
		Description:  &req.Description,
		Category:     &req.Category,
		Price:        &req.Price,
		InstructorID: req.InstructorID,
		TotalLessons: &req.TotalLessons,
		Duration:     &req.Duration,
	}
	if req.Level != "" {
		in.Level = &req.Level
	}

	course, err := h.courseService.CreateCourse(c.UserContext(), in)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpdateCourseRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	course, err := h.courseService.UpdateCourse(c.UserContext(), id, services.CourseInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		Price:        req.Price,
		InstructorID: req.InstructorID,
		TotalLessons: req.TotalLessons,
		Duration:     req.Duration,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}
