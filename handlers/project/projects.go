package project

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService      *services.ProjectService
	contributionService *services.ContributionService
	validator           *validation.Validator
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, contributionService *services.ContributionService) *ProjectHandler {
	return &ProjectHandler{
		projectService:      projectService,
		contributionService: contributionService,
		validator:           validation.NewValidator(),
	}
}

// CreateProjectRequest represents the request body for creating a project
type CreateProjectRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=5000"`
	SDGID        int     `json:"sdg_id" validate:"required,min=1,max=17"`
	TargetAmount float64 `json:"target_amount" validate:"gte=0"`
}

// UpdateProjectRequest represents the request body for updating a project
type UpdateProjectRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	SDGID        *int     `json:"sdg_id" validate:"omitempty,min=1,max=17"`
	Status       *string  `json:"status" validate:"omitempty,oneof=active completed paused"`
	TargetAmount *float64 `json:"target_amount" validate:"omitempty,gte=0"`
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	sdgID, _ := strconv.Atoi(c.Query("sdg_id", "0"))
	pagination := response.CalculatePagination(page, limit, 0)

	projects, total, err := h.projectService.ListProjects(c.UserContext(), services.ProjectFilter{
		SDGID:  sdgID,
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   pagination.CurrentPage,
		Limit:  pagination.PerPage,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch projects")
	}

	return response.Paginated(c, projects, response.CalculatePagination(pagination.CurrentPage, pagination.PerPage, total))
}

// GetProject handles GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid project ID")
	}

	project, err := h.projectService.GetProject(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch project")
	}

	return response.Success(c, project)
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateProjectRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	project, err := h.projectService.CreateProject(c.UserContext(), userID, services.CreateProjectInput{
		Title:        req.Title,
		Description:  req.Description,
		SDGID:        req.SDGID,
		TargetAmount: req.TargetAmount,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create project")
	}

	return response.Created(c, project)
}

// UpdateProject handles PUT /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid project ID")
	}

	var req UpdateProjectRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	in := services.UpdateProjectInput{
		Title:        req.Title,
		Description:  req.Description,
		SDGID:        req.SDGID,
		TargetAmount: req.TargetAmount,
	}
	if req.Status != nil {
		status := model.ProjectStatus(*req.Status)
		in.Status = &status
	}

	project, err := h.projectService.UpdateProject(c.UserContext(), user, id, in)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to update project")
	}

	return response.SuccessWithMessage(c, "Project updated successfully", project)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid project ID")
	}

	if err := h.projectService.DeleteProject(c.UserContext(), user, id); err != nil {
		return handlers.RespondError(c, err, "Failed to delete project")
	}

	return response.SuccessWithMessage(c, "Project deleted successfully", nil)
}

// ListContributions handles GET /api/projects/:id/contributions
func (h *ProjectHandler) ListContributions(c *fiber.Ctx) error {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid project ID")
	}

	contributions, err := h.contributionService.ListProjectContributions(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch contributions")
	}

	return response.Success(c, contributions)
}
