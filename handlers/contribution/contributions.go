package contribution

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// ContributionHandler handles contribution intake
type ContributionHandler struct {
	contributionService *services.ContributionService
	validator           *validation.Validator
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributionService *services.ContributionService) *ContributionHandler {
	return &ContributionHandler{
		contributionService: contributionService,
		validator:           validation.NewValidator(),
	}
}

// CreateContributionRequest represents a new pledge
type CreateContributionRequest struct {
	ProjectID       uint    `json:"project_id" validate:"required,min=1"`
	Amount          float64 `json:"amount" validate:"gte=0"`
	Type            string  `json:"type" validate:"required,oneof=monetary time resource"`
	Description     string  `json:"description" validate:"omitempty,max=2000"`
	TransactionCode string  `json:"transaction_code" validate:"omitempty,max=100"`
	PaymentMethod   string  `json:"payment_method" validate:"omitempty,max=50"`
}

// CreateContribution handles POST /api/contributions
func (h *ContributionHandler) CreateContribution(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateContributionRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	contribution, err := h.contributionService.SubmitContribution(c.UserContext(), userID, services.SubmitContributionInput{
		ProjectID:       req.ProjectID,
		Amount:          req.Amount,
		Type:            model.ContributionType(req.Type),
		Description:     req.Description,
		TransactionCode: req.TransactionCode,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create contribution")
	}

	return response.Created(c, contribution)
}

// ListMyContributions handles GET /api/contributions/me
func (h *ContributionHandler) ListMyContributions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	contributions, err := h.contributionService.ListUserContributions(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch contributions")
	}

	return response.Success(c, contributions)
}
