package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// PaymentHandler exposes the payment approval gate to admins
type PaymentHandler struct {
	approvalService *services.ApprovalService
	validator       *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(approvalService *services.ApprovalService) *PaymentHandler {
	return &PaymentHandler{
		approvalService: approvalService,
		validator:       validation.NewValidator(),
	}
}

// ApprovePaymentRequest identifies the payment to approve
type ApprovePaymentRequest struct {
	Type string `json:"type" validate:"required"`
	ID   uint   `json:"id" validate:"required,min=1"`
}

// ListPendingPayments returns every enrollment and contribution awaiting approval
// GET /api/admin/pending-payments
func (h *PaymentHandler) ListPendingPayments(c *fiber.Ctx) error {
	payments, err := h.approvalService.ListPendingPayments(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch pending payments")
	}

	return response.Success(c, payments)
}

// ApprovePayment completes a pending payment and applies its effects
// POST /api/admin/approve-payment
func (h *PaymentHandler) ApprovePayment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ApprovePaymentRequest
	if ok, err := handlers.ParseBody(c, h.validator, &req); !ok {
		return err
	}

	ref, err := services.ParsePaymentRef(req.Type, req.ID)
	if err != nil {
		return handlers.RespondError(c, err, "Invalid payment reference")
	}

	result, err := h.approvalService.ApprovePayment(c.UserContext(), services.Actor{
		UserID:    user.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}, ref)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to approve payment")
	}

	return response.SuccessWithMessage(c, "Payment approved successfully", result)
}
