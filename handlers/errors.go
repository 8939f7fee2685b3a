package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
)

// RespondError maps a service error onto the response envelope. Unknown
// errors are logged and reported as fallback with a 500.
func RespondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return response.ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrNotFound):
		return response.ErrorWithDetails(c, fiber.StatusNotFound, "Resource not found", "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "You do not have access to this resource")
	case errors.Is(err, services.ErrDuplicateEnrollment):
		return response.Error(c, fiber.StatusConflict, "Already enrolled in this course", "DUPLICATE_ENROLLMENT")
	case errors.Is(err, services.ErrInvalidPaymentType):
		return response.ErrorWithDetails(c, fiber.StatusBadRequest, "Invalid payment type", "INVALID_PAYMENT_TYPE", "type must be enrollment or contribution")
	case errors.Is(err, services.ErrAlreadyProcessed):
		return response.Error(c, fiber.StatusConflict, "Payment has already been processed", "ALREADY_PROCESSED")
	case errors.Is(err, services.ErrApprovalInProgress):
		return response.Error(c, fiber.StatusConflict, "Payment approval already in progress", "APPROVAL_IN_PROGRESS")
	case errors.Is(err, services.ErrPaymentIncomplete):
		return response.Error(c, fiber.StatusConflict, "Payment has not been approved yet", "PAYMENT_INCOMPLETE")
	}

	logger.Error("%s %s: %s: %v", c.Method(), c.Path(), fallback, err)
	return response.InternalServerError(c, fallback)
}

// ParseBody decodes and validates a JSON body into req. On failure the
// error response has already been written and ok is false.
func ParseBody(c *fiber.Ctx, v *validation.Validator, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := v.ValidateStruct(req); err != nil {
		return false, response.ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", validation.Summary(err))
	}
	return true, nil
}

// ParseID reads a positive numeric route parameter
func ParseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
