package services

import "errors"

// Domain errors returned by services. Handlers map them to HTTP statuses
// with errors.Is; anything else is treated as an unclassified failure.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrDuplicateEnrollment = errors.New("already enrolled in this course")
	ErrInvalidPaymentType  = errors.New("invalid payment type")
	ErrAlreadyProcessed    = errors.New("payment already processed")
	ErrApprovalInProgress  = errors.New("approval already in progress")
	ErrPaymentIncomplete   = errors.New("payment not completed")
)
