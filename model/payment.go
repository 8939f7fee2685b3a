package model

import "time"

// PaymentKind names the record type behind a pending payment
type PaymentKind string

const (
	PaymentKindEnrollment   PaymentKind = "enrollment"
	PaymentKindContribution PaymentKind = "contribution"
)

// PendingPayment is a read model merging pending monetary contributions and
// pending enrollments for the admin review queue.
type PendingPayment struct {
	Kind            PaymentKind `json:"type"`
	ID              uint        `json:"id"`
	Amount          float64     `json:"amount"`
	TransactionCode string      `json:"transaction_code"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentStatus   string      `json:"payment_status"`
	User            UserSummary `json:"user"`
	ProjectID       uint        `json:"project_id,omitempty"`
	ProjectTitle    string      `json:"project_title,omitempty"`
	CourseID        uint        `json:"course_id,omitempty"`
	CourseTitle     string      `json:"course_title,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}
