package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the lifecycle state of a client payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// ParsePaymentStatus accepts only the closed set of statuses.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown payment status %q", s), Err: ErrInvalidEnum}
}

// CanTransitionTo reports whether a payment may move from s to next.
// pending -> completed | failed, completed -> refunded.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		switch next {
		case PaymentStatusCompleted, PaymentStatusFailed:
			return true
		case PaymentStatusPending, PaymentStatusRefunded:
			return false
		}
	case PaymentStatusCompleted:
		switch next {
		case PaymentStatusRefunded:
			return true
		case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
			return false
		}
	case PaymentStatusFailed, PaymentStatusRefunded:
		return false
	}
	return false
}

// PaymentType is the role of a payment in the project billing plan.
type PaymentType string

const (
	PaymentTypeAdvance   PaymentType = "advance"
	PaymentTypeMilestone PaymentType = "milestone"
	PaymentTypeFinal     PaymentType = "final"
)

// ParsePaymentType accepts only the closed set of payment types.
func ParsePaymentType(s string) (PaymentType, error) {
	switch pt := PaymentType(strings.ToLower(strings.TrimSpace(s))); pt {
	case PaymentTypeAdvance, PaymentTypeMilestone, PaymentTypeFinal:
		return pt, nil
	}
	return "", &ValidationError{Field: "payment_type", Reason: fmt.Sprintf("unknown payment type %q", s), Err: ErrInvalidEnum}
}

// Payment is a client payment against a project.
type Payment struct {
	ID          string
	ClientID    string
	ProjectID   *string
	MilestoneID *string
	ExternalRef string
	Amount      int64
	Currency    string
	Status      PaymentStatus
	PaymentType PaymentType
	CreatedAt   time.Time
	PaidAt      *time.Time
	UpdatedAt   time.Time
}

// Transition validates and applies a status change in memory.
func (p *Payment) Transition(next PaymentStatus, at time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return &TransitionError{Entity: "payment", ID: p.ID, From: string(p.Status), To: string(next)}
	}

	p.Status = next
	p.UpdatedAt = at
	if next == PaymentStatusCompleted {
		paid := at
		p.PaidAt = &paid
	}

	return nil
}

// Validate checks the payment fields a caller supplies.
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return &ValidationError{Field: "client_id", Reason: "must not be empty", Err: ErrInvalidOwner}
	}
	if strings.TrimSpace(p.ExternalRef) == "" {
		return &ValidationError{Field: "external_ref", Reason: "must not be empty", Err: ErrInvalidSourceRef}
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}
	if err := ValidateCurrency(p.Currency); err != nil {
		return err
	}
	if _, err := ParsePaymentType(string(p.PaymentType)); err != nil {
		return err
	}

	return nil
}
