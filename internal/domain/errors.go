package domain

import (
	"errors"
	"fmt"
)

var (
	// Wallet errors
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrCurrencyMismatch = errors.New("currency does not match wallet currency")
	ErrMixedCurrency    = errors.New("cannot aggregate amounts in different currencies")

	// Transaction errors
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDuplicateSourceRef     = errors.New("transaction already exists for source reference")
	ErrReversalOfReversal     = errors.New("compensating transactions cannot be reversed")

	// Payment errors
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrMilestoneNotFound = errors.New("milestone not found")

	// Reporting errors
	ErrInvalidWindow = errors.New("invalid reporting window")

	// Integrity errors
	ErrIntegrityViolation = errors.New("balance integrity violation")
)

// ValidationError is returned for input that can never succeed as submitted.
// It is not retried automatically.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a sentinel with the offending field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: err.Error(), Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot transition from %s to %s", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// IntegrityViolationError is raised when the incremental balance view of a wallet
// disagrees with the fold of its completed history.
type IntegrityViolationError struct {
	WalletID            string
	MaterializedBalance int64
	RecomputedBalance   int64
	MaterializedEarned  int64
	RecomputedEarned    int64
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf(
		"wallet %s: materialized balance=%d earned=%d, recomputed balance=%d earned=%d",
		e.WalletID,
		e.MaterializedBalance,
		e.MaterializedEarned,
		e.RecomputedBalance,
		e.RecomputedEarned,
	)
}

func (e *IntegrityViolationError) Unwrap() error {
	return ErrIntegrityViolation
}
