package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType is the direction of a ledger movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// ParseTransactionType accepts only the closed set of types.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TransactionTypeCredit, TransactionTypeDebit:
		return t, nil
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", s), Err: ErrInvalidEnum}
}

// Opposite returns the type used by a compensating transaction.
func (t TransactionType) Opposite() TransactionType {
	switch t {
	case TransactionTypeCredit:
		return TransactionTypeDebit
	case TransactionTypeDebit:
		return TransactionTypeCredit
	}
	return t
}

// TransactionCategory classifies the business reason for a movement.
type TransactionCategory string

const (
	CategoryCommission TransactionCategory = "commission"
	CategoryReward     TransactionCategory = "reward"
	CategoryPayout     TransactionCategory = "payout"
	CategoryAdjustment TransactionCategory = "adjustment"
)

// ParseTransactionCategory accepts only the closed set of categories.
func ParseTransactionCategory(s string) (TransactionCategory, error) {
	switch c := TransactionCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryCommission, CategoryReward, CategoryPayout, CategoryAdjustment:
		return c, nil
	}
	return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", s), Err: ErrInvalidEnum}
}

// IsEarning reports whether movements in this category count toward lifetime
// earnings.
func (c TransactionCategory) IsEarning() bool {
	switch c {
	case CategoryCommission, CategoryReward:
		return true
	case CategoryPayout, CategoryAdjustment:
		return false
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// ParseTransactionStatus accepts only the closed set of statuses.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusReversed:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s), Err: ErrInvalidEnum}
}

// CanTransitionTo reports whether a stored status may move to next.
// Only pending has outgoing edges.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		switch next {
		case TransactionStatusCompleted, TransactionStatusFailed:
			return true
		case TransactionStatusPending, TransactionStatusReversed:
			return false
		}
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusReversed:
		return false
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusPending:
		return false
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusReversed:
		return true
	}
	return true
}

// Transaction is an immutable ledger movement. Only Status and CompletedAt
// change after creation.
type Transaction struct {
	ID         string
	WalletID   string
	Type       TransactionType
	Category   TransactionCategory
	Amount     int64
	Currency   string
	Status     TransactionStatus
	SourceRef  string
	ReversalOf *string
	// ReversedBy is derived on read from the compensating entry, never stored.
	ReversedBy  *string
	Metadata    map[string]any
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// EffectiveStatus is the status shown to readers: a completed transaction that
// has been compensated reads as reversed. The stored status is unchanged.
func (t *Transaction) EffectiveStatus() TransactionStatus {
	if t.Status == TransactionStatusCompleted && t.ReversedBy != nil {
		return TransactionStatusReversed
	}
	return t.Status
}

// IsCompensation reports whether t was created by Reverse.
func (t *Transaction) IsCompensation() bool {
	return t.ReversalOf != nil
}

// Transition validates and applies a status change in memory.
func (t *Transaction) Transition(next TransactionStatus, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return &TransitionError{Entity: "transaction", ID: t.ID, From: string(t.Status), To: string(next)}
	}

	t.Status = next
	if next == TransactionStatusCompleted {
		completed := at
		t.CompletedAt = &completed
	}

	return nil
}

// SourceKey is the idempotency key of a transaction.
type SourceKey struct {
	WalletID  string
	SourceRef string
	Category  TransactionCategory
}

func (k SourceKey) String() string {
	return k.WalletID + ":" + string(k.Category) + ":" + k.SourceRef
}

// Key returns the idempotency key of t.
func (t *Transaction) Key() SourceKey {
	return SourceKey{WalletID: t.WalletID, SourceRef: t.SourceRef, Category: t.Category}
}

// ReversalSourceRef is the source reference used by the compensating entry of
// the transaction with the given id, which makes Reverse idempotent.
func ReversalSourceRef(originalID string) string {
	return "reversal:" + originalID
}

// TransactionDraft is a producer's request to append a movement.
type TransactionDraft struct {
	OwnerID   string
	Currency  string
	Type      TransactionType
	Category  TransactionCategory
	Amount    int64
	SourceRef string
	Metadata  map[string]any
}

// Validate checks everything that does not need the wallet.
func (d *TransactionDraft) Validate() error {
	if strings.TrimSpace(d.OwnerID) == "" {
		return &ValidationError{Field: "owner_id", Reason: "must not be empty", Err: ErrInvalidOwner}
	}
	if err := ValidateAmount(d.Amount); err != nil {
		return err
	}
	if err := ValidateCurrency(d.Currency); err != nil {
		return err
	}
	if _, err := ParseTransactionType(string(d.Type)); err != nil {
		return err
	}
	if _, err := ParseTransactionCategory(string(d.Category)); err != nil {
		return err
	}
	if err := ValidateSourceRef(d.SourceRef); err != nil {
		return err
	}

	return ValidateMetadata(d.Metadata)
}

// TransactionFilter narrows GetTransactions. Zero values mean no constraint.
// Time bounds are half-open: From inclusive, To exclusive.
type TransactionFilter struct {
	Status        *TransactionStatus
	Category      *TransactionCategory
	Type          *TransactionType
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time
	// PageSize controls how many rows are fetched per round trip.
	PageSize int
}

// Matches applies the filter to an in-memory transaction. Status is compared
// against EffectiveStatus, so a compensated credit matches reversed only.
func (f TransactionFilter) Matches(t *Transaction) bool {
	if f.Status != nil && t.EffectiveStatus() != *f.Status {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !t.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if f.CompletedFrom != nil || f.CompletedTo != nil {
		if t.CompletedAt == nil {
			return false
		}
		if f.CompletedFrom != nil && t.CompletedAt.Before(*f.CompletedFrom) {
			return false
		}
		if f.CompletedTo != nil && !t.CompletedAt.Before(*f.CompletedTo) {
			return false
		}
	}

	return true
}

// TransactionCursor is a keyset position in createdAt-descending order.
type TransactionCursor struct {
	CreatedAt time.Time
	ID        string
}
