package domain

import (
	"fmt"
	"time"
)

// ErrBalanceUnavailable is returned by balance reads of a wallet on integrity hold.
var ErrBalanceUnavailable = fmt.Errorf("%w: balance reporting suspended until rebuild", ErrIntegrityViolation)

// TransactionTotal is one group of a summed transaction history.
type TransactionTotal struct {
	Type     TransactionType
	Category TransactionCategory
	Status   TransactionStatus
	Currency string
	Amount   int64
	Count    int64
}

// MonthlyTotal is a completed-history group attributed to the month of completion.
type MonthlyTotal struct {
	Month time.Time
	TransactionTotal
}

// CurrencyOf returns the single currency shared by totals. An empty set has no
// currency; more than one currency is a validation error.
func CurrencyOf(totals []TransactionTotal) (string, error) {
	var currency string
	for _, t := range totals {
		switch {
		case currency == "":
			currency = t.Currency
		case t.Currency != currency:
			return "", &ValidationError{
				Field:  "currency",
				Reason: fmt.Sprintf("found both %s and %s", currency, t.Currency),
				Err:    ErrMixedCurrency,
			}
		}
	}
	return currency, nil
}

// NetEarned sums the earnings contribution of the completed groups.
func NetEarned(totals []TransactionTotal) int64 {
	var earned int64
	for _, t := range totals {
		if t.Status != TransactionStatusCompleted {
			continue
		}
		earned += BalanceDelta(&Transaction{Type: t.Type, Category: t.Category, Amount: t.Amount}).Earned
	}
	return earned
}

// CategoryTotals are all-time net completed amounts per category.
type CategoryTotals struct {
	Commission int64
	Reward     int64
	Payout     int64
	Adjustment int64
}

// NewCategoryTotals folds completed groups into per-category net amounts.
func NewCategoryTotals(totals []TransactionTotal) CategoryTotals {
	var c CategoryTotals
	for _, t := range totals {
		if t.Status != TransactionStatusCompleted {
			continue
		}
		signed := BalanceDelta(&Transaction{Type: t.Type, Category: t.Category, Amount: t.Amount}).Balance
		switch t.Category {
		case CategoryCommission:
			c.Commission += signed
		case CategoryReward:
			c.Reward += signed
		case CategoryPayout:
			c.Payout += signed
		case CategoryAdjustment:
			c.Adjustment += signed
		}
	}
	return c
}

// StatusSplit separates credits that have been paid out to the wallet from
// credits still pending.
type StatusSplit struct {
	Paid   int64
	Unpaid int64
}

// NewStatusSplit computes paid (completed credits) and unpaid (pending credits).
func NewStatusSplit(totals []TransactionTotal) StatusSplit {
	var s StatusSplit
	for _, t := range totals {
		if t.Type != TransactionTypeCredit {
			continue
		}
		switch t.Status {
		case TransactionStatusCompleted:
			s.Paid += t.Amount
		case TransactionStatusPending:
			s.Unpaid += t.Amount
		case TransactionStatusFailed, TransactionStatusReversed:
		}
	}
	return s
}

// WindowEarnings is the earnings attributed to one reporting window by
// completion time.
type WindowEarnings struct {
	Window   Window
	Currency string
	Amount   int64
}

// WalletSummary is the read-only record exposed to collaborators.
type WalletSummary struct {
	WalletID              string
	OwnerID               string
	Currency              string
	Balance               int64
	TotalEarned           int64
	CurrentWindow         Window
	CurrentWindowEarnings int64
	RewardTotal           int64
	CommissionTotal       int64
	PaidTotal             int64
	UnpaidTotal           int64
	AsOf                  time.Time
}
