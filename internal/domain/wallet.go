package domain

import "time"

// Wallet is the per-owner aggregate holding the materialized balance.
type Wallet struct {
	ID          string
	OwnerID     string
	Currency    string
	Balance     int64
	TotalEarned int64
	// IntegrityHoldAt is set while the materialized view is known to disagree
	// with the transaction history. Balance reporting is refused until a rebuild.
	IntegrityHoldAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OnHold reports whether balance reporting is suspended for this wallet.
func (w *Wallet) OnHold() bool {
	return w.IntegrityHoldAt != nil
}

// ApplyCompletion returns the balance and total earned after t completes.
func (w *Wallet) ApplyCompletion(t *Transaction) (balance, totalEarned int64) {
	d := BalanceDelta(t)
	return w.Balance + d.Balance, w.TotalEarned + d.Earned
}

// Delta is the contribution of one completed transaction to a wallet.
type Delta struct {
	Balance int64
	Earned  int64
}

// BalanceDelta computes what a completed transaction adds to a wallet's
// balance and lifetime earnings. Both the incremental and the recomputed
// views go through this function.
func BalanceDelta(t *Transaction) Delta {
	var signed int64
	switch t.Type {
	case TransactionTypeCredit:
		signed = t.Amount
	case TransactionTypeDebit:
		signed = -t.Amount
	}

	d := Delta{Balance: signed}
	if t.Category.IsEarning() {
		d.Earned = signed
	}

	return d
}

// Fold recomputes balance and total earned from a full history. Only
// completed transactions contribute.
func Fold(txs []*Transaction) Delta {
	var total Delta
	for _, t := range txs {
		if t.Status != TransactionStatusCompleted {
			continue
		}
		d := BalanceDelta(t)
		total.Balance += d.Balance
		total.Earned += d.Earned
	}

	return total
}
