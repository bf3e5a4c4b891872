package domain

import "time"

// Project is the read model of a client project synced from the project
// management collaborator. Only cost data is kept here.
type Project struct {
	ID        string
	ClientID  string
	Name      string
	TotalCost int64
	Currency  string
	DeletedAt *time.Time
	UpdatedAt time.Time
}

// Milestone is a billing milestone of a project.
type Milestone struct {
	ID        string
	ProjectID string
	Name      string
	Amount    int64
	DeletedAt *time.Time
	UpdatedAt time.Time
}

// PaymentTotals buckets payment amounts by status.
type PaymentTotals struct {
	Paid     int64
	Pending  int64
	Refunded int64
	Failed   int64
}

// Add counts p in its status bucket.
func (t *PaymentTotals) Add(p *Payment) {
	t.AddStatus(p.Status, p.Amount)
}

// AddStatus counts amount in the bucket of status. Callers reading rows
// written by other systems pass the status through ParsePaymentStatus first.
func (t *PaymentTotals) AddStatus(status PaymentStatus, amount int64) {
	switch status {
	case PaymentStatusCompleted:
		t.Paid += amount
	case PaymentStatusPending:
		t.Pending += amount
	case PaymentStatusRefunded:
		t.Refunded += amount
	case PaymentStatusFailed:
		t.Failed += amount
	}
}

// ProjectFinancials is derived from a project's cost and its payments.
type ProjectFinancials struct {
	ProjectID *string
	Name      string
	Currency  string
	TotalCost int64
	PaymentTotals
	Payments int
}

// RemainingAmount is max(totalCost - paid, 0).
func (f *ProjectFinancials) RemainingAmount() int64 {
	return Remaining(f.TotalCost, f.Paid)
}

// Remaining never goes below zero, even for overpaid projects.
func Remaining(totalCost, paid int64) int64 {
	if rem := totalCost - paid; rem > 0 {
		return rem
	}
	return 0
}

// ClientReconciliation aggregates a client's project set.
type ClientReconciliation struct {
	ClientID  string
	Currency  string
	TotalCost int64
	PaymentTotals
	Projects []*ProjectFinancials
	// Unassigned collects payments whose project no longer exists.
	Unassigned *ProjectFinancials
}

// RemainingAmount sums the per-project remaining amounts so that overpaying one
// project never hides the debt on another.
func (c *ClientReconciliation) RemainingAmount() int64 {
	var total int64
	for _, p := range c.Projects {
		total += p.RemainingAmount()
	}
	return total
}
