package domain

import (
	"errors"
	"testing"
	"time"
)

func TestProjectFinancials_Scenario(t *testing.T) {
	t.Parallel()

	f := &ProjectFinancials{TotalCost: 100000, Currency: "USD"}
	for _, p := range []*Payment{
		{Amount: 30000, Status: PaymentStatusCompleted, PaymentType: PaymentTypeAdvance},
		{Amount: 20000, Status: PaymentStatusPending, PaymentType: PaymentTypeMilestone},
		{Amount: 10000, Status: PaymentStatusRefunded, PaymentType: PaymentTypeFinal},
	} {
		f.Add(p)
	}

	if f.Paid != 30000 || f.Pending != 20000 || f.Refunded != 10000 || f.Failed != 0 {
		t.Fatalf("unexpected totals: %+v", f.PaymentTotals)
	}
	if f.RemainingAmount() != 70000 {
		t.Fatalf("expected remaining 70000, got %d", f.RemainingAmount())
	}
}

func TestRemaining_NeverNegative(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ cost, paid, want int64 }{
		{100, 0, 100},
		{100, 100, 0},
		{100, 250, 0},
		{0, 10, 0},
	} {
		if got := Remaining(tc.cost, tc.paid); got != tc.want {
			t.Fatalf("Remaining(%d, %d) = %d, want %d", tc.cost, tc.paid, got, tc.want)
		}
	}
}

func TestClientReconciliation_RemainingIsPerProject(t *testing.T) {
	t.Parallel()

	overpaid := &ProjectFinancials{TotalCost: 100, PaymentTotals: PaymentTotals{Paid: 150}}
	open := &ProjectFinancials{TotalCost: 200, PaymentTotals: PaymentTotals{Paid: 50}}

	c := &ClientReconciliation{Projects: []*ProjectFinancials{overpaid, open}}
	if got := c.RemainingAmount(); got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
}

func TestPayment_Transition(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Payment{ID: "pay-1", Status: PaymentStatusPending}

	if err := p.Transition(PaymentStatusRefunded, now); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("pending -> refunded must fail, got %v", err)
	}
	if err := p.Transition(PaymentStatusCompleted, now); err != nil {
		t.Fatalf("pending -> completed: %v", err)
	}
	if p.PaidAt == nil {
		t.Fatal("expected paidAt to be set")
	}
	if err := p.Transition(PaymentStatusRefunded, now); err != nil {
		t.Fatalf("completed -> refunded: %v", err)
	}
	if err := p.Transition(PaymentStatusCompleted, now); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("refunded is terminal, got %v", err)
	}
}
