package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iho/partnerledger/internal/domain"
)

func TestTransactionFromDomain_EffectiveStatus(t *testing.T) {
	reversal := "t2"
	completed := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	resp := TransactionFromDomain(&domain.Transaction{
		ID:          "t1",
		Type:        domain.TransactionTypeCredit,
		Category:    domain.CategoryCommission,
		Status:      domain.TransactionStatusCompleted,
		ReversedBy:  &reversal,
		CompletedAt: &completed,
	})

	if resp.Status != string(domain.TransactionStatusReversed) {
		t.Fatalf("expected reversed, got %s", resp.Status)
	}
	if resp.ReversedBy == nil || *resp.ReversedBy != "t2" {
		t.Fatalf("expected reversed_by t2, got %v", resp.ReversedBy)
	}
}

func TestClientReconciliationFromDomain(t *testing.T) {
	a := "A"
	rec := &domain.ClientReconciliation{
		ClientID:      "c1",
		Currency:      "USD",
		TotalCost:     1500,
		PaymentTotals: domain.PaymentTotals{Paid: 1600, Pending: 50},
		Projects: []*domain.ProjectFinancials{
			{ProjectID: &a, Name: "A", Currency: "USD", TotalCost: 1000, PaymentTotals: domain.PaymentTotals{Paid: 1200}},
			{Name: "B", Currency: "USD", TotalCost: 500, PaymentTotals: domain.PaymentTotals{Paid: 100}},
		},
		Unassigned: &domain.ProjectFinancials{Name: "Unassigned", PaymentTotals: domain.PaymentTotals{Paid: 300}},
	}

	resp := ClientReconciliationFromDomain(rec)

	if resp.RemainingAmount != 400 {
		t.Fatalf("expected remaining 400, got %d", resp.RemainingAmount)
	}
	if len(resp.PerProjectBreakdown) != 2 || resp.PerProjectBreakdown[0].RemainingAmount != 0 || resp.PerProjectBreakdown[1].RemainingAmount != 400 {
		t.Fatalf("unexpected breakdown %+v", resp.PerProjectBreakdown)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["unassigned_payments"] == nil || decoded["total_paid"] != float64(1600) {
		t.Fatalf("unexpected wire shape %s", raw)
	}
}

func TestWalletFromDomain_Hold(t *testing.T) {
	at := time.Now().UTC()
	resp := WalletFromDomain(&domain.Wallet{ID: "w1", IntegrityHoldAt: &at})
	if !resp.OnHold {
		t.Fatal("expected on_hold")
	}
}
