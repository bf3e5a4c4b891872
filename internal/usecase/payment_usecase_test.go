package usecase_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

func TestPaymentUseCase_RecordPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedProject(t, h, "P", "client-1", 1000)

	if _, err := h.projectUC.UpsertMilestone(ctx, usecase.UpsertMilestoneInput{ID: "m1", ProjectID: "P", Name: "Design", Amount: 400}); err != nil {
		t.Fatalf("UpsertMilestone: %v", err)
	}

	input := usecase.RecordPaymentInput{
		ClientID:    "client-1",
		ProjectID:   ptr("P"),
		MilestoneID: ptr("m1"),
		ExternalRef: "stripe_pi_1",
		Amount:      400,
		Currency:    "usd",
		PaymentType: domain.PaymentTypeMilestone,
	}

	first, err := h.paymentUC.RecordPayment(ctx, input)
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if first.Duplicate || first.Payment.Status != domain.PaymentStatusPending || first.Payment.Currency != "USD" {
		t.Errorf("unexpected first result %+v", first.Payment)
	}

	again, err := h.paymentUC.RecordPayment(ctx, input)
	if err != nil {
		t.Fatalf("RecordPayment again: %v", err)
	}
	if !again.Duplicate || again.Payment.ID != first.Payment.ID {
		t.Errorf("expected duplicate of %s, got %+v", first.Payment.ID, again)
	}
}

func TestPaymentUseCase_RecordPayment_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.RecordPaymentInput
		err   error
	}{
		{
			name:  "unknown project",
			input: usecase.RecordPaymentInput{ClientID: "client-1", ProjectID: ptr("nope"), ExternalRef: "r1", Amount: 1, Currency: "USD", PaymentType: domain.PaymentTypeAdvance},
			err:   domain.ErrProjectNotFound,
		},
		{
			name:  "project of another client",
			input: usecase.RecordPaymentInput{ClientID: "client-2", ProjectID: ptr("P"), ExternalRef: "r2", Amount: 1, Currency: "USD", PaymentType: domain.PaymentTypeAdvance},
			err:   domain.ErrProjectNotFound,
		},
		{
			name:  "currency differs from project",
			input: usecase.RecordPaymentInput{ClientID: "client-1", ProjectID: ptr("P"), ExternalRef: "r3", Amount: 1, Currency: "EUR", PaymentType: domain.PaymentTypeAdvance},
			err:   domain.ErrCurrencyMismatch,
		},
		{
			name:  "unknown milestone",
			input: usecase.RecordPaymentInput{ClientID: "client-1", ProjectID: ptr("P"), MilestoneID: ptr("m9"), ExternalRef: "r4", Amount: 1, Currency: "USD", PaymentType: domain.PaymentTypeMilestone},
			err:   domain.ErrMilestoneNotFound,
		},
		{
			name:  "milestone without project",
			input: usecase.RecordPaymentInput{ClientID: "client-1", MilestoneID: ptr("m1"), ExternalRef: "r5", Amount: 1, Currency: "USD", PaymentType: domain.PaymentTypeMilestone},
			err:   domain.ErrMilestoneNotFound,
		},
		{
			name:  "zero amount",
			input: usecase.RecordPaymentInput{ClientID: "client-1", ExternalRef: "r6", Amount: 0, Currency: "USD", PaymentType: domain.PaymentTypeAdvance},
			err:   domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			seedProject(t, h, "P", "client-1", 1000)

			_, err := h.paymentUC.RecordPayment(context.Background(), tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestPaymentUseCase_Transitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.paymentUC.RecordPayment(ctx, usecase.RecordPaymentInput{
		ClientID: "client-1", ExternalRef: "pi_1", Amount: 250, Currency: "USD", PaymentType: domain.PaymentTypeAdvance,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if _, err := h.paymentUC.RefundPayment(ctx, "pi_1"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("refunding a pending payment: expected ErrInvalidStateTransition, got %v", err)
	}

	confirmed, err := h.paymentUC.ConfirmPayment(ctx, "pi_1")
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if confirmed.Status != domain.PaymentStatusCompleted || confirmed.PaidAt == nil {
		t.Errorf("unexpected confirmed payment %+v", confirmed)
	}

	if _, err := h.paymentUC.FailPayment(ctx, "pi_1"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("failing a completed payment: expected ErrInvalidStateTransition, got %v", err)
	}

	refunded, err := h.paymentUC.RefundPayment(ctx, "pi_1")
	if err != nil {
		t.Fatalf("RefundPayment: %v", err)
	}
	if refunded.ID != res.Payment.ID || refunded.Status != domain.PaymentStatusRefunded {
		t.Errorf("unexpected refunded payment %+v", refunded)
	}

	want := []string{domain.EventTypePaymentRecorded, domain.EventTypePaymentCompleted, domain.EventTypePaymentRefunded}
	if got := eventTypes(h.store.Events()); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	if _, err := h.paymentUC.ConfirmPayment(ctx, "missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestProjectUseCase_MilestoneRequiresLiveProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedProject(t, h, "P", "client-1", 1000)

	if err := h.projectUC.DeleteProject(ctx, "P"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	_, err := h.projectUC.UpsertMilestone(ctx, usecase.UpsertMilestoneInput{ID: "m1", ProjectID: "P", Amount: 1})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	if err := h.projectUC.DeleteProject(ctx, "P"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("deleting twice: expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectUseCase_UpsertProject_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.projectUC.UpsertProject(context.Background(), usecase.UpsertProjectInput{
		ID: "P", ClientID: "client-1", TotalCost: -1, Currency: "USD",
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = h.projectUC.UpsertProject(context.Background(), usecase.UpsertProjectInput{
		ID: "P", ClientID: "client-1", TotalCost: 1, Currency: "XXX1",
	})
	if !errors.Is(err, domain.ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}
