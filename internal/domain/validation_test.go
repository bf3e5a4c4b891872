package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCurrency(t *testing.T) {
	t.Parallel()

	if err := ValidateCurrency("usd"); err != nil {
		t.Fatalf("expected uppercase conversion to succeed, got %v", err)
	}

	err := ValidateCurrency("XYZ")
	if !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatalf("expected a ValidationError, got %T", err)
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateAmount(10025); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(-1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}

	if err := ValidateAmount(MaxAmount + 1); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestValidateSourceRef(t *testing.T) {
	t.Parallel()

	if err := ValidateSourceRef("lead-42"); err != nil {
		t.Fatalf("expected valid source ref, got %v", err)
	}

	if err := ValidateSourceRef("   "); !errors.Is(err, ErrInvalidSourceRef) {
		t.Fatalf("expected ErrInvalidSourceRef for blank ref, got %v", err)
	}

	if err := ValidateSourceRef(strings.Repeat("r", MaxSourceRefLength+1)); !errors.Is(err, ErrInvalidSourceRef) {
		t.Fatalf("expected ErrInvalidSourceRef for long ref, got %v", err)
	}
}

func TestValidateMetadata(t *testing.T) {
	t.Parallel()

	if err := ValidateMetadata(nil); err != nil {
		t.Fatalf("expected nil metadata to be allowed, got %v", err)
	}

	valid := map[string]any{"key": "value", "count": 10}
	if err := ValidateMetadata(valid); err != nil {
		t.Fatalf("expected valid metadata, got %v", err)
	}

	oversized := map[string]any{
		"payload": strings.Repeat("x", MaxMetadataSize),
	}
	if err := ValidateMetadata(oversized); !errors.Is(err, ErrMetadataTooLarge) {
		t.Fatalf("expected ErrMetadataTooLarge, got %v", err)
	}
}

func TestTransactionDraft_Validate(t *testing.T) {
	t.Parallel()

	valid := TransactionDraft{
		OwnerID:   "partner-1",
		Currency:  "USD",
		Type:      TransactionTypeCredit,
		Category:  CategoryCommission,
		Amount:    1000,
		SourceRef: "lead-42",
	}

	tests := []struct {
		name    string
		mutate  func(d *TransactionDraft)
		wantErr error
	}{
		{name: "valid", mutate: func(*TransactionDraft) {}},
		{name: "zero amount", mutate: func(d *TransactionDraft) { d.Amount = 0 }, wantErr: ErrInvalidAmount},
		{name: "unknown currency", mutate: func(d *TransactionDraft) { d.Currency = "ABC" }, wantErr: ErrInvalidCurrency},
		{name: "unknown type", mutate: func(d *TransactionDraft) { d.Type = "transfer" }, wantErr: ErrInvalidEnum},
		{name: "unknown category", mutate: func(d *TransactionDraft) { d.Category = "bonus" }, wantErr: ErrInvalidEnum},
		{name: "missing owner", mutate: func(d *TransactionDraft) { d.OwnerID = "" }, wantErr: ErrInvalidOwner},
		{name: "missing source ref", mutate: func(d *TransactionDraft) { d.SourceRef = "" }, wantErr: ErrInvalidSourceRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected a ValidationError, got %T", err)
			}
		})
	}
}
