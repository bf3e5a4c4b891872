package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
	ErrInvalidSourceRef = errors.New("invalid source reference")
	ErrInvalidOwner     = errors.New("invalid owner reference")
	ErrInvalidEnum      = errors.New("unknown enumeration value")
)

// Validation constants
const (
	MaxSourceRefLength = 255
	MaxMetadataSize    = 10240 // 10KB
	// MaxAmount is the largest single movement in minor units.
	MaxAmount int64 = 100_000_000_000_000
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
	"AED": true, "KES": true, "NGN": true, "PKR": true,
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = NormalizeCurrency(currency)

	if !validCurrencies[currency] {
		return &ValidationError{
			Field:  "currency",
			Reason: fmt.Sprintf("%q is not a supported ISO 4217 currency code", currency),
			Err:    ErrInvalidCurrency,
		}
	}

	return nil
}

// ValidateAmount validates a minor-unit amount.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return NewValidationError("amount", ErrInvalidAmount)
	}

	if amount > MaxAmount {
		return &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("maximum amount is %d", MaxAmount),
			Err:    ErrAmountTooLarge,
		}
	}

	return nil
}

// ValidateSourceRef validates an idempotency source reference.
func ValidateSourceRef(ref string) error {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return &ValidationError{Field: "source_ref", Reason: "must not be empty", Err: ErrInvalidSourceRef}
	}

	if len(ref) > MaxSourceRefLength {
		return &ValidationError{
			Field:  "source_ref",
			Reason: fmt.Sprintf("exceeds %d characters", MaxSourceRefLength),
			Err:    ErrInvalidSourceRef,
		}
	}

	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return &ValidationError{
			Field:  "metadata",
			Reason: fmt.Sprintf("size %d bytes exceeds limit of %d bytes", size, MaxMetadataSize),
			Err:    ErrMetadataTooLarge,
		}
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
