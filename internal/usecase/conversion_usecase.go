package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
)

// ConversionUseCase turns lead conversions into commission credits. It is the
// ledger side of the lead workflow; the trigger (HTTP or a message consumer)
// is chosen by the caller.
type ConversionUseCase struct {
	ledger       *LedgerUseCase
	autoComplete bool
	metrics      *metrics.Metrics
}

// NewConversionUseCase creates a new ConversionUseCase. When autoComplete is
// set, new commission credits are completed right away.
func NewConversionUseCase(ledger *LedgerUseCase, autoComplete bool, metrics *metrics.Metrics) *ConversionUseCase {
	return &ConversionUseCase{
		ledger:       ledger,
		autoComplete: autoComplete,
		metrics:      metrics,
	}
}

// HandleLeadConverted appends a commission credit keyed by the lead id.
// Delivering the same conversion again is a no-op.
func (uc *ConversionUseCase) HandleLeadConverted(ctx context.Context, event domain.LeadConverted) (*AppendResult, error) {
	category := domain.CategoryCommission
	if strings.TrimSpace(event.Category) != "" {
		parsed, err := domain.ParseTransactionCategory(event.Category)
		if err != nil {
			uc.count("rejected")
			return nil, err
		}
		if !parsed.IsEarning() {
			uc.count("rejected")
			return nil, &domain.ValidationError{Field: "category", Reason: "conversions credit commission or reward only", Err: domain.ErrInvalidEnum}
		}
		category = parsed
	}

	metadata := map[string]any{"lead_id": event.LeadID}
	for k, v := range event.Metadata {
		metadata[k] = v
	}
	if event.ConvertedAt != nil {
		metadata["converted_at"] = event.ConvertedAt.UTC().Format(time.RFC3339)
	}

	result, err := uc.ledger.Append(ctx, domain.TransactionDraft{
		OwnerID:   event.PartnerID,
		Currency:  event.Currency,
		Type:      domain.TransactionTypeCredit,
		Category:  category,
		Amount:    event.Amount,
		SourceRef: event.LeadID,
		Metadata:  metadata,
	})
	if err != nil {
		uc.count("rejected")
		return nil, err
	}

	if result.Duplicate {
		uc.count("duplicate")
	} else {
		uc.count("credited")
	}

	if !uc.autoComplete || result.Transaction.Status != domain.TransactionStatusPending {
		return result, nil
	}

	completed, err := uc.ledger.MarkCompleted(ctx, result.Transaction.ID)
	switch {
	case err == nil:
		result.Transaction = completed
	case errors.Is(err, domain.ErrInvalidStateTransition):
		// A concurrent delivery completed it first.
		zerolog.Ctx(ctx).Debug().Str("transaction_id", result.Transaction.ID).Msg("conversion credit already settled")
	default:
		return nil, err
	}

	return result, nil
}

func (uc *ConversionUseCase) count(result string) {
	if uc.metrics != nil {
		uc.metrics.LeadConversions.WithLabelValues(result).Inc()
	}
}
