package usecase

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
)

// LedgerUseCase appends transactions and drives their status transitions.
type LedgerUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txRepo     TransactionRepository
	guard      *IdempotencyGuard
	balances   *BalanceUseCase
	journal    journal
	idGen      IDGenerator
	retrier    Retrier
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	guard *IdempotencyGuard,
	balances *BalanceUseCase,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		guard:      guard,
		balances:   balances,
		journal:    journal{outboxRepo: outboxRepo, auditRepo: auditRepo, idGen: idGen, metrics: metrics},
		idGen:      idGen,
		retrier:    retrier,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AppendResult is the outcome of an append. Duplicate is set when the
// idempotency key was already taken and Transaction is the stored one.
type AppendResult struct {
	Transaction *domain.Transaction
	Duplicate   bool
}

// Append records a pending transaction for the draft's owner, creating the
// owner's wallet on first use. Appending an existing (wallet, sourceRef,
// category) key returns the stored transaction instead of a new one.
func (uc *LedgerUseCase) Append(ctx context.Context, draft domain.TransactionDraft) (*AppendResult, error) {
	start := time.Now()

	draft.Currency = domain.NormalizeCurrency(draft.Currency)
	if err := draft.Validate(); err != nil {
		uc.metrics.CountError("append", errorType(err))
		return nil, err
	}

	if existing, ok := uc.guard.Lookup(ctx, &draft); ok && existing.Currency == draft.Currency {
		uc.countDuplicate("cache")
		return &AppendResult{Transaction: existing, Duplicate: true}, nil
	}

	var result *AppendResult

	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		now := uc.now()

		wallet, created, err := uc.walletRepo.GetOrCreateForUpdate(txCtx, tx, &domain.Wallet{
			ID:        uc.idGen.Generate(),
			OwnerID:   draft.OwnerID,
			Currency:  draft.Currency,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		if wallet.Currency != draft.Currency {
			return &domain.ValidationError{
				Field:  "currency",
				Reason: fmt.Sprintf("wallet %s holds %s, got %s", wallet.ID, wallet.Currency, draft.Currency),
				Err:    domain.ErrCurrencyMismatch,
			}
		}

		if created {
			payload := map[string]any{"wallet_id": wallet.ID, "owner_id": wallet.OwnerID, "currency": wallet.Currency}
			if err := uc.journal.emit(txCtx, tx, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeWalletCreated, payload, now); err != nil {
				return err
			}
		}

		candidate := &domain.Transaction{
			ID:        uc.idGen.Generate(),
			WalletID:  wallet.ID,
			Type:      draft.Type,
			Category:  draft.Category,
			Amount:    draft.Amount,
			Currency:  draft.Currency,
			Status:    domain.TransactionStatusPending,
			SourceRef: draft.SourceRef,
			Metadata:  draft.Metadata,
			CreatedAt: now,
		}

		stored, duplicate, err := uc.guard.Claim(txCtx, tx, candidate)
		if err != nil {
			return err
		}

		if duplicate {
			result = &AppendResult{Transaction: stored, Duplicate: true}
			return nil
		}

		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypeTransaction, stored.ID, domain.EventTypeTransactionAppended, domain.TransactionEventPayload(stored), now); err != nil {
			return err
		}
		if err := uc.journal.audit(txCtx, tx, domain.AuditActionTransactionAppend, domain.AggregateTypeTransaction, stored.ID, nil, stored, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		if created && uc.metrics != nil {
			uc.metrics.WalletsCreated.Inc()
		}

		result = &AppendResult{Transaction: stored}
		return nil
	})

	uc.metrics.ObserveDuration("append", time.Since(start).Seconds())

	if err != nil {
		uc.metrics.CountError("append", errorType(err))
		return nil, err
	}

	uc.guard.Remember(ctx, draft.OwnerID, result.Transaction)

	if result.Duplicate {
		uc.countDuplicate("store")
		zerolog.Ctx(ctx).Debug().
			Str("transaction_id", result.Transaction.ID).
			Str("source_ref", draft.SourceRef).
			Msg("append resolved to existing transaction")
	} else if uc.metrics != nil {
		uc.metrics.TransactionsAppended.WithLabelValues(string(draft.Category)).Inc()
		uc.metrics.TransactionAmount.WithLabelValues(string(draft.Category)).Observe(float64(draft.Amount))
	}

	return result, nil
}

// MarkCompleted moves a pending transaction to completed and applies it to the
// wallet balance in the same database transaction.
func (uc *LedgerUseCase) MarkCompleted(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := uc.transition(ctx, id, domain.TransactionStatusCompleted)
	if err != nil {
		uc.metrics.CountError("complete", errorType(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCompleted.Inc()
	}

	return t, nil
}

// MarkFailed moves a pending transaction to failed. Failed transactions never
// affect the balance.
func (uc *LedgerUseCase) MarkFailed(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := uc.transition(ctx, id, domain.TransactionStatusFailed)
	if err != nil {
		uc.metrics.CountError("fail", errorType(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsFailed.Inc()
	}

	return t, nil
}

func (uc *LedgerUseCase) transition(ctx context.Context, id string, next domain.TransactionStatus) (*domain.Transaction, error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveDuration(string(next), time.Since(start).Seconds()) }()

	var result *domain.Transaction

	err := uc.retry(ctx, func() error {
		// Resolve the wallet first so the wallet lock is always taken before
		// the transaction row lock.
		current, err := uc.txRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, current.WalletID)
		if err != nil {
			return err
		}

		t, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, id)
		if err != nil {
			return err
		}
		before := *t

		now := uc.now()
		if err := t.Transition(next, now); err != nil {
			return err
		}

		ok, err := uc.txRepo.UpdateStatus(txCtx, tx, t.ID, before.Status, t.Status, t.CompletedAt)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.TransitionError{Entity: "transaction", ID: t.ID, From: string(before.Status), To: string(next)}
		}

		eventType := domain.EventTypeTransactionFailed
		action := domain.AuditActionTransactionFail

		if next == domain.TransactionStatusCompleted {
			if err := uc.balances.Apply(txCtx, tx, wallet, t, now); err != nil {
				return err
			}
			eventType = domain.EventTypeTransactionCompleted
			action = domain.AuditActionTransactionComplete
		}

		payload := domain.TransactionEventPayload(t)
		payload["balance"] = wallet.Balance
		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypeTransaction, t.ID, eventType, payload, now); err != nil {
			return err
		}
		if err := uc.journal.audit(txCtx, tx, action, domain.AggregateTypeTransaction, t.ID, before, t, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Reverse neutralizes a completed transaction by appending a compensating
// transaction of the opposite type, created already completed. The original
// is never modified. Reversing the same transaction again returns the
// existing compensation.
func (uc *LedgerUseCase) Reverse(ctx context.Context, id string) (*AppendResult, error) {
	start := time.Now()

	var result *AppendResult

	err := uc.retry(ctx, func() error {
		original, err := uc.txRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if original.IsCompensation() {
			return domain.ErrReversalOfReversal
		}

		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, original.WalletID)
		if err != nil {
			return err
		}

		// Re-read under the wallet lock; status may have moved since.
		original, err = uc.txRepo.GetByIDForUpdate(txCtx, tx, id)
		if err != nil {
			return err
		}

		if original.Status != domain.TransactionStatusCompleted {
			return &domain.TransitionError{
				Entity: "transaction",
				ID:     original.ID,
				From:   string(original.Status),
				To:     string(domain.TransactionStatusReversed),
			}
		}

		now := uc.now()
		originalID := original.ID
		compensation := &domain.Transaction{
			ID:          uc.idGen.Generate(),
			WalletID:    original.WalletID,
			Type:        original.Type.Opposite(),
			Category:    original.Category,
			Amount:      original.Amount,
			Currency:    original.Currency,
			Status:      domain.TransactionStatusCompleted,
			SourceRef:   domain.ReversalSourceRef(originalID),
			ReversalOf:  &originalID,
			CreatedAt:   now,
			CompletedAt: &now,
		}

		stored, duplicate, err := uc.guard.Claim(txCtx, tx, compensation)
		if err != nil {
			return err
		}

		if duplicate {
			result = &AppendResult{Transaction: stored, Duplicate: true}
			return nil
		}

		if err := uc.balances.Apply(txCtx, tx, wallet, stored, now); err != nil {
			return err
		}

		payload := domain.TransactionEventPayload(stored)
		payload["balance"] = wallet.Balance
		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypeTransaction, originalID, domain.EventTypeTransactionReversed, payload, now); err != nil {
			return err
		}

		reversedView := *original
		reversedView.ReversedBy = &stored.ID
		if err := uc.journal.audit(txCtx, tx, domain.AuditActionTransactionReverse, domain.AggregateTypeTransaction, originalID, original, &reversedView, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		result = &AppendResult{Transaction: stored}
		return nil
	})

	uc.metrics.ObserveDuration("reverse", time.Since(start).Seconds())

	if err != nil {
		uc.metrics.CountError("reverse", errorType(err))
		return nil, err
	}

	if !result.Duplicate && uc.metrics != nil {
		uc.metrics.TransactionsReversed.Inc()
	}

	return result, nil
}

// GetTransaction returns a transaction by id.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// GetTransactions streams a wallet's transactions newest first. The sequence
// is lazy and finite: pages are fetched on demand and iteration stops after
// the last page or the first error. Ranging over it again starts over.
func (uc *LedgerUseCase) GetTransactions(ctx context.Context, walletID string, filter domain.TransactionFilter) iter.Seq2[*domain.Transaction, error] {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return func(yield func(*domain.Transaction, error) bool) {
		var cursor *domain.TransactionCursor

		for {
			page, err := uc.txRepo.ListPage(ctx, walletID, filter, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}

			if len(page) < pageSize {
				return
			}

			last := page[len(page)-1]
			cursor = &domain.TransactionCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

// CollectTransactions drains up to limit transactions from GetTransactions.
func (uc *LedgerUseCase) CollectTransactions(ctx context.Context, walletID string, filter domain.TransactionFilter, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if filter.PageSize <= 0 || filter.PageSize > limit {
		filter.PageSize = limit
	}

	txs := make([]*domain.Transaction, 0, limit)
	for t, err := range uc.GetTransactions(ctx, walletID, filter) {
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
		if len(txs) == limit {
			break
		}
	}

	return txs, nil
}

// ListAudit returns the audit trail of a transaction.
func (uc *LedgerUseCase) ListAudit(ctx context.Context, id string) ([]*domain.AuditLog, error) {
	if _, err := uc.txRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if uc.journal.auditRepo == nil {
		return nil, nil
	}

	return uc.journal.auditRepo.GetByResourceID(ctx, domain.AggregateTypeTransaction, id)
}

func (uc *LedgerUseCase) countDuplicate(source string) {
	if uc.metrics != nil {
		uc.metrics.TransactionsDuplicate.WithLabelValues(source).Inc()
	}
}

func (uc *LedgerUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}
