package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
)

// BalanceUseCase maintains the materialized wallet balance and checks it
// against the recomputed history.
type BalanceUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txRepo     TransactionRepository
	journal    journal
	retrier    Retrier
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *BalanceUseCase {
	return &BalanceUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		journal:    journal{outboxRepo: outboxRepo, auditRepo: auditRepo, idGen: idGen, metrics: metrics},
		retrier:    retrier,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IntegrityReport is the outcome of a successful integrity check.
type IntegrityReport struct {
	WalletID    string
	Balance     int64
	TotalEarned int64
	OnHold      bool
	CheckedAt   time.Time
}

// Apply adds a newly completed transaction to the wallet's incremental view.
// It must run inside the transaction that moved t to completed, with the
// wallet row locked.
func (uc *BalanceUseCase) Apply(ctx context.Context, tx Transaction, wallet *domain.Wallet, t *domain.Transaction, now time.Time) error {
	balance, totalEarned := wallet.ApplyCompletion(t)

	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, balance, totalEarned, now); err != nil {
		return err
	}

	wallet.Balance = balance
	wallet.TotalEarned = totalEarned
	wallet.UpdatedAt = now

	return nil
}

// GetWallet returns a wallet by id without checking its integrity hold.
func (uc *BalanceUseCase) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, walletID)
}

// GetWalletByOwner returns the owner's wallet.
func (uc *BalanceUseCase) GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByOwner(ctx, ownerID)
}

// Balance returns the wallet for balance reporting. A wallet on integrity hold
// reports unavailable instead of a possibly wrong balance.
func (uc *BalanceUseCase) Balance(ctx context.Context, walletID string) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	if wallet.OnHold() {
		return nil, domain.ErrBalanceUnavailable
	}

	return wallet, nil
}

// Verify compares the incremental view with the fold of the completed
// history. A mismatch places the wallet on integrity hold and returns an
// *domain.IntegrityViolationError.
func (uc *BalanceUseCase) Verify(ctx context.Context, walletID string) (*IntegrityReport, error) {
	start := time.Now()

	var (
		report    *IntegrityReport
		violation *domain.IntegrityViolationError
	)

	err := uc.retry(ctx, func() error {
		report, violation = nil, nil

		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, walletID)
		if err != nil {
			return err
		}

		recomputed, err := uc.txRepo.Fold(txCtx, tx, walletID)
		if err != nil {
			return err
		}

		now := uc.now()

		if recomputed.Balance == wallet.Balance && recomputed.Earned == wallet.TotalEarned {
			report = &IntegrityReport{
				WalletID:    wallet.ID,
				Balance:     wallet.Balance,
				TotalEarned: wallet.TotalEarned,
				OnHold:      wallet.OnHold(),
				CheckedAt:   now,
			}
			return nil
		}

		violation = &domain.IntegrityViolationError{
			WalletID:            wallet.ID,
			MaterializedBalance: wallet.Balance,
			RecomputedBalance:   recomputed.Balance,
			MaterializedEarned:  wallet.TotalEarned,
			RecomputedEarned:    recomputed.Earned,
		}

		if wallet.OnHold() {
			// Already escalated; nothing new to record.
			return nil
		}

		if err := uc.walletRepo.SetIntegrityHold(txCtx, tx, wallet.ID, &now); err != nil {
			return err
		}

		payload := map[string]any{
			"wallet_id":            wallet.ID,
			"owner_id":             wallet.OwnerID,
			"materialized_balance": wallet.Balance,
			"recomputed_balance":   recomputed.Balance,
			"materialized_earned":  wallet.TotalEarned,
			"recomputed_earned":    recomputed.Earned,
		}
		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeIntegrityViolation, payload, now); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})

	uc.metrics.ObserveDuration("verify", time.Since(start).Seconds())

	if err != nil {
		uc.metrics.CountError("verify", errorType(err))
		return nil, err
	}

	if violation != nil {
		zerolog.Ctx(ctx).Error().
			Str("wallet_id", violation.WalletID).
			Int64("materialized_balance", violation.MaterializedBalance).
			Int64("recomputed_balance", violation.RecomputedBalance).
			Int64("materialized_earned", violation.MaterializedEarned).
			Int64("recomputed_earned", violation.RecomputedEarned).
			Msg("wallet integrity violation, balance reporting suspended")

		if uc.metrics != nil {
			uc.metrics.IntegrityChecks.WithLabelValues("violation").Inc()
		}

		return nil, violation
	}

	if uc.metrics != nil {
		uc.metrics.IntegrityChecks.WithLabelValues("ok").Inc()
	}

	return report, nil
}

// Rebuild replaces the incremental view with the recomputed one and lifts the
// integrity hold.
func (uc *BalanceUseCase) Rebuild(ctx context.Context, walletID string) (*domain.Wallet, error) {
	var rebuilt *domain.Wallet

	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, walletID)
		if err != nil {
			return err
		}
		before := *wallet

		recomputed, err := uc.txRepo.Fold(txCtx, tx, walletID)
		if err != nil {
			return err
		}

		now := uc.now()

		if err := uc.walletRepo.UpdateBalance(txCtx, tx, wallet.ID, recomputed.Balance, recomputed.Earned, now); err != nil {
			return err
		}
		if err := uc.walletRepo.SetIntegrityHold(txCtx, tx, wallet.ID, nil); err != nil {
			return err
		}

		wallet.Balance = recomputed.Balance
		wallet.TotalEarned = recomputed.Earned
		wallet.IntegrityHoldAt = nil
		wallet.UpdatedAt = now

		payload := map[string]any{
			"wallet_id":        wallet.ID,
			"previous_balance": before.Balance,
			"balance":          wallet.Balance,
			"previous_earned":  before.TotalEarned,
			"total_earned":     wallet.TotalEarned,
		}
		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeWalletRebuilt, payload, now); err != nil {
			return err
		}
		if err := uc.journal.audit(txCtx, tx, domain.AuditActionWalletRebuild, domain.AggregateTypeWallet, wallet.ID, before, wallet, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		rebuilt = wallet
		return nil
	})
	if err != nil {
		uc.metrics.CountError("rebuild", errorType(err))
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("wallet_id", rebuilt.ID).
		Int64("balance", rebuilt.Balance).
		Int64("total_earned", rebuilt.TotalEarned).
		Msg("wallet balance rebuilt from history")

	if uc.metrics != nil {
		uc.metrics.WalletRebuilds.Inc()
	}

	return rebuilt, nil
}

// ListWalletIDs pages through all wallets in id order.
func (uc *BalanceUseCase) ListWalletIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	return uc.walletRepo.ListIDs(ctx, afterID, limit)
}

func (uc *BalanceUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

// errorType labels an error for metrics.
func errorType(err error) string {
	var te *domain.TransitionError
	switch {
	case domain.IsValidation(err):
		return "validation"
	case errors.As(err, &te):
		return "invalid_transition"
	case errors.Is(err, domain.ErrIntegrityViolation):
		return "integrity"
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrProjectNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
