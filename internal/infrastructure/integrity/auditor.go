package integrity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// WalletVerifier is the part of the balance use case the auditor drives.
type WalletVerifier interface {
	ListWalletIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	Verify(ctx context.Context, walletID string) (*usecase.IntegrityReport, error)
}

// RunReport summarises one sweep over all wallets.
type RunReport struct {
	Checked    int
	Violations []string
	Failed     int
}

// Auditor periodically compares every materialized wallet balance with the
// fold of its history. Violations put the wallet on hold through Verify.
type Auditor struct {
	verifier WalletVerifier
	logger   zerolog.Logger
	interval time.Duration
	pageSize int
}

// Config for Auditor.
type Config struct {
	Verifier WalletVerifier
	Logger   zerolog.Logger
	Interval time.Duration
	PageSize int
}

// NewAuditor creates a new Auditor.
func NewAuditor(cfg Config) *Auditor {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = usecase.DefaultPageSize
	}

	return &Auditor{
		verifier: cfg.Verifier,
		logger:   cfg.Logger.With().Str("component", "integrity_auditor").Logger(),
		interval: cfg.Interval,
		pageSize: cfg.PageSize,
	}
}

// Start sweeps on every tick until ctx is cancelled. The first sweep waits
// for the first tick so startup is not slowed by a full scan.
func (a *Auditor) Start(ctx context.Context) error {
	a.logger.Info().Dur("interval", a.interval).Int("page_size", a.pageSize).Msg("integrity auditor started")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("integrity auditor shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error().Err(err).Msg("integrity sweep aborted")
			}
		}
	}
}

// RunOnce verifies every wallet once. A failure to verify one wallet is
// logged and counted; only a failure to list wallets aborts the sweep.
func (a *Auditor) RunOnce(ctx context.Context) (*RunReport, error) {
	ctx = a.logger.WithContext(ctx)
	start := time.Now()
	report := &RunReport{}

	after := ""
	for {
		ids, err := a.verifier.ListWalletIDs(ctx, after, a.pageSize)
		if err != nil {
			return report, err
		}

		for _, id := range ids {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}

			report.Checked++
			_, err := a.verifier.Verify(ctx, id)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrIntegrityViolation):
				report.Violations = append(report.Violations, id)
			default:
				report.Failed++
				a.logger.Error().Err(err).Str("wallet_id", id).Msg("integrity check failed")
			}
		}

		if len(ids) < a.pageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	event := a.logger.Info()
	if len(report.Violations) > 0 {
		event = a.logger.Warn().Strs("violations", report.Violations)
	}
	event.
		Int("checked", report.Checked).
		Int("failed", report.Failed).
		Dur("took", time.Since(start)).
		Msg("integrity sweep finished")

	return report, nil
}
