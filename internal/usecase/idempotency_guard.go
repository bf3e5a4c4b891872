package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
)

// IdempotencyGuard resolves (wallet, sourceRef, category) to at most one
// transaction. Uniqueness is enforced by the store; the cache only saves a
// database round trip for producers that retry.
type IdempotencyGuard struct {
	txRepo  TransactionRepository
	cache   SourceRefCache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewIdempotencyGuard creates a new IdempotencyGuard. cache may be nil.
func NewIdempotencyGuard(txRepo TransactionRepository, cache SourceRefCache, ttl time.Duration, m *metrics.Metrics) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = SourceRefCacheTTL
	}

	return &IdempotencyGuard{
		txRepo:  txRepo,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
	}
}

// Lookup returns the transaction already recorded for the draft, if the cache
// knows it. Cache failures are treated as misses.
func (g *IdempotencyGuard) Lookup(ctx context.Context, draft *domain.TransactionDraft) (*domain.Transaction, bool) {
	if g.cache == nil {
		return nil, false
	}

	id, found, err := g.cache.Lookup(ctx, draft.OwnerID, draft.Category, draft.SourceRef)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("source_ref", draft.SourceRef).Msg("source ref cache lookup failed")
		g.count("error")
		return nil, false
	}
	if !found {
		g.count("miss")
		return nil, false
	}

	existing, err := g.txRepo.GetByID(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("transaction_id", id).Msg("cached transaction could not be loaded")
		g.count("error")
		return nil, false
	}

	g.count("hit")

	return existing, true
}

// Claim stores t unless its key is already taken. It returns the stored
// transaction and whether it already existed.
func (g *IdempotencyGuard) Claim(ctx context.Context, tx Transaction, t *domain.Transaction) (*domain.Transaction, bool, error) {
	inserted, err := g.txRepo.InsertIfAbsent(ctx, tx, t)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return t, false, nil
	}

	existing, err := g.txRepo.GetByKey(ctx, tx, t.Key())
	if errors.Is(err, domain.ErrTransactionNotFound) {
		// The insert conflicted on a key this transaction cannot see.
		return nil, false, fmt.Errorf("%w: %s", domain.ErrDuplicateSourceRef, t.Key())
	}
	if err != nil {
		return nil, false, err
	}

	return existing, true, nil
}

// Remember records a resolved key after its transaction has committed.
func (g *IdempotencyGuard) Remember(ctx context.Context, ownerID string, t *domain.Transaction) {
	if g.cache == nil {
		return
	}

	if err := g.cache.Remember(ctx, ownerID, t.Category, t.SourceRef, t.ID, g.ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("transaction_id", t.ID).Msg("failed to cache source ref")
	}
}

func (g *IdempotencyGuard) count(result string) {
	if g.metrics != nil {
		g.metrics.SourceRefCache.WithLabelValues(result).Inc()
	}
}
