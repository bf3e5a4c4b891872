package usecase

import (
	"context"
	"time"

	"github.com/iho/partnerledger/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	// GetOrCreateForUpdate locks the owner's wallet for the rest of tx, creating
	// it from wallet when the owner has none. The bool reports creation.
	GetOrCreateForUpdate(ctx context.Context, tx Transaction, wallet *domain.Wallet) (*domain.Wallet, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance, totalEarned int64, updatedAt time.Time) error
	// SetIntegrityHold marks (non-nil at) or clears (nil) the integrity hold.
	SetIntegrityHold(ctx context.Context, tx Transaction, id string, at *time.Time) error
	// ListIDs pages wallet ids in ascending order after afterID.
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	// InsertIfAbsent inserts t unless its (wallet, source ref, category) key
	// already exists. It reports whether a row was inserted.
	InsertIfAbsent(ctx context.Context, tx Transaction, t *domain.Transaction) (bool, error)
	GetByKey(ctx context.Context, tx Transaction, key domain.SourceKey) (*domain.Transaction, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	// UpdateStatus moves a transaction from one status to another. It reports
	// false when the row was no longer in the expected status.
	UpdateStatus(ctx context.Context, tx Transaction, id string, from, to domain.TransactionStatus, completedAt *time.Time) (bool, error)
	// ListPage returns up to limit transactions of a wallet in (createdAt, id)
	// descending order, strictly after the cursor when one is given.
	ListPage(ctx context.Context, walletID string, filter domain.TransactionFilter, after *domain.TransactionCursor, limit int) ([]*domain.Transaction, error)
	// Fold recomputes balance and earnings from the completed history.
	Fold(ctx context.Context, tx Transaction, walletID string) (domain.Delta, error)
	// Totals groups a wallet's history by type, category, status and currency.
	// A non-nil window restricts it to transactions completed inside the window.
	Totals(ctx context.Context, walletID string, completedIn *domain.Window) ([]domain.TransactionTotal, error)
	// MonthlyTotals groups completed history inside span by UTC month of completion.
	MonthlyTotals(ctx context.Context, walletID string, span domain.Window) ([]domain.MonthlyTotal, error)
}

// PaymentRepository defines data access for client payments.
type PaymentRepository interface {
	InsertIfAbsent(ctx context.Context, tx Transaction, payment *domain.Payment) (bool, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*domain.Payment, error)
	GetByExternalRefForUpdate(ctx context.Context, tx Transaction, externalRef string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, from, to domain.PaymentStatus, paidAt *time.Time, updatedAt time.Time) (bool, error)
	// ListByProject returns the payments of a live project.
	ListByProject(ctx context.Context, projectID string) ([]*domain.Payment, error)
	// ListByClient returns all payments of a client. Project and milestone
	// references that no longer resolve to a live row are returned as nil.
	ListByClient(ctx context.Context, clientID string) ([]*domain.Payment, error)
}

// ProjectRepository defines data access for the project cost read model.
type ProjectRepository interface {
	Upsert(ctx context.Context, project *domain.Project) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error)
	UpsertMilestone(ctx context.Context, milestone *domain.Milestone) error
	SoftDeleteMilestone(ctx context.Context, projectID, id string, at time.Time) error
	GetMilestone(ctx context.Context, projectID, id string) (*domain.Milestone, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// SourceRefCache remembers resolved idempotency keys. Entries never go stale
// because ledger transactions are never deleted.
type SourceRefCache interface {
	Lookup(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef string) (string, bool, error)
	Remember(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef, transactionID string, ttl time.Duration) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not produce a cacheable response.
	Release(ctx context.Context, key string) error
}
