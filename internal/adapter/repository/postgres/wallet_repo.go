package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/postgres/generated"
	"github.com/iho/partnerledger/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return newWalletRepository(pool)
}

func newWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{queries: generated.New(db)}
}

// GetOrCreateForUpdate inserts the wallet unless the owner already has one and
// then locks the owner's row. Concurrent creators serialize on the owner_id
// unique index.
func (r *WalletRepository) GetOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) (*domain.Wallet, bool, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	inserted, err := queries.InsertWallet(ctx, generated.InsertWalletParams{
		ID:        wallet.ID,
		OwnerID:   wallet.OwnerID,
		Currency:  wallet.Currency,
		CreatedAt: timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(wallet.UpdatedAt),
	})
	if err != nil {
		return nil, false, err
	}

	row, err := queries.GetWalletByOwnerForUpdate(ctx, wallet.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrWalletNotFound
		}

		return nil, false, err
	}

	return rowToWallet(row), inserted == 1, nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// GetByOwner retrieves the wallet of an owner.
func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetWalletByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// UpdateBalance writes the materialized balance and lifetime earnings.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance, totalEarned int64, updatedAt time.Time) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateWalletBalance(ctx, generated.UpdateWalletBalanceParams{
		ID:          id,
		Balance:     balance,
		TotalEarned: totalEarned,
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// SetIntegrityHold sets or clears the integrity hold.
func (r *WalletRepository) SetIntegrityHold(ctx context.Context, tx usecase.Transaction, id string, at *time.Time) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.SetWalletIntegrityHold(ctx, generated.SetWalletIntegrityHoldParams{
		ID:              id,
		IntegrityHoldAt: timePtrToPgTimestamptz(at),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// ListIDs pages wallet IDs in ascending order.
func (r *WalletRepository) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	ids, err := r.queries.ListWalletIDs(ctx, generated.ListWalletIDsParams{
		ID:    afterID,
		Limit: int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func rowToWallet(row generated.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Currency:        row.Currency,
		Balance:         row.Balance,
		TotalEarned:     row.TotalEarned,
		IntegrityHoldAt: pgTimestamptzToPtr(row.IntegrityHoldAt),
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}
