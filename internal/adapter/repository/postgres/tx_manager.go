package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/partnerledger/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager opens the database transactions that ledger writes, balance
// updates, outbox events and audit rows share.
type TxManager struct {
	pool pgxPool
}

// NewTxManager creates a TxManager on pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool pgxPool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a transaction. Errors keep their pgx cause so the retrier can
// classify them.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}

	return &Tx{tx: tx}, nil
}

// Tx is a unit of work on the ledger store. Use cases defer Rollback right
// after Begin, so Rollback on a finished Tx is a no-op.
type Tx struct {
	tx   pgx.Tx
	done bool
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return err
	}
	t.done = true

	return nil
}

// Rollback discards the transaction unless it was already committed.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		err = nil
	}
	t.done = true

	return err
}

// PgxTx exposes the pgx transaction to the repositories of this package.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
