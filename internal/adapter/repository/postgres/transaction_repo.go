package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/postgres/generated"
	"github.com/iho/partnerledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// InsertIfAbsent inserts t unless its source key or its reversal target is
// already taken. Losing a race is reported as false, never as an error.
func (r *TransactionRepository) InsertIfAbsent(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) (bool, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	var metadata []byte
	if t.Metadata != nil {
		var err error
		metadata, err = json.Marshal(t.Metadata)
		if err != nil {
			return false, err
		}
	}

	n, err := queries.InsertTransaction(ctx, generated.InsertTransactionParams{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        string(t.Type),
		Category:    string(t.Category),
		Amount:      t.Amount,
		Currency:    t.Currency,
		Status:      string(t.Status),
		SourceRef:   t.SourceRef,
		ReversalOf:  stringPtrToPgText(t.ReversalOf),
		Metadata:    metadata,
		CreatedAt:   timeToPgTimestamptz(t.CreatedAt),
		CompletedAt: timePtrToPgTimestamptz(t.CompletedAt),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// GetByKey retrieves a transaction by its idempotency key.
func (r *TransactionRepository) GetByKey(ctx context.Context, tx usecase.Transaction, key domain.SourceKey) (*domain.Transaction, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetTransactionByKey(ctx, generated.GetTransactionByKeyParams{
		WalletID:  key.WalletID,
		SourceRef: key.SourceRef,
		Category:  string(key.Category),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(ctx, row.Transaction, row.ReversedBy), nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(ctx, row.Transaction, row.ReversedBy), nil
}

// GetByIDForUpdate locks the transaction row. The compensating row joined in
// for ReversedBy is not locked.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetTransactionByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(ctx, row.Transaction, row.ReversedBy), nil
}

// UpdateStatus is a compare-and-set on the stored status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.TransactionStatus, completedAt *time.Time) (bool, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdateTransactionStatus(ctx, generated.UpdateTransactionStatusParams{
		ToStatus:    string(to),
		CompletedAt: timePtrToPgTimestamptz(completedAt),
		ID:          id,
		FromStatus:  string(from),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// ListPage reads one keyset page of a wallet's history, newest first.
func (r *TransactionRepository) ListPage(ctx context.Context, walletID string, filter domain.TransactionFilter, after *domain.TransactionCursor, limit int) ([]*domain.Transaction, error) {
	params := generated.ListTransactionsParams{
		WalletID:      walletID,
		CreatedFrom:   timePtrToPgTimestamptz(filter.CreatedFrom),
		CreatedTo:     timePtrToPgTimestamptz(filter.CreatedTo),
		CompletedFrom: timePtrToPgTimestamptz(filter.CompletedFrom),
		CompletedTo:   timePtrToPgTimestamptz(filter.CompletedTo),
		PageLimit:     int32(limit),
	}
	if filter.Status != nil {
		params.Status = pgtype.Text{String: string(*filter.Status), Valid: true}
	}
	if filter.Category != nil {
		params.Category = pgtype.Text{String: string(*filter.Category), Valid: true}
	}
	if filter.Type != nil {
		params.Type = pgtype.Text{String: string(*filter.Type), Valid: true}
	}
	if after != nil {
		params.AfterCreatedAt = timeToPgTimestamptz(after.CreatedAt)
		params.AfterID = pgtype.Text{String: after.ID, Valid: true}
	}

	rows, err := r.queries.ListTransactions(ctx, params)
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToTransaction(ctx, row.Transaction, row.ReversedBy))
	}

	return txs, nil
}

// Fold sums the completed history inside the database.
func (r *TransactionRepository) Fold(ctx context.Context, tx usecase.Transaction, walletID string) (domain.Delta, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.FoldWallet(ctx, walletID)
	if err != nil {
		return domain.Delta{}, err
	}

	balance, err := numericToInt64(row.Balance)
	if err != nil {
		return domain.Delta{}, fmt.Errorf("fold balance of wallet %s: %w", walletID, err)
	}

	earned, err := numericToInt64(row.Earned)
	if err != nil {
		return domain.Delta{}, fmt.Errorf("fold earnings of wallet %s: %w", walletID, err)
	}

	return domain.Delta{Balance: balance, Earned: earned}, nil
}

// Totals groups a wallet's history. A window restricts it to completions
// inside the window.
func (r *TransactionRepository) Totals(ctx context.Context, walletID string, completedIn *domain.Window) ([]domain.TransactionTotal, error) {
	params := generated.TransactionTotalsParams{WalletID: walletID}
	if completedIn != nil {
		params.Windowed = true
		params.WindowStart = timeToPgTimestamptz(completedIn.Start)
		params.WindowEnd = timeToPgTimestamptz(completedIn.End)
	}

	rows, err := r.queries.TransactionTotals(ctx, params)
	if err != nil {
		return nil, err
	}

	totals := make([]domain.TransactionTotal, 0, len(rows))
	for _, row := range rows {
		total, err := toTransactionTotal(row.Type, row.Category, row.Status, row.Currency, row.Amount, row.Count)
		if err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}

	return totals, nil
}

// MonthlyTotals groups completed history by UTC month of completion.
func (r *TransactionRepository) MonthlyTotals(ctx context.Context, walletID string, span domain.Window) ([]domain.MonthlyTotal, error) {
	rows, err := r.queries.MonthlyTransactionTotals(ctx, generated.MonthlyTransactionTotalsParams{
		WalletID:  walletID,
		SpanStart: timeToPgTimestamptz(span.Start),
		SpanEnd:   timeToPgTimestamptz(span.End),
	})
	if err != nil {
		return nil, err
	}

	totals := make([]domain.MonthlyTotal, 0, len(rows))
	for _, row := range rows {
		total, err := toTransactionTotal(row.Type, row.Category, row.Status, row.Currency, row.Amount, row.Count)
		if err != nil {
			return nil, err
		}
		totals = append(totals, domain.MonthlyTotal{
			Month:            domain.MonthWindow(row.Month.Time).Start,
			TransactionTotal: total,
		})
	}

	return totals, nil
}

func toTransactionTotal(typ, category, status, currency string, amount pgtype.Numeric, count int64) (domain.TransactionTotal, error) {
	sum, err := numericToInt64(amount)
	if err != nil {
		return domain.TransactionTotal{}, err
	}

	return domain.TransactionTotal{
		Type:     domain.TransactionType(typ),
		Category: domain.TransactionCategory(category),
		Status:   domain.TransactionStatus(status),
		Currency: currency,
		Amount:   sum,
		Count:    count,
	}, nil
}

// rowToTransaction maps a stored row. Undecodable metadata is logged and
// dropped; the ledger fields stay readable.
func rowToTransaction(ctx context.Context, row generated.Transaction, reversedBy pgtype.Text) *domain.Transaction {
	var metadata map[string]any
	if row.Metadata != nil {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("transaction_id", row.ID).
				Msg("failed to decode transaction metadata")
			metadata = nil
		}
	}

	return &domain.Transaction{
		ID:          row.ID,
		WalletID:    row.WalletID,
		Type:        domain.TransactionType(row.Type),
		Category:    domain.TransactionCategory(row.Category),
		Amount:      row.Amount,
		Currency:    row.Currency,
		Status:      domain.TransactionStatus(row.Status),
		SourceRef:   row.SourceRef,
		ReversalOf:  pgTextToPtr(row.ReversalOf),
		ReversedBy:  pgTextToPtr(reversedBy),
		Metadata:    metadata,
		CreatedAt:   row.CreatedAt.Time.UTC(),
		CompletedAt: pgTimestamptzToPtr(row.CompletedAt),
	}
}
