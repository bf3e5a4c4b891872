
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const foldWallet = `-- name: FoldWallet :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'credit' THEN amount ELSE -amount END), 0)::numeric AS balance,
    COALESCE(SUM(CASE WHEN category IN ('commission', 'reward')
                      THEN CASE WHEN type = 'credit' THEN amount ELSE -amount END
                      ELSE 0 END), 0)::numeric AS earned
FROM transactions
WHERE wallet_id = $1 AND status = 'completed'
`

type FoldWalletRow struct {
	Balance pgtype.Numeric `json:"balance"`
	Earned  pgtype.Numeric `json:"earned"`
}

func (q *Queries) FoldWallet(ctx context.Context, walletID string) (FoldWalletRow, error) {
	row := q.db.QueryRow(ctx, foldWallet, walletID)
	var i FoldWalletRow
	err := row.Scan(&i.Balance, &i.Earned)
	return i, err
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT t.id, t.wallet_id, t.type, t.category, t.amount, t.currency, t.status, t.source_ref, t.reversal_of, t.metadata, t.created_at, t.completed_at, r.id AS reversed_by
FROM transactions t
LEFT JOIN transactions r ON r.reversal_of = t.id
WHERE t.id = $1
`

type GetTransactionByIDRow struct {
	Transaction Transaction `json:"transaction"`
	ReversedBy  pgtype.Text `json:"reversed_by"`
}

func (q *Queries) GetTransactionByID(ctx context.Context, id string) (GetTransactionByIDRow, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	var i GetTransactionByIDRow
	err := row.Scan(
		&i.Transaction.ID,
		&i.Transaction.WalletID,
		&i.Transaction.Type,
		&i.Transaction.Category,
		&i.Transaction.Amount,
		&i.Transaction.Currency,
		&i.Transaction.Status,
		&i.Transaction.SourceRef,
		&i.Transaction.ReversalOf,
		&i.Transaction.Metadata,
		&i.Transaction.CreatedAt,
		&i.Transaction.CompletedAt,
		&i.ReversedBy,
	)
	return i, err
}

const getTransactionByIDForUpdate = `-- name: GetTransactionByIDForUpdate :one
SELECT t.id, t.wallet_id, t.type, t.category, t.amount, t.currency, t.status, t.source_ref, t.reversal_of, t.metadata, t.created_at, t.completed_at, r.id AS reversed_by
FROM transactions t
LEFT JOIN transactions r ON r.reversal_of = t.id
WHERE t.id = $1
FOR UPDATE OF t
`

type GetTransactionByIDForUpdateRow struct {
	Transaction Transaction `json:"transaction"`
	ReversedBy  pgtype.Text `json:"reversed_by"`
}

func (q *Queries) GetTransactionByIDForUpdate(ctx context.Context, id string) (GetTransactionByIDForUpdateRow, error) {
	row := q.db.QueryRow(ctx, getTransactionByIDForUpdate, id)
	var i GetTransactionByIDForUpdateRow
	err := row.Scan(
		&i.Transaction.ID,
		&i.Transaction.WalletID,
		&i.Transaction.Type,
		&i.Transaction.Category,
		&i.Transaction.Amount,
		&i.Transaction.Currency,
		&i.Transaction.Status,
		&i.Transaction.SourceRef,
		&i.Transaction.ReversalOf,
		&i.Transaction.Metadata,
		&i.Transaction.CreatedAt,
		&i.Transaction.CompletedAt,
		&i.ReversedBy,
	)
	return i, err
}

const getTransactionByKey = `-- name: GetTransactionByKey :one
SELECT t.id, t.wallet_id, t.type, t.category, t.amount, t.currency, t.status, t.source_ref, t.reversal_of, t.metadata, t.created_at, t.completed_at, r.id AS reversed_by
FROM transactions t
LEFT JOIN transactions r ON r.reversal_of = t.id
WHERE t.wallet_id = $1 AND t.source_ref = $2 AND t.category = $3
`

type GetTransactionByKeyParams struct {
	WalletID  string `json:"wallet_id"`
	SourceRef string `json:"source_ref"`
	Category  string `json:"category"`
}

type GetTransactionByKeyRow struct {
	Transaction Transaction `json:"transaction"`
	ReversedBy  pgtype.Text `json:"reversed_by"`
}

func (q *Queries) GetTransactionByKey(ctx context.Context, arg GetTransactionByKeyParams) (GetTransactionByKeyRow, error) {
	row := q.db.QueryRow(ctx, getTransactionByKey, arg.WalletID, arg.SourceRef, arg.Category)
	var i GetTransactionByKeyRow
	err := row.Scan(
		&i.Transaction.ID,
		&i.Transaction.WalletID,
		&i.Transaction.Type,
		&i.Transaction.Category,
		&i.Transaction.Amount,
		&i.Transaction.Currency,
		&i.Transaction.Status,
		&i.Transaction.SourceRef,
		&i.Transaction.ReversalOf,
		&i.Transaction.Metadata,
		&i.Transaction.CreatedAt,
		&i.Transaction.CompletedAt,
		&i.ReversedBy,
	)
	return i, err
}

const insertTransaction = `-- name: InsertTransaction :execrows
INSERT INTO transactions (
    id, wallet_id, type, category, amount, currency, status,
    source_ref, reversal_of, metadata, created_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT DO NOTHING
`

type InsertTransactionParams struct {
	ID          string             `json:"id"`
	WalletID    string             `json:"wallet_id"`
	Type        string             `json:"type"`
	Category    string             `json:"category"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	SourceRef   string             `json:"source_ref"`
	ReversalOf  pgtype.Text        `json:"reversal_of"`
	Metadata    []byte             `json:"metadata"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	CompletedAt pgtype.Timestamptz `json:"completed_at"`
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertTransaction,
		arg.ID,
		arg.WalletID,
		arg.Type,
		arg.Category,
		arg.Amount,
		arg.Currency,
		arg.Status,
		arg.SourceRef,
		arg.ReversalOf,
		arg.Metadata,
		arg.CreatedAt,
		arg.CompletedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listTransactions = `-- name: ListTransactions :many
SELECT t.id, t.wallet_id, t.type, t.category, t.amount, t.currency, t.status, t.source_ref, t.reversal_of, t.metadata, t.created_at, t.completed_at, r.id AS reversed_by
FROM transactions t
LEFT JOIN transactions r ON r.reversal_of = t.id
WHERE t.wallet_id = $1
  -- Status filters on the status readers see: a compensated completed row is reversed.
  AND ($2::text IS NULL
       OR ($2 = 'reversed' AND t.status = 'completed' AND r.id IS NOT NULL)
       OR ($2 = 'completed' AND t.status = 'completed' AND r.id IS NULL)
       OR ($2 NOT IN ('reversed', 'completed') AND t.status = $2))
  AND ($3::text IS NULL OR t.category = $3)
  AND ($4::text IS NULL OR t.type = $4)
  AND ($5::timestamptz IS NULL OR t.created_at >= $5)
  AND ($6::timestamptz IS NULL OR t.created_at < $6)
  AND ($7::timestamptz IS NULL OR t.completed_at >= $7)
  AND ($8::timestamptz IS NULL OR t.completed_at < $8)
  AND ($9::timestamptz IS NULL
       OR (t.created_at, t.id) < ($9, $10::text))
ORDER BY t.created_at DESC, t.id DESC
LIMIT $11
`

type ListTransactionsParams struct {
	WalletID       string             `json:"wallet_id"`
	Status         pgtype.Text        `json:"status"`
	Category       pgtype.Text        `json:"category"`
	Type           pgtype.Text        `json:"type"`
	CreatedFrom    pgtype.Timestamptz `json:"created_from"`
	CreatedTo      pgtype.Timestamptz `json:"created_to"`
	CompletedFrom  pgtype.Timestamptz `json:"completed_from"`
	CompletedTo    pgtype.Timestamptz `json:"completed_to"`
	AfterCreatedAt pgtype.Timestamptz `json:"after_created_at"`
	AfterID        pgtype.Text        `json:"after_id"`
	PageLimit      int32              `json:"page_limit"`
}

type ListTransactionsRow struct {
	Transaction Transaction `json:"transaction"`
	ReversedBy  pgtype.Text `json:"reversed_by"`
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]ListTransactionsRow, error) {
	rows, err := q.db.Query(ctx, listTransactions,
		arg.WalletID,
		arg.Status,
		arg.Category,
		arg.Type,
		arg.CreatedFrom,
		arg.CreatedTo,
		arg.CompletedFrom,
		arg.CompletedTo,
		arg.AfterCreatedAt,
		arg.AfterID,
		arg.PageLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListTransactionsRow
	for rows.Next() {
		var i ListTransactionsRow
		if err := rows.Scan(
			&i.Transaction.ID,
			&i.Transaction.WalletID,
			&i.Transaction.Type,
			&i.Transaction.Category,
			&i.Transaction.Amount,
			&i.Transaction.Currency,
			&i.Transaction.Status,
			&i.Transaction.SourceRef,
			&i.Transaction.ReversalOf,
			&i.Transaction.Metadata,
			&i.Transaction.CreatedAt,
			&i.Transaction.CompletedAt,
			&i.ReversedBy,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const monthlyTransactionTotals = `-- name: MonthlyTransactionTotals :many
SELECT (date_trunc('month', completed_at AT TIME ZONE 'UTC') AT TIME ZONE 'UTC')::timestamptz AS month,
       type, category, status, currency,
       SUM(amount)::numeric AS amount,
       COUNT(*) AS count
FROM transactions
WHERE wallet_id = $1
  AND status = 'completed'
  AND completed_at >= $2
  AND completed_at < $3
GROUP BY month, type, category, status, currency
ORDER BY month
`

type MonthlyTransactionTotalsParams struct {
	WalletID  string             `json:"wallet_id"`
	SpanStart pgtype.Timestamptz `json:"span_start"`
	SpanEnd   pgtype.Timestamptz `json:"span_end"`
}

type MonthlyTransactionTotalsRow struct {
	Month    pgtype.Timestamptz `json:"month"`
	Type     string             `json:"type"`
	Category string             `json:"category"`
	Status   string             `json:"status"`
	Currency string             `json:"currency"`
	Amount   pgtype.Numeric     `json:"amount"`
	Count    int64              `json:"count"`
}

func (q *Queries) MonthlyTransactionTotals(ctx context.Context, arg MonthlyTransactionTotalsParams) ([]MonthlyTransactionTotalsRow, error) {
	rows, err := q.db.Query(ctx, monthlyTransactionTotals, arg.WalletID, arg.SpanStart, arg.SpanEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyTransactionTotalsRow
	for rows.Next() {
		var i MonthlyTransactionTotalsRow
		if err := rows.Scan(
			&i.Month,
			&i.Type,
			&i.Category,
			&i.Status,
			&i.Currency,
			&i.Amount,
			&i.Count,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const transactionTotals = `-- name: TransactionTotals :many
SELECT type, category, status, currency,
       SUM(amount)::numeric AS amount,
       COUNT(*) AS count
FROM transactions
WHERE wallet_id = $1
  AND (NOT $2::boolean
       OR (status = 'completed'
           AND completed_at >= $3
           AND completed_at < $4))
GROUP BY type, category, status, currency
`

type TransactionTotalsParams struct {
	WalletID    string             `json:"wallet_id"`
	Windowed    bool               `json:"windowed"`
	WindowStart pgtype.Timestamptz `json:"window_start"`
	WindowEnd   pgtype.Timestamptz `json:"window_end"`
}

type TransactionTotalsRow struct {
	Type     string         `json:"type"`
	Category string         `json:"category"`
	Status   string         `json:"status"`
	Currency string         `json:"currency"`
	Amount   pgtype.Numeric `json:"amount"`
	Count    int64          `json:"count"`
}

func (q *Queries) TransactionTotals(ctx context.Context, arg TransactionTotalsParams) ([]TransactionTotalsRow, error) {
	rows, err := q.db.Query(ctx, transactionTotals,
		arg.WalletID,
		arg.Windowed,
		arg.WindowStart,
		arg.WindowEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionTotalsRow
	for rows.Next() {
		var i TransactionTotalsRow
		if err := rows.Scan(
			&i.Type,
			&i.Category,
			&i.Status,
			&i.Currency,
			&i.Amount,
			&i.Count,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :execrows
UPDATE transactions SET status = $1, completed_at = $2
WHERE id = $3 AND status = $4
`

type UpdateTransactionStatusParams struct {
	ToStatus    string             `json:"to_status"`
	CompletedAt pgtype.Timestamptz `json:"completed_at"`
	ID          string             `json:"id"`
	FromStatus  string             `json:"from_status"`
}

func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransactionStatus,
		arg.ToStatus,
		arg.CompletedAt,
		arg.ID,
		arg.FromStatus,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
