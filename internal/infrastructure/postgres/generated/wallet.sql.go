
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getWalletByID = `-- name: GetWalletByID :one
SELECT id, owner_id, currency, balance, total_earned, integrity_hold_at, created_at, updated_at
FROM wallets WHERE id = $1
`

func (q *Queries) GetWalletByID(ctx context.Context, id string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByID, id)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Currency,
		&i.Balance,
		&i.TotalEarned,
		&i.IntegrityHoldAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByIDForUpdate = `-- name: GetWalletByIDForUpdate :one
SELECT id, owner_id, currency, balance, total_earned, integrity_hold_at, created_at, updated_at
FROM wallets WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetWalletByIDForUpdate(ctx context.Context, id string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByIDForUpdate, id)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Currency,
		&i.Balance,
		&i.TotalEarned,
		&i.IntegrityHoldAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByOwner = `-- name: GetWalletByOwner :one
SELECT id, owner_id, currency, balance, total_earned, integrity_hold_at, created_at, updated_at
FROM wallets WHERE owner_id = $1
`

func (q *Queries) GetWalletByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByOwner, ownerID)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Currency,
		&i.Balance,
		&i.TotalEarned,
		&i.IntegrityHoldAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByOwnerForUpdate = `-- name: GetWalletByOwnerForUpdate :one
SELECT id, owner_id, currency, balance, total_earned, integrity_hold_at, created_at, updated_at
FROM wallets WHERE owner_id = $1
FOR UPDATE
`

func (q *Queries) GetWalletByOwnerForUpdate(ctx context.Context, ownerID string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByOwnerForUpdate, ownerID)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Currency,
		&i.Balance,
		&i.TotalEarned,
		&i.IntegrityHoldAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertWallet = `-- name: InsertWallet :execrows
INSERT INTO wallets (id, owner_id, currency, balance, total_earned, created_at, updated_at)
VALUES ($1, $2, $3, 0, 0, $4, $5)
ON CONFLICT (owner_id) DO NOTHING
`

type InsertWalletParams struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Currency  string             `json:"currency"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) InsertWallet(ctx context.Context, arg InsertWalletParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertWallet,
		arg.ID,
		arg.OwnerID,
		arg.Currency,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listWalletIDs = `-- name: ListWalletIDs :many
SELECT id FROM wallets
WHERE id > $1
ORDER BY id
LIMIT $2
`

type ListWalletIDsParams struct {
	ID    string `json:"id"`
	Limit int32  `json:"limit"`
}

func (q *Queries) ListWalletIDs(ctx context.Context, arg ListWalletIDsParams) ([]string, error) {
	rows, err := q.db.Query(ctx, listWalletIDs, arg.ID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setWalletIntegrityHold = `-- name: SetWalletIntegrityHold :execrows
UPDATE wallets SET integrity_hold_at = $2
WHERE id = $1
`

type SetWalletIntegrityHoldParams struct {
	ID              string             `json:"id"`
	IntegrityHoldAt pgtype.Timestamptz `json:"integrity_hold_at"`
}

func (q *Queries) SetWalletIntegrityHold(ctx context.Context, arg SetWalletIntegrityHoldParams) (int64, error) {
	result, err := q.db.Exec(ctx, setWalletIntegrityHold, arg.ID, arg.IntegrityHoldAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateWalletBalance = `-- name: UpdateWalletBalance :execrows
UPDATE wallets SET balance = $2, total_earned = $3, updated_at = $4
WHERE id = $1
`

type UpdateWalletBalanceParams struct {
	ID          string             `json:"id"`
	Balance     int64              `json:"balance"`
	TotalEarned int64              `json:"total_earned"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateWalletBalance(ctx context.Context, arg UpdateWalletBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateWalletBalance,
		arg.ID,
		arg.Balance,
		arg.TotalEarned,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
