
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPaymentByExternalRef = `-- name: GetPaymentByExternalRef :one
SELECT id, client_id, project_id, milestone_id, external_ref, amount, currency,
       status, payment_type, created_at, paid_at, updated_at
FROM payments WHERE external_ref = $1
`

func (q *Queries) GetPaymentByExternalRef(ctx context.Context, externalRef string) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByExternalRef, externalRef)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.ProjectID,
		&i.MilestoneID,
		&i.ExternalRef,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.PaymentType,
		&i.CreatedAt,
		&i.PaidAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPaymentByExternalRefForUpdate = `-- name: GetPaymentByExternalRefForUpdate :one
SELECT id, client_id, project_id, milestone_id, external_ref, amount, currency,
       status, payment_type, created_at, paid_at, updated_at
FROM payments WHERE external_ref = $1
FOR UPDATE
`

func (q *Queries) GetPaymentByExternalRefForUpdate(ctx context.Context, externalRef string) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByExternalRefForUpdate, externalRef)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.ProjectID,
		&i.MilestoneID,
		&i.ExternalRef,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.PaymentType,
		&i.CreatedAt,
		&i.PaidAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertPayment = `-- name: InsertPayment :execrows
INSERT INTO payments (
    id, client_id, project_id, milestone_id, external_ref, amount, currency,
    status, payment_type, created_at, paid_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (external_ref) DO NOTHING
`

type InsertPaymentParams struct {
	ID          string             `json:"id"`
	ClientID    string             `json:"client_id"`
	ProjectID   pgtype.Text        `json:"project_id"`
	MilestoneID pgtype.Text        `json:"milestone_id"`
	ExternalRef string             `json:"external_ref"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	PaymentType string             `json:"payment_type"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	PaidAt      pgtype.Timestamptz `json:"paid_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) InsertPayment(ctx context.Context, arg InsertPaymentParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertPayment,
		arg.ID,
		arg.ClientID,
		arg.ProjectID,
		arg.MilestoneID,
		arg.ExternalRef,
		arg.Amount,
		arg.Currency,
		arg.Status,
		arg.PaymentType,
		arg.CreatedAt,
		arg.PaidAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPaymentsByClient = `-- name: ListPaymentsByClient :many
SELECT p.id, p.client_id, pr.id AS project_id, m.id AS milestone_id, p.external_ref,
       p.amount, p.currency, p.status, p.payment_type, p.created_at, p.paid_at, p.updated_at
FROM payments p
LEFT JOIN projects pr ON pr.id = p.project_id AND pr.deleted_at IS NULL
LEFT JOIN milestones m ON m.project_id = pr.id AND m.id = p.milestone_id AND m.deleted_at IS NULL
WHERE p.client_id = $1
ORDER BY p.created_at, p.id
`

type ListPaymentsByClientRow struct {
	ID          string             `json:"id"`
	ClientID    string             `json:"client_id"`
	ProjectID   pgtype.Text        `json:"project_id"`
	MilestoneID pgtype.Text        `json:"milestone_id"`
	ExternalRef string             `json:"external_ref"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	PaymentType string             `json:"payment_type"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	PaidAt      pgtype.Timestamptz `json:"paid_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) ListPaymentsByClient(ctx context.Context, clientID string) ([]ListPaymentsByClientRow, error) {
	rows, err := q.db.Query(ctx, listPaymentsByClient, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPaymentsByClientRow
	for rows.Next() {
		var i ListPaymentsByClientRow
		if err := rows.Scan(
			&i.ID,
			&i.ClientID,
			&i.ProjectID,
			&i.MilestoneID,
			&i.ExternalRef,
			&i.Amount,
			&i.Currency,
			&i.Status,
			&i.PaymentType,
			&i.CreatedAt,
			&i.PaidAt,
			&i.UpdatedAt,
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

const listPaymentsByProject = `-- name: ListPaymentsByProject :many
SELECT id, client_id, project_id, milestone_id, external_ref, amount, currency,
       status, payment_type, created_at, paid_at, updated_at
FROM payments WHERE project_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListPaymentsByProject(ctx context.Context, projectID pgtype.Text) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.ClientID,
			&i.ProjectID,
			&i.MilestoneID,
			&i.ExternalRef,
			&i.Amount,
			&i.Currency,
			&i.Status,
			&i.PaymentType,
			&i.CreatedAt,
			&i.PaidAt,
			&i.UpdatedAt,
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

const updatePaymentStatus = `-- name: UpdatePaymentStatus :execrows
UPDATE payments
SET status = $1, paid_at = $2, updated_at = $3
WHERE id = $4 AND status = $5
`

type UpdatePaymentStatusParams struct {
	ToStatus   string             `json:"to_status"`
	PaidAt     pgtype.Timestamptz `json:"paid_at"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
	ID         string             `json:"id"`
	FromStatus string             `json:"from_status"`
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updatePaymentStatus,
		arg.ToStatus,
		arg.PaidAt,
		arg.UpdatedAt,
		arg.ID,
		arg.FromStatus,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
