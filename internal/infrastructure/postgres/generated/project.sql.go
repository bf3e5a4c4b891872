
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getMilestone = `-- name: GetMilestone :one
SELECT project_id, id, name, amount, deleted_at, updated_at
FROM milestones WHERE project_id = $1 AND id = $2 AND deleted_at IS NULL
`

type GetMilestoneParams struct {
	ProjectID string `json:"project_id"`
	ID        string `json:"id"`
}

func (q *Queries) GetMilestone(ctx context.Context, arg GetMilestoneParams) (Milestone, error) {
	row := q.db.QueryRow(ctx, getMilestone, arg.ProjectID, arg.ID)
	var i Milestone
	err := row.Scan(
		&i.ProjectID,
		&i.ID,
		&i.Name,
		&i.Amount,
		&i.DeletedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProjectByID = `-- name: GetProjectByID :one
SELECT id, client_id, name, total_cost, currency, deleted_at, updated_at
FROM projects WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRow(ctx, getProjectByID, id)
	var i Project
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.Name,
		&i.TotalCost,
		&i.Currency,
		&i.DeletedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listProjectsByClient = `-- name: ListProjectsByClient :many
SELECT id, client_id, name, total_cost, currency, deleted_at, updated_at
FROM projects WHERE client_id = $1 AND deleted_at IS NULL
ORDER BY id
`

func (q *Queries) ListProjectsByClient(ctx context.Context, clientID string) ([]Project, error) {
	rows, err := q.db.Query(ctx, listProjectsByClient, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var i Project
		if err := rows.Scan(
			&i.ID,
			&i.ClientID,
			&i.Name,
			&i.TotalCost,
			&i.Currency,
			&i.DeletedAt,
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

const softDeleteMilestone = `-- name: SoftDeleteMilestone :execrows
UPDATE milestones SET deleted_at = $3, updated_at = $3
WHERE project_id = $1 AND id = $2 AND deleted_at IS NULL
`

type SoftDeleteMilestoneParams struct {
	ProjectID string             `json:"project_id"`
	ID        string             `json:"id"`
	DeletedAt pgtype.Timestamptz `json:"deleted_at"`
}

func (q *Queries) SoftDeleteMilestone(ctx context.Context, arg SoftDeleteMilestoneParams) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteMilestone, arg.ProjectID, arg.ID, arg.DeletedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const softDeleteProject = `-- name: SoftDeleteProject :execrows
UPDATE projects SET deleted_at = $2, updated_at = $2
WHERE id = $1 AND deleted_at IS NULL
`

type SoftDeleteProjectParams struct {
	ID        string             `json:"id"`
	DeletedAt pgtype.Timestamptz `json:"deleted_at"`
}

func (q *Queries) SoftDeleteProject(ctx context.Context, arg SoftDeleteProjectParams) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteProject, arg.ID, arg.DeletedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const upsertMilestone = `-- name: UpsertMilestone :exec
INSERT INTO milestones (project_id, id, name, amount, deleted_at, updated_at)
VALUES ($1, $2, $3, $4, NULL, $5)
ON CONFLICT (project_id, id) DO UPDATE
SET name = EXCLUDED.name,
    amount = EXCLUDED.amount,
    deleted_at = NULL,
    updated_at = EXCLUDED.updated_at
`

type UpsertMilestoneParams struct {
	ProjectID string             `json:"project_id"`
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Amount    int64              `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertMilestone(ctx context.Context, arg UpsertMilestoneParams) error {
	_, err := q.db.Exec(ctx, upsertMilestone,
		arg.ProjectID,
		arg.ID,
		arg.Name,
		arg.Amount,
		arg.UpdatedAt,
	)
	return err
}

const upsertProject = `-- name: UpsertProject :exec
INSERT INTO projects (id, client_id, name, total_cost, currency, deleted_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NULL, $6)
ON CONFLICT (id) DO UPDATE
SET client_id = EXCLUDED.client_id,
    name = EXCLUDED.name,
    total_cost = EXCLUDED.total_cost,
    currency = EXCLUDED.currency,
    deleted_at = NULL,
    updated_at = EXCLUDED.updated_at
`

type UpsertProjectParams struct {
	ID        string             `json:"id"`
	ClientID  string             `json:"client_id"`
	Name      string             `json:"name"`
	TotalCost int64              `json:"total_cost"`
	Currency  string             `json:"currency"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertProject(ctx context.Context, arg UpsertProjectParams) error {
	_, err := q.db.Exec(ctx, upsertProject,
		arg.ID,
		arg.ClientID,
		arg.Name,
		arg.TotalCost,
		arg.Currency,
		arg.UpdatedAt,
	)
	return err
}
