package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/postgres/generated"
)

// ProjectRepository implements usecase.ProjectRepository.
type ProjectRepository struct {
	queries *generated.Queries
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return newProjectRepository(pool)
}

func newProjectRepository(db generated.DBTX) *ProjectRepository {
	return &ProjectRepository{queries: generated.New(db)}
}

// Upsert creates or replaces a project and revives it if it was deleted.
func (r *ProjectRepository) Upsert(ctx context.Context, project *domain.Project) error {
	return r.queries.UpsertProject(ctx, generated.UpsertProjectParams{
		ID:        project.ID,
		ClientID:  project.ClientID,
		Name:      project.Name,
		TotalCost: project.TotalCost,
		Currency:  project.Currency,
		UpdatedAt: timeToPgTimestamptz(project.UpdatedAt),
	})
}

// SoftDelete hides a live project.
func (r *ProjectRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	n, err := r.queries.SoftDeleteProject(ctx, generated.SoftDeleteProjectParams{
		ID:        id,
		DeletedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

// GetByID retrieves a live project.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row, err := r.queries.GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}

		return nil, err
	}

	return rowToProject(row), nil
}

// ListByClient returns a client's live projects.
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error) {
	rows, err := r.queries.ListProjectsByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	projects := make([]*domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, rowToProject(row))
	}

	return projects, nil
}

// UpsertMilestone creates or replaces a milestone.
func (r *ProjectRepository) UpsertMilestone(ctx context.Context, milestone *domain.Milestone) error {
	return r.queries.UpsertMilestone(ctx, generated.UpsertMilestoneParams{
		ProjectID: milestone.ProjectID,
		ID:        milestone.ID,
		Name:      milestone.Name,
		Amount:    milestone.Amount,
		UpdatedAt: timeToPgTimestamptz(milestone.UpdatedAt),
	})
}

// SoftDeleteMilestone hides a live milestone.
func (r *ProjectRepository) SoftDeleteMilestone(ctx context.Context, projectID, id string, at time.Time) error {
	n, err := r.queries.SoftDeleteMilestone(ctx, generated.SoftDeleteMilestoneParams{
		ProjectID: projectID,
		ID:        id,
		DeletedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMilestoneNotFound
	}

	return nil
}

// GetMilestone retrieves a live milestone.
func (r *ProjectRepository) GetMilestone(ctx context.Context, projectID, id string) (*domain.Milestone, error) {
	row, err := r.queries.GetMilestone(ctx, generated.GetMilestoneParams{
		ProjectID: projectID,
		ID:        id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMilestoneNotFound
		}

		return nil, err
	}

	return &domain.Milestone{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		Name:      row.Name,
		Amount:    row.Amount,
		DeletedAt: pgTimestamptzToPtr(row.DeletedAt),
		UpdatedAt: row.UpdatedAt.Time.UTC(),
	}, nil
}

func rowToProject(row generated.Project) *domain.Project {
	return &domain.Project{
		ID:        row.ID,
		ClientID:  row.ClientID,
		Name:      row.Name,
		TotalCost: row.TotalCost,
		Currency:  row.Currency,
		DeletedAt: pgTimestamptzToPtr(row.DeletedAt),
		UpdatedAt: row.UpdatedAt.Time.UTC(),
	}
}
