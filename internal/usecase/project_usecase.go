package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/partnerledger/internal/domain"
)

// ProjectUseCase syncs the project cost read model from the project
// management collaborator.
type ProjectUseCase struct {
	projectRepo ProjectRepository
	now         func() time.Time
}

// NewProjectUseCase creates a new ProjectUseCase.
func NewProjectUseCase(projectRepo ProjectRepository) *ProjectUseCase {
	return &ProjectUseCase{
		projectRepo: projectRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UpsertProjectInput represents a project cost sync.
type UpsertProjectInput struct {
	ID        string
	ClientID  string
	Name      string
	TotalCost int64
	Currency  string
}

// UpsertProject creates or updates a project.
func (uc *ProjectUseCase) UpsertProject(ctx context.Context, input UpsertProjectInput) (*domain.Project, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "must not be empty", Err: domain.ErrProjectNotFound}
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, &domain.ValidationError{Field: "client_id", Reason: "must not be empty", Err: domain.ErrInvalidOwner}
	}
	if input.TotalCost < 0 {
		return nil, domain.NewValidationError("total_cost", domain.ErrInvalidAmount)
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	project := &domain.Project{
		ID:        input.ID,
		ClientID:  input.ClientID,
		Name:      input.Name,
		TotalCost: input.TotalCost,
		Currency:  domain.NormalizeCurrency(input.Currency),
		UpdatedAt: uc.now(),
	}

	if err := uc.projectRepo.Upsert(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// DeleteProject soft-deletes a project. Its payments remain and are reported
// as unassigned.
func (uc *ProjectUseCase) DeleteProject(ctx context.Context, id string) error {
	return uc.projectRepo.SoftDelete(ctx, id, uc.now())
}

// UpsertMilestoneInput represents a milestone sync.
type UpsertMilestoneInput struct {
	ID        string
	ProjectID string
	Name      string
	Amount    int64
}

// UpsertMilestone creates or updates a milestone of a live project.
func (uc *ProjectUseCase) UpsertMilestone(ctx context.Context, input UpsertMilestoneInput) (*domain.Milestone, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "must not be empty", Err: domain.ErrMilestoneNotFound}
	}
	if input.Amount < 0 {
		return nil, domain.NewValidationError("amount", domain.ErrInvalidAmount)
	}

	if _, err := uc.projectRepo.GetByID(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	milestone := &domain.Milestone{
		ID:        input.ID,
		ProjectID: input.ProjectID,
		Name:      input.Name,
		Amount:    input.Amount,
		UpdatedAt: uc.now(),
	}

	if err := uc.projectRepo.UpsertMilestone(ctx, milestone); err != nil {
		return nil, err
	}

	return milestone, nil
}

// DeleteMilestone soft-deletes a milestone.
func (uc *ProjectUseCase) DeleteMilestone(ctx context.Context, projectID, id string) error {
	return uc.projectRepo.SoftDeleteMilestone(ctx, projectID, id, uc.now())
}

// GetProject returns a live project.
func (uc *ProjectUseCase) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return uc.projectRepo.GetByID(ctx, id)
}
