package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/domain"
)

// UnassignedProjectName labels the bucket of payments whose project is gone.
const UnassignedProjectName = "Unassigned"

// ReconciliationUseCase derives outstanding balances from project cost and
// client payments.
type ReconciliationUseCase struct {
	projectRepo ProjectRepository
	paymentRepo PaymentRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(projectRepo ProjectRepository, paymentRepo PaymentRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		projectRepo: projectRepo,
		paymentRepo: paymentRepo,
	}
}

// ProjectFinancials joins a project's cost with its payments.
func (uc *ReconciliationUseCase) ProjectFinancials(ctx context.Context, projectID string) (*domain.ProjectFinancials, error) {
	project, err := uc.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	payments, err := uc.paymentRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	id := project.ID
	f := &domain.ProjectFinancials{
		ProjectID: &id,
		Name:      project.Name,
		Currency:  project.Currency,
		TotalCost: project.TotalCost,
	}

	for _, p := range payments {
		status, ok := countable(ctx, p)
		if !ok {
			continue
		}
		if p.Currency != project.Currency {
			return nil, mixedCurrency(project.Currency, p.Currency)
		}
		f.AddStatus(status, p.Amount)
		f.Payments++
	}

	return f, nil
}

// ClientReconciliation aggregates all projects and payments of a client.
// Payments whose project or milestone was deleted keep counting toward the
// client totals under an unassigned bucket, and rows with unreadable status
// are skipped, so one bad row never fails the whole read.
func (uc *ReconciliationUseCase) ClientReconciliation(ctx context.Context, clientID string) (*domain.ClientReconciliation, error) {
	projects, err := uc.projectRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	payments, err := uc.paymentRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	rec := &domain.ClientReconciliation{ClientID: clientID}

	setCurrency := func(currency string) error {
		switch {
		case rec.Currency == "":
			rec.Currency = currency
		case rec.Currency != currency:
			return mixedCurrency(rec.Currency, currency)
		}
		return nil
	}

	byProject := make(map[string]*domain.ProjectFinancials, len(projects))
	for _, project := range projects {
		if err := setCurrency(project.Currency); err != nil {
			return nil, err
		}

		id := project.ID
		f := &domain.ProjectFinancials{
			ProjectID: &id,
			Name:      project.Name,
			Currency:  project.Currency,
			TotalCost: project.TotalCost,
		}
		byProject[project.ID] = f
		rec.Projects = append(rec.Projects, f)
		rec.TotalCost += project.TotalCost
	}

	for _, p := range payments {
		status, ok := countable(ctx, p)
		if !ok {
			continue
		}
		if err := setCurrency(p.Currency); err != nil {
			return nil, err
		}

		var bucket *domain.ProjectFinancials
		if p.ProjectID != nil {
			bucket = byProject[*p.ProjectID]
		}
		if bucket == nil {
			if rec.Unassigned == nil {
				rec.Unassigned = &domain.ProjectFinancials{Name: UnassignedProjectName}
			}
			bucket = rec.Unassigned
			bucket.Currency = p.Currency
		}

		bucket.AddStatus(status, p.Amount)
		bucket.Payments++
		rec.AddStatus(status, p.Amount)
	}

	return rec, nil
}

// countable normalizes the stored status of p. Rows whose status cannot be
// interpreted are reported as not countable.
func countable(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, bool) {
	status, err := domain.ParsePaymentStatus(string(p.Status))
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Str("payment_id", p.ID).
			Str("status", string(p.Status)).
			Msg("skipping payment with unknown status in reconciliation")
		return "", false
	}
	return status, true
}

func mixedCurrency(a, b string) error {
	return &domain.ValidationError{
		Field:  "currency",
		Reason: fmt.Sprintf("payments and projects mix %s and %s", a, b),
		Err:    domain.ErrMixedCurrency,
	}
}
