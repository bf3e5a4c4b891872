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

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	queries *generated.Queries
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return newPaymentRepository(pool)
}

func newPaymentRepository(db generated.DBTX) *PaymentRepository {
	return &PaymentRepository{queries: generated.New(db)}
}

// InsertIfAbsent inserts the payment unless its external reference is taken.
func (r *PaymentRepository) InsertIfAbsent(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) (bool, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.InsertPayment(ctx, generated.InsertPaymentParams{
		ID:          payment.ID,
		ClientID:    payment.ClientID,
		ProjectID:   stringPtrToPgText(payment.ProjectID),
		MilestoneID: stringPtrToPgText(payment.MilestoneID),
		ExternalRef: payment.ExternalRef,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Status:      string(payment.Status),
		PaymentType: string(payment.PaymentType),
		CreatedAt:   timeToPgTimestamptz(payment.CreatedAt),
		PaidAt:      timePtrToPgTimestamptz(payment.PaidAt),
		UpdatedAt:   timeToPgTimestamptz(payment.UpdatedAt),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// GetByExternalRef retrieves a payment by its gateway reference.
func (r *PaymentRepository) GetByExternalRef(ctx context.Context, externalRef string) (*domain.Payment, error) {
	row, err := r.queries.GetPaymentByExternalRef(ctx, externalRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return rowToPayment(row), nil
}

// GetByExternalRefForUpdate retrieves a payment with a FOR UPDATE lock.
func (r *PaymentRepository) GetByExternalRefForUpdate(ctx context.Context, tx usecase.Transaction, externalRef string) (*domain.Payment, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.GetPaymentByExternalRefForUpdate(ctx, externalRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return rowToPayment(row), nil
}

// UpdateStatus is a compare-and-set on the stored status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.PaymentStatus, paidAt *time.Time, updatedAt time.Time) (bool, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	n, err := queries.UpdatePaymentStatus(ctx, generated.UpdatePaymentStatusParams{
		ToStatus:   string(to),
		PaidAt:     timePtrToPgTimestamptz(paidAt),
		UpdatedAt:  timeToPgTimestamptz(updatedAt),
		ID:         id,
		FromStatus: string(from),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// ListByProject returns the payments booked against a project.
func (r *PaymentRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Payment, error) {
	rows, err := r.queries.ListPaymentsByProject(ctx, stringPtrToPgText(&projectID))
	if err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, rowToPayment(row))
	}

	return payments, nil
}

// ListByClient returns a client's payments. References to deleted projects or
// milestones come back as nil.
func (r *PaymentRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.Payment, error) {
	rows, err := r.queries.ListPaymentsByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, rowToPayment(generated.Payment(row)))
	}

	return payments, nil
}

func rowToPayment(row generated.Payment) *domain.Payment {
	return &domain.Payment{
		ID:          row.ID,
		ClientID:    row.ClientID,
		ProjectID:   pgTextToPtr(row.ProjectID),
		MilestoneID: pgTextToPtr(row.MilestoneID),
		ExternalRef: row.ExternalRef,
		Amount:      row.Amount,
		Currency:    row.Currency,
		Status:      domain.PaymentStatus(row.Status),
		PaymentType: domain.PaymentType(row.PaymentType),
		CreatedAt:   row.CreatedAt.Time.UTC(),
		PaidAt:      pgTimestamptzToPtr(row.PaidAt),
		UpdatedAt:   row.UpdatedAt.Time.UTC(),
	}
}
