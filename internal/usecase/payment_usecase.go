package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
)

// PaymentUseCase records client payments and applies gateway callbacks.
type PaymentUseCase struct {
	txManager   TransactionManager
	paymentRepo PaymentRepository
	projectRepo ProjectRepository
	journal     journal
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	txManager TransactionManager,
	paymentRepo PaymentRepository,
	projectRepo ProjectRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:   txManager,
		paymentRepo: paymentRepo,
		projectRepo: projectRepo,
		journal:     journal{outboxRepo: outboxRepo, auditRepo: auditRepo, idGen: idGen, metrics: metrics},
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecordPaymentInput represents input for recording a client payment.
type RecordPaymentInput struct {
	ClientID    string
	ProjectID   *string
	MilestoneID *string
	ExternalRef string
	Amount      int64
	Currency    string
	PaymentType domain.PaymentType
}

// PaymentResult is the outcome of RecordPayment. Duplicate is set when the
// external reference was already recorded.
type PaymentResult struct {
	Payment   *domain.Payment
	Duplicate bool
}

// RecordPayment stores a pending payment. Recording the same external
// reference twice returns the stored payment.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	now := uc.now()

	payment := &domain.Payment{
		ID:          uc.idGen.Generate(),
		ClientID:    input.ClientID,
		ProjectID:   input.ProjectID,
		MilestoneID: input.MilestoneID,
		ExternalRef: input.ExternalRef,
		Amount:      input.Amount,
		Currency:    domain.NormalizeCurrency(input.Currency),
		Status:      domain.PaymentStatusPending,
		PaymentType: input.PaymentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	if err := uc.checkProject(ctx, payment); err != nil {
		return nil, err
	}

	var result *PaymentResult

	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		inserted, err := uc.paymentRepo.InsertIfAbsent(txCtx, tx, payment)
		if err != nil {
			return err
		}

		if !inserted {
			existing, err := uc.paymentRepo.GetByExternalRef(txCtx, payment.ExternalRef)
			if err != nil {
				return err
			}
			result = &PaymentResult{Payment: existing, Duplicate: true}
			return nil
		}

		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypePayment, payment.ID, domain.EventTypePaymentRecorded, domain.PaymentEventPayload(payment), now); err != nil {
			return err
		}
		if err := uc.journal.audit(txCtx, tx, domain.AuditActionPaymentRecord, domain.AggregateTypePayment, payment.ID, nil, payment, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment}
		return nil
	})
	if err != nil {
		uc.metrics.CountError("record_payment", errorType(err))
		return nil, err
	}

	if !result.Duplicate && uc.metrics != nil {
		uc.metrics.PaymentsRecorded.Inc()
	}

	return result, nil
}

func (uc *PaymentUseCase) checkProject(ctx context.Context, payment *domain.Payment) error {
	if payment.ProjectID == nil {
		if payment.MilestoneID != nil {
			return &domain.ValidationError{Field: "milestone_id", Reason: "requires project_id", Err: domain.ErrMilestoneNotFound}
		}
		return nil
	}

	project, err := uc.projectRepo.GetByID(ctx, *payment.ProjectID)
	if err != nil {
		return err
	}

	if project.ClientID != payment.ClientID {
		return &domain.ValidationError{
			Field:  "project_id",
			Reason: fmt.Sprintf("project %s belongs to another client", project.ID),
			Err:    domain.ErrProjectNotFound,
		}
	}

	if project.Currency != payment.Currency {
		return &domain.ValidationError{
			Field:  "currency",
			Reason: fmt.Sprintf("project %s is billed in %s, got %s", project.ID, project.Currency, payment.Currency),
			Err:    domain.ErrCurrencyMismatch,
		}
	}

	if payment.MilestoneID != nil {
		if _, err := uc.projectRepo.GetMilestone(ctx, project.ID, *payment.MilestoneID); err != nil {
			return err
		}
	}

	return nil
}

// ConfirmPayment marks a pending payment as completed.
func (uc *PaymentUseCase) ConfirmPayment(ctx context.Context, externalRef string) (*domain.Payment, error) {
	return uc.transition(ctx, externalRef, domain.PaymentStatusCompleted)
}

// FailPayment marks a pending payment as failed.
func (uc *PaymentUseCase) FailPayment(ctx context.Context, externalRef string) (*domain.Payment, error) {
	return uc.transition(ctx, externalRef, domain.PaymentStatusFailed)
}

// RefundPayment marks a completed payment as refunded.
func (uc *PaymentUseCase) RefundPayment(ctx context.Context, externalRef string) (*domain.Payment, error) {
	return uc.transition(ctx, externalRef, domain.PaymentStatusRefunded)
}

func (uc *PaymentUseCase) transition(ctx context.Context, externalRef string, next domain.PaymentStatus) (*domain.Payment, error) {
	var result *domain.Payment

	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		payment, err := uc.paymentRepo.GetByExternalRefForUpdate(txCtx, tx, externalRef)
		if err != nil {
			return err
		}
		before := *payment

		now := uc.now()
		if err := payment.Transition(next, now); err != nil {
			return err
		}

		ok, err := uc.paymentRepo.UpdateStatus(txCtx, tx, payment.ID, before.Status, payment.Status, payment.PaidAt, now)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.TransitionError{Entity: "payment", ID: payment.ID, From: string(before.Status), To: string(next)}
		}

		eventType, action := paymentEvent(next)
		if err := uc.journal.emit(txCtx, tx, domain.AggregateTypePayment, payment.ID, eventType, domain.PaymentEventPayload(payment), now); err != nil {
			return err
		}
		if err := uc.journal.audit(txCtx, tx, action, domain.AggregateTypePayment, payment.ID, before, payment, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		result = payment
		return nil
	})
	if err != nil {
		uc.metrics.CountError("payment_"+string(next), errorType(err))
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentTransitions.WithLabelValues(string(next)).Inc()
	}

	return result, nil
}

func paymentEvent(status domain.PaymentStatus) (string, domain.AuditAction) {
	switch status {
	case domain.PaymentStatusCompleted:
		return domain.EventTypePaymentCompleted, domain.AuditActionPaymentConfirm
	case domain.PaymentStatusFailed:
		return domain.EventTypePaymentFailed, domain.AuditActionPaymentFail
	case domain.PaymentStatusRefunded:
		return domain.EventTypePaymentRefunded, domain.AuditActionPaymentRefund
	case domain.PaymentStatusPending:
		return domain.EventTypePaymentRecorded, domain.AuditActionPaymentRecord
	}
	return domain.EventTypePaymentRecorded, domain.AuditActionPaymentRecord
}

// GetPayment returns a payment by its external reference.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, externalRef string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByExternalRef(ctx, externalRef)
}

func (uc *PaymentUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}
