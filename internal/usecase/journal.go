package usecase

import (
	"context"
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
)

// journal writes the outbox event and audit row that accompany every state
// change, inside the same database transaction.
type journal struct {
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

func (j journal) emit(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) error {
	if j.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            j.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}

	return j.outboxRepo.Create(ctx, tx, event)
}

func (j journal) audit(
	ctx context.Context,
	tx Transaction,
	action domain.AuditAction,
	resourceType, resourceID string,
	before, after any,
	now time.Time,
) error {
	if j.auditRepo == nil {
		return nil
	}

	auditLog := &domain.AuditLog{
		ID:           j.idGen.Generate(),
		UserID:       domain.ActorID(ctx),
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    domain.RequestIDFromContext(ctx),
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	if err := j.auditRepo.CreateTx(ctx, tx, auditLog); err != nil {
		return err
	}

	if j.metrics != nil {
		j.metrics.AuditLogsCreated.WithLabelValues(auditLog.Action, auditLog.Status).Inc()
	}

	return nil
}
