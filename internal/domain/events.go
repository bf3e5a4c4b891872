package domain

import "time"

// Event types
const (
	EventTypeTransactionAppended  = "transaction.appended"
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeTransactionReversed  = "transaction.reversed"
	EventTypePaymentRecorded      = "payment.recorded"
	EventTypePaymentCompleted     = "payment.completed"
	EventTypePaymentFailed        = "payment.failed"
	EventTypePaymentRefunded      = "payment.refunded"
	EventTypeWalletCreated        = "wallet.created"
	EventTypeIntegrityViolation   = "wallet.integrity_violation"
	EventTypeWalletRebuilt        = "wallet.rebuilt"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypePayment     = "payment"
	AggregateTypeWallet      = "wallet"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionEventPayload is the payload of transaction.* events.
func TransactionEventPayload(t *Transaction) map[string]any {
	payload := map[string]any{
		"transaction_id": t.ID,
		"wallet_id":      t.WalletID,
		"type":           string(t.Type),
		"category":       string(t.Category),
		"amount":         t.Amount,
		"currency":       t.Currency,
		"status":         string(t.Status),
		"source_ref":     t.SourceRef,
	}
	if t.ReversalOf != nil {
		payload["reversal_of"] = *t.ReversalOf
	}
	if t.CompletedAt != nil {
		payload["completed_at"] = t.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	return payload
}

// PaymentEventPayload is the payload of payment.* events.
func PaymentEventPayload(p *Payment) map[string]any {
	payload := map[string]any{
		"payment_id":   p.ID,
		"client_id":    p.ClientID,
		"external_ref": p.ExternalRef,
		"amount":       p.Amount,
		"currency":     p.Currency,
		"status":       string(p.Status),
		"payment_type": string(p.PaymentType),
	}
	if p.ProjectID != nil {
		payload["project_id"] = *p.ProjectID
	}
	if p.MilestoneID != nil {
		payload["milestone_id"] = *p.MilestoneID
	}

	return payload
}

// LeadConverted is published by the lead workflow when a lead becomes a client.
type LeadConverted struct {
	LeadID      string         `json:"lead_id"`
	PartnerID   string         `json:"partner_id"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Category    string         `json:"category,omitempty"`
	ConvertedAt *time.Time     `json:"converted_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
