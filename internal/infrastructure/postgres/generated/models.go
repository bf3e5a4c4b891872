
package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLog struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RequestID    string             `json:"request_id"`
	BeforeState  []byte             `json:"before_state"`
	AfterState   []byte             `json:"after_state"`
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Milestone struct {
	ProjectID string             `json:"project_id"`
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Amount    int64              `json:"amount"`
	DeletedAt pgtype.Timestamptz `json:"deleted_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type Payment struct {
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

type Project struct {
	ID        string             `json:"id"`
	ClientID  string             `json:"client_id"`
	Name      string             `json:"name"`
	TotalCost int64              `json:"total_cost"`
	Currency  string             `json:"currency"`
	DeletedAt pgtype.Timestamptz `json:"deleted_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Transaction struct {
	ID          string             `json:"id"`
	WalletID    string             `json:"wallet_id"`
	Type        string             `json:"type"`
	Category    string             `json:"category"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	SourceRef   string             `json:"source_ref"`
	ReversalOf  pgtype.Text        `json:"reversal_of"`
	Metadata    []byte             `json:"metadata"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	CompletedAt pgtype.Timestamptz `json:"completed_at"`
}

type Wallet struct {
	ID              string             `json:"id"`
	OwnerID         string             `json:"owner_id"`
	Currency        string             `json:"currency"`
	Balance         int64              `json:"balance"`
	TotalEarned     int64              `json:"total_earned"`
	IntegrityHoldAt pgtype.Timestamptz `json:"integrity_hold_at"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}
