package dto

import (
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Currency        string     `json:"currency"`
	Balance         int64      `json:"balance"`
	TotalEarned     int64      `json:"total_earned"`
	OnHold          bool       `json:"on_hold"`
	IntegrityHoldAt *time.Time `json:"integrity_hold_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:              w.ID,
		OwnerID:         w.OwnerID,
		Currency:        w.Currency,
		Balance:         w.Balance,
		TotalEarned:     w.TotalEarned,
		OnHold:          w.OnHold(),
		IntegrityHoldAt: w.IntegrityHoldAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

// TransactionResponse represents a ledger transaction in API responses.
// Status is the effective status: a completed transaction that has been
// compensated reports reversed.
type TransactionResponse struct {
	ID          string         `json:"id"`
	WalletID    string         `json:"wallet_id"`
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	SourceRef   string         `json:"source_ref"`
	ReversalOf  *string        `json:"reversal_of,omitempty"`
	ReversedBy  *string        `json:"reversed_by,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        string(t.Type),
		Category:    string(t.Category),
		Amount:      t.Amount,
		Currency:    t.Currency,
		Status:      string(t.EffectiveStatus()),
		SourceRef:   t.SourceRef,
		ReversalOf:  t.ReversalOf,
		ReversedBy:  t.ReversedBy,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// AppendResponse reports the stored transaction and whether it already existed.
type AppendResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Duplicate   bool                 `json:"duplicate"`
}

// AppendFromResult converts an append result to a response.
func AppendFromResult(r *usecase.AppendResult) *AppendResponse {
	return &AppendResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		Duplicate:   r.Duplicate,
	}
}

// SummaryResponse is the wallet summary exposed to collaborators.
type SummaryResponse struct {
	WalletID              string    `json:"wallet_id"`
	OwnerID               string    `json:"owner_id"`
	Currency              string    `json:"currency"`
	Balance               int64     `json:"balance"`
	TotalEarned           int64     `json:"total_earned"`
	CurrentWindow         string    `json:"current_window"`
	CurrentWindowEarnings int64     `json:"current_window_earnings"`
	RewardTotal           int64     `json:"reward_total"`
	CommissionTotal       int64     `json:"commission_total"`
	PaidTotal             int64     `json:"paid_total"`
	UnpaidTotal           int64     `json:"unpaid_total"`
	AsOf                  time.Time `json:"as_of"`
}

// SummaryFromDomain converts a wallet summary to a response.
func SummaryFromDomain(s *domain.WalletSummary) *SummaryResponse {
	return &SummaryResponse{
		WalletID:              s.WalletID,
		OwnerID:               s.OwnerID,
		Currency:              s.Currency,
		Balance:               s.Balance,
		TotalEarned:           s.TotalEarned,
		CurrentWindow:         s.CurrentWindow.Key(),
		CurrentWindowEarnings: s.CurrentWindowEarnings,
		RewardTotal:           s.RewardTotal,
		CommissionTotal:       s.CommissionTotal,
		PaidTotal:             s.PaidTotal,
		UnpaidTotal:           s.UnpaidTotal,
		AsOf:                  s.AsOf,
	}
}

// WindowEarningsResponse is the earnings of one month.
type WindowEarningsResponse struct {
	Month    string    `json:"month"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Currency string    `json:"currency"`
	Amount   int64     `json:"amount"`
}

// WindowEarningsFromDomain converts window earnings to a response.
func WindowEarningsFromDomain(w *domain.WindowEarnings) *WindowEarningsResponse {
	return &WindowEarningsResponse{
		Month:    w.Window.Key(),
		Start:    w.Window.Start,
		End:      w.Window.End,
		Currency: w.Currency,
		Amount:   w.Amount,
	}
}

// SeriesFromDomain converts an earnings series to responses.
func SeriesFromDomain(series []*domain.WindowEarnings) []*WindowEarningsResponse {
	result := make([]*WindowEarningsResponse, len(series))
	for i, w := range series {
		result[i] = WindowEarningsFromDomain(w)
	}
	return result
}

// IntegrityReportResponse is the outcome of a successful verification.
type IntegrityReportResponse struct {
	WalletID    string    `json:"wallet_id"`
	Balance     int64     `json:"balance"`
	TotalEarned int64     `json:"total_earned"`
	OnHold      bool      `json:"on_hold"`
	CheckedAt   time.Time `json:"checked_at"`
}

// IntegrityReportFromUseCase converts a report to a response.
func IntegrityReportFromUseCase(r *usecase.IntegrityReport) *IntegrityReportResponse {
	return &IntegrityReportResponse{
		WalletID:    r.WalletID,
		Balance:     r.Balance,
		TotalEarned: r.TotalEarned,
		OnHold:      r.OnHold,
		CheckedAt:   r.CheckedAt,
	}
}

// PaymentResponse represents a client payment in API responses.
type PaymentResponse struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	ProjectID   *string    `json:"project_id,omitempty"`
	MilestoneID *string    `json:"milestone_id,omitempty"`
	ExternalRef string     `json:"external_ref"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	PaymentType string     `json:"payment_type"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PaymentFromDomain converts a domain payment to a response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID,
		ClientID:    p.ClientID,
		ProjectID:   p.ProjectID,
		MilestoneID: p.MilestoneID,
		ExternalRef: p.ExternalRef,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      string(p.Status),
		PaymentType: string(p.PaymentType),
		CreatedAt:   p.CreatedAt,
		PaidAt:      p.PaidAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	TotalCost int64     `json:"total_cost"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectFromDomain converts a domain project to a response.
func ProjectFromDomain(p *domain.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:        p.ID,
		ClientID:  p.ClientID,
		Name:      p.Name,
		TotalCost: p.TotalCost,
		Currency:  p.Currency,
		UpdatedAt: p.UpdatedAt,
	}
}

// MilestoneResponse represents a milestone in API responses.
type MilestoneResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Amount    int64     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MilestoneFromDomain converts a domain milestone to a response.
func MilestoneFromDomain(m *domain.Milestone) *MilestoneResponse {
	return &MilestoneResponse{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Name:      m.Name,
		Amount:    m.Amount,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProjectFinancialsResponse is the financial view of one project.
type ProjectFinancialsResponse struct {
	ProjectID       *string `json:"project_id"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	TotalCost       int64   `json:"total_cost"`
	TotalPaid       int64   `json:"total_paid"`
	TotalPending    int64   `json:"total_pending"`
	TotalRefunded   int64   `json:"total_refunded"`
	TotalFailed     int64   `json:"total_failed"`
	RemainingAmount int64   `json:"remaining_amount"`
	Payments        int     `json:"payments"`
}

// ProjectFinancialsFromDomain converts project financials to a response.
func ProjectFinancialsFromDomain(f *domain.ProjectFinancials) *ProjectFinancialsResponse {
	return &ProjectFinancialsResponse{
		ProjectID:       f.ProjectID,
		Name:            f.Name,
		Currency:        f.Currency,
		TotalCost:       f.TotalCost,
		TotalPaid:       f.Paid,
		TotalPending:    f.Pending,
		TotalRefunded:   f.Refunded,
		TotalFailed:     f.Failed,
		RemainingAmount: f.RemainingAmount(),
		Payments:        f.Payments,
	}
}

// ClientReconciliationResponse is the reconciliation record of a client.
type ClientReconciliationResponse struct {
	ClientID            string                       `json:"client_id"`
	Currency            string                       `json:"currency"`
	TotalCost           int64                        `json:"total_cost"`
	TotalPaid           int64                        `json:"total_paid"`
	TotalPending        int64                        `json:"total_pending"`
	TotalRefunded       int64                        `json:"total_refunded"`
	TotalFailed         int64                        `json:"total_failed"`
	RemainingAmount     int64                        `json:"remaining_amount"`
	PerProjectBreakdown []*ProjectFinancialsResponse `json:"per_project_breakdown"`
	UnassignedPayments  *ProjectFinancialsResponse   `json:"unassigned_payments,omitempty"`
}

// ClientReconciliationFromDomain converts a reconciliation to a response.
func ClientReconciliationFromDomain(c *domain.ClientReconciliation) *ClientReconciliationResponse {
	resp := &ClientReconciliationResponse{
		ClientID:            c.ClientID,
		Currency:            c.Currency,
		TotalCost:           c.TotalCost,
		TotalPaid:           c.Paid,
		TotalPending:        c.Pending,
		TotalRefunded:       c.Refunded,
		TotalFailed:         c.Failed,
		RemainingAmount:     c.RemainingAmount(),
		PerProjectBreakdown: make([]*ProjectFinancialsResponse, len(c.Projects)),
	}
	for i, p := range c.Projects {
		resp.PerProjectBreakdown[i] = ProjectFinancialsFromDomain(p)
	}
	if c.Unassigned != nil {
		resp.UnassignedPayments = ProjectFinancialsFromDomain(c.Unassigned)
	}
	return resp
}

// AuditLogResponse represents an audit row in API responses.
type AuditLogResponse struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	RequestID    string      `json:"request_id,omitempty"`
	BeforeState  domain.JSON `json:"before_state,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogsFromDomain converts audit rows to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			UserID:       l.UserID,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			RequestID:    l.RequestID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
