package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// AppendTransactionRequest represents a request to append a ledger transaction.
type AppendTransactionRequest struct {
	Type      string         `json:"type"`
	Category  string         `json:"category"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	SourceRef string         `json:"source_ref"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ToDraft converts to a draft for ownerID.
func (r *AppendTransactionRequest) ToDraft(ownerID string) (domain.TransactionDraft, error) {
	typ, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return domain.TransactionDraft{}, err
	}
	category, err := domain.ParseTransactionCategory(r.Category)
	if err != nil {
		return domain.TransactionDraft{}, err
	}

	return domain.TransactionDraft{
		OwnerID:   ownerID,
		Currency:  r.Currency,
		Type:      typ,
		Category:  category,
		Amount:    r.Amount,
		SourceRef: r.SourceRef,
		Metadata:  r.Metadata,
	}, nil
}

// RecordPaymentRequest represents a client payment reported by the billing side.
type RecordPaymentRequest struct {
	ClientID    string  `json:"client_id"`
	ProjectID   *string `json:"project_id,omitempty"`
	MilestoneID *string `json:"milestone_id,omitempty"`
	ExternalRef string  `json:"external_ref"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	PaymentType string  `json:"payment_type"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput() (usecase.RecordPaymentInput, error) {
	paymentType, err := domain.ParsePaymentType(r.PaymentType)
	if err != nil {
		return usecase.RecordPaymentInput{}, err
	}

	return usecase.RecordPaymentInput{
		ClientID:    r.ClientID,
		ProjectID:   r.ProjectID,
		MilestoneID: r.MilestoneID,
		ExternalRef: r.ExternalRef,
		Amount:      r.Amount,
		Currency:    r.Currency,
		PaymentType: paymentType,
	}, nil
}

// UpsertProjectRequest carries project data synced from project management.
type UpsertProjectRequest struct {
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	TotalCost int64  `json:"total_cost"`
	Currency  string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *UpsertProjectRequest) ToUseCaseInput(id string) usecase.UpsertProjectInput {
	return usecase.UpsertProjectInput{
		ID:        id,
		ClientID:  r.ClientID,
		Name:      r.Name,
		TotalCost: r.TotalCost,
		Currency:  r.Currency,
	}
}

// UpsertMilestoneRequest carries milestone data synced from project management.
type UpsertMilestoneRequest struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *UpsertMilestoneRequest) ToUseCaseInput(projectID, id string) usecase.UpsertMilestoneInput {
	return usecase.UpsertMilestoneInput{
		ID:        id,
		ProjectID: projectID,
		Name:      r.Name,
		Amount:    r.Amount,
	}
}

// TransactionFilterFromQuery reads list filters from the query string.
// Time bounds are RFC 3339 and half-open.
func TransactionFilterFromQuery(q url.Values) (domain.TransactionFilter, error) {
	var f domain.TransactionFilter

	if v := q.Get("status"); v != "" {
		status, err := domain.ParseTransactionStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if v := q.Get("category"); v != "" {
		category, err := domain.ParseTransactionCategory(v)
		if err != nil {
			return f, err
		}
		f.Category = &category
	}
	if v := q.Get("type"); v != "" {
		typ, err := domain.ParseTransactionType(v)
		if err != nil {
			return f, err
		}
		f.Type = &typ
	}

	bounds := []struct {
		key string
		dst **time.Time
	}{
		{"from", &f.CreatedFrom},
		{"to", &f.CreatedTo},
		{"completed_from", &f.CompletedFrom},
		{"completed_to", &f.CompletedTo},
	}
	for _, b := range bounds {
		t, err := TimeQuery(q, b.key)
		if err != nil {
			return f, err
		}
		*b.dst = t
	}

	return f, nil
}

// TimeQuery parses an optional RFC 3339 query parameter.
func TimeQuery(q url.Values, key string) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "must be an RFC 3339 timestamp", Err: domain.ErrInvalidWindow}
	}
	t = t.UTC()
	return &t, nil
}

// MonthQuery parses year and month query parameters. Missing values default
// to the month containing now.
func MonthQuery(q url.Values, now time.Time) (int, time.Month, error) {
	year, month := now.UTC().Year(), now.UTC().Month()

	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &domain.ValidationError{Field: "year", Reason: fmt.Sprintf("%q is not a number", v), Err: domain.ErrInvalidWindow}
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &domain.ValidationError{Field: "month", Reason: fmt.Sprintf("%q is not a number", v), Err: domain.ErrInvalidWindow}
		}
		if m < 1 || m > 12 {
			return 0, 0, &domain.ValidationError{Field: "month", Reason: "must be between 1 and 12", Err: domain.ErrInvalidWindow}
		}
		month = time.Month(m)
	}

	return year, month, nil
}
