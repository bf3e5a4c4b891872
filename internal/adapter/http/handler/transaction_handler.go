package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partnerledger/internal/adapter/http/dto"
	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	ledger *usecase.LedgerUseCase
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger *usecase.LedgerUseCase) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Complete moves a pending transaction to completed.
func (h *TransactionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.MarkCompleted, "failed to complete transaction")
}

// Fail moves a pending transaction to failed.
func (h *TransactionHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.MarkFailed, "failed to fail transaction")
}

func (h *TransactionHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (*domain.Transaction, error),
	message string,
) {
	t, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, message, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Reverse appends the compensating transaction. Reversing again returns the
// existing compensation with 200.
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledger.Reverse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to reverse transaction", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.AppendFromResult(result))
}

// Audit lists the audit trail of a transaction.
func (h *TransactionHandler) Audit(w http.ResponseWriter, r *http.Request) {
	logs, err := h.ledger.ListAudit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to list audit trail", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}
