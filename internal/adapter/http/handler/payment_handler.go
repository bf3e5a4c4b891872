package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partnerledger/internal/adapter/http/dto"
	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// PaymentHandler handles client payment requests from the billing side.
type PaymentHandler struct {
	payments *usecase.PaymentUseCase
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Record stores a pending payment. A known external reference answers 200.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid payment", err)
		return
	}

	result, err := h.payments.RecordPayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to record payment", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.PaymentFromDomain(result.Payment))
}

// Get retrieves a payment by its external reference.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.GetPayment(r.Context(), chi.URLParam(r, "externalRef"))
	if err != nil {
		writeDomainError(w, r, "failed to get payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Confirm marks a pending payment completed.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payments.ConfirmPayment, "failed to confirm payment")
}

// Fail marks a pending payment failed.
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payments.FailPayment, "failed to fail payment")
}

// Refund marks a completed payment refunded.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payments.RefundPayment, "failed to refund payment")
}

func (h *PaymentHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, externalRef string) (*domain.Payment, error),
	message string,
) {
	payment, err := op(r.Context(), chi.URLParam(r, "externalRef"))
	if err != nil {
		writeDomainError(w, r, message, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}
