package handler

import (
	"net/http"

	"github.com/iho/partnerledger/internal/adapter/http/dto"
	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// ConversionHandler is the HTTP trigger of the lead-conversion producer.
type ConversionHandler struct {
	conversions *usecase.ConversionUseCase
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(conversions *usecase.ConversionUseCase) *ConversionHandler {
	return &ConversionHandler{conversions: conversions}
}

// Convert credits the partner for a converted lead. Redelivery answers 200
// with the transaction created the first time.
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var event domain.LeadConverted
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.conversions.HandleLeadConverted(r.Context(), event)
	if err != nil {
		writeDomainError(w, r, "failed to record conversion", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.AppendFromResult(result))
}
