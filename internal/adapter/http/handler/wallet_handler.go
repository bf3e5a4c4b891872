package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partnerledger/internal/adapter/http/dto"
	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

// WalletHandler serves the per-owner wallet endpoints.
type WalletHandler struct {
	ledger      *usecase.LedgerUseCase
	balances    *usecase.BalanceUseCase
	aggregation *usecase.AggregationUseCase
	now         func() time.Time
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger *usecase.LedgerUseCase, balances *usecase.BalanceUseCase, aggregation *usecase.AggregationUseCase) *WalletHandler {
	return &WalletHandler{
		ledger:      ledger,
		balances:    balances,
		aggregation: aggregation,
		now:         time.Now,
	}
}

// Append records a transaction for the owner. A replayed source reference
// answers 200 with the stored transaction instead of 201.
func (h *WalletHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req dto.AppendTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	draft, err := req.ToDraft(chi.URLParam(r, "ownerId"))
	if err != nil {
		writeDomainError(w, r, "invalid transaction", err)
		return
	}

	result, err := h.ledger.Append(r.Context(), draft)
	if err != nil {
		writeDomainError(w, r, "failed to append transaction", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.AppendFromResult(result))
}

// Get returns the owner's wallet, including its integrity hold state.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	// A wallet on integrity hold must not report its balance.
	if _, err := h.balances.Balance(r.Context(), wallet.ID); err != nil {
		writeDomainError(w, r, "balance unavailable", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Summary returns the wallet summary record.
func (h *WalletHandler) Summary(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	summary, err := h.aggregation.Summary(r.Context(), wallet.ID)
	if err != nil {
		writeDomainError(w, r, "failed to build summary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary))
}

// ListTransactions lists the owner's transactions newest first.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := dto.TransactionFilterFromQuery(r.URL.Query())
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}

	limit := parseIntQuery(r, "limit", usecase.DefaultPageSize)
	if limit <= 0 || limit > usecase.MaxPageSize {
		writeError(w, http.StatusBadRequest, "invalid limit", "limit must be between 1 and 1000")
		return
	}

	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	txs, err := h.ledger.CollectTransactions(r.Context(), wallet.ID, filter, limit)
	if err != nil {
		writeDomainError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}

// MonthlyEarnings returns the earnings of one calendar month, by default the
// current one.
func (h *WalletHandler) MonthlyEarnings(w http.ResponseWriter, r *http.Request) {
	year, month, err := dto.MonthQuery(r.URL.Query(), h.now())
	if err != nil {
		writeDomainError(w, r, "invalid month", err)
		return
	}

	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	earnings, err := h.aggregation.MonthlyEarnings(r.Context(), wallet.ID, year, month)
	if err != nil {
		writeDomainError(w, r, "failed to compute earnings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WindowEarningsFromDomain(earnings))
}

// EarningsSeries returns one entry per month in [from, to).
func (h *WalletHandler) EarningsSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := dto.TimeQuery(q, "from")
	if err != nil {
		writeDomainError(w, r, "invalid range", err)
		return
	}
	to, err := dto.TimeQuery(q, "to")
	if err != nil {
		writeDomainError(w, r, "invalid range", err)
		return
	}
	if from == nil || to == nil {
		writeError(w, http.StatusBadRequest, "invalid range", "from and to are required")
		return
	}

	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	series, err := h.aggregation.EarningsSeries(r.Context(), wallet.ID, *from, *to)
	if err != nil {
		writeDomainError(w, r, "failed to compute earnings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SeriesFromDomain(series))
}

// Verify compares the materialized balance with a recomputation.
func (h *WalletHandler) Verify(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	report, err := h.balances.Verify(r.Context(), wallet.ID)
	if err != nil {
		writeDomainError(w, r, "integrity check failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IntegrityReportFromUseCase(report))
}

// Rebuild overwrites the materialized balance from history and lifts the hold.
func (h *WalletHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}

	rebuilt, err := h.balances.Rebuild(r.Context(), wallet.ID)
	if err != nil {
		writeDomainError(w, r, "failed to rebuild wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(rebuilt))
}

func (h *WalletHandler) wallet(w http.ResponseWriter, r *http.Request) (*domain.Wallet, bool) {
	wallet, err := h.balances.GetWalletByOwner(r.Context(), chi.URLParam(r, "ownerId"))
	if err != nil {
		writeDomainError(w, r, "failed to get wallet", err)
		return nil, false
	}
	return wallet, true
}
