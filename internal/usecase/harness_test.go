package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
	"github.com/iho/partnerledger/internal/usecase/mocks"
)

type harness struct {
	store    *mocks.Store
	txMgr    *mocks.MockTransactionManager
	wallets  *mocks.MockWalletRepository
	txs      *mocks.MockTransactionRepository
	payments *mocks.MockPaymentRepository
	projects *mocks.MockProjectRepository
	outbox   *mocks.MockOutboxRepository
	audit    *mocks.MockAuditRepository
	cache    *mocks.MockSourceRefCache
	idGen    *mocks.MockIDGenerator

	guard          *usecase.IdempotencyGuard
	balances       *usecase.BalanceUseCase
	ledger         *usecase.LedgerUseCase
	aggregation    *usecase.AggregationUseCase
	paymentUC      *usecase.PaymentUseCase
	projectUC      *usecase.ProjectUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := mocks.NewStore()
	h := &harness{
		store:    store,
		txMgr:    mocks.NewMockTransactionManager(store),
		wallets:  mocks.NewMockWalletRepository(store),
		txs:      mocks.NewMockTransactionRepository(store),
		payments: mocks.NewMockPaymentRepository(store),
		projects: mocks.NewMockProjectRepository(store),
		outbox:   mocks.NewMockOutboxRepository(store),
		audit:    mocks.NewMockAuditRepository(store),
		cache:    mocks.NewMockSourceRefCache(),
		idGen:    mocks.NewMockIDGenerator(),
	}

	h.guard = usecase.NewIdempotencyGuard(h.txs, h.cache, time.Hour, nil)
	h.balances = usecase.NewBalanceUseCase(h.txMgr, h.wallets, h.txs, h.outbox, h.audit, h.idGen, nil, nil)
	h.ledger = usecase.NewLedgerUseCase(h.txMgr, h.wallets, h.txs, h.outbox, h.audit, h.guard, h.balances, h.idGen, nil, nil)
	h.aggregation = usecase.NewAggregationUseCase(h.wallets, h.txs)
	h.paymentUC = usecase.NewPaymentUseCase(h.txMgr, h.payments, h.projects, h.outbox, h.audit, h.idGen, nil, nil)
	h.projectUC = usecase.NewProjectUseCase(h.projects)
	h.reconciliation = usecase.NewReconciliationUseCase(h.projects, h.payments)

	return h
}

func credit(owner string, category domain.TransactionCategory, amount int64, ref string) domain.TransactionDraft {
	return domain.TransactionDraft{
		OwnerID:   owner,
		Currency:  "USD",
		Type:      domain.TransactionTypeCredit,
		Category:  category,
		Amount:    amount,
		SourceRef: ref,
	}
}

func debit(owner string, category domain.TransactionCategory, amount int64, ref string) domain.TransactionDraft {
	d := credit(owner, category, amount, ref)
	d.Type = domain.TransactionTypeDebit
	return d
}

func (h *harness) append(t *testing.T, draft domain.TransactionDraft) *domain.Transaction {
	t.Helper()

	res, err := h.ledger.Append(context.Background(), draft)
	if err != nil {
		t.Fatalf("append %s: %v", draft.SourceRef, err)
	}
	return res.Transaction
}

func (h *harness) complete(t *testing.T, draft domain.TransactionDraft) *domain.Transaction {
	t.Helper()

	tx := h.append(t, draft)
	done, err := h.ledger.MarkCompleted(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("complete %s: %v", draft.SourceRef, err)
	}
	return done
}

func (h *harness) wallet(t *testing.T, owner string) *domain.Wallet {
	t.Helper()

	w, err := h.wallets.GetByOwner(context.Background(), owner)
	if err != nil {
		t.Fatalf("wallet of %s: %v", owner, err)
	}
	return w
}

func eventTypes(events []*domain.OutboxEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
