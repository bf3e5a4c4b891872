package usecase_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
)

func TestLedgerUseCase_CommissionLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a1 := h.append(t, credit("partner-1", domain.CategoryCommission, 1000, "lead-42"))
	if a1.Status != domain.TransactionStatusPending {
		t.Fatalf("expected pending, got %s", a1.Status)
	}

	w := h.wallet(t, "partner-1")
	if w.Balance != 0 {
		t.Fatalf("pending credit must not move balance, got %d", w.Balance)
	}

	if _, err := h.ledger.MarkCompleted(ctx, a1.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	w = h.wallet(t, "partner-1")
	if w.Balance != 1000 || w.TotalEarned != 1000 {
		t.Fatalf("expected balance=1000 earned=1000, got %d/%d", w.Balance, w.TotalEarned)
	}

	again, err := h.ledger.Append(ctx, credit("partner-1", domain.CategoryCommission, 1000, "lead-42"))
	if err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if !again.Duplicate || again.Transaction.ID != a1.ID {
		t.Fatalf("expected duplicate of %s, got %+v", a1.ID, again)
	}
	if h.store.TransactionCount() != 1 {
		t.Fatalf("expected one stored transaction, got %d", h.store.TransactionCount())
	}

	a2 := h.append(t, credit("partner-1", domain.CategoryReward, 500, "bonus-1"))
	if _, err := h.ledger.MarkFailed(ctx, a2.ID); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	w = h.wallet(t, "partner-1")
	if w.Balance != 1000 {
		t.Fatalf("failed credit must not move balance, got %d", w.Balance)
	}

	want := []string{
		domain.EventTypeWalletCreated,
		domain.EventTypeTransactionAppended,
		domain.EventTypeTransactionCompleted,
		domain.EventTypeTransactionAppended,
		domain.EventTypeTransactionFailed,
	}
	if got := eventTypes(h.store.Events()); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestLedgerUseCase_Append_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.TransactionDraft
		err   error
	}{
		{
			name:  "zero amount",
			draft: credit("p", domain.CategoryCommission, 0, "r"),
			err:   domain.ErrInvalidAmount,
		},
		{
			name:  "negative amount",
			draft: credit("p", domain.CategoryCommission, -5, "r"),
			err:   domain.ErrInvalidAmount,
		},
		{
			name:  "empty source ref",
			draft: credit("p", domain.CategoryCommission, 5, ""),
			err:   domain.ErrInvalidSourceRef,
		},
		{
			name:  "unknown category",
			draft: credit("p", domain.TransactionCategory("bonus"), 5, "r"),
			err:   domain.ErrInvalidEnum,
		},
		{
			name:  "missing owner",
			draft: credit("", domain.CategoryCommission, 5, "r"),
			err:   domain.ErrInvalidOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.ledger.Append(context.Background(), tt.draft)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if !domain.IsValidation(err) {
				t.Errorf("expected validation error, got %T", err)
			}
			if h.store.TransactionCount() != 0 {
				t.Errorf("rejected append must not store anything")
			}
		})
	}
}

func TestLedgerUseCase_Append_CurrencyMismatch(t *testing.T) {
	h := newHarness(t)
	h.append(t, credit("partner-1", domain.CategoryCommission, 100, "lead-1"))

	draft := credit("partner-1", domain.CategoryCommission, 100, "lead-2")
	draft.Currency = "eur"

	_, err := h.ledger.Append(context.Background(), draft)
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestLedgerUseCase_Append_SameRefDifferentCategory(t *testing.T) {
	h := newHarness(t)

	c := h.append(t, credit("partner-1", domain.CategoryCommission, 100, "lead-1"))
	r := h.append(t, credit("partner-1", domain.CategoryReward, 100, "lead-1"))

	if c.ID == r.ID {
		t.Fatal("same source ref in another category must be a new transaction")
	}
}

func TestLedgerUseCase_Append_CacheHit(t *testing.T) {
	h := newHarness(t)

	first := h.append(t, credit("partner-1", domain.CategoryCommission, 100, "lead-1"))

	calls := 0
	h.txs.InsertIfAbsentFunc = func(ctx context.Context, tx usecase.Transaction, tr *domain.Transaction) (bool, error) {
		calls++
		return false, errors.New("unexpected insert")
	}

	res, err := h.ledger.Append(context.Background(), credit("partner-1", domain.CategoryCommission, 100, "lead-1"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !res.Duplicate || res.Transaction.ID != first.ID {
		t.Fatalf("expected cached duplicate, got %+v", res)
	}
	if calls != 0 {
		t.Errorf("cache hit must not reach the store, got %d inserts", calls)
	}
}

func TestLedgerUseCase_Append_CacheFailureFallsBackToStore(t *testing.T) {
	h := newHarness(t)
	first := h.append(t, credit("partner-1", domain.CategoryCommission, 100, "lead-1"))

	h.cache.LookupFunc = func(ctx context.Context, ownerID string, category domain.TransactionCategory, sourceRef string) (string, bool, error) {
		return "", false, errors.New("redis down")
	}

	res, err := h.ledger.Append(context.Background(), credit("partner-1", domain.CategoryCommission, 100, "lead-1"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !res.Duplicate || res.Transaction.ID != first.ID {
		t.Fatalf("expected store duplicate, got %+v", res)
	}
}

func TestLedgerUseCase_Append_RollsBackOnOutboxFailure(t *testing.T) {
	h := newHarness(t)
	h.outbox.CreateFunc = func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
		return errors.New("outbox unavailable")
	}

	if _, err := h.ledger.Append(context.Background(), credit("partner-1", domain.CategoryCommission, 100, "lead-1")); err == nil {
		t.Fatal("expected error")
	}

	if h.store.TransactionCount() != 0 {
		t.Error("transaction must not survive a rolled back append")
	}
	if _, err := h.wallets.GetByOwner(context.Background(), "partner-1"); !errors.Is(err, domain.ErrWalletNotFound) {
		t.Errorf("wallet must not survive a rolled back append, got %v", err)
	}
}

func TestLedgerUseCase_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness, id string)
		act   func(h *harness, id string) error
	}{
		{
			name:  "complete twice",
			setup: func(h *harness, id string) { _, _ = h.ledger.MarkCompleted(context.Background(), id) },
			act: func(h *harness, id string) error {
				_, err := h.ledger.MarkCompleted(context.Background(), id)
				return err
			},
		},
		{
			name:  "fail after complete",
			setup: func(h *harness, id string) { _, _ = h.ledger.MarkCompleted(context.Background(), id) },
			act: func(h *harness, id string) error {
				_, err := h.ledger.MarkFailed(context.Background(), id)
				return err
			},
		},
		{
			name:  "complete after fail",
			setup: func(h *harness, id string) { _, _ = h.ledger.MarkFailed(context.Background(), id) },
			act: func(h *harness, id string) error {
				_, err := h.ledger.MarkCompleted(context.Background(), id)
				return err
			},
		},
		{
			name:  "reverse pending",
			setup: func(h *harness, id string) {},
			act: func(h *harness, id string) error {
				_, err := h.ledger.Reverse(context.Background(), id)
				return err
			},
		},
		{
			name:  "reverse failed",
			setup: func(h *harness, id string) { _, _ = h.ledger.MarkFailed(context.Background(), id) },
			act: func(h *harness, id string) error {
				_, err := h.ledger.Reverse(context.Background(), id)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tx := h.append(t, credit("partner-1", domain.CategoryCommission, 700, "lead-1"))
			tt.setup(h, tx.ID)
			before := *h.wallet(t, "partner-1")

			err := tt.act(h, tx.ID)
			if !errors.Is(err, domain.ErrInvalidStateTransition) {
				t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
			}
			var te *domain.TransitionError
			if !errors.As(err, &te) || te.ID != tx.ID {
				t.Errorf("expected TransitionError for %s, got %v", tx.ID, err)
			}

			after := h.wallet(t, "partner-1")
			if after.Balance != before.Balance || after.TotalEarned != before.TotalEarned {
				t.Errorf("rejected transition moved the balance: %d -> %d", before.Balance, after.Balance)
			}
		})
	}
}

func TestLedgerUseCase_MarkCompleted_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.ledger.MarkCompleted(context.Background(), "missing")
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestLedgerUseCase_MarkCompleted_RollsBackBalanceOnCommitFailure(t *testing.T) {
	h := newHarness(t)
	tx := h.append(t, credit("partner-1", domain.CategoryCommission, 700, "lead-1"))

	h.wallets.UpdateBalanceFunc = func(ctx context.Context, tr usecase.Transaction, id string, balance, totalEarned int64, updatedAt time.Time) error {
		return errors.New("write failed")
	}

	if _, err := h.ledger.MarkCompleted(context.Background(), tx.ID); err == nil {
		t.Fatal("expected error")
	}

	stored, err := h.txs.GetByID(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TransactionStatusPending {
		t.Errorf("status must roll back with the balance, got %s", stored.Status)
	}
}

func TestLedgerUseCase_Reverse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	original := h.complete(t, credit("partner-1", domain.CategoryCommission, 1000, "lead-42"))

	res, err := h.ledger.Reverse(ctx, original.ID)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	comp := res.Transaction
	if res.Duplicate {
		t.Fatal("first reversal must not be a duplicate")
	}
	if comp.Type != domain.TransactionTypeDebit || comp.Category != domain.CategoryCommission || comp.Amount != 1000 {
		t.Errorf("unexpected compensation %+v", comp)
	}
	if comp.Status != domain.TransactionStatusCompleted || comp.ReversalOf == nil || *comp.ReversalOf != original.ID {
		t.Errorf("compensation must be completed and linked, got %+v", comp)
	}

	w := h.wallet(t, "partner-1")
	if w.Balance != 0 || w.TotalEarned != 0 {
		t.Fatalf("reversal must neutralize the original, got %d/%d", w.Balance, w.TotalEarned)
	}

	stored, err := h.ledger.GetTransaction(ctx, original.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if stored.Status != domain.TransactionStatusCompleted {
		t.Errorf("original is never modified, got status %s", stored.Status)
	}
	if stored.EffectiveStatus() != domain.TransactionStatusReversed {
		t.Errorf("expected effective status reversed, got %s", stored.EffectiveStatus())
	}
	if stored.ReversedBy == nil || *stored.ReversedBy != comp.ID {
		t.Errorf("expected ReversedBy %s, got %v", comp.ID, stored.ReversedBy)
	}

	again, err := h.ledger.Reverse(ctx, original.ID)
	if err != nil {
		t.Fatalf("second Reverse: %v", err)
	}
	if !again.Duplicate || again.Transaction.ID != comp.ID {
		t.Fatalf("second reversal must return the existing compensation, got %+v", again)
	}
	if w := h.wallet(t, "partner-1"); w.Balance != 0 {
		t.Errorf("second reversal moved the balance to %d", w.Balance)
	}

	_, err = h.ledger.Reverse(ctx, comp.ID)
	if !errors.Is(err, domain.ErrReversalOfReversal) {
		t.Fatalf("expected ErrReversalOfReversal, got %v", err)
	}

	if _, err := h.ledger.MarkFailed(ctx, original.ID); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Errorf("reversed transaction accepted a transition: %v", err)
	}
}

func TestLedgerUseCase_Reverse_Payout(t *testing.T) {
	h := newHarness(t)

	h.complete(t, credit("partner-1", domain.CategoryCommission, 1000, "lead-1"))
	payout := h.complete(t, debit("partner-1", domain.CategoryPayout, 400, "payout-1"))

	if w := h.wallet(t, "partner-1"); w.Balance != 600 || w.TotalEarned != 1000 {
		t.Fatalf("expected 600/1000, got %d/%d", w.Balance, w.TotalEarned)
	}

	if _, err := h.ledger.Reverse(context.Background(), payout.ID); err != nil {
		t.Fatalf("Reverse: %v", err)
	}

	if w := h.wallet(t, "partner-1"); w.Balance != 1000 || w.TotalEarned != 1000 {
		t.Fatalf("expected 1000/1000 after payout reversal, got %d/%d", w.Balance, w.TotalEarned)
	}
}

func TestLedgerUseCase_ConcurrentCompletion(t *testing.T) {
	h := newHarness(t)
	tx := h.append(t, credit("partner-1", domain.CategoryCommission, 250, "lead-1"))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ledger.MarkCompleted(context.Background(), tx.ID)
			if err != nil && !errors.Is(err, domain.ErrInvalidStateTransition) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one completion, got %d", succeeded)
	}
	if w := h.wallet(t, "partner-1"); w.Balance != 250 {
		t.Fatalf("delta applied more than once: balance %d", w.Balance)
	}
}

func TestLedgerUseCase_ConcurrentAppendSameRef(t *testing.T) {
	h := newHarness(t)

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.ledger.Append(context.Background(), credit("partner-1", domain.CategoryCommission, 300, "lead-7"))
			if err != nil {
				t.Errorf("Append: %v", err)
				return
			}
			ids[i] = res.Transaction.ID
		}()
	}
	wg.Wait()

	if h.store.TransactionCount() != 1 {
		t.Fatalf("expected one transaction, got %d", h.store.TransactionCount())
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("appends resolved to different transactions: %v", ids)
		}
	}
}

func TestLedgerUseCase_ConcurrentMixedOperations(t *testing.T) {
	h := newHarness(t)

	var pending []*domain.Transaction
	for i := range 20 {
		pending = append(pending, h.append(t, credit("partner-1", domain.CategoryCommission, int64(10*(i+1)), "lead-"+string(rune('a'+i)))))
	}

	var wg sync.WaitGroup
	for i, tx := range pending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%3 == 0 {
				_, _ = h.ledger.MarkFailed(context.Background(), tx.ID)
				return
			}
			_, _ = h.ledger.MarkCompleted(context.Background(), tx.ID)
		}()
	}
	wg.Wait()

	w := h.wallet(t, "partner-1")
	report, err := h.balances.Verify(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("Verify after concurrent transitions: %v", err)
	}
	if report.Balance != w.Balance {
		t.Errorf("report balance %d, wallet balance %d", report.Balance, w.Balance)
	}
}

func TestLedgerUseCase_GetTransactions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := range 7 {
		tx := h.append(t, credit("partner-1", domain.CategoryCommission, 10, "lead-"+string(rune('a'+i))))
		if i%2 == 0 {
			if _, err := h.ledger.MarkCompleted(ctx, tx.ID); err != nil {
				t.Fatalf("MarkCompleted: %v", err)
			}
		}
	}
	w := h.wallet(t, "partner-1")

	seq := h.ledger.GetTransactions(ctx, w.ID, domain.TransactionFilter{PageSize: 2})

	collect := func() []string {
		var ids []string
		for tx, err := range seq {
			if err != nil {
				t.Fatalf("iteration: %v", err)
			}
			ids = append(ids, tx.ID)
		}
		return ids
	}

	first := collect()
	if len(first) != 7 {
		t.Fatalf("expected 7 transactions across pages, got %d", len(first))
	}
	if second := collect(); !slices.Equal(first, second) {
		t.Errorf("ranging again must restart: %v vs %v", first, second)
	}

	completed := domain.TransactionStatusCompleted
	got, err := h.ledger.CollectTransactions(ctx, w.ID, domain.TransactionFilter{Status: &completed}, 100)
	if err != nil {
		t.Fatalf("CollectTransactions: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 completed, got %d", len(got))
	}

	limited, err := h.ledger.CollectTransactions(ctx, w.ID, domain.TransactionFilter{}, 3)
	if err != nil {
		t.Fatalf("CollectTransactions: %v", err)
	}
	if len(limited) != 3 {
		t.Errorf("expected limit of 3, got %d", len(limited))
	}
}

func TestLedgerUseCase_GetTransactions_StatusFilterUsesEffectiveStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reversed := h.complete(t, credit("partner-1", domain.CategoryCommission, 1000, "lead-1"))
	kept := h.complete(t, credit("partner-1", domain.CategoryReward, 200, "reward-1"))

	res, err := h.ledger.Reverse(ctx, reversed.ID)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	w := h.wallet(t, "partner-1")

	ids := func(status domain.TransactionStatus) []string {
		t.Helper()
		got, err := h.ledger.CollectTransactions(ctx, w.ID, domain.TransactionFilter{Status: &status}, 100)
		if err != nil {
			t.Fatalf("CollectTransactions(%s): %v", status, err)
		}
		var out []string
		for _, tx := range got {
			if tx.EffectiveStatus() != status {
				t.Errorf("filter %s returned %s reading as %s", status, tx.ID, tx.EffectiveStatus())
			}
			out = append(out, tx.ID)
		}
		slices.Sort(out)
		return out
	}

	if got := ids(domain.TransactionStatusReversed); !slices.Equal(got, []string{reversed.ID}) {
		t.Errorf("expected only the compensated credit as reversed, got %v", got)
	}

	wantCompleted := []string{kept.ID, res.Transaction.ID}
	slices.Sort(wantCompleted)
	if got := ids(domain.TransactionStatusCompleted); !slices.Equal(got, wantCompleted) {
		t.Errorf("expected completed to exclude the reversed credit, got %v", got)
	}
}

func TestLedgerUseCase_GetTransactions_EarlyBreakAndError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	calls := 0
	h.txs.ListPageFunc = func(ctx context.Context, walletID string, filter domain.TransactionFilter, after *domain.TransactionCursor, limit int) ([]*domain.Transaction, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("connection reset")
		}
		page := make([]*domain.Transaction, limit)
		for i := range page {
			page[i] = &domain.Transaction{ID: string(rune('a' + i))}
		}
		return page, nil
	}

	for range h.ledger.GetTransactions(ctx, "w", domain.TransactionFilter{PageSize: 5}) {
		break
	}
	if calls != 1 {
		t.Fatalf("early break must not fetch more pages, got %d calls", calls)
	}

	calls = 0
	var gotErr error
	n := 0
	for tx, err := range h.ledger.GetTransactions(ctx, "w", domain.TransactionFilter{PageSize: 5}) {
		if err != nil {
			gotErr = err
			break
		}
		_ = tx
		n++
	}
	if n != 5 || gotErr == nil {
		t.Fatalf("expected 5 items then an error, got %d items and %v", n, gotErr)
	}
}

func TestLedgerUseCase_AuditTrail(t *testing.T) {
	h := newHarness(t)
	ctx := domain.ContextWithUser(context.Background(), &domain.User{ID: "ops-1", Role: domain.RoleOperator})

	res, err := h.ledger.Append(ctx, credit("partner-1", domain.CategoryCommission, 100, "lead-1"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := h.ledger.MarkCompleted(ctx, res.Transaction.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	logs, err := h.ledger.ListAudit(ctx, res.Transaction.ID)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(logs))
	}
	if logs[0].Action != string(domain.AuditActionTransactionAppend) || logs[1].Action != string(domain.AuditActionTransactionComplete) {
		t.Errorf("unexpected actions %s, %s", logs[0].Action, logs[1].Action)
	}
	if logs[1].UserID != "ops-1" {
		t.Errorf("expected actor ops-1, got %s", logs[1].UserID)
	}
}
