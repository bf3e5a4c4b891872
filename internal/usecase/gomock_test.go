package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
	"github.com/iho/partnerledger/internal/usecase/mocks/gomocks"
)

func TestLedgerUseCase_Append_BeginFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := gomocks.NewMockTransactionManager(ctrl)
	txRepo := gomocks.NewMockTransactionRepository(ctrl)
	walletRepo := gomocks.NewMockWalletRepository(ctrl)
	idGen := gomocks.NewMockIDGenerator(ctrl)
	retrier := gomocks.NewMockRetrier(ctrl)

	boom := errors.New("pool exhausted")

	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, op func() error) error {
		return op()
	})
	txMgr.EXPECT().Begin(gomock.Any()).Return(nil, boom)

	guard := usecase.NewIdempotencyGuard(txRepo, nil, 0, nil)
	balances := usecase.NewBalanceUseCase(txMgr, walletRepo, txRepo, nil, nil, idGen, retrier, nil)
	ledger := usecase.NewLedgerUseCase(txMgr, walletRepo, txRepo, nil, nil, guard, balances, idGen, retrier, nil)

	_, err := ledger.Append(context.Background(), credit("partner-1", domain.CategoryCommission, 10, "lead-1"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestIdempotencyGuard_Claim_InvisibleConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := gomocks.NewMockTransactionRepository(ctrl)
	tx := gomocks.NewMockTransaction(ctrl)

	candidate := &domain.Transaction{ID: "t1", WalletID: "w1", Category: domain.CategoryCommission, SourceRef: "lead-1"}

	txRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, candidate).Return(false, nil)
	txRepo.EXPECT().GetByKey(gomock.Any(), tx, candidate.Key()).Return(nil, domain.ErrTransactionNotFound)

	guard := usecase.NewIdempotencyGuard(txRepo, nil, 0, nil)

	_, _, err := guard.Claim(context.Background(), tx, candidate)
	if !errors.Is(err, domain.ErrDuplicateSourceRef) {
		t.Fatalf("expected ErrDuplicateSourceRef, got %v", err)
	}
}

func TestIdempotencyGuard_Remember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := gomocks.NewMockTransactionRepository(ctrl)
	cache := gomocks.NewMockSourceRefCache(ctrl)

	cache.EXPECT().
		Remember(gomock.Any(), "partner-1", domain.CategoryReward, "lead-1", "t1", 2*time.Hour).
		Return(errors.New("redis down"))

	guard := usecase.NewIdempotencyGuard(txRepo, cache, 2*time.Hour, nil)

	// Cache write failures are logged and swallowed.
	guard.Remember(context.Background(), "partner-1", &domain.Transaction{ID: "t1", Category: domain.CategoryReward, SourceRef: "lead-1"})
}

func TestAggregationUseCase_Summary_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := gomocks.NewMockWalletRepository(ctrl)
	txRepo := gomocks.NewMockTransactionRepository(ctrl)

	boom := errors.New("statement timeout")
	walletRepo.EXPECT().GetByID(gomock.Any(), "w1").Return(&domain.Wallet{ID: "w1", Currency: "USD"}, nil)
	txRepo.EXPECT().Totals(gomock.Any(), "w1", nil).Return(nil, boom)

	uc := usecase.NewAggregationUseCase(walletRepo, txRepo)

	if _, err := uc.Summary(context.Background(), "w1"); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestReconciliationUseCase_PaymentLoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	projectRepo := gomocks.NewMockProjectRepository(ctrl)
	paymentRepo := gomocks.NewMockPaymentRepository(ctrl)

	boom := errors.New("connection refused")
	projectRepo.EXPECT().ListByClient(gomock.Any(), "client-1").Return([]*domain.Project{}, nil)
	paymentRepo.EXPECT().ListByClient(gomock.Any(), "client-1").Return(nil, boom)

	uc := usecase.NewReconciliationUseCase(projectRepo, paymentRepo)

	if _, err := uc.ClientReconciliation(context.Background(), "client-1"); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
