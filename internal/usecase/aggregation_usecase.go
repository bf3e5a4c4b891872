package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/partnerledger/internal/domain"
)

// AggregationUseCase computes time-windowed and categorical rollups of a
// wallet's history. Earnings are attributed to the window containing the
// completion time, never the creation time.
type AggregationUseCase struct {
	walletRepo WalletRepository
	txRepo     TransactionRepository
	now        func() time.Time
}

// NewAggregationUseCase creates a new AggregationUseCase.
func NewAggregationUseCase(walletRepo WalletRepository, txRepo TransactionRepository) *AggregationUseCase {
	return &AggregationUseCase{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for "current window" computations.
func (uc *AggregationUseCase) WithClock(now func() time.Time) *AggregationUseCase {
	uc.now = now
	return uc
}

// MonthlyEarnings returns the net earnings completed in the given month.
func (uc *AggregationUseCase) MonthlyEarnings(ctx context.Context, walletID string, year int, month time.Month) (*domain.WindowEarnings, error) {
	window, err := domain.MonthOf(year, month)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	return uc.windowEarnings(ctx, wallet, window)
}

// CurrentMonthEarnings returns the earnings of the month containing "now".
func (uc *AggregationUseCase) CurrentMonthEarnings(ctx context.Context, walletID string) (*domain.WindowEarnings, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	return uc.windowEarnings(ctx, wallet, domain.MonthWindow(uc.now()))
}

func (uc *AggregationUseCase) windowEarnings(ctx context.Context, wallet *domain.Wallet, window domain.Window) (*domain.WindowEarnings, error) {
	totals, err := uc.txRepo.Totals(ctx, wallet.ID, &window)
	if err != nil {
		return nil, err
	}

	if err := checkCurrency(wallet, totals); err != nil {
		return nil, err
	}

	return &domain.WindowEarnings{
		Window:   window,
		Currency: wallet.Currency,
		Amount:   domain.NetEarned(totals),
	}, nil
}

// EarningsSeries returns one entry per calendar month in [from, to), including
// months without earnings. The range is bounded to domain.MaxSeriesMonths.
func (uc *AggregationUseCase) EarningsSeries(ctx context.Context, walletID string, from, to time.Time) ([]*domain.WindowEarnings, error) {
	windows, err := domain.Months(from, to)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	span := domain.Window{Start: windows[0].Start, End: windows[len(windows)-1].End}

	monthly, err := uc.txRepo.MonthlyTotals(ctx, wallet.ID, span)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string][]domain.TransactionTotal, len(windows))
	all := make([]domain.TransactionTotal, 0, len(monthly))
	for _, m := range monthly {
		key := domain.MonthWindow(m.Month).Key()
		byMonth[key] = append(byMonth[key], m.TransactionTotal)
		all = append(all, m.TransactionTotal)
	}

	if err := checkCurrency(wallet, all); err != nil {
		return nil, err
	}

	series := make([]*domain.WindowEarnings, 0, len(windows))
	for _, w := range windows {
		series = append(series, &domain.WindowEarnings{
			Window:   w,
			Currency: wallet.Currency,
			Amount:   domain.NetEarned(byMonth[w.Key()]),
		})
	}

	return series, nil
}

// CategoryTotals returns all-time net completed amounts per category.
func (uc *AggregationUseCase) CategoryTotals(ctx context.Context, walletID string) (*domain.CategoryTotals, error) {
	_, totals, err := uc.allTotals(ctx, walletID)
	if err != nil {
		return nil, err
	}

	c := domain.NewCategoryTotals(totals)
	return &c, nil
}

// StatusSplit returns paid (completed credits) and unpaid (pending credits).
func (uc *AggregationUseCase) StatusSplit(ctx context.Context, walletID string) (*domain.StatusSplit, error) {
	_, totals, err := uc.allTotals(ctx, walletID)
	if err != nil {
		return nil, err
	}

	s := domain.NewStatusSplit(totals)
	return &s, nil
}

// Summary builds the wallet summary. The clock is read once, so every figure
// in the summary uses the same window. Wallets on integrity hold report
// unavailable.
func (uc *AggregationUseCase) Summary(ctx context.Context, walletID string) (*domain.WalletSummary, error) {
	now := uc.now()
	window := domain.MonthWindow(now)

	wallet, totals, err := uc.allTotals(ctx, walletID)
	if err != nil {
		return nil, err
	}

	if wallet.OnHold() {
		return nil, domain.ErrBalanceUnavailable
	}

	windowTotals, err := uc.txRepo.Totals(ctx, wallet.ID, &window)
	if err != nil {
		return nil, err
	}

	categories := domain.NewCategoryTotals(totals)
	split := domain.NewStatusSplit(totals)

	return &domain.WalletSummary{
		WalletID:              wallet.ID,
		OwnerID:               wallet.OwnerID,
		Currency:              wallet.Currency,
		Balance:               wallet.Balance,
		TotalEarned:           wallet.TotalEarned,
		CurrentWindow:         window,
		CurrentWindowEarnings: domain.NetEarned(windowTotals),
		RewardTotal:           categories.Reward,
		CommissionTotal:       categories.Commission,
		PaidTotal:             split.Paid,
		UnpaidTotal:           split.Unpaid,
		AsOf:                  now,
	}, nil
}

func (uc *AggregationUseCase) allTotals(ctx context.Context, walletID string) (*domain.Wallet, []domain.TransactionTotal, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, nil, err
	}

	totals, err := uc.txRepo.Totals(ctx, wallet.ID, nil)
	if err != nil {
		return nil, nil, err
	}

	if err := checkCurrency(wallet, totals); err != nil {
		return nil, nil, err
	}

	return wallet, totals, nil
}

// checkCurrency rejects histories that mix currencies or disagree with the
// wallet currency.
func checkCurrency(wallet *domain.Wallet, totals []domain.TransactionTotal) error {
	currency, err := domain.CurrencyOf(totals)
	if err != nil {
		return err
	}

	if currency != "" && currency != wallet.Currency {
		return &domain.ValidationError{
			Field:  "currency",
			Reason: fmt.Sprintf("wallet %s holds %s but history is in %s", wallet.ID, wallet.Currency, currency),
			Err:    domain.ErrMixedCurrency,
		}
	}

	return nil
}
