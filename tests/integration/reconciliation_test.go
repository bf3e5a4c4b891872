package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/usecase"
	"github.com/iho/partnerledger/tests/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestPaymentsAndReconciliation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := testDB.NewStack(nil)

	for _, p := range []usecase.UpsertProjectInput{
		{ID: "site", ClientID: "client-1", Name: "Website", TotalCost: 100000, Currency: "USD"},
		{ID: "app", ClientID: "client-1", Name: "Mobile app", TotalCost: 50000, Currency: "USD"},
		{ID: "old", ClientID: "client-1", Name: "Legacy", TotalCost: 20000, Currency: "USD"},
	} {
		_, err := s.ProjectUC.UpsertProject(ctx, p)
		require.NoError(t, err)
	}
	_, err := s.ProjectUC.UpsertMilestone(ctx, usecase.UpsertMilestoneInput{ID: "design", ProjectID: "site", Name: "Design", Amount: 30000})
	require.NoError(t, err)

	record := func(ref string, project, milestone *string, amount int64, typ domain.PaymentType) *domain.Payment {
		t.Helper()
		res, err := s.PaymentUC.RecordPayment(ctx, usecase.RecordPaymentInput{
			ClientID: "client-1", ProjectID: project, MilestoneID: milestone,
			ExternalRef: ref, Amount: amount, Currency: "USD", PaymentType: typ,
		})
		require.NoError(t, err)
		return res.Payment
	}

	record("pi_1", ptr("site"), ptr("design"), 30000, domain.PaymentTypeMilestone)
	record("pi_2", ptr("site"), nil, 10000, domain.PaymentTypeAdvance)
	record("pi_3", ptr("app"), nil, 60000, domain.PaymentTypeFinal)
	record("pi_4", ptr("old"), nil, 5000, domain.PaymentTypeAdvance)
	record("pi_5", nil, nil, 700, domain.PaymentTypeAdvance)

	for _, ref := range []string{"pi_1", "pi_3", "pi_4"} {
		_, err := s.PaymentUC.ConfirmPayment(ctx, ref)
		require.NoError(t, err)
	}

	dup, err := s.PaymentUC.RecordPayment(ctx, usecase.RecordPaymentInput{
		ClientID: "client-1", ExternalRef: "pi_1", Amount: 30000, Currency: "USD", PaymentType: domain.PaymentTypeMilestone,
	})
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)
	assert.Equal(t, domain.PaymentStatusCompleted, dup.Payment.Status)

	site, err := s.Reconciliation.ProjectFinancials(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), site.Paid)
	assert.Equal(t, int64(10000), site.Pending)
	assert.Equal(t, int64(70000), site.RemainingAmount())

	require.NoError(t, s.ProjectUC.DeleteProject(ctx, "old"))

	rec, err := s.Reconciliation.ClientReconciliation(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, rec.Projects, 2)
	assert.Equal(t, int64(150000), rec.TotalCost)
	assert.Equal(t, int64(95000), rec.Paid)
	// app is overpaid by 10000; that must not reduce what site still owes.
	assert.Equal(t, int64(70000), rec.RemainingAmount())

	require.NotNil(t, rec.Unassigned)
	assert.Equal(t, int64(5000), rec.Unassigned.Paid)
	assert.Equal(t, int64(700), rec.Unassigned.Pending)

	refunded, err := s.PaymentUC.RefundPayment(ctx, "pi_3")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, refunded.Status)

	app, err := s.Reconciliation.ProjectFinancials(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, int64(60000), app.Refunded)
	assert.Equal(t, int64(50000), app.RemainingAmount())
}
