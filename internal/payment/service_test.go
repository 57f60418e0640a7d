package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/avelasco/payplan/internal/payment"
	"github.com/avelasco/payplan/internal/plan"
)

func threeMonthPlan() plan.Plan {
	return plan.Plan{
		ID:             "p1",
		Name:           "Laptop",
		TotalAmount:    10_000,
		Term:           plan.MonthTerm(3),
		MonthlyPayment: plan.MonthlyPaymentFor(10_000, 3),
	}
}

func TestService_PlanPaymentStatus(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(m *plan.MockStore)
		allPlans  []plan.Plan
		want      plan.TotalsSnapshot
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "SnapshotWinsUnconditionally",
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().
					PaymentTotals(gomock.Any(), "p1").
					Return(&plan.TotalsSnapshot{TotalPaid: 9_999, Remaining: 1}, nil)
			},
			allPlans: []plan.Plan{threeMonthPlan()},
			want:     plan.TotalsSnapshot{TotalPaid: 9_999, Remaining: 1},
		},
		{
			name: "ComputedWhenNoSnapshot",
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().PaymentTotals(gomock.Any(), "p1").Return(nil, nil)
				m.EXPECT().
					PaymentStatus(gomock.Any(), "p1").
					Return([]plan.PaymentStatus{plan.StatusPaid, plan.StatusPending, plan.StatusPaid}, nil)
			},
			allPlans: []plan.Plan{threeMonthPlan()},
			// months 0 and 2 paid: 3333 + 3334
			want: plan.TotalsSnapshot{TotalPaid: 6_667, Remaining: 3_333},
		},
		{
			name: "SnapshotReadFailureFallsBackToCompute",
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().PaymentTotals(gomock.Any(), "p1").Return(nil, errors.New("cache down"))
				m.EXPECT().
					PaymentStatus(gomock.Any(), "p1").
					Return([]plan.PaymentStatus{plan.StatusPaid, plan.StatusPending, plan.StatusPending}, nil)
			},
			allPlans: []plan.Plan{threeMonthPlan()},
			want:     plan.TotalsSnapshot{TotalPaid: 3_333, Remaining: 6_667},
		},
		{
			name: "NoStatusYieldsZero",
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().PaymentTotals(gomock.Any(), "p1").Return(nil, nil)
				m.EXPECT().PaymentStatus(gomock.Any(), "p1").Return(nil, nil)
			},
			allPlans: []plan.Plan{threeMonthPlan()},
			want:     plan.TotalsSnapshot{},
		},
		{
			name: "UnknownPlanYieldsZero",
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().PaymentTotals(gomock.Any(), "p1").Return(nil, nil)
				m.EXPECT().
					PaymentStatus(gomock.Any(), "p1").
					Return([]plan.PaymentStatus{plan.StatusPaid}, nil)
			},
			allPlans: nil,
			want:     plan.TotalsSnapshot{},
		},
		{
			name: "StatusReadFailure",
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().PaymentTotals(gomock.Any(), "p1").Return(nil, nil)
				m.EXPECT().PaymentStatus(gomock.Any(), "p1").Return(nil, errors.New("storage down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := plan.NewMockStore(ctrl)
			tt.setupMock(store)

			svc := payment.NewService(store)
			got, err := svc.PlanPaymentStatus(context.Background(), "p1", tt.allPlans)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_PaidMonthsCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := plan.NewMockStore(ctrl)
	store.EXPECT().
		PaymentStatus(gomock.Any(), "p1").
		Return([]plan.PaymentStatus{plan.StatusPaid, "pagado", plan.StatusPending}, nil)

	svc := payment.NewService(store)
	count, err := svc.PaidMonthsCount(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestService_SavePaymentStatus(t *testing.T) {
	statuses := []plan.PaymentStatus{plan.StatusPaid, plan.StatusPending, plan.StatusPending}

	type testCase struct {
		name      string
		opts      payment.SaveOptions
		setupMock func(m *plan.MockStore)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "SuppliedTotalsWinOverDerivation",
			opts: payment.SaveOptions{
				Totals:   &plan.TotalsSnapshot{TotalPaid: 1, Remaining: 2},
				AllPlans: []plan.Plan{threeMonthPlan()},
			},
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().SavePaymentStatus(gomock.Any(), "p1", statuses).Return(nil)
				m.EXPECT().
					SavePaymentTotals(gomock.Any(), "p1", plan.TotalsSnapshot{TotalPaid: 1, Remaining: 2}).
					Return(nil)
			},
		},
		{
			name: "TotalsDerivedFromPlans",
			opts: payment.SaveOptions{AllPlans: []plan.Plan{threeMonthPlan()}},
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().SavePaymentStatus(gomock.Any(), "p1", statuses).Return(nil)
				m.EXPECT().
					SavePaymentTotals(gomock.Any(), "p1", plan.TotalsSnapshot{TotalPaid: 3_333, Remaining: 6_667}).
					Return(nil)
			},
		},
		{
			name: "NoTotalsWrittenWithoutInputs",
			opts: payment.SaveOptions{},
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().SavePaymentStatus(gomock.Any(), "p1", statuses).Return(nil)
			},
		},
		{
			name: "PlanNotInCollectionSkipsTotals",
			opts: payment.SaveOptions{AllPlans: []plan.Plan{{ID: "other"}}},
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().SavePaymentStatus(gomock.Any(), "p1", statuses).Return(nil)
			},
		},
		{
			name: "StatusWriteFailure",
			opts: payment.SaveOptions{},
			setupMock: func(m *plan.MockStore) {
				m.EXPECT().SavePaymentStatus(gomock.Any(), "p1", statuses).Return(errors.New("storage down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := plan.NewMockStore(ctrl)
			tt.setupMock(store)

			svc := payment.NewService(store)
			err := svc.SavePaymentStatus(context.Background(), "p1", statuses, tt.opts)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestTotalsFromToggles(t *testing.T) {
	toggles := []payment.Toggle{
		{Amount: 1_000, Paid: true},
		{Amount: 1_000, Paid: false},
		{Amount: 1_500, Paid: true},
	}

	got := payment.TotalsFromToggles(toggles)

	assert.Equal(t, plan.TotalsSnapshot{TotalPaid: 2_500, Remaining: 1_000}, got)
	assert.Equal(t, plan.TotalsSnapshot{}, payment.TotalsFromToggles(nil))
}

func TestComputeTotals_OneTime(t *testing.T) {
	p := plan.Plan{ID: "p1", TotalAmount: 5_000, Term: plan.OneTime, MonthlyPayment: 5_000}

	got := payment.ComputeTotals(p, []plan.PaymentStatus{plan.StatusPaid})
	assert.Equal(t, plan.TotalsSnapshot{TotalPaid: 5_000, Remaining: 0}, got)

	got = payment.ComputeTotals(p, []plan.PaymentStatus{plan.StatusPending})
	assert.Equal(t, plan.TotalsSnapshot{TotalPaid: 0, Remaining: 5_000}, got)
}
