package services

import (
	"context"
	"testing"

	"loanbook/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Admin(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	vnd := f.createLoan(t, 999, 3, "2021-01-01")
	small := f.createLoan(t, 200, 2, "2021-01-01")
	_, err := f.svc.CreateLoan(ctx, CreateLoanInput{
		UserID: f.owner.UserID, Amount: 500, CurrencyCode: "SGD", Terms: 1, ProcessedAt: day(t, "2021-01-01"),
	})
	require.NoError(t, err)

	_, err = f.repay(t, vnd.Loan.ID, 400, "2021-02-01")
	require.NoError(t, err)
	_, err = f.repay(t, small.Loan.ID, 1, "2021-03-01")
	require.NoError(t, err)

	svc := NewDashboardService(f.db)
	data, err := svc.GetAdminDashboard(ctx, day(t, "2021-02-01"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), data.TotalBorrowers)
	assert.Equal(t, int64(3), data.TotalLoans)
	assert.Equal(t, int64(2), data.DueLoans)
	assert.Equal(t, int64(1), data.RepaidLoans)

	require.Len(t, data.Portfolio, 2)
	assert.Equal(t, CurrencyTotals{CurrencyCode: "SGD", Loans: 1, Principal: 500, Outstanding: 500}, data.Portfolio[0])
	assert.Equal(t, CurrencyTotals{CurrencyCode: "VND", Loans: 2, Principal: 1199, Outstanding: 599}, data.Portfolio[1])

	// SGD single installment; the VND one due today is already repaid, the closed loan's too
	assert.Equal(t, int64(1), data.InstallmentsDueToday)

	require.Len(t, data.ReceivedThisMonth, 1)
	assert.Equal(t, CurrencyAmount{CurrencyCode: "VND", Count: 1, Amount: 400}, data.ReceivedThisMonth[0])

	require.Len(t, data.RecentRepayments, 2)
	assert.Equal(t, small.Loan.ID, data.RecentRepayments[0].LoanID)
	assert.Equal(t, "borrower", data.RecentRepayments[0].Username)
	assert.Equal(t, "2021-03-01", data.RecentRepayments[0].ReceivedAt)
}

func TestDashboardService_Borrower(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	svc := NewDashboardService(f.db)

	empty, err := svc.GetBorrowerDashboard(ctx, f.owner.UserID, day(t, "2021-01-15"))
	require.NoError(t, err)
	assert.Zero(t, empty.ActiveLoans)
	assert.Empty(t, empty.Outstanding)
	assert.Nil(t, empty.NextInstallment)

	agg := f.createLoan(t, 999, 3, "2021-01-01")
	_, err = f.repay(t, agg.Loan.ID, 400, "2021-02-01")
	require.NoError(t, err)

	data, err := svc.GetBorrowerDashboard(ctx, f.owner.UserID, day(t, "2021-01-15"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.ActiveLoans)
	require.Len(t, data.Outstanding, 1)
	assert.Equal(t, int64(599), data.Outstanding[0].Amount)

	require.NotNil(t, data.NextInstallment)
	assert.Equal(t, agg.Schedule[1].ID, data.NextInstallment.InstallmentID)
	assert.Equal(t, "2021-03-01", data.NextInstallment.DueDate)
	assert.Equal(t, string(domain.RepaymentStatusPartial), data.NextInstallment.Status)
	assert.Equal(t, int64(66), data.NextInstallment.OutstandingAmount)

	other, err := svc.GetBorrowerDashboard(ctx, f.owner.UserID+1, day(t, "2021-01-15"))
	require.NoError(t, err)
	assert.Nil(t, other.NextInstallment)
}
