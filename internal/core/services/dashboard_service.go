package services

import (
	"context"
	"time"

	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/core/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// recentRepaymentsLimit caps the activity feed on the admin dashboard
const recentRepaymentsLimit = 10

// DashboardService builds read-only portfolio summaries
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData is the operator view of the whole book
type AdminDashboardData struct {
	TotalBorrowers int64 `json:"total_borrowers"`

	TotalLoans  int64 `json:"total_loans"`
	DueLoans    int64 `json:"due_loans"`
	RepaidLoans int64 `json:"repaid_loans"`

	// Amounts are never summed across currencies
	Portfolio []CurrencyTotals `json:"portfolio"`

	InstallmentsDueToday int64            `json:"installments_due_today"`
	ReceivedThisMonth    []CurrencyAmount `json:"received_this_month"`

	RecentRepayments []RepaymentSummary `json:"recent_repayments"`
}

// CurrencyTotals aggregates loans in one currency
type CurrencyTotals struct {
	CurrencyCode string `json:"currency_code"`
	Loans        int64  `json:"loans"`
	Principal    int64  `json:"principal"`
	Outstanding  int64  `json:"outstanding"`
}

// CurrencyAmount is a sum in one currency
type CurrencyAmount struct {
	CurrencyCode string `json:"currency_code"`
	Count        int64  `json:"count"`
	Amount       int64  `json:"amount"`
}

// RepaymentSummary is one ledger row with its borrower
type RepaymentSummary struct {
	Reference    string `json:"reference"`
	LoanID       uint   `json:"loan_id"`
	Username     string `json:"username"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	ReceivedAt   string `json:"received_at"`
}

// GetAdminDashboard returns admin dashboard data as of today
func (s *DashboardService) GetAdminDashboard(ctx context.Context, today time.Time) (*AdminDashboardData, error) {
	today = domain.NormalizeDate(today)
	db := s.db.WithContext(ctx)
	data := &AdminDashboardData{}

	if err := db.Model(&models.User{}).Where("role = ?", string(domain.RoleCustomer)).Count(&data.TotalBorrowers).Error; err != nil {
		return nil, errors.Wrap(err, "count borrowers")
	}

	// Loan counts by status
	if err := db.Model(&models.Loan{}).Count(&data.TotalLoans).Error; err != nil {
		return nil, errors.Wrap(err, "count loans")
	}
	if err := db.Model(&models.Loan{}).Where("status = ?", string(domain.LoanStatusDue)).Count(&data.DueLoans).Error; err != nil {
		return nil, errors.Wrap(err, "count due loans")
	}
	if err := db.Model(&models.Loan{}).Where("status = ?", string(domain.LoanStatusRepaid)).Count(&data.RepaidLoans).Error; err != nil {
		return nil, errors.Wrap(err, "count repaid loans")
	}

	data.Portfolio = []CurrencyTotals{}
	err := db.Model(&models.Loan{}).
		Select(`
			currency_code,
			COUNT(*) AS loans,
			COALESCE(SUM(amount), 0) AS principal,
			COALESCE(SUM(outstanding_amount), 0) AS outstanding
		`).
		Group("currency_code").
		Order("currency_code ASC").
		Scan(&data.Portfolio).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum portfolio")
	}

	err = db.Model(&models.ScheduledRepayment{}).
		Where("due_date >= ? AND due_date < ?", today, today.AddDate(0, 0, 1)).
		Where("status IN ?", openInstallmentStatuses()).
		Count(&data.InstallmentsDueToday).Error
	if err != nil {
		return nil, errors.Wrap(err, "count installments due today")
	}

	// This month statistics
	startOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	data.ReceivedThisMonth = []CurrencyAmount{}
	err = db.Model(&models.ReceivedRepayment{}).
		Select("currency_code, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("received_at >= ? AND received_at < ?", startOfMonth, startOfMonth.AddDate(0, 1, 0)).
		Group("currency_code").
		Order("currency_code ASC").
		Scan(&data.ReceivedThisMonth).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum repayments this month")
	}

	data.RecentRepayments, err = s.recentRepayments(ctx)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (s *DashboardService) recentRepayments(ctx context.Context) ([]RepaymentSummary, error) {
	var rows []models.ReceivedRepayment
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(recentRepaymentsLimit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list recent repayments")
	}
	if len(rows) == 0 {
		return []RepaymentSummary{}, nil
	}

	loanIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		loanIDs = append(loanIDs, r.LoanID)
	}

	var owners []struct {
		LoanID   uint
		Username string
	}
	err = s.db.WithContext(ctx).Table("loans").
		Select("loans.id AS loan_id, users.username").
		Joins("JOIN users ON users.id = loans.user_id").
		Where("loans.id IN ?", loanIDs).
		Scan(&owners).Error
	if err != nil {
		return nil, errors.Wrap(err, "resolve repayment borrowers")
	}
	usernames := make(map[uint]string, len(owners))
	for _, o := range owners {
		usernames[o.LoanID] = o.Username
	}

	out := make([]RepaymentSummary, len(rows))
	for i, r := range rows {
		out[i] = RepaymentSummary{
			Reference:    r.Reference,
			LoanID:       r.LoanID,
			Username:     usernames[r.LoanID],
			Amount:       r.Amount,
			CurrencyCode: r.CurrencyCode,
			ReceivedAt:   domain.NormalizeDate(r.ReceivedAt).Format(domain.DateLayout),
		}
	}
	return out, nil
}

// ============================================================
// Borrower Dashboard
// ============================================================

// BorrowerDashboardData is a borrower's view of their own loans
type BorrowerDashboardData struct {
	ActiveLoans     int64            `json:"active_loans"`
	RepaidLoans     int64            `json:"repaid_loans"`
	Outstanding     []CurrencyAmount `json:"outstanding"`
	NextInstallment *NextInstallment `json:"next_installment"`
}

// NextInstallment is the earliest open installment from today on
type NextInstallment struct {
	LoanID            uint   `json:"loan_id"`
	InstallmentID     uint   `json:"installment_id"`
	Amount            int64  `json:"amount"`
	OutstandingAmount int64  `json:"outstanding_amount"`
	CurrencyCode      string `json:"currency_code"`
	DueDate           string `json:"due_date"`
	Status            string `json:"status"`
}

// GetBorrowerDashboard returns the dashboard of one borrower as of today
func (s *DashboardService) GetBorrowerDashboard(ctx context.Context, userID uint, today time.Time) (*BorrowerDashboardData, error) {
	today = domain.NormalizeDate(today)
	db := s.db.WithContext(ctx)
	data := &BorrowerDashboardData{}

	err := db.Model(&models.Loan{}).
		Where("user_id = ? AND status = ?", userID, string(domain.LoanStatusDue)).
		Count(&data.ActiveLoans).Error
	if err != nil {
		return nil, errors.Wrap(err, "count active loans")
	}
	err = db.Model(&models.Loan{}).
		Where("user_id = ? AND status = ?", userID, string(domain.LoanStatusRepaid)).
		Count(&data.RepaidLoans).Error
	if err != nil {
		return nil, errors.Wrap(err, "count repaid loans")
	}

	data.Outstanding = []CurrencyAmount{}
	err = db.Model(&models.Loan{}).
		Select("currency_code, COUNT(*) AS count, COALESCE(SUM(outstanding_amount), 0) AS amount").
		Where("user_id = ? AND status = ?", userID, string(domain.LoanStatusDue)).
		Group("currency_code").
		Order("currency_code ASC").
		Scan(&data.Outstanding).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum outstanding")
	}

	var next []models.ScheduledRepayment
	err = db.Model(&models.ScheduledRepayment{}).
		Select("scheduled_repayments.*").
		Joins("JOIN loans ON loans.id = scheduled_repayments.loan_id").
		Where("loans.user_id = ?", userID).
		Where("scheduled_repayments.status IN ?", openInstallmentStatuses()).
		Where("scheduled_repayments.due_date >= ?", today).
		Order("scheduled_repayments.due_date ASC, scheduled_repayments.id ASC").
		Limit(1).
		Find(&next).Error
	if err != nil {
		return nil, errors.Wrap(err, "find next installment")
	}
	if len(next) == 1 {
		n := next[0]
		data.NextInstallment = &NextInstallment{
			LoanID:            n.LoanID,
			InstallmentID:     n.ID,
			Amount:            n.Amount,
			OutstandingAmount: n.OutstandingAmount,
			CurrencyCode:      n.CurrencyCode,
			DueDate:           domain.NormalizeDate(n.DueDate).Format(domain.DateLayout),
			Status:            n.Status,
		}
	}

	return data, nil
}

func openInstallmentStatuses() []string {
	return []string{string(domain.RepaymentStatusDue), string(domain.RepaymentStatusPartial)}
}
