package services

import (
	"context"
	"time"

	"loanbook/internal/core/domain"
)

// Note: AuthService implementation is in auth_service.go
// Note: ReminderService implementation is in reminder_service.go

// LoanService originates loans and applies repayments to them
type LoanService interface {
	CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.LoanAggregate, error)
	RepayLoan(ctx context.Context, loanID uint, input RepayLoanInput) (*RepaymentResult, error)
	GetLoan(ctx context.Context, loanID uint, requester Requester) (*domain.LoanAggregate, error)
	ListLoans(ctx context.Context, userID uint, offset, limit int) ([]*domain.Loan, int64, error)
	ListRepayments(ctx context.Context, loanID uint, requester Requester) ([]*domain.ReceivedRepayment, error)
	ListDueInstallments(ctx context.Context, date time.Time) ([]*domain.ScheduledRepayment, error)
}

// Notifier delivers installment reminders to borrowers
type Notifier interface {
	NotifyInstallmentDue(ctx context.Context, reminder Reminder) error
}

// Requester identifies who is calling. Admins may act on any loan.
type Requester struct {
	UserID uint
	Role   domain.Role
}

// CanAccess reports whether the requester may read or repay loan
func (r Requester) CanAccess(loan *domain.Loan) bool {
	return r.Role == domain.RoleAdmin || loan.UserID == r.UserID
}

// CreateLoanInput for originating a loan. Zero ProcessedAt means today.
type CreateLoanInput struct {
	UserID       uint
	Amount       int64
	CurrencyCode string
	Terms        int
	ProcessedAt  time.Time
}

// RepayLoanInput for recording an incoming payment
type RepayLoanInput struct {
	Requester    Requester
	Amount       int64
	CurrencyCode string
	ReceivedAt   time.Time
}

// RepaymentResult is the ledger row plus the loan as it stands afterwards
type RepaymentResult struct {
	Repayment *domain.ReceivedRepayment
	Loan      *domain.LoanAggregate
	Outcome   domain.RepaymentOutcome
}

// Reminder is one installment reminder addressed to its borrower
type Reminder struct {
	Username      string
	Email         string
	LoanID        uint
	InstallmentID uint
	Amount        int64
	Outstanding   int64
	CurrencyCode  string
	DueDate       time.Time
	Status        domain.RepaymentStatus
}
