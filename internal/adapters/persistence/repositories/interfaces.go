package repositories

import (
	"context"
	"time"

	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// LoanRepository owns the loan aggregate: the loan row, its schedule and its ledger.
// Methods called on a repository returned by Transaction run inside that transaction.
type LoanRepository interface {
	// Transaction runs fn inside a database transaction, rolled back when fn errors
	Transaction(ctx context.Context, fn func(repo LoanRepository) error) error

	CreateAggregate(ctx context.Context, agg *domain.LoanAggregate) error
	GetAggregate(ctx context.Context, loanID uint) (*domain.LoanAggregate, error)
	// LockAggregate loads the aggregate holding a row lock on the loan
	LockAggregate(ctx context.Context, loanID uint) (*domain.LoanAggregate, error)
	SaveLoan(ctx context.Context, loan *domain.Loan) error
	SaveInstallments(ctx context.Context, installments []*domain.ScheduledRepayment) error
	CreateReceivedRepayment(ctx context.Context, repayment *domain.ReceivedRepayment) error

	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*domain.Loan, int64, error)
	ListRepayments(ctx context.Context, loanID uint) ([]*domain.ReceivedRepayment, error)
	ListDueInstallments(ctx context.Context, date time.Time) ([]*domain.ScheduledRepayment, error)
}
