package services

import (
	"context"
	"strings"
	"time"

	"loanbook/internal/adapters/persistence/repositories"
	"loanbook/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Loan errors
var (
	ErrLoanNotFound     = errors.New("loan not found")
	ErrLoanForbidden    = errors.New("loan belongs to another user")
	ErrCurrencyMismatch = errors.New("repayment currency does not match loan currency")
)

// loanService implements LoanService
type loanService struct {
	loans repositories.LoanRepository
	log   *logrus.Logger
	now   func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(loans repositories.LoanRepository, log *logrus.Logger) LoanService {
	return &loanService{
		loans: loans,
		log:   log,
		now:   time.Now,
	}
}

// CreateLoan builds the schedule and stores loan and installments in one transaction
func (s *loanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.LoanAggregate, error) {
	processedAt := input.ProcessedAt
	if processedAt.IsZero() {
		processedAt = s.now().UTC()
	}

	agg, err := domain.NewLoanAggregate(
		input.UserID,
		input.Amount,
		strings.ToUpper(input.CurrencyCode),
		input.Terms,
		processedAt,
	)
	if err != nil {
		return nil, err
	}

	err = s.loans.Transaction(ctx, func(repo repositories.LoanRepository) error {
		return repo.CreateAggregate(ctx, agg)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":  agg.Loan.ID,
		"user_id":  agg.Loan.UserID,
		"amount":   agg.Loan.Amount,
		"currency": agg.Loan.CurrencyCode,
		"terms":    agg.Loan.Terms,
	}).Info("loan created")

	return agg, nil
}

// RepayLoan records a payment and applies it to the schedule. Everything runs
// under a row lock on the loan and is rolled back on any error.
func (s *loanService) RepayLoan(ctx context.Context, loanID uint, input RepayLoanInput) (*RepaymentResult, error) {
	if input.Amount <= 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "amount must be positive")
	}
	receivedAt := domain.NormalizeDate(input.ReceivedAt)
	currency := strings.ToUpper(input.CurrencyCode)

	var result *RepaymentResult
	err := s.loans.Transaction(ctx, func(repo repositories.LoanRepository) error {
		agg, err := repo.LockAggregate(ctx, loanID)
		if err != nil {
			return s.mapLoadError(err)
		}
		if !input.Requester.CanAccess(&agg.Loan) {
			return ErrLoanForbidden
		}
		if currency != agg.Loan.CurrencyCode {
			return ErrCurrencyMismatch
		}

		repayment := &domain.ReceivedRepayment{
			Reference:    uuid.NewString(),
			LoanID:       agg.Loan.ID,
			Amount:       input.Amount,
			CurrencyCode: currency,
			ReceivedAt:   receivedAt,
		}
		if err := repo.CreateReceivedRepayment(ctx, repayment); err != nil {
			return err
		}

		outcome, err := agg.ApplyRepayment(input.Amount, receivedAt)
		if err != nil {
			return err
		}

		if touched := agg.TouchedInstallments(); len(touched) > 0 {
			if err := repo.SaveInstallments(ctx, touched); err != nil {
				return err
			}
		}
		if err := repo.SaveLoan(ctx, &agg.Loan); err != nil {
			return err
		}

		result = &RepaymentResult{Repayment: repayment, Loan: agg, Outcome: outcome}
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"loan_id": loanID,
			"amount":  input.Amount,
		}).WithError(err).Warn("repayment rejected")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":     loanID,
		"reference":   result.Repayment.Reference,
		"amount":      input.Amount,
		"received_at": receivedAt.Format(domain.DateLayout),
		"outcome":     result.Outcome,
		"outstanding": result.Loan.Loan.OutstandingAmount,
		"loan_status": result.Loan.Loan.Status,
	}).Info("repayment applied")

	return result, nil
}

// GetLoan returns a loan with its schedule
func (s *loanService) GetLoan(ctx context.Context, loanID uint, requester Requester) (*domain.LoanAggregate, error) {
	agg, err := s.loans.GetAggregate(ctx, loanID)
	if err != nil {
		return nil, s.mapLoadError(err)
	}
	if !requester.CanAccess(&agg.Loan) {
		return nil, ErrLoanForbidden
	}
	return agg, nil
}

// ListLoans lists the loans of a user, newest first
func (s *loanService) ListLoans(ctx context.Context, userID uint, offset, limit int) ([]*domain.Loan, int64, error) {
	return s.loans.ListByUser(ctx, userID, offset, limit)
}

// ListRepayments lists the received repayments of a loan
func (s *loanService) ListRepayments(ctx context.Context, loanID uint, requester Requester) ([]*domain.ReceivedRepayment, error) {
	if _, err := s.GetLoan(ctx, loanID, requester); err != nil {
		return nil, err
	}
	return s.loans.ListRepayments(ctx, loanID)
}

// ListDueInstallments lists open installments due on date
func (s *loanService) ListDueInstallments(ctx context.Context, date time.Time) ([]*domain.ScheduledRepayment, error) {
	return s.loans.ListDueInstallments(ctx, date)
}

func (s *loanService) mapLoadError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrLoanNotFound
	}
	return err
}
