package repositories

import (
	"context"
	"time"

	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/core/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loanRepository implements LoanRepository on gorm
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Transaction runs fn with a repository bound to a single transaction
func (r *loanRepository) Transaction(ctx context.Context, fn func(repo LoanRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&loanRepository{db: tx})
	})
}

// CreateAggregate inserts the loan and its schedule, filling in the generated IDs
func (r *loanRepository) CreateAggregate(ctx context.Context, agg *domain.LoanAggregate) error {
	loan := models.LoanFromDomain(&agg.Loan)
	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		return errors.Wrap(err, "create loan")
	}
	agg.Loan.ID = loan.ID
	agg.Loan.CreatedAt = loan.CreatedAt
	agg.Loan.UpdatedAt = loan.UpdatedAt

	rows := make([]*models.ScheduledRepayment, 0, len(agg.Schedule))
	for i := range agg.Schedule {
		agg.Schedule[i].LoanID = loan.ID
		rows = append(rows, models.ScheduledRepaymentFromDomain(&agg.Schedule[i]))
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return errors.Wrapf(err, "create schedule for loan %d", loan.ID)
	}

	for i, row := range rows {
		agg.Schedule[i].ID = row.ID
		agg.Schedule[i].CreatedAt = row.CreatedAt
		agg.Schedule[i].UpdatedAt = row.UpdatedAt
	}
	return nil
}

// GetAggregate loads a loan and its schedule in creation order
func (r *loanRepository) GetAggregate(ctx context.Context, loanID uint) (*domain.LoanAggregate, error) {
	return r.loadAggregate(ctx, r.db.WithContext(ctx), loanID)
}

// LockAggregate loads a loan with SELECT ... FOR UPDATE. Only meaningful inside Transaction.
func (r *loanRepository) LockAggregate(ctx context.Context, loanID uint) (*domain.LoanAggregate, error) {
	return r.loadAggregate(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), loanID)
}

func (r *loanRepository) loadAggregate(ctx context.Context, db *gorm.DB, loanID uint) (*domain.LoanAggregate, error) {
	var row models.Loan
	if err := db.First(&row, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(domain.ErrNotFound, "loan %d", loanID)
		}
		return nil, errors.Wrapf(err, "load loan %d", loanID)
	}
	loan, err := row.ToDomain()
	if err != nil {
		return nil, err
	}

	var rows []*models.ScheduledRepayment
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "load schedule for loan %d", loanID)
	}

	agg := &domain.LoanAggregate{Loan: *loan, Schedule: make([]domain.ScheduledRepayment, 0, len(rows))}
	for _, s := range rows {
		installment, err := s.ToDomain()
		if err != nil {
			return nil, err
		}
		agg.Schedule = append(agg.Schedule, *installment)
	}
	return agg, nil
}

// SaveLoan writes back the mutable loan columns
func (r *loanRepository) SaveLoan(ctx context.Context, loan *domain.Loan) error {
	err := r.db.WithContext(ctx).Model(&models.Loan{ID: loan.ID}).Updates(map[string]interface{}{
		"outstanding_amount": loan.OutstandingAmount,
		"status":             string(loan.Status),
	}).Error
	return errors.Wrapf(err, "save loan %d", loan.ID)
}

// SaveInstallments writes back the mutable columns of each installment
func (r *loanRepository) SaveInstallments(ctx context.Context, installments []*domain.ScheduledRepayment) error {
	for _, s := range installments {
		err := r.db.WithContext(ctx).Model(&models.ScheduledRepayment{ID: s.ID}).Updates(map[string]interface{}{
			"amount":             s.Amount,
			"due_date":           domain.NormalizeDate(s.DueDate),
			"status":             string(s.Status),
			"outstanding_amount": s.OutstandingAmount,
		}).Error
		if err != nil {
			return errors.Wrapf(err, "save scheduled repayment %d", s.ID)
		}
	}
	return nil
}

// CreateReceivedRepayment appends a ledger row
func (r *loanRepository) CreateReceivedRepayment(ctx context.Context, repayment *domain.ReceivedRepayment) error {
	row := models.ReceivedRepaymentFromDomain(repayment)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return errors.Wrapf(err, "record repayment for loan %d", repayment.LoanID)
	}
	repayment.ID = row.ID
	repayment.CreatedAt = row.CreatedAt
	return nil
}

// ListByUser lists a user's loans, newest first
func (r *loanRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*domain.Loan, int64, error) {
	var rows []*models.Loan
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count loans")
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list loans")
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := row.ToDomain()
		if err != nil {
			return nil, 0, err
		}
		loans = append(loans, loan)
	}
	return loans, total, nil
}

// ListRepayments lists the ledger of a loan in arrival order
func (r *loanRepository) ListRepayments(ctx context.Context, loanID uint) ([]*domain.ReceivedRepayment, error) {
	var rows []*models.ReceivedRepayment
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "list repayments for loan %d", loanID)
	}

	out := make([]*domain.ReceivedRepayment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// ListDueInstallments lists DUE and PARTIAL installments falling on date
func (r *loanRepository) ListDueInstallments(ctx context.Context, date time.Time) ([]*domain.ScheduledRepayment, error) {
	day := domain.NormalizeDate(date)

	var rows []*models.ScheduledRepayment
	err := r.db.WithContext(ctx).
		Where("due_date >= ? AND due_date < ?", day, day.AddDate(0, 0, 1)).
		Where("status IN ?", []string{string(domain.RepaymentStatusDue), string(domain.RepaymentStatusPartial)}).
		Order("loan_id ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list installments due %s", day.Format(domain.DateLayout))
	}

	out := make([]*domain.ScheduledRepayment, 0, len(rows))
	for _, row := range rows {
		installment, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, installment)
	}
	return out, nil
}
