package services

import (
	"context"
	"time"

	"loanbook/internal/adapters/persistence/repositories"
	"loanbook/internal/core/domain"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// reminderRunTimeout bounds a single scheduled run
const reminderRunTimeout = 5 * time.Minute

// ReminderService notifies borrowers about installments falling due today
type ReminderService struct {
	loans    repositories.LoanRepository
	users    repositories.UserRepository
	notifier Notifier
	log      *logrus.Logger
	cron     *cron.Cron
}

// NewReminderService creates a new reminder service
func NewReminderService(
	loans repositories.LoanRepository,
	users repositories.UserRepository,
	notifier Notifier,
	log *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		loans:    loans,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// Start schedules RunOnce with a standard five-field cron spec, evaluated in UTC
func (s *ReminderService) Start(spec string) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return errors.Wrapf(err, "invalid reminder schedule %q", spec)
	}
	s.cron = c
	c.Start()

	s.log.WithField("schedule", spec).Info("reminder service started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *ReminderService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("reminder service stopped")
}

func (s *ReminderService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderRunTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx, time.Now().UTC()); err != nil {
		s.log.WithError(err).Error("reminder run failed")
	}
}

// RunOnce sends one reminder per open installment due on date and returns how
// many were delivered. A failed delivery is logged and does not stop the run.
func (s *ReminderService) RunOnce(ctx context.Context, date time.Time) (int, error) {
	due, err := s.loans.ListDueInstallments(ctx, date)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	owners, err := s.loanOwners(ctx, due)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, installment := range due {
		owner, ok := owners[installment.LoanID]
		if !ok {
			s.log.WithField("loan_id", installment.LoanID).Warn("no borrower found for loan, skipping reminder")
			continue
		}

		reminder := Reminder{
			Username:      owner.Username,
			Email:         owner.Email,
			LoanID:        installment.LoanID,
			InstallmentID: installment.ID,
			Amount:        installment.Amount,
			Outstanding:   installment.OutstandingAmount,
			CurrencyCode:  installment.CurrencyCode,
			DueDate:       installment.DueDate,
			Status:        installment.Status,
		}
		if err := s.notifier.NotifyInstallmentDue(ctx, reminder); err != nil {
			s.log.WithFields(logrus.Fields{
				"loan_id":        installment.LoanID,
				"installment_id": installment.ID,
			}).WithError(err).Warn("reminder not delivered")
			continue
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{
		"date": domain.NormalizeDate(date).Format(domain.DateLayout),
		"due":  len(due),
		"sent": sent,
	}).Info("reminder run finished")

	return sent, nil
}

type borrower struct {
	Username string
	Email    string
}

// loanOwners resolves the borrower of every loan referenced by installments
func (s *ReminderService) loanOwners(ctx context.Context, installments []*domain.ScheduledRepayment) (map[uint]borrower, error) {
	userByLoan := make(map[uint]uint)
	for _, installment := range installments {
		if _, ok := userByLoan[installment.LoanID]; ok {
			continue
		}
		agg, err := s.loans.GetAggregate(ctx, installment.LoanID)
		if err != nil {
			return nil, err
		}
		userByLoan[installment.LoanID] = agg.Loan.UserID
	}

	ids := make([]uint, 0, len(userByLoan))
	seen := make(map[uint]struct{})
	for _, userID := range userByLoan {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		ids = append(ids, userID)
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]borrower, len(users))
	for _, u := range users {
		byID[u.ID] = borrower{Username: u.Username, Email: u.Email}
	}

	owners := make(map[uint]borrower, len(userByLoan))
	for loanID, userID := range userByLoan {
		if b, ok := byID[userID]; ok {
			owners[loanID] = b
		}
	}
	return owners, nil
}
