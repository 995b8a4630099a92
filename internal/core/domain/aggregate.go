package domain

import (
	"fmt"
	"sort"
	"time"
)

// RepaymentOutcome describes which rule a repayment triggered
type RepaymentOutcome string

const (
	OutcomeUnmatched    RepaymentOutcome = "UNMATCHED"
	OutcomeLoanClosed   RepaymentOutcome = "LOAN_CLOSED"
	OutcomeExact        RepaymentOutcome = "EXACT"
	OutcomeCarryForward RepaymentOutcome = "CARRY_FORWARD"
	OutcomeUnderpaid    RepaymentOutcome = "UNDERPAID"
)

// LoanAggregate is a loan together with its schedule in creation order.
// It is the unit that the repository locks, loads and writes back.
type LoanAggregate struct {
	Loan     Loan
	Schedule []ScheduledRepayment

	touched map[int]struct{}
}

// TouchedInstallments returns the installments modified since load, in schedule order
func (a *LoanAggregate) TouchedInstallments() []*ScheduledRepayment {
	idx := make([]int, 0, len(a.touched))
	for i := range a.touched {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]*ScheduledRepayment, 0, len(idx))
	for _, i := range idx {
		out = append(out, &a.Schedule[i])
	}
	return out
}

// Installment returns the installment due on date, or nil
func (a *LoanAggregate) Installment(date time.Time) *ScheduledRepayment {
	if i := a.indexByDueDate(date); i >= 0 {
		return &a.Schedule[i]
	}
	return nil
}

func (a *LoanAggregate) touch(i int) {
	if a.touched == nil {
		a.touched = make(map[int]struct{})
	}
	a.touched[i] = struct{}{}
}

func (a *LoanAggregate) indexByDueDate(date time.Time) int {
	for i := range a.Schedule {
		if SameDate(a.Schedule[i].DueDate, date) {
			return i
		}
	}
	return -1
}

// ApplyRepayment runs the repayment rules against the aggregate in memory.
// On error the aggregate is partially modified and must be discarded.
func (a *LoanAggregate) ApplyRepayment(amount int64, receivedAt time.Time) (RepaymentOutcome, error) {
	if len(a.Schedule) == 0 {
		return "", ErrEmptySchedule
	}

	a.reactivateIfInconsistent()

	idx := a.indexByDueDate(receivedAt)
	if idx < 0 {
		return OutcomeUnmatched, nil
	}

	matched := &a.Schedule[idx]
	last := &a.Schedule[len(a.Schedule)-1]

	switch {
	case SameDate(matched.DueDate, last.DueDate):
		return OutcomeLoanClosed, a.close()
	case matched.Amount == amount:
		return OutcomeExact, a.payExact(idx, amount)
	case matched.Amount < amount:
		return OutcomeCarryForward, a.carryForward(idx, amount, receivedAt)
	default:
		return OutcomeUnderpaid, nil
	}
}

// reactivateIfInconsistent restores balances of a loan left with nothing
// outstanding while still DUE.
func (a *LoanAggregate) reactivateIfInconsistent() bool {
	if a.Loan.OutstandingAmount != 0 || a.Loan.Status != LoanStatusDue {
		return false
	}

	a.Loan.OutstandingAmount = a.Loan.Amount
	for i := range a.Schedule {
		a.Schedule[i].OutstandingAmount = a.Schedule[i].Amount
		a.touch(i)
	}
	return true
}

// close settles the whole schedule regardless of the amount paid. The last
// installment takes the first installment's due date; stored data relies on it.
func (a *LoanAggregate) close() error {
	for i := range a.Schedule {
		if err := a.Schedule[i].settle(); err != nil {
			return err
		}
		a.touch(i)
	}

	a.Schedule[len(a.Schedule)-1].DueDate = a.Schedule[0].DueDate

	if err := a.Loan.TransitionTo(LoanStatusRepaid); err != nil {
		return err
	}
	a.Loan.OutstandingAmount = 0
	return nil
}

func (a *LoanAggregate) payExact(idx int, amount int64) error {
	if err := a.Schedule[idx].settle(); err != nil {
		return err
	}
	a.touch(idx)
	return a.debit(amount)
}

func (a *LoanAggregate) carryForward(idx int, amount int64, receivedAt time.Time) error {
	matched := &a.Schedule[idx]
	matched.Amount++
	if err := matched.settle(); err != nil {
		return err
	}
	a.touch(idx)

	surplus := amount - matched.Amount
	nextDue := AddPeriods(receivedAt, 1)
	nextIdx := a.indexByDueDate(nextDue)
	if nextIdx < 0 {
		return fmt.Errorf("%w: loan %d, %s", ErrNoCarryForwardInstallment, a.Loan.ID, nextDue.Format(DateLayout))
	}

	next := &a.Schedule[nextIdx]
	if err := next.TransitionTo(RepaymentStatusPartial); err != nil {
		return err
	}
	next.Amount = matched.Amount
	next.OutstandingAmount = surplus
	a.touch(nextIdx)

	return a.debit(amount)
}

// debit lowers the loan balance and closes the loan when it reaches zero
func (a *LoanAggregate) debit(amount int64) error {
	outstanding := a.Loan.OutstandingAmount - amount
	next := LoanStatusDue
	if outstanding == 0 {
		next = LoanStatusRepaid
	}
	if err := a.Loan.TransitionTo(next); err != nil {
		return err
	}
	a.Loan.OutstandingAmount = outstanding
	return nil
}
