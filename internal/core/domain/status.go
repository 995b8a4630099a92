package domain

import "fmt"

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusDue    LoanStatus = "DUE"
	LoanStatusRepaid LoanStatus = "REPAID"
)

// RepaymentStatus is the lifecycle state of a scheduled repayment
type RepaymentStatus string

const (
	RepaymentStatusDue     RepaymentStatus = "DUE"
	RepaymentStatusPartial RepaymentStatus = "PARTIAL"
	RepaymentStatusRepaid  RepaymentStatus = "REPAID"
)

// loanTransitions lists every allowed move, self-loops included.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusDue:    {LoanStatusDue, LoanStatusRepaid},
	LoanStatusRepaid: {LoanStatusRepaid},
}

var repaymentTransitions = map[RepaymentStatus][]RepaymentStatus{
	RepaymentStatusDue:     {RepaymentStatusDue, RepaymentStatusPartial, RepaymentStatusRepaid},
	RepaymentStatusPartial: {RepaymentStatusPartial, RepaymentStatusRepaid},
	RepaymentStatusRepaid:  {RepaymentStatusRepaid},
}

// ParseLoanStatus converts a stored value into a LoanStatus
func ParseLoanStatus(s string) (LoanStatus, error) {
	status := LoanStatus(s)
	if _, ok := loanTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLoanStatus, s)
	}
	return status, nil
}

// ParseRepaymentStatus converts a stored value into a RepaymentStatus
func ParseRepaymentStatus(s string) (RepaymentStatus, error) {
	status := RepaymentStatus(s)
	if _, ok := repaymentTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRepaymentStatus, s)
	}
	return status, nil
}

// CanTransitionTo reports whether the loan may move to next
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the installment may move to next
func (s RepaymentStatus) CanTransitionTo(next RepaymentStatus) bool {
	for _, allowed := range repaymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the loan to next or returns ErrInvalidTransition
func (l *Loan) TransitionTo(next LoanStatus) error {
	if !l.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: loan %d %s -> %s", ErrInvalidTransition, l.ID, l.Status, next)
	}
	l.Status = next
	return nil
}

// TransitionTo moves the installment to next or returns ErrInvalidTransition
func (r *ScheduledRepayment) TransitionTo(next RepaymentStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: scheduled repayment %d %s -> %s", ErrInvalidTransition, r.ID, r.Status, next)
	}
	r.Status = next
	return nil
}

// settle marks the installment fully paid
func (r *ScheduledRepayment) settle() error {
	if err := r.TransitionTo(RepaymentStatusRepaid); err != nil {
		return err
	}
	r.OutstandingAmount = 0
	return nil
}

// IsOpen reports whether something is still owed on the installment
func (r ScheduledRepayment) IsOpen() bool {
	return r.Status != RepaymentStatusRepaid
}
