package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to RepaymentStatus
		allowed  bool
	}{
		{RepaymentStatusDue, RepaymentStatusPartial, true},
		{RepaymentStatusDue, RepaymentStatusRepaid, true},
		{RepaymentStatusPartial, RepaymentStatusRepaid, true},
		{RepaymentStatusRepaid, RepaymentStatusRepaid, true},
		{RepaymentStatusRepaid, RepaymentStatusDue, false},
		{RepaymentStatusRepaid, RepaymentStatusPartial, false},
		{RepaymentStatusPartial, RepaymentStatusDue, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))

			r := &ScheduledRepayment{Status: tt.from}
			err := r.TransitionTo(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, r.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, r.Status)
			}
		})
	}
}

func TestLoanStatusTransitions(t *testing.T) {
	assert.True(t, LoanStatusDue.CanTransitionTo(LoanStatusRepaid))
	assert.True(t, LoanStatusDue.CanTransitionTo(LoanStatusDue))
	assert.True(t, LoanStatusRepaid.CanTransitionTo(LoanStatusRepaid))
	assert.False(t, LoanStatusRepaid.CanTransitionTo(LoanStatusDue))

	loan := &Loan{ID: 3, Status: LoanStatusRepaid}
	assert.ErrorIs(t, loan.TransitionTo(LoanStatusDue), ErrInvalidTransition)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseLoanStatus("REPAID")
	require.NoError(t, err)
	assert.Equal(t, LoanStatusRepaid, s)

	_, err = ParseLoanStatus("PARTIAL")
	assert.ErrorIs(t, err, ErrUnknownLoanStatus)

	r, err := ParseRepaymentStatus("PARTIAL")
	require.NoError(t, err)
	assert.Equal(t, RepaymentStatusPartial, r)

	_, err = ParseRepaymentStatus("late")
	assert.ErrorIs(t, err, ErrUnknownRepaymentStatus)
}
