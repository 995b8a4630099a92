package domain

import "time"

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// NormalizeDate drops the time-of-day and zone, keeping the calendar date in UTC
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

// AddPeriods moves a date forward by n calendar months. Day overflow rolls
// into the following month (Jan 31 + 1 month = Mar 3 in a common year).
func AddPeriods(t time.Time, n int) time.Time {
	return NormalizeDate(t).AddDate(0, n, 0)
}

// SameDate compares two dates ignoring time-of-day
func SameDate(a, b time.Time) bool {
	return NormalizeDate(a).Equal(NormalizeDate(b))
}

// BuildSchedule splits amount into terms installments due one period apart,
// starting one period after processedAt. The last installment absorbs the
// rounding remainder so the total equals amount exactly.
func BuildSchedule(amount int64, currencyCode string, terms int, processedAt time.Time) ([]ScheduledRepayment, error) {
	if amount <= 0 || terms <= 0 {
		return nil, ErrInvalidSchedule
	}

	base := amount / int64(terms)
	schedule := make([]ScheduledRepayment, 0, terms)
	for term := 1; term <= terms; term++ {
		installment := base
		if term == terms {
			installment = amount - base*int64(terms-1)
		}
		schedule = append(schedule, ScheduledRepayment{
			Amount:            installment,
			CurrencyCode:      currencyCode,
			DueDate:           AddPeriods(processedAt, term),
			Status:            RepaymentStatusDue,
			OutstandingAmount: installment,
		})
	}
	return schedule, nil
}

// NewLoanAggregate originates a loan and its schedule in memory
func NewLoanAggregate(userID uint, amount int64, currencyCode string, terms int, processedAt time.Time) (*LoanAggregate, error) {
	schedule, err := BuildSchedule(amount, currencyCode, terms, processedAt)
	if err != nil {
		return nil, err
	}

	return &LoanAggregate{
		Loan: Loan{
			UserID:            userID,
			Amount:            amount,
			CurrencyCode:      currencyCode,
			Terms:             terms,
			OutstandingAmount: amount,
			Status:            LoanStatusDue,
			ProcessedAt:       NormalizeDate(processedAt),
		},
		Schedule: schedule,
	}, nil
}
