package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Loan errors
var (
	ErrInvalidSchedule           = errors.New("amount and terms must be positive")
	ErrEmptySchedule             = errors.New("loan has no scheduled repayments")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrNoCarryForwardInstallment = errors.New("no installment scheduled for carry-forward date")
	ErrUnknownLoanStatus         = errors.New("unknown loan status")
	ErrUnknownRepaymentStatus    = errors.New("unknown repayment status")
)
