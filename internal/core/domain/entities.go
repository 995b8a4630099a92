package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User represents a borrower or operator in the domain layer
type User struct {
	ID        uint
	Username  string
	Email     string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Loan is the borrowing record. Amounts are minor currency units.
type Loan struct {
	ID                uint
	UserID            uint
	Amount            int64
	CurrencyCode      string
	Terms             int
	OutstandingAmount int64
	Status            LoanStatus
	ProcessedAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ScheduledRepayment is one installment of a loan's amortization schedule
type ScheduledRepayment struct {
	ID                uint
	LoanID            uint
	Amount            int64
	CurrencyCode      string
	DueDate           time.Time
	Status            RepaymentStatus
	OutstandingAmount int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReceivedRepayment is an immutable record of an incoming payment
type ReceivedRepayment struct {
	ID           uint
	Reference    string
	LoanID       uint
	Amount       int64
	CurrencyCode string
	ReceivedAt   time.Time
	CreatedAt    time.Time
}
