package models

import (
	"time"

	"loanbook/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'CUSTOMER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ============================================================
// Loan Tables
// ============================================================

// Loan represents loans table
type Loan struct {
	ID                uint      `gorm:"primaryKey"`
	UserID            uint      `gorm:"not null;index"`
	Amount            int64     `gorm:"not null"`
	CurrencyCode      string    `gorm:"size:3;not null"`
	Terms             int       `gorm:"not null"`
	OutstandingAmount int64     `gorm:"not null"`
	Status            string    `gorm:"size:10;not null;index"`
	ProcessedAt       time.Time `gorm:"type:date;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	// Relations
	User *User `gorm:"foreignKey:UserID"`
}

func (Loan) TableName() string {
	return "loans"
}

// ScheduledRepayment represents scheduled_repayments table
type ScheduledRepayment struct {
	ID                uint      `gorm:"primaryKey"`
	LoanID            uint      `gorm:"not null;index"`
	Amount            int64     `gorm:"not null"`
	CurrencyCode      string    `gorm:"size:3;not null"`
	DueDate           time.Time `gorm:"type:date;not null;index"`
	Status            string    `gorm:"size:10;not null;index"`
	OutstandingAmount int64     `gorm:"not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	// Relations
	Loan *Loan `gorm:"foreignKey:LoanID"`
}

func (ScheduledRepayment) TableName() string {
	return "scheduled_repayments"
}

// ReceivedRepayment represents received_repayments table. Rows are never updated.
type ReceivedRepayment struct {
	ID           uint      `gorm:"primaryKey"`
	Reference    string    `gorm:"size:36;uniqueIndex;not null"`
	LoanID       uint      `gorm:"not null;index"`
	Amount       int64     `gorm:"not null"`
	CurrencyCode string    `gorm:"size:3;not null"`
	ReceivedAt   time.Time `gorm:"type:date;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	// Relations
	Loan *Loan `gorm:"foreignKey:LoanID"`
}

func (ReceivedRepayment) TableName() string {
	return "received_repayments"
}

// ============================================================
// Domain mapping
// ============================================================

// LoanFromDomain maps a domain loan onto a row
func LoanFromDomain(l *domain.Loan) *Loan {
	return &Loan{
		ID:                l.ID,
		UserID:            l.UserID,
		Amount:            l.Amount,
		CurrencyCode:      l.CurrencyCode,
		Terms:             l.Terms,
		OutstandingAmount: l.OutstandingAmount,
		Status:            string(l.Status),
		ProcessedAt:       domain.NormalizeDate(l.ProcessedAt),
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

// ToDomain maps the row onto a domain loan
func (m *Loan) ToDomain() (*domain.Loan, error) {
	status, err := domain.ParseLoanStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &domain.Loan{
		ID:                m.ID,
		UserID:            m.UserID,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		Terms:             m.Terms,
		OutstandingAmount: m.OutstandingAmount,
		Status:            status,
		ProcessedAt:       domain.NormalizeDate(m.ProcessedAt),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

// ScheduledRepaymentFromDomain maps a domain installment onto a row
func ScheduledRepaymentFromDomain(r *domain.ScheduledRepayment) *ScheduledRepayment {
	return &ScheduledRepayment{
		ID:                r.ID,
		LoanID:            r.LoanID,
		Amount:            r.Amount,
		CurrencyCode:      r.CurrencyCode,
		DueDate:           domain.NormalizeDate(r.DueDate),
		Status:            string(r.Status),
		OutstandingAmount: r.OutstandingAmount,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ToDomain maps the row onto a domain installment
func (m *ScheduledRepayment) ToDomain() (*domain.ScheduledRepayment, error) {
	status, err := domain.ParseRepaymentStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &domain.ScheduledRepayment{
		ID:                m.ID,
		LoanID:            m.LoanID,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		DueDate:           domain.NormalizeDate(m.DueDate),
		Status:            status,
		OutstandingAmount: m.OutstandingAmount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

// ReceivedRepaymentFromDomain maps a domain ledger entry onto a row
func ReceivedRepaymentFromDomain(r *domain.ReceivedRepayment) *ReceivedRepayment {
	return &ReceivedRepayment{
		ID:           r.ID,
		Reference:    r.Reference,
		LoanID:       r.LoanID,
		Amount:       r.Amount,
		CurrencyCode: r.CurrencyCode,
		ReceivedAt:   domain.NormalizeDate(r.ReceivedAt),
		CreatedAt:    r.CreatedAt,
	}
}

// ToDomain maps the row onto a domain ledger entry
func (m *ReceivedRepayment) ToDomain() *domain.ReceivedRepayment {
	return &domain.ReceivedRepayment{
		ID:           m.ID,
		Reference:    m.Reference,
		LoanID:       m.LoanID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		ReceivedAt:   domain.NormalizeDate(m.ReceivedAt),
		CreatedAt:    m.CreatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Loan{},
		&ScheduledRepayment{},
		&ReceivedRepayment{},
	)
}
