package handlers

import (
	"time"

	"loanbook/internal/core/domain"
	"loanbook/internal/core/services"
)

// CreateLoanRequest represents the loan origination body
type CreateLoanRequest struct {
	Amount       int64  `json:"amount" validate:"gt=0"`
	CurrencyCode string `json:"currency_code" validate:"required,len=3,alpha"`
	Terms        int    `json:"terms" validate:"gt=0,lte=600"`
	ProcessedAt  string `json:"processed_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// RepayLoanRequest represents an incoming payment
type RepayLoanRequest struct {
	Amount       int64  `json:"amount" validate:"gt=0"`
	CurrencyCode string `json:"currency_code" validate:"required,len=3,alpha"`
	ReceivedAt   string `json:"received_at" validate:"required,datetime=2006-01-02"`
}

// InstallmentResponse is one scheduled repayment
type InstallmentResponse struct {
	ID                uint   `json:"id"`
	LoanID            uint   `json:"loan_id"`
	Amount            int64  `json:"amount"`
	CurrencyCode      string `json:"currency_code"`
	DueDate           string `json:"due_date"`
	Status            string `json:"status"`
	OutstandingAmount int64  `json:"outstanding_amount"`
}

// LoanResponse is a loan, with its schedule when it was loaded
type LoanResponse struct {
	ID                uint                  `json:"id"`
	UserID            uint                  `json:"user_id"`
	Amount            int64                 `json:"amount"`
	CurrencyCode      string                `json:"currency_code"`
	Terms             int                   `json:"terms"`
	OutstandingAmount int64                 `json:"outstanding_amount"`
	Status            string                `json:"status"`
	ProcessedAt       string                `json:"processed_at"`
	CreatedAt         time.Time             `json:"created_at"`
	Schedule          []InstallmentResponse `json:"schedule,omitempty"`
}

// RepaymentResponse is a received repayment ledger row
type RepaymentResponse struct {
	ID           uint   `json:"id"`
	Reference    string `json:"reference"`
	LoanID       uint   `json:"loan_id"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	ReceivedAt   string `json:"received_at"`
}

// RepayLoanResponse is the ledger row plus the loan after the payment
type RepayLoanResponse struct {
	Repayment RepaymentResponse `json:"repayment"`
	Outcome   string            `json:"outcome"`
	Loan      LoanResponse      `json:"loan"`
}

func newInstallmentResponse(r *domain.ScheduledRepayment) InstallmentResponse {
	return InstallmentResponse{
		ID:                r.ID,
		LoanID:            r.LoanID,
		Amount:            r.Amount,
		CurrencyCode:      r.CurrencyCode,
		DueDate:           r.DueDate.Format(domain.DateLayout),
		Status:            string(r.Status),
		OutstandingAmount: r.OutstandingAmount,
	}
}

func newLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:                l.ID,
		UserID:            l.UserID,
		Amount:            l.Amount,
		CurrencyCode:      l.CurrencyCode,
		Terms:             l.Terms,
		OutstandingAmount: l.OutstandingAmount,
		Status:            string(l.Status),
		ProcessedAt:       l.ProcessedAt.Format(domain.DateLayout),
		CreatedAt:         l.CreatedAt,
	}
}

func newAggregateResponse(agg *domain.LoanAggregate) LoanResponse {
	resp := newLoanResponse(&agg.Loan)
	resp.Schedule = make([]InstallmentResponse, len(agg.Schedule))
	for i := range agg.Schedule {
		resp.Schedule[i] = newInstallmentResponse(&agg.Schedule[i])
	}
	return resp
}

func newRepaymentResponse(r *domain.ReceivedRepayment) RepaymentResponse {
	return RepaymentResponse{
		ID:           r.ID,
		Reference:    r.Reference,
		LoanID:       r.LoanID,
		Amount:       r.Amount,
		CurrencyCode: r.CurrencyCode,
		ReceivedAt:   r.ReceivedAt.Format(domain.DateLayout),
	}
}

func newRepayLoanResponse(result *services.RepaymentResult) RepayLoanResponse {
	return RepayLoanResponse{
		Repayment: newRepaymentResponse(result.Repayment),
		Outcome:   string(result.Outcome),
		Loan:      newAggregateResponse(result.Loan),
	}
}
