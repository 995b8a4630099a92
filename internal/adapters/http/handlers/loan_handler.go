package handlers

import (
	"errors"
	"time"

	"loanbook/internal/adapters/http/middleware"
	"loanbook/internal/core/domain"
	"loanbook/internal/core/services"
	"loanbook/internal/pkg/pagination"
	"loanbook/internal/pkg/response"
	"loanbook/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService services.LoanService
	log         *logrus.Logger
	now         func() time.Time
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService services.LoanService, log *logrus.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		log:         log,
		now:         time.Now,
	}
}

// CreateLoan handles loan origination
// @Summary Create loan
// @Description Originate a loan for the caller and build its monthly installment schedule
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateLoanRequest true "Loan data"
// @Success 201 {object} response.Response{data=LoanResponse}
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	var req CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	input := services.CreateLoanInput{
		UserID:       middleware.CurrentUserID(c),
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		Terms:        req.Terms,
	}
	if req.ProcessedAt != "" {
		processedAt, err := domain.ParseDate(req.ProcessedAt)
		if err != nil {
			return response.ValidationError(c, validator.FieldErrors{"processed_at": "datetime=2006-01-02"})
		}
		input.ProcessedAt = processedAt
	}

	agg, err := h.loanService.CreateLoan(c.UserContext(), input)
	if err != nil {
		return h.loanError(c, err, "Failed to create loan")
	}

	return response.Created(c, "Loan created successfully", newAggregateResponse(agg))
}

// ListLoans lists the caller's loans
// @Summary List my loans
// @Description Paginated list of the caller's loans, newest first
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response{data=pagination.Response}
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.ListLoans(c.UserContext(), middleware.CurrentUserID(c), params.Offset, params.Limit)
	if err != nil {
		return h.loanError(c, err, "Failed to list loans")
	}

	items := make([]LoanResponse, len(loans))
	for i, l := range loans {
		items[i] = newLoanResponse(l)
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(items, params, total))
}

// GetLoan returns a loan with its schedule
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response{data=LoanResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	loanID, err := loanIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	agg, err := h.loanService.GetLoan(c.UserContext(), loanID, middleware.CurrentRequester(c))
	if err != nil {
		return h.loanError(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", newAggregateResponse(agg))
}

// RepayLoan records a repayment against a loan
// @Summary Repay loan
// @Description Record an incoming payment and apply it to the installment due on received_at.
// @Description Retries carrying the same Idempotency-Key replay the first response.
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param Idempotency-Key header string false "Client key making the request safe to retry"
// @Param body body RepayLoanRequest true "Payment"
// @Success 201 {object} response.Response{data=RepayLoanResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/repayments [post]
func (h *LoanHandler) RepayLoan(c *fiber.Ctx) error {
	loanID, err := loanIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req RepayLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	receivedAt, err := domain.ParseDate(req.ReceivedAt)
	if err != nil {
		return response.ValidationError(c, validator.FieldErrors{"received_at": "datetime=2006-01-02"})
	}

	result, err := h.loanService.RepayLoan(c.UserContext(), loanID, services.RepayLoanInput{
		Requester:    middleware.CurrentRequester(c),
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		ReceivedAt:   receivedAt,
	})
	if err != nil {
		return h.loanError(c, err, "Failed to record repayment")
	}

	return response.Created(c, "Repayment recorded", newRepayLoanResponse(result))
}

// ListRepayments lists the received repayments of a loan
// @Summary List loan repayments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response{data=[]RepaymentResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/repayments [get]
func (h *LoanHandler) ListRepayments(c *fiber.Ctx) error {
	loanID, err := loanIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	repayments, err := h.loanService.ListRepayments(c.UserContext(), loanID, middleware.CurrentRequester(c))
	if err != nil {
		return h.loanError(c, err, "Failed to list repayments")
	}

	items := make([]RepaymentResponse, len(repayments))
	for i, r := range repayments {
		items[i] = newRepaymentResponse(r)
	}

	return response.Success(c, "Repayments retrieved successfully", items)
}

// DueInstallments lists open installments due on a date
// @Summary Installments due
// @Description Installments in DUE or PARTIAL status due on the given date (default today, UTC)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=[]InstallmentResponse}
// @Failure 403 {object} response.Response
// @Router /admin/installments/due [get]
func (h *LoanHandler) DueInstallments(c *fiber.Ctx) error {
	date := domain.NormalizeDate(h.now().UTC())
	if raw := c.Query("date"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return response.BadRequest(c, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	due, err := h.loanService.ListDueInstallments(c.UserContext(), date)
	if err != nil {
		return h.loanError(c, err, "Failed to list due installments")
	}

	items := make([]InstallmentResponse, len(due))
	for i, r := range due {
		items[i] = newInstallmentResponse(r)
	}

	return response.Success(c, "Due installments retrieved successfully", items)
}

// loanError maps service and domain errors to HTTP responses
func (h *LoanHandler) loanError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, services.ErrLoanForbidden):
		return response.Forbidden(c, "You don't have access to this loan")
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.Conflict(c, "Loan is already repaid")
	case errors.Is(err, domain.ErrNoCarryForwardInstallment):
		return response.UnprocessableEntity(c, "Overpayment on the final installment cannot be carried forward")
	case errors.Is(err, services.ErrCurrencyMismatch):
		return response.UnprocessableEntity(c, "Currency does not match the loan currency")
	case errors.Is(err, domain.ErrInvalidSchedule), errors.Is(err, domain.ErrInvalidInput):
		return response.UnprocessableEntity(c, err.Error())
	default:
		h.log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error(fallback)
		return response.InternalServerError(c, fallback)
	}
}

func loanIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	var fields validator.FieldErrors
	if errors.As(err, &fields) {
		return response.ValidationError(c, fields)
	}
	return response.BadRequest(c, "Invalid request body")
}
