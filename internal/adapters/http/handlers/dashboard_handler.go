package handlers

import (
	"time"

	"loanbook/internal/adapters/http/middleware"
	"loanbook/internal/core/services"
	"loanbook/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	log              *logrus.Logger
	now              func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log,
		now:              time.Now,
	}
}

// GetAdminDashboard returns admin dashboard data
// @Summary Admin Dashboard
// @Description Portfolio totals per currency, loan counts and recent repayments (Admin only)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.AdminDashboardData}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.UserContext(), h.now().UTC())
	if err != nil {
		h.log.WithError(err).Error("failed to build admin dashboard")
		return response.InternalServerError(c, "Failed to get admin dashboard")
	}

	return response.Success(c, "Admin dashboard retrieved successfully", data)
}

// GetBorrowerDashboard returns the caller's loan summary
// @Summary Borrower Dashboard
// @Description Active loans, outstanding balance per currency and the next open installment
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.BorrowerDashboardData}
// @Failure 401 {object} response.Response
// @Router /dashboard/me [get]
func (h *DashboardHandler) GetBorrowerDashboard(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetBorrowerDashboard(c.UserContext(), userID, h.now().UTC())
	if err != nil {
		h.log.WithField("user_id", userID).WithError(err).Error("failed to build borrower dashboard")
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}
