package handlers

import (
	"net/http"
	"testing"
	"time"

	"loanbook/internal/adapters/http/middleware"
	"loanbook/internal/core/services"
	"loanbook/internal/pkg/logger"
	"loanbook/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler(t *testing.T) {
	api := newTestAPI(t)
	customer := tokenFor(t, testdb.CreateUser(t, api.db, "alice", "CUSTOMER"))
	admin := tokenFor(t, testdb.CreateUser(t, api.db, "root", "ADMIN"))
	createLoan(t, api, customer, 999, 3, "2021-01-01")

	h := NewDashboardHandler(services.NewDashboardService(api.db), logger.Discard())
	h.now = func() time.Time { return time.Date(2021, 1, 20, 12, 0, 0, 0, time.UTC) }

	d := api.app.Group("/api/v1/dashboard", middleware.AuthMiddleware(api.cfg))
	d.Get("/me", h.GetBorrowerDashboard)
	d.Get("/admin", middleware.AdminOnly(), h.GetAdminDashboard)

	status, env := doRequest(t, api.app, http.MethodGet, "/api/v1/dashboard/me", customer, nil)
	require.Equal(t, fiber.StatusOK, status)
	var mine services.BorrowerDashboardData
	decodeData(t, env, &mine)
	assert.Equal(t, int64(1), mine.ActiveLoans)
	require.NotNil(t, mine.NextInstallment)
	assert.Equal(t, "2021-02-01", mine.NextInstallment.DueDate)

	status, _ = doRequest(t, api.app, http.MethodGet, "/api/v1/dashboard/admin", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = doRequest(t, api.app, http.MethodGet, "/api/v1/dashboard/admin", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var all services.AdminDashboardData
	decodeData(t, env, &all)
	assert.Equal(t, int64(1), all.TotalLoans)
	assert.Equal(t, int64(1), all.TotalBorrowers)
	require.Len(t, all.Portfolio, 1)
	assert.Equal(t, int64(999), all.Portfolio[0].Outstanding)
}
