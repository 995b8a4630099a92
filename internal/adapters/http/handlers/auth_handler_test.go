package handlers

import (
	"net/http"
	"testing"

	"loanbook/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_RegisterLoginMe(t *testing.T) {
	api := newTestAPI(t)

	status, env := doRequest(t, api.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var registered services.AuthResponse
	decodeData(t, env, &registered)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "CUSTOMER", registered.User.Role)

	status, _ = doRequest(t, api.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = doRequest(t, api.app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	var login services.AuthResponse
	decodeData(t, env, &login)

	status, _ = doRequest(t, api.app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "not-the-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = doRequest(t, api.app, http.MethodGet, "/api/v1/auth/me", login.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"username":"alice"`)

	// a registered borrower can originate a loan straight away
	status, _ = doRequest(t, api.app, http.MethodPost, "/api/v1/loans", registered.AccessToken, CreateLoanRequest{
		Amount: 500, CurrencyCode: "SGD", Terms: 5,
	})
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	status, env := doRequest(t, api.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "al", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "min=3", env.Details["username"])
	assert.Equal(t, "email", env.Details["email"])
	assert.Equal(t, "min=8", env.Details["password"])

	status, _ = doRequest(t, api.app, http.MethodPost, "/api/v1/auth/login", "", "[]")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
