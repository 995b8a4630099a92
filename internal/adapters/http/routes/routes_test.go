package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"loanbook/internal/adapters/http/middleware"
	"loanbook/internal/config"
	"loanbook/internal/pkg/idempotency"
	"loanbook/internal/pkg/jwt"
	"loanbook/internal/pkg/logger"
	"loanbook/internal/pkg/testdb"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	db := testdb.New(t)
	cfg := &config.Config{AppMode: "dev", JWT: config.JWTConfig{Secret: "routes-secret", AccessTokenMins: 5}}
	log := logger.Discard()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(log)})
	middleware.Setup(app, cfg, log)
	Setup(app, Dependencies{
		DB:          db,
		Config:      cfg,
		Log:         log,
		Idempotency: idempotency.NewStore(client, time.Hour, time.Minute),
	})

	user := testdb.CreateUser(t, db, "alice", "CUSTOMER")
	token, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Role, cfg.JWT.Secret, time.Minute)
	require.NoError(t, err)
	return app, token
}

func call(t *testing.T, app *fiber.App, method, path, token, key string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]json.RawMessage{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestRoutes_RepaymentIsIdempotent(t *testing.T) {
	app, token := newApp(t)

	resp, body := call(t, app, http.MethodPost, "/api/v1/loans", token, "", map[string]interface{}{
		"amount": 999, "currency_code": "VND", "terms": 3, "processed_at": "2021-01-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var loan struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &loan))
	base := "/api/v1/loans/" + strconv.FormatUint(uint64(loan.ID), 10)

	payment := map[string]interface{}{"amount": 333, "currency_code": "VND", "received_at": "2021-02-01"}
	first, firstBody := call(t, app, http.MethodPost, base+"/repayments", token, "pay-1", payment)
	require.Equal(t, fiber.StatusCreated, first.StatusCode)

	retry, retryBody := call(t, app, http.MethodPost, base+"/repayments", token, "pay-1", payment)
	assert.Equal(t, fiber.StatusCreated, retry.StatusCode)
	assert.Equal(t, "true", retry.Header.Get(middleware.HeaderIdempotentReplayed))
	assert.JSONEq(t, string(firstBody["data"]), string(retryBody["data"]))

	_, ledger := call(t, app, http.MethodGet, base+"/repayments", token, "", nil)
	var rows []json.RawMessage
	require.NoError(t, json.Unmarshal(ledger["data"], &rows))
	assert.Len(t, rows, 1)

	resp, _ = call(t, app, http.MethodGet, base, token, "", nil)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get(fiber.HeaderCacheControl))
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	app, token := newApp(t)

	resp, _ := call(t, app, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/v1/loans", "", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/v1/loans", token, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/v1/admin/installments/due", token, "", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/v1/dashboard/me", token, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/v1/dashboard/admin", token, "", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/api/v1/nope", token, "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "false", string(body["success"]))
}
