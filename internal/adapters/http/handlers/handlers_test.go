package handlers

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
	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/adapters/persistence/repositories"
	"loanbook/internal/config"
	"loanbook/internal/core/services"
	"loanbook/internal/pkg/jwt"
	"loanbook/internal/pkg/logger"
	"loanbook/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type apiEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

type testAPI struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func testConfig() *config.Config {
	return &config.Config{AppMode: "dev", JWT: config.JWTConfig{Secret: testSecret, AccessTokenMins: 5}}
}

// registerTestRoutes mounts handlers the way the router does, minus the global middleware
func registerTestRoutes(app *fiber.App, cfg *config.Config, auth *AuthHandler, loans *LoanHandler) {
	api := app.Group("/api/v1")
	api.Post("/auth/register", auth.Register)
	api.Post("/auth/login", auth.Login)
	api.Get("/auth/me", middleware.AuthMiddleware(cfg), auth.Me)

	l := api.Group("/loans", middleware.AuthMiddleware(cfg))
	l.Post("/", loans.CreateLoan)
	l.Get("/", loans.ListLoans)
	l.Get("/:id", loans.GetLoan)
	l.Post("/:id/repayments", loans.RepayLoan)
	l.Get("/:id/repayments", loans.ListRepayments)

	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	admin.Get("/installments/due", loans.DueInstallments)
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testdb.New(t)
	cfg := testConfig()
	log := logger.Discard()

	loanSvc := services.NewLoanService(repositories.NewLoanRepository(db), log)
	authSvc := services.NewAuthService(repositories.NewUserRepository(db), cfg, log)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.NewErrorHandler(log)})
	registerTestRoutes(app, cfg, NewAuthHandler(authSvc), NewLoanHandler(loanSvc, log))

	return &testAPI{app: app, db: db, cfg: cfg}
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Role, testSecret, time.Minute)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env apiEnvelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env apiEnvelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
