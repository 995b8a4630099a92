package routes

import (
	"loanbook/internal/adapters/http/handlers"
	"loanbook/internal/adapters/http/middleware"
	"loanbook/internal/adapters/persistence/repositories"
	"loanbook/internal/config"
	"loanbook/internal/core/services"
	"loanbook/internal/pkg/idempotency"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the shared resources the router wires handlers from
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *logrus.Logger
	// Idempotency is optional; repayments are not deduplicated when nil
	Idempotency *idempotency.Store
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Dependencies) {
	cfg := deps.Config

	// Initialize repositories
	userRepo := repositories.NewUserRepository(deps.DB)
	loanRepo := repositories.NewLoanRepository(deps.DB)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg, deps.Log)
	loanService := services.NewLoanService(loanRepo, deps.Log)
	dashboardService := services.NewDashboardService(deps.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, cfg)
	authHandler := handlers.NewAuthHandler(authService)
	loanHandler := handlers.NewLoanHandler(loanService, deps.Log)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, deps.Log)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	loanRoutes := apiV1.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	loanRoutes.Use(middleware.NoCacheHeaders())
	setupLoanRoutes(loanRoutes, loanHandler, middleware.Idempotency(deps.Idempotency, deps.Log))

	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.NoCacheHeaders())
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)

	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Use(middleware.NoCacheHeaders())
	setupAdminRoutes(adminRoutes, loanHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (5 req/min/IP)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupLoanRoutes configures borrower loan routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler, idempotent fiber.Handler) {
	router.Post("/", handler.CreateLoan)
	router.Get("/", handler.ListLoans)
	router.Get("/:id", handler.GetLoan)
	router.Post("/:id/repayments", idempotent, handler.RepayLoan)
	router.Get("/:id/repayments", handler.ListRepayments)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	router.Get("/me", handler.GetBorrowerDashboard)
	router.Get("/admin", middleware.AdminOnly(), handler.GetAdminDashboard)
}

// setupAdminRoutes configures operator routes (Admin only)
func setupAdminRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Get("/installments/due", handler.DueInstallments)
}
