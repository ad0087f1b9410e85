package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/craftlink/identity-service/internal/api/handler"
	"github.com/craftlink/identity-service/internal/api/middleware"
	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

// Services bundles the core services the router wires to handlers.
type Services struct {
	Verification ports.VerificationService
	Sessions     ports.SessionService
	Resets       ports.PasswordResetService
	OAuth        ports.OAuthService
	Admin        ports.AdminService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, db *mongo.Database, rdb *redis.Client, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Verification, svc.Sessions, svc.Resets)
	artisanHandler := handler.NewArtisanHandler(svc.Verification)
	oauthHandler := handler.NewOAuthHandler(svc.OAuth)
	adminHandler := handler.NewAdminHandler(svc.Admin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify", authHandler.Verify)
	auth.POST("/resend-code", authHandler.ResendCode)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/oauth/callback", oauthHandler.Callback)

	// --- Artisan routes ---
	e.POST("/artisan/register", artisanHandler.Register)

	// --- Admin routes (JWT + ADMIN role) ---
	admin := e.Group("/admin", middleware.Auth(jwtSecret), middleware.RBAC(string(domain.RoleAdmin)))
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users/:id/suspend", adminHandler.Suspend)
	admin.POST("/users/:id/activate", adminHandler.Activate)
	admin.POST("/users/:id/ban", adminHandler.Ban)
	admin.POST("/artisans/:id/review", adminHandler.ReviewArtisan)

	// --- Observability & health ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	return e
}
