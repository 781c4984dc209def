package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/identitylab/account-service/docs"
	"github.com/identitylab/account-service/internal/api/handler"
	"github.com/identitylab/account-service/internal/api/middleware"
	"github.com/identitylab/account-service/internal/core/ports"
	"github.com/identitylab/account-service/internal/core/service"
	mongostore "github.com/identitylab/account-service/internal/infrastructure/db/mongo"
	redisstore "github.com/identitylab/account-service/internal/infrastructure/db/redis"
	"github.com/identitylab/account-service/internal/infrastructure/mail"
	"github.com/identitylab/account-service/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	cfg *config.Config,
	db *mongo.Database,
	rdb *redis.Client,
	idp ports.IdentityProvider,
	audit ports.AuditSink,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	accountRepo := mongostore.NewAccountRepository(db)
	resetStore := redisstore.NewResetTokenStore(rdb)
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	accountService := service.NewAccountService(
		accountRepo, idp, resetStore, mailer, audit,
		cfg.FrontendURL, cfg.Reset.TokenTTL, log,
	)
	profileService := service.NewProfileService(accountRepo, audit, log)
	authenticator := service.NewTokenAuthenticator(idp, accountRepo, log)

	accountHandler := handler.NewAccountHandler(accountService)
	profileHandler := handler.NewProfileHandler(profileService)
	statusHandler := handler.NewStatusHandler(idp)

	// Runs on every request but only acts when a bearer token is present;
	// routes decide whether a principal is required.
	e.Use(middleware.Authenticate(authenticator))
	requireAccount := middleware.RequireAccount()
	requireSuperuser := middleware.RequireSuperuser()

	// --- Account lifecycle ---
	e.POST("/register", accountHandler.Register)
	e.POST("/login", accountHandler.Login)
	e.POST("/logout", accountHandler.Logout, requireAccount)
	e.POST("/forgot-password", accountHandler.ForgotPassword)
	e.POST("/reset-password", accountHandler.ResetPassword)

	// --- Profile ---
	e.GET("/profile", profileHandler.Get, requireAccount)
	e.POST("/toggle-mfa", profileHandler.ToggleMFA, requireAccount)
	e.POST("/update-phone", profileHandler.UpdatePhone, requireAccount)

	// --- Status checks ---
	e.GET("/keycloak-check", statusHandler.KeycloakCheck)
	e.GET("/admin-check", statusHandler.AdminCheck, requireAccount, requireSuperuser)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb, idp)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
