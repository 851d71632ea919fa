package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/user-admin/docs"
	"github.com/99minutos/user-admin/internal/api/handler"
	"github.com/99minutos/user-admin/internal/api/middleware"
	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
	"github.com/99minutos/user-admin/internal/infrastructure/http/handlers"
)

// Dependencies bundles everything the HTTP layer needs.
type Dependencies struct {
	Users     ports.UserService
	Roles     ports.RoleService
	Auth      ports.AuthService
	Redirects handler.RedirectDecider
	// Audit may be nil when the audit trail is disabled.
	Audit ports.AuditReader
	// Readiness may be nil; /health/ready is then not registered.
	Readiness *handlers.HealthDependenciesHandler

	// Registry receives the HTTP metrics; nil selects the default registry.
	Registry *prometheus.Registry

	Log           zerolog.Logger
	SecureCookies bool
	// Quiet disables the request logger, used by tests.
	Quiet bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if !deps.Quiet {
		e.Use(requestLogger(deps.Log))
	}
	promConfig := echoprometheus.MiddlewareConfig{Namespace: "useradmin"}
	promHandler := echoprometheus.HandlerConfig{}
	if deps.Registry != nil {
		promConfig.Registerer = deps.Registry
		promHandler.Gatherer = deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Users, deps.Redirects, deps.SecureCookies)
	userHandler := handler.NewUserHandler(deps.Users, deps.Roles, deps.Audit)
	authMiddleware := middleware.Auth(deps.Auth)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)
	e.GET("/user", authHandler.Me, authMiddleware)

	// --- Admin routes ---
	admin := e.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.GET("/users/:id/events", userHandler.Events)
	admin.GET("/roles", userHandler.Roles)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness)
	}

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(promHandler))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
