package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/opsdesk/dashboard/docs"
	"github.com/opsdesk/dashboard/internal/api/handler"
	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/domain"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// Deps carries everything the router wires into routes.
type Deps struct {
	Logger    zerolog.Logger
	Cookie    middleware.CookieConfig
	States    ports.AuthStates
	Tokens    middleware.TokenSource
	GateWait  time.Duration
	Accounts  ports.AccountService
	Dashboard ports.DashboardService
	Approvals ports.ApprovalService
	Badge     ports.PendingBadge
	Checks    []handler.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("dashboard_http"))
	e.Use(middleware.Session(d.Cookie))

	// --- Auth routes ---
	accounts := handler.NewAccountHandler(d.Accounts, d.Cookie)
	auth := e.Group("/auth")
	auth.POST("/signup", accounts.SignUp)
	auth.POST("/signin", accounts.SignIn)
	auth.POST("/signout", accounts.SignOut)
	auth.POST("/refresh", accounts.Refresh)

	// --- Gated API ---
	dashboard := handler.NewDashboardHandler(d.Dashboard)
	approvals := handler.NewApprovalHandler(d.Approvals, d.Badge, d.Logger)

	apiGroup := e.Group("/api", middleware.Gate(d.States, d.Tokens, d.GateWait, d.Logger))
	apiGroup.GET("/me", dashboard.Me)

	anyRole := middleware.RequireAuthorized()
	adminOnly := middleware.RequireAuthorized(domain.RoleAdmin)

	apiGroup.GET("/dashboard", dashboard.View, anyRole)
	apiGroup.GET("/tasks", dashboard.ListTasks, anyRole)
	apiGroup.POST("/tasks", dashboard.CreateTask, adminOnly)
	apiGroup.PATCH("/tasks/:id/status", dashboard.UpdateTaskStatus, anyRole)
	apiGroup.GET("/logs", dashboard.ListLogs, anyRole)

	admin := apiGroup.Group("/admin", adminOnly)
	admin.GET("/candidates", approvals.ListCandidates)
	admin.POST("/candidates/:id/decision", approvals.Decide)
	admin.GET("/pending-count", approvals.PendingCount)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks...).Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
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
