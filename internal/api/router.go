package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-service/docs"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Deps carries the wired services the router exposes.
type Deps struct {
	Auth  ports.AuthService
	Users ports.UserService
	Roles ports.RoleService
	Gate  middleware.Authenticator

	// Limiter throttles login and registration; nil disables it.
	Limiter middleware.Limiter
	// Health maps dependency names to readiness checks.
	Health map[string]handler.Pinger
	// Registerer receives the HTTP metrics; nil uses the default registry.
	Registerer prometheus.Registerer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "auth",
		Registerer: d.Registerer,
	}))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users, d.Roles)
	roleHandler := handler.NewRoleHandler(d.Roles)
	healthHandler := handler.NewHealthHandler(d.Health)

	authenticated := middleware.Auth(d.Gate)
	active := middleware.RequireActive()

	// --- Public auth routes ---
	g := e.Group("/auth")
	if d.Limiter != nil {
		g.POST("/login", authHandler.Login, middleware.RateLimit(d.Limiter, "login", d.Log))
		g.POST("/register", authHandler.Register, middleware.RateLimit(d.Limiter, "register", d.Log))
	} else {
		g.POST("/login", authHandler.Login)
		g.POST("/register", authHandler.Register)
	}
	g.POST("/refresh-token", authHandler.RefreshToken)

	// Logout only needs a valid token; deactivated users may still end
	// their session.
	g.POST("/logout", authHandler.Logout, authenticated)

	// --- Users ---
	users := g.Group("/users", authenticated, active)
	users.GET("/me", userHandler.Me)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
	users.POST("/:id/roles", userHandler.AssignRole)

	// --- Roles ---
	roles := g.Group("/roles", authenticated, active)
	roles.GET("", roleHandler.List)
	roles.POST("", roleHandler.Create)
	roles.GET("/:id", roleHandler.Get)
	roles.PUT("/:id", roleHandler.Update)
	roles.DELETE("/:id", roleHandler.Delete)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
