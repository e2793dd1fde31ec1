package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/belgrade-mama-market/internal/handler"
	"github.com/iliyamo/belgrade-mama-market/internal/metrics"
	"github.com/iliyamo/belgrade-mama-market/internal/middleware"
	"github.com/iliyamo/belgrade-mama-market/internal/storage"
)

// RegisterRoutes registers the unauthenticated service endpoints.  When
// uploadDir is set the local photo store is served under /uploads.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics, uploadDir string) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	if uploadDir != "" {
		e.Static(storage.URLPrefix, uploadDir)
	}
}

// RegisterAuth registers the /auth endpoints behind the auth rate limiter.
// Logout accepts either a refresh token in the body or a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	jwt := middleware.JWTAuth(jwtSecret)
	g.GET("/me", a.Me, jwt)
	g.PATCH("/me", a.UpdateMe, jwt)
}
