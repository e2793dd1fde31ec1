package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/belgrade-mama-market/internal/handler"
	"github.com/iliyamo/belgrade-mama-market/internal/middleware"
)

// RegisterListings registers the listing feed and listing management.  Only
// the public feed goes through the response cache; creating a listing
// purges it.
func RegisterListings(e *echo.Echo, h *handler.ListingHandler, jwtSecret string, cache, purge echo.MiddlewareFunc) {
	jwt := middleware.JWTAuth(jwtSecret)
	g := e.Group("/listings")
	g.GET("", h.List, cache)
	g.GET("/user/me", h.Mine, jwt)
	g.GET("/:id", h.Get)
	g.POST("", h.Create, jwt, purge)
}

// RegisterISO registers the want-ad endpoints.  The feed depends on the
// current time and is never cached.
func RegisterISO(e *echo.Echo, h *handler.ISOHandler, jwtSecret string) {
	jwt := middleware.JWTAuth(jwtSecret)
	g := e.Group("/iso")
	g.GET("/feed", h.Feed)
	g.GET("/user/me", h.Mine, jwt)
	g.POST("", h.Create, jwt)
}
