package router

import (
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/belgrade-mama-market/internal/handler"
	"github.com/iliyamo/belgrade-mama-market/internal/middleware"
)

// RegisterOrders registers the order workflow.  Every route requires a
// valid JWT; buyer and seller checks happen in the service.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, jwtSecret string) {
	g := e.Group("/orders", middleware.JWTAuth(jwtSecret))
	g.POST("", h.Create)
	g.GET("/my-purchases", h.MyPurchases)
	g.GET("/my-sales", h.MySales)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.PATCH("/:id/payment-status", h.UpdatePaymentStatus)
}

// RegisterUploads registers image uploads.  The body limit covers a full
// batch of maximum size files.  Photo uploads change listing responses, so
// they purge the feed cache.
func RegisterUploads(e *echo.Echo, h *handler.UploadHandler, jwtSecret string, purge echo.MiddlewareFunc) {
	files := int64(h.Limits.MaxFilesPerRequest)
	if files < 1 {
		files = 1
	}
	limit := h.Limits.MaxFileBytes*files + 1<<20
	g := e.Group("/upload", middleware.JWTAuth(jwtSecret), echomw.BodyLimit(strconv.FormatInt(limit, 10)))
	g.POST("", h.Single)
	g.POST("/listing/:listingId", h.ListingPhotos, purge)
}
