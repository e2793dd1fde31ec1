package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/belgrade-mama-market/internal/repository"
	"github.com/iliyamo/belgrade-mama-market/internal/service"
	"github.com/iliyamo/belgrade-mama-market/internal/validation"
)

const msgInternal = "Internal server error"

// knownErrors maps domain sentinels to their HTTP status and client message.
var knownErrors = []struct {
	err    error
	status int
	msg    string
}{
	{service.ErrListingNotFound, http.StatusNotFound, "Listing not found"},
	{service.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{service.ErrSelfPurchase, http.StatusBadRequest, "Cannot purchase your own listing"},
	{service.ErrNotSeller, http.StatusForbidden, "Only seller can update order status"},
	{service.ErrAccessDenied, http.StatusForbidden, "Access denied"},
	{service.ErrInvalidPaymentStatus, http.StatusBadRequest, "Invalid payment status"},
	{service.ErrConcurrentUpdate, http.StatusConflict, "Order was modified by another request, reload and try again"},
	{repository.ErrEmailExists, http.StatusBadRequest, "Email already in use"},
}

// respond writes the client facing form of a known error and returns nil.
// Unknown errors are returned unchanged for the HTTP error handler.
func respond(c echo.Context, err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		err = validation.NewError("password", "must be at most 72 bytes")
	}
	var ve *validation.Error
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": ve.Fields})
	}
	var te *service.TransitionError
	if errors.As(err, &te) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   te.Error(),
			"allowed": te.From.NextStatuses(),
		})
	}
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return c.JSON(k.status, echo.Map{"error": k.msg})
		}
	}
	return err
}

// ErrorHandler renders whatever a handler or middleware returned.  Echo
// errors keep their status and message; anything else is logged and
// reported as a generic 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if respond(c, err) == nil {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := he.Message
			if s, ok := msg.(string); ok {
				msg = s
			} else if he.Internal != nil || msg == nil {
				msg = http.StatusText(he.Code)
			}
			if c.Request().Method == http.MethodHead {
				_ = c.NoContent(he.Code)
				return
			}
			_ = c.JSON(he.Code, echo.Map{"error": msg})
			return
		}

		log.Error("unhandled request error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": msgInternal})
	}
}
