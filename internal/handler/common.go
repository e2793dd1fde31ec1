package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/belgrade-mama-market/internal/middleware"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// bindValid decodes the body into v and runs the registered validator.
// When ok is false the 400 response is already written and err is what the
// handler should return.
func bindValid(c echo.Context, v any) (ok bool, err error) {
	if err := c.Bind(v); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(v); err != nil {
		return false, respond(c, err)
	}
	return true, nil
}

// userID returns the id stored by the JWT middleware.
func userID(c echo.Context) string {
	return middleware.UserID(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
}

// trimmed returns nil for nil or blank input and the trimmed value otherwise.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
