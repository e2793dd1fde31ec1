package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user's id, or "" when the request did not
// pass through JWTAuth.
func UserID(c echo.Context) string {
    s, _ := c.Get(CtxUserID).(string)
    return s
}

// Email returns the email claim of the access token.
func Email(c echo.Context) string {
    s, _ := c.Get(CtxEmail).(string)
    return s
}

// currentUserID is the rate-limit identity: the user id or "anon".
func currentUserID(c echo.Context) string {
    if s := UserID(c); s != "" {
        return s
    }
    return "anon"
}
