package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured line per request.  5xx responses are
// logged at error level, 4xx at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response so the status is final
                c.Error(err)
            }

            req := c.Request()
            res := c.Response()
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("route", c.Path()),
                zap.Int("status", res.Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
                zap.Int64("bytes_out", res.Size),
            }
            if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
                fields = append(fields, zap.String("request_id", id))
            }
            if uid := UserID(c); uid != "" {
                fields = append(fields, zap.String("user_id", uid))
            }

            lvl := zapcore.InfoLevel
            switch {
            case res.Status >= 500:
                lvl = zapcore.ErrorLevel
            case res.Status >= 400:
                lvl = zapcore.WarnLevel
            }
            if ce := log.Check(lvl, "request"); ce != nil {
                ce.Write(fields...)
            }
            return nil
        }
    }
}
