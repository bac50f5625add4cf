package log

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware stores a request-scoped logger in the request context and logs
// every completed request. 4xx responses log at warn, 5xx at error.
func Middleware(logger *Logger) echo.MiddlewareFunc {
	httpLogger := logger.WithComponent(ComponentHTTP)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = req.Header.Get(echo.HeaderXRequestID)
			}
			scoped := httpLogger.With(FieldRequestID, reqID)
			ctx := context.WithValue(req.Context(), LoggerContextKey, scoped)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			fields := NewFields().
				WithHTTPRequest(req.Method, req.URL.Path, req.URL.RawQuery, req.UserAgent()).
				WithHTTPResponse(status, time.Since(start).Milliseconds()).
				WithClientIP(c.RealIP())
			scoped.Logger.Log(ctx, level, "HTTP request completed", scoped.args(fields.ToSlice())...)
			return nil
		}
	}
}

// FromContext returns the request-scoped logger, or one around
// slog.Default when none was stored.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}
