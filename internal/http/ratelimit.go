package http

import (
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// limiterTTL drops the limiter of a client idle for that long.
const limiterTTL = 10 * time.Minute

// rateLimiter allows rps requests per second per client IP, bursting to
// twice that.
func rateLimiter(rps float64, metrics *securityMetrics) echo.MiddlewareFunc {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst * 2,
		ExpiresIn: limiterTTL,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return extractClientIP(c.Request()), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return NewInternalError(c, "Rate limiter unavailable")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
			return NewTooManyRequestsError(c)
		},
	})
}
