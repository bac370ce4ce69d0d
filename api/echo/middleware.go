package echoapi

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/edusphere/backend/ratelimit"
)

// rateLimitMiddleware gates a route class through the sliding-window limiter,
// keyed by client address. Rejections carry a Retry-After hint.
func rateLimitMiddleware(limiter *ratelimit.Limiter, routeClass string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if limiter == nil {
				return next(ctx)
			}
			res := limiter.Admit(ctx.RealIP(), routeClass)
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(ctx)
		}
	}
}
