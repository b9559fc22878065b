package middleware

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/common/ratelimit"
)

// isInternalRequest checks if the request is from an internal service.
// Internal callers set X-Internal-Service to a shared secret to bypass
// rate limits.
func isInternalRequest(c echo.Context) bool {
	internalHeader := c.Request().Header.Get("X-Internal-Service")
	if internalHeader == "" {
		return false
	}

	expectedSecret := os.Getenv("INTERNAL_SERVICE_SECRET")
	if expectedSecret == "" {
		return false
	}

	return internalHeader == expectedSecret
}

// GlobalRateLimitMiddleware bounds the total graphics-command rate so
// a stuck automation loop cannot flood every display at once.
// Fails open: a Redis error never blocks a command.
func GlobalRateLimitMiddleware(limiter *ratelimit.Limiter, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isInternalRequest(c) {
				return next(c)
			}

			result, err := limiter.CheckGlobalLimit(c.Request().Context(), limit)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many graphics commands. Please slow down.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
