package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"dsas/internal/audit"
	"dsas/internal/cache"
	"dsas/internal/errors"
)

const (
	defaultRateLimit  = 5
	defaultRateWindow = 15 * time.Minute
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter counts requests per path and client IP in redis. When redis is
// unavailable requests are let through.
func RateLimiter(cfg RateLimitConfig, counter *cache.Client, security *audit.Security, logger zerolog.Logger) echo.MiddlewareFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Request().URL.Path
			key := fmt.Sprintf("ratelimit:%s:%s", path, ip)

			count, err := counter.Incr(c.Request().Context(), key, cfg.Window)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("rate limit check failed")
				return next(c)
			}

			if count > int64(cfg.Limit) {
				security.RateLimitExceeded(ip, path)
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, errors.ErrorResponse{
					Error: errors.ErrTooManyAttempts.Message,
					Code:  string(errors.ErrTooManyAttempts.Reason),
				})
			}
			return next(c)
		}
	}
}
