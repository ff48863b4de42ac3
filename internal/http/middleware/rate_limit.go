package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	infraprom "github.com/sifan077/PulseTrack/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Limiter is a windowed per-key counter. Allow reports whether the key is
// still inside its budget for the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitConfig binds a limiter policy to its HTTP behaviour.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
	Policy      string
	Body        fiber.Map
}

// TrackRateLimitConfig is the ingestion policy: 15 events per 15 seconds.
func TrackRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 15,
		Window:      15 * time.Second,
		KeyPrefix:   "ratelimit:track",
		Policy:      "track",
		Body:        fiber.Map{"error": "rate_limited"},
	}
}

// AuthRateLimitConfig is the login policy: 5 attempts per minute. The body is
// deliberately vague about what was limited.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 5,
		Window:      time.Minute,
		KeyPrefix:   "ratelimit:auth",
		Policy:      "auth",
		Body:        fiber.Map{"ok": false, "error": "Too many attempts, try again later"},
	}
}

// RateLimit gates requests per client IP using the provided limiter. Limiter
// errors fail open so a degraded counter backend never blocks ingestion.
func RateLimit(limiter Limiter, cfg RateLimitConfig, ipHeader string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := cfg.KeyPrefix + ":" + ClientIP(c, ipHeader)

		allowed, err := limiter.Allow(c.Context(), key)
		if err != nil {
			logger.Error("rate limiter error", zap.Error(err), zap.String("policy", cfg.Policy))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))

		if !allowed {
			infraprom.RateLimited.WithLabelValues(cfg.Policy).Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(cfg.Body)
		}

		return c.Next()
	}
}

// ClientIP reads the trusted proxy header, falling back to a non-routable
// sentinel when the service is reached directly.
func ClientIP(c *fiber.Ctx, header string) string {
	if header != "" {
		if ip := c.Get(header); ip != "" {
			return ip
		}
	}
	return "0.0.0.0"
}
