package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brigada-mx/brigada-api/internal/utils"
)

// RateLimit creates an in-process per-user rate limiter for authenticated
// surfaces.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID := fmt.Sprintf("%v", c.Locals("user_id"))
			if userID == "" || userID == "<nil>" {
				userID = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
	})
}

// PublicRateLimit creates a redis-backed fixed-window per-IP limiter for the
// unauthenticated activation endpoints, where budgets must hold across
// replicas. When redis is unavailable the limiter fails open: a throttling
// outage must not take activation down with it.
func PublicRateLimit(client *redis.Client, identifier string, max int, window time.Duration, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "rate_limit").Str("limiter", identifier).Logger()

	return func(c *fiber.Ctx) error {
		if client == nil {
			return c.Next()
		}

		ctx := c.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", identifier, c.IP())

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("rate limit check failed, allowing request")
			return c.Next()
		}

		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to set rate limit window")
			}
		}

		if count > int64(max) {
			log.Warn().Str("ip", c.IP()).Int64("count", count).Msg("rate limit exceeded")
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, try again later")
		}

		return c.Next()
	}
}
