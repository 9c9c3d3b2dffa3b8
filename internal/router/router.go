package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brigada-mx/brigada-api/internal/config"
	"github.com/brigada-mx/brigada-api/internal/handler"
	"github.com/brigada-mx/brigada-api/internal/middleware"
	"github.com/brigada-mx/brigada-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivationHandler *handler.ActivationHandler
	AdminCodeHandler  *handler.AdminCodeHandler
	WhitelistHandler  *handler.WhitelistHandler
	AuthHandler       *handler.AuthHandler
	JWTMiddleware     fiber.Handler
	RedisClient       *redis.Client
	Logger            zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public activation endpoints carry their own per-IP budgets; everything
	// admin-facing sits behind JWT plus a role gate.
	if deps.ActivationHandler != nil {
		activate := api.Group("/activate")
		activate.Use("/validate", middleware.PublicRateLimit(
			deps.RedisClient, "activate_validate", cfg.ValidateRateLimit, cfg.ValidateRateWindow, deps.Logger))
		activate.Use("/complete", middleware.PublicRateLimit(
			deps.RedisClient, "activate_complete", cfg.CompleteRateLimit, cfg.CompleteRateWindow, deps.Logger))
		deps.ActivationHandler.Register(activate)
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	admin := api.Group("/admin",
		jwtMiddleware,
		middleware.RequireRole(models.RoleAdmin, models.RoleEncargado),
		middleware.RateLimit("admin", 120, time.Minute))

	if deps.AdminCodeHandler != nil {
		deps.AdminCodeHandler.Register(admin.Group("/activation-codes"))
	}

	if deps.WhitelistHandler != nil {
		deps.WhitelistHandler.Register(admin.Group("/whitelist"))
	}
}
