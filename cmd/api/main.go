package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/brigada-mx/brigada-api/internal/config"
	"github.com/brigada-mx/brigada-api/internal/database"
	"github.com/brigada-mx/brigada-api/internal/handler"
	"github.com/brigada-mx/brigada-api/internal/middleware"
	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/repository"
	"github.com/brigada-mx/brigada-api/internal/router"
	"github.com/brigada-mx/brigada-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.WhitelistEntry{},
		&models.ActivationCode{},
		&models.ActivationAuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Rate limiting degrades to fail-open when redis is unavailable.
	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, public rate limiting disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	whitelistRepo := repository.NewWhitelistRepository(db)
	codeRepo := repository.NewActivationCodeRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	provisionRepo := repository.NewProvisionRepository(db)

	notifier := service.NewLogActivationNotifier(logger)

	whitelistService := service.NewWhitelistService(whitelistRepo, userRepo, validate, logger)
	codeService := service.NewCodeService(codeRepo, whitelistRepo, auditRepo, notifier, validate, logger,
		cfg.CodeExpiryDefaultHours, cfg.CodeExpiryMaxHours)
	activationService := service.NewActivationService(codeService, codeRepo, userRepo, provisionRepo, auditRepo,
		validate, logger, cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(userRepo, validate, logger, cfg.JWTSecret, cfg.AccessTokenTTL)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivationHandler: handler.NewActivationHandler(activationService, logger),
		AdminCodeHandler:  handler.NewAdminCodeHandler(codeService, logger),
		WhitelistHandler:  handler.NewWhitelistHandler(whitelistService, logger),
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		RedisClient:       redisClient,
		Logger:            logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
