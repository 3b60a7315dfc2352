package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/reviewdeck/reviewdeck/configs"
	"github.com/reviewdeck/reviewdeck/internal/application/services"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/ai"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/db"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/email"
	upstream "github.com/reviewdeck/reviewdeck/internal/infrastructure/gbp"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/googleauth"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/health"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/memcache"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/redis"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting ReviewDeck application...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Repository implementations
	userRepo := repositories.NewUserRepository(database, logger)
	subscriptionRepo := repositories.NewSubscriptionRepository(database, logger)
	tokenRepo := repositories.NewTokenRedisRepository(redisClient, logger)
	emailTokenRepo := repositories.NewEmailTokenRedisRepository(redisClient, logger)

	// Email service is optional in development
	var emailService ports.EmailService
	if cfg.Email.SendGridAPIKey != "" {
		emailConfig := &email.EmailConfig{
			SendGridAPIKey: cfg.Email.SendGridAPIKey,
			FromEmail:      cfg.Email.FromEmail,
			FromName:       cfg.Email.FromName,
			CompanyName:    cfg.Email.CompanyName,
			BaseURL:        cfg.Email.BaseURL,
		}
		emailService, err = email.NewEmailService(emailConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize email service:", err)
		}
	} else {
		logger.Warn("SENDGRID_API_KEY not set - verification emails disabled")
	}

	// Account and billing services
	userService := services.NewUserService(userRepo, emailService, emailTokenRepo, logger)
	authService := services.NewAuthService(userRepo, tokenRepo, &cfg.JWT, logger)
	billingService := services.NewBillingService(subscriptionRepo, logger)

	// Upstream call pipeline: cache -> throttler -> retrying executor -> client
	cache := memcache.New(cfg.Upstream.CacheCapacity)
	throttler := upstream.NewSpacingThrottler(cfg.Upstream.MinSpacing)

	policy := upstream.DefaultRetryPolicy()
	policy.MaxRetries = cfg.Upstream.MaxRetries
	policy.BaseDelay = cfg.Upstream.BaseDelay
	policy.MaxDelay = cfg.Upstream.MaxDelay

	executor := upstream.NewExecutor(cache, throttler, policy, logger)

	var tokenSource ports.GoogleTokenSource
	if cfg.Google.ClientID != "" && cfg.Google.ClientSecret != "" && cfg.Google.RefreshToken != "" {
		tokenSource, err = googleauth.NewTokenSource(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RefreshToken)
		if err != nil {
			logger.Fatal("Failed to initialize Google token source:", err)
		}
	} else {
		logger.Warn("Google OAuth credentials not set - upstream calls will be rejected")
		tokenSource = googleauth.StaticTokenSource("")
	}

	apiClient := upstream.NewClient(upstream.DefaultClientConfig(), tokenSource, logger)

	reviewService := services.NewReviewService(apiClient, executor, cache, &services.ReviewServiceConfig{
		LocationsTTL: cfg.Upstream.LocationsTTL,
		ReviewsTTL:   cfg.Upstream.ReviewsTTL,
	}, logger)
	unansweredService := services.NewUnansweredReviewService(reviewService, &services.UnansweredConfig{
		OverFetchCap: cfg.Upstream.OverFetchCap,
		ScanCeiling:  cfg.Upstream.ScanCeiling,
	}, logger)
	// a posted reply invalidates the location's unanswered cursor
	reviewService.SetCursorInvalidator(unansweredService)

	// AI reply drafting is optional
	var composer ports.ReplyComposer
	if cfg.AI.GeminiAPIKey != "" {
		composer, err = ai.NewGeminiComposer(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, logger)
		if err != nil {
			logger.Fatal("Failed to initialize reply composer:", err)
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set - AI reply drafting disabled")
	}

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
	}

	deps := httpserver.ServerDeps{
		UserService:    userService,
		AuthService:    authService,
		BillingService: billingService,
		ReviewService:  reviewService,
		UnansweredSvc:  unansweredService,
		ReplyComposer:  composer,
		UpstreamCache:  cache,
		HealthCheckers: hcSlice,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
