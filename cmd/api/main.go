package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/background"
	"github.com/eventlane/eventlane/internal/config"
	"github.com/eventlane/eventlane/internal/database"
	"github.com/eventlane/eventlane/internal/handlers"
	"github.com/eventlane/eventlane/internal/middleware"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/ratelimit"
	"github.com/eventlane/eventlane/internal/repositories"
	"github.com/eventlane/eventlane/internal/routes"
	"github.com/eventlane/eventlane/internal/services"
	pkgauth "github.com/eventlane/eventlane/pkg/auth"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
	pkglogger "github.com/eventlane/eventlane/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Counter store: in-process table, promoted to Redis-backed with
	// in-process fallback when a Redis address is configured
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	memoryStore := ratelimit.NewMemoryStore(logger)
	go memoryStore.StartSweep(sweepCtx, ratelimit.DefaultSweepInterval)

	var counterStore ratelimit.CounterStore = memoryStore
	var redisStore *ratelimit.RedisStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisStore = ratelimit.NewRedisStore(redisClient, cfg.Redis.Timeout)
		counterStore = ratelimit.NewFallbackStore(redisStore, memoryStore, logger)
		logger.Info("rate limit counters backed by redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		logger.Info("rate limit counters in-process only")
	}

	limiter := ratelimit.NewLimiter(counterStore, logger,
		ratelimit.Policy{Name: ratelimit.PolicyAuth, Limit: cfg.RateLimit.AuthLimit, Window: cfg.RateLimit.AuthWindow},
		ratelimit.Policy{Name: ratelimit.PolicyAPI, Limit: cfg.RateLimit.APILimit, Window: cfg.RateLimit.APIWindow},
		ratelimit.Policy{Name: ratelimit.PolicyUpload, Limit: cfg.RateLimit.UploadLimit, Window: cfg.RateLimit.UploadWindow},
		ratelimit.Policy{Name: ratelimit.PolicyDefault, Limit: cfg.RateLimit.DefaultLimit, Window: cfg.RateLimit.DefaultWindow},
	)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	warningRepo := repositories.NewWarningRepository(db)
	restrictionRepo := repositories.NewRestrictionRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Email delivery: SES in real deployments, log-only otherwise
	var emailService services.EmailService
	if cfg.Email.Enabled {
		emailService, err = services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.BaseURL,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		emailService = services.NewLogEmailService(logger)
	}

	// Services
	tokenService := services.NewTokenService(tokenRepo, logger)
	userService := services.NewUserService(
		userRepo,
		tokenService,
		emailService,
		tokenManager,
		cfg.Email.VerificationTokenTTL,
		cfg.Email.PasswordResetTTL,
		logger,
	)
	enforcementService := services.NewEnforcementService(
		db,
		messageRepo,
		warningRepo,
		reportRepo,
		restrictionRepo,
		services.DefaultEnforcementConfig(),
		logger,
	)

	// Handlers
	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(userService, auditLogger, ipConfig)
	messageHandler := handlers.NewMessageHandler(messageRepo, enforcementService, logger)
	moderationHandler := handlers.NewModerationHandler(enforcementService, reportRepo, auditLogger)

	// Bootstrap first admin user if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootCancel()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.CORS(corsConfig))
	router.Use(middleware.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))
	router.Use(middleware.GlobalBurstGuard(cfg.RateLimit.GlobalBurstPerMinute))

	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:       authHandler,
		MessageHandler:    messageHandler,
		ModerationHandler: moderationHandler,
		TokenManager:      tokenManager,
		UserRepo:          userRepo,
		Permissions:       enforcementService,
		Limiter:           limiter,
		IPConfig:          ipConfig,
	})

	// Health check: database is load-bearing, redis is degradable
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		counters := "memory"
		if redisStore != nil {
			counters = "redis"
			if err := redisStore.Ping(ctx); err != nil {
				counters = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","database":"up","counters":%q}`, counters)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(tokenRepo, reportRepo, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = userRepo.Create(ctx, &models.User{
		Email:         adminEmail,
		PasswordHash:  hashedPassword,
		Name:          "Admin",
		Role:          "admin",
		EmailVerified: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
