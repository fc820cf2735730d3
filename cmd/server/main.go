package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fambudget/budget-server-go/internal/config"
	"github.com/fambudget/budget-server-go/internal/database"
	"github.com/fambudget/budget-server-go/internal/handler"
	"github.com/fambudget/budget-server-go/internal/jobs"
	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/redis"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	familyRepo := repository.NewFamilyRepository(db.DB)
	sessionRepo := repository.NewRefreshSessionRepository(db.DB, config.RevokedSessionRetention)
	accountRepo := repository.NewAccountRepository(db.DB)
	categoryRepo := repository.NewCategoryRepository(db.DB)
	budgetRepo := repository.NewBudgetRepository(db.DB)
	transactionRepo := repository.NewTransactionRepository(db.DB)
	reportRepo := repository.NewReportRepository(db.DB)

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL())
	guard := service.NewLoginAttemptGuard(cfg.LoginMaxAttempts, cfg.LoginLockout())

	authService := service.NewAuthService(
		db, userRepo, familyRepo, sessionRepo, hasher, tokens, guard, cfg.RefreshTokenTTL(),
	)
	familyService := service.NewFamilyService(familyRepo, userRepo, sessionRepo, hasher)
	accountService := service.NewAccountService(accountRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	budgetService := service.NewBudgetService(budgetRepo, categoryRepo)
	transactionService := service.NewTransactionService(db, transactionRepo, accountRepo, categoryRepo)
	reportService := service.NewReportService(reportRepo)

	ipLimiter := service.NewRateLimiter(redisClient.Client)

	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo)
	generalIPLimit := middleware.NewIPRateLimitMiddleware(ipLimiter, cfg.RateLimitPerMin, time.Minute, "api")
	strictIPLimit := middleware.NewIPRateLimitMiddleware(ipLimiter, cfg.AuthRateLimitPerMin, time.Minute, "auth")
	userRateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, authMiddleware.Handler, strictIPLimit.Handler)
	familyHandler := handler.NewFamilyHandler(familyService)
	accountHandler := handler.NewAccountHandler(accountService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	reportHandler := handler.NewReportHandler(reportService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Mount("/", authHandler.Routes())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(generalIPLimit.Handler)
		r.Use(authMiddleware.Handler)
		r.Use(userRateLimit.Handler)

		r.Mount("/family", familyHandler.Routes())
		r.Mount("/accounts", accountHandler.Routes())
		r.Mount("/categories", categoryHandler.Routes())
		r.Mount("/budgets", budgetHandler.Routes())
		r.Mount("/transactions", transactionHandler.Routes())
		r.Mount("/reports", reportHandler.Routes())
	})

	r.NotFound(handler.StaticFileServer(cfg.StaticDir).ServeHTTP)

	cleanupJob := jobs.NewCleanupJob(sessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
