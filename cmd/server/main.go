package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/avel/splitledger/internal/adapter/http"
	"github.com/avel/splitledger/internal/adapter/http/handler"
	"github.com/avel/splitledger/internal/adapter/http/middleware"
	postgresRepo "github.com/avel/splitledger/internal/adapter/repository/postgres"
	redisRepo "github.com/avel/splitledger/internal/adapter/repository/redis"
	"github.com/avel/splitledger/internal/infrastructure/config"
	"github.com/avel/splitledger/internal/infrastructure/logger"
	"github.com/avel/splitledger/internal/infrastructure/metrics"
	"github.com/avel/splitledger/internal/infrastructure/postgres"
	"github.com/avel/splitledger/internal/infrastructure/redis"
	"github.com/avel/splitledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	// Run migrations
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseTimeout)
	defer cancel()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	retrier := postgresRepo.NewRetrier(appLogger)
	eventRepo := postgresRepo.NewEventRepository(pool, retrier)
	groupRepo := postgresRepo.NewGroupRepository(pool)
	memberRepo := postgresRepo.NewMemberRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	m := metrics.New()
	ledgerUC := usecase.NewLedgerUseCase(eventRepo, groupRepo, cache, idGen, m)
	groupUC := usecase.NewGroupUseCase(groupRepo, memberRepo, idGen)
	memberUC := usecase.NewMemberUseCase(memberRepo, idGen)

	// Initialize handlers
	memberHandler := handler.NewMemberHandler(memberUC)
	groupHandler := handler.NewGroupHandler(groupUC)
	expenseHandler := handler.NewExpenseHandler(ledgerUC)
	settlementHandler := handler.NewSettlementHandler(ledgerUC)
	balanceHandler := handler.NewBalanceHandler(ledgerUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		MemberHandler:     memberHandler,
		GroupHandler:      groupHandler,
		ExpenseHandler:    expenseHandler,
		SettlementHandler: settlementHandler,
		BalanceHandler:    balanceHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		RateLimiter:       rateLimiter,
		Logger:            appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
