package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/partnerledger/internal/adapter/consumer"
	httpAdapter "github.com/iho/partnerledger/internal/adapter/http"
	"github.com/iho/partnerledger/internal/adapter/http/handler"
	"github.com/iho/partnerledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/partnerledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/partnerledger/internal/adapter/repository/redis"
	"github.com/iho/partnerledger/internal/infrastructure/auth"
	"github.com/iho/partnerledger/internal/infrastructure/config"
	"github.com/iho/partnerledger/internal/infrastructure/eventpublisher"
	"github.com/iho/partnerledger/internal/infrastructure/integrity"
	"github.com/iho/partnerledger/internal/infrastructure/logger"
	"github.com/iho/partnerledger/internal/infrastructure/metrics"
	"github.com/iho/partnerledger/internal/infrastructure/postgres"
	"github.com/iho/partnerledger/internal/infrastructure/redis"
	"github.com/iho/partnerledger/internal/usecase"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	projectRepo := postgresRepo.NewProjectRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	retrier := postgresRepo.NewRetrier(log)
	idGen := postgresRepo.NewULIDGenerator()
	sourceRefCache := redisRepo.NewSourceRefCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Use cases
	guard := usecase.NewIdempotencyGuard(transactionRepo, sourceRefCache, cfg.SourceRefCacheTTL, m)
	balanceUC := usecase.NewBalanceUseCase(txManager, walletRepo, transactionRepo, outboxRepo, auditRepo, idGen, retrier, m)
	ledgerUC := usecase.NewLedgerUseCase(txManager, walletRepo, transactionRepo, outboxRepo, auditRepo, guard, balanceUC, idGen, retrier, m)
	aggregationUC := usecase.NewAggregationUseCase(walletRepo, transactionRepo)
	paymentUC := usecase.NewPaymentUseCase(txManager, paymentRepo, projectRepo, outboxRepo, auditRepo, idGen, retrier, m)
	projectUC := usecase.NewProjectUseCase(projectRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(projectRepo, paymentRepo)
	conversionUC := usecase.NewConversionUseCase(ledgerUC, cfg.ConversionAutoComplete, m)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		if cfg.JWTSecret == "" {
			return errors.New("AUTH_ENABLED requires JWT_SECRET")
		}
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:      handler.NewWalletHandler(ledgerUC, balanceUC, aggregationUC),
		TransactionHandler: handler.NewTransactionHandler(ledgerUC),
		PaymentHandler:     handler.NewPaymentHandler(paymentUC),
		ProjectHandler:     handler.NewProjectHandler(projectUC, reconciliationUC),
		ConversionHandler:  handler.NewConversionHandler(conversionUC),
		HealthHandler: handler.NewHealthHandler(map[string]handler.Check{
			"postgres": pool.Ping,
			"redis":    redis.Ping(redisClient),
		}),
		Logger:             log,
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.HTTPWriteTimeout,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, time.Minute)
		return nil
	})

	if cfg.OutboxEnabled {
		var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(log)
		if cfg.KafkaEnabled {
			kafkaPublisher := eventpublisher.NewKafkaPublisher(
				eventpublisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaEventsTopic, log),
			)
			defer kafkaPublisher.Close()
			publisher = kafkaPublisher
		}

		retention := time.Duration(0)
		if cfg.OutboxPurgeEnabled {
			retention = cfg.OutboxRetention
		}

		outboxWorker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Logger:     log,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  retention,
		})
		g.Go(func() error { return ignoreCanceled(outboxWorker.Start(gctx)) })
	}

	if cfg.KafkaEnabled {
		leads := consumer.NewLeadConsumer(
			consumer.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaConversionsTopic, cfg.KafkaConsumerGroup, log),
			conversionUC,
			log,
		)
		defer leads.Close()
		g.Go(func() error { return ignoreCanceled(leads.Run(gctx)) })
	}

	if cfg.AuditorEnabled {
		auditor := integrity.NewAuditor(integrity.Config{
			Verifier: balanceUC,
			Logger:   log,
			Interval: cfg.AuditorInterval,
			PageSize: cfg.AuditorPageSize,
		})
		g.Go(func() error { return ignoreCanceled(auditor.Start(gctx)) })
	}

	err = g.Wait()
	log.Info().Msg("server stopped")
	return err
}

// ignoreCanceled treats shutdown of a worker as a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
