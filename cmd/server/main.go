// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deposit-service/internal/chains"
	"deposit-service/internal/chains/ethereum"
	"deposit-service/internal/chains/solana"
	"deposit-service/internal/chains/tron"
	"deposit-service/internal/config"
	"deposit-service/internal/domain"
	"deposit-service/internal/handler"
	"deposit-service/internal/metrics"
	"deposit-service/internal/publisher"
	"deposit-service/internal/repository"
	"deposit-service/internal/router"
	"deposit-service/internal/server"
	"deposit-service/internal/usecase"
	"deposit-service/internal/worker"
	"deposit-service/pkg/jwtutil"
	"deposit-service/pkg/middleware"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("Deposit service failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================================================
	// Storage
	// ============================================================================
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("Connected to database")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// Rate limiting fails open; events fall back to best-effort.
		logger.Warn("Redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	walletRepo := repository.NewWalletRepository(pool)
	depositRepo := repository.NewDepositRepository(pool)

	// ============================================================================
	// Events
	// ============================================================================
	var events usecase.EventPublisher
	switch cfg.Events.Backend {
	case config.EventsKafka:
		kp := publisher.NewKafkaPublisher(
			publisher.NewKafkaWriter(cfg.Events.KafkaBrokers, cfg.Events.Topic, logger),
			logger,
		)
		defer kp.Close()
		events = kp
	case config.EventsRedis:
		events = publisher.NewRedisPublisher(rdb, cfg.Events.Topic, logger)
	default:
		events = publisher.NopPublisher{}
	}

	// ============================================================================
	// Chains
	// ============================================================================
	tokens := domain.NewTokenRegistry(cfg.TokenOverrides())
	adapters := chains.NewRegistry()

	baseContracts, err := tokens.Contracts(domain.NetworkBase)
	if err != nil {
		return err
	}
	ethClient, err := ethereum.Dial(ctx, cfg.Ethereum.RPCURL, logger)
	if err != nil {
		return err
	}
	defer ethClient.Close()
	adapters.Register(ethereum.NewAdapter(ethClient, baseContracts, ethereum.Config{
		MinConfirmations: cfg.Ethereum.MinConfirmations,
	}, logger))

	adapters.Register(solana.NewAdapter(solana.NewRPCClient(cfg.Solana.RPCURL, logger), logger))

	var tronSource tron.Source
	switch cfg.Tron.Transport {
	case config.TronGRPC:
		grpcSource, err := tron.NewGrpcSource(cfg.Tron.GRPCAddr, cfg.Tron.APIKey, cfg.RPCTimeout, logger)
		if err != nil {
			return err
		}
		defer grpcSource.Stop()
		tronSource = grpcSource
	default:
		tronSource = tron.NewTronHTTPClient(cfg.Tron.HTTPURL, cfg.Tron.APIKey, cfg.Tron.Solidity, cfg.RPCTimeout, logger)
	}
	adapters.Register(tron.NewAdapter(tronSource, logger))

	logger.Info("Chain adapters registered", zap.Any("networks", adapters.List()))

	// ============================================================================
	// Usecases and HTTP
	// ============================================================================
	m := metrics.New()

	depositUC := usecase.NewDepositUsecase(depositRepo, walletRepo, adapters, tokens, events, m, cfg.RPCTimeout, logger)
	reviewUC := usecase.NewReviewUsecase(depositRepo, walletRepo, depositUC, events, m, logger)
	walletUC := usecase.NewWalletUsecase(walletRepo, tokens, logger)

	verifier, err := jwtutil.LoadVerifier(cfg.JWTVerifierConfig())
	if err != nil {
		return err
	}

	handlerRouter := router.SetupRoutes(router.Deps{
		DepositHandler: handler.NewDepositHandler(depositUC, reviewUC, walletUC, logger),
		AdminHandler:   handler.NewAdminHandler(reviewUC, logger),
		Auth:           middleware.NewAuthMiddleware(verifier, logger),
		RateLimit:      middleware.RateLimiter(rdb, cfg.Rate.Limit, cfg.Rate.Window, cfg.Rate.Block, "deposit"),
		Metrics:        m.Registry(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	httpServer := server.NewHTTPServer(cfg.HTTPAddr, handlerRouter, logger)

	monitor := worker.NewDepositMonitor(reviewUC, cfg.Worker.Interval, cfg.Worker.BatchSize, logger)

	// ============================================================================
	// Run
	// ============================================================================
	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)

	if cfg.Worker.Enabled {
		g.Go(func() error {
			monitor.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down deposit service")
		monitor.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownGrace+time.Second)
		defer cancel()
		return httpServer.Stop(shutdownCtx)
	})

	logger.Info("Deposit service started", zap.String("addr", cfg.HTTPAddr))

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Deposit service stopped")
	return nil
}
