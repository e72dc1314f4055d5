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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/handler"
	"skillswap/internal/infrastructure/cache"
	"skillswap/internal/infrastructure/database"
	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/infrastructure/lock"
	"skillswap/internal/infrastructure/mq"
	"skillswap/internal/job"
	"skillswap/internal/ratelimit"
	"skillswap/internal/service"
	"skillswap/pkg/idgen"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply schema changes before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer flushLogs()

	if migrateOnStart {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	if err := idgen.Init(1); err != nil {
		return err
	}

	limiter, locker, closeRedis, err := coordination(cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, publisher, cfg)
	go outboxSender.Start(ctx)

	retryJob := job.NewPaymentRetryJob(db, service.NewLedgerService(db, cfg), cfg)
	go retryJob.Start(ctx)

	router := handler.SetupRouter(handler.Dependencies{
		DB:      db,
		Gateway: gateway.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret),
		Limiter: limiter,
		Locker:  locker,
		Config:  cfg,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("[Server] listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zap.S().Infow("[Server] shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()
	outboxSender.Stop()
	retryJob.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("[Server] shutdown error", "err", err)
	}

	zap.S().Info("[Server] stopped")
	return nil
}

// coordination picks Redis-backed rate limiting and escrow locks when Redis
// is enabled, process-local ones otherwise.
func coordination(cfg *config.Config) (ratelimit.Limiter, lock.Locker, func(), error) {
	if !cfg.Redis.Enabled {
		zap.S().Warn("[Server] redis disabled, rate limits and escrow locks are per process")
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.SweepThreshold), lock.NewLocalLocker(), func() {}, nil
	}

	client, err := cache.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	return ratelimit.NewRedisLimiter(client), lock.NewRedisLocker(client), func() { _ = client.Close() }, nil
}

func newPublisher(cfg *config.Config) (mq.Publisher, error) {
	if !cfg.Kafka.Enabled {
		zap.S().Warn("[Server] kafka disabled, ledger events are logged only")
		return mq.LogPublisher{}, nil
	}
	return mq.InitKafka(&cfg.Kafka)
}
