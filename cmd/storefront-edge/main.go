// Command storefront-edge localises storefront requests in front of the
// renderer and keeps the commerce region mapping warm.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dailyyoga/storefront-edge/cache"
	"github.com/dailyyoga/storefront-edge/commerce"
	"github.com/dailyyoga/storefront-edge/config"
	"github.com/dailyyoga/storefront-edge/cron"
	"github.com/dailyyoga/storefront-edge/kafka"
	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/region"
	"github.com/dailyyoga/storefront-edge/routine"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(envFiles()...)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		logger.Error("failed to build logger", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("storefront edge stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// envFiles lets EDGE_ENV_FILE point at a file other than .env
func envFiles() []string {
	if f := os.Getenv("EDGE_ENV_FILE"); f != "" {
		return []string{f}
	}
	return nil
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := commerce.NewClient(log, &cfg.Commerce)
	if err != nil {
		return err
	}

	var opts []region.Option
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedis(log, &cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		opts = append(opts, region.WithSnapshotStore(
			region.NewRedisSnapshotStore(rdb, cfg.Region.Tag(), cfg.Region.SnapshotTTL),
		))
	} else if cfg.Server.Mode == config.ModeWorker {
		log.Warn("worker mode without REDIS_URL only warms its own process")
	}

	resolver, err := region.NewResolver(log, &cfg.Region, client, opts...)
	if err != nil {
		return err
	}

	runner := routine.New(log)
	mode := cfg.Server.Mode
	log.Info("starting storefront edge",
		zap.String("mode", string(mode)),
		zap.String("backend", cfg.Commerce.BaseURL),
		zap.String("default_country", cfg.Region.DefaultCountry),
	)

	if mode.RunsWarmer() {
		scheduler := cron.NewCron(log, cron.TimeoutMiddleware(cfg.Region.SyncTimeout*2))
		if err := region.Schedule(scheduler, resolver); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Close()

		warm := region.NewWarmTask(resolver)
		runner.GoNamedWithContext(ctx, "initial-warm", func(ctx context.Context) {
			if err := warm.Run(ctx); err != nil {
				log.Warn("initial region warm failed", zap.Error(err))
			}
		})
	}

	if mode.ServesHTTP() && cfg.Kafka.Enabled() {
		consumer, err := kafka.NewConsumer(log, cfg.Kafka.ConsumerConfig())
		if err != nil {
			return err
		}
		defer func() { _ = consumer.Close() }()

		if err := consumer.Start(ctx, region.NewEventHandler(log, resolver).Handle); err != nil {
			return err
		}
	}

	var (
		server   *http.Server
		serveErr error
	)
	if mode.ServesHTTP() {
		handler, err := newRouter(log, cfg, resolver)
		if err != nil {
			return err
		}
		server = &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		runner.GoNamed("http-server", func() {
			log.Info("storefront edge listening", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr = err
				stop()
			}
		})
	}

	<-ctx.Done()
	log.Info("shutting down")
	stop()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("http server shutdown", zap.Error(err))
		}
	}
	runner.Wait()
	return serveErr
}
