package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/23skdu/adfiller/internal/catalog"
	"github.com/23skdu/adfiller/internal/clock"
	"github.com/23skdu/adfiller/internal/engine"
	ferrors "github.com/23skdu/adfiller/internal/errors"
	"github.com/23skdu/adfiller/internal/health"
	"github.com/23skdu/adfiller/internal/inventory"
	"github.com/23skdu/adfiller/internal/limiter"
	"github.com/23skdu/adfiller/internal/logging"
	"github.com/23skdu/adfiller/internal/security"
	"github.com/23skdu/adfiller/internal/server"
	"github.com/23skdu/adfiller/internal/watcher"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

// exitConfig is the exit status for unusable configuration.
const exitConfig = 2

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "adfiller: %v\n", err)
		os.Exit(exitCode(err))
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "adfiller: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("adfiller exited")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("adfiller stopped")
}

// loadConfig reads .env and the environment. Every failure is classed as
// a configuration error.
func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, ferrors.Wrap(err, ferrors.ErrorTypeConfiguration, "load", "read .env")
	}
	var cfg Config
	if err := envconfig.Process("ADFILLER", &cfg); err != nil {
		return Config{}, ferrors.Wrap(err, ferrors.ErrorTypeConfiguration, "load", "process environment")
	}
	if err := ValidateConfig(&cfg); err != nil {
		return Config{}, ferrors.Wrap(err, ferrors.ErrorTypeConfiguration, "validate", "invalid config")
	}
	return cfg, nil
}

func exitCode(err error) int {
	if ferrors.IsType(err, ferrors.ErrorTypeConfiguration) {
		return exitConfig
	}
	return 1
}

// run wires the service and blocks until ctx is cancelled or a listener
// fails. The inventory is bootstrapped before the listeners open.
func run(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	store := inventory.NewStore(logger, cfg.Categories)
	clk := clock.New(cfg.TickInterval, logger)

	cat, err := catalog.Open(cfg.RedisURL, cfg.CatalogKey)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	if cfg.EnableKeyspaceEvents {
		if err := cat.EnableKeyspaceEvents(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not enable keyspace notifications")
		}
	}

	w := watcher.New(watcher.Config{
		Pattern:       cfg.KeyspacePattern,
		RetryInterval: cfg.RetryInterval,
	}, cat, cat, store, logger)
	w.Bootstrap(ctx)

	hm := health.NewHealthManager(version, logger)
	hm.RegisterChecker(health.NewInventoryChecker(store))
	hm.RegisterChecker(health.NewWatcherChecker(w))
	hm.RegisterChecker(health.NewStoreChecker(cat, time.Second))

	grpcServer := server.New(server.Config{
		AuthToken:      cfg.AuthToken,
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter.Config{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
	}, engine.New(store, clk), logger, cfg.BuildGRPCServerOptions()...)

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}
	metricsLis, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		_ = lis.Close()
		return fmt.Errorf("listen %s: %w", cfg.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/health", hm.HTTPHandler())
	metricsServer := &http.Server{Handler: security.Headers(mux), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return clk.Run(gctx) })

	g.Go(func() error {
		if err := w.Watch(gctx); err != nil {
			logger.Error().Err(err).Msg("watcher stopped, serving last published inventory")
		}
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("address", cfg.MetricsAddr).Msg("metrics server starting")
		if err := metricsServer.Serve(metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("address", cfg.ListenAddr).Str("version", version).Msg("filler server starting")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			logger.Warn().Msg("graceful stop timed out, closing connections")
			grpcServer.Stop()
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
