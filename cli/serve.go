package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekihlep/water-norm/config"
	httpLayer "github.com/nekihlep/water-norm/http"
	"github.com/nekihlep/water-norm/logger"
	"github.com/nekihlep/water-norm/repository"
	"github.com/nekihlep/water-norm/service"
	"github.com/nekihlep/water-norm/weather"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the water norm JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("WATER_NORM_CONFIG"), "path to the YAML config file")
	return cmd
}

// temperatureProvider builds the configured source, cached when cache_ttl > 0.
// The returned cleanup closes the Redis client, if any.
func temperatureProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (weather.TemperatureProvider, func(), error) {
	var provider weather.TemperatureProvider
	switch cfg.Temperature.Source {
	case config.SourceHTTP:
		provider = weather.NewHTTPProvider(cfg.Temperature.URL, cfg.Temperature.Timeout)
	default:
		provider = weather.NewStubProvider()
	}

	if cfg.Temperature.CacheTTL == 0 {
		return provider, func() {}, nil
	}

	if cfg.Redis.Address == "" {
		cache := repository.NewMemoryCache()
		return weather.NewCachedProvider(provider, cache, cfg.Temperature.CacheTTL, log), func() {}, nil
	}

	redisCache := repository.NewRedisCache(repository.RedisOptions{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := redisCache.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}
	return weather.NewCachedProvider(provider, redisCache, cfg.Temperature.CacheTTL, log), cleanup, nil
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	provider, cleanup, err := temperatureProvider(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.NewWaterNormService(provider,
		service.WithLogger(log),
		service.WithMetrics(service.NewMetrics(reg)),
	)
	handler := httpLayer.NewWaterNormHandler(svc, cfg.Server.RequestTimeout, log)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillEvery)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpLayer.NewRouter(handler, rateLimiter, reg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("water norm API listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("temperature_source", cfg.Temperature.Source),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
