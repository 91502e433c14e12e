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
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	httphandler "github.com/kjstillabower/weather-dashboard/internal/http"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/session"
)

const inFlightCheckInterval = 100 * time.Millisecond

func newServeCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context())
		},
	}
}

func (app *cli) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := app.logger

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", zap.Error(err))
		return err
	}

	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout, cfg.ProbeCity)
	if err != nil {
		logger.Error("weather client", zap.Error(err))
		return err
	}

	var store session.Store
	var memcacheCloser *session.MemcachedStore
	switch cfg.SessionBackend {
	case "memcached":
		mc, err := session.NewMemcachedStore(cfg.MemcachedAddrs, cfg.SessionTTL, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Error("memcached session store", zap.Error(err))
			return err
		}
		if err := mc.Ping(); err != nil {
			logger.Warn("memcached not reachable at startup", zap.Error(err))
		}
		memcacheCloser = mc
		store = mc
		logger.Info("session backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		mem := session.NewInMemoryStore(cfg.SessionTTL)
		store = mem
		go sweepSessions(parent, mem, cfg.SessionTTL, logger)
		logger.Info("session backend: in_memory")
	}

	if len(cfg.TrackedCities) > 0 {
		observability.SetTrackedCities(cfg.TrackedCities)
	}

	svc := dashboard.NewService(weatherClient, store, cfg.RollingWindow)
	handlerCfg := httphandler.HandlerConfig{UploadMaxBytes: cfg.UploadMaxBytes}
	if memcacheCloser != nil {
		handlerCfg.SessionPing = memcacheCloser.Ping
	}
	handler := httphandler.NewHandler(svc, handlerCfg, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		CookieName:     cfg.SessionCookieName,
		SessionTTL:     cfg.SessionTTL,
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout + 20*time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	lifecycle.MarkStarted(time.Now())
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-serveErr:
		logger.Error("server", zap.Error(err))
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	if err := httphandler.WaitForInFlight(shutdownCtx, inFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
	return nil
}

// sweepSessions evicts expired in-memory sessions until ctx is done.
func sweepSessions(ctx context.Context, store *session.InMemoryStore, ttl time.Duration, logger *zap.Logger) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("expired sessions evicted", zap.Int("count", n), zap.Int("remaining", store.Len()))
			}
		}
	}
}
