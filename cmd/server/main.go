// Command server runs the linkgate gateway: the landing listener (the
// social-preview-safe page at GET /:slug plus the banner API) and the
// bridge listener (the referrer-washing redirect at GET /go/:slug).
// Wiring mirrors the teacher's tools/cmd/server/main.go: config.Load,
// InitLogger, signal.NotifyContext-driven graceful shutdown, and a single
// run() that returns an error instead of calling os.Exit directly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/analytics"
	"github.com/duongmedia/linkgate/internal/bannerstore"
	"github.com/duongmedia/linkgate/internal/clickrecorder"
	"github.com/duongmedia/linkgate/internal/config"
	"github.com/duongmedia/linkgate/internal/dbx"
	"github.com/duongmedia/linkgate/internal/geoclass"
	"github.com/duongmedia/linkgate/internal/httpserver"
	"github.com/duongmedia/linkgate/internal/linkstore"
	"github.com/duongmedia/linkgate/internal/observability"
	"github.com/duongmedia/linkgate/internal/ratelimit"
	"github.com/duongmedia/linkgate/internal/templatestore"
	"github.com/duongmedia/linkgate/internal/uaclass"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, cfg); err != nil {
		logger.Error("gateway exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TempoEndpoint,
		ServiceName: cfg.ServiceName,
		SampleRate:  cfg.TracingSampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	metrics := observability.NewPrometheusRegistry("linkgate")

	pg, err := dbx.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer func() { _ = pg.Close() }()

	var redisQueue *dbx.RedisQueue
	if cfg.RedisURL != "" {
		redisQueue, err = dbx.InitRedis(cfg.RedisURL, "linkgate:click_queue")
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = redisQueue.Close() }()
	}

	analyticsMirror, err := analytics.Init(cfg.ClickHouseDSN)
	if err != nil {
		return fmt.Errorf("connect clickhouse: %w", err)
	}
	if analyticsMirror != nil {
		defer analyticsMirror.Close()
	}

	geoClassifier := geoclass.New(geoclass.Config{
		PathV4:         cfg.IPDBPathV4,
		PathV6:         cfg.IPDBPathV6,
		CacheTTL:       cfg.IPCacheTTL,
		CacheSize:      cfg.IPCacheSize,
		AllowCountries: cfg.AllowCountries,
		DatacenterISPs: cfg.DatacenterISPs,
		Metrics:        metrics,
	})
	defer geoClassifier.Close()

	uaClassifier := uaclass.New()
	templates := templatestore.New(cfg.TemplatePath)

	linkStore := linkstore.New(pg)
	bannerStore := bannerstore.New(pg)

	var redisBackend clickrecorder.RedisBackend
	if redisQueue != nil {
		redisBackend = redisQueue
	}
	recorder := clickrecorder.New(clickrecorder.Config{
		Capacity:    cfg.ClickQueueCapacity,
		WorkerCount: cfg.ClickWorkerCount,
		Persister:   linkStore,
		IsTransient: linkstore.IsTransient,
		Metrics:     metrics,
		Redis:       redisBackend,
	})
	defer recorder.Shutdown(10 * time.Second)

	limiter := ratelimit.New(ratelimit.Config{
		Enabled: cfg.RateLimitEnabled,
		Window:  cfg.RateLimitWindow,
		Max:     cfg.RateLimitMax,
	})

	srv := httpserver.New(httpserver.Server{
		SiteName:          cfg.SiteName,
		RequestTimeout:    cfg.RequestTimeout,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		TrustedProxies:    cfg.TrustedProxies,
		LinkStore:         linkStore,
		BannerStore:       bannerStore,
		Recorder:          recorder,
		GeoClassifier:     geoClassifier,
		UAClassifier:      uaClassifier,
		Templates:         templates,
		RateLimiter:       limiter,
		Metrics:           metrics,
		Analytics:         analyticsMirror,
		Postgres:          pg,
		RedisQueue:        redisQueue,
	})

	landingServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.NewLandingRouter(logger, metrics.Handler()),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}
	bridgeServer := &http.Server{
		Addr:         ":" + cfg.BridgePort,
		Handler:      srv.NewBridgeRouter(logger),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("landing listener running", zap.String("addr", landingServer.Addr))
		if err := landingServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("landing listener: %w", err)
		}
	}()
	go func() {
		logger.Info("bridge listener running", zap.String("addr", bridgeServer.Addr))
		if err := bridgeServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("bridge listener: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := landingServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("landing listener shutdown", zap.Error(err))
	}
	if err := bridgeServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("bridge listener shutdown", zap.Error(err))
	}

	return nil
}
