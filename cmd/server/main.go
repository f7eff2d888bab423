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

	"cryptoview/internal/cache"
	"cryptoview/internal/config"
	"cryptoview/internal/db"
	"cryptoview/internal/handler"
	"cryptoview/internal/job"
	"cryptoview/internal/metrics"
	"cryptoview/internal/provider"
	"cryptoview/internal/repository"
	"cryptoview/internal/service"
	"cryptoview/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	_ "cryptoview/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newPoolFunc      = func(ctx context.Context, cfg *config.Config) (repository.PgxPool, func(), error) {
		pool, err := initPostgresFunc(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}
	newProviderFunc = func(tracer trace.Tracer, opts ...provider.Option) service.MarketProvider {
		return provider.NewCoinGecko(tracer, opts...)
	}
	startPollerFunc        = func(p *job.Poller, ctx context.Context) error { return p.Start(ctx) }
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = waitForSignal
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func waitForSignal(ctx context.Context, quit <-chan os.Signal) {
	select {
	case <-quit:
	case <-ctx.Done():
	}
}

// @title           cryptoview API
// @version         1.0
// @description     Crypto prices, candles and chart geometry with SVG rendering.

// @host      localhost:8080
// @BasePath  /
func main() {
	if err := run(); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	if err := loadEnvFunc(); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}
	cfg := loadConfigFunc()
	log.SetLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer provider shutdown", "err", err)
		}
	}()

	pool, closePool, err := newPoolFunc(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer closePool()

	candleRepo := repository.NewCandleRepository(pool, tracer)
	if err := candleRepo.RunMigrations(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	var store cache.Store
	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, serving without cache", "err", err)
	} else {
		defer closeRedis(rdb)
		store = rdb
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	upstream := newProviderFunc(tracer, provider.WithObserver(m.ObserveUpstream))
	market := service.NewMarketService(tracer, upstream, candleRepo, store, m, cfg.CandleCacheTTL())
	charts := service.NewChartService(tracer, market, cfg.Chart(), m)

	h := handler.New(tracer, market, charts, metrics.Handler(reg))
	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(handler.RequestLogger(log.Default()))
	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	poller := job.NewPoller(tracer, market, m, cfg.PollInterval())
	g.Go(func() error {
		return startPollerFunc(poller, gctx)
	})
	g.Go(func() error {
		log.Info("http server listening", "addr", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(gctx, quit)
	log.Info("shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exiting")
	return nil
}

func closeRedis(c *redis.Client) {
	if err := c.Close(); err != nil {
		log.Warn("close redis", "err", err)
	}
}
