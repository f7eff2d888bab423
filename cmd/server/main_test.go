package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"cryptoview/internal/config"
	"cryptoview/internal/domain"
	"cryptoview/internal/job"
	"cryptoview/internal/provider"
	"cryptoview/internal/repository"
	"cryptoview/internal/service"
	"cryptoview/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestRunBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pool := &stubPool{}
	restore := stubServerDeps(pool)
	defer restore()

	var router *gin.Engine
	newRouterFunc = func(opts ...gin.OptionFunc) *gin.Engine {
		router = gin.New(opts...)
		return router
	}

	if err := runWithTimeout(t); err != nil {
		t.Fatalf("run: %v", err)
	}
	if pool.execs != 1 {
		t.Fatalf("expected migrations to run once, got %d", pool.execs)
	}
	if !pool.closed {
		t.Fatal("expected pool to be closed on exit")
	}

	registered := map[string]bool{}
	for _, info := range router.Routes() {
		registered[info.Method+" "+info.Path] = true
	}
	for _, want := range []string{"GET /health", "GET /metrics", "GET /api/charts/:symbol/svg", "GET /swagger/*any"} {
		if !registered[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestRunPostgresFailure(t *testing.T) {
	restore := stubServerDeps(&stubPool{})
	defer restore()
	newPoolFunc = func(context.Context, *config.Config) (repository.PgxPool, func(), error) {
		return nil, nil, errors.New("refused")
	}

	err := runWithTimeout(t)
	if err == nil || !strings.Contains(err.Error(), "init postgres") {
		t.Fatalf("expected postgres error, got %v", err)
	}
}

func TestRunMigrationFailure(t *testing.T) {
	restore := stubServerDeps(&stubPool{execErr: errors.New("permission denied")})
	defer restore()

	err := runWithTimeout(t)
	if err == nil || !strings.Contains(err.Error(), "run migrations") {
		t.Fatalf("expected migration error, got %v", err)
	}
}

func TestRunListenFailureStopsServer(t *testing.T) {
	restore := stubServerDeps(&stubPool{})
	defer restore()
	waitForSignalFunc = waitForSignal
	startHTTPServerFunc = func(*http.Server) error { return errors.New("address in use") }

	err := runWithTimeout(t)
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected listen error, got %v", err)
	}
}

func TestRunTracerFailure(t *testing.T) {
	restore := stubServerDeps(&stubPool{})
	defer restore()
	initTracerFunc = func(context.Context, tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		return nil, nil, errors.New("no collector")
	}

	if err := runWithTimeout(t); err == nil {
		t.Fatal("expected tracer error")
	}
}

func runWithTimeout(t *testing.T) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- run() }()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("run did not exit")
		return nil
	}
}

func stubServerDeps(pool *stubPool) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewPool := newPoolFunc
	origNewProvider := newProviderFunc
	origStartPoller := startPollerFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return os.ErrNotExist }
	loadConfigFunc = func() *config.Config {
		cfg := &config.Config{HTTPPort: 0, CoinGeckoPollSecs: 1, LogLevel: "error"}
		return cfg
	}
	initRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("redis down")
	}
	initTracerFunc = func(context.Context, tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newPoolFunc = func(context.Context, *config.Config) (repository.PgxPool, func(), error) {
		return pool, func() { pool.closed = true }, nil
	}
	newProviderFunc = func(trace.Tracer, ...provider.Option) service.MarketProvider { return stubMarketProvider{} }
	startPollerFunc = func(_ *job.Poller, ctx context.Context) error {
		<-ctx.Done()
		return nil
	}
	newRouterFunc = gin.New
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(context.Context, <-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newPoolFunc = origNewPool
		newProviderFunc = origNewProvider
		startPollerFunc = origStartPoller
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubPool struct {
	execs   int
	execErr error
	closed  bool
}

func (p *stubPool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	p.execs++
	return pgconn.CommandTag{}, p.execErr
}

func (p *stubPool) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (p *stubPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubMarketProvider struct{}

func (stubMarketProvider) FetchPrices(ctx context.Context) (map[string]*domain.PriceSnapshot, error) {
	return map[string]*domain.PriceSnapshot{
		"BTC": {Symbol: "BTC", PriceUSD: 1},
	}, nil
}

func (stubMarketProvider) FetchMarketChart(ctx context.Context, symbol string, days int, intervals []string) ([]*domain.Candle, error) {
	return []*domain.Candle{}, nil
}
