package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"cryptoview/internal/cache"
	"cryptoview/internal/config"
	"cryptoview/internal/db"
	"cryptoview/internal/metrics"
	"cryptoview/internal/provider"
	"cryptoview/internal/repository"
	"cryptoview/internal/service"
	"cryptoview/internal/tui"
	"cryptoview/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const fingerprintKey ctxKey = "ssh_fingerprint"

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initRedisFunc  = cache.InitRedis
	initTracerFunc = tracing.InitTracer
	newPoolFunc    = func(ctx context.Context, cfg *config.Config) (repository.PgxPool, func(), error) {
		pool, err := db.InitPostgres(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}
	newProviderFunc = func(tracer trace.Tracer, opts ...provider.Option) service.MarketProvider {
		return provider.NewCoinGecko(tracer, opts...)
	}
	newWishServerFunc         = wish.NewServer
	startSSHServerFunc        = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFunc     = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	startMetricsServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownMetricsServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify         = ossignal.Notify
	waitForSignalFunc         = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	if err := run(); err != nil {
		log.Error("ssh server exited", "err", err)
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

	var store cache.Store
	if rdb, err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Warn("redis unavailable, serving without cache", "err", err)
	} else {
		defer rdb.Close()
		store = rdb
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	candleRepo := repository.NewCandleRepository(pool, tracer)
	upstream := newProviderFunc(tracer, provider.WithObserver(m.ObserveUpstream))
	market := service.NewMarketService(tracer, upstream, candleRepo, store, m, cfg.CandleCacheTTL())
	charts := service.NewChartService(tracer, market, cfg.Chart(), m)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(authorizer(cfg.SSHAuthorizedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(sessionHandler(tui.Services{
				Charts:  charts,
				Prices:  market,
				Config:  cfg.Chart(),
				Refresh: cfg.PollInterval(),
			}, m)),
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("create ssh server: %w", err)
	}

	go func() {
		log.Info("ssh server listening", "addr", addr)
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error("ssh server stopped", "err", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.SSHMetricsPort > 0 {
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.SSHMetricsPort),
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := startMetricsServerFunc(metricsSrv); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "err", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("shutting down ssh server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if metricsSrv != nil {
		if err := shutdownMetricsServerFunc(metricsSrv, shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", "err", err)
		}
	}
	if err := shutdownSSHServerFunc(srv, shutdownCtx); err != nil {
		return fmt.Errorf("ssh server shutdown: %w", err)
	}

	log.Info("ssh server exited")
	return nil
}

// authorizer admits keys whose SHA256 fingerprint is listed. An empty list
// admits every key.
func authorizer(fingerprints []string) ssh.PublicKeyHandler {
	allowed := make(map[string]bool, len(fingerprints))
	for _, fp := range fingerprints {
		allowed[fp] = true
	}
	if len(allowed) == 0 {
		log.Warn("SSH_AUTHORIZED_FINGERPRINTS empty, accepting any public key")
	}
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if len(allowed) > 0 && !allowed[fingerprint] {
			log.Warn("ssh auth denied", "user", ctx.User(), "fingerprint", fingerprint)
			return false
		}
		ctx.SetValue(fingerprintKey, fingerprint)
		log.Info("ssh auth accepted", "user", ctx.User(), "fingerprint", fingerprint)
		return true
	}
}

// sessionHandler builds one chart app per session, sized to its pty.
func sessionHandler(base tui.Services, m *metrics.Metrics) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		svc := base
		svc.Username = s.User()

		model := tui.NewAppModel(svc)
		if pty, _, ok := s.Pty(); ok {
			model.SetSize(pty.Window.Width, pty.Window.Height)
		}

		log.Info("session started", "user", s.User(), "fingerprint", s.Context().Value(fingerprintKey))
		done := m.SessionOpened("ssh")
		go func() {
			<-s.Context().Done()
			done()
		}()

		return model, []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	}
}
