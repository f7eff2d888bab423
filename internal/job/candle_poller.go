// Package job runs the background refreshes that keep quotes and candles
// current.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoview/internal/domain"
	"cryptoview/internal/metrics"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultLongSchedule refreshes long candles twice an hour, off the hour.
const DefaultLongSchedule = "7,37 * * * *"

// MarketRefresher is implemented by service.MarketService.
type MarketRefresher interface {
	RefreshPrices(ctx context.Context) error
	RefreshShortCandles(ctx context.Context, symbol string) error
	RefreshLongCandles(ctx context.Context, symbol string) error
}

// Poller refreshes quotes on a ticker, short candles a few symbols per tick
// and long candles one symbol per cron firing.
type Poller struct {
	tracer  trace.Tracer
	market  MarketRefresher
	metrics *metrics.Metrics

	priceEvery   time.Duration
	shortEvery   time.Duration
	shortPerTick int
	shortDelay   time.Duration
	longSchedule string
	short, long  *rotation
}

type PollerOption func(*Poller)

// WithShortCandles sets how often and how many symbols get short candles.
func WithShortCandles(every time.Duration, perTick int) PollerOption {
	return func(p *Poller) {
		p.shortEvery = every
		p.shortPerTick = perTick
	}
}

// WithStartDelay staggers the first short candle refresh behind the first
// price refresh.
func WithStartDelay(d time.Duration) PollerOption {
	return func(p *Poller) { p.shortDelay = d }
}

// WithLongSchedule sets the cron expression for long candles.
func WithLongSchedule(spec string) PollerOption {
	return func(p *Poller) { p.longSchedule = spec }
}

func NewPoller(tracer trace.Tracer, market MarketRefresher, m *metrics.Metrics, priceEvery time.Duration, opts ...PollerOption) *Poller {
	p := &Poller{
		tracer:       tracer,
		market:       market,
		metrics:      m,
		priceEvery:   priceEvery,
		shortEvery:   5 * time.Minute,
		shortPerTick: 2,
		shortDelay:   10 * time.Second,
		longSchedule: DefaultLongSchedule,
		short:        newRotation(domain.SupportedSymbols),
		long:         newRotation(domain.SupportedSymbols),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs until ctx is cancelled. It fails only if the long candle
// schedule does not parse.
func (p *Poller) Start(ctx context.Context) error {
	sched := cron.New()
	if _, err := sched.AddFunc(p.longSchedule, func() { p.refreshLong(ctx) }); err != nil {
		return fmt.Errorf("schedule long candles %q: %w", p.longSchedule, err)
	}

	log.Info("poller starting", "prices", p.priceEvery, "short", p.shortEvery, "long", p.longSchedule)
	sched.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.every(ctx, "prices", p.priceEvery, 0, p.refreshPrices)
	}()
	go func() {
		defer wg.Done()
		p.every(ctx, "short-candles", p.shortEvery, p.shortDelay, p.refreshShort)
	}()

	<-ctx.Done()
	<-sched.Stop().Done()
	wg.Wait()
	log.Info("poller stopped")
	return nil
}

// every runs fn after delay and then on each tick.
func (p *Poller) every(ctx context.Context, name string, interval, delay time.Duration, fn func(context.Context)) {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (p *Poller) refreshPrices(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "poller.prices")
	defer span.End()
	if err := p.market.RefreshPrices(ctx); err != nil {
		p.fail("prices", "", err)
	}
}

func (p *Poller) refreshShort(ctx context.Context) {
	for _, sym := range p.short.next(p.shortPerTick) {
		p.refreshSymbol(ctx, "short-candles", sym, p.market.RefreshShortCandles)
	}
}

func (p *Poller) refreshLong(ctx context.Context) {
	for _, sym := range p.long.next(1) {
		p.refreshSymbol(ctx, "long-candles", sym, p.market.RefreshLongCandles)
	}
}

func (p *Poller) refreshSymbol(ctx context.Context, task, symbol string, fn func(context.Context, string) error) {
	if ctx.Err() != nil {
		return
	}
	ctx, span := p.tracer.Start(ctx, "poller."+task)
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))
	if err := fn(ctx, symbol); err != nil {
		p.fail(task, symbol, err)
	}
}

func (p *Poller) fail(task, symbol string, err error) {
	p.metrics.PollerError(task)
	log.Error("refresh failed", "task", task, "symbol", symbol, "err", err)
}

// rotation hands out symbols round-robin.
type rotation struct {
	mu      sync.Mutex
	symbols []string
	pos     int
}

func newRotation(symbols []string) *rotation {
	return &rotation{symbols: symbols}
}

func (r *rotation) next(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.symbols) == 0 || n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = r.symbols[r.pos%len(r.symbols)]
		r.pos++
	}
	return out
}
