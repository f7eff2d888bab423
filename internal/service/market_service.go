// Package service joins the market data provider, the candle store and the
// Redis cache, and builds charts from what they return.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptoview/internal/cache"
	"cryptoview/internal/domain"
	"cryptoview/internal/metrics"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	priceCacheTTL      = 90 * time.Second
	defaultCandleLimit = 200
	maxCandleLimit     = 1000
)

var (
	ErrUnsupportedSymbol   = errors.New("unsupported symbol")
	ErrUnsupportedInterval = errors.New("unsupported interval")
)

// MarketProvider fetches quotes and raw market charts.
type MarketProvider interface {
	FetchPrices(ctx context.Context) (map[string]*domain.PriceSnapshot, error)
	FetchMarketChart(ctx context.Context, symbol string, days int, intervals []string) ([]*domain.Candle, error)
}

// CandleStore persists candles.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
	UpsertCandles(ctx context.Context, candles []*domain.Candle) error
}

// MarketService serves quotes and candles, reading through Redis.
type MarketService struct {
	tracer    trace.Tracer
	provider  MarketProvider
	store     CandleStore
	cache     cache.Store
	metrics   *metrics.Metrics
	candleTTL time.Duration
}

func NewMarketService(
	tracer trace.Tracer,
	provider MarketProvider,
	store CandleStore,
	cacheStore cache.Store,
	m *metrics.Metrics,
	candleTTL time.Duration,
) *MarketService {
	return &MarketService{
		tracer:    tracer,
		provider:  provider,
		store:     store,
		cache:     cacheStore,
		metrics:   m,
		candleTTL: candleTTL,
	}
}

// ValidateQuery normalizes a symbol and checks the interval.
func ValidateQuery(symbol, interval string) (string, error) {
	sym, ok := domain.NormalizeSymbol(symbol)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	if _, ok := domain.IntervalDuration(interval); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInterval, interval)
	}
	return sym, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultCandleLimit
	case limit > maxCandleLimit:
		return maxCandleLimit
	}
	return limit
}

func candleKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, interval, limit)
}

func priceKey(symbol string) string {
	return "price:" + symbol
}

// GetCandles returns up to limit of the most recent candles, oldest first.
func (s *MarketService) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-candles")
	defer span.End()

	sym, err := ValidateQuery(symbol, interval)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	span.SetAttributes(
		attribute.String("symbol", sym),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	key := candleKey(sym, interval, limit)
	if s.cache != nil {
		cached, err := cache.GetJSON[[]*domain.Candle](ctx, s.cache, key)
		switch {
		case err != nil:
			s.metrics.CacheLookup("error")
			log.Warn("candle cache read failed", "key", key, "err", err)
		case cached != nil:
			s.metrics.CacheLookup("hit")
			return *cached, nil
		default:
			s.metrics.CacheLookup("miss")
		}
	}

	candles, err := s.store.GetCandles(ctx, sym, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("load candles %s %s: %w", sym, interval, err)
	}
	if s.cache != nil && s.candleTTL > 0 {
		if err := cache.SetJSON(ctx, s.cache, key, candles, s.candleTTL); err != nil {
			log.Warn("candle cache write failed", "key", key, "err", err)
		}
	}
	return candles, nil
}

// GetCurrentPrice returns the latest quote for symbol, from Redis when
// fresh and from the provider otherwise.
func (s *MarketService) GetCurrentPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-current-price")
	defer span.End()

	sym, ok := domain.NormalizeSymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}

	if s.cache != nil {
		cached, err := cache.GetJSON[domain.PriceSnapshot](ctx, s.cache, priceKey(sym))
		if err != nil {
			log.Warn("price cache read failed", "symbol", sym, "err", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	prices, err := s.fetchAndCachePrices(ctx)
	if err != nil {
		return nil, err
	}
	snap, ok := prices[sym]
	if !ok {
		return nil, fmt.Errorf("price not available for %s", sym)
	}
	return snap, nil
}

// GetCurrentPrices returns quotes for every supported symbol in display
// order. One provider call fills whatever the cache is missing.
func (s *MarketService) GetCurrentPrices(ctx context.Context) ([]*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-current-prices")
	defer span.End()

	found := make(map[string]*domain.PriceSnapshot, len(domain.SupportedSymbols))
	if s.cache != nil {
		for _, sym := range domain.SupportedSymbols {
			if cached, _ := cache.GetJSON[domain.PriceSnapshot](ctx, s.cache, priceKey(sym)); cached != nil {
				found[sym] = cached
			}
		}
	}

	var err error
	if len(found) < len(domain.SupportedSymbols) {
		var fetched map[string]*domain.PriceSnapshot
		fetched, err = s.fetchAndCachePrices(ctx)
		for sym, snap := range fetched {
			if _, ok := found[sym]; !ok {
				found[sym] = snap
			}
		}
	}

	out := make([]*domain.PriceSnapshot, 0, len(found))
	for _, sym := range domain.SupportedSymbols {
		if snap, ok := found[sym]; ok {
			out = append(out, snap)
		}
	}
	return out, err
}

// RefreshPrices fetches all quotes and caches them.
func (s *MarketService) RefreshPrices(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market-service.refresh-prices")
	defer span.End()

	prices, err := s.fetchAndCachePrices(ctx)
	if err != nil {
		return err
	}
	log.Debug("refreshed prices", "assets", len(prices))
	return nil
}

func (s *MarketService) fetchAndCachePrices(ctx context.Context) (map[string]*domain.PriceSnapshot, error) {
	prices, err := s.provider.FetchPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	if s.cache == nil {
		return prices, nil
	}
	for sym, snap := range prices {
		if err := cache.SetJSON(ctx, s.cache, priceKey(sym), snap, priceCacheTTL); err != nil {
			log.Warn("price cache write failed", "symbol", sym, "err", err)
		}
	}
	return prices, nil
}

// RefreshShortCandles rebuilds the 5m, 15m and 1h candles of the last day.
func (s *MarketService) RefreshShortCandles(ctx context.Context, symbol string) error {
	return s.refreshCandles(ctx, "market-service.refresh-short-candles", symbol, 1, domain.ShortIntervals)
}

// RefreshLongCandles rebuilds the 4h and 1d candles of the last thirty days.
func (s *MarketService) RefreshLongCandles(ctx context.Context, symbol string) error {
	return s.refreshCandles(ctx, "market-service.refresh-long-candles", symbol, 30, domain.LongIntervals)
}

func (s *MarketService) refreshCandles(ctx context.Context, spanName, symbol string, days int, intervals []string) error {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("days", days))

	candles, err := s.provider.FetchMarketChart(ctx, symbol, days, intervals)
	if err != nil {
		return fmt.Errorf("fetch market chart for %s: %w", symbol, err)
	}
	if err := s.store.UpsertCandles(ctx, candles); err != nil {
		return fmt.Errorf("upsert candles for %s: %w", symbol, err)
	}
	s.metrics.Stored(len(candles))
	log.Debug("refreshed candles", "symbol", symbol, "intervals", intervals, "count", len(candles))
	return nil
}
