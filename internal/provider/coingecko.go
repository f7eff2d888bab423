// Package provider fetches quotes and market charts from CoinGecko and turns
// them into candles.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cryptoview/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// RequestObserver is told about every upstream request.
type RequestObserver func(endpoint string, status int, elapsed time.Duration)

// CoinGecko is a rate-limited client for the free CoinGecko API.
type CoinGecko struct {
	client   *http.Client
	baseURL  string
	tracer   trace.Tracer
	limiter  *RateLimiter
	observe  RequestObserver
	clockNow func() time.Time
}

// Option configures a CoinGecko client.
type Option func(*CoinGecko)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(p *CoinGecko) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *CoinGecko) { p.client = c }
}

// WithRateLimiter replaces the default limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(p *CoinGecko) { p.limiter = l }
}

// WithObserver registers a RequestObserver, typically a metrics recorder.
func WithObserver(o RequestObserver) Option {
	return func(p *CoinGecko) { p.observe = o }
}

// NewCoinGecko returns a client limited to eight calls per minute, the free
// tier's budget.
func NewCoinGecko(tracer trace.Tracer, opts ...Option) *CoinGecko {
	p := &CoinGecko{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  defaultBaseURL,
		tracer:   tracer,
		limiter:  NewRateLimiter(8, 7500*time.Millisecond),
		clockNow: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchPrices returns the current quote of every supported symbol in one
// call.
func (p *CoinGecko) FetchPrices(ctx context.Context) (map[string]*domain.PriceSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()

	ids := make([]string, 0, len(domain.SupportedSymbols))
	for _, sym := range domain.SupportedSymbols {
		ids = append(ids, domain.CoinGeckoID[sym])
	}
	sort.Strings(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")

	var raw map[string]struct {
		USD       float64 `json:"usd"`
		Volume24h float64 `json:"usd_24h_vol"`
		Change24h float64 `json:"usd_24h_change"`
	}
	if err := p.getJSON(ctx, "simple/price", q, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch prices")
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	now := p.clockNow().Unix()
	out := make(map[string]*domain.PriceSnapshot, len(raw))
	for id, quote := range raw {
		sym, ok := domain.SymbolForCoinGeckoID(id)
		if !ok {
			continue
		}
		out[sym] = &domain.PriceSnapshot{
			Symbol:          sym,
			PriceUSD:        quote.USD,
			Volume24h:       quote.Volume24h,
			Change24hPct:    quote.Change24h,
			LastUpdatedUnix: now,
		}
	}
	span.SetAttributes(attribute.Int("quotes", len(out)))
	return out, nil
}

// FetchMarketChart downloads days of prices for symbol and aggregates them
// into candles for each of intervals. One day yields five-minute prices,
// longer ranges hourly ones, so intervals should not be finer than that.
func (p *CoinGecko) FetchMarketChart(ctx context.Context, symbol string, days int, intervals []string) ([]*domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-market-chart")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("days", days))

	id, ok := domain.CoinGeckoID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))

	var raw marketChart
	if err := p.getJSON(ctx, "coins/"+id+"/market_chart", q, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch market chart")
		return nil, fmt.Errorf("fetch market chart for %s: %w", symbol, err)
	}

	var candles []*domain.Candle
	for _, interval := range intervals {
		candles = append(candles, Aggregate(symbol, interval, raw.Prices, raw.TotalVolumes)...)
	}
	span.SetAttributes(attribute.Int("candles", len(candles)))
	return candles, nil
}

type marketChart struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

func (p *CoinGecko) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := p.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := p.clockNow()
	resp, err := p.client.Do(req)
	if err != nil {
		p.report(path, 0, start)
		return err
	}
	defer resp.Body.Close()
	p.report(path, resp.StatusCode, start)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (p *CoinGecko) report(path string, status int, start time.Time) {
	if p.observe == nil {
		return
	}
	endpoint := path
	if strings.HasPrefix(path, "coins/") {
		endpoint = "coins/market_chart"
	}
	p.observe(endpoint, status, p.clockNow().Sub(start))
}
