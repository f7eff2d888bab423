package domain

import (
	"slices"
	"strings"
	"time"

	"cryptoview/internal/chart/series"
)

// Candle is one stored OHLCV bar for a symbol at an interval.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Series converts the candle into the chart engine's form. Timestamps are
// Unix milliseconds.
func (c *Candle) Series() series.Candle {
	return series.Candle{
		Timestamp: c.OpenTime.UnixMilli(),
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}

// ToSeries converts stored candles to chart candles in chronological order,
// whatever order they were read in. Nil entries are skipped.
func ToSeries(candles []*Candle) []series.Candle {
	out := make([]series.Candle, 0, len(candles))
	for _, c := range candles {
		if c != nil {
			out = append(out, c.Series())
		}
	}
	slices.SortStableFunc(out, func(a, b series.Candle) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	return out
}

// PriceSnapshot is the latest quote for a symbol.
type PriceSnapshot struct {
	Symbol          string  `json:"symbol"`
	PriceUSD        float64 `json:"price_usd"`
	Volume24h       float64 `json:"volume_24h"`
	Change24hPct    float64 `json:"change_24h_pct"`
	LastUpdatedUnix int64   `json:"last_updated_unix"`
}

// CoinGeckoID maps chartable symbols to CoinGecko coin ids.
var CoinGeckoID = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
	"DOT":  "polkadot",
	"AVAX": "avalanche-2",
	"LINK": "chainlink",
}

// SupportedSymbols is the display order used by the poller and the TUI.
var SupportedSymbols = []string{"BTC", "ETH", "SOL", "XRP", "ADA", "DOGE", "DOT", "AVAX", "LINK"}

var symbolByCoinGeckoID = func() map[string]string {
	m := make(map[string]string, len(CoinGeckoID))
	for sym, id := range CoinGeckoID {
		m[id] = sym
	}
	return m
}()

// SymbolForCoinGeckoID is the reverse of CoinGeckoID.
func SymbolForCoinGeckoID(id string) (string, bool) {
	sym, ok := symbolByCoinGeckoID[id]
	return sym, ok
}

// NormalizeSymbol upper-cases s and reports whether it is supported.
func NormalizeSymbol(s string) (string, bool) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	_, ok := CoinGeckoID[sym]
	return sym, ok
}

// Candle intervals.
const (
	Interval5m  = "5m"
	Interval15m = "15m"
	Interval1h  = "1h"
	Interval4h  = "4h"
	Interval1d  = "1d"
)

// SupportedIntervals lists stored intervals, shortest first.
var SupportedIntervals = []string{Interval5m, Interval15m, Interval1h, Interval4h, Interval1d}

// ShortIntervals are built from one day of five-minute prices; LongIntervals
// from thirty days of hourly prices.
var (
	ShortIntervals = []string{Interval5m, Interval15m, Interval1h}
	LongIntervals  = []string{Interval4h, Interval1d}
)

// IntervalDuration returns the bar length of interval, or false if the
// interval is not supported.
func IntervalDuration(interval string) (time.Duration, bool) {
	switch interval {
	case Interval5m:
		return 5 * time.Minute, true
	case Interval15m:
		return 15 * time.Minute, true
	case Interval1h:
		return time.Hour, true
	case Interval4h:
		return 4 * time.Hour, true
	case Interval1d:
		return 24 * time.Hour, true
	}
	return 0, false
}
