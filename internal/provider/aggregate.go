package provider

import (
	"sort"
	"time"

	"cryptoview/internal/domain"
)

type tick struct {
	at    int64
	value float64
}

func ticks(raw [][]float64) []tick {
	out := make([]tick, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		out = append(out, tick{at: int64(pair[0]), value: pair[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// Aggregate buckets market-chart prices into OHLC candles aligned to
// interval boundaries (UTC). Each candle's volume is the volume sample
// nearest to its close time. Unknown intervals produce no candles.
func Aggregate(symbol, interval string, prices, volumes [][]float64) []*domain.Candle {
	width, ok := domain.IntervalDuration(interval)
	if !ok {
		return nil
	}
	pts := ticks(prices)
	if len(pts) == 0 {
		return nil
	}
	vols := ticks(volumes)

	var (
		candles []*domain.Candle
		cur     *domain.Candle
	)
	for _, pt := range pts {
		open := time.UnixMilli(pt.at).UTC().Truncate(width)
		if cur == nil || !cur.OpenTime.Equal(open) {
			cur = &domain.Candle{
				Symbol:   symbol,
				Interval: interval,
				OpenTime: open,
				Open:     pt.value,
				High:     pt.value,
				Low:      pt.value,
			}
			candles = append(candles, cur)
		}
		cur.High = max(cur.High, pt.value)
		cur.Low = min(cur.Low, pt.value)
		cur.Close = pt.value
	}

	for _, c := range candles {
		c.Volume = nearest(vols, c.OpenTime.Add(width).UnixMilli())
	}
	return candles
}

// nearest returns the value of the tick closest to at; ties go to the
// earlier tick.
func nearest(ts []tick, at int64) float64 {
	if len(ts) == 0 {
		return 0
	}
	i := sort.Search(len(ts), func(i int) bool { return ts[i].at >= at })
	switch {
	case i == 0:
		return ts[0].value
	case i == len(ts):
		return ts[len(ts)-1].value
	case at-ts[i-1].at <= ts[i].at-at:
		return ts[i-1].value
	default:
		return ts[i].value
	}
}
