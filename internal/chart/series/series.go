// Package series holds the scalar and OHLCV series the chart engine draws,
// and the stride reducer that bounds how many points reach the renderer.
package series

import "math"

// Sample is a single scalar observation such as a price or an average.
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Candle is a single OHLCV bar. Timestamp is Unix milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Bullish reports whether the candle closed at or above its open.
func (c Candle) Bullish() bool {
	return c.Close >= c.Open
}

// Normalized returns the candle with high/low widened to contain open and
// close and a negative volume clamped to zero.
func (c Candle) Normalized() Candle {
	c.High = math.Max(c.High, math.Max(c.Open, c.Close))
	c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
	if c.Volume < 0 || !finite(c.Volume) {
		c.Volume = 0
	}
	return c
}

// Closes projects candles onto their close prices.
func Closes(candles []Candle) []Sample {
	out := make([]Sample, len(candles))
	for i, c := range candles {
		out[i] = Sample{Timestamp: c.Timestamp, Value: c.Close}
	}
	return out
}

// Values returns the sample values in order.
func Values(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// Stride returns the step used to reduce n items to at most maxPoints.
// It is 1 when no reduction is needed and 0 when maxPoints is not positive.
func Stride(n, maxPoints int) int {
	if maxPoints <= 0 {
		return 0
	}
	if n <= maxPoints {
		return 1
	}
	return (n + maxPoints - 1) / maxPoints
}

// Reduce drops non-finite samples and then keeps every stride-th sample so
// that at most maxPoints remain. The first valid sample is always kept.
func Reduce(samples []Sample, maxPoints int) []Sample {
	valid := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if finite(s.Value) {
			valid = append(valid, s)
		}
	}
	out, _ := pick(valid, maxPoints)
	return out
}

// ReduceCandles is Reduce for candles. A candle with any non-finite price
// field is dropped.
func ReduceCandles(candles []Candle, maxPoints int) []Candle {
	out, _ := ReduceCandlesIndexed(candles, maxPoints)
	return out
}

// ReduceCandlesIndexed returns the reduced candles together with each kept
// candle's position in ValidCandles(candles).
func ReduceCandlesIndexed(candles []Candle, maxPoints int) ([]Candle, []int) {
	valid := ValidCandles(candles)
	return pick(valid, maxPoints)
}

// ValidCandles returns the candles whose price fields are all finite.
func ValidCandles(candles []Candle) []Candle {
	valid := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if finite(c.Open) && finite(c.High) && finite(c.Low) && finite(c.Close) {
			valid = append(valid, c)
		}
	}
	return valid
}

func pick[T any](items []T, maxPoints int) ([]T, []int) {
	step := Stride(len(items), maxPoints)
	if step == 0 || len(items) == 0 {
		return []T{}, []int{}
	}

	n := (len(items) + step - 1) / step
	if n > maxPoints {
		n = maxPoints
	}
	out := make([]T, 0, n)
	idx := make([]int, 0, n)
	for i := 0; i < len(items) && len(out) < n; i += step {
		out = append(out, items[i])
		idx = append(idx, i)
	}
	return out, idx
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
