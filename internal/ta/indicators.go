// Package ta computes the technical-analysis overlays drawn on top of price
// charts.
package ta

import (
	"math"

	"cryptoview/internal/chart/series"

	"gonum.org/v1/gonum/stat"
)

// IndexedValue is an overlay value tied to the index of the candle it was
// computed for.
type IndexedValue struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// MovingAverage returns the trailing simple moving average of candle closes.
// The first value is at index period-1; fewer candles than period yields an
// empty result.
func MovingAverage(candles []series.Candle, period int) []IndexedValue {
	if period <= 0 || len(candles) < period {
		return []IndexedValue{}
	}

	out := make([]IndexedValue, 0, len(candles)-period+1)
	var sum float64
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out = append(out, IndexedValue{Index: i, Value: sum / float64(period)})
		}
	}
	return out
}

// Defined drops the NaN warm-up entries of a padded series and keeps the
// original index of each remaining value.
func Defined(values []float64) []IndexedValue {
	out := make([]IndexedValue, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			out = append(out, IndexedValue{Index: i, Value: v})
		}
	}
	return out
}

// MeanStd returns the population mean and standard deviation.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// EMASeries returns the exponential moving average seeded with the first
// value.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	if period <= 1 {
		copy(out, values)
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// BollingerSeries returns the middle, upper and lower bands. Entries before
// the first full window are NaN.
func BollingerSeries(values []float64, period int, stdDevs float64) ([]float64, []float64, []float64) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	middle := make([]float64, len(values))
	upper := make([]float64, len(values))
	lower := make([]float64, len(values))
	for i := range values {
		middle[i] = math.NaN()
		upper[i] = math.NaN()
		lower[i] = math.NaN()
	}
	if period <= 0 {
		return middle, upper, lower
	}
	for i := period - 1; i < len(values); i++ {
		mean, std := MeanStd(values[i-period+1 : i+1])
		middle[i] = mean
		upper[i] = mean + stdDevs*std
		lower[i] = mean - stdDevs*std
	}
	return middle, upper, lower
}
