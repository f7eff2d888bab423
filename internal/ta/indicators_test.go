package ta

import (
	"math"
	"testing"

	"cryptoview/internal/chart/series"
)

func candlesWithCloses(closes ...float64) []series.Candle {
	out := make([]series.Candle, len(closes))
	for i, c := range closes {
		out[i] = series.Candle{Timestamp: int64(i), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestMovingAverageTrailingWindow(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = float64(100 + i*i%7)
	}
	got := MovingAverage(candlesWithCloses(closes...), 20)
	if len(got) != 6 {
		t.Fatalf("expected 6 points, got %d", len(got))
	}
	for k, p := range got {
		if p.Index != 19+k {
			t.Fatalf("point %d: expected index %d, got %d", k, 19+k, p.Index)
		}
		var sum float64
		for j := p.Index - 19; j <= p.Index; j++ {
			sum += closes[j]
		}
		want := sum / 20
		if math.Abs(p.Value-want) > 1e-9 {
			t.Fatalf("point %d: expected %f, got %f", k, want, p.Value)
		}
	}
}

func TestMovingAverageTooShort(t *testing.T) {
	got := MovingAverage(candlesWithCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 20)
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d points", len(got))
	}
	if got := MovingAverage(candlesWithCloses(1, 2), 0); len(got) != 0 {
		t.Fatalf("expected empty result for zero period, got %v", got)
	}
}

func TestMovingAverageExactPeriod(t *testing.T) {
	got := MovingAverage(candlesWithCloses(2, 4, 6), 3)
	if len(got) != 1 || got[0].Index != 2 || got[0].Value != 4 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || math.Abs(std-2) > 1e-12 {
		t.Fatalf("expected 5/2, got %f/%f", mean, std)
	}
	if m, s := MeanStd(nil); m != 0 || s != 0 {
		t.Fatal("expected zeros for empty input")
	}
}

func TestEMASeries(t *testing.T) {
	got := EMASeries([]float64{1, 2, 3}, 3)
	// alpha = 0.5
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ema %v, want %v", got, want)
		}
	}
	if EMASeries(nil, 3) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestBollingerSeriesAndDefined(t *testing.T) {
	mid, upper, lower := BollingerSeries([]float64{1, 1, 1, 3, 3, 3}, 3, 2)
	if !math.IsNaN(mid[1]) {
		t.Fatal("warm-up entries should be NaN")
	}
	if mid[2] != 1 || upper[2] != 1 || lower[2] != 1 {
		t.Fatalf("flat window should collapse bands, got %f %f %f", mid[2], upper[2], lower[2])
	}
	if upper[3] <= mid[3] || lower[3] >= mid[3] {
		t.Fatal("bands must straddle the middle once prices move")
	}

	defined := Defined(mid)
	if len(defined) != 4 || defined[0].Index != 2 {
		t.Fatalf("unexpected defined values %+v", defined)
	}
}
