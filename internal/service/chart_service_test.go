package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cryptoview/internal/chart"
	"cryptoview/internal/chart/touch"
	"cryptoview/internal/domain"
	"cryptoview/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubSource struct {
	candles []*domain.Candle
	err     error

	symbol   string
	interval string
	limit    int
}

func (s *stubSource) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	s.symbol, s.interval, s.limit = symbol, interval, limit
	return s.candles, s.err
}

func hourly(n int) []*domain.Candle {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*domain.Candle, n)
	// Stored newest first to check the service orders them.
	for i := 0; i < n; i++ {
		v := float64(10 + i)
		out[n-1-i] = &domain.Candle{
			Symbol:   "BTC",
			Interval: "1h",
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     v,
			High:     v + 1,
			Low:      v - 1,
			Close:    v + 0.5,
			Volume:   100,
		}
	}
	return out
}

func testBase() chart.Config {
	cfg := chart.DefaultConfig()
	cfg.Width, cfg.Height = 100, 50
	cfg.Margins = touch.Margins{}
	return cfg
}

func TestChartService_BuildLine(t *testing.T) {
	t.Parallel()

	src := &stubSource{candles: hourly(3)}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := NewChartService(testTracer, src, testBase(), m)

	view, err := svc.Build(context.Background(), ChartRequest{Symbol: "BTC", Interval: "1h", Kind: chart.KindLine, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Line == nil || view.Candles != nil {
		t.Fatalf("expected only line geometry: %+v", view)
	}
	if view.Empty || len(view.Line.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(view.Line.Points))
	}
	if view.Line.Samples[0].Value != 10.5 {
		t.Fatalf("expected chronological closes, first is %v", view.Line.Samples[0].Value)
	}
	if src.limit != 3 || src.interval != "1h" {
		t.Fatalf("unexpected source args %s %d", src.interval, src.limit)
	}
	if got := testutil.ToFloat64(m.ChartBuilds.WithLabelValues("line")); got != 1 {
		t.Fatalf("expected one recorded build, got %f", got)
	}
}

func TestChartService_BuildCandlesWithOverlays(t *testing.T) {
	t.Parallel()

	svc := NewChartService(testTracer, &stubSource{candles: hourly(25)}, testBase(), nil)
	view, err := svc.Build(context.Background(), ChartRequest{Symbol: "BTC", Interval: "1h", Kind: "candles", EMA: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Kind != chart.KindCandle || view.Candles == nil {
		t.Fatalf("expected candle geometry, got %+v", view)
	}
	if len(view.Candles.Shapes) != 25 {
		t.Fatalf("expected 25 candles, got %d", len(view.Candles.Shapes))
	}
	if len(view.Candles.MovingAverage.Points) != 6 {
		t.Fatalf("expected 6 moving average points, got %d", len(view.Candles.MovingAverage.Points))
	}
	if len(view.Candles.Overlays) != 1 || view.Candles.Overlays[0].Name != "ema" {
		t.Fatalf("expected ema overlay, got %+v", view.Candles.Overlays)
	}
	if !view.Config.Overlays.EMA {
		t.Fatal("request overlay not applied to config")
	}
}

func TestChartService_BuildEmpty(t *testing.T) {
	t.Parallel()

	svc := NewChartService(testTracer, &stubSource{}, testBase(), nil)
	view, err := svc.Build(context.Background(), ChartRequest{Symbol: "BTC", Interval: "1h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Empty || view.Length != 0 {
		t.Fatalf("expected empty chart, got %+v", view)
	}
}

func TestChartService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewChartService(testTracer, &stubSource{}, testBase(), nil)
	if _, err := svc.Build(context.Background(), ChartRequest{Kind: "pie"}); !errors.Is(err, chart.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for kind, got %v", err)
	}
	if _, err := svc.Build(context.Background(), ChartRequest{Points: -1}); !errors.Is(err, chart.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for points, got %v", err)
	}

	boom := errors.New("boom")
	svc = NewChartService(testTracer, &stubSource{err: boom}, testBase(), nil)
	if _, err := svc.SVG(context.Background(), ChartRequest{Symbol: "BTC", Interval: "1h"}); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestChartService_SVG(t *testing.T) {
	t.Parallel()

	svc := NewChartService(testTracer, &stubSource{candles: hourly(5)}, testBase(), nil)
	doc, err := svc.SVG(context.Background(), ChartRequest{Symbol: "BTC", Interval: "1h", Kind: chart.KindCandle, Animate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("<svg")) || !bytes.Contains(doc, []byte("BTC 1h")) {
		t.Fatalf("unexpected document: %s", doc)
	}
	if !bytes.Contains(doc, []byte("@keyframes")) {
		t.Fatalf("animated chart should carry a reveal animation: %s", doc)
	}
}

func TestChartService_Touch(t *testing.T) {
	t.Parallel()

	svc := NewChartService(testTracer, &stubSource{candles: hourly(4)}, testBase(), nil)
	req := ChartRequest{Symbol: "BTC", Interval: "1h", Kind: chart.KindCandle}

	res, err := svc.Touch(context.Background(), req, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Hit || res.Index != 1 || res.Datum == nil {
		t.Fatalf("expected hit at 1, got %+v", res)
	}
	if res.Datum.Candle == nil || res.Datum.Candle.Close != 11.5 {
		t.Fatalf("unexpected datum: %+v", res.Datum)
	}

	res, err = svc.Touch(context.Background(), req, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Hit || res.Index != -1 || res.Datum != nil {
		t.Fatalf("expected miss, got %+v", res)
	}
}
