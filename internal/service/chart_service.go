package service

import (
	"context"
	"fmt"
	"time"

	"cryptoview/internal/chart"
	"cryptoview/internal/chart/series"
	"cryptoview/internal/chart/svg"
	"cryptoview/internal/domain"
	"cryptoview/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CandleSource supplies stored candles, oldest first.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// ChartRequest selects data and overrides the base chart settings. Zero
// numeric fields keep the base value.
type ChartRequest struct {
	Symbol    string
	Interval  string
	Kind      chart.Kind
	Limit     int
	Width     float64
	Height    float64
	Points    int
	EMA       bool
	Bollinger bool
	Animate   bool
}

// ChartView is the geometry of one rendered chart.
type ChartView struct {
	Symbol   string                `json:"symbol"`
	Interval string                `json:"interval"`
	Kind     chart.Kind            `json:"kind"`
	Config   chart.Config          `json:"config"`
	Empty    bool                  `json:"empty"`
	Length   float64               `json:"length"`
	Line     *chart.LineGeometry   `json:"line,omitempty"`
	Candles  *chart.CandleGeometry `json:"candles,omitempty"`
}

// TouchResult is a resolved pointer position.
type TouchResult struct {
	X     float64      `json:"x"`
	Hit   bool         `json:"hit"`
	Index int          `json:"index"`
	Datum *chart.Datum `json:"datum,omitempty"`
}

// ChartService builds charts from stored candles.
type ChartService struct {
	tracer  trace.Tracer
	candles CandleSource
	base    chart.Config
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewChartService(tracer trace.Tracer, candles CandleSource, base chart.Config, m *metrics.Metrics) *ChartService {
	return &ChartService{
		tracer:  tracer,
		candles: candles,
		base:    base,
		metrics: m,
		now:     time.Now,
	}
}

// Base returns the settings requests are applied over.
func (s *ChartService) Base() chart.Config { return s.base }

// Config applies req to the base settings and validates the result.
func (s *ChartService) Config(req ChartRequest) (chart.Config, error) {
	cfg := s.base
	if req.Width != 0 {
		cfg.Width = req.Width
	}
	if req.Height != 0 {
		cfg.Height = req.Height
	}
	if req.Points != 0 {
		cfg.MaxDataPoints = req.Points
	}
	cfg.Overlays.EMA = cfg.Overlays.EMA || req.EMA
	cfg.Overlays.Bollinger = cfg.Overlays.Bollinger || req.Bollinger
	if req.Animate {
		cfg.Static = false
	}
	return cfg, cfg.Validate()
}

// Series loads candles for symbol and interval in chart form.
func (s *ChartService) Series(ctx context.Context, symbol, interval string, limit int) ([]series.Candle, error) {
	stored, err := s.candles.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	return domain.ToSeries(stored), nil
}

// open loads the data for req into a new chart. Callers must Close it.
func (s *ChartService) open(ctx context.Context, req ChartRequest) (*chart.Chart, error) {
	ctx, span := s.tracer.Start(ctx, "chart-service.build")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("interval", req.Interval),
		attribute.String("kind", string(req.Kind)),
	)

	kind, ok := chart.ParseKind(string(req.Kind))
	if !ok {
		err := fmt.Errorf("%w: unknown chart kind %q", chart.ErrInvalidConfig, req.Kind)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	cfg, err := s.Config(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	data, err := s.Series(ctx, req.Symbol, req.Interval, req.Limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := s.now()
	c, err := chart.New(kind, cfg)
	if err != nil {
		return nil, err
	}
	c.SetCandles(data)
	s.metrics.ObserveBuild(string(kind), s.now().Sub(start))
	span.SetAttributes(attribute.Int("candles", len(data)), attribute.Bool("empty", c.Empty()))
	return c, nil
}

// Build returns the chart geometry for req.
func (s *ChartService) Build(ctx context.Context, req ChartRequest) (*ChartView, error) {
	c, err := s.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	v := &ChartView{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Kind:     c.Kind(),
		Config:   c.Config(),
		Empty:    c.Empty(),
		Length:   c.Length(),
	}
	if c.Kind() == chart.KindLine {
		g := c.Line()
		v.Line = &g
	} else {
		g := c.Candles()
		v.Candles = &g
	}
	return v, nil
}

// SVG renders req as an SVG document.
func (s *ChartService) SVG(ctx context.Context, req ChartRequest) ([]byte, error) {
	c, err := s.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	opts := svg.Options{Title: req.Symbol + " " + req.Interval}
	if c.Kind() == chart.KindLine {
		return svg.Line(c.Config(), c.Line(), opts), nil
	}
	return svg.Candles(c.Config(), c.Candles(), opts), nil
}

// Touch resolves pixel x on the chart for req to the datum under it.
func (s *ChartService) Touch(ctx context.Context, req ChartRequest, x float64) (*TouchResult, error) {
	c, err := s.open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	res := &TouchResult{X: x, Index: -1}
	if !c.PointerDown(x, 0) {
		return res, nil
	}
	state, _ := c.Tooltip()
	d, ok := c.Datum(state.Index)
	if !ok {
		return res, nil
	}
	res.Hit = true
	res.Index = state.Index
	res.Datum = &d
	return res, nil
}
