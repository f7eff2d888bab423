package chart

import (
	"errors"
	"math"
	"testing"
	"time"

	"cryptoview/internal/chart/series"
	"cryptoview/internal/chart/tooltip"
	"cryptoview/internal/chart/touch"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 100
	cfg.Height = 50
	cfg.Margins = touch.Margins{}
	cfg.GridLines = 0
	cfg.VolumeRatio = 0
	return cfg
}

func rising(n int) []series.Candle {
	candles := make([]series.Candle, n)
	for i := range candles {
		f := float64(i)
		candles[i] = series.Candle{
			Timestamp: int64(i) * 60,
			Open:      f + 1,
			High:      f + 3,
			Low:       f,
			Close:     f + 2,
			Volume:    10,
		}
	}
	return candles
}

func samples(values ...float64) []series.Sample {
	out := make([]series.Sample, len(values))
	for i, v := range values {
		out[i] = series.Sample{Timestamp: int64(i), Value: v}
	}
	return out
}

func TestBuildLine(t *testing.T) {
	g := BuildLine(testConfig(), samples(0, 10, 5))
	if g.Empty() {
		t.Fatal("expected a drawable line")
	}
	if g.Path != "M0.00 50.00 L50.00 0.00 L100.00 25.00" {
		t.Fatalf("unexpected path %q", g.Path)
	}
	want := 50*math.Sqrt2 + math.Sqrt(50*50+25*25)
	if math.Abs(g.Length-want) > 1e-9 {
		t.Fatalf("length %f, want %f", g.Length, want)
	}
	if g.Baseline != 50 {
		t.Fatalf("baseline %f, want 50", g.Baseline)
	}
	if g.FillPath == "" {
		t.Fatal("expected a fill path")
	}
}

func TestBuildLineDownsamples(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	g := BuildLine(testConfig(), samples(values...))
	if len(g.Points) != 25 {
		t.Fatalf("expected 25 points with stride 4, got %d", len(g.Points))
	}
	if g.Samples[1].Value != 4 {
		t.Fatalf("expected second point from sample 4, got %f", g.Samples[1].Value)
	}
}

func TestBuildLineDegenerateInputs(t *testing.T) {
	cfg := testConfig()

	if g := BuildLine(cfg, nil); !g.Empty() || g.Path != "" {
		t.Fatal("empty input must draw nothing")
	}
	if g := BuildLine(cfg, samples(42)); !g.Empty() || g.Path != "" || g.FillPath != "" {
		t.Fatal("single sample must draw nothing")
	}

	cfg.MaxDataPoints = 0
	if g := BuildLine(cfg, samples(1, 2, 3)); !g.Empty() || len(g.Points) != 0 {
		t.Fatal("zero point cap must draw nothing")
	}

	g := BuildLine(testConfig(), samples(7, 7, 7))
	for _, p := range g.Points {
		if p.Y != 25 {
			t.Fatalf("flat series should sit on the midline, got y=%f", p.Y)
		}
	}

	g = BuildLine(testConfig(), samples(1, math.NaN(), 3, math.Inf(1)))
	if len(g.Points) != 2 {
		t.Fatalf("non-finite samples must be dropped, got %d points", len(g.Points))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDataPoints = -1
	if _, err := New(KindLine, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := New(Kind("pie"), testConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown kind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{"": KindLine, "line": KindLine, "candles": KindCandle, "candlestick": KindCandle}
	for in, want := range cases {
		got, ok := ParseKind(in)
		if !ok || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseKind("pie"); ok {
		t.Fatal("unknown kind accepted")
	}
}

func TestBuildCandlesShapes(t *testing.T) {
	cfg := testConfig()
	cfg.VolumeRatio = 0.2
	candles := []series.Candle{
		{Timestamp: 1, Open: 10, High: 12, Low: 9, Close: 11, Volume: 5},
		{Timestamp: 2, Open: 11, High: 11.5, Low: 10.5, Close: 11, Volume: 10},
		{Timestamp: 3, Open: 11, High: 11, Low: 8, Close: 8, Volume: 0},
	}
	g := BuildCandles(cfg, candles)
	if len(g.Shapes) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(g.Shapes))
	}
	if !g.Shapes[0].Bullish || g.Shapes[0].Color != cfg.Palette.Bullish {
		t.Fatal("first candle should be bullish")
	}
	if g.Shapes[2].Bullish || g.Shapes[2].Color != cfg.Palette.Bearish {
		t.Fatal("last candle should be bearish")
	}
	if g.Shapes[1].Body.Height != 1 {
		t.Fatalf("doji body must be 1px, got %f", g.Shapes[1].Body.Height)
	}
	if len(g.Volume) != 3 || g.Volume[2].Rect.Height != 0 {
		t.Fatalf("unexpected volume bars %+v", g.Volume)
	}
	if g.Volume[1].Rect.Height != 10 {
		t.Fatalf("largest volume should fill the 10px pane, got %f", g.Volume[1].Rect.Height)
	}
	for _, s := range g.Shapes {
		if s.Wick.From.Y > 40 || s.Wick.To.Y > 40 {
			t.Fatalf("price shapes must stay above the volume pane: %+v", s.Wick)
		}
	}
	if g.MovingAverage.Length != 0 || len(g.MovingAverage.Points) != 0 {
		t.Fatal("moving average needs a full period of candles")
	}
}

func TestBuildCandlesMovingAverageAlignment(t *testing.T) {
	cfg := testConfig()
	g := BuildCandles(cfg, rising(25))
	ma := g.MovingAverage
	if len(ma.Points) != 6 {
		t.Fatalf("expected 6 average points, got %d", len(ma.Points))
	}
	if ma.Positions[0] != 19 {
		t.Fatalf("first average should sit on candle 19, got %d", ma.Positions[0])
	}
	if ma.Points[0].X != g.Band().Center(19) {
		t.Fatalf("average point not centered on its candle: %f", ma.Points[0].X)
	}
	// Closes are i+2, so the mean of candles 0..19 is 11.5.
	if ma.Values[0] != 11.5 {
		t.Fatalf("expected 11.5, got %f", ma.Values[0])
	}
}

func TestBuildCandlesReducedAlignment(t *testing.T) {
	g := BuildCandles(testConfig(), rising(60))
	if len(g.Candles) != 30 {
		t.Fatalf("expected 30 candles with stride 2, got %d", len(g.Candles))
	}
	ma := g.MovingAverage
	if len(ma.Points) != 20 {
		t.Fatalf("expected 20 visible average points, got %d", len(ma.Points))
	}
	if ma.Positions[0] != 10 || g.SourceIndex[10] != 20 {
		t.Fatalf("first average should sit on reduced candle 10 (source 20), got %d", ma.Positions[0])
	}
	// Mean of closes 3..22 computed on the unreduced series.
	if ma.Values[0] != 12.5 {
		t.Fatalf("expected 12.5, got %f", ma.Values[0])
	}
}

func TestBuildCandlesOverlays(t *testing.T) {
	cfg := testConfig()
	cfg.Overlays = Overlays{EMA: true, EMAPeriod: 5, Bollinger: true}
	g := BuildCandles(cfg, rising(30))
	names := map[string]bool{}
	for _, o := range g.Overlays {
		names[o.Name] = len(o.Points) > 0
	}
	for _, n := range []string{"ema", "bollinger_upper", "bollinger_lower"} {
		if !names[n] {
			t.Fatalf("missing overlay %s in %v", n, names)
		}
	}
}

func TestCandleTouchUsesDrawingBand(t *testing.T) {
	c, err := New(KindCandle, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	c.SetCandles(rising(4))

	// Four bands of 25px. The gap between bodies still belongs to a band.
	if !c.PointerDown(26, 0) {
		t.Fatal("expected a hit")
	}
	st, ok := c.Tooltip()
	if !ok || st.Index != 1 || st.X != c.Candles().Band().Center(1) {
		t.Fatalf("unexpected tooltip %+v", st)
	}
	if c.PointerMove(120, 0) {
		t.Fatal("move outside the plot must not hit")
	}
	if st, _ := c.Tooltip(); st.Index != 1 {
		t.Fatalf("miss must keep the last index, got %d", st.Index)
	}
	c.PointerMove(99, 0)
	if st, _ := c.Tooltip(); st.Index != 3 {
		t.Fatalf("expected index 3, got %d", st.Index)
	}
}

func TestLineTooltipLifecycle(t *testing.T) {
	c, err := New(KindLine, testConfig(), tooltip.WithoutScheduler())
	if err != nil {
		t.Fatal(err)
	}
	c.SetSamples(samples(0, 10, 5))

	if c.PointerMove(50, 0) {
		t.Fatal("move without press must be ignored")
	}
	if c.TooltipPhase() != tooltip.Hidden {
		t.Fatal("tooltip should still be hidden")
	}

	c.PointerDown(30, 0)
	st, ok := c.Tooltip()
	if !ok || st.Index != 1 || st.X != 50 || st.Y != 0 {
		t.Fatalf("expected snapped tooltip on point 1, got %+v", st)
	}

	gen := c.PointerUp()
	if c.TooltipPhase() != tooltip.FadingOut {
		t.Fatalf("expected fading, got %s", c.TooltipPhase())
	}
	if st, ok := c.Tooltip(); !ok || st.Index != 1 || st.Visible {
		t.Fatalf("fading tooltip keeps its position, got %+v", st)
	}

	c.PointerDown(90, 0)
	if c.ExpireTooltip(gen) {
		t.Fatal("stale dismissal must be ignored")
	}
	gen = c.PointerUp()
	if !c.ExpireTooltip(gen) {
		t.Fatal("current dismissal should hide the tooltip")
	}
	if _, ok := c.Tooltip(); ok {
		t.Fatal("tooltip should be hidden")
	}
	if c.PointerUp() != 0 {
		t.Fatal("release without press must be a no-op")
	}
}

func TestTooltipAutoDismissWithDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.DismissDelay = 20 * time.Millisecond
	c, err := New(KindLine, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.SetSamples(samples(0, 10, 5))

	c.PointerDown(50, 0)
	c.PointerUp()

	deadline := time.Now().Add(time.Second)
	for c.TooltipPhase() != tooltip.Hidden {
		if time.Now().After(deadline) {
			t.Fatalf("released tooltip never dismissed: phase=%s", c.TooltipPhase())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTouchOnEmptyChart(t *testing.T) {
	c, err := New(KindLine, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	c.SetSamples(samples(3))
	if c.PointerDown(0, 0) {
		t.Fatal("a chart with nothing drawn must not resolve touches")
	}
	if c.TooltipPhase() != tooltip.Hidden {
		t.Fatal("tooltip must stay hidden")
	}
}

func TestNewDataRetargetsTooltip(t *testing.T) {
	c, _ := New(KindLine, testConfig(), tooltip.WithoutScheduler())
	c.SetSamples(samples(1, 2, 3))
	c.PointerDown(50, 0)

	c.SetSamples(samples(1, 2, 3))
	st, ok := c.Tooltip()
	if !ok || !st.Visible || st.Index != 1 {
		t.Fatalf("unchanged data must keep the tooltip, got %+v ok=%v", st, ok)
	}
	if !c.Pressed() {
		t.Fatal("a drag must survive a data refresh")
	}

	c.SetSamples(samples(1, 2, 3, 4, 5))
	st, _ = c.Tooltip()
	if st.Index != 2 || st.X != 50 || st.Y != c.Line().Points[2].Y {
		t.Fatalf("tooltip should move to the datum under x=50, got %+v", st)
	}

	gen := c.PointerUp()
	c.SetSamples(samples(5, 4, 3, 2, 1))
	if c.TooltipPhase() != tooltip.FadingOut {
		t.Fatalf("refresh must not end the fade, got %s", c.TooltipPhase())
	}
	if !c.ExpireTooltip(gen) {
		t.Fatal("the pending dismissal should still apply after a refresh")
	}
}

func TestEmptyDataDropsTooltip(t *testing.T) {
	c, _ := New(KindLine, testConfig())
	c.SetSamples(samples(1, 2, 3))
	c.PointerDown(100, 0)
	c.SetSamples(nil)
	if _, ok := c.Tooltip(); ok {
		t.Fatal("tooltip must be dropped when nothing is drawn")
	}
	if c.Pressed() {
		t.Fatal("press must be dropped when nothing is drawn")
	}
}

func TestRevealFollowsData(t *testing.T) {
	cfg := testConfig()
	cfg.Static = false
	c, err := New(KindLine, cfg)
	if err != nil {
		t.Fatal(err)
	}
	c.SetSamples(samples(0, 10, 5))
	if c.Reveal().Offset() != c.Length() {
		t.Fatalf("unstarted stroke should be hidden, offset %f", c.Reveal().Offset())
	}

	c.Replay(epoch)
	c.Reveal().Tick(epoch.Add(cfg.RevealDuration))
	if c.Reveal().Offset() != 0 {
		t.Fatal("stroke should be fully drawn after the reveal")
	}

	c.SetSamples(samples(0, 10, 5, 20))
	if c.Reveal().Offset() != 0 || c.Reveal().Running() {
		t.Fatal("new data must not replay the reveal")
	}
	if c.Reveal().Total() != c.Length() {
		t.Fatal("animator must track the new stroke length")
	}

	c.Replay(epoch.Add(time.Second))
	if c.Reveal().Offset() != c.Length() || !c.Reveal().Running() {
		t.Fatal("replay should hide and restart the stroke")
	}
}

func TestStaticChartIsDrawnImmediately(t *testing.T) {
	c, _ := New(KindLine, testConfig())
	c.SetSamples(samples(0, 10, 5))
	c.Replay(epoch)
	if c.Reveal().Offset() != 0 || c.Reveal().Running() {
		t.Fatal("static chart must never animate")
	}
}

func TestDatum(t *testing.T) {
	c, _ := New(KindCandle, testConfig())
	c.SetCandles(rising(25))

	d, ok := c.Datum(19)
	if !ok || d.Candle == nil || d.Average == nil {
		t.Fatalf("expected candle with average, got %+v", d)
	}
	if d.Value != 21 || *d.Average != 11.5 {
		t.Fatalf("unexpected datum %+v avg=%f", d, *d.Average)
	}
	if d, _ := c.Datum(0); d.Average != nil {
		t.Fatal("warm-up candles have no average")
	}
	if _, ok := c.Datum(25); ok {
		t.Fatal("out of range index accepted")
	}
}

func TestResizeKeepsData(t *testing.T) {
	c, _ := New(KindCandle, testConfig())
	c.SetCandles(rising(60))
	if err := c.Resize(200, 100); err != nil {
		t.Fatal(err)
	}
	if len(c.Candles().MovingAverage.Points) != 20 {
		t.Fatal("resize must rebuild from the unreduced candles")
	}
	if c.Candles().Band().Range().Max != 200 {
		t.Fatal("resize must widen the band")
	}
	if err := c.Resize(-1, 10); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
