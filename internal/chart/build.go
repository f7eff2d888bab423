// Package chart composes the series reducer, scales, geometry builder and
// overlays into line and candlestick charts, and owns the per-chart
// interaction state (touch resolution, tooltip, reveal animation).
package chart

import (
	"cryptoview/internal/chart/geometry"
	"cryptoview/internal/chart/scale"
	"cryptoview/internal/chart/series"
	"cryptoview/internal/chart/touch"
	"cryptoview/internal/ta"
)

// Kind is the chart style.
type Kind string

const (
	KindLine   Kind = "line"
	KindCandle Kind = "candle"
)

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindLine, "sparkline", "":
		return KindLine, true
	case KindCandle, "candles", "candlestick":
		return KindCandle, true
	}
	return "", false
}

// LineGeometry is everything needed to draw a line or sparkline chart.
type LineGeometry struct {
	Samples     []series.Sample     `json:"samples"`
	Points      []geometry.Point    `json:"points"`
	Path        string              `json:"path"`
	FillPath    string              `json:"fill_path"`
	Baseline    float64             `json:"baseline"`
	Length      float64             `json:"length"`
	Domain      scale.Domain        `json:"domain"`
	Grid        []geometry.GridLine `json:"grid"`
	StrokeColor string              `json:"stroke_color"`

	x scale.Linear
	y scale.Linear
}

// Empty reports whether there is too little data to draw a stroke.
func (g LineGeometry) Empty() bool {
	return g.Length <= 0
}

// XScale returns the index-to-pixel scale.
func (g LineGeometry) XScale() scale.Linear { return g.x }

// YScale returns the value-to-pixel scale.
func (g LineGeometry) YScale() scale.Linear { return g.y }

// Overlay is an indicator polyline drawn over candles.
type Overlay struct {
	Name      string           `json:"name"`
	Positions []int            `json:"positions"`
	Values    []float64        `json:"values"`
	Points    []geometry.Point `json:"points"`
	Path      string           `json:"path"`
	Length    float64          `json:"length"`
}

// CandleGeometry is everything needed to draw a candlestick chart with a
// volume pane.
type CandleGeometry struct {
	Candles       []series.Candle        `json:"candles"`
	SourceIndex   []int                  `json:"source_index"`
	Shapes        []geometry.CandleShape `json:"shapes"`
	Volume        []geometry.Bar         `json:"volume"`
	MovingAverage Overlay                `json:"moving_average"`
	Overlays      []Overlay              `json:"overlays,omitempty"`
	Trace         []geometry.Point       `json:"trace"`
	Length        float64                `json:"length"`
	PriceDomain   scale.Domain           `json:"price_domain"`
	VolumeDomain  scale.Domain           `json:"volume_domain"`
	Grid          []geometry.GridLine    `json:"grid"`
	Bandwidth     float64                `json:"bandwidth"`

	band scale.Band
	y    scale.Linear
	vy   scale.Linear
}

// Empty reports whether there are no candles to draw.
func (g CandleGeometry) Empty() bool {
	return len(g.Shapes) == 0
}

// Band returns the band scale shared by drawing and touch resolution.
func (g CandleGeometry) Band() scale.Band { return g.band }

// YScale returns the price-to-pixel scale.
func (g CandleGeometry) YScale() scale.Linear { return g.y }

// VolumeScale returns the volume-to-pixel scale.
func (g CandleGeometry) VolumeScale() scale.Linear { return g.vy }

// BuildLine reduces samples and lays them out as a line chart.
func BuildLine(cfg Config, samples []series.Sample) LineGeometry {
	left, right, top, bottom := cfg.plotArea()
	reduced := series.Reduce(samples, cfg.MaxDataPoints)

	g := LineGeometry{
		Samples:     reduced,
		Baseline:    bottom,
		StrokeColor: cfg.StrokeColor,
	}
	g.x = scale.NewLinear(scale.Domain{Min: 0, Max: float64(max(len(reduced)-1, 0))}, scale.Range{Min: left, Max: right})
	if len(reduced) == 0 {
		g.y = scale.NewLinear(scale.Domain{}, scale.Range{Min: bottom, Max: top}).CenterDegenerate()
		return g
	}

	d, _ := scale.Extent(series.Values(reduced)...)
	g.Domain = d
	g.y = scale.NewLinear(d, scale.Range{Min: bottom, Max: top}).CenterDegenerate()
	g.Points = geometry.Polyline(reduced, g.x, g.y)
	g.Length = geometry.PathLength(g.Points)
	if g.Empty() {
		return g
	}
	g.Path = geometry.LinePath(g.Points)
	g.FillPath = geometry.FillPath(g.Points, bottom)
	g.Grid = geometry.GridLines(g.y, cfg.GridLines, left, right)
	return g
}

// BuildCandles reduces candles and lays them out with a volume pane and
// indicator overlays. Overlays are computed on the unreduced candles and
// drawn only at the candles that survive reduction.
func BuildCandles(cfg Config, candles []series.Candle) CandleGeometry {
	left, right, top, bottom := cfg.plotArea()
	valid := series.ValidCandles(candles)
	reduced, source := series.ReduceCandlesIndexed(valid, cfg.MaxDataPoints)

	volumeHeight := (bottom - top) * cfg.VolumeRatio
	priceBottom := bottom - volumeHeight

	g := CandleGeometry{
		Candles:     reduced,
		SourceIndex: source,
	}
	g.band = scale.NewBand(len(reduced), scale.Range{Min: left, Max: right}, cfg.BandPadding)
	g.Bandwidth = g.band.Bandwidth()
	if len(reduced) == 0 {
		g.y = scale.NewLinear(scale.Domain{}, scale.Range{Min: priceBottom, Max: top}).CenterDegenerate()
		g.vy = scale.NewLinear(scale.Domain{}, scale.Range{Min: bottom, Max: priceBottom})
		return g
	}

	position := make(map[int]int, len(source))
	for i, src := range source {
		position[src] = i
	}

	closes := make([]float64, len(valid))
	for i, c := range valid {
		closes[i] = c.Close
	}

	var overlayValues [][]ta.IndexedValue
	var overlayNames []string
	if cfg.MAPeriod > 0 {
		overlayNames = append(overlayNames, "sma")
		overlayValues = append(overlayValues, ta.MovingAverage(valid, cfg.MAPeriod))
	}
	if cfg.Overlays.EMA && cfg.Overlays.EMAPeriod > 0 {
		overlayNames = append(overlayNames, "ema")
		overlayValues = append(overlayValues, ta.Defined(ta.EMASeries(closes, cfg.Overlays.EMAPeriod)))
	}
	if cfg.Overlays.Bollinger && cfg.MAPeriod > 0 {
		_, upper, lower := ta.BollingerSeries(closes, cfg.MAPeriod, 2)
		overlayNames = append(overlayNames, "bollinger_upper", "bollinger_lower")
		overlayValues = append(overlayValues, ta.Defined(upper), ta.Defined(lower))
	}

	priceValues := make([]float64, 0, len(reduced)*2)
	var maxVolume float64
	for _, raw := range reduced {
		c := raw.Normalized()
		priceValues = append(priceValues, c.High, c.Low)
		maxVolume = max(maxVolume, c.Volume)
	}
	visible := make([][]ta.IndexedValue, len(overlayValues))
	for k, values := range overlayValues {
		for _, v := range values {
			if _, ok := position[v.Index]; ok {
				visible[k] = append(visible[k], v)
				priceValues = append(priceValues, v.Value)
			}
		}
	}

	g.PriceDomain, _ = scale.Extent(priceValues...)
	g.VolumeDomain = scale.Domain{Min: 0, Max: maxVolume}
	g.y = scale.NewLinear(g.PriceDomain, scale.Range{Min: priceBottom, Max: top}).CenterDegenerate()
	g.vy = scale.NewLinear(g.VolumeDomain, scale.Range{Min: bottom, Max: priceBottom})

	g.Shapes = geometry.Candles(reduced, g.band, g.y, cfg.Palette)
	if volumeHeight > 0 && maxVolume > 0 {
		g.Volume = geometry.VolumeBars(reduced, g.band, g.vy, cfg.Palette)
	}

	for k, values := range visible {
		o := Overlay{
			Name:      overlayNames[k],
			Positions: make([]int, len(values)),
			Values:    make([]float64, len(values)),
			Points:    make([]geometry.Point, len(values)),
		}
		for i, v := range values {
			pos := position[v.Index]
			o.Positions[i] = pos
			o.Values[i] = v.Value
			o.Points[i] = geometry.Point{X: g.band.Center(pos), Y: g.y.Map(v.Value)}
		}
		o.Path = geometry.LinePath(o.Points)
		o.Length = geometry.PathLength(o.Points)
		if o.Name == "sma" {
			g.MovingAverage = o
			continue
		}
		g.Overlays = append(g.Overlays, o)
	}

	g.Trace = make([]geometry.Point, len(reduced))
	for i, c := range reduced {
		g.Trace[i] = geometry.Point{X: g.band.Center(i), Y: g.y.Map(c.Close)}
	}
	g.Length = geometry.PathLength(g.Trace)
	g.Grid = geometry.GridLines(g.y, cfg.GridLines, left, right)
	return g
}

// Resolver returns the continuous resolver over the drawn points.
func (g LineGeometry) Resolver() touch.Resolver {
	return touch.NewContinuous(g.x, len(g.Points))
}

// Resolver returns the banded resolver sharing the drawing band scale.
func (g CandleGeometry) Resolver() touch.Resolver {
	return touch.NewBanded(g.band)
}
