// Package geometry turns scaled series into drawable primitives: polylines,
// SVG-style path descriptions, candle bodies and wicks, volume bars and grid
// lines.
package geometry

import (
	"math"
	"strconv"
	"strings"

	"cryptoview/internal/chart/scale"
	"cryptoview/internal/chart/series"
)

// MinBodyHeight keeps flat (open == close) candle bodies visible.
const MinBodyHeight = 1.0

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight line between two points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Palette holds the color tokens used for rising and falling candles.
type Palette struct {
	Bullish string `json:"bullish"`
	Bearish string `json:"bearish"`
}

// DefaultPalette is the green/red pair used across the app.
var DefaultPalette = Palette{Bullish: "#26a69a", Bearish: "#ef5350"}

// CandleShape is the drawable form of one candle.
type CandleShape struct {
	Index   int     `json:"index"`
	Wick    Segment `json:"wick"`
	Body    Rect    `json:"body"`
	Bullish bool    `json:"bullish"`
	Color   string  `json:"color"`
}

// Bar is one volume bar.
type Bar struct {
	Index int    `json:"index"`
	Rect  Rect   `json:"rect"`
	Color string `json:"color"`
}

// GridLine is a horizontal guide at a domain value.
type GridLine struct {
	Value   float64 `json:"value"`
	Segment Segment `json:"segment"`
}

// Polyline places one point per sample; x comes from the sample index.
func Polyline(samples []series.Sample, x, y scale.Linear) []Point {
	points := make([]Point, len(samples))
	for i, s := range samples {
		points[i] = Point{X: x.Map(float64(i)), Y: y.Map(s.Value)}
	}
	return points
}

// LinePath describes an open path through points ("M x y L x y ...").
func LinePath(points []Point) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		writeXY(&b, p)
	}
	return b.String()
}

// FillPath describes the closed area between points and a horizontal
// baseline: down to the baseline at the first x, along the data, back down
// at the last x, and closed.
func FillPath(points []Point, baseline float64) string {
	if len(points) == 0 {
		return ""
	}
	first, last := points[0], points[len(points)-1]

	var b strings.Builder
	b.WriteString("M")
	writeXY(&b, Point{X: first.X, Y: baseline})
	for _, p := range points {
		b.WriteString(" L")
		writeXY(&b, p)
	}
	b.WriteString(" L")
	writeXY(&b, Point{X: last.X, Y: baseline})
	b.WriteString(" Z")
	return b.String()
}

// PathLength sums the distances between consecutive points.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += distance(points[i-1], points[i])
	}
	return total
}

// PointAt walks length pixels along the path and returns where it ends,
// together with the index of the segment it ended on. Lengths past either
// end clamp to that end.
func PointAt(points []Point, length float64) (Point, int) {
	if len(points) == 0 {
		return Point{}, 0
	}
	if length <= 0 || len(points) == 1 {
		return points[0], 0
	}
	remaining := length
	for i := 1; i < len(points); i++ {
		d := distance(points[i-1], points[i])
		if remaining <= d {
			if d == 0 {
				return points[i], i - 1
			}
			t := remaining / d
			return Point{
				X: points[i-1].X + (points[i].X-points[i-1].X)*t,
				Y: points[i-1].Y + (points[i].Y-points[i-1].Y)*t,
			}, i - 1
		}
		remaining -= d
	}
	return points[len(points)-1], len(points) - 2
}

// Candles builds wick and body shapes for each candle. Candle i is drawn in
// band i. Malformed candles are widened rather than rejected.
func Candles(candles []series.Candle, band scale.Band, y scale.Linear, palette Palette) []CandleShape {
	shapes := make([]CandleShape, len(candles))
	for i, raw := range candles {
		c := raw.Normalized()
		mid := band.Center(i)

		top := y.Map(math.Max(c.Open, c.Close))
		bottom := y.Map(math.Min(c.Open, c.Close))
		if top > bottom {
			top, bottom = bottom, top
		}
		height := bottom - top
		if height < MinBodyHeight {
			height = MinBodyHeight
		}

		color := palette.Bearish
		if c.Bullish() {
			color = palette.Bullish
		}
		shapes[i] = CandleShape{
			Index: i,
			Wick: Segment{
				From: Point{X: mid, Y: y.Map(c.High)},
				To:   Point{X: mid, Y: y.Map(c.Low)},
			},
			Body: Rect{
				X:      band.Start(i),
				Y:      top,
				Width:  band.Bandwidth(),
				Height: height,
			},
			Bullish: c.Bullish(),
			Color:   color,
		}
	}
	return shapes
}

// VolumeBars builds one bar per candle from vy(0) up to vy(volume).
func VolumeBars(candles []series.Candle, band scale.Band, vy scale.Linear, palette Palette) []Bar {
	bars := make([]Bar, len(candles))
	base := vy.Map(0)
	for i, raw := range candles {
		c := raw.Normalized()
		top := vy.Map(c.Volume)
		y, h := top, base-top
		if h < 0 {
			y, h = base, -h
		}
		color := palette.Bearish
		if c.Bullish() {
			color = palette.Bullish
		}
		bars[i] = Bar{
			Index: i,
			Rect:  Rect{X: band.Start(i), Y: y, Width: band.Bandwidth(), Height: h},
			Color: color,
		}
	}
	return bars
}

// GridLines returns count horizontal lines spanning x0..x1 at evenly spaced
// values of y's domain.
func GridLines(y scale.Linear, count int, x0, x1 float64) []GridLine {
	if count <= 0 {
		return nil
	}
	ticks := y.Ticks(count)
	lines := make([]GridLine, len(ticks))
	for i, v := range ticks {
		py := y.Map(v)
		lines[i] = GridLine{
			Value:   v,
			Segment: Segment{From: Point{X: x0, Y: py}, To: Point{X: x1, Y: py}},
		}
	}
	return lines
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func writeXY(b *strings.Builder, p Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
}
