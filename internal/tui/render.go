package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cryptoview/internal/chart"
	"cryptoview/internal/chart/geometry"
)

var overlayColors = map[string]string{
	"ema":             emaColor,
	"bollinger_upper": bandColor,
	"bollinger_lower": bandColor,
}

func (m *AppModel) header() string {
	parts := []string{
		titleStyle.Render(m.symbol()),
		labelStyle.Render(m.interval() + " " + string(m.kind)),
	}
	if m.price != nil {
		change := fmt.Sprintf("%+.2f%%", m.price.Change24hPct)
		style := upStyle
		if m.price.Change24hPct < 0 {
			style = downStyle
		}
		parts = append(parts, "$"+formatPrice(m.price.PriceUSD), style.Render(change))
	}
	if m.overlays {
		parts = append(parts, labelStyle.Render("ema+bb"))
	}
	if m.loading {
		parts = append(parts, m.spinner.View())
	}
	if m.svc.Username != "" {
		parts = append(parts, labelStyle.Render("@"+m.svc.Username))
	}
	return strings.Join(parts, "  ")
}

// footer shows the tooltip, faint while it fades out.
func (m *AppModel) footer() string {
	if m.err != nil {
		return errStyle.Render("error: " + m.err.Error())
	}
	state, ok := m.chart.Tooltip()
	if !ok {
		if m.chart.Empty() && !m.loading {
			return labelStyle.Render("no candles stored yet")
		}
		return labelStyle.Render("click and drag on the chart to inspect")
	}
	d, ok := m.chart.Datum(state.Index)
	if !ok {
		return ""
	}
	if state.Visible {
		return tipStyle.Render(formatDatum(d))
	}
	return fadeStyle.Render(formatDatum(d))
}

func (m *AppModel) draw(cv *canvas) {
	if m.chart.Empty() {
		return
	}
	revealed := m.chart.Reveal().Revealed()
	full := revealed >= m.chart.Length()
	_, height := cv.pixelSize()

	if state, ok := m.chart.Tooltip(); ok {
		cv.line(geometry.Point{X: state.X, Y: 0}, geometry.Point{X: state.X, Y: height - 1}, crosshairColor)
	}

	if m.chart.Kind() == chart.KindLine {
		g := m.chart.Line()
		drawGrid(cv, g.Grid)
		if full {
			cv.polyline(g.Points, g.StrokeColor)
		} else {
			cv.partial(g.Points, revealed, g.StrokeColor)
		}
		return
	}

	g := m.chart.Candles()
	drawGrid(cv, g.Grid)
	limit := math.Inf(1)
	if !full {
		end, _ := geometry.PointAt(g.Trace, revealed)
		limit = end.X
	}
	for _, v := range g.Volume {
		if g.Band().Center(v.Index) <= limit {
			cv.fill(v.Rect, v.Color)
		}
	}
	for _, s := range g.Shapes {
		if s.Wick.From.X > limit {
			break
		}
		cv.line(s.Wick.From, s.Wick.To, s.Color)
		cv.fill(s.Body, s.Color)
	}
	for _, o := range g.Overlays {
		cv.polyline(prefix(o.Points, limit), overlayColors[o.Name])
	}
	cv.polyline(prefix(g.MovingAverage.Points, limit), maColor)
}

func drawGrid(cv *canvas, lines []geometry.GridLine) {
	for _, l := range lines {
		cv.line(l.Segment.From, l.Segment.To, gridColor)
	}
}

// prefix returns the leading points left of x.
func prefix(points []geometry.Point, x float64) []geometry.Point {
	for i, p := range points {
		if p.X > x {
			return points[:i]
		}
	}
	return points
}

func formatDatum(d chart.Datum) string {
	at := time.UnixMilli(d.Timestamp).UTC().Format("Jan 02 15:04")
	if d.Candle == nil {
		return fmt.Sprintf("%s  %s", at, formatPrice(d.Value))
	}
	c := d.Candle
	s := fmt.Sprintf("%s  O %s  H %s  L %s  C %s  V %s",
		at, formatPrice(c.Open), formatPrice(c.High), formatPrice(c.Low), formatPrice(c.Close), formatVolume(c.Volume))
	if d.Average != nil {
		s += "  MA " + formatPrice(*d.Average)
	}
	return s
}

func formatPrice(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("%.0f", v)
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

func formatVolume(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return fmt.Sprintf("%.0f", v)
}
