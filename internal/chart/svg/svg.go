// Package svg writes chart geometry as standalone SVG documents. Strokes
// carry stroke-dasharray and stroke-dashoffset so a browser can play the
// reveal animation.
package svg

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"cryptoview/internal/chart"
	"cryptoview/internal/chart/geometry"
)

const (
	background = "#0b0f17"
	gridColor  = "#1f2837"
	textColor  = "#e6edf3"
	maColor    = "#59a6ff"
)

var overlayColors = map[string]string{
	"ema":             "#c792ea",
	"bollinger_upper": "#8b949e",
	"bollinger_lower": "#8b949e",
}

// Options are presentation settings that are not part of the geometry.
type Options struct {
	Title string
}

// Line renders a line chart. An empty geometry yields a document with only
// the background.
func Line(cfg chart.Config, g chart.LineGeometry, opts Options) []byte {
	var b bytes.Buffer
	open(&b, cfg, opts)
	if !g.Empty() {
		grid(&b, g.Grid)
		fmt.Fprintf(&b, "<path d='%s' fill='%s' fill-opacity='0.12' stroke='none'/>", g.FillPath, html.EscapeString(g.StrokeColor))
		stroke(&b, cfg, g.Path, g.StrokeColor, 2, g.Length)
	}
	closeDoc(&b)
	return b.Bytes()
}

// Candles renders a candlestick chart with its volume pane and overlays.
func Candles(cfg chart.Config, g chart.CandleGeometry, opts Options) []byte {
	var b bytes.Buffer
	open(&b, cfg, opts)
	if !g.Empty() {
		grid(&b, g.Grid)
		for _, v := range g.Volume {
			fmt.Fprintf(&b, "<rect x='%.2f' y='%.2f' width='%.2f' height='%.2f' fill='%s' fill-opacity='0.4'/>",
				v.Rect.X, v.Rect.Y, v.Rect.Width, v.Rect.Height, html.EscapeString(v.Color))
		}
		for _, s := range g.Shapes {
			fmt.Fprintf(&b, "<line x1='%.2f' y1='%.2f' x2='%.2f' y2='%.2f' stroke='%s'/>",
				s.Wick.From.X, s.Wick.From.Y, s.Wick.To.X, s.Wick.To.Y, html.EscapeString(s.Color))
			fmt.Fprintf(&b, "<rect x='%.2f' y='%.2f' width='%.2f' height='%.2f' fill='%s'/>",
				s.Body.X, s.Body.Y, s.Body.Width, s.Body.Height, html.EscapeString(s.Color))
		}
		for _, o := range g.Overlays {
			if o.Length > 0 {
				stroke(&b, cfg, o.Path, overlayColors[o.Name], 1, o.Length)
			}
		}
		if g.MovingAverage.Length > 0 {
			stroke(&b, cfg, g.MovingAverage.Path, maColor, 1.5, g.MovingAverage.Length)
		}
	}
	closeDoc(&b)
	return b.Bytes()
}

func open(b *bytes.Buffer, cfg chart.Config, opts Options) {
	fmt.Fprintf(b, "<svg xmlns='http://www.w3.org/2000/svg' width='%g' height='%g' viewBox='0 0 %g %g'>",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
	if !cfg.Static {
		fmt.Fprintf(b, "<style>.reveal{animation:reveal %dms linear forwards}@keyframes reveal{to{stroke-dashoffset:0}}</style>",
			cfg.RevealDuration/time.Millisecond)
	}
	fmt.Fprintf(b, "<rect width='100%%' height='100%%' fill='%s'/>", background)
	if opts.Title != "" {
		fmt.Fprintf(b, "<text x='%g' y='16' fill='%s' font-family='Inter' font-size='12'>%s</text>",
			cfg.Margins.Left, textColor, html.EscapeString(opts.Title))
	}
}

func closeDoc(b *bytes.Buffer) {
	b.WriteString("</svg>")
}

func grid(b *bytes.Buffer, lines []geometry.GridLine) {
	for _, l := range lines {
		fmt.Fprintf(b, "<line x1='%.2f' y1='%.2f' x2='%.2f' y2='%.2f' stroke='%s'/>",
			l.Segment.From.X, l.Segment.From.Y, l.Segment.To.X, l.Segment.To.Y, gridColor)
	}
}

// stroke writes a path that starts hidden behind its dash offset when the
// chart animates, and fully drawn when it is static. Colors come from
// caller config and are escaped.
func stroke(b *bytes.Buffer, cfg chart.Config, d, color string, width, length float64) {
	offset, class := 0.0, ""
	if !cfg.Static {
		offset, class = length, " class='reveal'"
	}
	fmt.Fprintf(b, "<path%s d='%s' fill='none' stroke='%s' stroke-width='%g' stroke-linejoin='round' stroke-linecap='round' stroke-dasharray='%.2f' stroke-dashoffset='%.2f'/>",
		class, d, html.EscapeString(color), width, length, offset)
}
