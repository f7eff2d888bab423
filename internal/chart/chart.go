package chart

import (
	"fmt"
	"time"

	"cryptoview/internal/chart/geometry"
	"cryptoview/internal/chart/reveal"
	"cryptoview/internal/chart/series"
	"cryptoview/internal/chart/tooltip"
	"cryptoview/internal/chart/touch"
)

// Datum is the data under the tooltip.
type Datum struct {
	Index     int            `json:"index"`
	Timestamp int64          `json:"timestamp"`
	Value     float64        `json:"value"`
	Candle    *series.Candle `json:"candle,omitempty"`
	Average   *float64       `json:"average,omitempty"`
}

// Chart is one chart instance: its current geometry plus the interaction
// state driven by pointer events. Geometry and pointer methods are meant to
// be called from a single event loop; the tooltip machine and the reveal
// animator are safe to drive from timers.
type Chart struct {
	kind Kind
	cfg  Config

	samples []series.Sample
	candles []series.Candle
	line    LineGeometry
	candle  CandleGeometry

	resolver touch.Resolver
	tip      *tooltip.Machine
	anim     *reveal.Animator
	pressed  bool
}

// New validates cfg and returns an empty chart of the given kind. Tooltip
// options are passed to the underlying machine; the configured dismiss
// delay is applied first so options can override it.
func New(kind Kind, cfg Config, opts ...tooltip.Option) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if kind != KindLine && kind != KindCandle {
		return nil, fmt.Errorf("%w: unknown chart kind %q", ErrInvalidConfig, kind)
	}
	opts = append([]tooltip.Option{tooltip.WithDelay(cfg.DismissDelay)}, opts...)
	c := &Chart{
		kind: kind,
		cfg:  cfg,
		tip:  tooltip.New(opts...),
		anim: reveal.New(0, cfg.RevealDuration, cfg.Static),
	}
	c.rebuild(nil, nil)
	return c, nil
}

// Kind returns the chart style.
func (c *Chart) Kind() Kind { return c.kind }

// Config returns the chart's configuration.
func (c *Chart) Config() Config { return c.cfg }

// SetSamples replaces the data with a price series. Candle charts draw each
// sample as a flat candle. The reveal animation is not replayed.
func (c *Chart) SetSamples(samples []series.Sample) {
	if c.kind == KindLine {
		c.rebuild(samples, nil)
		return
	}
	candles := make([]series.Candle, len(samples))
	for i, s := range samples {
		candles[i] = series.Candle{Timestamp: s.Timestamp, Open: s.Value, High: s.Value, Low: s.Value, Close: s.Value}
	}
	c.rebuild(nil, candles)
}

// SetCandles replaces the data with candles. Line charts plot the closes.
func (c *Chart) SetCandles(candles []series.Candle) {
	if c.kind == KindLine {
		c.rebuild(series.Closes(candles), nil)
		return
	}
	c.rebuild(nil, candles)
}

// Resize changes the viewport and rebuilds the geometry from the current
// data.
func (c *Chart) Resize(width, height float64) error {
	next := c.cfg
	next.Width, next.Height = width, height
	if err := next.Validate(); err != nil {
		return err
	}
	c.cfg = next
	c.rebuild(c.samples, c.candles)
	return nil
}

func (c *Chart) rebuild(samples []series.Sample, candles []series.Candle) {
	c.samples, c.candles = samples, candles
	if c.kind == KindLine {
		c.line = BuildLine(c.cfg, samples)
		c.resolver = c.line.Resolver()
		if c.line.Empty() {
			c.resolver.Length = 0
		}
		c.anim.SetTotal(c.line.Length)
	} else {
		c.candle = BuildCandles(c.cfg, candles)
		c.resolver = c.candle.Resolver()
		c.anim.SetTotal(c.candle.Length)
	}
	c.retarget()
}

// retarget moves a shown tooltip onto the datum now under its x. A tooltip
// left with nothing under it is dropped along with the press.
func (c *Chart) retarget() {
	state, ok := c.tip.State()
	if !ok {
		return
	}
	idx, hit := c.resolver.Resolve(state.X)
	if !hit {
		c.pressed = false
		c.tip.Dismiss()
		return
	}
	p := c.anchor(idx)
	c.tip.Move(idx, p.X, p.Y)
}

// Line returns the line geometry. It is empty for candle charts.
func (c *Chart) Line() LineGeometry { return c.line }

// Candles returns the candle geometry. It is empty for line charts.
func (c *Chart) Candles() CandleGeometry { return c.candle }

// Length returns the length of the stroke driven by the reveal animator.
func (c *Chart) Length() float64 {
	if c.kind == KindLine {
		return c.line.Length
	}
	return c.candle.Length
}

// Empty reports whether there is nothing to draw.
func (c *Chart) Empty() bool {
	if c.kind == KindLine {
		return c.line.Empty()
	}
	return c.candle.Empty()
}

// Resolver returns the touch resolver for the current geometry.
func (c *Chart) Resolver() touch.Resolver { return c.resolver }

// Reveal returns the chart's reveal animator.
func (c *Chart) Reveal() *reveal.Animator { return c.anim }

// Replay restarts the reveal animation from a hidden stroke.
func (c *Chart) Replay(now time.Time) {
	c.anim.Reset(c.Length(), now)
}

// PointerDown starts a touch at (x, y). It reports whether a datum was hit.
func (c *Chart) PointerDown(x, y float64) bool {
	c.pressed = true
	return c.track(x)
}

// PointerMove follows a touch. Moves while no pointer is pressed are
// ignored.
func (c *Chart) PointerMove(x, y float64) bool {
	if !c.pressed {
		return false
	}
	return c.track(x)
}

// PointerUp ends a touch and starts the tooltip fade. It returns the
// dismissal generation, which hosts that opted out of the scheduler pass to
// ExpireTooltip once the delay has passed.
func (c *Chart) PointerUp() uint64 {
	if !c.pressed {
		return 0
	}
	c.pressed = false
	return c.tip.Release()
}

// Pressed reports whether a touch is in progress.
func (c *Chart) Pressed() bool { return c.pressed }

func (c *Chart) track(px float64) bool {
	idx, ok := c.resolver.Resolve(px)
	if !ok {
		return false
	}
	p := c.anchor(idx)
	c.tip.Touch(idx, p.X, p.Y)
	return true
}

// anchor returns the point the tooltip attaches to for index i.
func (c *Chart) anchor(i int) geometry.Point {
	if c.kind == KindLine {
		return c.line.Points[i]
	}
	return c.candle.Trace[i]
}

// ExpireTooltip dismisses a fading tooltip if gen is still current.
func (c *Chart) ExpireTooltip(gen uint64) bool {
	return c.tip.Expire(gen)
}

// Tooltip returns the tooltip state, or false when it is hidden.
func (c *Chart) Tooltip() (tooltip.State, bool) {
	return c.tip.State()
}

// TooltipPhase returns the tooltip lifecycle phase.
func (c *Chart) TooltipPhase() tooltip.Phase {
	return c.tip.Phase()
}

// DismissDelay returns how long a released tooltip stays on screen.
func (c *Chart) DismissDelay() time.Duration {
	return c.tip.Delay()
}

// Datum returns the data at reduced index i.
func (c *Chart) Datum(i int) (Datum, bool) {
	if c.kind == KindLine {
		if i < 0 || i >= len(c.line.Samples) {
			return Datum{}, false
		}
		s := c.line.Samples[i]
		return Datum{Index: i, Timestamp: s.Timestamp, Value: s.Value}, true
	}
	if i < 0 || i >= len(c.candle.Candles) {
		return Datum{}, false
	}
	candle := c.candle.Candles[i]
	d := Datum{Index: i, Timestamp: candle.Timestamp, Value: candle.Close, Candle: &candle}
	if avg, ok := c.averageAt(i); ok {
		d.Average = &avg
	}
	return d, true
}

func (c *Chart) averageAt(i int) (float64, bool) {
	ma := c.candle.MovingAverage
	for k, pos := range ma.Positions {
		if pos == i {
			return ma.Values[k], true
		}
	}
	return 0, false
}

// Close stops any pending tooltip timer and the reveal animation.
func (c *Chart) Close() {
	c.tip.Close()
	c.anim.Cancel()
}
