package chart

import (
	"errors"
	"fmt"
	"time"

	"cryptoview/internal/chart/geometry"
	"cryptoview/internal/chart/reveal"
	"cryptoview/internal/chart/tooltip"
	"cryptoview/internal/chart/touch"
)

// ErrInvalidConfig is returned for configurations that violate the engine's
// contract, such as a negative point cap.
var ErrInvalidConfig = errors.New("invalid chart config")

// Config controls how a chart is reduced, scaled and animated.
type Config struct {
	MaxDataPoints int              `json:"max_data_points"`
	Width         float64          `json:"width"`
	Height        float64          `json:"height"`
	StrokeColor   string           `json:"stroke_color"`
	MAPeriod      int              `json:"ma_period"`
	Static        bool             `json:"static"`
	Margins       touch.Margins    `json:"margins"`
	BandPadding   float64          `json:"band_padding"`
	VolumeRatio   float64          `json:"volume_ratio"`
	GridLines     int              `json:"grid_lines"`
	Palette       geometry.Palette `json:"palette"`
	Overlays      Overlays         `json:"overlays"`

	RevealDuration time.Duration `json:"-"`
	DismissDelay   time.Duration `json:"-"`
}

// Overlays selects optional indicator lines on candle charts. The moving
// average is always drawn when enough candles exist.
type Overlays struct {
	EMA       bool `json:"ema"`
	EMAPeriod int  `json:"ema_period"`
	Bollinger bool `json:"bollinger"`
}

// DefaultConfig returns the defaults used by the app's chart screens.
func DefaultConfig() Config {
	return Config{
		MaxDataPoints:  30,
		Width:          375,
		Height:         220,
		StrokeColor:    "#f7931a",
		MAPeriod:       20,
		Static:         true,
		Margins:        touch.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8},
		BandPadding:    0.2,
		VolumeRatio:    0.2,
		GridLines:      4,
		Palette:        geometry.DefaultPalette,
		Overlays:       Overlays{EMAPeriod: 12},
		RevealDuration: reveal.LineDuration,
		DismissDelay:   tooltip.DismissDelay,
	}
}

// Validate reports contract violations. It is called by New and should be
// called by hosts that use the Build functions directly.
func (c Config) Validate() error {
	switch {
	case c.MaxDataPoints < 0:
		return fmt.Errorf("%w: max data points %d is negative", ErrInvalidConfig, c.MaxDataPoints)
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("%w: size %gx%g is negative", ErrInvalidConfig, c.Width, c.Height)
	case c.MAPeriod < 0:
		return fmt.Errorf("%w: moving average period %d is negative", ErrInvalidConfig, c.MAPeriod)
	case c.BandPadding < 0 || c.BandPadding >= 1:
		return fmt.Errorf("%w: band padding %g outside [0,1)", ErrInvalidConfig, c.BandPadding)
	case c.VolumeRatio < 0 || c.VolumeRatio >= 1:
		return fmt.Errorf("%w: volume ratio %g outside [0,1)", ErrInvalidConfig, c.VolumeRatio)
	case c.GridLines < 0:
		return fmt.Errorf("%w: grid line count %d is negative", ErrInvalidConfig, c.GridLines)
	}
	return nil
}

// plotArea returns the inner rectangle left after margins. It never flips:
// a viewport smaller than its margins collapses to an empty plot.
func (c Config) plotArea() (left, right, top, bottom float64) {
	x := c.Margins.Inner(c.Width)
	left, right, top = x.Min, x.Max, c.Margins.Top
	bottom = max(top, c.Height-c.Margins.Bottom)
	return left, right, top, bottom
}
