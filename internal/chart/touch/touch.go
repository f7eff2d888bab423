// Package touch resolves pointer positions to series indices.
package touch

import (
	"math"

	"cryptoview/internal/chart/scale"
)

// Mode selects how a pixel is turned into an index.
type Mode int

const (
	// Continuous inverts a linear x scale and rounds to the nearest index.
	// Line charts use it.
	Continuous Mode = iota
	// Banded floors into equal-width slots. Candlestick charts use it.
	Banded
)

func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case Banded:
		return "banded"
	default:
		return "unknown"
	}
}

// Margins is the padding between the chart edge and the plotting area.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Inner returns the horizontal pixel range left after removing margins from
// a chart of the given width. A width narrower than the margins yields an
// empty range at Left.
func (m Margins) Inner(width float64) scale.Range {
	return scale.Range{Min: m.Left, Max: max(m.Left, width-m.Right)}
}

// Resolver maps a pointer x coordinate to an index in [0, Length). It holds
// no mutable state.
type Resolver struct {
	Mode   Mode
	X      scale.Linear
	Band   scale.Band
	Length int
}

// NewContinuous returns a resolver that inverts x over length samples.
func NewContinuous(x scale.Linear, length int) Resolver {
	return Resolver{Mode: Continuous, X: x, Length: length}
}

// NewBanded returns a resolver over the same band scale used for drawing.
func NewBanded(band scale.Band) Resolver {
	return Resolver{Mode: Banded, Band: band, Length: band.Len()}
}

// Resolve returns the index under px. It reports false when px maps
// outside the series.
func (r Resolver) Resolve(px float64) (int, bool) {
	if r.Length <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
		return 0, false
	}
	switch r.Mode {
	case Continuous:
		f := math.Round(r.X.Invert(px))
		if f < 0 || f >= float64(r.Length) {
			return 0, false
		}
		return int(f), true
	case Banded:
		idx, ok := r.Band.Index(px)
		if !ok || idx >= r.Length {
			return 0, false
		}
		return idx, true
	default:
		return 0, false
	}
}

