// Package scale maps data domains onto pixel ranges.
package scale

import "math"

// Domain is an interval on a value axis.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range is an interval on a pixel axis. Min may be greater than Max for
// inverted (vertical) axes.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max-Min, or 1 when the domain is degenerate.
func (d Domain) Span() float64 {
	s := d.Max - d.Min
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return s
}

// Degenerate reports whether every value of the domain is the same.
func (d Domain) Degenerate() bool {
	return d.Max == d.Min
}

// Include returns the domain widened to contain v.
func (d Domain) Include(v float64) Domain {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return d
	}
	return Domain{Min: math.Min(d.Min, v), Max: math.Max(d.Max, v)}
}

// Length returns the signed length of the range.
func (r Range) Length() float64 {
	return r.Max - r.Min
}

// Mid returns the centre of the range.
func (r Range) Mid() float64 {
	return r.Min + r.Length()/2
}

// Extent returns the smallest domain containing every finite value. It
// returns a zero domain and false when no value is finite.
func Extent(values ...float64) (Domain, bool) {
	var d Domain
	found := false
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found {
			d = Domain{Min: v, Max: v}
			found = true
			continue
		}
		d = d.Include(v)
	}
	return d, found
}

// Linear is a continuous linear scale.
type Linear struct {
	domain Domain
	rng    Range
	center bool
}

// NewLinear returns the linear scale from d onto r.
func NewLinear(d Domain, r Range) Linear {
	return Linear{domain: d, rng: r}
}

// CenterDegenerate returns a copy of the scale that maps every value to the
// middle of the range when the domain is degenerate.
func (l Linear) CenterDegenerate() Linear {
	l.center = true
	return l
}

// Domain returns the scale's domain.
func (l Linear) Domain() Domain { return l.domain }

// Range returns the scale's pixel range.
func (l Linear) Range() Range { return l.rng }

// Map converts a domain value to a pixel.
func (l Linear) Map(v float64) float64 {
	if l.center && l.domain.Degenerate() {
		return l.rng.Mid()
	}
	return l.rng.Min + (v-l.domain.Min)/l.domain.Span()*l.rng.Length()
}

// Invert converts a pixel back to a domain value.
func (l Linear) Invert(px float64) float64 {
	if l.rng.Length() == 0 || (l.center && l.domain.Degenerate()) {
		return l.domain.Min
	}
	return l.domain.Min + (px-l.rng.Min)/l.rng.Length()*l.domain.Span()
}

// Ticks returns count evenly spaced domain values from Min to Max inclusive.
func (l Linear) Ticks(count int) []float64 {
	if count < 2 {
		count = 2
	}
	out := make([]float64, count)
	step := (l.domain.Max - l.domain.Min) / float64(count-1)
	for i := range out {
		out[i] = l.domain.Min + step*float64(i)
	}
	out[count-1] = l.domain.Max
	return out
}

// Band divides a pixel range into n equal slots, one per index in [0, n).
// Padding is the fraction of each slot left empty, split evenly on both sides.
type Band struct {
	n       int
	rng     Range
	padding float64
}

// NewBand returns a band scale. Padding is clamped to [0, 1).
func NewBand(n int, r Range, padding float64) Band {
	if padding < 0 || math.IsNaN(padding) {
		padding = 0
	}
	if padding >= 1 {
		padding = 0.99
	}
	if n < 0 {
		n = 0
	}
	return Band{n: n, rng: r, padding: padding}
}

// Len returns the number of bands.
func (b Band) Len() int { return b.n }

// Range returns the pixel range the bands span.
func (b Band) Range() Range { return b.rng }

// Step returns the distance between the starts of adjacent bands.
func (b Band) Step() float64 {
	if b.n == 0 {
		return 0
	}
	return b.rng.Length() / float64(b.n)
}

// Bandwidth returns the drawn width of one band.
func (b Band) Bandwidth() float64 {
	return b.Step() * (1 - b.padding)
}

// Start returns the pixel where band i begins.
func (b Band) Start(i int) float64 {
	step := b.Step()
	return b.rng.Min + float64(i)*step + step*b.padding/2
}

// Center returns the pixel in the middle of band i.
func (b Band) Center(i int) float64 {
	return b.Start(i) + b.Bandwidth()/2
}

// Index returns the slot containing px. It reports false when px falls
// outside every slot.
func (b Band) Index(px float64) (int, bool) {
	step := b.Step()
	if step == 0 || math.IsNaN(px) {
		return 0, false
	}
	f := math.Floor((px - b.rng.Min) / step)
	if f < 0 || f >= float64(b.n) {
		return 0, false
	}
	return int(f), true
}
