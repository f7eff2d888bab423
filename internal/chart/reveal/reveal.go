// Package reveal animates a stroke from hidden to fully drawn by shrinking
// its dash offset from the path length to zero.
package reveal

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	// LineDuration is the reveal time for line and sparkline strokes.
	LineDuration = 500 * time.Millisecond
	// LogoDuration is the reveal time for logo strokes.
	LogoDuration = 2000 * time.Millisecond
	// FrameInterval is the frame pacing used when a host does not pick one.
	FrameInterval = time.Second / 60
)

// Animator owns the dash offset of one stroke.
type Animator struct {
	mu       sync.Mutex
	total    float64
	duration time.Duration
	static   bool

	offset    float64
	start     time.Time
	running   bool
	cancelled bool
}

// New returns an animator for a stroke of length total. A static animator
// is fully revealed from the start and never animates.
func New(total float64, duration time.Duration, static bool) *Animator {
	if total < 0 || math.IsNaN(total) {
		total = 0
	}
	a := &Animator{total: total, duration: duration, static: static}
	if !static {
		a.offset = total
	}
	return a
}

// Start begins the animation at now. Static animators ignore it.
func (a *Animator) Start(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startLocked(now)
}

// Reset replays the animation for a stroke of length total.
func (a *Animator) Reset(total float64, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if total < 0 || math.IsNaN(total) {
		total = 0
	}
	a.total = total
	a.offset = total
	if a.static {
		a.offset = 0
	}
	a.cancelled = false
	a.startLocked(now)
}

func (a *Animator) startLocked(now time.Time) {
	if a.static || a.cancelled {
		a.running = false
		return
	}
	a.start = now
	a.running = a.total > 0 && a.duration > 0
	if !a.running {
		a.offset = 0
	}
}

// SetTotal updates the stroke length for new data without replaying. A
// finished or static stroke stays fully revealed; a running one keeps its
// progress fraction.
func (a *Animator) SetTotal(total float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if total < 0 || math.IsNaN(total) {
		total = 0
	}
	switch {
	case a.static:
		a.offset = 0
	case a.total > 0:
		a.offset = a.offset / a.total * total
	case a.start.IsZero() && !a.cancelled:
		a.offset = total
	default:
		a.offset = 0
	}
	a.total = total
}

// Tick advances the animation to now and returns the dash offset and
// whether the animation has finished.
func (a *Animator) Tick(now time.Time) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return a.offset, !a.pendingLocked()
	}

	elapsed := now.Sub(a.start)
	frac := float64(elapsed) / float64(a.duration)
	if frac < 0 {
		frac = 0
	}
	next := a.total * (1 - frac)
	if next < 0 {
		next = 0
	}
	if next < a.offset {
		a.offset = next
	}
	if a.offset == 0 {
		a.running = false
	}
	return a.offset, !a.running
}

// pendingLocked reports whether the animator is waiting for Start.
func (a *Animator) pendingLocked() bool {
	return !a.static && !a.cancelled && a.start.IsZero() && a.offset > 0
}

// Offset returns the current dash offset.
func (a *Animator) Offset() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

// Revealed returns the visible length of the stroke.
func (a *Animator) Revealed() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total - a.offset
}

// Total returns the stroke length.
func (a *Animator) Total() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Running reports whether frames are still being produced.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Static reports whether the animator skips animation.
func (a *Animator) Static() bool {
	return a.static
}

// Cancel freezes the stroke at its current offset. Cancelled animators
// ignore Start until Reset.
func (a *Animator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	a.cancelled = true
}

// Run starts the animation and calls onFrame with each new offset every
// interval until it finishes or ctx is done. The last frame always reports
// the final offset. Static animators produce no frames. A non-positive
// interval runs at FrameInterval.
func (a *Animator) Run(ctx context.Context, interval time.Duration, onFrame func(offset float64)) error {
	if a.static {
		return nil
	}
	if interval <= 0 {
		interval = FrameInterval
	}
	a.Start(time.Now())
	offset, done := a.Tick(time.Now())
	onFrame(offset)
	if done {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.Cancel()
			return ctx.Err()
		case now := <-ticker.C:
			offset, done := a.Tick(now)
			onFrame(offset)
			if done {
				return nil
			}
		}
	}
}
