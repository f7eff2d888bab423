// Package tooltip tracks the lifecycle of a chart tooltip from touch-start
// through release to auto-dismiss.
package tooltip

import (
	"sync"
	"time"
)

// DismissDelay is how long a released tooltip stays on screen.
const DismissDelay = 2000 * time.Millisecond

// Phase is the tooltip lifecycle stage.
type Phase int

const (
	Hidden Phase = iota
	Visible
	FadingOut
)

func (p Phase) String() string {
	switch p {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	case FadingOut:
		return "fading-out"
	default:
		return "unknown"
	}
}

// State is what the overlay renders. Visible is false while fading out.
type State struct {
	Index   int     `json:"index"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// Timer is a pending dismissal.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, f func()) Timer

func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) Timer {
	return fn(d, f)
}

// RealScheduler schedules with time.AfterFunc.
var RealScheduler Scheduler = SchedulerFunc(func(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
})

// Machine is the tooltip state machine. Dismissal timers run on
// RealScheduler unless WithoutScheduler hands them to the host, which then
// calls Expire with the generation returned by Release.
type Machine struct {
	mu        sync.Mutex
	phase     Phase
	state     State
	gen       uint64
	timer     Timer
	delay     time.Duration
	scheduler Scheduler
	closed    bool
	onChange  func(Phase, State)
}

// Option configures a Machine.
type Option func(*Machine)

// WithDelay overrides DismissDelay.
func WithDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithScheduler sets the scheduler used for dismissal timers.
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) { m.scheduler = s }
}

// WithoutScheduler leaves dismissal to the host.
func WithoutScheduler() Option {
	return func(m *Machine) { m.scheduler = nil }
}

// OnChange registers a callback invoked after every transition. It runs
// without the machine's lock held.
func OnChange(fn func(Phase, State)) Option {
	return func(m *Machine) { m.onChange = fn }
}

// New returns a hidden tooltip machine.
func New(opts ...Option) *Machine {
	m := &Machine{delay: DismissDelay, scheduler: RealScheduler}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Delay returns the dismissal delay.
func (m *Machine) Delay() time.Duration {
	return m.delay
}

// Touch shows the tooltip at index, replacing any previous state and
// cancelling a pending dismissal.
func (m *Machine) Touch(index int, x, y float64) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.cancelLocked()
	m.phase = Visible
	m.state = State{Index: index, X: x, Y: y, Visible: true}
	phase, state := m.phase, m.state
	m.mu.Unlock()

	m.notify(phase, state)
}

// Release starts fading a visible tooltip out and schedules its dismissal.
// It returns the generation of the new timer, or 0 when nothing was visible.
func (m *Machine) Release() uint64 {
	m.mu.Lock()
	if m.closed || m.phase != Visible {
		m.mu.Unlock()
		return 0
	}
	m.cancelLocked()
	m.phase = FadingOut
	m.state.Visible = false
	gen := m.gen
	if m.scheduler != nil {
		m.timer = m.scheduler.AfterFunc(m.delay, func() { m.Expire(gen) })
	}
	phase, state := m.phase, m.state
	m.mu.Unlock()

	m.notify(phase, state)
	return gen
}

// Move re-anchors a shown tooltip without changing its phase or its pending
// dismissal. It reports whether a tooltip was shown.
func (m *Machine) Move(index int, x, y float64) bool {
	m.mu.Lock()
	if m.closed || m.phase == Hidden {
		m.mu.Unlock()
		return false
	}
	m.state.Index, m.state.X, m.state.Y = index, x, y
	phase, state := m.phase, m.state
	m.mu.Unlock()

	m.notify(phase, state)
	return true
}

// Expire hides a fading tooltip if gen is still the current timer. It
// reports whether the tooltip was dismissed.
func (m *Machine) Expire(gen uint64) bool {
	m.mu.Lock()
	if m.closed || m.phase != FadingOut || gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.timer = nil
	m.phase = Hidden
	m.state = State{}
	m.mu.Unlock()

	m.notify(Hidden, State{})
	return true
}

// Dismiss hides the tooltip immediately and cancels any pending timer.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	if m.closed || m.phase == Hidden {
		m.mu.Unlock()
		return
	}
	m.cancelLocked()
	m.phase = Hidden
	m.state = State{}
	m.mu.Unlock()

	m.notify(Hidden, State{})
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// State returns the tooltip state and whether one exists.
func (m *Machine) State() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == Hidden {
		return State{}, false
	}
	return m.state, true
}

// Generation returns the generation of the most recent dismissal timer.
func (m *Machine) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Close stops any pending timer. Later calls are no-ops.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.closed = true
}

// cancelLocked invalidates the pending timer, if any, by stopping it and
// moving to a new generation.
func (m *Machine) cancelLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Machine) notify(phase Phase, state State) {
	if m.onChange != nil {
		m.onChange(phase, state)
	}
}
