package console

import (
	"sync"
	"time"
)

// DefaultLoaderDelay is how long at least one command must stay pending
// before the loader becomes visible.
const DefaultLoaderDelay = 500 * time.Millisecond

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules the loader timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return realClock{} }

// Tracker counts in-flight commands and derives the loader signal from the
// count. The loader timer is armed on the zero to non-zero edge only and the
// loader hides as soon as the count drops back to zero.
type Tracker struct {
	mu         sync.Mutex
	clock      Clock
	delay      time.Duration
	count      int
	generation uint64
	timer      Timer

	pending *Signal[int]
	loading *Signal[bool]
}

// NewTracker creates a Tracker. A nil clock uses the system clock.
func NewTracker(delay time.Duration, clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock()
	}
	return &Tracker{
		clock:   clock,
		delay:   delay,
		pending: NewSignal(0),
		loading: NewSignal(false),
	}
}

// Begin records a dispatch and returns the new count.
func (t *Tracker) Begin() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	if t.count == 1 {
		t.arm()
	}
	t.pending.Set(t.count)
	return t.count
}

// Settle records a settlement. It refuses to go below zero and reports
// whether the count was decremented.
func (t *Tracker) Settle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return false
	}
	t.count--
	if t.count == 0 {
		t.disarm()
		if t.loading.Get() {
			t.loading.Set(false)
		}
	}
	t.pending.Set(t.count)
	return true
}

// Count returns the number of unsettled commands.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Loading reports whether the loader is currently visible.
func (t *Tracker) Loading() bool {
	return t.loading.Get()
}

// Pending exposes the live count.
func (t *Tracker) Pending() *Signal[int] { return t.pending }

// LoadingSignal exposes the live loader visibility.
func (t *Tracker) LoadingSignal() *Signal[bool] { return t.loading }

// Close cancels the loader timer and closes both signals.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.disarm()
	t.mu.Unlock()
	t.pending.Close()
	t.loading.Close()
}

func (t *Tracker) arm() {
	t.generation++
	if t.delay <= 0 {
		t.loading.Set(true)
		return
	}
	generation := t.generation
	t.timer = t.clock.AfterFunc(t.delay, func() { t.fire(generation) })
}

func (t *Tracker) disarm() {
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Tracker) fire(generation uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation || t.count == 0 {
		return
	}
	t.timer = nil
	t.loading.Set(true)
}
