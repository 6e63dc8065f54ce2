package console

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var testColors = map[string]string{
	"0": "#000000", "1": "#0000AA", "2": "#00AA00", "3": "#00AAAA",
	"4": "#AA0000", "5": "#AA00AA", "6": "#FFAA00", "7": "#AAAAAA",
	"8": "#555555", "9": "#5555FF", "a": "#55FF55", "b": "#55FFFF",
	"c": "#FF5555", "d": "#FF55FF", "e": "#FFFF55", "f": "#FFFFFF",
}

var testStyles = map[string]string{
	"k": "filter: blur(2px)",
	"l": "font-weight: bold",
	"m": "text-decoration: line-through",
	"n": "text-decoration: underline",
	"o": "font-style: italic",
}

func testDecoder() *Decoder { return NewDecoder(testColors, testStyles) }

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func sequenceIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("cmd-%d", n)
	}
}

type settlement struct {
	reply string
	err   error
}

// gatedTransport holds every command until the test releases it.
type gatedTransport struct {
	mu    sync.Mutex
	gates map[string]chan settlement
	sent  chan string
}

func newGatedTransport() *gatedTransport {
	return &gatedTransport{gates: make(map[string]chan settlement), sent: make(chan string, 64)}
}

func (g *gatedTransport) gate(command string) chan settlement {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[command]
	if !ok {
		ch = make(chan settlement, 1)
		g.gates[command] = ch
	}
	return ch
}

func (g *gatedTransport) Send(ctx context.Context, command string) (string, error) {
	gate := g.gate(command)
	g.sent <- command
	select {
	case s := <-gate:
		return s.reply, s.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedTransport) release(command, reply string, err error) {
	g.gate(command) <- settlement{reply: reply, err: err}
}

func (g *gatedTransport) expectSent(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-g.sent:
		if got != want {
			t.Fatalf("expected %q to be sent, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q to be sent", want)
	}
}

// waitFor reads values from ch until match accepts one.
func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("signal closed before the expected value arrived")
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out waiting for signal value")
		}
	}
}

func historyLen(n int) func([]CommandResult) bool {
	return func(h []CommandResult) bool { return len(h) == n }
}
