package console

import "sync"

// Signal holds the latest value of a piece of console state and fans every
// update out to its subscribers. A subscriber receives the current value on
// subscribe, then every later value in the order it was set.
type Signal[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]*subscriber[T]
	nextID int
	closed bool
}

// NewSignal creates a Signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial, subs: make(map[int]*subscriber[T])}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and queues it for every subscriber. Set never blocks on a
// slow subscriber. It is a no-op once the signal is closed.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v
	for _, sub := range s.subs {
		sub.push(v)
	}
}

// Subscribe registers a new subscriber. The returned channel is closed after
// the unsubscribe func is called or, once queued values are delivered, after
// the signal is closed.
func (s *Signal[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newSubscriber[T]()
	if s.closed {
		close(sub.out)
		return sub.out, func() {}
	}
	sub.push(s.value)
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	go sub.run()

	var once sync.Once
	return sub.out, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			sub.stop()
		})
	}
}

// Close stops accepting values. Subscribers still receive what was already
// queued for them before their channel is closed.
func (s *Signal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subs {
		sub.finish()
		delete(s.subs, id)
	}
}

type subscriber[T any] struct {
	mu       sync.Mutex
	queue    []T
	draining bool
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	out      chan T
}

func newSubscriber[T any]() *subscriber[T] {
	return &subscriber[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan T),
	}
}

func (sub *subscriber[T]) push(v T) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, v)
	sub.mu.Unlock()
	sub.notify()
}

func (sub *subscriber[T]) finish() {
	sub.mu.Lock()
	sub.draining = true
	sub.mu.Unlock()
	sub.notify()
}

func (sub *subscriber[T]) stop() {
	sub.stopOnce.Do(func() { close(sub.done) })
}

func (sub *subscriber[T]) notify() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber[T]) run() {
	defer close(sub.out)
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			draining := sub.draining
			sub.mu.Unlock()
			if draining {
				return
			}
			select {
			case <-sub.wake:
				continue
			case <-sub.done:
				return
			}
		}
		v := sub.queue[0]
		var zero T
		sub.queue[0] = zero
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		select {
		case sub.out <- v:
		case <-sub.done:
			return
		}
	}
}
