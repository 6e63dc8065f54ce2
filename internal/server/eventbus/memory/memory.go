package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus"
)

// Bus is an in-memory event bus. Slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]chan<- any
}

var _ eventbus.Bus = (*Bus)(nil)

// New creates a new Bus instance.
func New() *Bus {
	return &Bus{topics: make(map[string][]chan<- any)}
}

// Publish fans payload out to the subscribers of topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.topics[topic] {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a channel for a topic.
func (b *Bus) Subscribe(topic string, ch chan<- any) (func(), error) {
	if ch == nil {
		return nil, errors.New("eventbus: channel must not be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], ch)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.topics[topic]
			if i := slices.Index(subs, ch); i >= 0 {
				subs = slices.Delete(subs, i, i+1)
			}
			if len(subs) == 0 {
				delete(b.topics, topic)
				return
			}
			b.topics[topic] = subs
		})
	}, nil
}

// Subscribers returns the number of channels registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
