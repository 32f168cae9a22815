package events

import (
	"sync"
	"time"
)

// RefreshCompleted is broadcast after every scheduled or manual cache
// refresh finishes, success or not
type RefreshCompleted struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // "scheduled" or "manual"
	Success   bool      `json:"success"`
}

// Bus is a small in-process publish/subscribe broadcaster. It is an
// observer, not a queue: subscribers registered after a publish never see
// it, and a slow subscriber drops events rather than blocking the
// publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan RefreshCompleted
	next int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan RefreshCompleted)}
}

// Subscribe registers a listener. The returned cancel func detaches it and
// closes the channel.
func (b *Bus) Subscribe() (<-chan RefreshCompleted, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan RefreshCompleted, 4)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber without blocking
func (b *Bus) Publish(ev RefreshCompleted) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
