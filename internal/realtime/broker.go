package realtime

import (
	"log"
	"sync"

	"BandChat/server/internal/models"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind loses events instead of blocking the publisher; consumers
// recover by re-fetching.
const subscriberBuffer = 64

// Broker is an in-process fan-out of message insert events. Publishers and
// subscribers never share state directly: every subscriber owns a buffered
// channel and consumes events on its own goroutine.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan models.Message
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan models.Message)}
}

// Subscribe registers a new subscriber. The returned cancel func is
// idempotent and closes the channel.
func (b *Broker) Subscribe() (<-chan models.Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Message, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}

	return ch, cancel
}

// Publish delivers msg to every subscriber. Full subscriber channels are
// skipped rather than blocking.
func (b *Broker) Publish(msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("Realtime subscriber %d is full, dropping message %s", id, msg.ID)
		}
	}
}

// Close tears down all subscriptions. Further Publish calls are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
