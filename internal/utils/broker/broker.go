// Package broker is a small in-process pub/sub used to fan AI usage
// events out to live subscribers (the admin websocket).
package broker

import (
	"sync"
	"time"
)

// Event is what flows through the broker. Payload is kept loosely typed
// so topics can carry different shapes; subscribers know their topic.
type Event struct {
	Topic   string
	At      time.Time
	Payload interface{}
}

type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

func New() *Broker {
	return &Broker{subscribers: make(map[string][]chan Event)}
}

func (b *Broker) Subscribe(topic string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 16)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[topic]
	for i, c := range subs {
		if c == ch {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(c)
			return
		}
	}
}

// Publish never blocks: a subscriber that has fallen 16 events behind
// loses the event rather than stalling the orchestrator.
func (b *Broker) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev := Event{Topic: topic, At: time.Now(), Payload: payload}
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}
