package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := New()
	ch1 := b.Subscribe("topic")
	ch2 := b.Subscribe("topic")

	b.Publish("topic", "hello")

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "topic", ev.Topic)
			assert.Equal(t, "hello", ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("expected event")
		}
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch := b.Subscribe("topic")
	b.Unsubscribe("topic", ch)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	b.Publish("topic", "ignored")
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := New()
	ch := b.Subscribe("topic")

	// Channel buffer is 16; overfill must not block the publisher.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 40; i++ {
			b.Publish("topic", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	assert.Len(t, ch, 16)
}
