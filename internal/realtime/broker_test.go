package realtime

import (
	"testing"
	"time"

	"BandChat/server/internal/models"

	"github.com/google/uuid"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	msg := models.Message{ID: uuid.New(), Content: "hello"}
	b.Publish(msg)

	for i, ch := range []<-chan models.Message{ch1, ch2} {
		select {
		case got := <-ch:
			if got.ID != msg.ID {
				t.Fatalf("subscriber %d got message %s, want %s", i, got.ID, msg.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the message", i)
		}
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe()
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Fatal("cancelled subscriber channel should be closed and drained")
	}

	// Publishing after cancel must not panic or block.
	b.Publish(models.Message{ID: uuid.New()})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Publish(models.Message{ID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d events, got %d", subscriberBuffer, got)
	}
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("subscriber channel should close when the broker closes")
	}

	// Subscribing after close yields an already-closed channel.
	late, lateCancel := b.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Fatal("late subscriber should get a closed channel")
	}
}
