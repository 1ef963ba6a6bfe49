package pool

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"BandChat/server/internal/models"
	"BandChat/server/internal/realtime"

	"github.com/google/uuid"
)

func drainOne(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return Event{}
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	broker := realtime.NewBroker()
	defer broker.Close()
	p := NewPool(broker)

	c1 := NewClient(uuid.New(), nil)
	c2 := NewClient(uuid.New(), nil)
	p.Register(c1)
	p.Register(c2)

	msg := models.Message{ID: uuid.New(), Content: "hello"}
	p.broadcast(msg)

	for _, c := range []*Client{c1, c2} {
		event := drainOne(t, c)
		if event.Event != EventNewMessage {
			t.Fatalf("event = %q, want %q", event.Event, EventNewMessage)
		}
	}
}

// Broadcasts and reader-loop replies both go through the client's send
// channel, never directly to the connection, so the writer goroutine is the
// only writer. This hammers both producers concurrently; the race detector
// fails the test if either path touches shared connection state.
func TestBroadcastAndRepliesShareTheSendChannel(t *testing.T) {
	broker := realtime.NewBroker()
	defer broker.Close()
	p := NewPool(broker)

	client := NewClient(uuid.New(), nil)
	p.Register(client)

	// Single consumer standing in for the writer goroutine.
	var broadcasts, pongs int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for data := range client.Send {
			var event Event
			if err := json.Unmarshal(data, &event); err != nil {
				t.Errorf("malformed frame: %v", err)
				return
			}
			switch event.Event {
			case EventNewMessage:
				broadcasts++
			case EventPong:
				pongs++
			}
		}
	}()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			p.broadcast(models.Message{ID: uuid.New()})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			client.Enqueue(Event{Event: EventPong})
		}
	}()
	wg.Wait()

	p.Unregister(client)
	<-done

	if broadcasts == 0 {
		t.Error("no broadcast frames were delivered")
	}
	if pongs == 0 {
		t.Error("no pong frames were delivered")
	}
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	broker := realtime.NewBroker()
	defer broker.Close()
	p := NewPool(broker)

	client := NewClient(uuid.New(), nil)
	p.Register(client)

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+10; i++ {
			p.broadcast(models.Message{ID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	if got := len(client.Send); got != sendBuffer {
		t.Fatalf("expected a full queue of %d frames, got %d", sendBuffer, got)
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	broker := realtime.NewBroker()
	defer broker.Close()
	p := NewPool(broker)

	client := NewClient(uuid.New(), nil)
	p.Register(client)
	p.Unregister(client)
	p.Unregister(client) // second call is a no-op

	if _, ok := <-client.Send; ok {
		t.Fatal("unregister should close the send channel")
	}

	// Later broadcasts must not reach the departed client.
	p.broadcast(models.Message{ID: uuid.New()})
}
