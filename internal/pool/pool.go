package pool

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"BandChat/server/internal/models"
	"BandChat/server/internal/realtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is the wire envelope pushed to connected clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const (
	EventNewMessage = "new_message"
	EventPong       = "pong"
)

// sendBuffer bounds a client's outbound queue. A client that falls this far
// behind loses events instead of blocking the fan-out.
const sendBuffer = 64

// Client is one websocket connection. All frames go through Send and are
// written by a single writer goroutine (WriteTo); gorilla connections
// support at most one concurrent writer.
type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
	}
}

// WriteTo drains Send onto the connection until Send closes or a write
// fails. It is the connection's only writer.
func (c *Client) WriteTo() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("Error writing to user %s: %v", c.UserID, err)
			return
		}
	}
}

// Enqueue queues one event for the client, dropping it when the client is
// too far behind. Reports whether the event was queued.
func (c *Client) Enqueue(event Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error encoding event for user %s: %v", c.UserID, err)
		return false
	}

	select {
	case c.Send <- data:
		return true
	default:
		log.Printf("Client %s send queue is full, dropping %s event", c.UserID, event.Event)
		return false
	}
}

// Pool tracks connected websocket clients and fans broker events out to all
// of them. The chat is a single global channel, so every client receives
// every message event; a user may hold several connections at once.
type Pool struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	broker  *realtime.Broker
}

func NewPool(broker *realtime.Broker) *Pool {
	return &Pool{
		clients: make(map[*Client]struct{}),
		broker:  broker,
	}
}

func (p *Pool) Register(client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clients[client] = struct{}{}
	log.Printf("Client %s added to pool (%d connected)", client.UserID, len(p.clients))
}

// Unregister removes the client and closes its Send channel, stopping the
// writer goroutine. Safe to call once per client, after its reader loop has
// exited.
func (p *Pool) Unregister(client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.clients[client]; ok {
		delete(p.clients, client)
		close(client.Send)
		log.Printf("Client %s removed from pool (%d connected)", client.UserID, len(p.clients))
	}
}

// Run subscribes to the broker and pushes each insert event to every
// connected client until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	events, cancel := p.broker.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			p.broadcast(msg)
		}
	}
}

// broadcast enqueues the event onto every client's send channel; the
// per-client writer goroutines do the network writes, so no write happens
// while the pool mutex is held.
func (p *Pool) broadcast(msg models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for client := range p.clients {
		client.Enqueue(Event{Event: EventNewMessage, Data: msg})
	}
}
