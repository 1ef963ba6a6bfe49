package handlers

import (
	"log"
	"net/http"

	"BandChat/server/internal/appMiddleware"
	"BandChat/server/internal/pool"
	"BandChat/server/internal/services"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	pool     *pool.Pool
	messages services.MessageService
	secret   []byte
}

func NewWSHandler(p *pool.Pool, messages services.MessageService, secret []byte) *WSHandler {
	return &WSHandler{pool: p, messages: messages, secret: secret}
}

// Serve authenticates the connection via a token query parameter (browser
// websockets cannot set headers), registers the client for message fan-out
// and reads send_message events until the peer goes away.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, name, err := appMiddleware.ParseToken(h.secret, tokenStr)
	if err != nil {
		log.Printf("Invalid websocket token: %v", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	log.Printf("User %s connected to WebSocket", userID)

	client := pool.NewClient(userID, conn)
	h.pool.Register(client)
	// Unregister closes the send channel, which stops the writer goroutine
	// and closes the connection.
	defer h.pool.Unregister(client)

	go client.WriteTo()

	for {
		var msg struct {
			Event   string `json:"event"`
			Content string `json:"content"`
		}

		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Error reading message from user %s: %v", userID, err)
			break
		}

		switch msg.Event {
		case "send_message":
			// The insert publishes to the broker, which fans the event
			// back out to every connected client including this one.
			if _, err := h.messages.SendMessage(r.Context(), userID, name, msg.Content); err != nil {
				log.Printf("Error saving message from user %s: %v", userID, err)
			}
		case "ping":
			// Replies share the send channel with broadcasts; the writer
			// goroutine is the connection's only writer.
			client.Enqueue(pool.Event{Event: pool.EventPong})
		default:
			log.Printf("Unknown websocket event %q from user %s", msg.Event, userID)
		}
	}
}
