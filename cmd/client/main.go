package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"BandChat/server/internal/chat"
	"BandChat/server/internal/models"
	"BandChat/server/internal/pool"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

func main() {
	apiAddr := flag.String("api", "http://localhost:8080", "chat server address")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := newAPIClient(*apiAddr)
	if err := api.Login(ctx, *email, *password); err != nil {
		log.Fatal("Login failed: ", err)
	}
	log.Printf("Logged in as %s", *email)

	events := make(chan models.Message, 16)
	go readEvents(ctx, *apiAddr, api.token, events)

	session := chat.NewSession(api, api)
	if err := session.Start(ctx); err != nil {
		log.Fatal("Failed to load chat: ", err)
	}
	go session.Run(ctx, events)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		cancel()
	}()

	fmt.Println("Commands: /chat toggles the chat view, /quit exits. Anything else is sent as a message.")
	runInput(ctx, session)

	// Leaving records the read boundary, same as closing the drawer.
	session.Close(context.Background())
}

func runInput(ctx context.Context, session *chat.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	prompt(session)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
		case "/quit":
			return
		case "/chat":
			open, err := session.Toggle(ctx)
			if err != nil {
				log.Printf("Failed to open chat: %v", err)
				break
			}
			if open {
				render(session.Snapshot())
			} else {
				fmt.Println("Chat closed.")
			}
		default:
			if err := session.Send(ctx, text); err != nil {
				fmt.Printf("Send failed (%v), your text was: %s\n", err, text)
				break
			}
			if session.Snapshot().Open {
				render(session.Snapshot())
			}
		}
		prompt(session)
	}
}

func prompt(session *chat.Session) {
	view := session.Snapshot()
	if !view.Open && view.HasUnread {
		fmt.Print("[new messages] > ")
		return
	}
	fmt.Print("> ")
}

// render prints the ordered message list with the unread divider at the
// first message newer than the cached read boundary.
func render(view chat.View) {
	fmt.Println("--- Global Chat ---")
	for i, msg := range view.Messages {
		if i == view.DividerIndex {
			fmt.Println("— unread from here —")
		}
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04"), msg.DisplayName(), msg.Content)
	}
	if view.AllCaughtUp {
		fmt.Println("— all caught up —")
	}
}

// readEvents keeps a websocket subscription to message inserts alive,
// redialing with capped backoff after a drop, and forwards payloads onto
// the session's event channel.
func readEvents(ctx context.Context, apiAddr, token string, events chan<- models.Message) {
	defer close(events)

	wsURL, err := toWebsocketURL(apiAddr, token)
	if err != nil {
		log.Printf("Cannot derive websocket URL: %v", err)
		return
	}

	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			log.Printf("Websocket dial failed: %v", err)
			return retry.RetryableError(err)
		}
		defer conn.Close()

		for {
			var event struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := conn.ReadJSON(&event); err != nil {
				log.Printf("Websocket read failed, reconnecting: %v", err)
				return retry.RetryableError(err)
			}

			if event.Event != pool.EventNewMessage {
				continue
			}

			var msg models.Message
			if err := json.Unmarshal(event.Data, &msg); err != nil {
				log.Printf("Malformed message event: %v", err)
				continue
			}

			select {
			case events <- msg:
			case <-ctx.Done():
				return nil
			}
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Printf("Realtime subscription stopped: %v", err)
	}
}

func toWebsocketURL(apiAddr, token string) (string, error) {
	u, err := url.Parse(apiAddr)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
