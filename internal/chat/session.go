package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"BandChat/server/internal/models"
)

// Store is the message accessor a session talks to, already bound to the
// authenticated caller.
type Store interface {
	FetchMessages(ctx context.Context) ([]models.Message, error)
	SendMessage(ctx context.Context, content string) (*models.Message, error)
}

// ReadTracker persists the caller's last read timestamp. Writes are
// advisory: implementations log failures and conflicts rather than
// escalating them.
type ReadTracker interface {
	FetchLastRead(ctx context.Context) (*time.Time, error)
	UpdateLastRead(ctx context.Context, ts time.Time) error
}

// View is an immutable snapshot of the session for rendering.
type View struct {
	Open         bool
	HasUnread    bool
	Messages     []models.Message
	DividerIndex int
	AllCaughtUp  bool
}

// Session holds the chat view state for one signed-in user: the ordered
// message list, the open/closed toggle, the unread flag and the cached
// render boundary. It is created on session start and torn down on
// sign-out; realtime events reach it through Run's channel, never by
// direct mutation from another component.
//
// The render boundary is deliberately stale while the view is open: it is
// loaded once at Start and refreshed only when the view closes, so opening
// the chat does not instantly erase the user's sense of what's new even
// though the persisted timestamp advances on every open and close.
type Session struct {
	store   Store
	tracker ReadTracker
	now     func() time.Time

	mu        sync.Mutex
	open      bool
	hasUnread bool
	messages  []models.Message
	boundary  *time.Time
}

func NewSession(store Store, tracker ReadTracker) *Session {
	return &Session{
		store:   store,
		tracker: tracker,
		now:     time.Now,
	}
}

// Start performs the initial message fetch and loads the persisted read
// boundary. Per the tracker's invocation points the initial fetch also
// counts as a read, so the stored timestamp advances to now — after the
// stored value has been captured as the render boundary.
func (s *Session) Start(ctx context.Context) error {
	lastRead, err := s.tracker.FetchLastRead(ctx)
	if err != nil {
		log.Printf("Error loading last read timestamp: %v", err)
	}

	messages, err := s.store.FetchMessages(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.messages = messages
	s.boundary = lastRead
	s.mu.Unlock()

	s.markRead(ctx)
	return nil
}

// Run consumes realtime insert events until ctx is cancelled or the channel
// closes. It is the only goroutine that feeds events into the session.
func (s *Session) Run(ctx context.Context, events <-chan models.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, msg)
		}
	}
}

// HandleEvent applies one realtime insert event. With the view open the
// message list is rebuilt from a fresh fetch, which sidesteps event-vs-fetch
// ordering ambiguity and de-duplicates the optimistic append of our own
// sends. With the view closed the raw payload is appended (nickname join
// pending, display falls back to Anonymous) and the unread flag is set.
func (s *Session) HandleEvent(ctx context.Context, msg models.Message) {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	if !open {
		s.mu.Lock()
		s.messages = append(s.messages, msg)
		s.hasUnread = true
		s.mu.Unlock()
		return
	}

	messages, err := s.store.FetchMessages(ctx)
	if err != nil {
		log.Printf("Error re-fetching messages on realtime event: %v", err)
		return
	}

	s.mu.Lock()
	if s.open {
		s.messages = messages
	}
	s.mu.Unlock()
}

// Toggle flips the view between closed and open. Opening re-fetches the
// message list and records a read; closing additionally refreshes the
// render boundary. It reports whether the view is now open.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	if open {
		s.Close(ctx)
		return false, nil
	}

	messages, err := s.store.FetchMessages(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.messages = messages
	s.open = true
	s.hasUnread = false
	s.mu.Unlock()

	s.markRead(ctx)
	return true, nil
}

// Close marks the view closed, clears the unread flag and moves the render
// boundary up to now.
func (s *Session) Close(ctx context.Context) {
	ts := s.now()

	s.mu.Lock()
	s.open = false
	s.hasUnread = false
	s.boundary = &ts
	s.mu.Unlock()

	if err := s.tracker.UpdateLastRead(ctx, ts); err != nil {
		log.Printf("Error persisting read timestamp: %v", err)
	}
}

// Send submits a message. Empty-after-trim content is rejected before any
// network call. On success the returned row is appended immediately rather
// than waiting for the realtime round trip; failures surface to the caller
// so the composed text can be retried.
func (s *Session) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return models.ErrEmptyMessage
	}

	msg, err := s.store.SendMessage(ctx, content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.messages = append(s.messages, *msg)
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current view state with the divider
// position computed against the cached boundary.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)

	idx, ok := DividerIndex(messages, s.boundary)
	return View{
		Open:         s.open,
		HasUnread:    s.hasUnread,
		Messages:     messages,
		DividerIndex: idx,
		AllCaughtUp:  !ok,
	}
}

func (s *Session) markRead(ctx context.Context) {
	if err := s.tracker.UpdateLastRead(ctx, s.now()); err != nil {
		log.Printf("Error persisting read timestamp: %v", err)
	}
}
