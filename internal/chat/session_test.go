package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BandChat/server/internal/models"

	"github.com/google/uuid"
)

// fakeStore is an in-memory message collection. SendMessage appends to the
// backing list, so a later FetchMessages sees the same row the sender got
// back optimistically.
type fakeStore struct {
	mu         sync.Mutex
	backing    []models.Message
	clock      time.Time
	fetchCalls int
	sendCalls  int
	sendErr    error
	fetchErr   error
}

func newFakeStore(seed ...models.Message) *fakeStore {
	return &fakeStore{
		backing: seed,
		clock:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) FetchMessages(ctx context.Context) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Message, len(f.backing))
	copy(out, f.backing)
	return out, nil
}

func (f *fakeStore) SendMessage(ctx context.Context, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}

	f.clock = f.clock.Add(time.Second)
	msg := models.Message{
		ID:        uuid.New(),
		Content:   content,
		Channel:   models.GlobalChannel,
		CreatedAt: f.clock,
		Nickname:  "tester",
	}
	f.backing = append(f.backing, msg)
	return &msg, nil
}

type fakeTracker struct {
	mu       sync.Mutex
	lastRead *time.Time
	writes   []time.Time
	writeErr error
}

func (f *fakeTracker) FetchLastRead(ctx context.Context) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRead, nil
}

func (f *fakeTracker) UpdateLastRead(ctx context.Context, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, ts)
	f.lastRead = &ts
	return nil
}

func TestStartLoadsMessagesAndRecordsRead(t *testing.T) {
	store := newFakeStore(
		msgAt(t, "2024-05-01T10:00:00Z"),
		msgAt(t, "2024-05-01T11:00:00Z"),
	)
	tracker := &fakeTracker{}

	s := NewSession(store, tracker)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	view := s.Snapshot()
	if len(view.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(view.Messages))
	}
	if view.Open {
		t.Error("session should start closed")
	}
	if len(tracker.writes) != 1 {
		t.Fatalf("initial fetch should record a read, got %d writes", len(tracker.writes))
	}
}

func TestMessagesStayOrdered(t *testing.T) {
	store := newFakeStore(
		msgAt(t, "2024-05-01T09:00:00Z"),
		msgAt(t, "2024-05-01T10:00:00Z"),
		msgAt(t, "2024-05-01T11:00:00Z"),
	)
	s := NewSession(store, &fakeTracker{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	view := s.Snapshot()
	for i := 0; i+1 < len(view.Messages); i++ {
		if view.Messages[i].CreatedAt.After(view.Messages[i+1].CreatedAt) {
			t.Fatalf("messages out of order at %d: %v > %v", i,
				view.Messages[i].CreatedAt, view.Messages[i+1].CreatedAt)
		}
	}
}

func TestOpenKeepsPreviousBoundaryVisible(t *testing.T) {
	// Scenario from the read-tracking contract: last read 2024-01-01, one
	// older and one newer message. The divider must sit immediately before
	// the newer message even though opening records a fresh read.
	lastRead := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(
		msgAt(t, "2023-12-31T23:00:00Z"),
		msgAt(t, "2024-01-02T00:00:00Z"),
	)
	tracker := &fakeTracker{lastRead: &lastRead}

	s := NewSession(store, tracker)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	open, err := s.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if !open {
		t.Fatal("Toggle() should open a closed session")
	}

	view := s.Snapshot()
	if view.AllCaughtUp {
		t.Fatal("expected a divider, got all caught up")
	}
	if view.DividerIndex != 1 {
		t.Fatalf("divider at %d, want 1", view.DividerIndex)
	}

	// The persisted timestamp still advanced on start and on open.
	if len(tracker.writes) != 2 {
		t.Fatalf("expected 2 read writes (start, open), got %d", len(tracker.writes))
	}
}

func TestCloseRefreshesBoundary(t *testing.T) {
	store := newFakeStore(
		msgAt(t, "2024-05-01T10:00:00Z"),
		msgAt(t, "2024-05-01T11:00:00Z"),
	)
	tracker := &fakeTracker{}

	s := NewSession(store, tracker)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := s.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}

	s.Close(context.Background())

	view := s.Snapshot()
	if view.Open {
		t.Error("session should be closed")
	}
	if !view.AllCaughtUp {
		t.Errorf("boundary should have moved past all messages, divider at %d", view.DividerIndex)
	}
	if view.HasUnread {
		t.Error("close must clear the unread flag")
	}
}

func TestSendRejectsWhitespaceWithoutNetworkCall(t *testing.T) {
	store := newFakeStore()
	s := NewSession(store, &fakeTracker{})

	err := s.Send(context.Background(), "   \t  ")
	if !errors.Is(err, models.ErrEmptyMessage) {
		t.Fatalf("Send() error = %v, want ErrEmptyMessage", err)
	}
	if store.sendCalls != 0 {
		t.Fatalf("whitespace send must not reach the store, got %d calls", store.sendCalls)
	}
	if len(s.Snapshot().Messages) != 0 {
		t.Fatal("message list must be unchanged")
	}
}

func TestSendFailureSurfacesAndListUnchanged(t *testing.T) {
	store := newFakeStore()
	store.sendErr = errors.New("insert failed")
	s := NewSession(store, &fakeTracker{})

	if err := s.Send(context.Background(), "hello"); err == nil {
		t.Fatal("Send() should surface the store failure")
	}
	if len(s.Snapshot().Messages) != 0 {
		t.Fatal("failed send must not be appended")
	}
}

func TestOptimisticAppendThenEventDoesNotDuplicate(t *testing.T) {
	store := newFakeStore()
	s := NewSession(store, &fakeTracker{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := s.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}

	if err := s.Send(context.Background(), "hello band"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	sent := s.Snapshot().Messages
	if len(sent) != 1 {
		t.Fatalf("expected optimistic append, got %d messages", len(sent))
	}

	// The realtime event for our own insert arrives; the open view re-fetches
	// a consistent snapshot, which must not duplicate the message.
	s.HandleEvent(context.Background(), sent[0])

	view := s.Snapshot()
	count := 0
	for _, msg := range view.Messages {
		if msg.ID == sent[0].ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("message appears %d times after event, want 1", count)
	}
}

func TestEventWhileClosedAppendsRawAndFlagsUnread(t *testing.T) {
	store := newFakeStore()
	s := NewSession(store, &fakeTracker{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	fetchesBefore := store.fetchCalls

	raw := models.Message{
		ID:        uuid.New(),
		Content:   "incoming",
		CreatedAt: time.Now(),
	}
	s.HandleEvent(context.Background(), raw)

	view := s.Snapshot()
	if !view.HasUnread {
		t.Error("event with the view closed must set the unread flag")
	}
	if len(view.Messages) != 1 {
		t.Fatalf("raw payload should be appended, got %d messages", len(view.Messages))
	}
	if got := view.Messages[0].DisplayName(); got != models.AnonymousNickname {
		t.Errorf("missing nickname should display as Anonymous, got %q", got)
	}
	if store.fetchCalls != fetchesBefore {
		t.Error("closed view must not re-fetch on events")
	}
}

func TestOpenClearsUnreadFlag(t *testing.T) {
	store := newFakeStore()
	s := NewSession(store, &fakeTracker{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	s.HandleEvent(context.Background(), models.Message{ID: uuid.New(), Content: "x", CreatedAt: time.Now()})
	if !s.Snapshot().HasUnread {
		t.Fatal("precondition: unread flag should be set")
	}

	if _, err := s.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if s.Snapshot().HasUnread {
		t.Error("opening the view should clear the unread flag")
	}
}

func TestTrackerFailureIsAdvisory(t *testing.T) {
	store := newFakeStore(msgAt(t, "2024-05-01T10:00:00Z"))
	tracker := &fakeTracker{writeErr: errors.New("conflict")}

	s := NewSession(store, tracker)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() must tolerate read-write failures, got %v", err)
	}
	if _, err := s.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() must tolerate read-write failures, got %v", err)
	}
	s.Close(context.Background())

	// Local boundary still advanced on close even though persistence failed.
	if !s.Snapshot().AllCaughtUp {
		t.Error("local boundary should advance regardless of tracker errors")
	}
}

func TestRunConsumesEventsFromChannel(t *testing.T) {
	store := newFakeStore()
	s := NewSession(store, &fakeTracker{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan models.Message)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, events)
		close(done)
	}()

	events <- models.Message{ID: uuid.New(), Content: "via channel", CreatedAt: time.Now()}
	close(events)
	<-done

	view := s.Snapshot()
	if len(view.Messages) != 1 || !view.HasUnread {
		t.Fatalf("event from channel not applied: %d messages, unread=%v", len(view.Messages), view.HasUnread)
	}
}
