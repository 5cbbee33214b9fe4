package livesync

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
)

// MessageSource loads a room's history in ascending timestamp order.
type MessageSource interface {
	Messages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error)
}

// ChatSync follows one room at a time.
type ChatSync struct {
	source MessageSource
	subs   Subscriber
	logger *zap.Logger

	// OnChange is called after every change to the message list. Set before Open.
	OnChange func([]models.Message)

	mu     sync.Mutex
	roomID uuid.UUID
	feed   Feed
	done   chan struct{}
	state  *realtime.Reconciler[models.Message]
}

// NewChatSync creates a chat follower.
func NewChatSync(source MessageSource, subs Subscriber, logger *zap.Logger) *ChatSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatSync{
		source: source,
		subs:   subs,
		logger: logger,
		state:  newMessageState(),
	}
}

func newMessageState() *realtime.Reconciler[models.Message] {
	return realtime.NewReconciler(func(m models.Message) string { return m.ID.String() })
}

// Open switches to roomID. The previous room's feed is closed before the new one is opened.
// The subscription is opened before history is loaded so no message falls between the two;
// pushes that repeat history are dropped by id.
func (s *ChatSync) Open(ctx context.Context, roomID uuid.UUID) error {
	s.Close()

	feed, err := s.subs.Subscribe(ctx, realtime.RoomTopic(roomID))
	if err != nil {
		return err
	}
	history, err := s.source.Messages(ctx, roomID)
	if err != nil {
		_ = feed.Close()
		return err
	}

	state := newMessageState()
	state.Reset(history)
	done := make(chan struct{})

	s.mu.Lock()
	s.roomID = roomID
	s.feed = feed
	s.done = done
	s.state = state
	s.mu.Unlock()

	s.notify(state)
	go s.pump(feed, state, done)
	return nil
}

func (s *ChatSync) pump(feed Feed, state *realtime.Reconciler[models.Message], done chan struct{}) {
	defer close(done)
	for ev := range feed.Events() {
		if ev.Event != realtime.EventMessageCreated {
			continue
		}
		var msg models.Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			s.logger.Warn("bad message push", zap.String("topic", ev.Topic), zap.Error(err))
			continue
		}
		if state.Merge(msg) {
			s.notify(state)
		}
	}
}

func (s *ChatSync) notify(state *realtime.Reconciler[models.Message]) {
	if s.OnChange != nil {
		s.OnChange(state.Items())
	}
}

// Room returns the room being followed, or uuid.Nil.
func (s *ChatSync) Room() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Messages returns the current message list.
func (s *ChatSync) Messages() []models.Message {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	return state.Items()
}

// Close unsubscribes from the current room and waits for the push loop to stop.
func (s *ChatSync) Close() {
	s.mu.Lock()
	feed, done := s.feed, s.done
	s.feed, s.done = nil, nil
	s.roomID = uuid.Nil
	s.mu.Unlock()
	if feed == nil {
		return
	}
	if err := feed.Close(); err != nil {
		s.logger.Debug("close room feed", zap.Error(err))
	}
	<-done
}
