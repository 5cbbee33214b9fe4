package livesync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/internal/results"
)

type fakeFeed struct {
	topic  string
	events chan realtime.WSMessage
	once   sync.Once
	closed chan struct{}
}

func (f *fakeFeed) Events() <-chan realtime.WSMessage { return f.events }

func (f *fakeFeed) Close() error {
	f.once.Do(func() {
		close(f.closed)
		close(f.events)
	})
	return nil
}

func (f *fakeFeed) push(t *testing.T, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	f.events <- realtime.WSMessage{Event: event, Topic: f.topic, Data: data}
}

func (f *fakeFeed) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type fakeSubscriber struct {
	mu    sync.Mutex
	feeds []*fakeFeed
	err   error
}

func (s *fakeSubscriber) Subscribe(_ context.Context, topic string) (Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	f := &fakeFeed{topic: topic, events: make(chan realtime.WSMessage, 8), closed: make(chan struct{})}
	s.feeds = append(s.feeds, f)
	return f, nil
}

func (s *fakeSubscriber) feed(i int) *fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[i]
}

type historySource map[uuid.UUID][]models.Message

func (h historySource) Messages(_ context.Context, roomID uuid.UUID) ([]models.Message, error) {
	return h[roomID], nil
}

func message(roomID uuid.UUID, content string, at time.Time) models.Message {
	return models.Message{ID: uuid.New(), RoomID: roomID, UserID: uuid.New(), Content: content, Timestamp: at}
}

func TestChatSyncMergesPushesWithoutDuplicates(t *testing.T) {
	roomID := uuid.New()
	t0 := time.Date(2026, 6, 20, 18, 0, 0, 0, time.UTC)
	first := message(roomID, "hello", t0)
	second := message(roomID, "congrats", t0.Add(time.Minute))
	subs := &fakeSubscriber{}

	cs := NewChatSync(historySource{roomID: {first, second}}, subs, nil)
	changes := make(chan []models.Message, 8)
	cs.OnChange = func(m []models.Message) { changes <- m }
	require.NoError(t, cs.Open(context.Background(), roomID))
	defer cs.Close()

	initial := <-changes
	require.Len(t, initial, 2)
	assert.Equal(t, realtime.RoomTopic(roomID), subs.feed(0).topic)

	feed := subs.feed(0)
	feed.push(t, realtime.EventMessageCreated, second)
	third := message(roomID, "cheers", t0.Add(2*time.Minute))
	feed.push(t, realtime.EventMessageCreated, third)

	select {
	case got := <-changes:
		require.Len(t, got, 3)
		assert.Equal(t, []string{"hello", "congrats", "cheers"}, []string{got[0].Content, got[1].Content, got[2].Content})
	case <-time.After(2 * time.Second):
		t.Fatal("push not merged")
	}
	assert.Len(t, cs.Messages(), 3)
}

func TestChatSyncSwitchClosesPreviousFeed(t *testing.T) {
	roomA, roomB := uuid.New(), uuid.New()
	subs := &fakeSubscriber{}
	cs := NewChatSync(historySource{}, subs, nil)

	require.NoError(t, cs.Open(context.Background(), roomA))
	require.NoError(t, cs.Open(context.Background(), roomB))
	assert.True(t, subs.feed(0).isClosed())
	assert.False(t, subs.feed(1).isClosed())
	assert.Equal(t, roomB, cs.Room())

	cs.Close()
	assert.True(t, subs.feed(1).isClosed())
	assert.Equal(t, uuid.Nil, cs.Room())
}

func TestChatSyncSubscribeError(t *testing.T) {
	cs := NewChatSync(historySource{}, &fakeSubscriber{err: errors.New("dial failed")}, nil)
	assert.Error(t, cs.Open(context.Background(), uuid.New()))
	cs.Close()
}

type fakePolls struct {
	mu     sync.Mutex
	poll   models.Poll
	votes  map[uuid.UUID]string
	user   uuid.UUID
	reads  int
	failed bool
}

func (f *fakePolls) PollResults(_ context.Context, pollID uuid.UUID) (*results.PollResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return nil, errors.New("offline")
	}
	f.reads++
	var votes []models.PollVote
	for u, o := range f.votes {
		votes = append(votes, models.PollVote{PollID: pollID, UserID: u, Option: o})
	}
	res := results.AggregatePoll(f.poll, votes)
	return &res, nil
}

func (f *fakePolls) SubmitPollVote(_ context.Context, pollID uuid.UUID, option string) (*models.PollVote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes[f.user] = option
	return &models.PollVote{ID: uuid.New(), PollID: pollID, UserID: f.user, Option: option}, nil
}

func (f *fakePolls) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func TestPollSyncRefetchesOnPush(t *testing.T) {
	poll := models.Poll{ID: uuid.New(), Options: []string{"Yes", "No"}, Status: models.PollStatusActive}
	source := &fakePolls{poll: poll, votes: map[uuid.UUID]string{}, user: uuid.New()}
	subs := &fakeSubscriber{}
	ps := NewPollSync(source, subs, nil)

	require.NoError(t, ps.Open(context.Background(), poll.ID))
	defer ps.Close()
	require.NotNil(t, ps.Results())
	assert.Equal(t, map[string]int{"Yes": 0, "No": 0}, ps.Results().Results)

	source.mu.Lock()
	source.votes[uuid.New()] = "No"
	source.mu.Unlock()
	subs.feed(0).push(t, realtime.EventPollVote, map[string]string{"option": "No"})

	assert.Eventually(t, func() bool {
		res := ps.Results()
		return res != nil && res.Results["No"] == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, source.readCount(), 2)
}

func TestPollSyncVoteReadsAfterWrite(t *testing.T) {
	poll := models.Poll{ID: uuid.New(), Options: []string{"Yes", "No"}, Status: models.PollStatusActive}
	source := &fakePolls{poll: poll, votes: map[uuid.UUID]string{}, user: uuid.New()}
	ps := NewPollSync(source, &fakeSubscriber{}, nil)
	require.NoError(t, ps.Open(context.Background(), poll.ID))
	defer ps.Close()

	vote, err := ps.Vote(context.Background(), "Yes")
	require.NoError(t, err)
	assert.Equal(t, "Yes", vote.Option)
	assert.Equal(t, 1, ps.Results().Results["Yes"])
}

func TestPollSyncOpenFailureUnsubscribes(t *testing.T) {
	source := &fakePolls{failed: true}
	subs := &fakeSubscriber{}
	ps := NewPollSync(source, subs, nil)

	assert.Error(t, ps.Open(context.Background(), uuid.New()))
	assert.True(t, subs.feed(0).isClosed())
	assert.Nil(t, ps.Results())
}
