package livesync

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/internal/results"
)

// PollSource reads poll tallies and submits votes.
type PollSource interface {
	PollResults(ctx context.Context, pollID uuid.UUID) (*results.PollResults, error)
	SubmitPollVote(ctx context.Context, pollID uuid.UUID, option string) (*models.PollVote, error)
}

// PollSync follows the tallies of one poll. Every push triggers a full refetch; tallies are
// never incremented locally.
type PollSync struct {
	source PollSource
	subs   Subscriber
	logger *zap.Logger

	// OnChange is called with every refreshed tally. Set before Open.
	OnChange func(results.PollResults)

	mu      sync.Mutex
	pollID  uuid.UUID
	feed    Feed
	done    chan struct{}
	current *results.PollResults
}

// NewPollSync creates a poll follower.
func NewPollSync(source PollSource, subs Subscriber, logger *zap.Logger) *PollSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollSync{source: source, subs: subs, logger: logger}
}

// Open subscribes to pollID and loads its results. A previously open poll is closed first.
func (p *PollSync) Open(ctx context.Context, pollID uuid.UUID) error {
	p.Close()

	feed, err := p.subs.Subscribe(ctx, realtime.PollTopic(pollID))
	if err != nil {
		return err
	}
	done := make(chan struct{})
	p.mu.Lock()
	p.pollID = pollID
	p.feed = feed
	p.done = done
	p.current = nil
	p.mu.Unlock()

	go p.pump(feed, done)
	if err := p.Refresh(ctx); err != nil {
		p.Close()
		return err
	}
	return nil
}

func (p *PollSync) pump(feed Feed, done chan struct{}) {
	defer close(done)
	for ev := range feed.Events() {
		if ev.Event != realtime.EventPollVote {
			continue
		}
		if err := p.Refresh(context.Background()); err != nil {
			p.logger.Warn("refresh poll results", zap.String("topic", ev.Topic), zap.Error(err))
		}
	}
}

// Refresh refetches the tallies of the open poll.
func (p *PollSync) Refresh(ctx context.Context) error {
	p.mu.Lock()
	pollID := p.pollID
	p.mu.Unlock()
	if pollID == uuid.Nil {
		return nil
	}

	res, err := p.source.PollResults(ctx, pollID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.pollID != pollID {
		p.mu.Unlock()
		return nil
	}
	p.current = res
	p.mu.Unlock()

	if p.OnChange != nil {
		p.OnChange(*res)
	}
	return nil
}

// Vote submits option for the open poll and refreshes once the write has completed.
func (p *PollSync) Vote(ctx context.Context, option string) (*models.PollVote, error) {
	p.mu.Lock()
	pollID := p.pollID
	p.mu.Unlock()
	vote, err := p.source.SubmitPollVote(ctx, pollID, option)
	if err != nil {
		return nil, err
	}
	if err := p.Refresh(ctx); err != nil {
		return vote, err
	}
	return vote, nil
}

// Results returns the latest tallies, or nil before the first fetch.
func (p *PollSync) Results() *results.PollResults {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close unsubscribes from the open poll.
func (p *PollSync) Close() {
	p.mu.Lock()
	feed, done := p.feed, p.done
	p.feed, p.done = nil, nil
	p.pollID = uuid.Nil
	p.mu.Unlock()
	if feed == nil {
		return
	}
	if err := feed.Close(); err != nil {
		p.logger.Debug("close poll feed", zap.Error(err))
	}
	<-done
}
