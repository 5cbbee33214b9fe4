// Package scheduler runs periodic background sweeps with cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/realtime"
)

// DefaultExpirySpec is how often expired game timers are announced.
const DefaultExpirySpec = "@every 30s"

// ExpiredGames flags games whose timer ran out and returns each one once.
type ExpiredGames interface {
	AnnounceExpired(ctx context.Context) ([]uuid.UUID, error)
}

// ExpiryAnnouncer publishes timer_expired on game:<id> so clients move to the voting phase.
// The push is advisory; every answer and vote is still gated on the stored timer.
type ExpiryAnnouncer struct {
	games   ExpiredGames
	pub     realtime.Publisher
	logger  *zap.Logger
	timeout time.Duration
}

// NewExpiryAnnouncer creates the announcer.
func NewExpiryAnnouncer(games ExpiredGames, pub realtime.Publisher, logger *zap.Logger) *ExpiryAnnouncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryAnnouncer{games: games, pub: pub, logger: logger, timeout: 10 * time.Second}
}

type timerExpired struct {
	GameID uuid.UUID `json:"game_id"`
}

// Sweep announces every newly expired game and returns how many were announced.
func (a *ExpiryAnnouncer) Sweep(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	ids, err := a.games.AnnounceExpired(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		a.pub.Publish(realtime.GameTopic(id), realtime.EventTimerExpired, timerExpired{GameID: id})
	}
	if len(ids) > 0 {
		a.logger.Info("game timers expired", zap.Int("games", len(ids)))
	}
	return len(ids), nil
}

// Start schedules Sweep on spec and starts the cron runner. Stop the returned runner on shutdown.
func Start(spec string, a *ExpiryAnnouncer, logger *zap.Logger) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultExpirySpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := a.Sweep(context.Background()); err != nil {
			logger.Error("expiry sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule expiry sweep %q: %w", spec, err)
	}
	c.Start()
	logger.Info("expiry announcer scheduled", zap.String("spec", spec))
	return c, nil
}
