// Package livesync keeps client-side views of chat rooms and polls current by combining a
// history fetch with the realtime push feed.
package livesync

import (
	"context"

	"github.com/weddingbets/backend/internal/realtime"
)

// Feed is one open topic subscription. Close must close the Events channel.
type Feed interface {
	Events() <-chan realtime.WSMessage
	Close() error
}

// Subscriber opens topic subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (Feed, error)
}
