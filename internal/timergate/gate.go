// Package timergate decides whether answering or voting is open for a game timer,
// and drives the HH:MM:SS countdown shown to players.
package timergate

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/weddingbets/backend/internal/apperr"
)

var (
	// ErrTimerExpired is returned when an answer arrives after timer_end.
	ErrTimerExpired = apperr.New(apperr.CodeTimerExpired, "Game timer has expired.")
	// ErrTimerNotExpired is returned when a vote arrives before timer_end.
	ErrTimerNotExpired = apperr.New(apperr.CodeTimerNotExpired, "Game timer has not expired yet.")
)

// IsExpired reports whether timerEnd <= now.
func IsExpired(now, timerEnd time.Time) bool {
	return !timerEnd.After(now)
}

// Gate evaluates the answer and vote windows against its clock.
// timerEnd must be read fresh from storage by the caller for every check.
type Gate struct {
	clock clockwork.Clock
}

// NewGate creates a gate. A nil clock uses the real clock.
func NewGate(clock clockwork.Clock) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gate{clock: clock}
}

// Expired reports whether timerEnd has passed on the gate's clock.
func (g *Gate) Expired(timerEnd time.Time) bool {
	return IsExpired(g.clock.Now(), timerEnd)
}

// CheckAnswerWindow allows answers only while the timer is running.
func (g *Gate) CheckAnswerWindow(timerEnd time.Time) error {
	if g.Expired(timerEnd) {
		return ErrTimerExpired
	}
	return nil
}

// CheckVoteWindow allows votes only once the timer has run out.
func (g *Gate) CheckVoteWindow(timerEnd time.Time) error {
	if !g.Expired(timerEnd) {
		return ErrTimerNotExpired
	}
	return nil
}
