package models

import (
	"time"

	"github.com/google/uuid"
)

// PollStatus is open for votes while active.
type PollStatus string

const (
	PollStatusActive PollStatus = "active"
	PollStatusClosed PollStatus = "closed"
)

// Poll is an ordered set of options attached to a game.
type Poll struct {
	ID           uuid.UUID  `json:"id"`
	GameID       uuid.UUID  `json:"game_id"`
	QuestionText string     `json:"question_text"`
	Options      []string   `json:"options"`
	Status       PollStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HasOption reports whether option is one of the poll's declared options.
func (p *Poll) HasOption(option string) bool {
	for _, o := range p.Options {
		if o == option {
			return true
		}
	}
	return false
}

// PollVote is a user's choice in a poll. One per (poll, user); re-votes overwrite.
type PollVote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	UserID    uuid.UUID `json:"user_id"`
	Option    string    `json:"option"`
	CreatedAt time.Time `json:"created_at"`
}
