package realtime

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Topic kinds. A topic is "<kind>:<uuid>".
const (
	KindRoom = "room"
	KindPoll = "poll"
	KindGame = "game"
)

// Events pushed to subscribers.
const (
	EventMessageCreated   = "message_created"
	EventPollVote         = "poll_vote"
	EventTimerExpired     = "timer_expired"
	EventWinnersConfirmed = "winners_confirmed"
)

// ErrInvalidTopic is returned by ParseTopic for malformed topics.
var ErrInvalidTopic = errors.New("invalid topic")

// RoomTopic carries new chat messages of a room.
func RoomTopic(roomID uuid.UUID) string { return KindRoom + ":" + roomID.String() }

// PollTopic carries new and updated votes of a poll.
func PollTopic(pollID uuid.UUID) string { return KindPoll + ":" + pollID.String() }

// GameTopic carries game lifecycle events.
func GameTopic(gameID uuid.UUID) string { return KindGame + ":" + gameID.String() }

// ParseTopic splits a topic into its kind and entity id.
func ParseTopic(topic string) (string, uuid.UUID, error) {
	kind, rawID, ok := strings.Cut(topic, ":")
	if !ok {
		return "", uuid.Nil, ErrInvalidTopic
	}
	switch kind {
	case KindRoom, KindPoll, KindGame:
	default:
		return "", uuid.Nil, ErrInvalidTopic
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, ErrInvalidTopic
	}
	return kind, id, nil
}

// CanonicalTopic parses topic and renders it in the form the services publish to.
func CanonicalTopic(topic string) (string, error) {
	kind, id, err := ParseTopic(topic)
	if err != nil {
		return "", err
	}
	return kind + ":" + id.String(), nil
}
