package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is public, or private to its participants.
type ChatRoom struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	IsPrivate    bool        `json:"is_private"`
	Participants []uuid.UUID `json:"participants"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Allows reports whether userID may read and post in the room.
func (r *ChatRoom) Allows(userID uuid.UUID) bool {
	if !r.IsPrivate {
		return true
	}
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message is a chat message. PhotoURL is set when a photo was uploaded with it.
type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
}
