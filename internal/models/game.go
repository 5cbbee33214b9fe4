package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the admin-controlled lifecycle of a game.
type GameStatus string

const (
	GameStatusActive GameStatus = "active"
	GameStatusEnded  GameStatus = "ended"
)

// AnswerType selects which Answer field a question accepts.
type AnswerType string

const (
	AnswerTypeMultipleChoice AnswerType = "multiple_choice"
	AnswerTypeText           AnswerType = "text"
)

// Valid reports whether t is a known answer type.
func (t AnswerType) Valid() bool {
	return t == AnswerTypeMultipleChoice || t == AnswerTypeText
}

// Game is a timed betting round. TimerEnd is advisory; Status only changes through ConfirmWinners.
type Game struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	TimerEnd         time.Time   `json:"timer_end"`
	Status           GameStatus  `json:"status"`
	ConfirmedWinners []uuid.UUID `json:"confirmed_winners"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Question belongs to exactly one game.
type Question struct {
	ID           uuid.UUID  `json:"id"`
	GameID       uuid.UUID  `json:"game_id"`
	QuestionText string     `json:"question_text"`
	AnswerType   AnswerType `json:"answer_type"`
	CreatedAt    time.Time  `json:"created_at"`
}

// GameWithQuestions is a game plus its questions.
type GameWithQuestions struct {
	Game
	Questions []Question `json:"questions"`
}

// Answer is one user's answer to a question. Exactly one of AnswerText and Choice is set,
// matching the question's answer type.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	UserID     uuid.UUID `json:"user_id"`
	AnswerText *string   `json:"answer_text"`
	Choice     *string   `json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Vote is a user's vote on another user's answer. One per (answer, user).
type Vote struct {
	ID        uuid.UUID `json:"id"`
	AnswerID  uuid.UUID `json:"answer_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AnswerTarget is an answer joined with the timer of its question's game.
type AnswerTarget struct {
	Answer
	GameID   uuid.UUID `json:"game_id"`
	TimerEnd time.Time `json:"timer_end"`
}

// QuestionTarget is a question joined with the timer of its game.
type QuestionTarget struct {
	Question
	TimerEnd time.Time `json:"timer_end"`
}
