// Package games runs timed betting games: answers before the timer, votes after it, and
// admin-confirmed winners.
package games

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/internal/results"
	"github.com/weddingbets/backend/internal/timergate"
	"github.com/weddingbets/backend/pkg/database"
)

// NewQuestion is one question of a game being created.
type NewQuestion struct {
	QuestionText string            `json:"question_text"`
	AnswerType   models.AnswerType `json:"answer_type"`
}

// AnswerInput carries the submitted answer. Only the field matching the question's
// answer type is kept.
type AnswerInput struct {
	AnswerText *string `json:"answer_text"`
	Choice     *string `json:"choice"`
}

// Store is the persistence the games service needs.
type Store interface {
	CreateGame(ctx context.Context, name string, timerEnd time.Time, questions []NewQuestion) (*models.GameWithQuestions, error)
	ActiveGames(ctx context.Context) ([]models.Game, error)
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	Questions(ctx context.Context, gameID uuid.UUID) ([]models.Question, error)
	QuestionTarget(ctx context.Context, questionID uuid.UUID) (*models.QuestionTarget, error)
	UpsertAnswer(ctx context.Context, questionID, userID uuid.UUID, answerText, choice *string) (*models.Answer, error)
	AnswerTarget(ctx context.Context, answerID uuid.UUID) (*models.AnswerTarget, error)
	HasVote(ctx context.Context, answerID, userID uuid.UUID) (bool, error)
	InsertVote(ctx context.Context, answerID, userID uuid.UUID) (*models.Vote, error)
	DeleteVote(ctx context.Context, voteID, userID uuid.UUID) (bool, error)
	AnswersForGame(ctx context.Context, gameID uuid.UUID) ([]models.Answer, error)
	VotesForGame(ctx context.Context, gameID uuid.UUID) ([]models.Vote, error)
	EndGame(ctx context.Context, gameID uuid.UUID, winners []uuid.UUID) (*models.Game, error)
}

// Service implements the game operations.
type Service struct {
	store  Store
	gate   *timergate.Gate
	pub    realtime.Publisher
	logger *zap.Logger
}

// NewService creates the games service. pub may be nil.
func NewService(store Store, gate *timergate.Gate, pub realtime.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gate == nil {
		gate = timergate.NewGate(nil)
	}
	return &Service{store: store, gate: gate, pub: pub, logger: logger}
}

// CreateGame creates an active game with its questions.
func (s *Service) CreateGame(ctx context.Context, name string, timerEnd time.Time, questions []NewQuestion) (*models.GameWithQuestions, error) {
	name = strings.TrimSpace(name)
	if name == "" || timerEnd.IsZero() || len(questions) == 0 {
		return nil, apperr.InvalidInput("Missing or invalid game name, timer, or questions.")
	}
	clean := make([]NewQuestion, 0, len(questions))
	for _, q := range questions {
		text := strings.TrimSpace(q.QuestionText)
		if text == "" || !q.AnswerType.Valid() {
			return nil, apperr.InvalidInput("Missing or invalid game name, timer, or questions.").
				WithDetails("each question needs text and answer_type multiple_choice or text")
		}
		clean = append(clean, NewQuestion{QuestionText: text, AnswerType: q.AnswerType})
	}
	game, err := s.store.CreateGame(ctx, name, timerEnd.UTC(), clean)
	if err != nil {
		return nil, apperr.Server("Failed to create game.", err)
	}
	s.logger.Info("game created", zap.String("game_id", game.ID.String()), zap.Int("questions", len(game.Questions)))
	return game, nil
}

// ActiveGames lists active games ordered by timer_end ascending.
func (s *Service) ActiveGames(ctx context.Context) ([]models.Game, error) {
	list, err := s.store.ActiveGames(ctx)
	if err != nil {
		return nil, apperr.Server("Failed to fetch games.", err)
	}
	return list, nil
}

// GetGame returns a game with its questions.
func (s *Service) GetGame(ctx context.Context, id uuid.UUID) (*models.GameWithQuestions, error) {
	if id == uuid.Nil {
		return nil, apperr.InvalidInput("Missing game ID.")
	}
	game, err := s.loadGame(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.Questions(ctx, id)
	if err != nil {
		return nil, apperr.Server("Failed to fetch questions.", err)
	}
	return &models.GameWithQuestions{Game: *game, Questions: questions}, nil
}

// SubmitAnswer creates or replaces the caller's answer while the game timer runs.
func (s *Service) SubmitAnswer(ctx context.Context, userID, questionID uuid.UUID, in AnswerInput) (*models.Answer, error) {
	text, choice := trimmed(in.AnswerText), trimmed(in.Choice)
	if questionID == uuid.Nil || (text == nil && choice == nil) {
		return nil, apperr.InvalidInput("Missing question ID or answer.")
	}
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("User not authenticated.")
	}
	target, err := s.store.QuestionTarget(ctx, questionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Question not found.")
		}
		return nil, apperr.Server("Failed to submit answer.", err)
	}
	if err := s.gate.CheckAnswerWindow(target.TimerEnd); err != nil {
		return nil, err
	}

	switch target.AnswerType {
	case models.AnswerTypeMultipleChoice:
		if choice == nil {
			return nil, apperr.InvalidInput("Missing question ID or answer.").WithDetails("multiple_choice questions take choice")
		}
		text = nil
	case models.AnswerTypeText:
		if text == nil {
			return nil, apperr.InvalidInput("Missing question ID or answer.").WithDetails("text questions take answer_text")
		}
		choice = nil
	default:
		return nil, apperr.Server("Failed to submit answer.", errors.New("unknown answer type "+string(target.AnswerType)))
	}

	answer, err := s.store.UpsertAnswer(ctx, questionID, userID, text, choice)
	if err != nil {
		return nil, apperr.Server("Failed to submit answer.", err)
	}
	return answer, nil
}

// SubmitVote records the caller's vote on an answer once the game timer has expired.
func (s *Service) SubmitVote(ctx context.Context, userID, answerID uuid.UUID) (*models.Vote, error) {
	if answerID == uuid.Nil {
		return nil, apperr.InvalidInput("Missing answer ID.")
	}
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("User not authenticated.")
	}
	target, err := s.store.AnswerTarget(ctx, answerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Answer not found.")
		}
		return nil, apperr.Server("Failed to submit vote.", err)
	}
	if err := s.gate.CheckVoteWindow(target.TimerEnd); err != nil {
		return nil, err
	}

	// Fast path only; the unique constraint decides under concurrency.
	exists, err := s.store.HasVote(ctx, answerID, userID)
	if err != nil {
		return nil, apperr.Server("Failed to submit vote.", err)
	}
	if exists {
		return nil, errVoteExists
	}
	vote, err := s.store.InsertVote(ctx, answerID, userID)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, errVoteExists
		}
		return nil, apperr.Server("Failed to submit vote.", err)
	}
	return vote, nil
}

var errVoteExists = apperr.Conflict(apperr.CodeVoteExists, "You have already voted for this answer.")

// RemoveVote deletes the caller's own vote.
func (s *Service) RemoveVote(ctx context.Context, userID, voteID uuid.UUID) error {
	if voteID == uuid.Nil {
		return apperr.InvalidInput("Missing vote ID.")
	}
	if userID == uuid.Nil {
		return apperr.Unauthorized("User not authenticated.")
	}
	removed, err := s.store.DeleteVote(ctx, voteID, userID)
	if err != nil {
		return apperr.Server("Failed to remove vote.", err)
	}
	if !removed {
		return apperr.NotFound("Vote not found.")
	}
	return nil
}

// GameResults aggregates vote counts per answer for every question of the game.
func (s *Service) GameResults(ctx context.Context, gameID uuid.UUID) (*results.GameResults, error) {
	if gameID == uuid.Nil {
		return nil, apperr.InvalidInput("Missing game ID.")
	}
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.Questions(ctx, gameID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch questions and answers.", err)
	}
	answers, err := s.store.AnswersForGame(ctx, gameID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch questions and answers.", err)
	}
	votes, err := s.store.VotesForGame(ctx, gameID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch votes.", err)
	}
	res := results.AggregateGameResults(*game, questions, answers, votes)
	return &res, nil
}

// ConfirmWinners ends an active game with the given winners. A game ends only once.
func (s *Service) ConfirmWinners(ctx context.Context, gameID uuid.UUID, winners []uuid.UUID) (*models.Game, error) {
	winners = dedupe(winners)
	if gameID == uuid.Nil || len(winners) == 0 {
		return nil, apperr.InvalidInput("Missing game ID or winner IDs.")
	}
	game, err := s.store.EndGame(ctx, gameID, winners)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, apperr.Server("Failed to confirm winners.", err)
		}
		if _, err := s.loadGame(ctx, gameID); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict(apperr.CodeGameEnded, "Winners were already confirmed for this game.")
	}
	s.logger.Info("winners confirmed", zap.String("game_id", gameID.String()), zap.Int("winners", len(winners)))
	if s.pub != nil {
		s.pub.Publish(realtime.GameTopic(gameID), realtime.EventWinnersConfirmed, game)
	}
	return game, nil
}

func (s *Service) loadGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, err := s.store.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Game not found.")
		}
		return nil, apperr.Server("Failed to fetch game.", err)
	}
	if game.ConfirmedWinners == nil {
		game.ConfirmedWinners = []uuid.UUID{}
	}
	return game, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
