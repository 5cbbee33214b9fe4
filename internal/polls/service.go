// Package polls runs multi-option polls attached to games with one live-updating vote per user.
package polls

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/internal/results"
	"github.com/weddingbets/backend/pkg/database"
)

// Store is the persistence the polls service needs.
type Store interface {
	GameExists(ctx context.Context, gameID uuid.UUID) (bool, error)
	Create(ctx context.Context, gameID uuid.UUID, questionText string, options []string) (*models.Poll, error)
	ActiveByGame(ctx context.Context, gameID uuid.UUID) ([]models.Poll, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	Close(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	UpsertVote(ctx context.Context, pollID, userID uuid.UUID, option string) (*models.PollVote, error)
	Votes(ctx context.Context, pollID uuid.UUID) ([]models.PollVote, error)
}

// Service implements the poll operations.
type Service struct {
	store  Store
	pub    realtime.Publisher
	logger *zap.Logger
}

// NewService creates the polls service. pub may be nil.
func NewService(store Store, pub realtime.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pub: pub, logger: logger}
}

// CreatePoll creates an active poll with at least two distinct options.
func (s *Service) CreatePoll(ctx context.Context, gameID uuid.UUID, questionText string, options []string) (*models.Poll, error) {
	questionText = strings.TrimSpace(questionText)
	opts, ok := cleanOptions(options)
	if gameID == uuid.Nil || questionText == "" || !ok {
		return nil, apperr.InvalidInput("Missing or invalid game ID, question, or options.")
	}
	exists, err := s.store.GameExists(ctx, gameID)
	if err != nil {
		return nil, apperr.Server("Failed to create poll.", err)
	}
	if !exists {
		return nil, apperr.NotFound("Game not found.")
	}
	poll, err := s.store.Create(ctx, gameID, questionText, opts)
	if err != nil {
		return nil, apperr.Server("Failed to create poll.", err)
	}
	return poll, nil
}

func cleanOptions(options []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(options))
	out := make([]string, 0, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, false
		}
		if _, dup := seen[o]; dup {
			return nil, false
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out, len(out) >= 2
}

// ActivePolls lists the game's active polls, newest first.
func (s *Service) ActivePolls(ctx context.Context, gameID uuid.UUID) ([]models.Poll, error) {
	if gameID == uuid.Nil {
		return nil, apperr.InvalidInput("Missing game ID.")
	}
	list, err := s.store.ActiveByGame(ctx, gameID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch polls.", err)
	}
	return list, nil
}

// SubmitPollVote records or replaces the caller's vote and notifies poll subscribers.
func (s *Service) SubmitPollVote(ctx context.Context, userID, pollID uuid.UUID, option string) (*models.PollVote, error) {
	option = strings.TrimSpace(option)
	if pollID == uuid.Nil || option == "" {
		return nil, apperr.InvalidInput("Missing poll ID or option.")
	}
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("User not authenticated.")
	}
	poll, err := s.loadPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Status != models.PollStatusActive {
		return nil, apperr.New(apperr.CodePollClosed, "Poll is no longer active.")
	}
	if !poll.HasOption(option) {
		return nil, apperr.New(apperr.CodeInvalidOption, "Invalid poll option.")
	}
	vote, err := s.store.UpsertVote(ctx, pollID, userID, option)
	if err != nil {
		return nil, apperr.Server("Failed to submit vote.", err)
	}
	if s.pub != nil {
		s.pub.Publish(realtime.PollTopic(pollID), realtime.EventPollVote, vote)
	}
	return vote, nil
}

// PollResults tallies the poll's votes per declared option.
func (s *Service) PollResults(ctx context.Context, pollID uuid.UUID) (*results.PollResults, error) {
	if pollID == uuid.Nil {
		return nil, apperr.InvalidInput("Missing poll ID.")
	}
	poll, err := s.loadPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.Votes(ctx, pollID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch poll results.", err)
	}
	res := results.AggregatePoll(*poll, votes)
	return &res, nil
}

// ClosePoll stops accepting votes.
func (s *Service) ClosePoll(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	if pollID == uuid.Nil {
		return nil, apperr.InvalidInput("Missing poll ID.")
	}
	poll, err := s.store.Close(ctx, pollID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Poll not found.")
		}
		return nil, apperr.Server("Failed to close poll.", err)
	}
	s.logger.Info("poll closed", zap.String("poll_id", pollID.String()))
	return poll, nil
}

func (s *Service) loadPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	poll, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Poll not found.")
		}
		return nil, apperr.Server("Failed to fetch poll.", err)
	}
	return poll, nil
}
