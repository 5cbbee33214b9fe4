package polls

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/pkg/database"
)

const pollColumns = `id, game_id, question_text, options, status, created_at`

// Repository handles poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPoll(row pgx.Row) (*models.Poll, error) {
	var p models.Poll
	var status string
	if err := row.Scan(&p.ID, &p.GameID, &p.QuestionText, &p.Options, &status, &p.CreatedAt); err != nil {
		return nil, database.Classify(err)
	}
	p.Status = models.PollStatus(status)
	return &p, nil
}

// GameExists reports whether the game exists.
func (r *Repository) GameExists(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, gameID).Scan(&exists)
	return exists, err
}

// Create inserts an active poll.
func (r *Repository) Create(ctx context.Context, gameID uuid.UUID, questionText string, options []string) (*models.Poll, error) {
	return scanPoll(r.pool.QueryRow(ctx, `INSERT INTO polls (game_id, question_text, options, status)
		VALUES ($1, $2, $3, 'active') RETURNING `+pollColumns, gameID, questionText, options))
}

// ActiveByGame returns the game's active polls, newest first.
func (r *Repository) ActiveByGame(ctx context.Context, gameID uuid.UUID) ([]models.Poll, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pollColumns+` FROM polls
		WHERE game_id = $1 AND status = 'active' ORDER BY created_at DESC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// GetByID returns a poll by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	return scanPoll(r.pool.QueryRow(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id))
}

// Close sets the poll to closed. Closing twice is a no-op.
func (r *Repository) Close(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	return scanPoll(r.pool.QueryRow(ctx, `UPDATE polls SET status = 'closed' WHERE id = $1 RETURNING `+pollColumns, id))
}

// UpsertVote records a user's option. One per user per poll; a re-vote replaces the option.
func (r *Repository) UpsertVote(ctx context.Context, pollID, userID uuid.UUID, option string) (*models.PollVote, error) {
	const q = `INSERT INTO poll_votes (poll_id, user_id, option) VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, user_id) DO UPDATE SET option = EXCLUDED.option, created_at = NOW()
		RETURNING id, poll_id, user_id, option, created_at`
	var v models.PollVote
	err := r.pool.QueryRow(ctx, q, pollID, userID, option).Scan(&v.ID, &v.PollID, &v.UserID, &v.Option, &v.CreatedAt)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &v, nil
}

// Votes returns all votes of a poll.
func (r *Repository) Votes(ctx context.Context, pollID uuid.UUID) ([]models.PollVote, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, poll_id, user_id, option, created_at FROM poll_votes WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PollVote{}
	for rows.Next() {
		var v models.PollVote
		if err := rows.Scan(&v.ID, &v.PollID, &v.UserID, &v.Option, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
