package games

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/pkg/database"
)

const gameColumns = `id, name, timer_end, status, confirmed_winners, created_at`

// Repository handles game, question, answer and vote persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a games repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var g models.Game
	var status string
	if err := row.Scan(&g.ID, &g.Name, &g.TimerEnd, &status, &g.ConfirmedWinners, &g.CreatedAt); err != nil {
		return nil, database.Classify(err)
	}
	g.Status = models.GameStatus(status)
	return &g, nil
}

// CreateGame inserts the game and its questions in one transaction.
func (r *Repository) CreateGame(ctx context.Context, name string, timerEnd time.Time, questions []NewQuestion) (*models.GameWithQuestions, error) {
	out := &models.GameWithQuestions{}
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		g, err := scanGame(tx.QueryRow(ctx,
			`INSERT INTO games (name, timer_end, status) VALUES ($1, $2, 'active') RETURNING `+gameColumns,
			name, timerEnd))
		if err != nil {
			return err
		}
		out.Game = *g
		out.Questions = make([]models.Question, 0, len(questions))
		for _, nq := range questions {
			q := models.Question{GameID: g.ID, QuestionText: nq.QuestionText, AnswerType: nq.AnswerType}
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (game_id, question_text, answer_type) VALUES ($1, $2, $3) RETURNING id, created_at`,
				g.ID, nq.QuestionText, string(nq.AnswerType)).Scan(&q.ID, &q.CreatedAt); err != nil {
				return err
			}
			out.Questions = append(out.Questions, q)
		}
		return nil
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}

// ActiveGames returns active games, soonest timer first.
func (r *Repository) ActiveGames(ctx context.Context) ([]models.Game, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+gameColumns+` FROM games WHERE status = 'active' ORDER BY timer_end ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

// GetGame returns a game by ID.
func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return scanGame(r.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
}

// Questions returns the questions of a game in creation order.
func (r *Repository) Questions(ctx context.Context, gameID uuid.UUID) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, game_id, question_text, answer_type, created_at
		FROM questions WHERE game_id = $1 ORDER BY created_at, id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Question{}
	for rows.Next() {
		var q models.Question
		var typ string
		if err := rows.Scan(&q.ID, &q.GameID, &q.QuestionText, &typ, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.AnswerType = models.AnswerType(typ)
		list = append(list, q)
	}
	return list, rows.Err()
}

// QuestionTarget returns a question with the current timer of its game.
func (r *Repository) QuestionTarget(ctx context.Context, questionID uuid.UUID) (*models.QuestionTarget, error) {
	const q = `SELECT q.id, q.game_id, q.question_text, q.answer_type, q.created_at, g.timer_end
		FROM questions q JOIN games g ON g.id = q.game_id WHERE q.id = $1`
	var t models.QuestionTarget
	var typ string
	err := r.pool.QueryRow(ctx, q, questionID).
		Scan(&t.ID, &t.GameID, &t.QuestionText, &typ, &t.CreatedAt, &t.TimerEnd)
	if err != nil {
		return nil, database.Classify(err)
	}
	t.AnswerType = models.AnswerType(typ)
	return &t, nil
}

// UpsertAnswer stores the caller's answer, replacing a previous one for the same question.
// Exactly one of answerText and choice is non-nil.
func (r *Repository) UpsertAnswer(ctx context.Context, questionID, userID uuid.UUID, answerText, choice *string) (*models.Answer, error) {
	const q = `INSERT INTO answers (question_id, user_id, answer_text, choice)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (question_id, user_id) DO UPDATE
		SET answer_text = EXCLUDED.answer_text, choice = EXCLUDED.choice, updated_at = NOW()
		RETURNING id, question_id, user_id, answer_text, choice, created_at, updated_at`
	var a models.Answer
	err := r.pool.QueryRow(ctx, q, questionID, userID, answerText, choice).
		Scan(&a.ID, &a.QuestionID, &a.UserID, &a.AnswerText, &a.Choice, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &a, nil
}

// AnswerTarget returns an answer with the game and current timer it belongs to.
func (r *Repository) AnswerTarget(ctx context.Context, answerID uuid.UUID) (*models.AnswerTarget, error) {
	const q = `SELECT a.id, a.question_id, a.user_id, a.answer_text, a.choice, a.created_at, a.updated_at,
		g.id, g.timer_end
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		JOIN games g ON g.id = q.game_id
		WHERE a.id = $1`
	var t models.AnswerTarget
	err := r.pool.QueryRow(ctx, q, answerID).
		Scan(&t.ID, &t.QuestionID, &t.UserID, &t.AnswerText, &t.Choice, &t.CreatedAt, &t.UpdatedAt, &t.GameID, &t.TimerEnd)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &t, nil
}

// HasVote reports whether userID already voted for answerID.
func (r *Repository) HasVote(ctx context.Context, answerID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE answer_id = $1 AND user_id = $2)`, answerID, userID).Scan(&exists)
	return exists, err
}

// InsertVote records a vote. A second vote by the same user yields database.ErrDuplicate.
func (r *Repository) InsertVote(ctx context.Context, answerID, userID uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	err := r.pool.QueryRow(ctx,
		`INSERT INTO votes (answer_id, user_id) VALUES ($1, $2) RETURNING id, answer_id, user_id, created_at`,
		answerID, userID).Scan(&v.ID, &v.AnswerID, &v.UserID, &v.CreatedAt)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &v, nil
}

// DeleteVote removes voteID only when it belongs to userID. Reports whether a row was removed.
func (r *Repository) DeleteVote(ctx context.Context, voteID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM votes WHERE id = $1 AND user_id = $2`, voteID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AnswersForGame returns every answer to any question of the game, oldest first.
func (r *Repository) AnswersForGame(ctx context.Context, gameID uuid.UUID) ([]models.Answer, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.question_id, a.user_id, a.answer_text, a.choice, a.created_at, a.updated_at
		FROM answers a JOIN questions q ON q.id = a.question_id
		WHERE q.game_id = $1 ORDER BY a.created_at, a.id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.AnswerText, &a.Choice, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// VotesForGame returns every vote on answers of the game.
func (r *Repository) VotesForGame(ctx context.Context, gameID uuid.UUID) ([]models.Vote, error) {
	rows, err := r.pool.Query(ctx, `SELECT v.id, v.answer_id, v.user_id, v.created_at
		FROM votes v
		JOIN answers a ON a.id = v.answer_id
		JOIN questions q ON q.id = a.question_id
		WHERE q.game_id = $1`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.AnswerID, &v.UserID, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// EndGame moves an active game to ended with its winners. Returns database.ErrNotFound when
// the game does not exist or was already ended.
func (r *Repository) EndGame(ctx context.Context, gameID uuid.UUID, winners []uuid.UUID) (*models.Game, error) {
	return scanGame(r.pool.QueryRow(ctx, `UPDATE games SET status = 'ended', confirmed_winners = $2
		WHERE id = $1 AND status = 'active' RETURNING `+gameColumns, gameID, winners))
}

// AnnounceExpired flags every game whose timer has passed and was not announced yet,
// returning their ids. Each game is returned at most once over its lifetime.
func (r *Repository) AnnounceExpired(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `UPDATE games SET timer_announced = TRUE
		WHERE timer_end <= NOW() AND timer_announced = FALSE RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
