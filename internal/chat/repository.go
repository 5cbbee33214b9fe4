package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/pkg/database"
)

const (
	roomColumns    = `id, name, is_private, participants, created_at`
	messageColumns = `id, room_id, user_id, content, timestamp, photo_url`
)

// Repository handles chat room and message persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRoom(row pgx.Row) (*models.ChatRoom, error) {
	var r models.ChatRoom
	if err := row.Scan(&r.ID, &r.Name, &r.IsPrivate, &r.Participants, &r.CreatedAt); err != nil {
		return nil, database.Classify(err)
	}
	if r.Participants == nil {
		r.Participants = []uuid.UUID{}
	}
	return &r, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Content, &m.Timestamp, &m.PhotoURL); err != nil {
		return nil, database.Classify(err)
	}
	return &m, nil
}

// CreateRoom inserts a room. participants is nil for public rooms.
func (r *Repository) CreateRoom(ctx context.Context, name string, isPrivate bool, participants []uuid.UUID) (*models.ChatRoom, error) {
	return scanRoom(r.pool.QueryRow(ctx, `INSERT INTO chat_rooms (name, is_private, participants)
		VALUES ($1, $2, $3) RETURNING `+roomColumns, name, isPrivate, participants))
}

// RoomsFor returns public rooms and private rooms listing userID, newest first.
func (r *Repository) RoomsFor(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roomColumns+` FROM chat_rooms
		WHERE is_private = FALSE OR $1 = ANY(participants)
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.ChatRoom{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *room)
	}
	return list, rows.Err()
}

// GetRoom returns a room by ID.
func (r *Repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	return scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chat_rooms WHERE id = $1`, id))
}

// InsertMessage stores a message. The timestamp is assigned by the database.
func (r *Repository) InsertMessage(ctx context.Context, roomID, userID uuid.UUID, content string, photoURL *string) (*models.Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `INSERT INTO messages (room_id, user_id, content, photo_url)
		VALUES ($1, $2, $3, $4) RETURNING `+messageColumns, roomID, userID, content, photoURL))
}

// Messages returns a room's messages in ascending timestamp order.
func (r *Repository) Messages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages
		WHERE room_id = $1 ORDER BY timestamp ASC, id ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}
