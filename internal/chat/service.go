// Package chat serves public and private chat rooms with optional photo messages.
package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/pkg/database"
	"github.com/weddingbets/backend/pkg/storage"
)

// Store is the persistence the chat service needs.
type Store interface {
	CreateRoom(ctx context.Context, name string, isPrivate bool, participants []uuid.UUID) (*models.ChatRoom, error)
	RoomsFor(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	InsertMessage(ctx context.Context, roomID, userID uuid.UUID, content string, photoURL *string) (*models.Message, error)
	Messages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error)
}

// ObjectStore uploads chat photos and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
}

// Compressor shrinks a photo before upload.
type Compressor interface {
	Compress(data []byte) ([]byte, string, error)
}

// Service implements the chat operations.
type Service struct {
	store      Store
	objects    ObjectStore
	bucket     string
	compressor Compressor
	pub        realtime.Publisher
	logger     *zap.Logger
}

// NewService creates the chat service. objects and compressor may be nil, in which case photos
// are dropped.
func NewService(store Store, objects ObjectStore, bucket string, compressor Compressor, pub realtime.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		objects:    objects,
		bucket:     bucket,
		compressor: compressor,
		pub:        pub,
		logger:     logger,
	}
}

// CreateRoom creates a room. Private rooms always include their creator; public rooms keep no
// participant list.
func (s *Service) CreateRoom(ctx context.Context, userID uuid.UUID, name string, isPrivate bool, participants []uuid.UUID) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("Missing or invalid name.")
	}
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("User not authenticated.")
	}
	var members []uuid.UUID
	if isPrivate {
		members = withCreator(participants, userID)
	}
	room, err := s.store.CreateRoom(ctx, name, isPrivate, members)
	if err != nil {
		return nil, apperr.Server("Failed to create chat room.", err)
	}
	return room, nil
}

func withCreator(participants []uuid.UUID, creator uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(participants)+1)
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, p := range participants {
		add(p)
	}
	add(creator)
	return out
}

// Rooms lists the rooms the user can see, newest first.
func (s *Service) Rooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("User not authenticated.")
	}
	list, err := s.store.RoomsFor(ctx, userID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch chat rooms.", err)
	}
	return list, nil
}

// Photo is an image attached to a message.
type Photo struct {
	Data []byte
}

// SendMessage posts to a room and notifies its subscribers. A photo that fails to compress or
// upload is logged and the message goes out without it.
func (s *Service) SendMessage(ctx context.Context, userID, roomID uuid.UUID, content string, photo *Photo) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if roomID == uuid.Nil || content == "" {
		return nil, apperr.InvalidInput("Missing room ID or content.")
	}
	if _, err := s.authorizedRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}

	var photoURL *string
	if photo != nil && len(photo.Data) > 0 {
		if url, err := s.uploadPhoto(ctx, roomID, photo.Data); err != nil {
			s.logger.Warn("chat photo dropped", zap.String("room_id", roomID.String()), zap.Error(err))
		} else {
			photoURL = &url
		}
	}

	msg, err := s.store.InsertMessage(ctx, roomID, userID, content, photoURL)
	if err != nil {
		return nil, apperr.Server("Failed to send message.", err)
	}
	if s.pub != nil {
		s.pub.Publish(realtime.RoomTopic(roomID), realtime.EventMessageCreated, msg)
	}
	return msg, nil
}

func (s *Service) uploadPhoto(ctx context.Context, roomID uuid.UUID, data []byte) (string, error) {
	if s.objects == nil || s.compressor == nil {
		return "", errors.New("photo storage not configured")
	}
	out, contentType, err := s.compressor.Compress(data)
	if err != nil {
		return "", err
	}
	key := storage.ChatPhotoKey(roomID, contentType)
	return s.objects.Upload(ctx, s.bucket, key, contentType, bytes.NewReader(out), int64(len(out)), true)
}

// Messages returns a room's history in ascending timestamp order.
func (s *Service) Messages(ctx context.Context, userID, roomID uuid.UUID) ([]models.Message, error) {
	if roomID == uuid.Nil {
		return nil, apperr.InvalidInput("Missing room ID.")
	}
	if _, err := s.authorizedRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	list, err := s.store.Messages(ctx, roomID)
	if err != nil {
		return nil, apperr.Server("Failed to fetch messages.", err)
	}
	return list, nil
}

// CanSubscribe applies the read rules of Messages to a realtime subscription.
func (s *Service) CanSubscribe(ctx context.Context, userID, roomID uuid.UUID) error {
	_, err := s.authorizedRoom(ctx, userID, roomID)
	return err
}

func (s *Service) authorizedRoom(ctx context.Context, userID, roomID uuid.UUID) (*models.ChatRoom, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("User not authenticated.")
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Chat room not found.")
		}
		return nil, apperr.Server("Failed to fetch chat room.", err)
	}
	if !room.Allows(userID) {
		return nil, apperr.Forbidden("User not authorized for this room.")
	}
	return room, nil
}
