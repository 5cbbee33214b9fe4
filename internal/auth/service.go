package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/pkg/database"
	"github.com/weddingbets/backend/pkg/queue"
	"github.com/weddingbets/backend/pkg/storage"
	"github.com/weddingbets/backend/pkg/utils"
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.User, error)
}

// ObjectStore receives raw selfie uploads.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
}

// SelfieQueue schedules selfie processing.
type SelfieQueue interface {
	EnqueueSelfie(ctx context.Context, payload queue.SelfiePayload) error
}

// TokenDenylist stores logged-out token ids.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SignUpInput is the sign up request. Selfie is optional.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Selfie   []byte
}

// Session is returned by sign up and login.
type Session struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      models.UserPublic `json:"user"`
}

// Service implements sign up, login, profile and logout.
type Service struct {
	users        UserStore
	jwt          *JWTService
	denylist     TokenDenylist
	objects      ObjectStore
	selfieBucket string
	jobs         SelfieQueue
	logger       *zap.Logger
}

// NewService creates the auth service. objects and jobs may be nil, in which case selfies are dropped.
func NewService(users UserStore, jwt *JWTService, denylist TokenDenylist, objects ObjectStore, selfieBucket string, jobs SelfieQueue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:        users,
		jwt:          jwt,
		denylist:     denylist,
		objects:      objects,
		selfieBucket: selfieBucket,
		jobs:         jobs,
		logger:       logger,
	}
}

// SignUp registers a player and opens a session. A selfie failure never fails the sign up.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := utils.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || len(in.Password) < utils.MinPasswordLength {
		return nil, apperr.InvalidInput("Invalid email, password, or name format.")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Server("Failed to create user due to server issue.", err)
	}
	user, err := s.users.Create(ctx, email, hash, name, models.RolePlayer)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.CodeUserExists, "User already registered.")
		}
		return nil, apperr.Server("Failed to create user due to server issue.", err)
	}

	if len(in.Selfie) > 0 {
		s.scheduleSelfie(ctx, user.ID, in.Selfie)
	}
	return s.session(user)
}

func (s *Service) scheduleSelfie(ctx context.Context, userID uuid.UUID, selfie []byte) {
	if s.objects == nil || s.jobs == nil {
		s.logger.Warn("selfie storage not configured; selfie dropped", zap.String("user_id", userID.String()))
		return
	}
	contentType := http.DetectContentType(selfie)
	key := storage.RawSelfieKey(userID, contentType)
	if _, err := s.objects.Upload(ctx, s.selfieBucket, key, contentType, bytes.NewReader(selfie), int64(len(selfie)), false); err != nil {
		s.logger.Error("selfie upload failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	payload := queue.SelfiePayload{UserID: userID, RawKey: key, ContentType: contentType}
	if err := s.jobs.EnqueueSelfie(ctx, payload); err != nil {
		s.logger.Error("selfie enqueue failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.InvalidInput("Email and password are required.")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid email or password.")
		}
		return nil, apperr.Server("Failed to log in due to server issue.", err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, apperr.Unauthorized("Invalid email or password.")
	}
	return s.session(user)
}

// Profile returns the signed-in user.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.UserPublic, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("No active session.")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("User not found.")
		}
		return nil, apperr.Server("Failed to load profile.", err)
	}
	pub := user.ToPublic()
	return &pub, nil
}

// Logout revokes the session token until it would have expired.
func (s *Service) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return apperr.Unauthorized("No active session.")
	}
	if s.denylist == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, tokenID, expiresAt); err != nil {
		return apperr.Server("Failed to log out.", err)
	}
	return nil
}

// Authenticate resolves a bearer token to the caller, rejecting logged-out tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (*middleware.Identity, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token.")
	}
	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Server("Failed to check session.", err)
		}
		if revoked {
			return nil, apperr.Unauthorized("Session has been logged out.")
		}
	}
	identity := &middleware.Identity{
		UserID:  claims.UserID,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Server("Failed to create session.", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user.ToPublic()}, nil
}
