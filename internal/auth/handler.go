package auth

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/pkg/response"
)

// maxSelfieUpload bounds the multipart selfie read before compression.
const maxSelfieUpload = 15 << 20

// SignUpRequest is the JSON body for POST /auth/signup. Multipart forms use the same field
// names plus an optional "selfie" file.
type SignUpRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SignUp handles POST /auth/signup.
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	in := SignUpInput{}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, "Invalid sign up form.")
			return
		}
		if fh, err := c.FormFile("selfie"); err == nil {
			f, err := fh.Open()
			if err != nil {
				response.BadRequest(c, "Unreadable selfie.")
				return
			}
			in.Selfie, err = io.ReadAll(io.LimitReader(f, maxSelfieUpload))
			_ = f.Close()
			if err != nil {
				response.BadRequest(c, "Unreadable selfie.")
				return
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid email, password, or name format.")
		return
	}
	in.Email, in.Password, in.Name = req.Email, req.Password, req.Name

	session, err := h.svc.SignUp(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email and password are required.")
		return
	}
	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Profile handles GET /auth/profile.
func (h *Handler) Profile(c *gin.Context) {
	user, err := h.svc.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, apperr.Unauthorized("No active session."))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), identity.TokenID, identity.ExpiresAt); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
