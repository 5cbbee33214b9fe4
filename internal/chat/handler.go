package chat

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/pkg/response"
)

// maxPhotoUpload bounds the multipart photo read before compression.
const maxPhotoUpload = 15 << 20

// CreateRoomRequest is the body for POST /rooms.
type CreateRoomRequest struct {
	Name         string      `json:"name"`
	IsPrivate    bool        `json:"is_private"`
	Participants []uuid.UUID `json:"participants"`
}

// SendMessageRequest is the JSON body for POST /rooms/:id/messages. Multipart forms carry
// "content" and an optional "photo" file.
type SendMessageRequest struct {
	Content string `json:"content" form:"content"`
}

// Handler handles chat HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a chat handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateRoom handles POST /rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing or invalid name.")
		return
	}
	room, err := h.svc.CreateRoom(c.Request.Context(), middleware.UserID(c), req.Name, req.IsPrivate, req.Participants)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// ListRooms handles GET /rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	list, err := h.svc.Rooms(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Messages handles GET /rooms/:id/messages.
func (h *Handler) Messages(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Missing room ID.")
		return
	}
	list, err := h.svc.Messages(c.Request.Context(), middleware.UserID(c), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// SendMessage handles POST /rooms/:id/messages, as JSON or multipart with a photo.
func (h *Handler) SendMessage(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Missing room ID or content.")
		return
	}
	var req SendMessageRequest
	var photo *Photo
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, "Missing room ID or content.")
			return
		}
		if fh, err := c.FormFile("photo"); err == nil {
			f, err := fh.Open()
			if err == nil {
				data, readErr := io.ReadAll(io.LimitReader(f, maxPhotoUpload))
				_ = f.Close()
				if readErr == nil {
					photo = &Photo{Data: data}
				}
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing room ID or content.")
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), middleware.UserID(c), roomID, req.Content, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}
