package polls

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/pkg/response"
)

// CreateRequest is the body for POST /games/:id/polls.
type CreateRequest struct {
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
}

// VoteRequest is the body for POST /polls/:id/votes.
type VoteRequest struct {
	Option string `json:"option"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a polls handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func paramID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid "+what+" ID.")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /games/:id/polls (admin).
func (h *Handler) Create(c *gin.Context) {
	gameID, ok := paramID(c, "game")
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing or invalid game ID, question, or options.")
		return
	}
	poll, err := h.svc.CreatePoll(c.Request.Context(), gameID, req.QuestionText, req.Options)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, poll)
}

// ListActive handles GET /games/:id/polls.
func (h *Handler) ListActive(c *gin.Context) {
	gameID, ok := paramID(c, "game")
	if !ok {
		return
	}
	list, err := h.svc.ActivePolls(c.Request.Context(), gameID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Vote handles POST /polls/:id/votes.
func (h *Handler) Vote(c *gin.Context) {
	pollID, ok := paramID(c, "poll")
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing poll ID or option.")
		return
	}
	vote, err := h.svc.SubmitPollVote(c.Request.Context(), middleware.UserID(c), pollID, req.Option)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, vote)
}

// Results handles GET /polls/:id/results.
func (h *Handler) Results(c *gin.Context) {
	pollID, ok := paramID(c, "poll")
	if !ok {
		return
	}
	res, err := h.svc.PollResults(c.Request.Context(), pollID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Close handles POST /polls/:id/close (admin).
func (h *Handler) Close(c *gin.Context) {
	pollID, ok := paramID(c, "poll")
	if !ok {
		return
	}
	poll, err := h.svc.ClosePoll(c.Request.Context(), pollID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, poll)
}
