package games

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/pkg/response"
)

// CreateRequest is the body for POST /games.
type CreateRequest struct {
	Name      string        `json:"name"`
	TimerEnd  time.Time     `json:"timer_end"`
	Questions []NewQuestion `json:"questions"`
}

// WinnersRequest is the body for POST /games/:id/winners.
type WinnersRequest struct {
	Winners []uuid.UUID `json:"winners"`
}

// Handler handles game HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a games handler.
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

// Create handles POST /games (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing or invalid game name, timer, or questions.")
		return
	}
	game, err := h.svc.CreateGame(c.Request.Context(), req.Name, req.TimerEnd, req.Questions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, game)
}

// List handles GET /games.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.ActiveGames(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /games/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := paramID(c, "game")
	if !ok {
		return
	}
	game, err := h.svc.GetGame(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, game)
}

// Results handles GET /games/:id/results.
func (h *Handler) Results(c *gin.Context) {
	id, ok := paramID(c, "game")
	if !ok {
		return
	}
	res, err := h.svc.GameResults(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// ConfirmWinners handles POST /games/:id/winners (admin).
func (h *Handler) ConfirmWinners(c *gin.Context) {
	id, ok := paramID(c, "game")
	if !ok {
		return
	}
	var req WinnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing game ID or winner IDs.")
		return
	}
	game, err := h.svc.ConfirmWinners(c.Request.Context(), id, req.Winners)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, game)
}

// SubmitAnswer handles POST /questions/:id/answers.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	id, ok := paramID(c, "question")
	if !ok {
		return
	}
	var in AnswerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Missing question ID or answer.")
		return
	}
	answer, err := h.svc.SubmitAnswer(c.Request.Context(), middleware.UserID(c), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, answer)
}

// SubmitVote handles POST /answers/:id/votes.
func (h *Handler) SubmitVote(c *gin.Context) {
	id, ok := paramID(c, "answer")
	if !ok {
		return
	}
	vote, err := h.svc.SubmitVote(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vote)
}

// RemoveVote handles DELETE /votes/:id.
func (h *Handler) RemoveVote(c *gin.Context) {
	id, ok := paramID(c, "vote")
	if !ok {
		return
	}
	if err := h.svc.RemoveVote(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
