package games

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(e *env, user uuid.UUID) *gin.Engine {
	h := NewHandler(e.svc)
	r := gin.New()
	api := r.Group("")
	api.Use(middleware.JWT(func(context.Context, string) (*middleware.Identity, error) {
		return &middleware.Identity{UserID: user, Role: "player"}, nil
	}))
	api.GET("/games/:id", h.Get)
	api.POST("/questions/:id/answers", h.SubmitAnswer)
	api.POST("/answers/:id/votes", h.SubmitVote)
	return r
}

func call(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandlerVoteConflictRecord(t *testing.T) {
	e := newEnv()
	_, answerID := answered(t, e, t0)
	r := newTestRouter(e, uuid.New())

	w := call(r, http.MethodPost, "/answers/"+answerID.String()+"/votes", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = call(r, http.MethodPost, "/answers/"+answerID.String()+"/votes", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "409-VOTE-EXISTS", body.Error.Code)
	assert.Equal(t, "You have already voted for this answer.", body.Error.Message)
}

func TestHandlerAnswerAfterExpiry(t *testing.T) {
	e := newEnv()
	_, qs := e.store.addGame(t0.Add(time.Second), models.AnswerTypeText)
	e.clock.Advance(2 * time.Second)
	r := newTestRouter(e, uuid.New())

	w := call(r, http.MethodPost, "/questions/"+qs[0].ID.String()+"/answers", `{"answer_text":"late"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "403-TIMER-EXPIRED", decode(t, w).Error.Code)
}

func TestHandlerBadID(t *testing.T) {
	r := newTestRouter(newEnv(), uuid.New())
	w := call(r, http.MethodGet, "/games/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "400-INVALID-INPUT", decode(t, w).Error.Code)
}
