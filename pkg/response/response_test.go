package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingbets/backend/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(h gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	return w
}

func TestErrorWritesRecordWithStatusFromCode(t *testing.T) {
	w := run(func(c *gin.Context) { Error(c, apperr.New(apperr.CodeVoteExists, "You have already voted for this answer.")) })
	assert.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Success bool                   `json:"success"`
		Error   map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "409-VOTE-EXISTS", body.Error["code"])
	assert.Equal(t, "You have already voted for this answer.", body.Error["message"])
	assert.NotContains(t, body.Error, "details")
}

func TestErrorConvertsForeignErrors(t *testing.T) {
	w := run(func(c *gin.Context) { Error(c, errors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"500-SERVER-ERROR"`)
}

func TestOKHasNoErrorField(t *testing.T) {
	w := run(func(c *gin.Context) { OK(c, gin.H{"status": "ok"}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"error"`)
}
