// Package response writes the API envelope. Failures always carry the uniform error record so
// clients branch on the presence of "error".
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weddingbets/backend/internal/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *apperr.Error `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends err as the uniform error record with the status its code implies.
// Errors that are not *apperr.Error become 500-SERVER-ERROR.
func Error(c *gin.Context, err error) {
	e := apperr.From(err)
	c.JSON(e.Status(), Body{Success: false, Error: e})
}

// Abort is Error followed by c.Abort, for middleware.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BadRequest sends 400-INVALID-INPUT with message.
func BadRequest(c *gin.Context, message string) {
	Error(c, apperr.InvalidInput(message))
}

// Unauthorized sends 401-UNAUTHORIZED.
func Unauthorized(c *gin.Context, message string) {
	Error(c, apperr.Unauthorized(message))
}

// Forbidden sends 403-FORBIDDEN.
func Forbidden(c *gin.Context, message string) {
	Error(c, apperr.Forbidden(message))
}

// NotFound sends 404-NOT-FOUND.
func NotFound(c *gin.Context, message string) {
	Error(c, apperr.NotFound(message))
}

// Internal sends 500-SERVER-ERROR.
func Internal(c *gin.Context, message string) {
	Error(c, apperr.Server(message, nil))
}
