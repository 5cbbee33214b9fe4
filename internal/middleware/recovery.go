package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/pkg/response"
)

// Recovery turns panics into a 500-SERVER-ERROR record.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		response.Abort(c, apperr.Server("Unexpected server error.", fmt.Errorf("%v", recovered)))
	})
}
