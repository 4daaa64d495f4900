package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurathon-mate/internal/http/response"
	"github.com/yungbote/neurathon-mate/internal/platform/ctxutil"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

func Recover(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.With(
					"request_id", ctxutil.RequestID(c.Request.Context()),
					"panic", rec,
					"stack", string(debug.Stack()),
				).Error("panic recovered")
				response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, errors.New("internal server error"))
			}
		}()
		c.Next()
	}
}
