package middleware

import (
	"fmt"
	"io"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-social/pkg/logger"
	"github.com/d60-Lab/gin-social/pkg/response"
)

// Sentry 为每个请求挂载独立 hub，panic 上报后继续抛出，由 Recovery 收尾
func Sentry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second})
}

// Recovery 记录 panic 并返回 500，须挂在 Sentry 之前
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, r any) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.String("panic", fmt.Sprint(r)),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
		})
	})
}
