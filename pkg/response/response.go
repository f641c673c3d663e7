package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-social/pkg/logger"

	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func write(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

// Success 200
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, "success", data)
}

func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, message, nil)
}

func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, message, nil)
}

func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Code: http.StatusTooManyRequests, Message: "too many requests"})
}

// InternalError 记录原始错误，对外只返回通用信息
func InternalError(c *gin.Context, err error) {
	if err != nil {
		logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	}
	write(c, http.StatusInternalServerError, "internal server error", nil)
}

// Fail 以指定状态码返回业务失败
func Fail(c *gin.Context, status int, message string) {
	write(c, status, message, nil)
}
