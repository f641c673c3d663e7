package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/service"
	"github.com/d60-Lab/gin-social/pkg/response"
)

// Handler 聚合各 HTTP 处理函数依赖的服务
type Handler struct {
	identitySync service.IdentitySync
	graph        service.SocialGraphService
}

func NewHandler(identitySync service.IdentitySync, graph service.SocialGraphService) *Handler {
	return &Handler{identitySync: identitySync, graph: graph}
}

func principalOf(c *gin.Context) *identity.Principal {
	return identity.FromContext(c.Request.Context())
}

// respond 写出非 OK 结果并返回 false；OK 时不写响应
func respond[T any](c *gin.Context, r service.Result[T]) bool {
	if r.OK() {
		return true
	}
	msg := r.Message
	status := http.StatusInternalServerError
	switch r.Kind {
	case service.KindUnauthenticated:
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindSelfFollow, service.KindInvalid:
		status = http.StatusBadRequest
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	response.Fail(c, status, msg)
	return false
}
