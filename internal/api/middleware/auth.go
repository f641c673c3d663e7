package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/pkg/logger"
	"github.com/d60-Lab/gin-social/pkg/response"
)

// Authenticate 解析 Bearer 令牌并把主体挂到请求 ctx 上。
// 未携带令牌视为匿名请求继续处理；令牌无效返回 401。
func Authenticate(v *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw, ok := identity.BearerToken(header)
		if !ok {
			response.Unauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}
		p, err := v.Verify(raw)
		if err != nil {
			logger.Debug("rejecting identity token", zap.Error(err))
			response.Unauthorized(c, "invalid identity token")
			c.Abort()
			return
		}
		c.Set("clerk_id", p.ClerkID)
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
