package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/gin-social/config"
	_ "github.com/d60-Lab/gin-social/docs"
	"github.com/d60-Lab/gin-social/internal/api/handler"
	"github.com/d60-Lab/gin-social/internal/api/middleware"
	"github.com/d60-Lab/gin-social/internal/identity"
)

// NewRouter 装配中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler, verifier *identity.Verifier) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Recovery(), middleware.Sentry(), middleware.Logger(), gzip.Gzip(gzip.DefaultCompression))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Authenticate(verifier))
	{
		users := v1.Group("/users")
		users.POST("/sync", h.SyncUser)
		users.GET("/me/id", h.GetMyID)
		users.GET("/by-clerk/:clerk_id", h.GetUserByClerkID)
		users.GET("/suggestions", h.Suggestions)

		follows := v1.Group("/follows")
		follows.POST("/:user_id/toggle", h.ToggleFollow)
		follows.GET("/:user_id/status", h.FollowStatus)

		relations := v1.Group("/relations")
		relations.GET("/:user_id/following", h.ListFollowing)
		relations.GET("/:user_id/followers", h.ListFollowers)

		v1.GET("/notifications", h.ListNotifications)
	}
	return r
}
