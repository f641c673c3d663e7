package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-social/config"
	"github.com/d60-Lab/gin-social/internal/api"
	"github.com/d60-Lab/gin-social/internal/api/handler"
	"github.com/d60-Lab/gin-social/internal/cache"
	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/repository"
	"github.com/d60-Lab/gin-social/internal/service"
	"github.com/d60-Lab/gin-social/pkg/database"
	"github.com/d60-Lab/gin-social/pkg/logger"
	"github.com/d60-Lab/gin-social/pkg/tracing"
)

// App 持有 HTTP 服务及其需要关闭的基础设施
type App struct {
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	shutdownTP tracing.ShutdownFunc
}

// New 初始化观测、存储与路由
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return nil, err
		}
		logger.Info("sentry ready")
	}

	shutdownTP, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	var (
		views       cache.ViewCache = cache.NoopViewCache{}
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		views = cache.NewRedisViewCache(redisClient, cfg.Redis.ViewTTL)
		logger.Info("redis ready", zap.String("addr", cfg.Redis.Addr))
	}

	users := repository.NewUserRepository(db)
	identitySync := service.NewIdentitySync(users, views)
	graph := service.NewSocialGraphService(db, identitySync, users,
		repository.NewFollowRepository(db),
		repository.NewNotificationRepository(db),
		views)

	router := api.NewRouter(cfg,
		handler.NewHandler(identitySync, graph),
		identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer))

	return &App{
		httpServer: &http.Server{Addr: cfg.Addr(), Handler: router},
		db:         db,
		redis:      redisClient,
		shutdownTP: shutdownTP,
	}, nil
}

// Run 阻塞直到服务器关闭；正常关闭不视为错误
func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 先停止接收请求，再依次释放 tracer、Redis 与数据库
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.shutdownTP(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := database.Close(a.db); err != nil {
		errs = append(errs, err)
	}
	sentry.Flush(a.flushTimeout(ctx))
	return errors.Join(errs...)
}

func (a *App) flushTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return 0
	}
	return 2 * time.Second
}
