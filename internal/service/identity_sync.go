package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-social/internal/cache"
	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/model"
	"github.com/d60-Lab/gin-social/internal/repository"
	"github.com/d60-Lab/gin-social/pkg/logger"
)

var (
	ErrNoPrimaryEmail = errors.New("identity profile has no email address")
	ErrEmptyHandle    = errors.New("cannot derive a username from identity profile")
)

// IdentitySync 将外部身份主体与本地用户对齐
type IdentitySync interface {
	// SyncUser 按 clerk_id 查找或创建本地用户；已存在时原样返回，不刷新资料
	SyncUser(ctx context.Context, p *identity.Principal) Result[*model.User]
	// GetUserByClerkID 返回用户及计数，不存在时为 KindNotFound
	GetUserByClerkID(ctx context.Context, clerkID string) Result[*model.UserProfile]
	// GetDBUserID 解析主体对应的本地用户 ID；已认证但无本地记录时为 KindNotFound
	GetDBUserID(ctx context.Context, p *identity.Principal) Result[string]
}

type identitySync struct {
	users repository.UserRepository
	views cache.ViewCache
}

func NewIdentitySync(users repository.UserRepository, views cache.ViewCache) IdentitySync {
	if views == nil {
		views = cache.NoopViewCache{}
	}
	return &identitySync{users: users, views: views}
}

func (s *identitySync) SyncUser(ctx context.Context, p *identity.Principal) Result[*model.User] {
	if p == nil {
		return Fail[*model.User](KindUnauthenticated, "", nil)
	}
	ctx, span := tracer.Start(ctx, "IdentitySync.SyncUser")
	defer span.End()
	span.SetAttributes(attribute.String("clerk_id", p.ClerkID))

	existing, err := s.users.FindByClerkID(ctx, p.ClerkID)
	if err == nil {
		return Ok(existing)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Error("error syncing user", zap.String("clerk_id", p.ClerkID), zap.Error(err))
		recordFailure(span, KindDataLayer, err)
		return Fail[*model.User](KindDataLayer, "Error syncing user", err)
	}

	user, err := newUserFromProfile(p)
	if err != nil {
		logger.Warn("error syncing user", zap.String("clerk_id", p.ClerkID), zap.Error(err))
		recordFailure(span, KindInvalid, err)
		return Fail[*model.User](KindInvalid, "Error syncing user", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		// 并发首次同步：另一请求已写入同一 clerk_id
		if again, findErr := s.users.FindByClerkID(ctx, p.ClerkID); findErr == nil {
			return Ok(again)
		}
		logger.Error("error syncing user", zap.String("clerk_id", p.ClerkID), zap.Error(err))
		recordFailure(span, KindDataLayer, err)
		return Fail[*model.User](KindDataLayer, "Error syncing user", err)
	}

	// 新用户进入所有人的推荐候选
	s.views.Invalidate(ctx, cache.RootPath)
	logger.Info("user synced", zap.String("clerk_id", p.ClerkID), zap.String("user_id", user.ID))
	return Ok(user)
}

func newUserFromProfile(p *identity.Principal) (*model.User, error) {
	email := p.Profile.PrimaryEmail()
	if email == "" {
		return nil, ErrNoPrimaryEmail
	}
	handle := p.Profile.Handle()
	if handle == "" {
		return nil, ErrEmptyHandle
	}
	return &model.User{
		ClerkID:  p.ClerkID,
		Name:     p.Profile.DisplayName(),
		Username: handle,
		Email:    email,
		Image:    p.Profile.ImageURL,
	}, nil
}

func (s *identitySync) GetUserByClerkID(ctx context.Context, clerkID string) Result[*model.UserProfile] {
	profile, err := s.users.GetProfileByClerkID(ctx, clerkID)
	switch {
	case err == nil:
		return Ok(profile)
	case errors.Is(err, repository.ErrNotFound):
		return Fail[*model.UserProfile](KindNotFound, "User not found", nil)
	default:
		logger.Error("error loading user", zap.String("clerk_id", clerkID), zap.Error(err))
		return Fail[*model.UserProfile](KindDataLayer, "Error loading user", err)
	}
}

func (s *identitySync) GetDBUserID(ctx context.Context, p *identity.Principal) Result[string] {
	if p == nil {
		return Fail[string](KindUnauthenticated, "", nil)
	}
	user, err := s.users.FindByClerkID(ctx, p.ClerkID)
	switch {
	case err == nil:
		return Ok(user.ID)
	case errors.Is(err, repository.ErrNotFound):
		return Fail[string](KindNotFound, "User not found", nil)
	default:
		logger.Error("error resolving user id", zap.String("clerk_id", p.ClerkID), zap.Error(err))
		return Fail[string](KindDataLayer, "Error resolving user", err)
	}
}
