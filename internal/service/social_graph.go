package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-social/internal/cache"
	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/model"
	"github.com/d60-Lab/gin-social/internal/repository"
	"github.com/d60-Lab/gin-social/pkg/logger"
)

// MsgFollowFailed 关注切换失败时对外的固定信息
const MsgFollowFailed = "Error following user"

const (
	suggestionLimit   = 3
	maxToggleAttempts = 3
)

var (
	ErrFollowSelf     = errors.New("you cannot follow yourself")
	ErrTargetNotFound = errors.New("target user not found")

	errToggleConflict = errors.New("concurrent follow toggle")
)

// FollowState 调用者到目标的有向边状态
type FollowState string

const (
	StateFollowing    FollowState = "FOLLOWING"
	StateNotFollowing FollowState = "NOT_FOLLOWING"
)

// SocialGraphService 关系链服务
type SocialGraphService interface {
	// GetRandomUsers 推荐最多 3 个未关注的用户；任何失败都返回空切片
	GetRandomUsers(ctx context.Context, p *identity.Principal) []*model.UserSummary
	// ToggleFollow 在单个事务内删除已有关注，或创建关注并通知目标
	ToggleFollow(ctx context.Context, p *identity.Principal, targetUserID string) Result[FollowState]
	IsFollowing(ctx context.Context, p *identity.Principal, targetUserID string) Result[bool]
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListNotifications(ctx context.Context, p *identity.Principal, limit int) Result[[]*model.NotificationView]
}

type socialGraphService struct {
	db            *gorm.DB
	identity      IdentitySync
	users         repository.UserRepository
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	views         cache.ViewCache
}

func NewSocialGraphService(
	db *gorm.DB,
	identitySync IdentitySync,
	users repository.UserRepository,
	follows repository.FollowRepository,
	notifications repository.NotificationRepository,
	views cache.ViewCache,
) SocialGraphService {
	if views == nil {
		views = cache.NoopViewCache{}
	}
	return &socialGraphService{
		db:            db,
		identity:      identitySync,
		users:         users,
		follows:       follows,
		notifications: notifications,
		views:         views,
	}
}

func (s *socialGraphService) GetRandomUsers(ctx context.Context, p *identity.Principal) []*model.UserSummary {
	ctx, span := tracer.Start(ctx, "SocialGraph.GetRandomUsers")
	defer span.End()

	empty := []*model.UserSummary{}
	me := s.identity.GetDBUserID(ctx, p)
	if !me.OK() {
		return empty
	}

	var cached []*model.UserSummary
	if s.views.Get(ctx, cache.RootPath, me.Data, &cached) {
		return cached
	}
	// 代数须在查询前读取，查询期间发生的失效会使回填作废
	gen, cacheable := s.views.Generation(ctx, cache.RootPath)

	users, err := s.users.ListSuggestions(ctx, me.Data, suggestionLimit)
	if err != nil {
		logger.Error("error getting random users", zap.String("user_id", me.Data), zap.Error(err))
		recordFailure(span, KindDataLayer, err)
		return empty
	}
	if cacheable {
		s.views.Set(ctx, cache.RootPath, me.Data, gen, users)
	}
	return users
}

func (s *socialGraphService) ToggleFollow(ctx context.Context, p *identity.Principal, targetUserID string) Result[FollowState] {
	ctx, span := tracer.Start(ctx, "SocialGraph.ToggleFollow")
	defer span.End()
	span.SetAttributes(attribute.String("target_user_id", targetUserID))

	me := s.identity.GetDBUserID(ctx, p)
	if !me.OK() {
		return Recast[FollowState](me)
	}
	userID := me.Data

	if userID == targetUserID {
		logger.Warn("error following user", zap.String("user_id", userID), zap.Error(ErrFollowSelf))
		recordFailure(span, KindSelfFollow, ErrFollowSelf)
		return Fail[FollowState](KindSelfFollow, MsgFollowFailed, ErrFollowSelf)
	}

	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("error following user", zap.String("user_id", userID), zap.String("target", targetUserID), zap.Error(ErrTargetNotFound))
			return Fail[FollowState](KindNotFound, MsgFollowFailed, ErrTargetNotFound)
		}
		logger.Error("error following user", zap.String("user_id", userID), zap.Error(err))
		recordFailure(span, KindDataLayer, err)
		return Fail[FollowState](KindDataLayer, MsgFollowFailed, err)
	}

	state, err := s.toggle(ctx, userID, targetUserID)
	if err != nil {
		logger.Error("error following user", zap.String("user_id", userID), zap.String("target", targetUserID), zap.Error(err))
		recordFailure(span, KindDataLayer, err)
		return Fail[FollowState](KindDataLayer, MsgFollowFailed, err)
	}

	// 首页展示的粉丝数随之变化
	s.views.Invalidate(ctx, cache.RootPath)
	span.SetAttributes(attribute.String("state", string(state)))
	return Ok(state)
}

// toggle 与并发的同对切换冲突时整体重试
func (s *socialGraphService) toggle(ctx context.Context, followerID, followingID string) (FollowState, error) {
	var err error
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		var state FollowState
		state, err = s.toggleOnce(ctx, followerID, followingID)
		if !errors.Is(err, errToggleConflict) {
			return state, err
		}
		logger.Debug("follow toggle conflict, retrying", zap.String("follower", followerID), zap.Int("attempt", attempt))
	}
	return "", err
}

func (s *socialGraphService) toggleOnce(ctx context.Context, followerID, followingID string) (FollowState, error) {
	var state FollowState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := s.follows.WithTx(tx)

		removed, err := follows.Delete(ctx, followerID, followingID)
		if err != nil {
			return err
		}
		if removed {
			// 不回收先前的 FOLLOW 通知
			state = StateNotFollowing
			return nil
		}

		created, err := follows.Create(ctx, followerID, followingID)
		if err != nil {
			return err
		}
		if !created {
			return errToggleConflict
		}
		state = StateFollowing
		return s.notifications.WithTx(tx).Create(ctx, &model.Notification{
			Type:      model.NotificationFollow,
			UserID:    followingID, // 被关注者
			CreatorID: followerID,  // 关注者
		})
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

func (s *socialGraphService) IsFollowing(ctx context.Context, p *identity.Principal, targetUserID string) Result[bool] {
	me := s.identity.GetDBUserID(ctx, p)
	if !me.OK() {
		return Recast[bool](me)
	}
	ok, err := s.follows.Exists(ctx, me.Data, targetUserID)
	if err != nil {
		logger.Error("error checking follow", zap.String("user_id", me.Data), zap.Error(err))
		return Fail[bool](KindDataLayer, "Error checking follow", err)
	}
	return Ok(ok)
}

func normalizePage(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return (page - 1) * pageSize, pageSize
}

func (s *socialGraphService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	offset, limit := normalizePage(page, pageSize)
	items, err := s.follows.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowingID
	}
	return res, nil
}

func (s *socialGraphService) ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	offset, limit := normalizePage(page, pageSize)
	items, err := s.follows.ListFollowers(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowerID
	}
	return res, nil
}

func (s *socialGraphService) ListNotifications(ctx context.Context, p *identity.Principal, limit int) Result[[]*model.NotificationView] {
	me := s.identity.GetDBUserID(ctx, p)
	if !me.OK() {
		return Recast[[]*model.NotificationView](me)
	}
	items, err := s.notifications.ListForUser(ctx, me.Data, limit)
	if err != nil {
		logger.Error("error listing notifications", zap.String("user_id", me.Data), zap.Error(err))
		return Fail[[]*model.NotificationView](KindDataLayer, "Error listing notifications", err)
	}
	if items == nil {
		items = []*model.NotificationView{}
	}
	return Ok(items)
}
