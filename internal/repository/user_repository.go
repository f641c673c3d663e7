package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-social/internal/model"
)

const (
	followerCountSQL  = "(SELECT COUNT(*) FROM follows f WHERE f.following_id = users.id)"
	followingCountSQL = "(SELECT COUNT(*) FROM follows f WHERE f.follower_id = users.id)"
	postCountSQL      = "(SELECT COUNT(*) FROM posts p WHERE p.author_id = users.id)"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户，ID 为空时自动生成
	Create(ctx context.Context, user *model.User) error

	// FindByClerkID 按身份提供方主体 ID 查询
	FindByClerkID(ctx context.Context, clerkID string) (*model.User, error)

	// FindByID 按本地 ID 查询
	FindByID(ctx context.Context, id string) (*model.User, error)

	// GetProfileByClerkID 查询用户及粉丝/关注/帖子计数
	GetProfileByClerkID(ctx context.Context, clerkID string) (*model.UserProfile, error)

	// ListSuggestions 排除自己及已关注的人，最多 limit 条
	ListSuggestions(ctx context.Context, viewerID string, limit int) ([]*model.UserSummary, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) GetProfileByClerkID(ctx context.Context, clerkID string) (*model.UserProfile, error) {
	var rows []*model.UserProfile
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.*, " +
			followerCountSQL + " AS follower_count, " +
			followingCountSQL + " AS following_count, " +
			postCountSQL + " AS post_count").
		Where("users.clerk_id = ?", clerkID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (r *userRepository) ListSuggestions(ctx context.Context, viewerID string, limit int) ([]*model.UserSummary, error) {
	if limit <= 0 {
		limit = 3
	}
	res := make([]*model.UserSummary, 0, limit)
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.id, users.name, users.username, users.image, " + followerCountSQL + " AS follower_count").
		Where("users.id <> ?", viewerID).
		Where("NOT EXISTS (SELECT 1 FROM follows e WHERE e.following_id = users.id AND e.follower_id = ?)", viewerID).
		Limit(limit).
		Scan(&res).Error
	return res, err
}
