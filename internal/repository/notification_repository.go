package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-social/internal/model"
)

type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository
	Create(ctx context.Context, n *model.Notification) error
	CountForUser(ctx context.Context, userID string) (int64, error)
	// ListForUser 按时间倒序返回接收者的通知，附带触发者信息
	ListForUser(ctx context.Context, userID string, limit int) ([]*model.NotificationView, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID).Count(&cnt).Error
	return cnt, err
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*model.NotificationView, error) {
	if limit <= 0 {
		limit = 20
	}
	var res []*model.NotificationView
	err := r.db.WithContext(ctx).
		Table("notifications").
		Select("notifications.*, users.name AS creator_name, users.username AS creator_username, users.image AS creator_image").
		Joins("LEFT JOIN users ON users.id = notifications.creator_id").
		Where("notifications.user_id = ?", userID).
		Order("notifications.created_at DESC").
		Limit(limit).
		Scan(&res).Error
	return res, err
}
