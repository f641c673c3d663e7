package model

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
)

// Notification 通知（UserID 为接收者，CreatorID 为触发者）
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type      NotificationType `json:"type" gorm:"type:varchar(16);not null"`
	UserID    string           `json:"user_id" gorm:"type:varchar(36);index:idx_notification_user_created;not null"`
	CreatorID string           `json:"creator_id" gorm:"type:varchar(36);index;not null"`
	PostID    *string          `json:"post_id,omitempty" gorm:"type:varchar(36)"`
	Read      bool             `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"created_at" gorm:"index:idx_notification_user_created"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationView 通知及触发者的公开信息
type NotificationView struct {
	Notification
	CreatorName     string `json:"creator_name"`
	CreatorUsername string `json:"creator_username"`
	CreatorImage    string `json:"creator_image"`
}
