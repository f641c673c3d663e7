package model

import "time"

// User 本地用户，首次同步身份时惰性创建
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClerkID   string    `json:"clerk_id" gorm:"type:varchar(64);uniqueIndex;not null"` // 身份提供方主体 ID，创建后不可变
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(128)"`
	Bio       string    `json:"bio" gorm:"type:text"`
	Image     string    `json:"image" gorm:"type:text"`
	Location  string    `json:"location" gorm:"type:varchar(128)"`
	Website   string    `json:"website" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserCounts 由关系实时聚合，不落表
type UserCounts struct {
	Followers int64 `json:"followers" gorm:"column:follower_count"`
	Following int64 `json:"following" gorm:"column:following_count"`
	Posts     int64 `json:"posts" gorm:"column:post_count"`
}

// UserProfile 用户及其聚合计数
type UserProfile struct {
	User   `gorm:"embedded"`
	Counts UserCounts `json:"_count" gorm:"embedded"`
}

// UserSummary 推荐列表使用的公开投影
type UserSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Image         string `json:"image"`
	FollowerCount int64  `json:"follower_count"`
}
