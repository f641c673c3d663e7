package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/gin-social/internal/cache"
	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/model"
	"github.com/d60-Lab/gin-social/internal/repository"
	"github.com/d60-Lab/gin-social/pkg/database"
)

func setupTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(tb, err)
	sqlDB, err := db.DB()
	require.NoError(tb, err)
	// :memory: 库随连接存在，固定为单连接
	sqlDB.SetMaxOpenConns(1)
	require.NoError(tb, database.Migrate(db))
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// countingUsers 记录 Create 调用次数
type countingUsers struct {
	repository.UserRepository
	creates atomic.Int64
}

func (c *countingUsers) Create(ctx context.Context, u *model.User) error {
	c.creates.Add(1)
	return c.UserRepository.Create(ctx, u)
}

func principal(clerkID, email string) *identity.Principal {
	return &identity.Principal{
		ClerkID: clerkID,
		Profile: identity.Profile{EmailAddresses: []string{email}},
	}
}

type graphEnv struct {
	db    *gorm.DB
	users *countingUsers
	sync  IdentitySync
	graph SocialGraphService
}

func newGraphEnv(tb testing.TB, views cache.ViewCache) *graphEnv {
	tb.Helper()
	db := setupTestDB(tb)
	users := &countingUsers{UserRepository: repository.NewUserRepository(db)}
	sync := NewIdentitySync(users, views)
	graph := NewSocialGraphService(db, sync, users,
		repository.NewFollowRepository(db),
		repository.NewNotificationRepository(db),
		views)
	return &graphEnv{db: db, users: users, sync: sync, graph: graph}
}

// signUp 同步一个新用户并返回其主体与本地 ID
func (e *graphEnv) signUp(tb testing.TB, handle string) (*identity.Principal, string) {
	tb.Helper()
	p := principal("clerk_"+handle, handle+"@example.com")
	res := e.sync.SyncUser(context.Background(), p)
	require.True(tb, res.OK(), "sync %s: %v", handle, res.Err)
	return p, res.Data.ID
}

func (e *graphEnv) count(tb testing.TB, m any) int64 {
	tb.Helper()
	var n int64
	require.NoError(tb, e.db.Model(m).Count(&n).Error)
	return n
}
