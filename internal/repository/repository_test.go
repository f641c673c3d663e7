package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-social/internal/model"
)

func TestFollowRepository_CreateIsIdempotent(t *testing.T) {
	db := setupRelBenchDB(t)
	repo := NewFollowRepository(db)
	users := seedUsers(t, db, 2)
	ctx := context.Background()

	created, err := repo.Create(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, created, "duplicate pair must not insert")

	// 反方向是另一条边
	created, err = repo.Create(ctx, users[1].ID, users[0].ID)
	require.NoError(t, err)
	assert.True(t, created)

	var n int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestFollowRepository_DeleteAndExists(t *testing.T) {
	db := setupRelBenchDB(t)
	repo := NewFollowRepository(db)
	users := seedUsers(t, db, 2)
	ctx := context.Background()

	removed, err := repo.Delete(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.Create(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	ok, err := repo.Exists(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err = repo.Delete(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.True(t, removed)
	ok, err = repo.Exists(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowRepository_WithTxRollsBack(t *testing.T) {
	db := setupRelBenchDB(t)
	repo := NewFollowRepository(db)
	notes := NewNotificationRepository(db)
	users := seedUsers(t, db, 2)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.WithTx(tx).Create(ctx, users[0].ID, users[1].ID); err != nil {
			return err
		}
		if err := notes.WithTx(tx).Create(ctx, &model.Notification{
			Type: model.NotificationFollow, UserID: users[1].ID, CreatorID: users[0].ID,
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	ok, err := repo.Exists(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
	cnt, err := notes.CountForUser(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Zero(t, cnt)
}

func TestUserRepository_Lookups(t *testing.T) {
	db := setupRelBenchDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{ClerkID: "clerk_1", Username: "jane", Email: "jane@x.com"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := repo.FindByClerkID(ctx, "clerk_1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", got.Username)

	_, err = repo.FindByClerkID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetProfileByClerkID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &model.User{ClerkID: "clerk_1", Username: "other", Email: "other@x.com"}
	assert.Error(t, repo.Create(ctx, dup))
}

func TestUserRepository_ListSuggestions(t *testing.T) {
	db := setupRelBenchDB(t)
	users := seedUsers(t, db, 6)
	follows := NewFollowRepository(db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	me := users[0].ID
	_, _ = follows.Create(ctx, me, users[1].ID)
	_, _ = follows.Create(ctx, me, users[2].ID)
	_, _ = follows.Create(ctx, users[3].ID, users[4].ID)

	got, err := repo.ListSuggestions(ctx, me, 10)
	require.NoError(t, err)
	gotIDs := make([]string, 0, len(got))
	counts := map[string]int64{}
	for _, s := range got {
		gotIDs = append(gotIDs, s.ID)
		counts[s.ID] = s.FollowerCount
	}
	assert.ElementsMatch(t, []string{users[3].ID, users[4].ID, users[5].ID}, gotIDs)
	assert.EqualValues(t, 1, counts[users[4].ID])

	capped, err := repo.ListSuggestions(ctx, me, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestNotificationRepository_ListForUser(t *testing.T) {
	db := setupRelBenchDB(t)
	users := seedUsers(t, db, 3)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, repo.Create(ctx, &model.Notification{Type: model.NotificationFollow, UserID: users[0].ID, CreatorID: users[1].ID, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &model.Notification{Type: model.NotificationFollow, UserID: users[0].ID, CreatorID: users[2].ID, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.Create(ctx, &model.Notification{Type: model.NotificationFollow, UserID: users[1].ID, CreatorID: users[0].ID, CreatedAt: base}))

	got, err := repo.ListForUser(ctx, users[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, users[2].ID, got[0].CreatorID)
	assert.Equal(t, users[2].Username, got[0].CreatorUsername)
	assert.Equal(t, users[1].ID, got[1].CreatorID)

	cnt, err := repo.CountForUser(ctx, users[1].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt)
}
