package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gin-social/internal/identity"
	"github.com/d60-Lab/gin-social/internal/model"
)

func TestSyncUser_SecondCallReturnsSameRowWithoutWrite(t *testing.T) {
	env := newGraphEnv(t, nil)
	ctx := context.Background()
	p := principal("user_1", "jane@x.com")

	first := env.sync.SyncUser(ctx, p)
	require.True(t, first.OK())
	second := env.sync.SyncUser(ctx, p)
	require.True(t, second.OK())

	assert.Equal(t, first.Data.ID, second.Data.ID)
	assert.EqualValues(t, 1, env.users.creates.Load())
	assert.EqualValues(t, 1, env.count(t, &model.User{}))
}

func TestSyncUser_DerivesFields(t *testing.T) {
	env := newGraphEnv(t, nil)
	ctx := context.Background()

	t.Run("handle from email local part", func(t *testing.T) {
		res := env.sync.SyncUser(ctx, principal("user_jane", "jane@x.com"))
		require.True(t, res.OK())
		assert.Equal(t, "jane", res.Data.Username)
		assert.Equal(t, "jane@x.com", res.Data.Email)
		assert.Equal(t, "", res.Data.Name)
	})

	t.Run("provider handle and trimmed name", func(t *testing.T) {
		handle := "bobby"
		res := env.sync.SyncUser(ctx, &identity.Principal{
			ClerkID: "user_bob",
			Profile: identity.Profile{
				FirstName:      "Bob",
				Username:       &handle,
				EmailAddresses: []string{"bob@x.com", "robert@y.com"},
				ImageURL:       "https://img.test/bob.png",
			},
		})
		require.True(t, res.OK())
		assert.Equal(t, "bobby", res.Data.Username)
		assert.Equal(t, "Bob", res.Data.Name)
		assert.Equal(t, "bob@x.com", res.Data.Email)
		assert.Equal(t, "https://img.test/bob.png", res.Data.Image)
		assert.Equal(t, "user_bob", res.Data.ClerkID)
	})
}

func TestSyncUser_DoesNotRefreshProfile(t *testing.T) {
	env := newGraphEnv(t, nil)
	ctx := context.Background()
	p := principal("user_1", "jane@x.com")
	p.Profile.FirstName = "Jane"
	require.True(t, env.sync.SyncUser(ctx, p).OK())

	p.Profile.FirstName = "Janet"
	res := env.sync.SyncUser(ctx, p)
	require.True(t, res.OK())
	assert.Equal(t, "Jane", res.Data.Name)
}

func TestSyncUser_Unauthenticated(t *testing.T) {
	env := newGraphEnv(t, nil)

	res := env.sync.SyncUser(context.Background(), nil)
	assert.Equal(t, KindUnauthenticated, res.Kind)
	assert.True(t, res.Absent())
	assert.False(t, res.Failed())
	assert.Nil(t, res.Data)
	assert.EqualValues(t, 0, env.count(t, &model.User{}))
}

func TestSyncUser_ProfileWithoutEmail(t *testing.T) {
	env := newGraphEnv(t, nil)

	res := env.sync.SyncUser(context.Background(), &identity.Principal{ClerkID: "user_1"})
	assert.Equal(t, KindInvalid, res.Kind)
	assert.ErrorIs(t, res.Err, ErrNoPrimaryEmail)
	assert.True(t, res.Failed())
	assert.EqualValues(t, 0, env.count(t, &model.User{}))
}

func TestSyncUser_DataLayerFailureIsSwallowed(t *testing.T) {
	env := newGraphEnv(t, nil)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	res := env.sync.SyncUser(context.Background(), principal("user_1", "jane@x.com"))
	assert.Equal(t, KindDataLayer, res.Kind)
	assert.Error(t, res.Err)
	assert.Nil(t, res.Data)
}

func TestGetDBUserID(t *testing.T) {
	env := newGraphEnv(t, nil)
	ctx := context.Background()

	t.Run("unauthenticated", func(t *testing.T) {
		res := env.sync.GetDBUserID(ctx, nil)
		assert.Equal(t, KindUnauthenticated, res.Kind)
		assert.Empty(t, res.Data)
	})

	t.Run("authenticated without local row is absence, not error", func(t *testing.T) {
		res := env.sync.GetDBUserID(ctx, principal("ghost", "ghost@x.com"))
		assert.Equal(t, KindNotFound, res.Kind)
		assert.True(t, res.Absent())
		assert.False(t, res.Failed())
		assert.NoError(t, res.Err)
		assert.Empty(t, res.Data)
	})

	t.Run("resolved", func(t *testing.T) {
		p, id := env.signUp(t, "jane")
		res := env.sync.GetDBUserID(ctx, p)
		require.True(t, res.OK())
		assert.Equal(t, id, res.Data)
	})
}

func TestGetUserByClerkID_Counts(t *testing.T) {
	env := newGraphEnv(t, nil)
	ctx := context.Background()

	pa, a := env.signUp(t, "alice")
	pb, b := env.signUp(t, "bob")
	pc, _ := env.signUp(t, "carol")

	require.True(t, env.graph.ToggleFollow(ctx, pa, b).OK())
	require.True(t, env.graph.ToggleFollow(ctx, pb, a).OK())
	require.True(t, env.graph.ToggleFollow(ctx, pc, a).OK())

	require.NoError(t, env.db.Create(&[]model.Post{
		{ID: "p1", AuthorID: a, Content: "hello"},
		{ID: "p2", AuthorID: a, Content: "world"},
	}).Error)

	res := env.sync.GetUserByClerkID(ctx, pa.ClerkID)
	require.True(t, res.OK())
	assert.Equal(t, a, res.Data.ID)
	assert.Equal(t, "alice", res.Data.Username)
	assert.EqualValues(t, 2, res.Data.Counts.Followers)
	assert.EqualValues(t, 1, res.Data.Counts.Following)
	assert.EqualValues(t, 2, res.Data.Counts.Posts)

	missing := env.sync.GetUserByClerkID(ctx, "nobody")
	assert.Equal(t, KindNotFound, missing.Kind)
	assert.Nil(t, missing.Data)
}
