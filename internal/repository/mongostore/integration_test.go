//go:build integration
// +build integration

package mongostore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"huddle/internal/models"
	"huddle/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupMongo(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(t, err)

	db := client.Database("huddle_test")
	require.NoError(t, EnsureIndexes(ctx, db))

	store := New(db)
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestMongoStore_PostLifecycle(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	p := models.NewPost(models.NewID(), models.PrivacyPublic, "hello mongo", "")
	require.NoError(t, store.Posts.Create(ctx, p))

	liker := models.NewID()
	require.NoError(t, store.Posts.AddLike(ctx, p.ID, liker))
	require.NoError(t, store.Posts.AddLike(ctx, p.ID, liker))

	got, err := store.Posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, 1)

	require.NoError(t, store.Posts.RemoveLike(ctx, p.ID, liker))
	require.NoError(t, store.Posts.AppendComment(ctx, p.ID, &models.Comment{UserID: liker, Content: "one"}))
	require.NoError(t, store.Posts.AppendComment(ctx, p.ID, &models.Comment{UserID: liker, Content: "two"}))

	got, err = store.Posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "two", got.Comments[1].Content)

	require.NoError(t, store.Posts.UpdatePrivacy(ctx, p.ID, models.PrivacyPrivate))
	require.NoError(t, store.Posts.UpdateContent(ctx, p.ID, repository.ContentUpdate{Content: "edited"}))
	got, err = store.Posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPrivate, got.Privacy)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, store.Posts.Delete(ctx, p.ID))
	assert.ErrorIs(t, store.Posts.Delete(ctx, p.ID), repository.ErrNotFound)
	assert.ErrorIs(t, store.Posts.AddLike(ctx, p.ID, liker), repository.ErrNotFound)
}

func TestMongoStore_UsersAndFlags(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	u := &models.User{Username: "dana", Email: "dana@example.com", Password: "x"}
	require.NoError(t, store.Users.Create(ctx, u))
	require.NoError(t, store.Users.SetAdmin(ctx, u.ID, true))

	admins, err := store.Users.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	flag := &models.FlaggedPost{PostID: models.NewID(), FlaggedBy: u.ID, Subject: "spam", Description: "ads"}
	require.NoError(t, store.FlaggedPosts.Create(ctx, flag))
	flags, err := store.FlaggedPosts.List(ctx)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, flag.PostID, flags[0].PostID)
}
