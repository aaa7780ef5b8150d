package repository

import (
	"context"
	"sync"
	"testing"

	"huddle/internal/cache"
	"huddle/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedPostRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	repo := NewCachedPostRepository(NewPostRepository(setupSQLite(t)))
	ctx := context.Background()

	p := models.NewPost(models.NewID(), models.PrivacyPublic, "cached", "")
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Content)
	assert.True(t, mr.Exists(cache.PostKey(p.ID)))

	liker := models.NewID()
	require.NoError(t, repo.AddLike(ctx, p.ID, liker))
	assert.False(t, mr.Exists(cache.PostKey(p.ID)))

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Likes, 1)
	assert.Equal(t, liker, got.Likes[0].UserID)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.False(t, mr.Exists(cache.PostKey(p.ID)))

	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// gatedPostRepository holds the first GetByID after its store read until
// release is closed.
type gatedPostRepository struct {
	PostRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *gatedPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.PostRepository.GetByID(ctx, id)
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return post, err
}

func TestCachedPostRepository_ReadOverlappingWriteIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	inner := &gatedPostRepository{
		PostRepository: NewPostRepository(setupSQLite(t)),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	repo := NewCachedPostRepository(inner)
	ctx := context.Background()

	p := models.NewPost(models.NewID(), models.PrivacyPublic, "racy", "")
	require.NoError(t, repo.Create(ctx, p))

	done := make(chan *models.Post, 1)
	go func() {
		got, _ := repo.GetByID(ctx, p.ID)
		done <- got
	}()
	<-inner.entered

	liker := models.NewID()
	require.NoError(t, repo.AddLike(ctx, p.ID, liker))

	close(inner.release)
	old := <-done
	require.NotNil(t, old)
	assert.Empty(t, old.Likes)
	assert.False(t, mr.Exists(cache.PostKey(p.ID)))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Likes, 1)
	assert.Equal(t, liker, got.Likes[0].UserID)

	// A second toggle must see the like and remove it.
	cached, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, cached.HasLike(liker))
}
