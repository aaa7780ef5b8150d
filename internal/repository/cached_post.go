package repository

import (
	"context"

	"huddle/internal/cache"
	"huddle/internal/models"
)

// cachedPostRepository serves GetByID from Redis and drops the cached entry on
// every write. Without a Redis client it passes straight through.
type cachedPostRepository struct {
	PostRepository
}

// NewCachedPostRepository wraps inner with the post cache.
func NewCachedPostRepository(inner PostRepository) PostRepository {
	return &cachedPostRepository{PostRepository: inner}
}

func (r *cachedPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return cache.Fetch(ctx, cache.PostKey(id), cache.PostTTL, func(ctx context.Context) (*models.Post, error) {
		return r.PostRepository.GetByID(ctx, id)
	})
}

func (r *cachedPostRepository) UpdateContent(ctx context.Context, id string, update ContentUpdate) error {
	defer cache.InvalidatePost(ctx, id)
	return r.PostRepository.UpdateContent(ctx, id, update)
}

func (r *cachedPostRepository) UpdatePrivacy(ctx context.Context, id string, privacy models.Privacy) error {
	defer cache.InvalidatePost(ctx, id)
	return r.PostRepository.UpdatePrivacy(ctx, id, privacy)
}

func (r *cachedPostRepository) AddLike(ctx context.Context, postID, userID string) error {
	defer cache.InvalidatePost(ctx, postID)
	return r.PostRepository.AddLike(ctx, postID, userID)
}

func (r *cachedPostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	defer cache.InvalidatePost(ctx, postID)
	return r.PostRepository.RemoveLike(ctx, postID, userID)
}

func (r *cachedPostRepository) AppendComment(ctx context.Context, postID string, comment *models.Comment) error {
	defer cache.InvalidatePost(ctx, postID)
	return r.PostRepository.AppendComment(ctx, postID, comment)
}

func (r *cachedPostRepository) Delete(ctx context.Context, id string) error {
	defer cache.InvalidatePost(ctx, id)
	return r.PostRepository.Delete(ctx, id)
}
