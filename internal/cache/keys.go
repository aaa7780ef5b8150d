package cache

import (
	"context"
	"log/slog"
	"time"

	"huddle/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix = "post:"
	UserKeyPrefix = "user:"
)

const (
	PostTTL = 30 * time.Minute
	UserTTL = 5 * time.Minute

	// generationTTL outlives any load by far, so a counter never expires
	// while a read that saw it is still in flight.
	generationTTL = 24 * time.Hour
)

func PostKey(postID string) string {
	return PostKeyPrefix + postID
}

func UserKey(userID string) string {
	return UserKeyPrefix + userID
}

func generationKey(key string) string {
	return "gen:" + key
}

// Invalidate drops key and bumps its generation so reads that started
// before the call cannot write their result back.
func Invalidate(ctx context.Context, key string) {
	if client == nil {
		return
	}
	gen := generationKey(key)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}
