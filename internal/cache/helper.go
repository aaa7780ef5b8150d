package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"huddle/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// loads collapses concurrent misses on one key into a single store read.
var loads singleflight.Group

// setIfCurrent writes a loaded value only while the key's generation is the
// one read before loading. Invalidate bumps the generation, so a value read
// before a write can never be stored after that write's invalidation.
var setIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Fetch returns the value cached under key, or calls load on a miss and
// caches its result for ttl. Redis problems never fail the call: a broken
// or unreadable entry is treated as a miss. Errors from load are returned
// as is and nothing is cached.
func Fetch[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	if client == nil {
		return load(ctx)
	}

	if v, ok := lookup[T](ctx, key); ok {
		return v, nil
	}

	// Flights are keyed by generation, so a read that starts after an
	// invalidation never joins one that started before it.
	gen, known := generation(ctx, key)
	if !known {
		return load(ctx)
	}
	ch := loads.DoChan(key+"@"+gen, func() (interface{}, error) {
		// The flight is shared, so it must outlive the caller that started it.
		fctx := context.WithoutCancel(ctx)
		v, err := load(fctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		err = setIfCurrent.Run(fctx, client, []string{key, generationKey(key)}, gen, raw, ttl.Milliseconds()).Err()
		if err != nil {
			middleware.Logger.DebugContext(fctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return raw, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// Every caller of a shared flight decodes its own copy.
	var v T
	if err := json.Unmarshal(res.Val.([]byte), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// generation reads the invalidation counter of key. known is false when
// Redis could not answer.
func generation(ctx context.Context, key string) (gen string, known bool) {
	gen, err := client.Get(ctx, generationKey(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		return "", false
	}
	return gen, true
}

func lookup[T any](ctx context.Context, key string) (*T, bool) {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		middleware.Logger.DebugContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		middleware.Logger.WarnContext(ctx, "dropping unreadable cache entry", slog.String("key", key))
		client.Del(ctx, key)
		return nil, false
	}
	return &v, true
}
