package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name string `json:"name"`
}

func useMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestFetch_MissThenHit(t *testing.T) {
	mr := useMiniRedis(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (*cachedThing, error) {
		calls++
		return &cachedThing{Name: "fresh"}, nil
	}

	first, err := Fetch(ctx, PostKey("abc"), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "fresh", first.Name)
	assert.True(t, mr.Exists("post:abc"))

	second, err := Fetch(ctx, PostKey("abc"), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "fresh", second.Name)
	assert.Equal(t, 1, calls)
	assert.NotSame(t, first, second)

	ttl := mr.TTL("post:abc")
	assert.True(t, ttl > 0 && ttl <= PostTTL)
}

func TestFetch_LoadErrorIsNotCached(t *testing.T) {
	mr := useMiniRedis(t)
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), PostKey("x"), time.Minute, func(context.Context) (*cachedThing, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("post:x"))
}

func TestFetch_WithoutRedis(t *testing.T) {
	SetClient(nil)

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Fetch(context.Background(), PostKey("y"), time.Minute, func(context.Context) (*cachedThing, error) {
			calls++
			return &cachedThing{}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestFetch_CorruptEntryIsReplaced(t *testing.T) {
	mr := useMiniRedis(t)
	require.NoError(t, mr.Set("post:bad", "{not json"))

	got, err := Fetch(context.Background(), PostKey("bad"), time.Minute, func(context.Context) (*cachedThing, error) {
		return &cachedThing{Name: "recovered"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got.Name)

	raw, err := mr.Get("post:bad")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"recovered"}`, raw)
}

func TestFetch_RedisDownFallsThrough(t *testing.T) {
	mr := useMiniRedis(t)
	mr.Close()

	got, err := Fetch(context.Background(), UserKey("u1"), time.Minute, func(context.Context) (*cachedThing, error) {
		return &cachedThing{Name: "from store"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from store", got.Name)
}

func TestInvalidatePost(t *testing.T) {
	mr := useMiniRedis(t)
	require.NoError(t, mr.Set("post:abc", `{"name":"stale"}`))

	InvalidatePost(context.Background(), "abc")
	assert.False(t, mr.Exists("post:abc"))

	gen, err := mr.Get("gen:post:abc")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.True(t, mr.TTL("gen:post:abc") > 0)
}

func TestFetch_InvalidatedDuringLoadIsNotCached(t *testing.T) {
	mr := useMiniRedis(t)
	ctx := context.Background()

	// The write lands after the store read and before the cache write.
	stale, err := Fetch(ctx, PostKey("race"), PostTTL, func(ctx context.Context) (*cachedThing, error) {
		InvalidatePost(ctx, "race")
		return &cachedThing{Name: "stale"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", stale.Name)
	assert.False(t, mr.Exists("post:race"))

	fresh, err := Fetch(ctx, PostKey("race"), PostTTL, func(context.Context) (*cachedThing, error) {
		return &cachedThing{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", fresh.Name)

	raw, err := mr.Get("post:race")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"fresh"}`, raw)
}

func TestFetch_ReadAfterInvalidateStartsNewLoad(t *testing.T) {
	mr := useMiniRedis(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	older := make(chan *cachedThing, 1)
	go func() {
		v, _ := Fetch(ctx, PostKey("gen"), PostTTL, func(context.Context) (*cachedThing, error) {
			close(entered)
			<-release
			return &cachedThing{Name: "stale"}, nil
		})
		older <- v
	}()
	<-entered

	InvalidatePost(ctx, "gen")

	newer := make(chan *cachedThing, 1)
	go func() {
		v, _ := Fetch(ctx, PostKey("gen"), PostTTL, func(context.Context) (*cachedThing, error) {
			return &cachedThing{Name: "fresh"}, nil
		})
		newer <- v
	}()

	select {
	case v := <-newer:
		require.NotNil(t, v)
		assert.Equal(t, "fresh", v.Name)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("read after invalidation waited on an older load")
	}

	close(release)
	v := <-older
	require.NotNil(t, v)
	assert.Equal(t, "stale", v.Name)

	raw, err := mr.Get("post:gen")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"fresh"}`, raw)
}

func TestFetch_CanceledCallerDoesNotCancelLoad(t *testing.T) {
	mr := useMiniRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	loadErr := make(chan error, 1)
	fetchErr := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, UserKey("slow"), UserTTL, func(ctx context.Context) (*cachedThing, error) {
			close(entered)
			<-release
			loadErr <- ctx.Err()
			return &cachedThing{Name: "loaded"}, nil
		})
		fetchErr <- err
	}()
	<-entered

	cancel()
	assert.ErrorIs(t, <-fetchErr, context.Canceled)

	close(release)
	assert.NoError(t, <-loadErr)
	assert.Eventually(t, func() bool { return mr.Exists("user:slow") }, time.Second, 10*time.Millisecond)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		rdb, err := Connect(ctx, addr)
		require.NoError(t, err, addr)
		require.NoError(t, rdb.Close())
	}

	_, err := Connect(ctx, "")
	assert.Error(t, err)
	_, err = Connect(ctx, "redis://%zz")
	assert.Error(t, err)
}

func TestInitRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	InitRedis(addr)
	assert.Nil(t, GetClient())
}
