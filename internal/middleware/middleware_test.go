package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAllow(t *testing.T) {
	l := Limit{Name: "create_comment", Requests: 2, Window: time.Minute}

	t.Run("Bypass in test environment", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		d, err := Allow(context.Background(), nil, l, "user:a")
		assert.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("Nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		d, err := Allow(context.Background(), nil, l, "user:a")
		assert.ErrorIs(t, err, errNoRedis)
		assert.False(t, d.Allowed)
	})

	t.Run("Counts against redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr, rdb := newMiniRedis(t)
		ctx := context.Background()

		for want := 1; want >= 0; want-- {
			d, err := Allow(ctx, rdb, l, "user:a")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, want, d.Remaining)
		}
		d, err := Allow(ctx, rdb, l, "user:a")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.LessOrEqual(t, d.ResetIn, time.Minute)

		assert.True(t, mr.Exists("rl:create_comment:user:a"))
		assert.Greater(t, mr.TTL("rl:create_comment:user:a"), time.Duration(0))
		mr.FastForward(2 * time.Minute)

		d, err = Allow(ctx, rdb, l, "user:a")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/test", RateLimit(nil, Limit{Name: "test", Requests: 1, Window: time.Minute}), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		l := Limit{Name: "flag_post", Requests: 1, Window: time.Minute, Policy: FailClosed}
		app.Get("/sensitive", RateLimit(nil, l), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sensitive", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("Limit exceeded per user", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, rdb := newMiniRedis(t)

		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("userID", "507f1f77bcf86cd799439011")
			return c.Next()
		})
		app.Post("/posts/add", RateLimit(rdb, Limit{Name: "create_post", Requests: 1, Window: time.Minute}), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusCreated)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/posts/add", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

		resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/posts/add", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	})

	t.Run("Unnamed limit panics", func(t *testing.T) {
		assert.Panics(t, func() { RateLimit(nil, Limit{Requests: 1, Window: time.Minute}) })
	})
}

func TestStructuredLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger("development", "debug", &buf)
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusInternalServerError, "boom") })

	tests := []struct {
		path  string
		level string
	}{
		{"/health/live", "level=DEBUG"},
		{"/missing", "level=WARN"},
		{"/boom", "level=ERROR"},
	}
	for _, tt := range tests {
		buf.Reset()
		_, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), tt.level, tt.path)
		assert.Contains(t, buf.String(), "path="+tt.path)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestContextMiddleware_PropagatesToLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-123")
		c.Locals("userID", "507f1f77bcf86cd799439011")
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		Logger.InfoContext(c.UserContext(), "handled")
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "request_id=req-123")
	assert.Contains(t, buf.String(), "user_id=507f1f77bcf86cd799439011")
}

func TestTracingMiddleware_SetsTraceHeader(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/posts/find/:id", func(c *fiber.Ctx) error {
		tid, _ := c.UserContext().Value(TraceIDKey).(string)
		return c.SendString(tid)
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/find/abc", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get("X-Trace-ID"), 32)
}
