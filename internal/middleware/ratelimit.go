package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"huddle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoRedis = errors.New("rate limit store not configured")

// Limit is a fixed-window quota on one action.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
	Policy   FailPolicy
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// limitsDisabled reports whether the environment skips rate limiting.
func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test", "stress":
		return true
	}
	return false
}

// Allow counts one hit of subject against l. The counter and its expiry
// are written in one transaction so a crash cannot leave a key without TTL.
func Allow(ctx context.Context, rdb *redis.Client, l Limit, subject string) (Decision, error) {
	if limitsDisabled() {
		return Decision{Allowed: true, Remaining: l.Requests, ResetIn: l.Window}, nil
	}
	if rdb == nil {
		return Decision{}, errNoRedis
	}

	key := "rl:" + l.Name + ":" + subject
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.Window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	remaining := l.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	reset := ttl.Val()
	if reset < 0 {
		reset = l.Window
	}
	return Decision{Allowed: count <= l.Requests, Remaining: remaining, ResetIn: reset}, nil
}

// RateLimit enforces l per authenticated user, or per client IP before
// authentication. Quota headers are set on every limited response.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	if l.Name == "" {
		panic("middleware: rate limit needs a name")
	}
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			subject = "user:" + uid
		}

		d, err := Allow(c.UserContext(), rdb, l, subject)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed",
				slog.String("limit", l.Name),
				slog.String("error", err.Error()),
			)
			if l.Policy == FailClosed {
				return models.Respond(c, fiber.StatusServiceUnavailable, "Rate limit unavailable", nil)
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Requests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.ResetIn.Round(time.Second)/time.Second)))
			return models.Respond(c, fiber.StatusTooManyRequests, "Too many requests, try again later", nil)
		}
		return c.Next()
	}
}
