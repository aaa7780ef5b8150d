package server

import (
	"context"
	"time"

	"huddle/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	checkHealthy     = "healthy"
	checkUnhealthy   = "unhealthy"
	checkUnavailable = "unavailable"
)

// dependencyCheck probes one backing service. Optional dependencies only
// degrade the service when missing, they never fail readiness.
type dependencyCheck struct {
	name     string
	optional bool
	ping     func(context.Context) error // nil when not configured
}

func (s *Server) dependencyChecks() []dependencyCheck {
	checks := []dependencyCheck{
		{name: "database", ping: s.store.Ping},
		{name: "redis", optional: true},
	}
	if s.redis != nil {
		checks[1].ping = func(ctx context.Context) error { return s.redis.Ping(ctx).Err() }
	}
	return checks
}

// LivenessCheck handles GET /health/live.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusOK, "up", fiber.Map{"time": time.Now().UTC()})
}

// ReadinessCheck handles GET /health/ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	ready := true
	results := fiber.Map{}
	for _, check := range s.dependencyChecks() {
		switch {
		case check.ping == nil:
			results[check.name] = checkUnavailable
			ready = ready && check.optional
		case check.ping(ctx) != nil:
			results[check.name] = checkUnhealthy
			ready = false
		default:
			results[check.name] = checkHealthy
		}
	}

	status, message := fiber.StatusOK, checkHealthy
	if !ready {
		status, message = fiber.StatusServiceUnavailable, checkUnhealthy
	}
	return models.Respond(c, status, message, fiber.Map{
		"checks": results,
		"time":   time.Now().UTC(),
	})
}
