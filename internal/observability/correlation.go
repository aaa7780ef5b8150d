package observability

import "github.com/google/uuid"

// NewCorrelationID returns a random request correlation ID.
func NewCorrelationID() string {
	return uuid.NewString()
}
