// Package ingest admits or rejects inbound telemetry before it may mutate
// state, and drives admitted events through normalization and persistence.
package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"parking-status-backend/internal/clock"
	"parking-status-backend/internal/status"
	"parking-status-backend/internal/store"
)

// ErrUnauthorized is returned when the bearer secret is missing or wrong.
var ErrUnauthorized = errors.New("missing or invalid auth token")

// ErrRateLimited is returned when the trailing-minute event budget is spent.
var ErrRateLimited = errors.New("too many events in the last minute")

// ValidationError rejects a payload that is malformed or carries an
// unrecognized status token. Field names the offending part of the payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %s %s", e.Field, e.Reason)
}

// Guard runs the admission checks for inbound events, in order:
// authentication, rate limiting, shape validation, vocabulary validation.
// The first failing check rejects the event with no side effects.
type Guard struct {
	token     string
	perMinute int64
	store     store.Store
	clock     clock.Clock
}

// NewGuard creates a Guard enforcing the given bearer token and
// events-per-minute ceiling.
func NewGuard(token string, perMinute int64, s store.Store, clk clock.Clock) *Guard {
	return &Guard{token: token, perMinute: perMinute, store: s, clock: clk}
}

// Authenticate checks the Authorization header value against the configured
// secret. The comparison is constant-time.
func (g *Guard) Authenticate(header string) error {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ErrUnauthorized
	}
	presented := strings.TrimPrefix(header, prefix)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(g.token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// CheckRate rejects the event when the count of events persisted in the
// trailing 60 seconds has reached the ceiling. The window is keyed on
// ingestion time, not the sensor-reported timestamp, so replayed or
// redelivered envelopes carrying old timestamps still spend budget. The
// counter is global per deployment, not per source. A failing count query is
// logged and treated as non-fatal: ingestion must not block on an
// observability failure.
func (g *Guard) CheckRate(ctx context.Context) error {
	from := g.clock.Now().Add(-60 * time.Second)
	count, err := g.store.CountEvents(ctx, store.EventFilter{CreatedFrom: &from})
	if err != nil {
		log.Printf("rate limit check failed, admitting event anyway: %v", err)
		return nil
	}
	if count >= g.perMinute {
		return ErrRateLimited
	}
	return nil
}

// ValidatePayload decodes and validates the raw body, returning the parsed
// envelope on success.
func (g *Guard) ValidatePayload(body []byte) (*status.UplinkEnvelope, error) {
	var env status.UplinkEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "is not a well-formed JSON object"}
	}
	if env.DevEUI == "" {
		return nil, &ValidationError{Field: "devEui", Reason: "is required"}
	}
	if env.Status() == "" {
		return nil, &ValidationError{Field: "object.parkingStatus", Reason: "is required"}
	}
	if !status.Recognized(env.Status()) {
		return nil, &ValidationError{
			Field:  "object.parkingStatus",
			Reason: fmt.Sprintf("%q is not a recognized status", env.Status()),
		}
	}
	return &env, nil
}
