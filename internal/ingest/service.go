package ingest

import (
	"context"
	"fmt"

	"parking-status-backend/internal/clock"
	"parking-status-backend/internal/model"
	"parking-status-backend/internal/status"
	"parking-status-backend/internal/store"
)

// Notifier receives the devEUI of a spot that just became free. Implemented
// by the push notification worker pool.
type Notifier interface {
	Dispatch(devEUI string)
}

// Service composes the admission guard, the status normalizer and the event
// store into the write path shared by the HTTP webhook and the MQTT source.
type Service struct {
	guard    *Guard
	store    store.Store
	clock    clock.Clock
	notifier Notifier
}

// NewService wires the ingest pipeline. notifier may be nil when push
// notifications are not configured.
func NewService(guard *Guard, s store.Store, clk clock.Clock, notifier Notifier) *Service {
	return &Service{guard: guard, store: s, clock: clk, notifier: notifier}
}

// Ingest runs the full admission pipeline for an HTTP webhook delivery.
func (s *Service) Ingest(ctx context.Context, authHeader string, body []byte) (*model.ParkingEvent, error) {
	if err := s.guard.Authenticate(authHeader); err != nil {
		return nil, err
	}
	return s.IngestTrusted(ctx, body)
}

// IngestTrusted runs the pipeline for a caller that is already
// authenticated, such as the MQTT source where broker access is the
// credential. Rate limiting and validation still apply.
func (s *Service) IngestTrusted(ctx context.Context, body []byte) (*model.ParkingEvent, error) {
	if err := s.guard.CheckRate(ctx); err != nil {
		return nil, err
	}

	env, err := s.guard.ValidatePayload(body)
	if err != nil {
		return nil, err
	}

	ev := status.Normalize(env, s.clock.Now())

	if err := s.store.AppendEvent(ctx, &ev); err != nil {
		return nil, fmt.Errorf("event append failed: %w", err)
	}
	if err := s.store.UpsertLatest(ctx, &ev); err != nil {
		return nil, fmt.Errorf("latest status upsert failed: %w", err)
	}

	if s.notifier != nil && ev.Status == model.StatusFree && ev.StatusChanged {
		s.notifier.Dispatch(ev.DevEUI)
	}

	return &ev, nil
}
