package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"parking-status-backend/internal/analytics"
	"parking-status-backend/internal/ingest"
	"parking-status-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	ingest  *ingest.Service
	guard   *ingest.Guard
	store   store.Store
	engine  *analytics.Engine
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *ingest.Service, guard *ingest.Guard, s store.Store, engine *analytics.Engine, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		ingest:  svc,
		guard:   guard,
		store:   s,
		engine:  engine,
		webpush: webpushOptions,
	}
}
