package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-status-backend/internal/model"
)

// EventFilter selects events from the append-only log. DevEUI, Status and
// the time range are pushed down to SQL; the hour-of-day and day-of-week
// predicates are applied after shifting ObservedAt by Offset, so callers
// filter on local wall-clock buckets.
type EventFilter struct {
	DevEUI string
	Status string
	From   *time.Time // inclusive, on ObservedAt
	To     *time.Time // exclusive, on ObservedAt

	// CreatedFrom filters on ingestion time rather than observation time.
	// The ingest rate limiter uses it so stale-stamped replays still count.
	CreatedFrom *time.Time // inclusive

	Hours     []int         // shifted hour-of-day values, empty means all
	DayOfWeek *time.Weekday // shifted day-of-week
	Offset    time.Duration // fixed UTC offset for the bucket predicates
}

// Store defines the interface for all database operations.
type Store interface {
	AppendEvent(ctx context.Context, ev *model.ParkingEvent) error
	UpsertLatest(ctx context.Context, ev *model.ParkingEvent) error
	QueryEvents(ctx context.Context, f EventFilter) ([]model.ParkingEvent, error)
	CountEvents(ctx context.Context, f EventFilter) (int64, error)
	LatestEvents(ctx context.Context, devEUI string) ([]model.LatestStatus, error)
	LatestRadioEvent(ctx context.Context) (*model.ParkingEvent, error)
	DeleteEvents(ctx context.Context, devEUI string, from, to time.Time) (int64, error)

	AppendClientLog(ctx context.Context, entry *model.ClientLog) error

	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// AppendEvent writes one immutable row to the telemetry log.
func (s *gormStore) AppendEvent(ctx context.Context, ev *model.ParkingEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append event for device %s: %w", ev.DevEUI, err)
	}
	return nil
}

// UpsertLatest replaces the latest-status row for the event's device,
// inserting it on first contact. Concurrent upserts for the same device
// resolve last-write-wins by the database's own ordering.
func (s *gormStore) UpsertLatest(ctx context.Context, ev *model.ParkingEvent) error {
	latest := model.LatestStatus{
		DevEUI:      ev.DevEUI,
		DeviceLabel: ev.DeviceLabel,
		Status:      ev.Status,
		ObservedAt:  ev.ObservedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dev_eui"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_label", "status", "observed_at"}),
	}).Create(&latest).Error
	if err != nil {
		return fmt.Errorf("failed to upsert latest status for device %s: %w", ev.DevEUI, err)
	}
	return nil
}

// QueryEvents returns the log rows matching the filter, oldest first.
func (s *gormStore) QueryEvents(ctx context.Context, f EventFilter) ([]model.ParkingEvent, error) {
	var events []model.ParkingEvent
	if err := s.applyFilter(ctx, f).Order("observed_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("event query failed: %w", err)
	}
	return filterBuckets(events, f), nil
}

// CountEvents counts the log rows matching the filter.
func (s *gormStore) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	if len(f.Hours) > 0 || f.DayOfWeek != nil {
		events, err := s.QueryEvents(ctx, f)
		if err != nil {
			return 0, err
		}
		return int64(len(events)), nil
	}

	var count int64
	if err := s.applyFilter(ctx, f).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("event count failed: %w", err)
	}
	return count, nil
}

func (s *gormStore) applyFilter(ctx context.Context, f EventFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.ParkingEvent{})
	if f.DevEUI != "" {
		q = q.Where("dev_eui = ?", f.DevEUI)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("observed_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("observed_at < ?", *f.To)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	return q
}

// filterBuckets applies the hour-of-day and day-of-week predicates in the
// store layer. SQLite and Postgres share no hour-extraction syntax, and the
// SQL-side range predicates already bound the scan to one sensor's window.
func filterBuckets(events []model.ParkingEvent, f EventFilter) []model.ParkingEvent {
	if len(f.Hours) == 0 && f.DayOfWeek == nil {
		return events
	}

	hourSet := make(map[int]bool, len(f.Hours))
	for _, h := range f.Hours {
		hourSet[h] = true
	}

	matched := events[:0]
	for _, ev := range events {
		local := ev.ObservedAt.UTC().Add(f.Offset)
		if len(f.Hours) > 0 && !hourSet[local.Hour()] {
			continue
		}
		if f.DayOfWeek != nil && local.Weekday() != *f.DayOfWeek {
			continue
		}
		matched = append(matched, ev)
	}
	return matched
}

// LatestEvents returns the latest-status rows, newest first. A non-empty
// devEUI restricts the result to that device.
func (s *gormStore) LatestEvents(ctx context.Context, devEUI string) ([]model.LatestStatus, error) {
	q := s.db.WithContext(ctx).Model(&model.LatestStatus{})
	if devEUI != "" {
		q = q.Where("dev_eui = ?", devEUI)
	}

	var rows []model.LatestStatus
	if err := q.Order("observed_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("latest status query failed: %w", err)
	}
	return rows, nil
}

// LatestRadioEvent returns the most recent event carrying radio metrics, or
// nil when no event has any.
func (s *gormStore) LatestRadioEvent(ctx context.Context) (*model.ParkingEvent, error) {
	var ev model.ParkingEvent
	err := s.db.WithContext(ctx).
		Where("rssi IS NOT NULL AND snr IS NOT NULL").
		Order("observed_at DESC").
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("radio event query failed: %w", err)
	}
	return &ev, nil
}

// DeleteEvents removes log rows for a device within [from, to). This exists
// only for administrative cleanup of mis-ingested history, never as part of
// steady-state behavior.
func (s *gormStore) DeleteEvents(ctx context.Context, devEUI string, from, to time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("dev_eui = ? AND observed_at >= ? AND observed_at < ?", devEUI, from, to).
		Delete(&model.ParkingEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete events for device %s: %w", devEUI, res.Error)
	}
	return res.RowsAffected, nil
}

// AppendClientLog stores one diagnostic entry.
func (s *gormStore) AppendClientLog(ctx context.Context, entry *model.ClientLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append client log: %w", err)
	}
	return nil
}

// SaveSubscription creates or refreshes a push subscription.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes the subscription with the given endpoint.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns every stored push subscription.
func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}
