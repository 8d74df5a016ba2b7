package model

import "time"

// Canonical occupancy states. Every persisted event carries exactly one of
// these two values; vendor synonyms are mapped before persistence.
const (
	StatusFree     = "FREE"
	StatusOccupied = "OCCUPIED"
)

// ParkingEvent is one row of the append-only telemetry log. Rows are created
// exactly once on successful ingestion and never updated.
type ParkingEvent struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	DevEUI        string    `gorm:"column:dev_eui;size:64;not null;index:idx_parking_events_device_time,priority:1"`
	DeviceLabel   string    `gorm:"size:256"`
	Status        string    `gorm:"size:16;not null"`
	StatusChanged bool      `gorm:"not null"`
	ObservedAt    time.Time `gorm:"not null;index;index:idx_parking_events_device_time,priority:2"`

	// CreatedAt is the ingestion time, distinct from the sensor-reported
	// ObservedAt. The ingest rate limiter windows on it, so a replayed
	// envelope carrying an old timestamp still spends budget.
	CreatedAt time.Time `gorm:"not null;index"`

	// Radio metrics of the first reporting gateway, when present.
	RSSI        *int     `gorm:"column:rssi"`
	SNR         *float64 `gorm:"column:snr"`
	GatewayID   *string  `gorm:"size:64"`
	GatewayName *string  `gorm:"size:128"`
	GatewayLat  *float64
	GatewayLong *float64
}
