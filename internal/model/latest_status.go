package model

import "time"

// LatestStatus is the single-row-per-device projection of the most recently
// ingested event. It is replaced on every successful ingest.
type LatestStatus struct {
	DevEUI      string    `gorm:"column:dev_eui;primaryKey;size:64"`
	DeviceLabel string    `gorm:"size:256"`
	Status      string    `gorm:"size:16;not null"`
	ObservedAt  time.Time `gorm:"not null"`
}
