package model

import "time"

// ClientLog is an append-only diagnostic entry reported by dashboard clients
// or written by the backend itself when an observability step fails.
type ClientLog struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Level     string    `gorm:"size:16;not null"`
	Message   string    `gorm:"size:2048;not null"`
	Origin    string    `gorm:"size:256"`
	CreatedAt time.Time `gorm:"not null"`
}
