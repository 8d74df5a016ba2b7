package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// There is one physical parking spot, so subscriptions are global: every
// subscriber is notified when the spot becomes free.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
