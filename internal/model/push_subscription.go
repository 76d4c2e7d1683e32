package model

import "time"

// PushSubscription holds a browser push subscription tied to the user whose
// reservation updates it should receive.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	UserID    string    `gorm:"size:64;index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
