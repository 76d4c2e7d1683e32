package model

import "time"

// Reservation statuses. A reservation starts Pending and moves exactly once
// to Confirmed or Cancelled; both are terminal.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// Reservation is a booking request against a Harvest for a specific date.
// HarvestID is a weak reference resolved by lookup, not an owned association.
type Reservation struct {
	ID              int64  `gorm:"primaryKey"`
	HarvestID       int64  `gorm:"not null;index"`
	UserID          string `gorm:"size:64;index"`
	UserName        string `gorm:"size:128;not null"`
	UserEmail       string `gorm:"size:256;not null"`
	ReservationDate string `gorm:"size:10;not null"` // YYYY-MM-DD
	Participants    int    `gorm:"not null"`
	Status          string `gorm:"size:16;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
