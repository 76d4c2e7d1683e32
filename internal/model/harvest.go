package model

import "time"

// Harvest represents a bookable fruit-picking experience.
type Harvest struct {
	ID          int64   `gorm:"primaryKey"`
	Name        string  `gorm:"size:256;not null"`
	Description string  `gorm:"type:text"`
	Location    string  `gorm:"size:256"`
	Price       float64 `gorm:"not null"`
	ImageData   string  `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Slots []HarvestSlot `gorm:"foreignKey:HarvestID"`
}

// HarvestSlot holds the remaining booking capacity of a harvest for one
// calendar date. One row per (harvest, date); a missing row means zero.
type HarvestSlot struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	HarvestID int64  `gorm:"not null;uniqueIndex:idx_harvest_slot_date"`
	Date      string `gorm:"size:10;not null;uniqueIndex:idx_harvest_slot_date"` // YYYY-MM-DD
	Remaining int    `gorm:"not null"`
}

// SlotMap flattens the slot rows into the date -> remaining map exposed
// over the API.
func (h *Harvest) SlotMap() map[string]int {
	m := make(map[string]int, len(h.Slots))
	for _, s := range h.Slots {
		m[s.Date] = s.Remaining
	}
	return m
}
