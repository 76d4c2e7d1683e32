package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"harvest-booking-backend/internal/model"
)

// HarvestUpdate carries the full replacement state for a harvest. Updates
// are wholesale, not partial patches: every field overwrites the stored
// value and Slots replaces the entire availability set.
type HarvestUpdate struct {
	Name        string
	Description string
	Location    string
	Price       float64
	ImageData   string
	Slots       map[string]int
}

// ReservationCounts aggregates a user's reservations by status. Cancelled
// reservations are not reported at all.
type ReservationCounts struct {
	Confirmed int64 `json:"confirmed"`
	Pending   int64 `json:"pending"`
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListHarvests(ctx context.Context) ([]model.Harvest, error)
	SearchHarvests(ctx context.Context, term string) ([]model.Harvest, error)
	GetHarvest(ctx context.Context, id int64) (*model.Harvest, error)
	UpdateHarvest(ctx context.Context, id int64, upd HarvestUpdate) (*model.Harvest, error)

	CreateReservation(ctx context.Context, r *model.Reservation) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, status string) (*model.Reservation, error)
	CountReservationsByUser(ctx context.Context, userID string) (ReservationCounts, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for callers that need raw access, such
// as the subscription handlers and the notification workers.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListHarvests returns every harvest with its slot rows, in storage order.
func (s *gormStore) ListHarvests(ctx context.Context) ([]model.Harvest, error) {
	var harvests []model.Harvest
	if err := s.db.WithContext(ctx).Preload("Slots").Find(&harvests).Error; err != nil {
		return nil, fmt.Errorf("failed to list harvests: %w", err)
	}
	return harvests, nil
}

// SearchHarvests returns harvests whose name, location or description
// contains the term as a case-insensitive substring. An empty term behaves
// like ListHarvests.
func (s *gormStore) SearchHarvests(ctx context.Context, term string) ([]model.Harvest, error) {
	if term == "" {
		return s.ListHarvests(ctx)
	}

	pattern := "%" + strings.ToLower(term) + "%"
	var harvests []model.Harvest
	err := s.db.WithContext(ctx).Preload("Slots").
		Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern).
		Find(&harvests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search harvests: %w", err)
	}
	return harvests, nil
}

func (s *gormStore) GetHarvest(ctx context.Context, id int64) (*model.Harvest, error) {
	var harvest model.Harvest
	if err := s.db.WithContext(ctx).Preload("Slots").First(&harvest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHarvestNotFound
		}
		return nil, fmt.Errorf("failed to load harvest %d: %w", id, err)
	}
	return &harvest, nil
}

// UpdateHarvest overwrites the harvest and replaces its availability rows
// with the given slot map.
func (s *gormStore) UpdateHarvest(ctx context.Context, id int64, upd HarvestUpdate) (*model.Harvest, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var harvest model.Harvest
		if err := tx.First(&harvest, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHarvestNotFound
			}
			return err
		}

		harvest.Name = upd.Name
		harvest.Description = upd.Description
		harvest.Location = upd.Location
		harvest.Price = upd.Price
		harvest.ImageData = upd.ImageData
		if err := tx.Save(&harvest).Error; err != nil {
			return fmt.Errorf("failed to update harvest %d: %w", id, err)
		}

		if err := tx.Where("harvest_id = ?", id).Delete(&model.HarvestSlot{}).Error; err != nil {
			return fmt.Errorf("failed to clear slots for harvest %d: %w", id, err)
		}
		for date, remaining := range upd.Slots {
			slot := model.HarvestSlot{HarvestID: id, Date: date, Remaining: remaining}
			if err := tx.Create(&slot).Error; err != nil {
				return fmt.Errorf("failed to write slot %s for harvest %d: %w", date, id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetHarvest(ctx, id)
}

// CreateReservation runs the booking flow: load the harvest, check the
// remaining slots for the requested date (a missing row counts as zero),
// decrement, and persist the reservation with status forced to Pending.
//
// The slot read and both writes run inside one transaction so concurrent
// bookings against the same (harvest, date) cannot both pass the
// sufficiency check; Remaining never goes negative.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var harvest model.Harvest
		if err := tx.First(&harvest, r.HarvestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHarvestNotFound
			}
			return fmt.Errorf("failed to load harvest %d: %w", r.HarvestID, err)
		}

		var slot model.HarvestSlot
		remaining := 0
		err := tx.Where("harvest_id = ? AND date = ?", r.HarvestID, r.ReservationDate).
			First(&slot).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No row for this date: nothing bookable.
		case err != nil:
			return fmt.Errorf("failed to load slots for harvest %d: %w", r.HarvestID, err)
		default:
			remaining = slot.Remaining
		}

		if r.Participants > remaining {
			return ErrSlotsUnavailable
		}

		slot.HarvestID = r.HarvestID
		slot.Date = r.ReservationDate
		slot.Remaining = remaining - r.Participants
		if err := tx.Save(&slot).Error; err != nil {
			return fmt.Errorf("failed to decrement slots for harvest %d: %w", r.HarvestID, err)
		}

		r.Status = model.StatusPending
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return nil
	})
}

func (s *gormStore) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := s.db.WithContext(ctx).Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (s *gormStore) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations for user %s: %w", userID, err)
	}
	return reservations, nil
}

// UpdateReservationStatus moves a pending reservation to Confirmed or
// Cancelled. Confirmed and Cancelled are terminal, and cancelling does not
// restore the consumed slots.
func (s *gormStore) UpdateReservationStatus(ctx context.Context, id int64, status string) (*model.Reservation, error) {
	if status != model.StatusConfirmed && status != model.StatusCancelled {
		return nil, ErrInvalidStatus
	}

	var reservation model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to load reservation %d: %w", id, err)
		}
		if reservation.Status != model.StatusPending {
			return ErrInvalidStatus
		}
		reservation.Status = status
		if err := tx.Save(&reservation).Error; err != nil {
			return fmt.Errorf("failed to update reservation %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CountReservationsByUser counts a user's reservations by status. Cancelled
// reservations are excluded from both counters.
func (s *gormStore) CountReservationsByUser(ctx context.Context, userID string) (ReservationCounts, error) {
	var counts ReservationCounts
	err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("user_id = ? AND status = ?", userID, model.StatusConfirmed).
		Count(&counts.Confirmed).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count confirmed reservations: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("user_id = ? AND status = ?", userID, model.StatusPending).
		Count(&counts.Pending).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count pending reservations: %w", err)
	}
	return counts, nil
}
