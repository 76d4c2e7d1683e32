package store

import "errors"

// Sentinel errors surfaced by the store. The API layer maps these to HTTP
// status codes; anything else is treated as an internal failure.
var (
	ErrHarvestNotFound     = errors.New("harvest not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrSlotsUnavailable    = errors.New("not enough available slots for the selected date")
	ErrInvalidStatus       = errors.New("invalid status: must be 'Confirmed' or 'Cancelled'")
)
