package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"harvest-booking-backend/internal/model"
)

// ReservationResponse represents the API response for a single reservation.
type ReservationResponse struct {
	ID                   int64  `json:"id"`
	HarvestID            int64  `json:"harvestId"`
	UserID               string `json:"userId"`
	UserName             string `json:"userName"`
	UserEmail            string `json:"userEmail"`
	ReservationDate      string `json:"reservationDate"`
	NumberOfParticipants int    `json:"numberOfParticipants"`
	Status               string `json:"status"`
}

func toReservationResponse(r model.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                   r.ID,
		HarvestID:            r.HarvestID,
		UserID:               r.UserID,
		UserName:             r.UserName,
		UserEmail:            r.UserEmail,
		ReservationDate:      r.ReservationDate,
		NumberOfParticipants: r.Participants,
		Status:               r.Status,
	}
}

type createReservationRequest struct {
	HarvestID            int64  `json:"harvestId" binding:"required"`
	UserID               string `json:"userId"`
	UserName             string `json:"userName" binding:"required"`
	UserEmail            string `json:"userEmail" binding:"required,email"`
	ReservationDate      string `json:"reservationDate" binding:"required,datetime=2006-01-02"`
	NumberOfParticipants int    `json:"numberOfParticipants" binding:"required,gt=0"`
	// Status is accepted in the body but ignored; new reservations are
	// always Pending.
	Status string `json:"status"`
}

// CreateReservation handles POST /api/reservations. The booking flow checks
// the harvest's remaining slots for the requested date and decrements them
// together with the reservation insert.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation := model.Reservation{
		HarvestID:       req.HarvestID,
		UserID:          req.UserID,
		UserName:        req.UserName,
		UserEmail:       req.UserEmail,
		ReservationDate: req.ReservationDate,
		Participants:    req.NumberOfParticipants,
	}
	if err := h.store.CreateReservation(c.Request.Context(), &reservation); err != nil {
		h.abortStoreError(c, err)
		return
	}

	h.flushCache()
	c.JSON(http.StatusCreated, toReservationResponse(reservation))
}

// GetReservations handles GET /api/reservations. With a userId query
// parameter it returns only that user's reservations.
func (h *Handler) GetReservations(c *gin.Context) {
	var (
		reservations []model.Reservation
		err          error
	)
	if userID, ok := c.GetQuery("userId"); ok {
		reservations, err = h.store.ListReservationsByUser(c.Request.Context(), userID)
	} else {
		reservations, err = h.store.ListReservations(c.Request.Context())
	}
	if err != nil {
		h.abortStoreError(c, err)
		return
	}

	responses := make([]ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		responses = append(responses, toReservationResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateReservationStatus handles PUT /api/reservations/:id/status. Only
// "Confirmed" and "Cancelled" are accepted, and only from Pending. A
// successful update is dispatched to the push notification workers.
func (h *Handler) UpdateReservationStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid reservation ID"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := h.store.UpdateReservationStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.abortStoreError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(reservation.ID)
	}
	c.JSON(http.StatusOK, toReservationResponse(*reservation))
}

// GetReservationCounts handles GET /api/reservations/counts?userId=. It
// returns the user's confirmed and pending totals; cancelled reservations
// are excluded from both.
func (h *Handler) GetReservationCounts(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	counts, err := h.store.CountReservationsByUser(c.Request.Context(), userID)
	if err != nil {
		h.abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
