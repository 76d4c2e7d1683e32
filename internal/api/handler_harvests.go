package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"harvest-booking-backend/internal/model"
	"harvest-booking-backend/internal/store"
)

// HarvestResponse represents the API response for a single harvest. The
// availability map is keyed by calendar date (YYYY-MM-DD).
type HarvestResponse struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	Price          float64        `json:"price"`
	ImageData      string         `json:"imageData"`
	AvailableSlots map[string]int `json:"availableSlots"`
}

func toHarvestResponse(h model.Harvest) HarvestResponse {
	return HarvestResponse{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		Location:       h.Location,
		Price:          h.Price,
		ImageData:      h.ImageData,
		AvailableSlots: h.SlotMap(),
	}
}

// GetHarvests handles GET /api/harvests. With a non-empty searchTerm query
// parameter it returns harvests matching the term as a case-insensitive
// substring of name, location or description; otherwise all harvests.
func (h *Handler) GetHarvests(c *gin.Context) {
	harvests, err := h.store.SearchHarvests(c.Request.Context(), c.Query("searchTerm"))
	if err != nil {
		h.abortStoreError(c, err)
		return
	}

	responses := make([]HarvestResponse, 0, len(harvests))
	for _, harvest := range harvests {
		responses = append(responses, toHarvestResponse(harvest))
	}
	c.JSON(http.StatusOK, responses)
}

// GetHarvestByID handles GET /api/harvests/:id.
func (h *Handler) GetHarvestByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid harvest ID"})
		return
	}

	harvest, err := h.store.GetHarvest(c.Request.Context(), id)
	if err != nil {
		h.abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHarvestResponse(*harvest))
}

type updateHarvestRequest struct {
	Name           string         `json:"name" binding:"required"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	Price          float64        `json:"price" binding:"gte=0"`
	ImageData      string         `json:"imageData"`
	AvailableSlots map[string]int `json:"availableSlots"`
}

// UpdateHarvest handles PUT /api/harvests/:id. The update is a wholesale
// overwrite: every field, including the availability map, replaces the
// stored state.
func (h *Handler) UpdateHarvest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid harvest ID"})
		return
	}

	var req updateHarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	harvest, err := h.store.UpdateHarvest(c.Request.Context(), id, store.HarvestUpdate{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		ImageData:   req.ImageData,
		Slots:       req.AvailableSlots,
	})
	if err != nil {
		h.abortStoreError(c, err)
		return
	}

	h.flushCache()
	c.JSON(http.StatusOK, toHarvestResponse(*harvest))
}
