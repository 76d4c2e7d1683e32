package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"harvest-booking-backend/config"
	"harvest-booking-backend/internal/api"
	"harvest-booking-backend/internal/model"
	"harvest-booking-backend/internal/store"
)

// TestBookingLifecycle walks a harvest through the full booking flow over
// HTTP: a successful booking that decrements slots, an over-booking attempt
// that is rejected without mutation, and a confirmation that leaves the
// slot count untouched.
func TestBookingLifecycle(t *testing.T) {
	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file:booking_lifecycle?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(
		&model.Harvest{},
		&model.HarvestSlot{},
		&model.Reservation{},
		&model.PushSubscription{},
	))

	// 2. Seed the harvest under test.
	harvest := model.Harvest{
		Name:        "Strawberry Picking",
		Description: "Pick your own sweet, fresh strawberries!",
		Location:    "Shizuoka",
		Price:       1500,
		Slots:       []model.HarvestSlot{{Date: "2025-09-01", Remaining: 10}},
	}
	require.NoError(t, testDB.Create(&harvest).Error)

	// 3. Stand up the full router.
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	router := api.NewRouter(store.NewGormStore(testDB), cfg, nil, nil)

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	remaining := func() int {
		var slot model.HarvestSlot
		require.NoError(t, testDB.Where("harvest_id = ? AND date = ?", harvest.ID, "2025-09-01").
			First(&slot).Error)
		return slot.Remaining
	}

	var firstReservation api.ReservationResponse

	t.Run("Step 1: booking 4 of 10 succeeds", func(t *testing.T) {
		w := do(http.MethodPost, "/api/reservations", map[string]any{
			"harvestId":            harvest.ID,
			"userId":               "user-1",
			"userName":             "Hanako",
			"userEmail":            "hanako@example.com",
			"reservationDate":      "2025-09-01",
			"numberOfParticipants": 4,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &firstReservation))
		assert.Equal(t, model.StatusPending, firstReservation.Status)
		assert.Equal(t, 6, remaining())
	})

	t.Run("Step 2: booking 7 of the remaining 6 fails", func(t *testing.T) {
		w := do(http.MethodPost, "/api/reservations", map[string]any{
			"harvestId":            harvest.ID,
			"userId":               "user-2",
			"userName":             "Taro",
			"userEmail":            "taro@example.com",
			"reservationDate":      "2025-09-01",
			"numberOfParticipants": 7,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 6, remaining(), "a rejected booking must not change the slot count")
	})

	t.Run("Step 3: confirming the first reservation leaves slots untouched", func(t *testing.T) {
		w := do(http.MethodPut,
			"/api/reservations/"+strconv.FormatInt(firstReservation.ID, 10)+"/status",
			map[string]any{"status": "Confirmed"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.StatusConfirmed, resp.Status)
		assert.Equal(t, 6, remaining())
	})

	t.Run("Step 4: counts report the user's confirmed booking", func(t *testing.T) {
		w := do(http.MethodGet, "/api/reservations/counts?userId=user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"confirmed":1,"pending":0}`, w.Body.String())
	})

	t.Run("Step 5: the listing reflects the consumed slots", func(t *testing.T) {
		w := do(http.MethodGet, "/api/harvests?searchTerm=strawberry", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var harvests []api.HarvestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &harvests))
		require.Len(t, harvests, 1)
		assert.Equal(t, 6, harvests[0].AvailableSlots["2025-09-01"])
	})
}
