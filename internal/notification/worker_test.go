package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"harvest-booking-backend/internal/model"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

var testDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:notification_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Harvest{},
		&model.HarvestSlot{},
		&model.Reservation{},
		&model.PushSubscription{},
	))
	return db
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_NotifiesSubscribedUser(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	harvest := model.Harvest{Name: "Strawberry Picking", Price: 1500}
	require.NoError(t, db.Create(&harvest).Error)

	reservation := model.Reservation{
		HarvestID: harvest.ID, UserID: "user-1", UserName: "Hanako",
		UserEmail: "hanako@example.com", ReservationDate: "2025-09-01",
		Participants: 4, Status: model.StatusConfirmed,
	}
	require.NoError(t, db.Create(&reservation).Error)

	subscription := model.PushSubscription{
		Endpoint: "https://push.example.com/sub-1",
		P256DH:   "test_p256dh",
		Auth:     "test_auth",
		UserID:   "user-1",
	}
	require.NoError(t, db.Create(&subscription).Error)

	// A subscription for a different user must not receive anything.
	other := model.PushSubscription{
		Endpoint: "https://push.example.com/other",
		P256DH:   "p", Auth: "a", UserID: "user-2",
	}
	require.NoError(t, db.Create(&other).Error)

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			assert.Equal(t, "https://push.example.com/sub-1", sub.Endpoint)
			assert.Equal(t,
				"Your reservation for Strawberry Picking on 2025-09-01 is now Confirmed.",
				string(payload))
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(reservation.ID)
	wg.Wait()
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	harvest := model.Harvest{Name: "Grape Picking", Price: 2000}
	require.NoError(t, db.Create(&harvest).Error)

	reservation := model.Reservation{
		HarvestID: harvest.ID, UserID: "user-1", UserName: "Taro",
		UserEmail: "taro@example.com", ReservationDate: "2025-09-15",
		Participants: 2, Status: model.StatusCancelled,
	}
	require.NoError(t, db.Create(&reservation).Error)

	subscription := model.PushSubscription{
		Endpoint: "https://push.example.com/expired",
		P256DH:   "p", Auth: "a", UserID: "user-1",
	}
	require.NoError(t, db.Create(&subscription).Error)

	sent := make(chan struct{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer close(sent)
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(reservation.ID)
	<-sent

	// The delete happens after the send returns; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int64
		db.Model(&model.PushSubscription{}).Count(&count)
		if count == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expired subscription was not deleted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerPool_NoSubscriptionsIsANoop(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	harvest := model.Harvest{Name: "Mandarin Picking", Price: 1000}
	require.NoError(t, db.Create(&harvest).Error)

	reservation := model.Reservation{
		HarvestID: harvest.ID, UserID: "user-without-subs", UserName: "n",
		UserEmail: "n@example.com", ReservationDate: "2025-10-01",
		Participants: 1, Status: model.StatusConfirmed,
	}
	require.NoError(t, db.Create(&reservation).Error)

	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Error("no notification should be sent when the user has no subscriptions")
			return nil, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(reservation.ID)
	time.Sleep(100 * time.Millisecond)
}
