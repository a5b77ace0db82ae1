package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"campusbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Два (и больше) конкурентных запроса на один слот: фиксируется ровно один,
// остальные получают ErrSlotConflict.
func TestConcurrentBookingSameSlot(t *testing.T) {
	db := newTestDB(t)
	seedTestReference(t, db)
	ctx := context.Background()
	date := mustDate(t, "2024-06-10")

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			booking := &models.Booking{
				FacilityID:   1,
				FacilityName: "Room F1",
				UserID:       int64(id + 1),
				UserName:     "Racer",
				Date:         date,
				StartTime:    "09:00",
				EndTime:      "10:00",
				Status:       models.StatusPendingAdminApproval,
			}
			results <- db.CreateBooking(ctx, booking, 1, "C1")
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, ErrSlotConflict):
			conflictCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successCount, "exactly one booking should win the slot")
	assert.Equal(t, numGoroutines-1, conflictCount)

	bookings, err := db.GetBookingsByFacilityDate(ctx, 1, date)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

// Конкурентные approve и cancel одной брони: побеждает ровно один переход.
func TestConcurrentApproveAndCancel(t *testing.T) {
	db := newTestDB(t)
	seedTestReference(t, db)
	ctx := context.Background()

	b := newTestBooking(mustDate(t, "2024-06-10"), "09:00", "10:00")
	b.Status = models.StatusPendingAdminApproval
	require.NoError(t, db.CreateBooking(ctx, b, 1, "C1"))

	var wg sync.WaitGroup
	wg.Add(2)
	results := make(chan error, 2)

	go func() {
		defer wg.Done()
		results <- db.UpdateBookingStatusIfCurrent(ctx, b.ID, models.StatusPendingAdminApproval, models.StatusApproved, 3)
	}()
	go func() {
		defer wg.Done()
		results <- db.UpdateBookingStatusIfCurrent(ctx, b.ID, models.StatusPendingAdminApproval, models.StatusCancelled, 1)
	}()

	wg.Wait()
	close(results)

	successCount := 0
	lostCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, ErrConcurrentModification):
			lostCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successCount)
	assert.Equal(t, 1, lostCount)
}

// После любой последовательности операций активные брони помещения на дату
// попарно не пересекаются.
func TestNoOverlapInvariant(t *testing.T) {
	db := newTestDB(t)
	seedTestReference(t, db)
	ctx := context.Background()
	date := mustDate(t, "2024-06-10")

	slots := [][2]string{
		{"08:00", "09:00"}, {"08:30", "09:30"}, {"09:00", "10:30"},
		{"10:00", "11:00"}, {"10:30", "11:30"}, {"11:00", "12:00"},
	}

	var wg sync.WaitGroup
	for i, slot := range slots {
		wg.Add(1)
		go func(id int, start, end string) {
			defer wg.Done()
			b := &models.Booking{
				FacilityID: 1, FacilityName: "Room F1",
				UserID: int64(id + 1), UserName: "Racer",
				Date: date, StartTime: start, EndTime: end,
				Status: models.StatusApproved,
			}
			_ = db.CreateBooking(ctx, b, 1, "C1")
		}(i, slot[0], slot[1])
	}
	wg.Wait()

	bookings, err := db.GetBookingsByFacilityDate(ctx, 1, date)
	require.NoError(t, err)
	require.NotEmpty(t, bookings)

	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings); j++ {
			a, b := bookings[i], bookings[j]
			assert.False(t, models.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
				"bookings %s and %s overlap", a.Code, b.Code)
		}
	}
}
