package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	conflictColumns   = []string{"id", "start_time", "end_time", "user_id"}
	bookingRowColumns = []string{
		"id", "user_id", "court_id", "facility_id", "booking_date", "start_time", "end_time",
		"duration", "total_amount", "payment_method", "status", "payment_status", "created_at", "updated_at",
	}
)

func newBookingRequest(start, end string) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		CourtID:       uuid.New(),
		BookingDate:   "2024-01-08",
		StartTime:     start,
		EndTime:       end,
		Duration:      1,
		TotalAmount:   1500,
		PaymentMethod: "pay_at_venue",
		Status:        "confirmed",
		PaymentStatus: "pending",
		UserID:        uuid.New(),
	}
}

func expectCourtLock(mock sqlmock.Sqlmock, courtID, facilityID uuid.UUID, status string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT facility_id, status FROM courts WHERE id = $1 FOR UPDATE`)).
		WithArgs(courtID).
		WillReturnRows(sqlmock.NewRows([]string{"facility_id", "status"}).AddRow(facilityID.String(), status))
}

func TestCreateWithConflictCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("Adjacent Booking Succeeds", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("11:00", "12:00")
		facilityID := uuid.New()
		slotID := uuid.New()
		bookingID := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		expectCourtLock(mock, req.CourtID, facilityID, "active")
		// 10:00-11:00 ends where this one starts, so the overlap query finds nothing
		mock.ExpectQuery(`AND start_time < \$4`).
			WithArgs(req.CourtID, "2024-01-08", "11:00", "12:00").
			WillReturnRows(sqlmock.NewRows(conflictColumns))
		mock.ExpectQuery(`SELECT id FROM time_slots`).
			WithArgs(req.CourtID, 1, "11:00").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(slotID.String()))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
				bookingID.String(), req.UserID.String(), req.CourtID.String(), facilityID.String(),
				"2024-01-08", "11:00", "12:00", 1, 1500.0, "pay_at_venue", "confirmed", "pending", now, now,
			))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE time_slots SET is_available = false WHERE id = $1`)).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		booking, err := repo.CreateWithConflictCheck(ctx, req, 1)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)
		assert.Equal(t, facilityID, booking.FacilityID)
		assert.Equal(t, "11:00", booking.StartTime)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Overlapping Booking Conflicts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("10:30", "11:30")
		existingID := uuid.New()
		otherUser := uuid.New()

		mock.ExpectBegin()
		expectCourtLock(mock, req.CourtID, uuid.New(), "active")
		mock.ExpectQuery(`AND start_time < \$4`).
			WithArgs(req.CourtID, "2024-01-08", "10:30", "11:30").
			WillReturnRows(sqlmock.NewRows(conflictColumns).
				AddRow(existingID.String(), "10:00", "11:00", otherUser.String()))
		mock.ExpectRollback()

		booking, err := repo.CreateWithConflictCheck(ctx, req, 1)
		assert.Nil(t, booking)
		require.ErrorIs(t, err, ErrBookingConflict)

		var conflict *BookingConflictError
		require.True(t, errors.As(err, &conflict))
		require.Len(t, conflict.Conflicts, 1)
		assert.Equal(t, existingID, conflict.Conflicts[0].ID)
		assert.Equal(t, "10:00", conflict.Conflicts[0].StartTime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Slot Unavailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("10:00", "11:00")

		mock.ExpectBegin()
		expectCourtLock(mock, req.CourtID, uuid.New(), "active")
		mock.ExpectQuery(`AND start_time < \$4`).WillReturnRows(sqlmock.NewRows(conflictColumns))
		mock.ExpectQuery(`SELECT id FROM time_slots`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := repo.CreateWithConflictCheck(ctx, req, 1)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Court", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("10:00", "11:00")

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM courts WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"facility_id", "status"}))
		mock.ExpectRollback()

		_, err := repo.CreateWithConflictCheck(ctx, req, 1)
		assert.ErrorIs(t, err, ErrCourtNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Court Under Maintenance", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("10:00", "11:00")

		mock.ExpectBegin()
		expectCourtLock(mock, req.CourtID, uuid.New(), "maintenance")
		mock.ExpectRollback()

		_, err := repo.CreateWithConflictCheck(ctx, req, 1)
		assert.ErrorIs(t, err, ErrCourtInactive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exclusion Violation Maps To Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("10:00", "11:00")

		mock.ExpectBegin()
		expectCourtLock(mock, req.CourtID, uuid.New(), "active")
		mock.ExpectQuery(`AND start_time < \$4`).WillReturnRows(sqlmock.NewRows(conflictColumns))
		mock.ExpectQuery(`SELECT id FROM time_slots`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(&pq.Error{Code: "23P01", Constraint: "bookings_no_overlap"})
		mock.ExpectRollback()

		_, err := repo.CreateWithConflictCheck(ctx, req, 1)
		assert.ErrorIs(t, err, ErrBookingConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Serialization Failure On Commit Maps To Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		req := newBookingRequest("10:00", "11:00")
		now := time.Now()

		mock.ExpectBegin()
		expectCourtLock(mock, req.CourtID, uuid.New(), "active")
		mock.ExpectQuery(`AND start_time < \$4`).WillReturnRows(sqlmock.NewRows(conflictColumns))
		mock.ExpectQuery(`SELECT id FROM time_slots`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
				uuid.New().String(), req.UserID.String(), req.CourtID.String(), uuid.New().String(),
				"2024-01-08", "10:00", "11:00", 1, 1500.0, "pay_at_venue", "confirmed", "pending", now, now,
			))
		mock.ExpectExec(`UPDATE time_slots SET is_available = false`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

		_, err := repo.CreateWithConflictCheck(ctx, req, 1)
		assert.ErrorIs(t, err, ErrBookingConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	lockColumns := []string{"id", "user_id", "court_id", "day_of_week", "start_time", "status"}

	t.Run("Restores Slot", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()
		userID := uuid.New()
		courtID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(bookingID, userID).
			WillReturnRows(sqlmock.NewRows(lockColumns).
				AddRow(bookingID.String(), userID.String(), courtID.String(), 1, "10:00", "confirmed"))
		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE time_slots SET is_available = true`).
			WithArgs(courtID, 1, "10:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Cancel(ctx, bookingID, userID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()
		userID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(lockColumns).
				AddRow(bookingID.String(), userID.String(), uuid.New().String(), 1, "10:00", "cancelled"))
		mock.ExpectRollback()

		err := repo.Cancel(ctx, bookingID, userID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Owned", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(lockColumns))
		mock.ExpectRollback()

		err := repo.Cancel(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFindConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	courtID := uuid.New()

	mock.ExpectQuery(`status <> 'cancelled'`).
		WithArgs(courtID, "2024-01-08", "09:00", "10:00").
		WillReturnRows(sqlmock.NewRows(conflictColumns))

	conflicts, err := repo.FindConflicts(courtID, "2024-01-08", "09:00", "10:00")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePast(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	now := time.Date(2024, 1, 8, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec(`SET status = 'completed'`).
		WithArgs("2024-01-08 13:00:00").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.CompletePast(now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	lockColumns := []string{"id", "user_id", "court_id", "booking_date", "day_of_week", "start_time", "end_time", "status"}
	strPtr := func(s string) *string { return &s }

	expectLock := func(mock sqlmock.Sqlmock, bookingID, courtID uuid.UUID, status string) {
		mock.ExpectQuery(`FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(lockColumns).
				AddRow(bookingID.String(), uuid.New().String(), courtID.String(), "2024-01-08", 1, "10:00", "11:00", status))
	}

	t.Run("Cancelling Restores Slot", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()
		courtID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, bookingID, courtID, "confirmed")
		mock.ExpectExec(`UPDATE bookings SET status = \$1`).
			WithArgs("cancelled", bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE time_slots SET is_available = true`).
			WithArgs(courtID, 1, "10:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, bookingID, strPtr("cancelled"), nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancelled Again Leaves Slot Alone", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, bookingID, uuid.New(), "cancelled")
		mock.ExpectExec(`UPDATE bookings SET status = \$1`).
			WithArgs("cancelled", bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, bookingID, strPtr("cancelled"), nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Payment Status Only", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, bookingID, uuid.New(), "confirmed")
		mock.ExpectExec(`UPDATE bookings SET payment_status = \$1`).
			WithArgs("paid", bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, bookingID, nil, strPtr("paid"))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reviving Claims Slot", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()
		courtID := uuid.New()
		slotID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, bookingID, courtID, "cancelled")
		mock.ExpectQuery(`AND start_time < \$4`).
			WithArgs(courtID, "2024-01-08", "10:00", "11:00").
			WillReturnRows(sqlmock.NewRows(conflictColumns))
		mock.ExpectQuery(`SELECT id FROM time_slots`).
			WithArgs(courtID, 1, "10:00").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(slotID.String()))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE time_slots SET is_available = false WHERE id = $1`)).
			WithArgs(slotID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status = \$1`).
			WithArgs("confirmed", bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, bookingID, strPtr("confirmed"), nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reviving Without Free Slot", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, bookingID, uuid.New(), "cancelled")
		mock.ExpectQuery(`AND start_time < \$4`).WillReturnRows(sqlmock.NewRows(conflictColumns))
		mock.ExpectQuery(`SELECT id FROM time_slots`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err := repo.UpdateStatus(ctx, bookingID, strPtr("pending"), nil)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reviving Into Taken Window", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		bookingID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, bookingID, uuid.New(), "cancelled")
		mock.ExpectQuery(`AND start_time < \$4`).
			WillReturnRows(sqlmock.NewRows(conflictColumns).
				AddRow(uuid.New().String(), "10:30", "11:30", uuid.New().String()))
		mock.ExpectRollback()

		err := repo.UpdateStatus(ctx, bookingID, strPtr("confirmed"), nil)
		assert.ErrorIs(t, err, ErrBookingConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
